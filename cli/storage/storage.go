package storage

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	ds "github.com/oaiiae/event-contacts/datastores"
)

type BackendOptions struct {
	Storage     string `doc:"storage backend: file, sqlite or memory"            default:"file"`
	StoragePath string `doc:"directory (file) or database file (sqlite) to use"  default:"contacts-data"`
	StorageKey  string `doc:"key holding the contacts collection"                default:"contacts"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the [ds.KV] selected by options.
// The closer must be called once the storage is no longer used.
func Open(options *BackendOptions, logger *slog.Logger) (ds.KV, io.Closer, error) {
	switch strings.ToLower(options.Storage) {
	case "memory":
		logger.Warn("contacts are kept in memory and lost on exit")
		return new(ds.KVInmem), nopCloser{}, nil

	case "", "file":
		kv, err := ds.NewKVFile(options.StoragePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("file storage initialized", "dir", options.StoragePath)
		return kv, nopCloser{}, nil

	case "sqlite":
		path := options.StoragePath
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "contacts.db")
		}
		kv, err := ds.NewKVSQLite(path, logger)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage %q", options.Storage)
	}
}

// NewContacts opens the storage and loads the contacts collection from it.
func NewContacts(options *BackendOptions, logger *slog.Logger, cfg ds.ContactsKVOptions) (*ds.ContactsKV, io.Closer, error) {
	kv, closer, err := Open(options, logger)
	if err != nil {
		return nil, nil, err
	}
	cfg.Key = options.StorageKey
	cfg.Logger = logger
	return ds.NewContactsKV(kv, cfg), closer, nil
}
