package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ds "github.com/oaiiae/event-contacts/datastores"
)

func TestOpen(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	dir := t.TempDir()

	for _, tc := range []struct {
		options BackendOptions
		check   func(t *testing.T, kv ds.KV)
	}{
		{BackendOptions{Storage: "memory"}, func(t *testing.T, kv ds.KV) { assert.IsType(t, new(ds.KVInmem), kv) }},
		{BackendOptions{Storage: "file", StoragePath: filepath.Join(dir, "files")}, func(t *testing.T, kv ds.KV) {
			assert.IsType(t, new(ds.KVFile), kv)
			assert.DirExists(t, filepath.Join(dir, "files"))
		}},
		{BackendOptions{Storage: "SQLite", StoragePath: filepath.Join(dir, "db")}, func(t *testing.T, kv ds.KV) {
			assert.IsType(t, new(ds.KVSQLite), kv)
			assert.FileExists(t, filepath.Join(dir, "db", "contacts.db"))
		}},
		{BackendOptions{Storage: "sqlite", StoragePath: filepath.Join(dir, "other.sqlite")}, func(t *testing.T, _ ds.KV) {
			_, err := os.Stat(filepath.Join(dir, "other.sqlite"))
			assert.NoError(t, err)
		}},
	} {
		t.Run(tc.options.Storage, func(t *testing.T) {
			kv, closer, err := Open(&tc.options, logger)
			require.NoError(t, err)
			defer closer.Close()
			tc.check(t, kv)
		})
	}
}

func TestOpen_Unknown(t *testing.T) {
	_, _, err := Open(&BackendOptions{Storage: "s3"}, slog.New(slog.DiscardHandler))
	assert.ErrorContains(t, err, `unknown storage "s3"`)
}

func TestNewContacts_UsesKey(t *testing.T) {
	ctx := context.Background()
	options := &BackendOptions{Storage: "file", StoragePath: t.TempDir(), StorageKey: "meetup"}

	store, closer, err := NewContacts(options, slog.New(slog.DiscardHandler), ds.ContactsKVOptions{})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, ds.LoadAbsent, store.Load(ctx))
	_, err = store.Create(ctx, ds.ContactInput{Name: "Ann"})
	require.NoError(t, err)
	store.Wait()

	assert.FileExists(t, filepath.Join(options.StoragePath, "meetup.json"))
}
