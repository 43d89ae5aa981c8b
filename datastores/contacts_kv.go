package datastores

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/VictoriaMetrics/metrics"
)

// DefaultContactsKey is the [KV] key holding the serialized contacts.
const DefaultContactsKey = "contacts"

// ContactsKV implements [ContactsStore] in memory and mirrors every
// mutation to a [KV] under a single key. The in-memory collection is
// authoritative: writes happen asynchronously, failures are only logged.
type ContactsKV struct {
	mem    *ContactsInmem
	kv     KV
	key    string
	logger *slog.Logger

	seq     uint64 // last snapshot taken, guarded by mem.mu
	wmu     sync.Mutex
	written uint64 // snapshot held by the KV, guarded by wmu
	writes  sync.WaitGroup

	writesOK, writesFailed, writesSkipped *metrics.Counter
}

var _ ContactsStore = (*ContactsKV)(nil)

type ContactsKVOptions struct {
	Key     string       // defaults to [DefaultContactsKey]
	Logger  *slog.Logger // defaults to [slog.Default]
	Metrics *metrics.Set // counters are not exported when nil
}

func NewContactsKV(kv KV, options ContactsKVOptions) *ContactsKV {
	if options.Key == "" {
		options.Key = DefaultContactsKey
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Metrics == nil {
		options.Metrics = metrics.NewSet()
	}

	s := &ContactsKV{
		mem:    NewContactsInmem(),
		kv:     kv,
		key:    options.Key,
		logger: options.Logger.With("component", "contacts", "key", options.Key),
	}
	set := options.Metrics
	s.writesOK = set.NewCounter(`contacts_writes_total{result="ok"}`)
	s.writesFailed = set.NewCounter(`contacts_writes_total{result="error"}`)
	s.writesSkipped = set.NewCounter(`contacts_writes_total{result="superseded"}`)
	set.NewGauge(`contacts_stored`, func() float64 { return float64(s.mem.Len()) })
	return s
}

// LoadStatus tells how [ContactsKV.Load] populated the collection.
type LoadStatus int

const (
	LoadOK         LoadStatus = iota // persisted contacts restored
	LoadAbsent                       // nothing persisted yet
	LoadReadFailed                   // storage error, treated as absent
	LoadCorrupt                      // persisted value could not be decoded
)

func (st LoadStatus) String() string {
	switch st {
	case LoadOK:
		return "ok"
	case LoadAbsent:
		return "absent"
	case LoadReadFailed:
		return "read failed"
	case LoadCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// Load replaces the collection with the persisted one.
// It never fails: on any problem the collection is left empty.
// Contacts with an empty or already taken id get a new one,
// which is written back.
func (s *ContactsKV) Load(ctx context.Context) LoadStatus {
	var contacts []*Contact
	status := LoadOK

	value, err := s.kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, ErrKeyNotFound):
		status = LoadAbsent
		s.logger.DebugContext(ctx, "no persisted contacts")
	case err != nil:
		status = LoadReadFailed
		s.logger.ErrorContext(ctx, "could not read persisted contacts", "err", err)
	default:
		contacts, err = DecodeContacts(value)
		if err != nil {
			status = LoadCorrupt
			contacts = nil
			s.logger.ErrorContext(ctx, "could not decode persisted contacts, starting empty", "err", err, "bytes", len(value))
		}
	}

	s.mem.mu.Lock()
	reminted := s.mem.reset(contacts)
	s.mem.mu.Unlock()

	if status == LoadOK {
		s.logger.InfoContext(ctx, "contacts loaded", "count", len(contacts))
	}
	if reminted > 0 {
		// new ids must be durable to stay stable across restarts
		s.logger.WarnContext(ctx, "persisted contacts had empty or duplicate ids, new ids assigned", "count", reminted)
		s.Persist(ctx)
	}
	return status
}

func (s *ContactsKV) Create(ctx context.Context, in ContactInput) (*Contact, error) {
	s.mem.mu.Lock()
	c, err := s.mem.create(in)
	if err != nil {
		s.mem.mu.Unlock()
		return nil, err
	}
	snap := s.snapshot()
	s.mem.mu.Unlock()

	s.schedule(ctx, snap)
	return c, nil
}

// Delete removes the contact, deleting an unknown id is not an error.
// The collection is written in both cases.
func (s *ContactsKV) Delete(ctx context.Context, id ContactID) error {
	s.mem.mu.Lock()
	if !s.mem.delete(id) {
		s.logger.DebugContext(ctx, "no contact to delete", "id", id)
	}
	snap := s.snapshot()
	s.mem.mu.Unlock()

	s.schedule(ctx, snap)
	return nil
}

func (s *ContactsKV) List(ctx context.Context) ([]*Contact, error) { return s.mem.List(ctx) }

func (s *ContactsKV) Get(ctx context.Context, id ContactID) (*Contact, error) {
	return s.mem.Get(ctx, id)
}

// Persist writes the current collection. The returned channel receives
// the outcome of the write and is then closed.
func (s *ContactsKV) Persist(ctx context.Context) <-chan error {
	s.mem.mu.Lock()
	snap := s.snapshot()
	s.mem.mu.Unlock()
	return s.schedule(ctx, snap)
}

// Wait blocks until all scheduled writes have completed.
func (s *ContactsKV) Wait() { s.writes.Wait() }

type snapshot struct {
	seq      uint64
	contacts []*Contact
}

// snapshot expects s.mem.mu to be held.
func (s *ContactsKV) snapshot() snapshot {
	s.seq++
	return snapshot{seq: s.seq, contacts: slices.Clone(s.mem.contacts)}
}

func (s *ContactsKV) schedule(ctx context.Context, snap snapshot) <-chan error {
	ctx = context.WithoutCancel(ctx)
	done := make(chan error, 1)
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		defer close(done)
		done <- s.write(ctx, snap)
	}()
	return done
}

func (s *ContactsKV) write(ctx context.Context, snap snapshot) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	if snap.seq <= s.written {
		s.writesSkipped.Inc()
		return nil
	}

	value, err := EncodeContacts(snap.contacts)
	if err == nil {
		err = s.kv.Set(ctx, s.key, value)
	}
	if err != nil {
		s.writesFailed.Inc()
		s.logger.ErrorContext(ctx, "could not persist contacts", "err", err, "seq", snap.seq)
		return err
	}

	s.written = snap.seq
	s.writesOK.Inc()
	s.logger.DebugContext(ctx, "contacts persisted", "count", len(snap.contacts), "seq", snap.seq)
	return nil
}
