package datastores

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/VictoriaMetrics/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kvFuncs struct {
	get func(ctx context.Context, key string) (string, error)
	set func(ctx context.Context, key, value string) error
}

func (kv kvFuncs) Get(ctx context.Context, key string) (string, error) { return kv.get(ctx, key) }

func (kv kvFuncs) Set(ctx context.Context, key, value string) error { return kv.set(ctx, key, value) }

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func persisted(t *testing.T, kv KV) []*Contact {
	t.Helper()
	value, err := kv.Get(context.Background(), DefaultContactsKey)
	require.NoError(t, err)
	cs, err := DecodeContacts(value)
	require.NoError(t, err)
	return cs
}

func TestContactsKV_Scenario(t *testing.T) {
	ctx := context.Background()
	kv := new(KVInmem)
	s := NewContactsKV(kv, ContactsKVOptions{})
	assert.Equal(t, LoadAbsent, s.Load(ctx))

	ann, err := s.Create(ctx, ContactInput{Name: "Ann"})
	require.NoError(t, err)
	list, _ := s.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, "Ann", list[0].Name)
	assert.Equal(t, ann.ID, list[0].ID)

	bo, err := s.Create(ctx, ContactInput{Name: "Bo", Email: "b@x.com"})
	require.NoError(t, err)
	assert.NotEqual(t, ann.ID, bo.ID)
	list, _ = s.List(ctx)
	assert.Equal(t, []string{"Ann", "Bo"}, names(list))

	require.NoError(t, s.Delete(ctx, ann.ID))
	list, _ = s.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, "Bo", list[0].Name)
	assert.Equal(t, "b@x.com", list[0].Email)

	s.Wait()
	assert.Equal(t, []string{"Bo"}, names(persisted(t, kv)))
}

func TestContactsKV_BlankNameNoMutationNoWrite(t *testing.T) {
	ctx := context.Background()
	kv := new(KVInmem)
	s := NewContactsKV(kv, ContactsKVOptions{})
	s.Load(ctx)

	c, err := s.Create(ctx, ContactInput{Name: ""})
	require.ErrorIs(t, err, ErrNameRequired)
	assert.Nil(t, c)

	list, _ := s.List(ctx)
	assert.Empty(t, list)

	s.Wait()
	_, err = kv.Get(ctx, DefaultContactsKey)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestContactsKV_DeleteUnknownStillWrites(t *testing.T) {
	ctx := context.Background()
	kv := new(KVInmem)
	s := NewContactsKV(kv, ContactsKVOptions{})
	_, err := s.Create(ctx, ContactInput{Name: "Ann"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "nope"))
	list, _ := s.List(ctx)
	assert.Len(t, list, 1)

	s.Wait()
	assert.Equal(t, []string{"Ann"}, names(persisted(t, kv)))
}

func TestContactsKV_LoadRestoresOrder(t *testing.T) {
	ctx := context.Background()
	kv := new(KVInmem)

	first := NewContactsKV(kv, ContactsKVOptions{})
	for _, name := range []string{"Ann", "Bo", "Cy"} {
		_, err := first.Create(ctx, ContactInput{Name: name, Notes: "n-" + name})
		require.NoError(t, err)
	}
	first.Wait()

	second := NewContactsKV(kv, ContactsKVOptions{})
	assert.Equal(t, LoadOK, second.Load(ctx))
	want, _ := first.List(ctx)
	got, _ := second.List(ctx)
	assert.Equal(t, want, got)

	// restored ids stay unique for new contacts
	c, err := second.Create(ctx, ContactInput{Name: "Di"})
	require.NoError(t, err)
	for _, old := range want {
		assert.NotEqual(t, old.ID, c.ID)
	}
}

func TestContactsKV_LoadCorrupt(t *testing.T) {
	ctx := context.Background()
	kv := new(KVInmem)
	require.NoError(t, kv.Set(ctx, DefaultContactsKey, "{corrupted"))
	logger, logs := newTestLogger()

	s := NewContactsKV(kv, ContactsKVOptions{Logger: logger})
	assert.Equal(t, LoadCorrupt, s.Load(ctx))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Contains(t, logs.String(), "could not decode persisted contacts")
	assert.NotContains(t, logs.String(), "no persisted contacts")
}

func TestContactsKV_LoadAbsentLogsDistinctly(t *testing.T) {
	logger, logs := newTestLogger()
	s := NewContactsKV(new(KVInmem), ContactsKVOptions{Logger: logger})
	assert.Equal(t, LoadAbsent, s.Load(context.Background()))
	assert.Contains(t, logs.String(), "no persisted contacts")
	assert.NotContains(t, logs.String(), "could not decode")
}

func TestContactsKV_LoadReadFailure(t *testing.T) {
	ctx := context.Background()
	logger, logs := newTestLogger()
	kv := kvFuncs{
		get: func(context.Context, string) (string, error) { return "", errors.New("disk on fire") },
		set: func(context.Context, string, string) error { return nil },
	}

	s := NewContactsKV(kv, ContactsKVOptions{Logger: logger})
	assert.Equal(t, LoadReadFailed, s.Load(ctx))
	list, _ := s.List(ctx)
	assert.Empty(t, list)
	assert.Contains(t, logs.String(), "disk on fire")

	// the store keeps working in memory
	_, err := s.Create(ctx, ContactInput{Name: "Ann"})
	require.NoError(t, err)
}

func TestContactsKV_WriteFailureIsLoggedNotSurfaced(t *testing.T) {
	ctx := context.Background()
	logger, logs := newTestLogger()
	set := metrics.NewSet()
	failure := errors.New("quota exceeded")
	kv := kvFuncs{
		get: func(context.Context, string) (string, error) { return "", ErrKeyNotFound },
		set: func(context.Context, string, string) error { return failure },
	}

	s := NewContactsKV(kv, ContactsKVOptions{Logger: logger, Metrics: set})
	c, err := s.Create(ctx, ContactInput{Name: "Ann"})
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.ErrorIs(t, <-s.Persist(ctx), failure)
	s.Wait()

	list, _ := s.List(ctx)
	assert.Len(t, list, 1)
	assert.Contains(t, logs.String(), "could not persist contacts")
	assert.Equal(t, uint64(2), set.GetOrCreateCounter(`contacts_writes_total{result="error"}`).Get())
}

func TestContactsKV_PersistReportsCompletion(t *testing.T) {
	ctx := context.Background()
	kv := new(KVInmem)
	s := NewContactsKV(kv, ContactsKVOptions{})
	s.mem.reset([]*Contact{{ID: "1", Name: "Ann"}})

	done := s.Persist(ctx)
	require.NoError(t, <-done)
	_, open := <-done
	assert.False(t, open)
	assert.Equal(t, []string{"Ann"}, names(persisted(t, kv)))
}

func TestContactsKV_WritesConvergeToLatest(t *testing.T) {
	ctx := context.Background()
	mem := new(KVInmem)
	release := make(chan struct{})
	var once sync.Once
	kv := kvFuncs{
		get: mem.Get,
		set: func(ctx context.Context, key, value string) error {
			once.Do(func() { <-release })
			return mem.Set(ctx, key, value)
		},
	}
	set := metrics.NewSet()
	s := NewContactsKV(kv, ContactsKVOptions{Metrics: set})

	for _, name := range []string{"Ann", "Bo", "Cy", "Di"} {
		_, err := s.Create(ctx, ContactInput{Name: name})
		require.NoError(t, err)
	}
	close(release)
	s.Wait()

	assert.Equal(t, []string{"Ann", "Bo", "Cy", "Di"}, names(persisted(t, mem)))
	ok := set.GetOrCreateCounter(`contacts_writes_total{result="ok"}`).Get()
	skipped := set.GetOrCreateCounter(`contacts_writes_total{result="superseded"}`).Get()
	assert.Equal(t, uint64(4), ok+skipped)
}

func TestContactsKV_CustomKey(t *testing.T) {
	ctx := context.Background()
	kv := new(KVInmem)
	s := NewContactsKV(kv, ContactsKVOptions{Key: "event-2026"})
	_, err := s.Create(ctx, ContactInput{Name: "Ann"})
	require.NoError(t, err)
	s.Wait()

	_, err = kv.Get(ctx, DefaultContactsKey)
	require.ErrorIs(t, err, ErrKeyNotFound)
	_, err = kv.Get(ctx, "event-2026")
	require.NoError(t, err)
}

func TestContactsKV_FileBackend(t *testing.T) {
	ctx := context.Background()
	kv, err := NewKVFile(t.TempDir())
	require.NoError(t, err)

	s := NewContactsKV(kv, ContactsKVOptions{})
	s.Load(ctx)
	_, err = s.Create(ctx, ContactInput{Name: "Ann", QRCode: "BEGIN:VCARD"})
	require.NoError(t, err)
	s.Wait()

	reloaded := NewContactsKV(kv, ContactsKVOptions{})
	require.Equal(t, LoadOK, reloaded.Load(ctx))
	list, _ := reloaded.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, "BEGIN:VCARD", list[0].QRCode)
}

func TestContactsKV_LoadRemintsRepeatedIDs(t *testing.T) {
	ctx := context.Background()
	kv := new(KVInmem)
	require.NoError(t, kv.Set(ctx, DefaultContactsKey, `[`+
		`{"id":"1700000000000","name":"Ann"},`+
		`{"id":"1700000000000","name":"Bo"},`+
		`{"id":"1700000000001","name":"Cy"},`+
		`{"id":"","name":"Di"}]`))
	logger, logs := newTestLogger()

	s := NewContactsKV(kv, ContactsKVOptions{Logger: logger})
	require.Equal(t, LoadOK, s.Load(ctx))
	s.Wait()

	list, _ := s.List(ctx)
	require.Equal(t, []string{"Ann", "Bo", "Cy", "Di"}, names(list))
	assert.Equal(t, ContactID("1700000000000"), list[0].ID)
	assert.Equal(t, ContactID("1700000000001"), list[2].ID)
	ids := map[ContactID]bool{}
	for _, c := range list {
		assert.NotEmpty(t, c.ID)
		assert.False(t, ids[c.ID], "id %q reused", c.ID)
		ids[c.ID] = true
	}
	assert.Contains(t, logs.String(), "new ids assigned")

	// new ids are written back, and later mutations keep every contact
	assert.Equal(t, list, persisted(t, kv))
	_, err := s.Create(ctx, ContactInput{Name: "Ed"})
	require.NoError(t, err)
	s.Wait()
	assert.Equal(t, []string{"Ann", "Bo", "Cy", "Di", "Ed"}, names(persisted(t, kv)))

	got, err := s.Get(ctx, list[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Bo", got.Name)
}

func TestContactsKV_DurableCopyNeverMovesBack(t *testing.T) {
	ctx := context.Background()
	inner := new(KVInmem)
	failing := false
	kv := kvFuncs{
		get: inner.Get,
		set: func(ctx context.Context, key, value string) error {
			if failing {
				return errors.New("disk full")
			}
			return inner.Set(ctx, key, value)
		},
	}
	s := NewContactsKV(kv, ContactsKVOptions{Logger: slog.New(slog.DiscardHandler)})
	snap := func(seq uint64, ns ...string) snapshot {
		cs := make([]*Contact, 0, len(ns))
		for _, n := range ns {
			cs = append(cs, &Contact{ID: ContactID(n), Name: n})
		}
		return snapshot{seq: seq, contacts: cs}
	}

	require.NoError(t, s.write(ctx, snap(1, "ann")))

	failing = true
	require.Error(t, s.write(ctx, snap(3, "ann", "bo", "cy")))
	failing = false

	// seq 2 is older than the failed write but newer than what is stored
	require.NoError(t, s.write(ctx, snap(2, "ann", "bo")))
	assert.Equal(t, []string{"ann", "bo"}, names(persisted(t, inner)))

	require.NoError(t, s.write(ctx, snap(4, "bo")))
	require.NoError(t, s.write(ctx, snap(3, "ann", "bo", "cy")))
	assert.Equal(t, []string{"bo"}, names(persisted(t, inner)))
}
