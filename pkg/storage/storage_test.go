package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/phishguard/pkg/cache"
	"github.com/sw33tLie/phishguard/pkg/remote"
)

func openTemp(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pg.sqlite")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestLoadEmptyDatabase(t *testing.T) {
	db, _ := openTemp(t)
	st, err := db.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, st.Phishing)
	assert.Empty(t, st.Legitimate)
	assert.Empty(t, st.Blocked)
	assert.Nil(t, st.APIConfig)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, path := openTemp(t)

	cfg := remote.Config{Enabled: true, Endpoint: "https://api.example.com", APIKey: "k", Timeout: 1500 * time.Millisecond}
	want := State{
		Phishing:   []string{"http://paypal-security.tk"},
		Legitimate: []string{"https://www.google.com"},
		Blocked:    []string{"http://paypal-security.tk"},
		APIConfig:  &cfg,
	}
	require.NoError(t, db.Save(ctx, want, nil))
	require.NoError(t, db.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	db, _ := openTemp(t)

	require.NoError(t, db.Save(ctx, State{Phishing: []string{"a", "b"}}, nil))
	require.NoError(t, db.Save(ctx, State{Phishing: []string{"c"}}, nil))

	st, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, st.Phishing)
	assert.Equal(t, []string{}, st.Blocked)

	records, err := db.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, RecordBlocked, records[0].Name)
	assert.False(t, records[0].UpdatedAt.IsZero())
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	db, _ := openTemp(t)

	require.NoError(t, db.Save(ctx, State{}, []Event{
		{URL: "http://a.tk", Set: "phishing", Source: "seed"},
		{URL: "http://a.tk", Set: "blocked", Source: "analysis"},
	}))

	events, err := db.ListRecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "blocked", events[0].Set, "newest first")
	assert.Equal(t, "seed", events[1].Source)
	assert.False(t, events[0].OccurredAt.IsZero())
}

func TestEventsRejectUnknownSet(t *testing.T) {
	ctx := context.Background()
	db, _ := openTemp(t)

	err := db.Save(ctx, State{Phishing: []string{"x"}}, []Event{{URL: "x", Set: "bogus", Source: "seed"}})
	require.Error(t, err)

	st, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Phishing, "failed save is rolled back")
}

func TestStateOf(t *testing.T) {
	snap := cache.Snapshot{Phishing: []string{"p"}, Legitimate: []string{"l"}, Blocked: []string{"b"}}
	st := StateOf(snap, remote.DefaultConfig())
	assert.Equal(t, snap, st.Snapshot())
	require.NotNil(t, st.APIConfig)
	assert.Equal(t, remote.DefaultTimeout, st.APIConfig.Timeout)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(State{Phishing: []string{"p"}})

	st, err := m.Load(ctx)
	require.NoError(t, err)
	st.Phishing[0] = "mutated"

	again, _ := m.Load(ctx)
	assert.Equal(t, []string{"p"}, again.Phishing, "Load returns a copy")

	require.NoError(t, m.Save(ctx, State{Blocked: []string{"b"}}, []Event{{URL: "b", Set: "blocked", Source: "analysis"}}))
	assert.Equal(t, 1, m.Saves())
	require.Len(t, m.Events(), 1)
	assert.False(t, m.Events()[0].OccurredAt.IsZero())

	m.SaveErr = assert.AnError
	assert.ErrorIs(t, m.Save(ctx, State{}, nil), assert.AnError)
	assert.Equal(t, 1, m.Saves())
}
