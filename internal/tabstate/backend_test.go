package tabstate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseBackend runs the shared contract every backend must satisfy
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	_, err := b.Get(ctx, "client:players_state")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Set(ctx, "client:players_state", []byte(`{"team":1}`)))
	got, err := b.Get(ctx, "client:players_state")
	require.NoError(t, err)
	assert.JSONEq(t, `{"team":1}`, string(got))

	require.NoError(t, b.Set(ctx, "client:players_state", []byte(`{"team":2}`)))
	got, err = b.Get(ctx, "client:players_state")
	require.NoError(t, err)
	assert.JSONEq(t, `{"team":2}`, string(got))

	require.NoError(t, b.Delete(ctx, "client:players_state"))
	_, err = b.Get(ctx, "client:players_state")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, b.Delete(ctx, "client:players_state"), ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseBackend(t, NewMemoryStore())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	buf := []byte(`{"a":1}`)
	require.NoError(t, m.Set(ctx, "k", buf))
	buf[2] = 'b'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestFileStore(t *testing.T) {
	exerciseBackend(t, NewFileStore(t.TempDir()))
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir)
	require.NoError(t, fs.Set(context.Background(), "abc:trade_state", []byte(`{"x":1}`)))

	path := filepath.Join(dir, "abc", "trade_state.json")
	assert.Equal(t, path, fs.Path("abc:trade_state"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"x\": 1")

	leftovers, err := filepath.Glob(filepath.Join(dir, "abc", "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileStore_ConcurrentSavesSameKey(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- fs.Set(ctx, "abc:players_state", []byte(fmt.Sprintf(`{"writer":%d,"pad":"%s"}`, i, strings.Repeat("x", 4096))))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	data, err := fs.Get(ctx, "abc:players_state")
	require.NoError(t, err)
	var got struct {
		Writer int    `json:"writer"`
		Pad    string `json:"pad"`
	}
	require.NoError(t, json.Unmarshal(data, &got), "file holds one complete write")
	assert.Len(t, got.Pad, 4096)

	leftovers, err := filepath.Glob(filepath.Join(dir, "abc", "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	exerciseBackend(t, NewRedisStore(client, time.Hour))
}

func TestRedisStore_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte(`{}`)))
	assert.Equal(t, time.Minute, mr.TTL("tabstate:k"))

	mr.FastForward(2 * time.Minute)
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := DialRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	_ = client.Close()

	_, err = DialRedis(context.Background(), "::not a url")
	assert.Error(t, err)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := OpenPostgres(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db))

	_, _ = db.ExecContext(ctx, `DELETE FROM tab_state WHERE state_key LIKE 'client:%'`)
	exerciseBackend(t, NewPostgresStore(db))
}
