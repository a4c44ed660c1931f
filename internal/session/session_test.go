package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAppendAndGet(t *testing.T) {
	store := NewMemoryStore(10)

	require.NoError(t, store.Append("s1", Message{Role: "user", Content: "hello"}))
	require.NoError(t, store.Append("s1", Message{Role: "assistant", Content: "hi there"}))

	history, err := store.Get("s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "hello", history[0].Content)
	assert.False(t, history[0].Timestamp.IsZero())
	assert.Equal(t, "assistant", history[1].Role)
}

func TestMemoryStoreUnknownSession(t *testing.T) {
	store := NewMemoryStore(10)

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreSlidingWindow(t *testing.T) {
	store := NewMemoryStore(3)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append("s1", Message{Role: "user", Content: fmt.Sprintf("msg %d", i)}))
	}

	history, err := store.Get("s1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "msg 2", history[0].Content)
	assert.Equal(t, "msg 4", history[2].Content)
}

func TestMemoryStoreClear(t *testing.T) {
	store := NewMemoryStore(10)
	require.NoError(t, store.Append("s1", Message{Role: "user", Content: "hello"}))
	require.NoError(t, store.Clear("s1"))

	_, err := store.Get("s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreSessionsAreIsolated(t *testing.T) {
	store := NewMemoryStore(10)
	require.NoError(t, store.Append("s1", Message{Role: "user", Content: "first"}))
	require.NoError(t, store.Append("s2", Message{Role: "user", Content: "second"}))

	h1, err := store.Get("s1")
	require.NoError(t, err)
	require.Len(t, h1, 1)
	assert.Equal(t, "first", h1[0].Content)
}

func TestMemoryStoreConcurrentAppends(t *testing.T) {
	store := NewMemoryStore(1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Append("shared", Message{Role: "user", Content: fmt.Sprintf("msg %d", n)})
		}(i)
	}
	wg.Wait()

	history, err := store.Get("shared")
	require.NoError(t, err)
	assert.Len(t, history, 50)
}
