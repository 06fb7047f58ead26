package report

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	saved map[string]*Execution
	loads int
}

func newCountingStore() *countingStore {
	return &countingStore{saved: make(map[string]*Execution)}
}

func (c *countingStore) Save(e *Execution) error {
	c.saved[e.ID] = e
	return nil
}

func (c *countingStore) Load(id string) (*Execution, error) {
	c.loads++
	e, ok := c.saved[id]
	if !ok {
		return nil, fmt.Errorf("execution %s: %w", id, ErrNotFound)
	}
	return e, nil
}

func TestLRUStore_HitDoesNotTouchBackingStore(t *testing.T) {
	back := newCountingStore()
	s := NewLRUStore(2, back)
	require.NoError(t, s.Save(sampleExecution("a")))

	got, err := s.Load("a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, 0, back.loads)
}

func TestLRUStore_EvictsLeastRecentlyUsed(t *testing.T) {
	back := newCountingStore()
	s := NewLRUStore(2, back)
	require.NoError(t, s.Save(sampleExecution("a")))
	require.NoError(t, s.Save(sampleExecution("b")))
	_, _ = s.Load("a") // a is now most recent
	require.NoError(t, s.Save(sampleExecution("c")))

	assert.True(t, s.Cached("a"))
	assert.False(t, s.Cached("b"))
	assert.True(t, s.Cached("c"))

	_, err := s.Load("b")
	require.NoError(t, err)
	assert.Equal(t, 1, back.loads)
	assert.True(t, s.Cached("b"))
}

func TestLRUStore_MissPropagatesError(t *testing.T) {
	s := NewLRUStore(0, newCountingStore())
	_, err := s.Load("missing")
	assert.Error(t, err)
}

func TestLRUStore_ListWithoutHistory(t *testing.T) {
	s := NewLRUStore(1, newCountingStore())
	_, err := s.List(10)
	assert.ErrorIs(t, err, ErrNoHistory)
}
