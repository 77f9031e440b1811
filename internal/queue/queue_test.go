package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type command struct {
	Name string
	Arg  float64
}

func TestQueue_New(t *testing.T) {
	q := New[command]()
	require.NotNil(t, q)
	assert.True(t, q.Empty())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_PushPopOrder(t *testing.T) {
	q := New[command]()

	q.Push(command{Name: ":PLAY:"})
	q.Push(command{Name: ":TICK:", Arg: 1}, command{Name: ":PAUSE:"})
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{":PLAY:", ":TICK:", ":PAUSE:"} {
		got, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, got.Name)
	}
	assert.True(t, q.Empty())
}

func TestQueue_PopEmpty(t *testing.T) {
	q := New[command]()

	got, ok := q.Pop()
	assert.False(t, ok)
	assert.Equal(t, command{}, got)
}

func TestQueue_Drain(t *testing.T) {
	q := New[string]()
	q.Push("a", "b")

	assert.Equal(t, []string{"a", "b"}, q.Drain())
	assert.True(t, q.Empty())
	assert.Empty(t, q.Drain())

	q.Push("c")
	assert.Equal(t, 1, q.Len())
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := New[int]()
	var wg sync.WaitGroup

	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				q.Push(p*1000 + i)
			}
		}(p)
	}
	wg.Wait()

	assert.Equal(t, 1000, q.Len())

	// per-producer order survives interleaving
	last := map[int]int{0: -1, 1: -1, 2: -1, 3: -1}
	for _, v := range q.Drain() {
		p, i := v/1000, v%1000
		assert.Greater(t, i, last[p])
		last[p] = i
	}
}
