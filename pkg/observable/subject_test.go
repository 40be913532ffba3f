package observable_test

import (
	"sync"
	"testing"

	"github.com/aussiebroadwan/immo/pkg/observable"
	"github.com/stretchr/testify/require"
)

func TestSubjectReplaysLatestValue(t *testing.T) {
	t.Parallel()

	s := observable.NewSubject[*string](nil)

	var first []*string
	cancel := s.Subscribe(func(v *string) { first = append(first, v) })
	defer cancel()
	require.Len(t, first, 1)
	require.Nil(t, first[0])

	name := "amira"
	s.Publish(&name)

	var late []*string
	s.Subscribe(func(v *string) { late = append(late, v) })
	require.Len(t, late, 1)
	require.Equal(t, "amira", *late[0])
	require.Len(t, first, 2)
}

func TestSubjectDeliversInSubscriptionOrder(t *testing.T) {
	t.Parallel()

	s := observable.NewSubject(0)

	var order []string
	s.Subscribe(func(v int) {
		if v > 0 {
			order = append(order, "a")
		}
	})
	s.Subscribe(func(v int) {
		if v > 0 {
			order = append(order, "b")
		}
	})

	s.Publish(1)
	s.Publish(2)
	require.Equal(t, []string{"a", "b", "a", "b"}, order)
}

func TestSubjectDoesNotCoalesce(t *testing.T) {
	t.Parallel()

	s := observable.NewSubject(false)

	var seen []bool
	s.Subscribe(func(v bool) { seen = append(seen, v) })

	s.Publish(true)
	s.Publish(true)
	s.Publish(false)
	require.Equal(t, []bool{false, true, true, false}, seen)
}

func TestSubjectCancel(t *testing.T) {
	t.Parallel()

	s := observable.NewSubject("a")

	calls := 0
	cancel := s.Subscribe(func(string) { calls++ })
	require.Equal(t, 1, s.Len())

	cancel()
	cancel()
	require.Equal(t, 0, s.Len())

	s.Publish("b")
	require.Equal(t, 1, calls)
	require.Equal(t, "b", s.Value())
}

func TestSubjectValueFromCallback(t *testing.T) {
	t.Parallel()

	s := observable.NewSubject(1)

	var inside []int
	s.Subscribe(func(int) { inside = append(inside, s.Value()) })
	s.Publish(7)
	require.Equal(t, []int{1, 7}, inside)
}

func TestSubjectConcurrentPublish(t *testing.T) {
	t.Parallel()

	s := observable.NewSubject(0)

	var mu sync.Mutex
	count := 0
	s.Subscribe(func(int) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Publish(i)
		}()
	}
	wg.Wait()

	require.Equal(t, 51, count)
}
