package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rec struct {
	ID    string
	Value string
}

func (r rec) Identity() string { return r.ID }

func ids[T domain.Record](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Identity()
	}
	return out
}

func randomList(r *rand.Rand) *List[rec] {
	n := r.Intn(8)
	records := make([]rec, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, rec{ID: fmt.Sprintf("id-%d", r.Intn(10)), Value: fmt.Sprint(r.Int())})
	}
	return NewList(records...)
}

func TestMerge_Idempotent(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		l := randomList(r)
		incoming := rec{ID: fmt.Sprintf("id-%d", r.Intn(12)), Value: "v"}

		l.Merge(incoming)
		once := l.Snapshot()
		l.Merge(incoming)
		assert.Equal(t, once, l.Snapshot())
	}
}

func TestMerge_IdentitiesStayUnique(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	l := NewList[rec]()
	for i := 0; i < 500; i++ {
		l.Merge(rec{ID: fmt.Sprintf("id-%d", r.Intn(20)), Value: fmt.Sprint(i)})

		seen := map[string]bool{}
		for _, id := range ids(l.Snapshot()) {
			require.False(t, seen[id], "duplicate identity %s", id)
			seen[id] = true
		}
	}
}

func TestMerge_NewIdentityGoesFirst(t *testing.T) {
	l := NewList(rec{ID: "b"}, rec{ID: "c"})

	inserted := l.Merge(rec{ID: "a"})

	assert.True(t, inserted)
	assert.Equal(t, []string{"a", "b", "c"}, ids(l.Snapshot()))
}

func TestMerge_KnownIdentityKeepsPosition(t *testing.T) {
	l := NewList(rec{ID: "a"}, rec{ID: "b", Value: "old"}, rec{ID: "c"})

	inserted := l.Merge(rec{ID: "b", Value: "new"})

	assert.False(t, inserted)
	assert.Equal(t, []rec{{ID: "a"}, {ID: "b", Value: "new"}, {ID: "c"}}, l.Snapshot())
}

func TestMerge_LastAppliedWins(t *testing.T) {
	l := NewList(rec{ID: "a", Value: "v1"})

	l.Merge(rec{ID: "a", Value: "v3"})
	l.Merge(rec{ID: "a", Value: "v2"})

	got, ok := l.Get("a")
	require.True(t, ok)
	assert.Equal(t, "v2", got.Value)
}

func TestReset_DropsDuplicates(t *testing.T) {
	l := NewList(rec{ID: "x"})
	l.Reset([]rec{{ID: "a", Value: "1"}, {ID: "b"}, {ID: "a", Value: "2"}})

	assert.Equal(t, []rec{{ID: "a", Value: "1"}, {ID: "b"}}, l.Snapshot())
	assert.Equal(t, 2, l.Len())
}

func TestPatchAndRemove(t *testing.T) {
	l := NewList(rec{ID: "a", Value: "1"}, rec{ID: "b"})

	prev, ok := l.Patch("a", func(r rec) rec { r.Value = "2"; return r })
	require.True(t, ok)
	assert.Equal(t, "1", prev.Value)
	got, _ := l.Get("a")
	assert.Equal(t, "2", got.Value)

	_, ok = l.Patch("zzz", func(r rec) rec { return r })
	assert.False(t, ok)

	assert.True(t, l.Remove("a"))
	assert.False(t, l.Remove("a"))
	assert.Equal(t, []string{"b"}, ids(l.Snapshot()))
}

func TestSnapshot_IsACopy(t *testing.T) {
	l := NewList(rec{ID: "a"})
	snap := l.Snapshot()
	snap[0].Value = "mutated"

	got, _ := l.Get("a")
	assert.Empty(t, got.Value)
}

func TestVersion_Increments(t *testing.T) {
	l := NewList[rec]()
	v0 := l.Version()
	l.Merge(rec{ID: "a"})
	assert.Greater(t, l.Version(), v0)
}

// An admin posts assignment A: a tentative entry is prepended, the backend
// confirms it as X and the realtime channel echoes X. Whatever the order of
// the confirmation and the echo, X ends up once at the top.
func TestCreateThenRealtimeEcho(t *testing.T) {
	confirmed := rec{ID: "X", Value: "Physics Lab"}
	tentative := rec{ID: "tmp-1", Value: "Physics Lab"}

	orders := map[string][]func(*List[rec]){
		"ConfirmThenEcho": {
			func(l *List[rec]) { l.Replace(tentative.ID, confirmed) },
			func(l *List[rec]) { l.Merge(confirmed) },
		},
		"EchoThenConfirm": {
			func(l *List[rec]) { l.Merge(confirmed) },
			func(l *List[rec]) { l.Replace(tentative.ID, confirmed) },
		},
	}
	for name, steps := range orders {
		t.Run(name, func(t *testing.T) {
			l := NewList(rec{ID: "older"})
			l.Merge(tentative)
			for _, step := range steps {
				step(l)
			}
			assert.Equal(t, []string{"X", "older"}, ids(l.Snapshot()))
		})
	}

	t.Run("EchoWithoutTentative", func(t *testing.T) {
		l := NewList(rec{ID: "older"})
		l.Merge(confirmed)
		l.Replace("never-added", confirmed)
		assert.Equal(t, []string{"X", "older"}, ids(l.Snapshot()))
	})
}

func TestGradeThenDuplicatePush(t *testing.T) {
	type submission struct {
		rec
		Status string
		Grade  string
	}
	s := func(status, grade string) submission {
		return submission{rec: rec{ID: "S"}, Status: status, Grade: grade}
	}
	l := NewList(s("submitted", ""), submission{rec: rec{ID: "T"}})

	l.Patch("S", func(submission) submission { return s("graded", "A-") })
	l.Merge(s("graded", "A-"))
	l.Merge(s("graded", "A-"))

	snap := l.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, s("graded", "A-"), snap[0])
}

func TestMerge_Concurrent(t *testing.T) {
	l := NewList[rec]()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				l.Merge(rec{ID: fmt.Sprintf("id-%d", i%25), Value: fmt.Sprint(w)})
				_ = l.Snapshot()
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, 25, l.Len())
}

func TestApply(t *testing.T) {
	errBackend := errors.New("backend down")
	setStatus := func(status string) func(rec) rec {
		return func(r rec) rec { r.Value = status; return r }
	}

	t.Run("Confirmed", func(t *testing.T) {
		l := NewList(rec{ID: "a", Value: "pending"}, rec{ID: "b"})
		var sawTentative string

		outcome, err := Apply(context.Background(), l, Update[rec]{
			ID:    "a",
			Patch: setStatus("completed"),
			Commit: func(context.Context) (rec, error) {
				got, _ := l.Get("a")
				sawTentative = got.Value
				return rec{ID: "a", Value: "completed"}, nil
			},
			Refetch: func(context.Context) ([]rec, error) {
				t.Fatal("refetch must not run after a successful commit")
				return nil, nil
			},
		})

		require.NoError(t, err)
		assert.Equal(t, Confirmed, outcome)
		assert.Equal(t, "completed", sawTentative)
		assert.Equal(t, []string{"a", "b"}, ids(l.Snapshot()))
	})

	t.Run("RevertedByRefetch", func(t *testing.T) {
		l := NewList(rec{ID: "a", Value: "pending"}, rec{ID: "b"})
		fresh := []rec{{ID: "c"}, {ID: "a", Value: "pending"}, {ID: "b"}}

		outcome, err := Apply(context.Background(), l, Update[rec]{
			ID:      "a",
			Patch:   setStatus("completed"),
			Commit:  func(context.Context) (rec, error) { return rec{}, errBackend },
			Refetch: func(context.Context) ([]rec, error) { return fresh, nil },
		})

		assert.ErrorIs(t, err, errBackend)
		assert.Equal(t, Reverted, outcome)
		assert.Equal(t, fresh, l.Snapshot())
	})

	t.Run("RefetchFails", func(t *testing.T) {
		l := NewList(rec{ID: "a", Value: "pending"})
		errRefetch := errors.New("still down")

		outcome, err := Apply(context.Background(), l, Update[rec]{
			ID:      "a",
			Patch:   setStatus("completed"),
			Commit:  func(context.Context) (rec, error) { return rec{}, errBackend },
			Refetch: func(context.Context) ([]rec, error) { return nil, errRefetch },
		})

		assert.ErrorIs(t, err, errBackend)
		assert.ErrorIs(t, err, errRefetch)
		assert.Equal(t, Tentative, outcome)
	})

	t.Run("UnknownRecord", func(t *testing.T) {
		l := NewList(rec{ID: "a"})
		_, err := Apply(context.Background(), l, Update[rec]{
			ID:    "zzz",
			Patch: setStatus("completed"),
		})
		assert.ErrorIs(t, err, ErrNotInList)
	})
}
