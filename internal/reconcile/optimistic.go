package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/CodeWithGeorg/Academic/internal/domain"
)

var ErrNotInList = errors.New("record is not in the list")

// Outcome is where an optimistic update ended up.
type Outcome int

const (
	Tentative Outcome = iota
	Confirmed
	Reverted
)

func (o Outcome) String() string {
	switch o {
	case Tentative:
		return "tentative"
	case Confirmed:
		return "confirmed"
	case Reverted:
		return "reverted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Update describes one optimistic change to a record already in the list.
type Update[T domain.Record] struct {
	// ID is the identity of the record being changed.
	ID string
	// Patch produces the tentative value shown until the backend answers.
	Patch func(T) T
	// Commit sends the change and returns the confirmed record.
	Commit func(ctx context.Context) (T, error)
	// Refetch loads the authoritative list after a failed commit.
	Refetch func(ctx context.Context) ([]T, error)
}

// Apply runs the tentative -> confirmed | reverted flow. On commit failure
// the list is replaced by a fresh fetch, never rolled back point-wise, and
// the commit error is returned. A failed refetch leaves the tentative value
// in place and is joined to the commit error.
func Apply[T domain.Record](ctx context.Context, list *List[T], u Update[T]) (Outcome, error) {
	if _, ok := list.Patch(u.ID, u.Patch); !ok {
		return Tentative, fmt.Errorf("%w: %s", ErrNotInList, u.ID)
	}

	confirmed, err := u.Commit(ctx)
	if err == nil {
		list.Merge(confirmed)
		return Confirmed, nil
	}

	fresh, ferr := u.Refetch(ctx)
	if ferr != nil {
		return Tentative, errors.Join(err, fmt.Errorf("refetch after failed update: %w", ferr))
	}
	list.Reset(fresh)
	return Reverted, err
}
