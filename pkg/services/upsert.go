package services

import (
	"context"
	"errors"

	"github.com/ekaya-inc/quickstack-seed/pkg/apperrors"
)

// Outcome tells whether an upsert inserted or updated its record.
type Outcome int

const (
	Created Outcome = iota
	Updated
)

func (o Outcome) String() string {
	if o == Created {
		return "created"
	}
	return "updated"
}

// keyedRepository is the find/create/update surface shared by every seeded
// record kind.
type keyedRepository[K any, T any] interface {
	Find(ctx context.Context, key K) (*T, error)
	Create(ctx context.Context, record *T) error
	Update(ctx context.Context, record *T) error
}

// upsert finds the record identified by key, or starts from init() when none
// exists, applies mutate and saves it. Re-running with the same key updates the
// existing row in place.
func upsert[K any, T any](
	ctx context.Context,
	repo keyedRepository[K, T],
	key K,
	init func() *T,
	mutate func(*T),
) (*T, Outcome, error) {
	record, err := repo.Find(ctx, key)
	switch {
	case err == nil:
		mutate(record)
		if err := repo.Update(ctx, record); err != nil {
			return nil, Updated, err
		}
		return record, Updated, nil
	case errors.Is(err, apperrors.ErrNotFound):
		record = init()
		mutate(record)
		if err := repo.Create(ctx, record); err != nil {
			return nil, Created, err
		}
		return record, Created, nil
	default:
		return nil, Updated, err
	}
}
