package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound    = errors.New("repository: not found")
	ErrUnavailable = errors.New("repository: store unavailable")
	// ErrStale means the board fence moved since it was read: another writer
	// committed while the caller believed it held the board.
	ErrStale = errors.New("repository: board changed since fence was read")
)

// mapErr translates driver errors into the repository's sentinels.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsTimeout(err), mongo.IsNetworkError(err),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, mongo.ErrClientDisconnected):
		return errors.Join(ErrUnavailable, err)
	}
	return err
}

// read runs an idempotent read, retrying once when the store was unreachable.
// Writes never go through here.
func read(ctx context.Context, fn func(ctx context.Context) error) error {
	err := mapErr(fn(ctx))
	if errors.Is(err, ErrUnavailable) && ctx.Err() == nil {
		err = mapErr(fn(ctx))
	}
	return err
}
