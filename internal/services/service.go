// Package services is the board mutation API: validation, access control,
// per-board serialization, the ordering engine and the audit trail, wired
// together for every operation the handlers expose.
package services

import (
	"context"
	"errors"
	"time"

	"taskboard-be/internal/locking"
	"taskboard-be/internal/metrics"
	"taskboard-be/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "taskboard-be/internal/services"

// Config tunes the services.
type Config struct {
	AuditTimeout time.Duration
	// TicketAlias also records TICKET_CREATED on task creation, for clients
	// that still read the ticket timeline.
	TicketAlias bool
}

// Services is the set of operations the API exposes.
type Services struct {
	Boards   *BoardService
	Tasks    *TaskService
	Invites  *InviteService
	Audit    *AuditService
	Identity *IdentityService
	Stats    *StatisticsService
}

// New wires the services over the given stores and locker.
func New(stores Stores, locker locking.Locker, cfg Config) *Services {
	audit := NewAuditService(stores.Audit, stores.Boards, cfg.AuditTimeout)
	m := &mutator{
		stores: stores,
		locker: locker,
		audit:  audit,
		now:    func() time.Time { return time.Now().UTC() },
	}
	return &Services{
		Boards:   &BoardService{mutator: m},
		Tasks:    &TaskService{mutator: m, ticketAlias: cfg.TicketAlias},
		Invites:  &InviteService{mutator: m},
		Audit:    audit,
		Identity: NewIdentityService(stores.Users),
		Stats:    &StatisticsService{stores: stores, now: m.now},
	}
}

// mutator carries what every mutation needs.
type mutator struct {
	stores Stores
	locker locking.Locker
	audit  *AuditService
	now    func() time.Time
}

func newID() string {
	return uuid.NewString()
}

// startOp opens a span for a mutation. finish records its outcome on the
// span and in the mutation counter.
func startOp(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "services."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = string(KindOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.SetAttributes(attribute.String("taskboard.outcome", outcome))
		metrics.ObserveMutation(op, outcome)
		span.End()
	}
}

// fenceKey carries the board fence read under the lock down to apply.
type fenceKey struct{}

type boardFence struct {
	boardID string
	version int64
}

// withBoardLock runs fn while holding the board's lock. Failing to get the
// lock in time is a CONFLICT and nothing is written. The board's fence
// version is read right after the lock is taken; apply advances it in the
// same transaction as the writes, so a holder whose lease ran out cannot
// commit over a newer mutation.
func (m *mutator) withBoardLock(ctx context.Context, boardID string, fn func(ctx context.Context) error) error {
	start := time.Now()
	release, err := m.locker.Acquire(ctx, locking.BoardKey(boardID))
	metrics.ObserveLockWait(time.Since(start))
	if err != nil {
		if errors.Is(err, locking.ErrNotAcquired) {
			logrus.WithField("boardId", boardID).Warn("board lock contention")
			return conflictError(string(KindConflict), "Board is being modified concurrently, retry")
		}
		return &Error{Kind: KindUnavailable, Code: string(KindUnavailable), Message: "board lock unavailable", Err: err}
	}
	defer release()

	version, err := m.stores.Boards.BoardVersion(ctx, boardID)
	if err != nil {
		return storeError(err, CodeBoardNotFound)
	}
	return fn(context.WithValue(ctx, fenceKey{}, boardFence{boardID: boardID, version: version}))
}

// apply runs the writes of one mutation in a transaction. The context is
// detached from the request: once positions start shifting the write runs
// to the end or rolls back, never stops half way.
func (m *mutator) apply(ctx context.Context, fn func(ctx context.Context) error) error {
	fence, fenced := ctx.Value(fenceKey{}).(boardFence)
	err := m.stores.Tx.RunInTx(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if fenced {
			if err := m.stores.Boards.AdvanceBoardVersion(ctx, fence.boardID, fence.version); err != nil {
				return err
			}
		}
		return fn(ctx)
	})
	if errors.Is(err, repository.ErrStale) {
		logrus.WithField("boardId", fence.boardID).Warn("board lock lost before commit, mutation discarded")
	}
	return storeError(err, CodeBoardNotFound)
}
