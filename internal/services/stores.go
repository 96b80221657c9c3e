package services

import (
	"context"
	"time"

	"taskboard-be/internal/models"
)

// BoardStore persists boards with their embedded columns, labels and members.
type BoardStore interface {
	CreateBoard(ctx context.Context, board *models.Board) error
	GetBoard(ctx context.Context, id string) (*models.Board, error)
	GetBoardByColumnID(ctx context.Context, columnID string) (*models.Board, error)
	ListBoardsForMember(ctx context.Context, emailLower string) ([]models.Board, error)
	SaveBoard(ctx context.Context, board *models.Board) error
	DeleteBoard(ctx context.Context, id string) error
	// BoardVersion and AdvanceBoardVersion fence writes made under the
	// board lock. Advance fails with repository.ErrStale when the version
	// is no longer the expected one.
	BoardVersion(ctx context.Context, boardID string) (int64, error)
	AdvanceBoardVersion(ctx context.Context, boardID string, expected int64) error
}

// TaskStore persists tasks. List methods return tasks ordered by position,
// then creation.
type TaskStore interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListBoardTasks(ctx context.Context, boardID string) ([]models.Task, error)
	ListColumnTasks(ctx context.Context, boardID, columnID string) ([]models.Task, error)
	UpdateTaskContent(ctx context.Context, task *models.Task) error
	ApplyPlacements(ctx context.Context, boardID string, placements []models.Placement, at time.Time) error
	DeleteTask(ctx context.Context, id string) error
	DeleteColumnTasks(ctx context.Context, boardID, columnID string) (int64, error)
	DeleteBoardTasks(ctx context.Context, boardID string) (int64, error)
	TaskStats(ctx context.Context, boardID string, doneColumnIDs []string) (models.TaskStats, error)
}

type InviteStore interface {
	CreateInvite(ctx context.Context, invite *models.BoardInvite) error
	GetInvite(ctx context.Context, id string) (*models.BoardInvite, error)
	FindPendingInvite(ctx context.Context, boardID, emailLower string) (*models.BoardInvite, error)
	ListInvites(ctx context.Context, f models.InviteFilter) ([]models.BoardInvite, error)
	UpdateInvite(ctx context.Context, invite *models.BoardInvite) error
	RevokePendingFor(ctx context.Context, boardID, emailLower string, at time.Time) (int64, error)
	DeleteBoardInvites(ctx context.Context, boardID string) (int64, error)
}

// AuditStore is append-only.
type AuditStore interface {
	InsertAudit(ctx context.Context, entry *models.AuditEntry) error
	FindAudit(ctx context.Context, f models.AuditFilter) ([]models.AuditEntry, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, emailLower string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// StatisticsStore runs the read-only aggregations behind the board dashboard.
type StatisticsStore interface {
	TasksByColumn(ctx context.Context, boardID string) ([]models.ColumnCount, error)
	ActivityTrend(ctx context.Context, boardID string, since time.Time) ([]models.ActivityPoint, error)
	TopActors(ctx context.Context, boardID string, since time.Time, limit int) ([]models.ActorCount, error)
	HourlyActivity(ctx context.Context, boardID string, since time.Time) ([]models.HourlyActivity, error)
}

// TxRunner runs fn so that its writes apply all together or not at all.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Stores bundles the persistence dependencies of the services.
type Stores struct {
	Boards  BoardStore
	Tasks   TaskStore
	Invites InviteStore
	Audit   AuditStore
	Users   UserStore
	Stats   StatisticsStore
	Tx      TxRunner
}
