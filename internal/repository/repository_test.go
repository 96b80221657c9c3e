package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskboard-be/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil))
	assert.ErrorIs(t, mapErr(mongo.ErrNoDocuments), ErrNotFound)
	assert.ErrorIs(t, mapErr(context.DeadlineExceeded), ErrUnavailable)
	assert.ErrorIs(t, mapErr(mongo.ErrClientDisconnected), ErrUnavailable)

	other := errors.New("boom")
	assert.Equal(t, other, mapErr(other))
}

func TestReadRetriesOnceWhenUnavailable(t *testing.T) {
	calls := 0
	err := read(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return context.DeadlineExceeded
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = read(context.Background(), func(ctx context.Context) error {
		calls++
		return context.DeadlineExceeded
	})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, calls)

	calls = 0
	err = read(context.Background(), func(ctx context.Context) error {
		calls++
		return mongo.ErrNoDocuments
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestBoardRepository(t *testing.T) {
	mt := newMock(t)

	mt.Run("get board", func(mt *mtest.T) {
		repo := NewBoardRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.boards", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "b1"},
			{Key: "name", Value: "Sprint"},
			{Key: "ownerEmailLower", Value: "owner@example.com"},
			{Key: "columns", Value: bson.A{
				bson.D{{Key: "id", Value: "c1"}, {Key: "title", Value: "Todo"}, {Key: "position", Value: 1}},
			}},
		}))

		board, err := repo.GetBoard(context.Background(), "b1")
		require.NoError(t, err)
		assert.Equal(t, "Sprint", board.Name)
		require.Len(t, board.Columns, 1)
		assert.Equal(t, 1, board.Columns[0].Position)
		assert.NotNil(t, board.Labels)
		assert.NotNil(t, board.Members)
	})

	mt.Run("board not found", func(mt *mtest.T) {
		repo := NewBoardRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.boards", mtest.FirstBatch))

		_, err := repo.GetBoardByColumnID(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	mt.Run("save board replaces document", func(mt *mtest.T) {
		repo := NewBoardRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		require.NoError(t, repo.SaveBoard(context.Background(), &models.Board{ID: "b1", Name: "Sprint"}))
	})

	mt.Run("save missing board", func(mt *mtest.T) {
		repo := NewBoardRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.SaveBoard(context.Background(), &models.Board{ID: "gone"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	mt.Run("list boards for member", func(mt *mtest.T) {
		repo := NewBoardRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.boards", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "b1"}, {Key: "name", Value: "One"}},
			bson.D{{Key: "_id", Value: "b2"}, {Key: "name", Value: "Two"}},
		))

		boards, err := repo.ListBoardsForMember(context.Background(), "member@example.com")
		require.NoError(t, err)
		require.Len(t, boards, 2)
		assert.Equal(t, "Two", boards[1].Name)
	})
}

func TestTaskRepository(t *testing.T) {
	mt := newMock(t)

	mt.Run("list column tasks", func(mt *mtest.T) {
		repo := NewTaskRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.tasks", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "t1"}, {Key: "columnId", Value: "c1"}, {Key: "position", Value: 1}, {Key: "title", Value: "A"}},
			bson.D{{Key: "_id", Value: "t2"}, {Key: "columnId", Value: "c1"}, {Key: "position", Value: 2}, {Key: "title", Value: "B"}},
		))

		tasks, err := repo.ListColumnTasks(context.Background(), "b1", "c1")
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, "B", tasks[1].Title)

		// ties on position break by creation sequence, never by id
		order, ok := mt.GetStartedEvent().Command.Lookup("sort").DocumentOK()
		require.True(t, ok)
		keys, err := order.Elements()
		require.NoError(t, err)
		require.Len(t, keys, 2)
		assert.Equal(t, "position", keys[0].Key())
		assert.Equal(t, "seq", keys[1].Key())
	})

	mt.Run("empty column", func(mt *mtest.T) {
		repo := NewTaskRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.tasks", mtest.FirstBatch))

		tasks, err := repo.ListColumnTasks(context.Background(), "b1", "c1")
		require.NoError(t, err)
		assert.NotNil(t, tasks)
		assert.Empty(t, tasks)
	})

	mt.Run("apply no placements", func(mt *mtest.T) {
		repo := NewTaskRepository(mt.DB)
		assert.NoError(t, repo.ApplyPlacements(context.Background(), "b1", nil, time.Now()))
	})

	mt.Run("apply placements", func(mt *mtest.T) {
		repo := NewTaskRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}, bson.E{Key: "nModified", Value: 2}))

		err := repo.ApplyPlacements(context.Background(), "b1", []models.Placement{
			{TaskID: "t1", ColumnID: "c1", Position: 2},
			{TaskID: "t2", ColumnID: "c1", Position: 1},
		}, time.Now())
		assert.NoError(t, err)
	})
}

func TestInviteRepository(t *testing.T) {
	mt := newMock(t)

	mt.Run("update missing invite", func(mt *mtest.T) {
		repo := NewInviteRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.UpdateInvite(context.Background(), &models.BoardInvite{ID: "i1", Status: models.InviteRevoked})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	mt.Run("revoke pending", func(mt *mtest.T) {
		repo := NewInviteRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}, bson.E{Key: "nModified", Value: 2}))

		n, err := repo.RevokePendingFor(context.Background(), "b1", "x@example.com", time.Now())
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})
}

func TestAuditRepository(t *testing.T) {
	mt := newMock(t)

	mt.Run("duplicate insert is idempotent", func(mt *mtest.T) {
		repo := NewAuditRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.InsertAudit(context.Background(), &models.AuditEntry{ID: "01HX", Action: models.ActionTaskCreated})
		assert.NoError(t, err)
	})

	mt.Run("other write errors surface", func(mt *mtest.T) {
		repo := NewAuditRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    121,
			Message: "document failed validation",
		}))

		err := repo.InsertAudit(context.Background(), &models.AuditEntry{ID: "01HY"})
		assert.Error(t, err)
	})

	mt.Run("find audit", func(mt *mtest.T) {
		repo := NewAuditRepository(mt.DB)
		ts := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.audit_entries", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "01HZ"},
			{Key: "actor", Value: "ada@example.com"},
			{Key: "action", Value: "TASK_MOVED"},
			{Key: "entity", Value: "task"},
			{Key: "entityId", Value: "t1"},
			{Key: "boardId", Value: "b1"},
			{Key: "details", Value: bson.D{{Key: "from", Value: bson.D{{Key: "columnId", Value: "c1"}, {Key: "position", Value: 2}}}}},
			{Key: "ts", Value: ts},
		}))

		entries, err := repo.FindAudit(context.Background(), models.AuditFilter{Entity: models.EntityTask, EntityID: "t1"})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, models.ActionTaskMoved, entries[0].Action)
		require.NotNil(t, entries[0].BoardID)
		assert.Equal(t, "b1", *entries[0].BoardID)
		assert.True(t, entries[0].Ts.Equal(ts))
		assert.Contains(t, entries[0].Details, "from")
	})
}

func TestUserRepository(t *testing.T) {
	mt := newMock(t)

	mt.Run("find by email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "email", Value: "Ada@Example.com"},
			{Key: "emailLower", Value: "ada@example.com"},
			{Key: "name", Value: "Ada"},
		}))

		user, err := repo.FindByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
	})

	mt.Run("unknown id", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.users", mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	mt.Run("create stamps times", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user := &models.User{ID: "u2", Email: "b@example.com", EmailLower: "b@example.com"}
		require.NoError(t, repo.Create(context.Background(), user))
		assert.False(t, user.CreatedAt.IsZero())
	})
}

func TestStatisticsRepository(t *testing.T) {
	mt := newMock(t)

	mt.Run("tasks by column", func(mt *mtest.T) {
		repo := NewStatisticsRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.tasks", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "c1"}, {Key: "count", Value: 3}},
			bson.D{{Key: "_id", Value: "c2"}, {Key: "count", Value: 1}},
		))

		counts, err := repo.TasksByColumn(context.Background(), "b1")
		require.NoError(t, err)
		assert.Equal(t, []models.ColumnCount{{ColumnID: "c1", Count: 3}, {ColumnID: "c2", Count: 1}}, counts)
	})

	mt.Run("activity trend", func(mt *mtest.T) {
		repo := NewStatisticsRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.audit_entries", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "2026-10-01"}, {Key: "count", Value: 4}},
		))

		trend, err := repo.ActivityTrend(context.Background(), "b1", time.Now().AddDate(0, 0, -7))
		require.NoError(t, err)
		assert.Equal(t, []models.ActivityPoint{{Date: "2026-10-01", Count: 4}}, trend)
	})

	mt.Run("no actors", func(mt *mtest.T) {
		repo := NewStatisticsRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.audit_entries", mtest.FirstBatch))

		actors, err := repo.TopActors(context.Background(), "b1", time.Now(), 10)
		require.NoError(t, err)
		assert.Empty(t, actors)
	})

	mt.Run("hourly activity", func(mt *mtest.T) {
		repo := NewStatisticsRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.audit_entries", mtest.FirstBatch,
			bson.D{{Key: "dayOfWeek", Value: 1}, {Key: "hour", Value: 9}, {Key: "count", Value: 2}},
		))

		hourly, err := repo.HourlyActivity(context.Background(), "b1", time.Now())
		require.NoError(t, err)
		assert.Equal(t, []models.HourlyActivity{{DayOfWeek: 1, Hour: 9, Count: 2}}, hourly)
	})
}

func TestBoardFence(t *testing.T) {
	mt := newMock(t)

	mt.Run("unfenced board is version zero", func(mt *mtest.T) {
		repo := NewBoardRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.board_fences", mtest.FirstBatch))

		version, err := repo.BoardVersion(context.Background(), "b1")
		require.NoError(t, err)
		assert.Zero(t, version)
	})

	mt.Run("read version", func(mt *mtest.T) {
		repo := NewBoardRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.board_fences", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "b1"}, {Key: "version", Value: int64(7)}},
		))

		version, err := repo.BoardVersion(context.Background(), "b1")
		require.NoError(t, err)
		assert.Equal(t, int64(7), version)
	})

	mt.Run("advance", func(mt *mtest.T) {
		repo := NewBoardRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		require.NoError(t, repo.AdvanceBoardVersion(context.Background(), "b1", 7))
		cmd := mt.GetStartedEvent().Command
		assert.Equal(t, "board_fences", cmd.Lookup("update").StringValue())
	})

	mt.Run("moved fence is stale", func(mt *mtest.T) {
		repo := NewBoardRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.AdvanceBoardVersion(context.Background(), "b1", 3)
		assert.ErrorIs(t, err, ErrStale)
	})
}
