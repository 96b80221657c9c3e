package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"taskboard-be/internal/locking"
	"taskboard-be/internal/models"
	"taskboard-be/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      *Services
	store    *testutil.MemStore
	owner    models.Actor
	member   models.Actor
	outsider models.Actor
	board    *models.Board
	cols     map[string]string
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	store := testutil.NewMemStore()
	f := &fixture{
		store:    store,
		owner:    store.AddUser(t, "u-owner", "Owner@Example.com", "Owner"),
		member:   store.AddUser(t, "u-member", "member@example.com", "Member"),
		outsider: store.AddUser(t, "u-out", "outsider@example.com", "Outsider"),
		cols:     map[string]string{},
	}
	f.svc = New(stores(store), locking.NewLocalLocker(time.Second), cfg)
	return f
}

func stores(m *testutil.MemStore) Stores {
	return Stores{Boards: m, Tasks: m, Invites: m, Audit: m, Users: m, Stats: m, Tx: m}
}

// withBoard creates a board owned by f.owner with the given columns and
// f.member as a member.
func (f *fixture) withBoard(t *testing.T, columns ...string) *fixture {
	t.Helper()
	ctx := context.Background()
	board, err := f.svc.Boards.CreateBoard(ctx, f.owner, "Sprint")
	require.NoError(t, err)
	for _, title := range columns {
		col, err := f.svc.Boards.CreateColumn(ctx, f.owner, board.ID, title, title == "Done")
		require.NoError(t, err)
		f.cols[title] = col.ID
	}
	b, err := f.store.GetBoard(ctx, board.ID)
	require.NoError(t, err)
	b.Members = append(b.Members, models.Member{
		Email: f.member.Email, EmailLower: f.member.EmailLower, Role: models.RoleMember, JoinedAt: time.Now(),
	})
	require.NoError(t, f.store.SaveBoard(ctx, b))
	f.board = b
	return f
}

func (f *fixture) addTasks(t *testing.T, column string, titles ...string) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, title := range titles {
		task, err := f.svc.Tasks.CreateTask(context.Background(), f.member, f.board.ID, TaskInput{
			ColumnID: f.cols[column],
			Title:    title,
		})
		require.NoError(t, err)
		out[title] = task.ID
	}
	return out
}

// columnOrder lists "title:position" of the tasks in a column.
func (f *fixture) columnOrder(t *testing.T, column string) []string {
	t.Helper()
	tasks, err := f.store.ListColumnTasks(context.Background(), f.board.ID, f.cols[column])
	require.NoError(t, err)
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Title + ":" + strconv.Itoa(task.Position)
	}
	return out
}

func (f *fixture) auditFor(entityID string) []models.AuditEntry {
	var out []models.AuditEntry
	for _, e := range f.store.AuditEntries() {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out
}

func intp(i int) *int { return &i }

func strp(s string) *string { return &s }

func requireKind(t *testing.T, err error, kind Kind, code string) {
	t.Helper()
	require.Error(t, err)
	se := AsError(err)
	assert.Equal(t, kind, se.Kind, "kind of %v", err)
	if code != "" {
		assert.Equal(t, code, se.Code)
	}
}
