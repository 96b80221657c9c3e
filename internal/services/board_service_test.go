package services

import (
	"context"
	"strconv"
	"testing"

	"taskboard-be/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func columnTitles(cols []models.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Title + ":" + strconv.Itoa(c.Position)
	}
	return out
}

func TestCreateBoard(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	board, err := f.svc.Boards.CreateBoard(ctx, f.owner, "  Roadmap ")
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", board.Name)
	assert.Equal(t, "owner@example.com", board.OwnerEmailLower)
	assert.Empty(t, board.Columns)
	assert.Empty(t, board.Members)

	_, err = f.svc.Boards.CreateBoard(ctx, f.owner, " ")
	requireKind(t, err, KindValidation, "VALIDATION_ERROR")

	entries := f.auditFor(board.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionBoardCreated, entries[0].Action)
	assert.Equal(t, map[string]any{"name": "Roadmap"}, entries[0].Details)
}

func TestRenameBoardOwnerOnly(t *testing.T) {
	f := newFixture(t, Config{}).withBoard(t)
	ctx := context.Background()

	_, err := f.svc.Boards.RenameBoard(ctx, f.member, f.board.ID, strp("Mine"))
	requireKind(t, err, KindForbidden, "FORBIDDEN")

	_, err = f.svc.Boards.RenameBoard(ctx, f.outsider, f.board.ID, strp("Mine"))
	requireKind(t, err, KindNotFound, CodeBoardNotFound)

	board, err := f.svc.Boards.RenameBoard(ctx, f.owner, f.board.ID, strp("Release"))
	require.NoError(t, err)
	assert.Equal(t, "Release", board.Name)

	entries := f.auditFor(f.board.ID)
	last := entries[len(entries)-1]
	assert.Equal(t, models.ActionBoardUpdated, last.Action)
	assert.Equal(t, map[string]any{
		"before": map[string]any{"name": "Sprint"},
		"after":  map[string]any{"name": "Release"},
	}, last.Details)
}

func TestGetBoardMasksExistence(t *testing.T) {
	f := newFixture(t, Config{}).withBoard(t, "Todo")
	ctx := context.Background()

	_, err := f.svc.Boards.GetBoard(ctx, f.outsider, f.board.ID)
	requireKind(t, err, KindNotFound, CodeBoardNotFound)

	_, err = f.svc.Boards.GetBoard(ctx, f.outsider, "missing")
	requireKind(t, err, KindNotFound, CodeBoardNotFound)

	board, err := f.svc.Boards.GetBoard(ctx, f.member, f.board.ID)
	require.NoError(t, err)
	assert.Len(t, board.Columns, 1)
}

func TestDeleteBoardCascades(t *testing.T) {
	f := newFixture(t, Config{}).withBoard(t, "Todo")
	ids := f.addTasks(t, "Todo", "A", "B")
	ctx := context.Background()
	_, err := f.svc.Invites.CreateInvite(ctx, f.owner, f.board.ID, "outsider@example.com")
	require.NoError(t, err)

	require.Error(t, f.svc.Boards.DeleteBoard(ctx, f.member, f.board.ID))
	require.NoError(t, f.svc.Boards.DeleteBoard(ctx, f.owner, f.board.ID))

	_, err = f.store.GetTask(ctx, ids["A"])
	assert.Error(t, err)
	invites, err := f.store.ListInvites(ctx, models.InviteFilter{EmailLower: "outsider@example.com"})
	require.NoError(t, err)
	assert.Empty(t, invites)

	entries := f.auditFor(f.board.ID)
	last := entries[len(entries)-1]
	assert.Equal(t, models.ActionBoardDeleted, last.Action)
	assert.Equal(t, int64(2), last.Details["deletedTasks"])
	assert.Equal(t, int64(1), last.Details["deletedInvites"])
}

func TestColumnsStayDense(t *testing.T) {
	f := newFixture(t, Config{}).withBoard(t, "X", "Y", "Z")
	ctx := context.Background()

	cols, err := f.svc.Boards.MoveColumn(ctx, f.owner, f.cols["Z"], 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Z:1", "X:2", "Y:3"}, columnTitles(cols))

	entries := f.auditFor(f.cols["Z"])
	last := entries[len(entries)-1]
	assert.Equal(t, models.ActionColumnMoved, last.Action)
	assert.Equal(t, map[string]any{
		"from": map[string]any{"position": 3},
		"to":   map[string]any{"position": 1},
	}, last.Details)

	require.NoError(t, f.svc.Boards.DeleteColumn(ctx, f.owner, f.cols["X"]))
	listed, err := f.svc.Boards.ListColumns(ctx, f.member, f.board.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Z:1", "Y:2"}, columnTitles(listed))

	col, err := f.svc.Boards.CreateColumn(ctx, f.owner, f.board.ID, "W", false)
	require.NoError(t, err)
	assert.Equal(t, 3, col.Position)
}

func TestMoveColumnNoop(t *testing.T) {
	f := newFixture(t, Config{}).withBoard(t, "X", "Y")
	count := len(f.store.AuditEntries())

	cols, err := f.svc.Boards.MoveColumn(context.Background(), f.owner, f.cols["Y"], 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"X:1", "Y:2"}, columnTitles(cols))
	assert.Len(t, f.store.AuditEntries(), count)
}

func TestUpdateColumn(t *testing.T) {
	f := newFixture(t, Config{}).withBoard(t, "X", "Y", "Z")
	ctx := context.Background()

	col, err := f.svc.Boards.UpdateColumn(ctx, f.owner, f.cols["X"], ColumnUpdate{
		Title:    strp("Backlog"),
		Position: intp(99),
		IsDone:   boolp(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "Backlog", col.Title)
	assert.Equal(t, 3, col.Position)
	assert.True(t, col.IsDone)

	listed, err := f.svc.Boards.ListColumns(ctx, f.owner, f.board.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Y:1", "Z:2", "Backlog:3"}, columnTitles(listed))

	entries := f.auditFor(f.cols["X"])
	last := entries[len(entries)-1]
	assert.Equal(t, models.ActionColumnUpdated, last.Action)
	assert.Equal(t, map[string]any{
		"before": map[string]any{"title": "X", "position": 1, "isDone": false},
		"after":  map[string]any{"title": "Backlog", "position": 3, "isDone": true},
	}, last.Details)

	_, err = f.svc.Boards.UpdateColumn(ctx, f.owner, f.cols["Y"], ColumnUpdate{Title: strp(" ")})
	requireKind(t, err, KindValidation, "")
}

func TestColumnAccess(t *testing.T) {
	f := newFixture(t, Config{}).withBoard(t, "Todo")
	ctx := context.Background()

	err := f.svc.Boards.DeleteColumn(ctx, f.member, f.cols["Todo"])
	requireKind(t, err, KindForbidden, "FORBIDDEN")

	err = f.svc.Boards.DeleteColumn(ctx, f.outsider, f.cols["Todo"])
	requireKind(t, err, KindNotFound, CodeColumnNotFound)

	_, err = f.svc.Boards.CreateColumn(ctx, f.member, f.board.ID, "Mine", false)
	requireKind(t, err, KindForbidden, "FORBIDDEN")

	_, err = f.svc.Boards.MoveColumn(ctx, f.owner, "missing", 1)
	requireKind(t, err, KindNotFound, CodeColumnNotFound)
}

func TestDeleteColumnCascadesTasks(t *testing.T) {
	f := newFixture(t, Config{}).withBoard(t, "Todo", "Done")
	todo := f.addTasks(t, "Todo", "A", "B")
	done := f.addTasks(t, "Done", "C")
	ctx := context.Background()

	require.NoError(t, f.svc.Boards.DeleteColumn(ctx, f.owner, f.cols["Todo"]))

	_, err := f.store.GetTask(ctx, todo["A"])
	assert.Error(t, err)
	_, err = f.store.GetTask(ctx, done["C"])
	assert.NoError(t, err)

	entries := f.auditFor(f.cols["Todo"])
	last := entries[len(entries)-1]
	assert.Equal(t, models.ActionColumnDeleted, last.Action)
	assert.Equal(t, "Todo", last.Details["title"])
	assert.Equal(t, int64(2), last.Details["deletedTasks"])
}

func TestLabels(t *testing.T) {
	f := newFixture(t, Config{}).withBoard(t)
	ctx := context.Background()

	label, err := f.svc.Boards.CreateLabel(ctx, f.owner, f.board.ID, "bug")
	require.NoError(t, err)

	_, err = f.svc.Boards.CreateLabel(ctx, f.member, f.board.ID, "feature")
	requireKind(t, err, KindForbidden, "")

	renamed, err := f.svc.Boards.RenameLabel(ctx, f.owner, f.board.ID, label.ID, "defect")
	require.NoError(t, err)
	assert.Equal(t, "defect", renamed.Name)

	_, err = f.svc.Boards.RenameLabel(ctx, f.owner, f.board.ID, "missing", "x")
	requireKind(t, err, KindNotFound, CodeLabelNotFound)

	labels, err := f.svc.Boards.ListLabels(ctx, f.member, f.board.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Label{{ID: label.ID, Name: "defect"}}, labels)

	require.NoError(t, f.svc.Boards.DeleteLabel(ctx, f.owner, f.board.ID, label.ID))
	labels, err = f.svc.Boards.ListLabels(ctx, f.member, f.board.ID)
	require.NoError(t, err)
	assert.Empty(t, labels)

	var actions []models.AuditAction
	for _, e := range f.auditFor(label.ID) {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []models.AuditAction{models.ActionLabelCreated, models.ActionLabelUpdated, models.ActionLabelDeleted}, actions)
}

func TestMembers(t *testing.T) {
	f := newFixture(t, Config{}).withBoard(t)
	ctx := context.Background()

	resp, err := f.svc.Boards.ListMembers(ctx, f.member, f.board.ID)
	require.NoError(t, err)
	assert.Equal(t, "Owner", resp.Owner.Name)
	require.Len(t, resp.Members, 1)

	err = f.svc.Boards.RemoveMember(ctx, f.owner, f.board.ID, f.owner.Email)
	requireKind(t, err, KindValidation, "")

	err = f.svc.Boards.RemoveMember(ctx, f.owner, f.board.ID, "nobody@example.com")
	requireKind(t, err, KindNotFound, CodeMemberNotFound)

	require.NoError(t, f.svc.Boards.RemoveMember(ctx, f.owner, f.board.ID, "MEMBER@example.com"))
	_, err = f.svc.Boards.GetBoard(ctx, f.member, f.board.ID)
	requireKind(t, err, KindNotFound, CodeBoardNotFound)

	entries := f.auditFor(f.board.ID + ":member@example.com")
	require.Len(t, entries, 1)
	assert.Equal(t, models.EntityBoardMember, entries[0].Entity)
	assert.Equal(t, 1, entries[0].Details["beforeCount"])
	assert.Equal(t, 0, entries[0].Details["afterCount"])
}

func TestListBoardsWithStats(t *testing.T) {
	f := newFixture(t, Config{}).withBoard(t, "Todo", "Done")
	f.addTasks(t, "Todo", "A", "B")
	f.addTasks(t, "Done", "C")

	boards, err := f.svc.Boards.ListBoards(context.Background(), f.member)
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, 3, boards[0].TasksCount)
	assert.Equal(t, 1, boards[0].DoneCount)
	assert.Equal(t, 1, boards[0].MembersCount)
	assert.NotNil(t, boards[0].LastActivityAt)

	none, err := f.svc.Boards.ListBoards(context.Background(), f.outsider)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepairRenormalizesBoard(t *testing.T) {
	f := newFixture(t, Config{}).withBoard(t, "Todo")
	ctx := context.Background()

	for i, pos := range []int{4, 9, 9, 20} {
		f.store.PutTask(t, models.Task{
			ID:       "t" + string(rune('a'+i)),
			BoardID:  f.board.ID,
			ColumnID: f.cols["Todo"],
			Title:    string(rune('A' + i)),
			Position: pos,
		})
	}
	f.store.PutTask(t, models.Task{ID: "orphan", BoardID: f.board.ID, ColumnID: "gone", Title: "O", Position: 1})

	_, err := f.svc.Boards.Renormalize(ctx, f.member, f.board.ID)
	requireKind(t, err, KindForbidden, "")

	report, err := f.svc.Boards.Renormalize(ctx, f.owner, f.board.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, report.TasksChanged)
	assert.Equal(t, []string{"orphan"}, report.OrphanTaskIDs)
	assert.Equal(t, []string{"A:1", "B:2", "C:3", "D:4"}, f.columnOrder(t, "Todo"))

	entries := f.auditFor(f.board.ID)
	assert.Equal(t, models.ActionBoardRenormalized, entries[len(entries)-1].Action)

	count := len(f.store.AuditEntries())
	again, err := f.svc.Boards.Repair(ctx, SystemActor, f.board.ID)
	require.NoError(t, err)
	assert.Zero(t, again.TasksChanged)
	assert.Len(t, f.store.AuditEntries(), count)
}

func boolp(b bool) *bool { return &b }
