package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskboard-be/internal/locking"
	"taskboard-be/internal/models"
	"taskboard-be/internal/services"
	"taskboard-be/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	router *gin.Engine
	store  *testutil.MemStore
	actors map[string]models.Actor
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := testutil.NewMemStore()
	f := &apiFixture{
		store: store,
		actors: map[string]models.Actor{
			"owner":    store.AddUser(t, "u-owner", "owner@example.com", "Owner"),
			"member":   store.AddUser(t, "u-member", "member@example.com", "Member"),
			"outsider": store.AddUser(t, "u-out", "outsider@example.com", "Outsider"),
		},
	}
	svc := services.New(services.Stores{
		Boards: store, Tasks: store, Invites: store, Audit: store, Users: store, Stats: store, Tx: store,
	}, locking.NewLocalLocker(time.Second), services.Config{})

	f.router = gin.New()
	api := f.router.Group("/api")
	api.Use(func(c *gin.Context) {
		if actor, ok := f.actors[c.GetHeader("X-Test-Actor")]; ok {
			c.Set(ActorKey, actor)
		}
		c.Next()
	})
	RegisterRoutes(api, svc)
	return f
}

func (f *apiFixture) do(t *testing.T, actor, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, "/api"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("X-Test-Actor", actor)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func requireError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) models.ErrorResponse {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	resp := decode[models.ErrorResponse](t, w)
	assert.Equal(t, code, resp.Error)
	return resp
}

// board creates a board owned by "owner" with "member" added and the given
// columns, returning the board id and column ids by title.
func (f *apiFixture) board(t *testing.T, columns ...string) (string, map[string]string) {
	t.Helper()
	w := f.do(t, "owner", http.MethodPost, "/boards", gin.H{"name": "Sprint"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	board := decode[models.Board](t, w)

	cols := map[string]string{}
	for _, title := range columns {
		w := f.do(t, "owner", http.MethodPost, "/columns", gin.H{"boardId": board.ID, "title": title})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		cols[title] = decode[models.Column](t, w).ID
	}

	ctx := context.Background()
	b, err := f.store.GetBoard(ctx, board.ID)
	require.NoError(t, err)
	member := f.actors["member"]
	b.Members = append(b.Members, models.Member{Email: member.Email, EmailLower: member.EmailLower, Role: models.RoleMember})
	require.NoError(t, f.store.SaveBoard(ctx, b))
	return board.ID, cols
}

func (f *apiFixture) task(t *testing.T, boardID, columnID, title string) models.Task {
	t.Helper()
	w := f.do(t, "member", http.MethodPost, "/boards/"+boardID+"/tasks", gin.H{"title": title, "columnId": columnID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Task](t, w)
}

func (f *apiFixture) titles(t *testing.T, boardID, columnID string) []string {
	t.Helper()
	w := f.do(t, "member", http.MethodGet, "/boards/"+boardID+"/tasks?columnId="+columnID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out []string
	for _, task := range decode[[]models.Task](t, w) {
		out = append(out, task.Title)
	}
	return out
}

func TestUnauthenticated(t *testing.T) {
	f := newAPI(t)
	requireError(t, f.do(t, "", http.MethodGet, "/boards", nil), http.StatusUnauthorized, "AUTH_REQUIRED")
}

func TestGetMe(t *testing.T) {
	f := newAPI(t)
	w := f.do(t, "member", http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "member@example.com", decode[models.Actor](t, w).EmailLower)
}

func TestBoardEndpoints(t *testing.T) {
	f := newAPI(t)
	boardID, _ := f.board(t, "Todo")

	resp := requireError(t, f.do(t, "owner", http.MethodPost, "/boards", gin.H{"name": "   "}), http.StatusBadRequest, "VALIDATION_ERROR")
	assert.Equal(t, "name", resp.Field)

	w := f.do(t, "member", http.MethodGet, "/boards", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summaries := decode[[]models.BoardSummary](t, w)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].MembersCount)

	w = f.do(t, "outsider", http.MethodGet, "/boards", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	requireError(t, f.do(t, "outsider", http.MethodGet, "/boards/"+boardID, nil), http.StatusNotFound, "BOARD_NOT_FOUND")
	requireError(t, f.do(t, "member", http.MethodPatch, "/boards/"+boardID, gin.H{"name": "Mine"}), http.StatusForbidden, "FORBIDDEN")

	w = f.do(t, "owner", http.MethodPatch, "/boards/"+boardID, gin.H{"name": "Release"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Release", decode[models.Board](t, w).Name)

	w = f.do(t, "owner", http.MethodDelete, "/boards/"+boardID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	requireError(t, f.do(t, "owner", http.MethodGet, "/boards/"+boardID, nil), http.StatusNotFound, "BOARD_NOT_FOUND")
}

func TestColumnEndpoints(t *testing.T) {
	f := newAPI(t)
	boardID, cols := f.board(t, "X", "Y", "Z")

	w := f.do(t, "owner", http.MethodPatch, "/columns/"+cols["Z"]+"/move", gin.H{"position": 0.6})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var order []string
	for _, c := range decode[[]models.Column](t, w) {
		order = append(order, c.Title)
	}
	assert.Equal(t, []string{"Z", "X", "Y"}, order)

	requireError(t, f.do(t, "owner", http.MethodPatch, "/columns/"+cols["Z"]+"/move", gin.H{}), http.StatusBadRequest, "VALIDATION_ERROR")
	resp := requireError(t, f.do(t, "owner", http.MethodPatch, "/columns/"+cols["Z"]+"/move", `{"position":"first"}`), http.StatusBadRequest, "VALIDATION_ERROR")
	assert.Equal(t, "position", resp.Field)

	w = f.do(t, "owner", http.MethodPatch, "/columns/"+cols["X"], gin.H{"title": "Doing", "isDone": true})
	require.Equal(t, http.StatusOK, w.Code)
	col := decode[models.Column](t, w)
	assert.Equal(t, "Doing", col.Title)
	assert.True(t, col.IsDone)

	requireError(t, f.do(t, "member", http.MethodDelete, "/columns/"+cols["Y"], nil), http.StatusForbidden, "FORBIDDEN")
	requireError(t, f.do(t, "outsider", http.MethodDelete, "/columns/"+cols["Y"], nil), http.StatusNotFound, "COLUMN_NOT_FOUND")
	assert.Equal(t, http.StatusNoContent, f.do(t, "owner", http.MethodDelete, "/columns/"+cols["Y"], nil).Code)

	w = f.do(t, "member", http.MethodGet, "/boards/"+boardID+"/columns", nil)
	require.Equal(t, http.StatusOK, w.Code)
	columns := decode[[]models.Column](t, w)
	require.Len(t, columns, 2)
	assert.Equal(t, 1, columns[0].Position)
	assert.Equal(t, 2, columns[1].Position)
}

func TestTaskEndpoints(t *testing.T) {
	f := newAPI(t)
	boardID, cols := f.board(t, "Doing", "Done")

	resp := requireError(t, f.do(t, "member", http.MethodPost, "/boards/"+boardID+"/tasks", gin.H{"title": "", "columnId": cols["Doing"]}), http.StatusBadRequest, "VALIDATION_ERROR")
	assert.Equal(t, "title", resp.Field)
	resp = requireError(t, f.do(t, "member", http.MethodPost, "/boards/"+boardID+"/tasks", gin.H{"title": "A", "columnId": "nope"}), http.StatusBadRequest, "VALIDATION_ERROR")
	assert.Equal(t, "columnId", resp.Field)
	resp = requireError(t, f.do(t, "member", http.MethodPost, "/boards/"+boardID+"/tasks", gin.H{"title": "A", "columnId": cols["Doing"], "dueDate": "2024-02-30"}), http.StatusBadRequest, "VALIDATION_ERROR")
	assert.Equal(t, "dueDate", resp.Field)

	a := f.task(t, boardID, cols["Doing"], "A")
	f.task(t, boardID, cols["Doing"], "B")
	c := f.task(t, boardID, cols["Doing"], "C")
	assert.Equal(t, 3, c.Position)

	w := f.do(t, "member", http.MethodPatch, "/tasks/"+c.ID+"/move", gin.H{"position": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[models.Task](t, w).Position)
	assert.Equal(t, []string{"C", "A", "B"}, f.titles(t, boardID, cols["Doing"]))

	w = f.do(t, "member", http.MethodPatch, "/tasks/"+a.ID+"/move", gin.H{"columnId": cols["Done"], "position": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"C", "B"}, f.titles(t, boardID, cols["Doing"]))
	assert.Equal(t, []string{"A"}, f.titles(t, boardID, cols["Done"]))

	w = f.do(t, "member", http.MethodPatch, "/tasks/"+a.ID, gin.H{"title": "A2", "dueDate": "2025-03-01"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Task](t, w)
	assert.Equal(t, "A2", updated.Title)
	require.NotNil(t, updated.DueDate)
	assert.Equal(t, "2025-03-01", *updated.DueDate)

	w = f.do(t, "member", http.MethodPatch, "/tasks/"+a.ID, gin.H{"title": "A2", "dueDate": nil})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[models.Task](t, w).DueDate)

	w = f.do(t, "member", http.MethodGet, "/tickets/"+a.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	requireError(t, f.do(t, "member", http.MethodGet, "/tickets/missing", nil), http.StatusNotFound, "TICKET_NOT_FOUND")
	requireError(t, f.do(t, "outsider", http.MethodGet, "/tasks/"+a.ID, nil), http.StatusNotFound, "TASK_NOT_FOUND")

	w = f.do(t, "member", http.MethodGet, "/boards/"+boardID+"/tasks?q=C", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]models.Task](t, w)
	require.NotEmpty(t, found)
	assert.Equal(t, "C", found[0].Title)

	assert.Equal(t, http.StatusNoContent, f.do(t, "member", http.MethodDelete, "/tasks/"+c.ID, nil).Code)
	assert.Equal(t, []string{"B"}, f.titles(t, boardID, cols["Doing"]))
}

func TestAuditWriteFailureCarriesResult(t *testing.T) {
	f := newAPI(t)
	boardID, cols := f.board(t, "Todo")
	f.store.AuditFailures = 2

	w := f.do(t, "member", http.MethodPost, "/boards/"+boardID+"/tasks", gin.H{"title": "Unconfirmed", "columnId": cols["Todo"]})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body struct {
		Error  string      `json:"error"`
		Result models.Task `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "AUDIT_WRITE_FAILED", body.Error)
	assert.Equal(t, "Unconfirmed", body.Result.Title)

	stored, err := f.store.GetTask(context.Background(), body.Result.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Position)
}

func TestLabelAndMemberEndpoints(t *testing.T) {
	f := newAPI(t)
	boardID, _ := f.board(t, "Todo")

	w := f.do(t, "owner", http.MethodPost, "/boards/"+boardID+"/labels", gin.H{"name": "bug"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	label := decode[models.Label](t, w)

	w = f.do(t, "owner", http.MethodPatch, "/boards/"+boardID+"/labels/"+label.ID, gin.H{"name": "defect"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "defect", decode[models.Label](t, w).Name)

	w = f.do(t, "member", http.MethodGet, "/boards/"+boardID+"/labels", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Label](t, w), 1)
	assert.Equal(t, http.StatusNoContent, f.do(t, "owner", http.MethodDelete, "/boards/"+boardID+"/labels/"+label.ID, nil).Code)

	w = f.do(t, "member", http.MethodGet, "/boards/"+boardID+"/members", nil)
	require.Equal(t, http.StatusOK, w.Code)
	members := decode[models.MembersResponse](t, w)
	assert.Equal(t, "owner@example.com", members.Owner.EmailLower)
	require.Len(t, members.Members, 1)

	requireError(t, f.do(t, "owner", http.MethodDelete, "/boards/"+boardID+"/members/owner@example.com", nil), http.StatusBadRequest, "VALIDATION_ERROR")
	assert.Equal(t, http.StatusNoContent, f.do(t, "owner", http.MethodDelete, "/boards/"+boardID+"/members/member@example.com", nil).Code)
	requireError(t, f.do(t, "member", http.MethodGet, "/boards/"+boardID, nil), http.StatusNotFound, "BOARD_NOT_FOUND")
}

func TestInviteEndpoints(t *testing.T) {
	f := newAPI(t)
	boardID, _ := f.board(t, "Todo")

	requireError(t, f.do(t, "owner", http.MethodPost, "/boards/"+boardID+"/invites", gin.H{"email": "ghost@example.com"}), http.StatusNotFound, "USER_NOT_FOUND")
	requireError(t, f.do(t, "owner", http.MethodPost, "/boards/"+boardID+"/invites", gin.H{"email": "member@example.com"}), http.StatusConflict, "ALREADY_MEMBER")

	w := f.do(t, "owner", http.MethodPost, "/boards/"+boardID+"/invites", gin.H{"email": "Outsider@Example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	invite := decode[models.BoardInvite](t, w)

	w = f.do(t, "outsider", http.MethodGet, "/invites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.BoardInvite](t, w), 1)

	w = f.do(t, "owner", http.MethodGet, "/invites?type=outgoing&status=all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.BoardInvite](t, w), 1)
	requireError(t, f.do(t, "owner", http.MethodGet, "/invites?type=sideways", nil), http.StatusBadRequest, "VALIDATION_ERROR")

	requireError(t, f.do(t, "member", http.MethodPost, "/invites/"+invite.ID+"/accept", nil), http.StatusForbidden, "FORBIDDEN")
	w = f.do(t, "outsider", http.MethodPost, "/invites/"+invite.ID+"/accept", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.InviteAcceptResponse{OK: true, BoardID: boardID}, decode[models.InviteAcceptResponse](t, w))

	assert.Equal(t, http.StatusOK, f.do(t, "outsider", http.MethodGet, "/boards/"+boardID, nil).Code)
	requireError(t, f.do(t, "owner", http.MethodPost, "/invites/"+invite.ID+"/revoke", nil), http.StatusNotFound, "INVITE_NOT_FOUND")
}

func TestAuditEndpoints(t *testing.T) {
	f := newAPI(t)
	boardID, cols := f.board(t, "Todo")
	task := f.task(t, boardID, cols["Todo"], "Write docs")

	w := f.do(t, "member", http.MethodGet, "/audit?entity=task&entityId="+task.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]models.AuditEntry](t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionTaskCreated, entries[0].Action)

	requireError(t, f.do(t, "outsider", http.MethodGet, "/audit?boardId="+boardID, nil), http.StatusNotFound, "BOARD_NOT_FOUND")
	resp := requireError(t, f.do(t, "member", http.MethodGet, "/audit?limit=zero", nil), http.StatusBadRequest, "VALIDATION_ERROR")
	assert.Equal(t, "limit", resp.Field)

	w = f.do(t, "member", http.MethodPost, "/audit", gin.H{
		"action":   "TASK_UPDATED",
		"entity":   "task",
		"entityId": task.ID,
		"boardId":  boardID,
		"details":  gin.H{"note": "client side"},
		"ts":       "2024-05-01T10:00:00+02:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entry := decode[models.AuditEntry](t, w)
	assert.True(t, entry.Ts.Equal(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)))

	resp = requireError(t, f.do(t, "member", http.MethodPost, "/audit", gin.H{"action": "TASK_EXPLODED", "entity": "task", "entityId": "x"}), http.StatusBadRequest, "VALIDATION_ERROR")
	assert.Equal(t, "action", resp.Field)
}

func TestRenormalizeEndpoint(t *testing.T) {
	f := newAPI(t)
	boardID, cols := f.board(t, "Todo")
	f.store.PutTask(t, models.Task{ID: "a", BoardID: boardID, ColumnID: cols["Todo"], Title: "A", Position: 5})

	requireError(t, f.do(t, "member", http.MethodPost, "/boards/"+boardID+"/renormalize", nil), http.StatusForbidden, "FORBIDDEN")
	w := f.do(t, "owner", http.MethodPost, "/boards/"+boardID+"/renormalize", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[services.RepairReport](t, w)
	assert.Equal(t, 1, report.TasksChanged)
}

func TestStatisticsEndpoint(t *testing.T) {
	f := newAPI(t)
	boardID, cols := f.board(t, "Todo", "Done")
	f.task(t, boardID, cols["Todo"], "a")
	f.task(t, boardID, cols["Todo"], "b")

	w := f.do(t, "member", http.MethodGet, "/boards/"+boardID+"/statistics?period=7d", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stats := decode[models.StatisticsResponse](t, w)
	assert.Equal(t, "7d", stats.Period)
	assert.Equal(t, 2, stats.TotalTasks)
	require.Len(t, stats.TasksByColumn, 2)
	assert.Equal(t, 2, stats.TasksByColumn[0].Count)
	assert.Equal(t, "Done", stats.TasksByColumn[1].Title)
	assert.Contains(t, stats.TopActors, models.ActorCount{Actor: "member@example.com", Count: 2})

	resp := requireError(t, f.do(t, "member", http.MethodGet, "/boards/"+boardID+"/statistics?period=2w", nil),
		http.StatusBadRequest, "VALIDATION_ERROR")
	assert.Equal(t, "period", resp.Field)
	requireError(t, f.do(t, "outsider", http.MethodGet, "/boards/"+boardID+"/statistics", nil),
		http.StatusNotFound, "BOARD_NOT_FOUND")
}

func TestRoundPosition(t *testing.T) {
	assert.Nil(t, roundPosition(nil))
	for in, want := range map[float64]int{1: 1, 1.4: 1, 1.5: 2, -3.2: -3, 1e300: maxPosition} {
		p := in
		assert.Equal(t, want, *roundPosition(&p), "position %v", in)
	}
}
