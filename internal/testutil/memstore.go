// Package testutil provides an in-memory implementation of every store the
// services depend on, with fault injection for tests.
package testutil

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"taskboard-be/internal/models"
	"taskboard-be/internal/repository"
)

// MemStore keeps boards, tasks, invites, audit entries and users in maps.
// RunInTx snapshots boards, tasks, invites and fences and restores them when fn
// fails; the audit log is append-only and never rolled back.
type MemStore struct {
	txMu sync.Mutex

	mu      sync.Mutex
	boards  map[string]models.Board
	tasks   map[string]models.Task
	invites map[string]models.BoardInvite
	users   map[string]models.User
	fences  map[string]int64
	audit   []models.AuditEntry
	seq     int64
	order   map[string]int64

	// AuditFailures makes the next n audit inserts fail with AuditErr.
	AuditFailures int
	AuditErr      error
	// FailWritesAfter makes every task write after the given number of
	// successful ones fail, to exercise rollback. Zero disables it.
	FailWritesAfter int
	taskWrites      int
}

func NewMemStore() *MemStore {
	return &MemStore{
		boards:   map[string]models.Board{},
		tasks:    map[string]models.Task{},
		invites:  map[string]models.BoardInvite{},
		users:    map[string]models.User{},
		fences:   map[string]int64{},
		order:    map[string]int64{},
		AuditErr: repository.ErrUnavailable,
	}
}

var ErrInjected = errors.New("testutil: injected failure")

func cloneBoard(b models.Board) models.Board {
	b.Columns = slices.Clone(b.Columns)
	b.Labels = slices.Clone(b.Labels)
	b.Members = slices.Clone(b.Members)
	b.Normalize()
	return b
}

func (s *MemStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	boards := make(map[string]models.Board, len(s.boards))
	for k, v := range s.boards {
		boards[k] = cloneBoard(v)
	}
	tasks := make(map[string]models.Task, len(s.tasks))
	for k, v := range s.tasks {
		tasks[k] = v
	}
	invites := make(map[string]models.BoardInvite, len(s.invites))
	for k, v := range s.invites {
		invites[k] = v
	}
	fences := make(map[string]int64, len(s.fences))
	for k, v := range s.fences {
		fences[k] = v
	}
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.boards, s.tasks, s.invites, s.fences = boards, tasks, invites, fences
		s.mu.Unlock()
		return err
	}
	return nil
}

// Boards

func (s *MemStore) CreateBoard(ctx context.Context, board *models.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards[board.ID] = cloneBoard(*board)
	return nil
}

func (s *MemStore) GetBoard(ctx context.Context, id string) (*models.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	b = cloneBoard(b)
	return &b, nil
}

func (s *MemStore) GetBoardByColumnID(ctx context.Context, columnID string) (*models.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.boards {
		if b.Column(columnID) != nil {
			b = cloneBoard(b)
			return &b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *MemStore) ListBoardsForMember(ctx context.Context, emailLower string) ([]models.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Board
	for _, b := range s.boards {
		if b.OwnerEmailLower == emailLower || b.Member(emailLower) != nil {
			out = append(out, cloneBoard(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemStore) SaveBoard(ctx context.Context, board *models.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.boards[board.ID]; !ok {
		return repository.ErrNotFound
	}
	s.boards[board.ID] = cloneBoard(*board)
	return nil
}

func (s *MemStore) DeleteBoard(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.boards[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.boards, id)
	return nil
}

// Fences

func (s *MemStore) BoardVersion(ctx context.Context, boardID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fences[boardID], nil
}

func (s *MemStore) AdvanceBoardVersion(ctx context.Context, boardID string, expected int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fences[boardID] != expected {
		return repository.ErrStale
	}
	s.fences[boardID] = expected + 1
	return nil
}

// Tasks

func (s *MemStore) taskWrite() error {
	if s.FailWritesAfter <= 0 {
		return nil
	}
	if s.taskWrites >= s.FailWritesAfter {
		return ErrInjected
	}
	s.taskWrites++
	return nil
}

func (s *MemStore) CreateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.taskWrite(); err != nil {
		return err
	}
	s.seq++
	s.order[task.ID] = s.seq
	s.tasks[task.ID] = *task
	return nil
}

func (s *MemStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

// sorted orders like the Mongo repository: position, then seq. Tasks seeded
// without a seq fall back to the order they were stored in.
func (s *MemStore) sorted(keep func(models.Task) bool) []models.Task {
	out := []models.Task{}
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return s.order[a.ID] < s.order[b.ID]
	})
	return out
}

func (s *MemStore) ListBoardTasks(ctx context.Context, boardID string) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(func(t models.Task) bool { return t.BoardID == boardID }), nil
}

func (s *MemStore) ListColumnTasks(ctx context.Context, boardID, columnID string) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(func(t models.Task) bool { return t.BoardID == boardID && t.ColumnID == columnID }), nil
}

func (s *MemStore) UpdateTaskContent(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[task.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := s.taskWrite(); err != nil {
		return err
	}
	t.Title, t.Description, t.AssigneeID, t.DueDate, t.UpdatedAt = task.Title, task.Description, task.AssigneeID, task.DueDate, task.UpdatedAt
	s.tasks[task.ID] = t
	return nil
}

func (s *MemStore) ApplyPlacements(ctx context.Context, boardID string, placements []models.Placement, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range placements {
		t, ok := s.tasks[p.TaskID]
		if !ok || t.BoardID != boardID {
			return repository.ErrNotFound
		}
		if err := s.taskWrite(); err != nil {
			return err
		}
		t.ColumnID, t.Position, t.UpdatedAt = p.ColumnID, p.Position, at
		s.tasks[p.TaskID] = t
	}
	return nil
}

func (s *MemStore) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	if err := s.taskWrite(); err != nil {
		return err
	}
	delete(s.tasks, id)
	return nil
}

func (s *MemStore) deleteTasks(keep func(models.Task) bool) int64 {
	var n int64
	for id, t := range s.tasks {
		if keep(t) {
			delete(s.tasks, id)
			n++
		}
	}
	return n
}

func (s *MemStore) DeleteColumnTasks(ctx context.Context, boardID, columnID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteTasks(func(t models.Task) bool { return t.BoardID == boardID && t.ColumnID == columnID }), nil
}

func (s *MemStore) DeleteBoardTasks(ctx context.Context, boardID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteTasks(func(t models.Task) bool { return t.BoardID == boardID }), nil
}

func (s *MemStore) TaskStats(ctx context.Context, boardID string, doneColumnIDs []string) (models.TaskStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats models.TaskStats
	for _, t := range s.tasks {
		if t.BoardID != boardID {
			continue
		}
		stats.Total++
		if slices.Contains(doneColumnIDs, t.ColumnID) {
			stats.Done++
		}
		if stats.LastActivity == nil || t.UpdatedAt.After(*stats.LastActivity) {
			at := t.UpdatedAt
			stats.LastActivity = &at
		}
	}
	return stats, nil
}

// Invites

func (s *MemStore) CreateInvite(ctx context.Context, invite *models.BoardInvite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invites[invite.ID] = *invite
	return nil
}

func (s *MemStore) GetInvite(ctx context.Context, id string) (*models.BoardInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invites[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &inv, nil
}

func (s *MemStore) FindPendingInvite(ctx context.Context, boardID, emailLower string) (*models.BoardInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invites {
		if inv.BoardID == boardID && inv.EmailLower == emailLower && inv.Status == models.InvitePending {
			return &inv, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *MemStore) ListInvites(ctx context.Context, f models.InviteFilter) ([]models.BoardInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.BoardInvite{}
	for _, inv := range s.invites {
		if f.EmailLower != "" && inv.EmailLower != f.EmailLower {
			continue
		}
		if f.InvitedByEmailLower != "" && inv.InvitedByEmailLower != f.InvitedByEmailLower {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) UpdateInvite(ctx context.Context, invite *models.BoardInvite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invites[invite.ID]; !ok {
		return repository.ErrNotFound
	}
	s.invites[invite.ID] = *invite
	return nil
}

func (s *MemStore) RevokePendingFor(ctx context.Context, boardID, emailLower string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, inv := range s.invites {
		if inv.BoardID == boardID && inv.EmailLower == emailLower && inv.Status == models.InvitePending {
			revokedAt := at
			inv.Status = models.InviteRevoked
			inv.RevokedAt = &revokedAt
			s.invites[id] = inv
			n++
		}
	}
	return n, nil
}

func (s *MemStore) DeleteBoardInvites(ctx context.Context, boardID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, inv := range s.invites {
		if inv.BoardID == boardID {
			delete(s.invites, id)
			n++
		}
	}
	return n, nil
}

// Audit

func (s *MemStore) InsertAudit(ctx context.Context, entry *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AuditFailures > 0 {
		s.AuditFailures--
		return s.AuditErr
	}
	for _, e := range s.audit {
		if e.ID == entry.ID {
			return nil
		}
	}
	s.audit = append(s.audit, *entry)
	return nil
}

func (s *MemStore) FindAudit(ctx context.Context, f models.AuditFilter) ([]models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.AuditEntry{}
	for _, e := range s.audit {
		if f.Entity != "" && e.Entity != f.Entity {
			continue
		}
		if f.EntityID != "" && e.EntityID != f.EntityID {
			continue
		}
		if f.BoardID != "" && (e.BoardID == nil || *e.BoardID != f.BoardID) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Ts.Equal(out[j].Ts) {
			return out[i].Ts.After(out[j].Ts)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// AuditEntries returns every stored entry in insertion order.
func (s *MemStore) AuditEntries() []models.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.audit)
}

// Statistics

func (s *MemStore) TasksByColumn(ctx context.Context, boardID string) ([]models.ColumnCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int{}
	for _, t := range s.tasks {
		if t.BoardID == boardID {
			counts[t.ColumnID]++
		}
	}
	out := []models.ColumnCount{}
	for id, n := range counts {
		out = append(out, models.ColumnCount{ColumnID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

// boardActivity returns the audit entries of the board recorded at or after
// since. Callers hold s.mu.
func (s *MemStore) boardActivity(boardID string, since time.Time) []models.AuditEntry {
	var out []models.AuditEntry
	for _, e := range s.audit {
		if e.BoardID != nil && *e.BoardID == boardID && !e.Ts.Before(since) {
			out = append(out, e)
		}
	}
	return out
}

func (s *MemStore) ActivityTrend(ctx context.Context, boardID string, since time.Time) ([]models.ActivityPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int{}
	for _, e := range s.boardActivity(boardID, since) {
		counts[e.Ts.UTC().Format("2006-01-02")]++
	}
	out := []models.ActivityPoint{}
	for date, n := range counts {
		out = append(out, models.ActivityPoint{Date: date, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *MemStore) TopActors(ctx context.Context, boardID string, since time.Time, limit int) ([]models.ActorCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int{}
	for _, e := range s.boardActivity(boardID, since) {
		counts[e.Actor]++
	}
	out := []models.ActorCount{}
	for actor, n := range counts {
		out = append(out, models.ActorCount{Actor: actor, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Actor < out[j].Actor
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) HourlyActivity(ctx context.Context, boardID string, since time.Time) ([]models.HourlyActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type slot struct{ day, hour int }
	counts := map[slot]int{}
	for _, e := range s.boardActivity(boardID, since) {
		ts := e.Ts.UTC()
		counts[slot{int(ts.Weekday()), ts.Hour()}]++
	}
	out := []models.HourlyActivity{}
	for k, n := range counts {
		out = append(out, models.HourlyActivity{DayOfWeek: k.day, Hour: k.hour, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].Hour < out[j].Hour
	})
	return out, nil
}

// Users

func (s *MemStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.EmailLower == user.EmailLower {
			return errors.New("testutil: duplicate email")
		}
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = *user
	return nil
}

func (s *MemStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *MemStore) FindByEmail(ctx context.Context, emailLower string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.EmailLower == emailLower {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}
