package testutil

import (
	"context"
	"strings"
	"testing"

	"taskboard-be/internal/models"
)

// AddUser registers a user and returns the actor it resolves to.
func (s *MemStore) AddUser(t testing.TB, id, email, name string) models.Actor {
	t.Helper()
	lower := strings.ToLower(email)
	u := &models.User{ID: id, Email: email, EmailLower: lower, Name: name}
	if err := s.Create(context.Background(), u); err != nil {
		t.Fatalf("add user %s: %v", email, err)
	}
	return models.Actor{UserID: id, Email: email, EmailLower: lower, Name: name}
}

// PutTask stores a task as is, bypassing the ordering engine, so tests can
// seed sparse or duplicated positions.
func (s *MemStore) PutTask(t testing.TB, task models.Task) {
	t.Helper()
	if err := s.CreateTask(context.Background(), &task); err != nil {
		t.Fatalf("put task %s: %v", task.ID, err)
	}
}

// PutBoard stores a board as is.
func (s *MemStore) PutBoard(t testing.TB, board models.Board) {
	t.Helper()
	if err := s.CreateBoard(context.Background(), &board); err != nil {
		t.Fatalf("put board %s: %v", board.ID, err)
	}
}
