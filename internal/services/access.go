package services

import (
	"context"

	"taskboard-be/internal/models"
	"taskboard-be/internal/utils"
)

// Access is what an actor may do on one board.
type Access struct {
	IsOwner  bool
	IsMember bool
}

// CanRead reports task-level access: owners and members.
func (a Access) CanRead() bool { return a.IsOwner || a.IsMember }

// AccessFor evaluates an actor against a board.
func AccessFor(board *models.Board, actor models.Actor) Access {
	if board == nil || actor.EmailLower == "" {
		return Access{}
	}
	if utils.FoldEmail(board.OwnerEmailLower) == actor.EmailLower {
		return Access{IsOwner: true}
	}
	return Access{IsMember: board.Member(actor.EmailLower) != nil}
}

// SystemActor performs operator repairs from the CLI.
var SystemActor = models.Actor{Email: "system", EmailLower: "system", Name: "system"}

// visibleBoard loads a board the actor can see. A missing board and a board
// the actor has no access to fail the same way, with notFoundCode, so
// existence never leaks.
func visibleBoard(ctx context.Context, boards BoardStore, boardID string, actor models.Actor, notFoundCode string) (*models.Board, Access, error) {
	if boardID == "" {
		return nil, Access{}, notFoundError(notFoundCode, notFoundMessage(notFoundCode))
	}
	board, err := boards.GetBoard(ctx, boardID)
	if err != nil {
		return nil, Access{}, storeError(err, notFoundCode)
	}
	access := AccessFor(board, actor)
	if !access.CanRead() {
		return nil, Access{}, notFoundError(notFoundCode, notFoundMessage(notFoundCode))
	}
	return board, access, nil
}

// requireOwner runs after visibility is established.
func requireOwner(access Access) error {
	if !access.IsOwner {
		return forbiddenError("Only owner can perform this action")
	}
	return nil
}
