package services

import (
	"context"
	"errors"
	"strings"

	"taskboard-be/internal/models"
	"taskboard-be/internal/repository"
	"taskboard-be/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// InviteService drives membership: owners invite registered users, invitees
// accept, inviters or owners revoke.
type InviteService struct {
	*mutator
}

// Invite list directions.
const (
	InvitesIncoming = "incoming"
	InvitesOutgoing = "outgoing"
)

func (s *InviteService) CreateInvite(ctx context.Context, actor models.Actor, boardID, email string) (invite *models.BoardInvite, err error) {
	ctx, finish := startOp(ctx, "createInvite", attribute.String("taskboard.board_id", boardID))
	defer func() { finish(err) }()

	email = strings.TrimSpace(email)
	if !utils.LooksLikeEmail(email) {
		return nil, validationError("email", "Valid email is required")
	}
	emailLower := utils.FoldEmail(email)

	board, access, err := visibleBoard(ctx, s.stores.Boards, boardID, actor, CodeBoardNotFound)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(access); err != nil {
		return nil, err
	}
	if _, err := s.stores.Users.FindByEmail(ctx, emailLower); err != nil {
		return nil, storeError(err, CodeUserNotFound)
	}
	if AccessFor(board, models.Actor{EmailLower: emailLower}).CanRead() {
		return nil, conflictError(CodeAlreadyMember, "User already has access to this board")
	}

	err = s.withBoardLock(ctx, boardID, func(ctx context.Context) error {
		board, err := s.stores.Boards.GetBoard(ctx, boardID)
		if err != nil {
			return storeError(err, CodeBoardNotFound)
		}
		if AccessFor(board, models.Actor{EmailLower: emailLower}).CanRead() {
			return conflictError(CodeAlreadyMember, "User already has access to this board")
		}
		_, err = s.stores.Invites.FindPendingInvite(ctx, boardID, emailLower)
		switch {
		case err == nil:
			return conflictError(CodeInviteAlreadySent, "Pending invite already exists")
		case !errors.Is(err, repository.ErrNotFound):
			return storeError(err, CodeInviteNotFound)
		}

		invite = &models.BoardInvite{
			ID:                  newID(),
			BoardID:             boardID,
			Email:               email,
			EmailLower:          emailLower,
			Role:                models.RoleMember,
			InvitedByEmail:      actor.Email,
			InvitedByEmailLower: actor.EmailLower,
			Status:              models.InvitePending,
			CreatedAt:           s.now(),
		}
		return s.apply(ctx, func(ctx context.Context) error {
			return s.stores.Invites.CreateInvite(ctx, invite)
		})
	})
	if err != nil {
		return nil, err
	}

	err = s.audit.record(ctx, actor, auditEvent{
		Action:   models.ActionInviteCreated,
		Entity:   models.EntityBoardInvite,
		EntityID: invite.ID,
		BoardID:  boardID,
		Details:  map[string]any{"email": invite.Email, "role": invite.Role},
	})
	return invite, err
}

// ListInvites lists the actor's incoming or outgoing invites, newest first.
// Status defaults to pending; "all" lists every status.
func (s *InviteService) ListInvites(ctx context.Context, actor models.Actor, direction, status string) ([]models.BoardInvite, error) {
	var f models.InviteFilter
	switch direction {
	case "", InvitesIncoming:
		f.EmailLower = actor.EmailLower
	case InvitesOutgoing:
		f.InvitedByEmailLower = actor.EmailLower
	default:
		return nil, validationError("type", "type must be incoming or outgoing")
	}

	switch models.InviteStatus(status) {
	case "":
		f.Status = models.InvitePending
	case models.InvitePending, models.InviteAccepted, models.InviteRevoked:
		f.Status = models.InviteStatus(status)
	default:
		if status != "all" {
			return nil, validationError("status", "status must be pending, accepted, revoked or all")
		}
	}

	invites, err := s.stores.Invites.ListInvites(ctx, f)
	if err != nil {
		return nil, storeError(err, CodeInviteNotFound)
	}
	return invites, nil
}

// pendingInvite loads an invite that can still change state. Settled invites
// are reported as not found.
func (s *InviteService) pendingInvite(ctx context.Context, inviteID string) (*models.BoardInvite, error) {
	invite, err := s.stores.Invites.GetInvite(ctx, inviteID)
	if err != nil {
		return nil, storeError(err, CodeInviteNotFound)
	}
	if invite.Status != models.InvitePending {
		return nil, notFoundError(CodeInviteNotFound, notFoundMessage(CodeInviteNotFound))
	}
	return invite, nil
}

// AcceptInvite makes the invitee a member. If the invitee already has access
// the invite is only marked accepted; the audit entry records joined=false.
func (s *InviteService) AcceptInvite(ctx context.Context, actor models.Actor, inviteID string) (resp *models.InviteAcceptResponse, err error) {
	ctx, finish := startOp(ctx, "acceptInvite", attribute.String("taskboard.invite_id", inviteID))
	defer func() { finish(err) }()

	invite, err := s.pendingInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if utils.FoldEmail(invite.EmailLower) != actor.EmailLower {
		return nil, forbiddenError("Invite does not belong to this user")
	}

	joined := false
	err = s.withBoardLock(ctx, invite.BoardID, func(ctx context.Context) error {
		current, err := s.pendingInvite(ctx, inviteID)
		if err != nil {
			return err
		}
		invite = current
		board, err := s.stores.Boards.GetBoard(ctx, invite.BoardID)
		if err != nil {
			return storeError(err, CodeBoardNotFound)
		}

		now := s.now()
		invite.Status = models.InviteAccepted
		invite.AcceptedAt = &now
		if !AccessFor(board, actor).CanRead() {
			board.Members = append(board.Members, models.Member{
				Email:      actor.Email,
				EmailLower: actor.EmailLower,
				Role:       models.RoleMember,
				JoinedAt:   now,
			})
			board.UpdatedAt = now
			joined = true
		}
		return s.apply(ctx, func(ctx context.Context) error {
			if joined {
				if err := s.stores.Boards.SaveBoard(ctx, board); err != nil {
					return err
				}
			}
			return s.stores.Invites.UpdateInvite(ctx, invite)
		})
	})
	if err != nil {
		return nil, err
	}

	resp = &models.InviteAcceptResponse{OK: true, BoardID: invite.BoardID}
	err = s.audit.record(ctx, actor, auditEvent{
		Action:   models.ActionInviteAccepted,
		Entity:   models.EntityBoardInvite,
		EntityID: invite.ID,
		BoardID:  invite.BoardID,
		Details:  map[string]any{"email": invite.Email, "role": invite.Role, "joined": joined},
	})
	return resp, err
}

// RevokeInvite cancels a pending invite. Only the inviter or the board owner
// may revoke.
func (s *InviteService) RevokeInvite(ctx context.Context, actor models.Actor, inviteID string) (err error) {
	ctx, finish := startOp(ctx, "revokeInvite", attribute.String("taskboard.invite_id", inviteID))
	defer func() { finish(err) }()

	invite, err := s.pendingInvite(ctx, inviteID)
	if err != nil {
		return err
	}
	board, err := s.stores.Boards.GetBoard(ctx, invite.BoardID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return storeError(err, CodeBoardNotFound)
	}
	if utils.FoldEmail(invite.InvitedByEmailLower) != actor.EmailLower && !AccessFor(board, actor).IsOwner {
		return forbiddenError("Not allowed to revoke this invite")
	}

	err = s.withBoardLock(ctx, invite.BoardID, func(ctx context.Context) error {
		current, err := s.pendingInvite(ctx, inviteID)
		if err != nil {
			return err
		}
		invite = current
		now := s.now()
		invite.Status = models.InviteRevoked
		invite.RevokedAt = &now
		return s.apply(ctx, func(ctx context.Context) error {
			return s.stores.Invites.UpdateInvite(ctx, invite)
		})
	})
	if err != nil {
		return err
	}

	return s.audit.record(ctx, actor, auditEvent{
		Action:   models.ActionInviteRevoked,
		Entity:   models.EntityBoardInvite,
		EntityID: invite.ID,
		BoardID:  invite.BoardID,
		Details:  map[string]any{"email": invite.Email},
	})
}
