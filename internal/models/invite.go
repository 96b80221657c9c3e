package models

import "time"

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteRevoked  InviteStatus = "revoked"
)

// BoardInvite gates membership. Accepted and revoked are terminal.
type BoardInvite struct {
	ID                  string       `json:"id" bson:"_id"`
	BoardID             string       `json:"boardId" bson:"boardId"`
	Email               string       `json:"email" bson:"email"`
	EmailLower          string       `json:"emailLower" bson:"emailLower"`
	Role                string       `json:"role" bson:"role"`
	InvitedByEmail      string       `json:"invitedByEmail" bson:"invitedByEmail"`
	InvitedByEmailLower string       `json:"invitedByEmailLower" bson:"invitedByEmailLower"`
	Status              InviteStatus `json:"status" bson:"status"`
	CreatedAt           time.Time    `json:"createdAt" bson:"createdAt"`
	AcceptedAt          *time.Time   `json:"acceptedAt" bson:"acceptedAt"`
	RevokedAt           *time.Time   `json:"revokedAt" bson:"revokedAt"`
}

// InviteFilter selects invites for the invite list. Status "" means all.
type InviteFilter struct {
	EmailLower          string
	InvitedByEmailLower string
	Status              InviteStatus
}

type CreateInviteRequest struct {
	Email string `json:"email"`
}

type InviteAcceptResponse struct {
	OK      bool   `json:"ok"`
	BoardID string `json:"boardId"`
}
