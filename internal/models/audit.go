package models

import "time"

// AuditAction enumerates the mutations recorded in the audit trail.
type AuditAction string

const (
	ActionBoardCreated      AuditAction = "BOARD_CREATED"
	ActionBoardUpdated      AuditAction = "BOARD_UPDATED"
	ActionBoardDeleted      AuditAction = "BOARD_DELETED"
	ActionBoardRenormalized AuditAction = "BOARD_RENORMALIZED"
	ActionColumnCreated     AuditAction = "COLUMN_CREATED"
	ActionColumnUpdated     AuditAction = "COLUMN_UPDATED"
	ActionColumnMoved       AuditAction = "COLUMN_MOVED"
	ActionColumnDeleted     AuditAction = "COLUMN_DELETED"
	ActionTaskCreated       AuditAction = "TASK_CREATED"
	ActionTaskUpdated       AuditAction = "TASK_UPDATED"
	ActionTaskMoved         AuditAction = "TASK_MOVED"
	ActionTaskDeleted       AuditAction = "TASK_DELETED"
	ActionTicketCreated     AuditAction = "TICKET_CREATED"
	ActionLabelCreated      AuditAction = "LABEL_CREATED"
	ActionLabelUpdated      AuditAction = "LABEL_UPDATED"
	ActionLabelDeleted      AuditAction = "LABEL_DELETED"
	ActionMemberRemoved     AuditAction = "BOARD_MEMBER_REMOVED"
	ActionInviteCreated     AuditAction = "BOARD_INVITE_CREATED"
	ActionInviteAccepted    AuditAction = "BOARD_INVITE_ACCEPTED"
	ActionInviteRevoked     AuditAction = "BOARD_INVITE_REVOKED"
)

var knownActions = map[AuditAction]struct{}{
	ActionBoardCreated: {}, ActionBoardUpdated: {}, ActionBoardDeleted: {}, ActionBoardRenormalized: {},
	ActionColumnCreated: {}, ActionColumnUpdated: {}, ActionColumnMoved: {}, ActionColumnDeleted: {},
	ActionTaskCreated: {}, ActionTaskUpdated: {}, ActionTaskMoved: {}, ActionTaskDeleted: {},
	ActionTicketCreated: {},
	ActionLabelCreated:  {}, ActionLabelUpdated: {}, ActionLabelDeleted: {},
	ActionMemberRemoved: {}, ActionInviteCreated: {}, ActionInviteAccepted: {}, ActionInviteRevoked: {},
}

func (a AuditAction) Valid() bool {
	_, ok := knownActions[a]
	return ok
}

// EntityKind names what an audit entry is about.
type EntityKind string

const (
	EntityBoard       EntityKind = "board"
	EntityColumn      EntityKind = "column"
	EntityTask        EntityKind = "task"
	EntityTicket      EntityKind = "ticket"
	EntityLabel       EntityKind = "label"
	EntityBoardMember EntityKind = "boardMember"
	EntityBoardInvite EntityKind = "boardInvite"
)

func (k EntityKind) Valid() bool {
	switch k {
	case EntityBoard, EntityColumn, EntityTask, EntityTicket, EntityLabel, EntityBoardMember, EntityBoardInvite:
		return true
	}
	return false
}

// AuditEntry is an immutable record of one mutation.
type AuditEntry struct {
	ID       string         `json:"id" bson:"_id"`
	Actor    string         `json:"actor" bson:"actor"`
	Action   AuditAction    `json:"action" bson:"action"`
	Entity   EntityKind     `json:"entity" bson:"entity"`
	EntityID string         `json:"entityId" bson:"entityId"`
	BoardID  *string        `json:"boardId" bson:"boardId"`
	Details  map[string]any `json:"details" bson:"details"`
	Ts       time.Time      `json:"ts" bson:"ts"`
}

// AuditFilter selects audit entries; empty fields match everything.
type AuditFilter struct {
	Entity   EntityKind
	EntityID string
	BoardID  string
	Limit    int
}

// AppendAuditRequest is the payload of a client-initiated audit append.
type AppendAuditRequest struct {
	Action   AuditAction    `json:"action"`
	Entity   EntityKind     `json:"entity"`
	EntityID string         `json:"entityId"`
	BoardID  *string        `json:"boardId"`
	Details  map[string]any `json:"details"`
	Ts       string         `json:"ts"`
}
