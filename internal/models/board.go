package models

import "time"

// Board is the top-level container. Columns, labels and members are embedded;
// tasks live in their own collection and reference the board by id.
type Board struct {
	ID              string    `json:"id" bson:"_id"`
	Name            string    `json:"name" bson:"name"`
	Columns         []Column  `json:"columns" bson:"columns"`
	Labels          []Label   `json:"labels" bson:"labels"`
	OwnerEmail      string    `json:"ownerEmail" bson:"ownerEmail"`
	OwnerEmailLower string    `json:"ownerEmailLower" bson:"ownerEmailLower"`
	Members         []Member  `json:"members" bson:"members"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Column is an ordered bucket of tasks inside a board.
type Column struct {
	ID       string `json:"id" bson:"id"`
	Title    string `json:"title" bson:"title"`
	Position int    `json:"position" bson:"position"`
	IsDone   bool   `json:"isDone" bson:"isDone"`
}

type Label struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// Member is an identity with task-level access, granted by an accepted invite.
type Member struct {
	Email      string    `json:"email" bson:"email"`
	EmailLower string    `json:"emailLower" bson:"emailLower"`
	Role       string    `json:"role" bson:"role"`
	JoinedAt   time.Time `json:"joinedAt" bson:"joinedAt"`
}

const RoleMember = "member"

// Column returns the column with the given id, or nil.
func (b *Board) Column(id string) *Column {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return &b.Columns[i]
		}
	}
	return nil
}

// Label returns the label with the given id, or nil.
func (b *Board) Label(id string) *Label {
	for i := range b.Labels {
		if b.Labels[i].ID == id {
			return &b.Labels[i]
		}
	}
	return nil
}

// Member returns the member entry for a folded email, or nil.
func (b *Board) Member(emailLower string) *Member {
	for i := range b.Members {
		if b.Members[i].EmailLower == emailLower {
			return &b.Members[i]
		}
	}
	return nil
}

// DoneColumnIDs lists the ids of columns marked as terminal.
func (b *Board) DoneColumnIDs() []string {
	var ids []string
	for _, c := range b.Columns {
		if c.IsDone {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// BoardSummary is a board as shown in the board list, with activity stats.
type BoardSummary struct {
	Board
	MembersCount   int        `json:"membersCount"`
	TasksCount     int        `json:"tasksCount"`
	DoneCount      int        `json:"doneCount"`
	LastActivityAt *time.Time `json:"lastActivityAt"`
}

// CreateBoardRequest is the request payload for creating a board
type CreateBoardRequest struct {
	Name string `json:"name"`
}

// UpdateBoardRequest is the request payload for renaming a board
type UpdateBoardRequest struct {
	Name *string `json:"name"`
}

// CreateColumnRequest is the request payload for creating a new column
type CreateColumnRequest struct {
	BoardID string `json:"boardId" binding:"required"`
	Title   string `json:"title"`
	IsDone  *bool  `json:"isDone"`
}

// UpdateColumnRequest is the request payload for updating a column
type UpdateColumnRequest struct {
	Title    *string  `json:"title"`
	Position *float64 `json:"position"`
	IsDone   *bool    `json:"isDone"`
}

// MoveColumnRequest is the request payload for repositioning a column
type MoveColumnRequest struct {
	Position *float64 `json:"position" binding:"required"`
}

type LabelRequest struct {
	Name string `json:"name"`
}

// MembersResponse lists who can see a board.
type MembersResponse struct {
	Owner   Owner    `json:"owner"`
	Members []Member `json:"members"`
}

type Owner struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	EmailLower string `json:"emailLower"`
}

// Normalize replaces nil lists so a board always renders with empty arrays.
func (b *Board) Normalize() {
	if b.Columns == nil {
		b.Columns = []Column{}
	}
	if b.Labels == nil {
		b.Labels = []Label{}
	}
	if b.Members == nil {
		b.Members = []Member{}
	}
}
