package models

import "time"

// Task (a "ticket" in older clients) belongs to exactly one column at a time.
type Task struct {
	ID          string    `json:"id" bson:"_id"`
	BoardID     string    `json:"boardId" bson:"boardId"`
	ColumnID    string    `json:"columnId" bson:"columnId"`
	Position    int       `json:"position" bson:"position"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	AssigneeID  *string   `json:"assigneeId" bson:"assigneeId"`
	DueDate     *string   `json:"dueDate" bson:"dueDate"` // YYYY-MM-DD, no time component
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
	// Seq is a ULID taken at creation; it orders tasks that share a position.
	Seq string `json:"-" bson:"seq"`
}

// Placement is a task's slot: the unit written by a position change.
type Placement struct {
	TaskID   string `json:"taskId" bson:"taskId"`
	ColumnID string `json:"columnId" bson:"columnId"`
	Position int    `json:"position" bson:"position"`
}

// TaskStats aggregates the tasks of one board.
type TaskStats struct {
	Total        int
	Done         int
	LastActivity *time.Time
}

// CreateTaskRequest is the request payload for creating a task
type CreateTaskRequest struct {
	Title       string         `json:"title"`
	ColumnID    string         `json:"columnId"`
	Description *string        `json:"description"`
	AssigneeID  *string        `json:"assigneeId"`
	DueDate     OptionalString `json:"dueDate"`
}

// UpdateTaskRequest is the request payload for editing task content. Title is
// always required; absent optional fields are left unchanged, null or empty
// clears them.
type UpdateTaskRequest struct {
	Title       *string        `json:"title"`
	Description OptionalString `json:"description"`
	AssigneeID  OptionalString `json:"assigneeId"`
	DueDate     OptionalString `json:"dueDate"`
}

// MoveTaskRequest moves a task; columnId defaults to the current column and a
// missing position appends at the end.
type MoveTaskRequest struct {
	ColumnID string   `json:"columnId"`
	Position *float64 `json:"position"`
}
