package services

import (
	"context"
	"errors"
	"strings"

	"taskboard-be/internal/ids"
	"taskboard-be/internal/models"
	"taskboard-be/internal/ordering"
	"taskboard-be/internal/utils"

	"github.com/sahilm/fuzzy"
	"go.opentelemetry.io/otel/attribute"
)

// TaskService covers tasks: content edits and placement within columns.
type TaskService struct {
	*mutator
	ticketAlias bool
}

// TaskInput creates a task.
type TaskInput struct {
	ColumnID    string
	Title       string
	Description *string
	AssigneeID  *string
	DueDate     *string
}

// TaskUpdate edits task content. Title is required; unset optional fields
// are left unchanged and a null value clears them.
type TaskUpdate struct {
	Title       *string
	Description models.OptionalString
	AssigneeID  models.OptionalString
	DueDate     models.OptionalString
}

// TaskMove relocates a task. An empty ColumnID keeps the current column; a
// nil Position appends.
type TaskMove struct {
	ColumnID string
	Position *int
}

// TaskQuery narrows a task listing.
type TaskQuery struct {
	ColumnID string
	// Q fuzzy matches titles; results are then ranked by match quality.
	Q string
}

func taskMembers(tasks []models.Task) []ordering.Member {
	out := make([]ordering.Member, len(tasks))
	for i, t := range tasks {
		out[i] = ordering.Member{ID: t.ID, Position: t.Position}
	}
	return out
}

// placementsFor turns the changed members of one column into writes.
func placementsFor(columnID string, before, after []ordering.Member) []models.Placement {
	changed := ordering.Changed(before, after)
	out := make([]models.Placement, 0, len(changed))
	for _, m := range changed {
		out = append(out, models.Placement{TaskID: m.ID, ColumnID: columnID, Position: m.Position})
	}
	return out
}

func optionalID(v *string) *string {
	if v == nil {
		return nil
	}
	id := strings.TrimSpace(*v)
	if id == "" {
		return nil
	}
	return &id
}

func dueDate(v *string) (*string, error) {
	d, err := utils.NormalizeDueDate(v)
	if err != nil {
		return nil, validationError("dueDate", "dueDate must be a calendar date in YYYY-MM-DD form")
	}
	return d, nil
}

type taskTitles []models.Task

func (t taskTitles) String(i int) string { return t[i].Title }
func (t taskTitles) Len() int            { return len(t) }

// ListTasks returns the board's tasks sorted by position.
func (s *TaskService) ListTasks(ctx context.Context, actor models.Actor, boardID string, q TaskQuery) ([]models.Task, error) {
	board, _, err := visibleBoard(ctx, s.stores.Boards, boardID, actor, CodeBoardNotFound)
	if err != nil {
		return nil, err
	}

	var tasks []models.Task
	if q.ColumnID != "" {
		if board.Column(q.ColumnID) == nil {
			return nil, validationError("columnId", "Invalid columnId")
		}
		tasks, err = s.stores.Tasks.ListColumnTasks(ctx, boardID, q.ColumnID)
	} else {
		tasks, err = s.stores.Tasks.ListBoardTasks(ctx, boardID)
	}
	if err != nil {
		return nil, storeError(err, CodeBoardNotFound)
	}

	pattern := strings.TrimSpace(q.Q)
	if pattern == "" {
		return tasks, nil
	}
	matches := fuzzy.FindFrom(pattern, taskTitles(tasks))
	out := make([]models.Task, 0, len(matches))
	for _, m := range matches {
		out = append(out, tasks[m.Index])
	}
	return out, nil
}

// GetTask returns a task the actor can see. notFoundCode lets the ticket
// route report TICKET_NOT_FOUND.
func (s *TaskService) GetTask(ctx context.Context, actor models.Actor, taskID, notFoundCode string) (*models.Task, error) {
	task, _, err := s.visibleTask(ctx, actor, taskID, notFoundCode)
	return task, err
}

func (s *TaskService) visibleTask(ctx context.Context, actor models.Actor, taskID, notFoundCode string) (*models.Task, *models.Board, error) {
	task, err := s.stores.Tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, nil, storeError(err, notFoundCode)
	}
	board, _, err := visibleBoard(ctx, s.stores.Boards, task.BoardID, actor, notFoundCode)
	if err != nil {
		return nil, nil, err
	}
	return task, board, nil
}

// CreateTask appends a task at the end of its column.
func (s *TaskService) CreateTask(ctx context.Context, actor models.Actor, boardID string, in TaskInput) (task *models.Task, err error) {
	ctx, finish := startOp(ctx, "createTask", attribute.String("taskboard.board_id", boardID))
	defer func() { finish(err) }()

	title, err := cleanName("title", in.Title, "Title is required")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ColumnID) == "" {
		return nil, validationError("columnId", "columnId is required")
	}
	due, err := dueDate(in.DueDate)
	if err != nil {
		return nil, err
	}
	description := ""
	if in.Description != nil {
		description = utils.CleanText(*in.Description)
	}

	board, _, err := visibleBoard(ctx, s.stores.Boards, boardID, actor, CodeBoardNotFound)
	if err != nil {
		return nil, err
	}
	if board.Column(in.ColumnID) == nil {
		return nil, validationError("columnId", "Invalid columnId")
	}

	err = s.withBoardLock(ctx, boardID, func(ctx context.Context) error {
		board, err := s.stores.Boards.GetBoard(ctx, boardID)
		if err != nil {
			return storeError(err, CodeBoardNotFound)
		}
		if board.Column(in.ColumnID) == nil {
			return validationError("columnId", "Invalid columnId")
		}
		siblings, err := s.stores.Tasks.ListColumnTasks(ctx, boardID, in.ColumnID)
		if err != nil {
			return storeError(err, CodeBoardNotFound)
		}

		now := s.now()
		task = &models.Task{
			ID:          newID(),
			BoardID:     boardID,
			ColumnID:    in.ColumnID,
			Title:       title,
			Description: description,
			AssigneeID:  optionalID(in.AssigneeID),
			DueDate:     due,
			CreatedAt:   now,
			UpdatedAt:   now,
			Seq:         ids.At(now),
		}
		before := taskMembers(siblings)
		after, pos, err := ordering.Insert(before, task.ID, nil)
		if err != nil {
			return AsError(err)
		}
		task.Position = pos

		// siblings only move when the column was not dense
		var repairs []models.Placement
		for _, p := range placementsFor(in.ColumnID, before, after) {
			if p.TaskID != task.ID {
				repairs = append(repairs, p)
			}
		}
		return s.apply(ctx, func(ctx context.Context) error {
			if err := s.stores.Tasks.CreateTask(ctx, task); err != nil {
				return err
			}
			return s.stores.Tasks.ApplyPlacements(ctx, boardID, repairs, now)
		})
	})
	if err != nil {
		return nil, err
	}

	details := map[string]any{
		"columnId": task.ColumnID,
		"position": task.Position,
		"title":    task.Title,
		"dueDate":  normalizeValue(task.DueDate),
	}
	events := []auditEvent{{
		Action:   models.ActionTaskCreated,
		Entity:   models.EntityTask,
		EntityID: task.ID,
		BoardID:  boardID,
		Details:  details,
	}}
	if s.ticketAlias {
		events = append(events, auditEvent{
			Action:   models.ActionTicketCreated,
			Entity:   models.EntityTicket,
			EntityID: task.ID,
			BoardID:  boardID,
			Details:  details,
		})
	}
	return task, s.audit.record(ctx, actor, events...)
}

// UpdateTask edits title, description, assignee and due date. An edit that
// changes nothing writes nothing.
func (s *TaskService) UpdateTask(ctx context.Context, actor models.Actor, taskID string, upd TaskUpdate) (task *models.Task, err error) {
	ctx, finish := startOp(ctx, "updateTask", attribute.String("taskboard.task_id", taskID))
	defer func() { finish(err) }()

	if upd.Title == nil {
		return nil, validationError("title", "Title is required")
	}
	title, err := cleanName("title", *upd.Title, "Title is required")
	if err != nil {
		return nil, err
	}
	var due *string
	if upd.DueDate.Set {
		if due, err = dueDate(upd.DueDate.Value); err != nil {
			return nil, err
		}
	}

	task, _, err = s.visibleTask(ctx, actor, taskID, CodeTaskNotFound)
	if err != nil {
		return nil, err
	}

	var details map[string]any
	err = s.withBoardLock(ctx, task.BoardID, func(ctx context.Context) error {
		current, err := s.stores.Tasks.GetTask(ctx, taskID)
		if err != nil {
			return storeError(err, CodeTaskNotFound)
		}
		task = current
		before := taskContent(task)

		task.Title = title
		if upd.Description.Set {
			task.Description = ""
			if upd.Description.Value != nil {
				task.Description = utils.CleanText(*upd.Description.Value)
			}
		}
		if upd.AssigneeID.Set {
			task.AssigneeID = optionalID(upd.AssigneeID.Value)
		}
		if upd.DueDate.Set {
			task.DueDate = due
		}

		details = changes(before, taskContent(task))
		if details == nil {
			return nil
		}
		task.UpdatedAt = s.now()
		return s.apply(ctx, func(ctx context.Context) error {
			return s.stores.Tasks.UpdateTaskContent(ctx, task)
		})
	})
	if err != nil || details == nil {
		return task, err
	}

	err = s.audit.record(ctx, actor, auditEvent{
		Action:   models.ActionTaskUpdated,
		Entity:   models.EntityTask,
		EntityID: task.ID,
		BoardID:  task.BoardID,
		Details:  details,
	})
	return task, err
}

// MoveTask relocates a task within its column or into another column of the
// same board. The vacated column closes its gap.
func (s *TaskService) MoveTask(ctx context.Context, actor models.Actor, taskID string, mv TaskMove) (task *models.Task, err error) {
	ctx, finish := startOp(ctx, "moveTask", attribute.String("taskboard.task_id", taskID))
	defer func() { finish(err) }()

	task, board, err := s.visibleTask(ctx, actor, taskID, CodeTaskNotFound)
	if err != nil {
		return nil, err
	}
	targetID := strings.TrimSpace(mv.ColumnID)
	if targetID != "" && board.Column(targetID) == nil {
		return nil, validationError("columnId", "Invalid target columnId")
	}

	var from, to map[string]any
	err = s.withBoardLock(ctx, task.BoardID, func(ctx context.Context) error {
		current, err := s.stores.Tasks.GetTask(ctx, taskID)
		if err != nil {
			return storeError(err, CodeTaskNotFound)
		}
		task = current
		board, err := s.stores.Boards.GetBoard(ctx, task.BoardID)
		if err != nil {
			return storeError(err, CodeTaskNotFound)
		}
		target := targetID
		if target == "" {
			target = task.ColumnID
		}
		if board.Column(target) == nil {
			return validationError("columnId", "Invalid target columnId")
		}

		sourceTasks, err := s.stores.Tasks.ListColumnTasks(ctx, task.BoardID, task.ColumnID)
		if err != nil {
			return storeError(err, CodeTaskNotFound)
		}
		source := ordering.Collection{Key: task.ColumnID, Members: taskMembers(sourceTasks)}
		dest := source
		if target != task.ColumnID {
			targetTasks, err := s.stores.Tasks.ListColumnTasks(ctx, task.BoardID, target)
			if err != nil {
				return storeError(err, CodeTaskNotFound)
			}
			dest = ordering.Collection{Key: target, Members: taskMembers(targetTasks)}
		}

		out, err := ordering.Move(source, dest, task.ID, mv.Position)
		if err != nil {
			if errors.Is(err, ordering.ErrNotFound) {
				return notFoundError(CodeTaskNotFound, notFoundMessage(CodeTaskNotFound))
			}
			return AsError(err)
		}

		placements := placementsFor(source.Key, source.Members, out.Source.Members)
		if !out.SameCollection() {
			placements = append(placements, placementsFor(dest.Key, dest.Members, out.Target.Members)...)
		}
		if len(placements) == 0 {
			return nil
		}

		from = location(task.ColumnID, task.Position)
		to = location(target, out.Position)
		now := s.now()
		task.ColumnID = target
		task.Position = out.Position
		task.UpdatedAt = now
		return s.apply(ctx, func(ctx context.Context) error {
			return s.stores.Tasks.ApplyPlacements(ctx, task.BoardID, placements, now)
		})
	})
	if err != nil || from == nil {
		return task, err
	}

	err = s.audit.record(ctx, actor, auditEvent{
		Action:   models.ActionTaskMoved,
		Entity:   models.EntityTask,
		EntityID: task.ID,
		BoardID:  task.BoardID,
		Details:  moveDetails(from, to),
	})
	return task, err
}

// DeleteTask removes a task and closes the gap in its column.
func (s *TaskService) DeleteTask(ctx context.Context, actor models.Actor, taskID string) (err error) {
	ctx, finish := startOp(ctx, "deleteTask", attribute.String("taskboard.task_id", taskID))
	defer func() { finish(err) }()

	task, _, err := s.visibleTask(ctx, actor, taskID, CodeTaskNotFound)
	if err != nil {
		return err
	}

	var snapshot map[string]any
	err = s.withBoardLock(ctx, task.BoardID, func(ctx context.Context) error {
		current, err := s.stores.Tasks.GetTask(ctx, taskID)
		if err != nil {
			return storeError(err, CodeTaskNotFound)
		}
		task = current
		siblings, err := s.stores.Tasks.ListColumnTasks(ctx, task.BoardID, task.ColumnID)
		if err != nil {
			return storeError(err, CodeTaskNotFound)
		}
		before := taskMembers(siblings)
		after, err := ordering.Delete(before, task.ID)
		if err != nil {
			return notFoundError(CodeTaskNotFound, notFoundMessage(CodeTaskNotFound))
		}
		snapshot = taskSnapshot(task)
		now := s.now()
		return s.apply(ctx, func(ctx context.Context) error {
			if err := s.stores.Tasks.DeleteTask(ctx, task.ID); err != nil {
				return err
			}
			return s.stores.Tasks.ApplyPlacements(ctx, task.BoardID, placementsFor(task.ColumnID, before, after), now)
		})
	})
	if err != nil {
		return err
	}

	return s.audit.record(ctx, actor, auditEvent{
		Action:   models.ActionTaskDeleted,
		Entity:   models.EntityTask,
		EntityID: task.ID,
		BoardID:  task.BoardID,
		Details:  snapshot,
	})
}
