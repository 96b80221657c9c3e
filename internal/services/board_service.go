package services

import (
	"context"
	"slices"
	"sort"
	"strings"

	"taskboard-be/internal/models"
	"taskboard-be/internal/ordering"
	"taskboard-be/internal/utils"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// BoardService covers boards, their columns, labels and members.
type BoardService struct {
	*mutator
}

// ColumnUpdate is a partial column edit. Nil fields are left unchanged.
type ColumnUpdate struct {
	Title    *string
	Position *int
	IsDone   *bool
}

// RepairReport describes what a renormalize pass changed.
type RepairReport struct {
	BoardID        string   `json:"boardId"`
	ColumnsChanged int      `json:"columnsChanged"`
	TasksChanged   int      `json:"tasksChanged"`
	OrphanTaskIDs  []string `json:"orphanTaskIds"`
}

func columnMembers(columns []models.Column) []ordering.Member {
	out := make([]ordering.Member, len(columns))
	for i, c := range columns {
		out[i] = ordering.Member{ID: c.ID, Position: c.Position}
	}
	return out
}

// applyColumnOrder rebuilds the column list in the order of members.
func applyColumnOrder(columns []models.Column, members []ordering.Member) []models.Column {
	byID := make(map[string]models.Column, len(columns))
	for _, c := range columns {
		byID[c.ID] = c
	}
	out := make([]models.Column, 0, len(members))
	for _, m := range members {
		c := byID[m.ID]
		c.Position = m.Position
		out = append(out, c)
	}
	return out
}

func sortedColumns(columns []models.Column) []models.Column {
	out := slices.Clone(columns)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func cleanName(field, value, message string) (string, error) {
	name := utils.CleanLine(value)
	if name == "" {
		return "", validationError(field, message)
	}
	return name, nil
}

// ListBoards returns the boards the actor owns or belongs to, with stats.
func (s *BoardService) ListBoards(ctx context.Context, actor models.Actor) ([]models.BoardSummary, error) {
	boards, err := s.stores.Boards.ListBoardsForMember(ctx, actor.EmailLower)
	if err != nil {
		return nil, storeError(err, CodeBoardNotFound)
	}

	out := make([]models.BoardSummary, 0, len(boards))
	for _, b := range boards {
		stats, err := s.stores.Tasks.TaskStats(ctx, b.ID, b.DoneColumnIDs())
		if err != nil {
			return nil, storeError(err, CodeBoardNotFound)
		}
		last := stats.LastActivity
		if last == nil && !b.UpdatedAt.IsZero() {
			updated := b.UpdatedAt
			last = &updated
		}
		b.Columns = sortedColumns(b.Columns)
		out = append(out, models.BoardSummary{
			Board:          b,
			MembersCount:   len(b.Members),
			TasksCount:     stats.Total,
			DoneCount:      stats.Done,
			LastActivityAt: last,
		})
	}
	return out, nil
}

func (s *BoardService) GetBoard(ctx context.Context, actor models.Actor, boardID string) (*models.Board, error) {
	board, _, err := visibleBoard(ctx, s.stores.Boards, boardID, actor, CodeBoardNotFound)
	if err != nil {
		return nil, err
	}
	board.Columns = sortedColumns(board.Columns)
	return board, nil
}

func (s *BoardService) CreateBoard(ctx context.Context, actor models.Actor, name string) (board *models.Board, err error) {
	ctx, finish := startOp(ctx, "createBoard")
	defer func() { finish(err) }()

	name, err = cleanName("name", name, "Board name is required")
	if err != nil {
		return nil, err
	}

	now := s.now()
	board = &models.Board{
		ID:              newID(),
		Name:            name,
		Columns:         []models.Column{},
		Labels:          []models.Label{},
		OwnerEmail:      actor.Email,
		OwnerEmailLower: actor.EmailLower,
		Members:         []models.Member{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.stores.Boards.CreateBoard(ctx, board); err != nil {
		return nil, storeError(err, CodeBoardNotFound)
	}

	err = s.audit.record(ctx, actor, auditEvent{
		Action:   models.ActionBoardCreated,
		Entity:   models.EntityBoard,
		EntityID: board.ID,
		BoardID:  board.ID,
		Details:  map[string]any{"name": board.Name},
	})
	return board, err
}

// RenameBoard changes the board name. A nil name leaves the board unchanged.
func (s *BoardService) RenameBoard(ctx context.Context, actor models.Actor, boardID string, name *string) (board *models.Board, err error) {
	ctx, finish := startOp(ctx, "renameBoard", attribute.String("taskboard.board_id", boardID))
	defer func() { finish(err) }()

	board, access, err := visibleBoard(ctx, s.stores.Boards, boardID, actor, CodeBoardNotFound)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(access); err != nil {
		return nil, err
	}
	if name == nil {
		board.Columns = sortedColumns(board.Columns)
		return board, nil
	}
	newName, err := cleanName("name", *name, "Board name cannot be empty")
	if err != nil {
		return nil, err
	}

	var before string
	changed := false
	err = s.withBoardLock(ctx, boardID, func(ctx context.Context) error {
		current, err := s.stores.Boards.GetBoard(ctx, boardID)
		if err != nil {
			return storeError(err, CodeBoardNotFound)
		}
		board = current
		if board.Name == newName {
			return nil
		}
		before = board.Name
		board.Name = newName
		board.UpdatedAt = s.now()
		changed = true
		return s.apply(ctx, func(ctx context.Context) error {
			return s.stores.Boards.SaveBoard(ctx, board)
		})
	})
	if err != nil {
		return nil, err
	}
	board.Columns = sortedColumns(board.Columns)
	if !changed {
		return board, nil
	}

	err = s.audit.record(ctx, actor, auditEvent{
		Action:   models.ActionBoardUpdated,
		Entity:   models.EntityBoard,
		EntityID: board.ID,
		BoardID:  board.ID,
		Details:  changes(map[string]any{"name": before}, map[string]any{"name": board.Name}),
	})
	return board, err
}

// DeleteBoard removes the board with its tasks and invites.
func (s *BoardService) DeleteBoard(ctx context.Context, actor models.Actor, boardID string) (err error) {
	ctx, finish := startOp(ctx, "deleteBoard", attribute.String("taskboard.board_id", boardID))
	defer func() { finish(err) }()

	_, access, err := visibleBoard(ctx, s.stores.Boards, boardID, actor, CodeBoardNotFound)
	if err != nil {
		return err
	}
	if err := requireOwner(access); err != nil {
		return err
	}

	var snapshot map[string]any
	err = s.withBoardLock(ctx, boardID, func(ctx context.Context) error {
		board, err := s.stores.Boards.GetBoard(ctx, boardID)
		if err != nil {
			return storeError(err, CodeBoardNotFound)
		}
		return s.apply(ctx, func(ctx context.Context) error {
			tasks, err := s.stores.Tasks.DeleteBoardTasks(ctx, boardID)
			if err != nil {
				return err
			}
			invites, err := s.stores.Invites.DeleteBoardInvites(ctx, boardID)
			if err != nil {
				return err
			}
			if err := s.stores.Boards.DeleteBoard(ctx, boardID); err != nil {
				return err
			}
			snapshot = map[string]any{
				"name":           board.Name,
				"columns":        len(board.Columns),
				"deletedTasks":   tasks,
				"deletedInvites": invites,
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	return s.audit.record(ctx, actor, auditEvent{
		Action:   models.ActionBoardDeleted,
		Entity:   models.EntityBoard,
		EntityID: boardID,
		BoardID:  boardID,
		Details:  snapshot,
	})
}

// ListColumns returns the board's columns ordered by position.
func (s *BoardService) ListColumns(ctx context.Context, actor models.Actor, boardID string) ([]models.Column, error) {
	board, _, err := visibleBoard(ctx, s.stores.Boards, boardID, actor, CodeBoardNotFound)
	if err != nil {
		return nil, err
	}
	return sortedColumns(board.Columns), nil
}

// CreateColumn appends a column at the end of the board.
func (s *BoardService) CreateColumn(ctx context.Context, actor models.Actor, boardID, title string, isDone bool) (column *models.Column, err error) {
	ctx, finish := startOp(ctx, "createColumn", attribute.String("taskboard.board_id", boardID))
	defer func() { finish(err) }()

	title, err = cleanName("title", title, "Column title is required")
	if err != nil {
		return nil, err
	}
	_, access, err := visibleBoard(ctx, s.stores.Boards, boardID, actor, CodeBoardNotFound)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(access); err != nil {
		return nil, err
	}

	err = s.withBoardLock(ctx, boardID, func(ctx context.Context) error {
		board, err := s.stores.Boards.GetBoard(ctx, boardID)
		if err != nil {
			return storeError(err, CodeBoardNotFound)
		}
		id := newID()
		members, _, err := ordering.Insert(columnMembers(board.Columns), id, nil)
		if err != nil {
			return AsError(err)
		}
		board.Columns = append(board.Columns, models.Column{ID: id, Title: title, IsDone: isDone})
		board.Columns = applyColumnOrder(board.Columns, members)
		board.UpdatedAt = s.now()
		column = board.Column(id)
		return s.apply(ctx, func(ctx context.Context) error {
			return s.stores.Boards.SaveBoard(ctx, board)
		})
	})
	if err != nil {
		return nil, err
	}

	err = s.audit.record(ctx, actor, auditEvent{
		Action:   models.ActionColumnCreated,
		Entity:   models.EntityColumn,
		EntityID: column.ID,
		BoardID:  boardID,
		Details:  columnSnapshot(*column),
	})
	return column, err
}

// columnBoard resolves a column to its board through the columns.id index.
func (s *BoardService) columnBoard(ctx context.Context, actor models.Actor, columnID string) (*models.Board, Access, error) {
	board, err := s.stores.Boards.GetBoardByColumnID(ctx, columnID)
	if err != nil {
		return nil, Access{}, storeError(err, CodeColumnNotFound)
	}
	access := AccessFor(board, actor)
	if !access.CanRead() {
		return nil, Access{}, notFoundError(CodeColumnNotFound, notFoundMessage(CodeColumnNotFound))
	}
	return board, access, nil
}

// UpdateColumn renames, repositions or re-flags a column. Repositioning uses
// the same clamped move as MoveColumn.
func (s *BoardService) UpdateColumn(ctx context.Context, actor models.Actor, columnID string, upd ColumnUpdate) (column *models.Column, err error) {
	ctx, finish := startOp(ctx, "updateColumn", attribute.String("taskboard.column_id", columnID))
	defer func() { finish(err) }()

	var title string
	if upd.Title != nil {
		if title, err = cleanName("title", *upd.Title, "Column title cannot be empty"); err != nil {
			return nil, err
		}
	}
	board, access, err := s.columnBoard(ctx, actor, columnID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(access); err != nil {
		return nil, err
	}

	var details map[string]any
	err = s.withBoardLock(ctx, board.ID, func(ctx context.Context) error {
		current, err := s.stores.Boards.GetBoard(ctx, board.ID)
		if err != nil {
			return storeError(err, CodeColumnNotFound)
		}
		board = current
		col := board.Column(columnID)
		if col == nil {
			return notFoundError(CodeColumnNotFound, notFoundMessage(CodeColumnNotFound))
		}
		before := columnSnapshot(*col)

		if upd.Title != nil {
			col.Title = title
		}
		if upd.IsDone != nil {
			col.IsDone = *upd.IsDone
		}
		if upd.Position != nil {
			c := ordering.Collection{Key: board.ID, Members: columnMembers(board.Columns)}
			out, err := ordering.Move(c, c, columnID, upd.Position)
			if err != nil {
				return AsError(err)
			}
			board.Columns = applyColumnOrder(board.Columns, out.Target.Members)
			col = board.Column(columnID)
		}
		column = col

		details = changes(before, columnSnapshot(*col))
		if details == nil {
			return nil
		}
		board.UpdatedAt = s.now()
		return s.apply(ctx, func(ctx context.Context) error {
			return s.stores.Boards.SaveBoard(ctx, board)
		})
	})
	if err != nil || details == nil {
		return column, err
	}

	err = s.audit.record(ctx, actor, auditEvent{
		Action:   models.ActionColumnUpdated,
		Entity:   models.EntityColumn,
		EntityID: columnID,
		BoardID:  board.ID,
		Details:  details,
	})
	return column, err
}

// MoveColumn repositions a column and returns the board's column list.
func (s *BoardService) MoveColumn(ctx context.Context, actor models.Actor, columnID string, position int) (columns []models.Column, err error) {
	ctx, finish := startOp(ctx, "moveColumn", attribute.String("taskboard.column_id", columnID))
	defer func() { finish(err) }()

	board, access, err := s.columnBoard(ctx, actor, columnID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(access); err != nil {
		return nil, err
	}

	var from, to int
	moved := false
	err = s.withBoardLock(ctx, board.ID, func(ctx context.Context) error {
		current, err := s.stores.Boards.GetBoard(ctx, board.ID)
		if err != nil {
			return storeError(err, CodeColumnNotFound)
		}
		board = current
		col := board.Column(columnID)
		if col == nil {
			return notFoundError(CodeColumnNotFound, notFoundMessage(CodeColumnNotFound))
		}
		from = col.Position

		before := columnMembers(board.Columns)
		c := ordering.Collection{Key: board.ID, Members: before}
		out, err := ordering.Move(c, c, columnID, &position)
		if err != nil {
			return AsError(err)
		}
		to = out.Position
		if len(ordering.Changed(before, out.Target.Members)) == 0 {
			columns = sortedColumns(board.Columns)
			return nil
		}
		board.Columns = applyColumnOrder(board.Columns, out.Target.Members)
		board.UpdatedAt = s.now()
		columns = board.Columns
		moved = true
		return s.apply(ctx, func(ctx context.Context) error {
			return s.stores.Boards.SaveBoard(ctx, board)
		})
	})
	if err != nil || !moved {
		return columns, err
	}

	err = s.audit.record(ctx, actor, auditEvent{
		Action:   models.ActionColumnMoved,
		Entity:   models.EntityColumn,
		EntityID: columnID,
		BoardID:  board.ID,
		Details:  moveDetails(map[string]any{"position": from}, map[string]any{"position": to}),
	})
	return columns, err
}

// DeleteColumn removes a column with its tasks and closes the gap.
func (s *BoardService) DeleteColumn(ctx context.Context, actor models.Actor, columnID string) (err error) {
	ctx, finish := startOp(ctx, "deleteColumn", attribute.String("taskboard.column_id", columnID))
	defer func() { finish(err) }()

	board, access, err := s.columnBoard(ctx, actor, columnID)
	if err != nil {
		return err
	}
	if err := requireOwner(access); err != nil {
		return err
	}

	var snapshot map[string]any
	err = s.withBoardLock(ctx, board.ID, func(ctx context.Context) error {
		current, err := s.stores.Boards.GetBoard(ctx, board.ID)
		if err != nil {
			return storeError(err, CodeColumnNotFound)
		}
		board = current
		col := board.Column(columnID)
		if col == nil {
			return notFoundError(CodeColumnNotFound, notFoundMessage(CodeColumnNotFound))
		}
		snapshot = columnSnapshot(*col)

		members, err := ordering.Delete(columnMembers(board.Columns), columnID)
		if err != nil {
			return AsError(err)
		}
		board.Columns = applyColumnOrder(board.Columns, members)
		board.UpdatedAt = s.now()
		return s.apply(ctx, func(ctx context.Context) error {
			n, err := s.stores.Tasks.DeleteColumnTasks(ctx, board.ID, columnID)
			if err != nil {
				return err
			}
			snapshot["deletedTasks"] = n
			return s.stores.Boards.SaveBoard(ctx, board)
		})
	})
	if err != nil {
		return err
	}

	return s.audit.record(ctx, actor, auditEvent{
		Action:   models.ActionColumnDeleted,
		Entity:   models.EntityColumn,
		EntityID: columnID,
		BoardID:  board.ID,
		Details:  snapshot,
	})
}

func (s *BoardService) ListLabels(ctx context.Context, actor models.Actor, boardID string) ([]models.Label, error) {
	board, _, err := visibleBoard(ctx, s.stores.Boards, boardID, actor, CodeBoardNotFound)
	if err != nil {
		return nil, err
	}
	return board.Labels, nil
}

func (s *BoardService) CreateLabel(ctx context.Context, actor models.Actor, boardID, name string) (label *models.Label, err error) {
	ctx, finish := startOp(ctx, "createLabel", attribute.String("taskboard.board_id", boardID))
	defer func() { finish(err) }()

	name, err = cleanName("name", name, "Label name is required")
	if err != nil {
		return nil, err
	}
	_, access, err := visibleBoard(ctx, s.stores.Boards, boardID, actor, CodeBoardNotFound)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(access); err != nil {
		return nil, err
	}

	label = &models.Label{ID: newID(), Name: name}
	err = s.withBoardLock(ctx, boardID, func(ctx context.Context) error {
		board, err := s.stores.Boards.GetBoard(ctx, boardID)
		if err != nil {
			return storeError(err, CodeBoardNotFound)
		}
		board.Labels = append(board.Labels, *label)
		board.UpdatedAt = s.now()
		return s.apply(ctx, func(ctx context.Context) error {
			return s.stores.Boards.SaveBoard(ctx, board)
		})
	})
	if err != nil {
		return nil, err
	}

	err = s.audit.record(ctx, actor, auditEvent{
		Action:   models.ActionLabelCreated,
		Entity:   models.EntityLabel,
		EntityID: label.ID,
		BoardID:  boardID,
		Details:  map[string]any{"name": label.Name},
	})
	return label, err
}

func (s *BoardService) RenameLabel(ctx context.Context, actor models.Actor, boardID, labelID, name string) (label *models.Label, err error) {
	ctx, finish := startOp(ctx, "renameLabel", attribute.String("taskboard.board_id", boardID))
	defer func() { finish(err) }()

	name, err = cleanName("name", name, "Label name cannot be empty")
	if err != nil {
		return nil, err
	}
	_, access, err := visibleBoard(ctx, s.stores.Boards, boardID, actor, CodeBoardNotFound)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(access); err != nil {
		return nil, err
	}

	var before string
	err = s.withBoardLock(ctx, boardID, func(ctx context.Context) error {
		board, err := s.stores.Boards.GetBoard(ctx, boardID)
		if err != nil {
			return storeError(err, CodeBoardNotFound)
		}
		l := board.Label(labelID)
		if l == nil {
			return notFoundError(CodeLabelNotFound, notFoundMessage(CodeLabelNotFound))
		}
		before = l.Name
		l.Name = name
		label = &models.Label{ID: l.ID, Name: l.Name}
		if before == name {
			return nil
		}
		board.UpdatedAt = s.now()
		return s.apply(ctx, func(ctx context.Context) error {
			return s.stores.Boards.SaveBoard(ctx, board)
		})
	})
	if err != nil || before == name {
		return label, err
	}

	err = s.audit.record(ctx, actor, auditEvent{
		Action:   models.ActionLabelUpdated,
		Entity:   models.EntityLabel,
		EntityID: labelID,
		BoardID:  boardID,
		Details:  changes(map[string]any{"name": before}, map[string]any{"name": name}),
	})
	return label, err
}

func (s *BoardService) DeleteLabel(ctx context.Context, actor models.Actor, boardID, labelID string) (err error) {
	ctx, finish := startOp(ctx, "deleteLabel", attribute.String("taskboard.board_id", boardID))
	defer func() { finish(err) }()

	_, access, err := visibleBoard(ctx, s.stores.Boards, boardID, actor, CodeBoardNotFound)
	if err != nil {
		return err
	}
	if err := requireOwner(access); err != nil {
		return err
	}

	var removed models.Label
	err = s.withBoardLock(ctx, boardID, func(ctx context.Context) error {
		board, err := s.stores.Boards.GetBoard(ctx, boardID)
		if err != nil {
			return storeError(err, CodeBoardNotFound)
		}
		l := board.Label(labelID)
		if l == nil {
			return notFoundError(CodeLabelNotFound, notFoundMessage(CodeLabelNotFound))
		}
		removed = *l
		board.Labels = slices.DeleteFunc(board.Labels, func(x models.Label) bool { return x.ID == labelID })
		board.UpdatedAt = s.now()
		return s.apply(ctx, func(ctx context.Context) error {
			return s.stores.Boards.SaveBoard(ctx, board)
		})
	})
	if err != nil {
		return err
	}

	return s.audit.record(ctx, actor, auditEvent{
		Action:   models.ActionLabelDeleted,
		Entity:   models.EntityLabel,
		EntityID: labelID,
		BoardID:  boardID,
		Details:  map[string]any{"name": removed.Name},
	})
}

// ListMembers returns the owner and the members of a board.
func (s *BoardService) ListMembers(ctx context.Context, actor models.Actor, boardID string) (*models.MembersResponse, error) {
	board, _, err := visibleBoard(ctx, s.stores.Boards, boardID, actor, CodeBoardNotFound)
	if err != nil {
		return nil, err
	}

	owner := models.Owner{Email: board.OwnerEmail, EmailLower: board.OwnerEmailLower}
	if u, err := s.stores.Users.FindByEmail(ctx, board.OwnerEmailLower); err == nil {
		owner.Name = u.Name
		owner.Email = u.Email
	}
	return &models.MembersResponse{Owner: owner, Members: board.Members}, nil
}

// RemoveMember takes away an identity's access and revokes its pending
// invites to the board.
func (s *BoardService) RemoveMember(ctx context.Context, actor models.Actor, boardID, email string) (err error) {
	ctx, finish := startOp(ctx, "removeMember", attribute.String("taskboard.board_id", boardID))
	defer func() { finish(err) }()

	_, access, err := visibleBoard(ctx, s.stores.Boards, boardID, actor, CodeBoardNotFound)
	if err != nil {
		return err
	}
	if err := requireOwner(access); err != nil {
		return err
	}
	target := utils.FoldEmail(strings.TrimSpace(email))
	if target == "" {
		return validationError("email", "email is required")
	}

	var details map[string]any
	err = s.withBoardLock(ctx, boardID, func(ctx context.Context) error {
		board, err := s.stores.Boards.GetBoard(ctx, boardID)
		if err != nil {
			return storeError(err, CodeBoardNotFound)
		}
		if utils.FoldEmail(board.OwnerEmailLower) == target {
			return validationError("email", "Cannot remove owner")
		}
		if board.Member(target) == nil {
			return notFoundError(CodeMemberNotFound, notFoundMessage(CodeMemberNotFound))
		}
		beforeCount := len(board.Members)
		board.Members = slices.DeleteFunc(board.Members, func(m models.Member) bool { return m.EmailLower == target })
		now := s.now()
		board.UpdatedAt = now
		return s.apply(ctx, func(ctx context.Context) error {
			if err := s.stores.Boards.SaveBoard(ctx, board); err != nil {
				return err
			}
			revoked, err := s.stores.Invites.RevokePendingFor(ctx, boardID, target, now)
			if err != nil {
				return err
			}
			details = map[string]any{
				"emailLower":     target,
				"beforeCount":    beforeCount,
				"afterCount":     len(board.Members),
				"revokedInvites": revoked,
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	return s.audit.record(ctx, actor, auditEvent{
		Action:   models.ActionMemberRemoved,
		Entity:   models.EntityBoardMember,
		EntityID: boardID + ":" + target,
		BoardID:  boardID,
		Details:  details,
	})
}

// Renormalize is the owner-triggered repair of a board's ordering.
func (s *BoardService) Renormalize(ctx context.Context, actor models.Actor, boardID string) (*RepairReport, error) {
	_, access, err := visibleBoard(ctx, s.stores.Boards, boardID, actor, CodeBoardNotFound)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(access); err != nil {
		return nil, err
	}
	return s.Repair(ctx, actor, boardID)
}

// Repair rewrites column and task positions of a board to dense 1..N
// sequences, keeping their current relative order. It performs no access
// check; operators call it directly. Tasks whose column no longer exists are
// reported, not touched.
func (s *BoardService) Repair(ctx context.Context, actor models.Actor, boardID string) (report *RepairReport, err error) {
	ctx, finish := startOp(ctx, "renormalize", attribute.String("taskboard.board_id", boardID))
	defer func() { finish(err) }()

	report = &RepairReport{BoardID: boardID, OrphanTaskIDs: []string{}}
	columnChanges := []map[string]any{}
	taskChanges := []map[string]any{}
	err = s.withBoardLock(ctx, boardID, func(ctx context.Context) error {
		board, err := s.stores.Boards.GetBoard(ctx, boardID)
		if err != nil {
			return storeError(err, CodeBoardNotFound)
		}
		tasks, err := s.stores.Tasks.ListBoardTasks(ctx, boardID)
		if err != nil {
			return storeError(err, CodeBoardNotFound)
		}

		beforeCols := columnMembers(board.Columns)
		afterCols := ordering.Renormalize(beforeCols)
		for _, m := range ordering.Changed(beforeCols, afterCols) {
			columnChanges = append(columnChanges, map[string]any{
				"id": m.ID, "from": ordering.PositionOf(beforeCols, m.ID), "to": m.Position,
			})
		}

		byColumn := make(map[string][]ordering.Member)
		for _, t := range tasks {
			if board.Column(t.ColumnID) == nil {
				report.OrphanTaskIDs = append(report.OrphanTaskIDs, t.ID)
				continue
			}
			byColumn[t.ColumnID] = append(byColumn[t.ColumnID], ordering.Member{ID: t.ID, Position: t.Position})
		}
		var placements []models.Placement
		for _, col := range sortedColumns(board.Columns) {
			before := byColumn[col.ID]
			for _, m := range ordering.Changed(before, ordering.Renormalize(before)) {
				placements = append(placements, models.Placement{TaskID: m.ID, ColumnID: col.ID, Position: m.Position})
				taskChanges = append(taskChanges, map[string]any{
					"id": m.ID, "columnId": col.ID, "from": ordering.PositionOf(before, m.ID), "to": m.Position,
				})
			}
		}

		report.ColumnsChanged = len(columnChanges)
		report.TasksChanged = len(placements)
		if len(columnChanges) == 0 && len(placements) == 0 {
			return nil
		}

		now := s.now()
		board.Columns = applyColumnOrder(board.Columns, afterCols)
		board.UpdatedAt = now
		return s.apply(ctx, func(ctx context.Context) error {
			if err := s.stores.Boards.SaveBoard(ctx, board); err != nil {
				return err
			}
			return s.stores.Tasks.ApplyPlacements(ctx, boardID, placements, now)
		})
	})
	if err != nil {
		return nil, err
	}
	if len(report.OrphanTaskIDs) > 0 {
		logrus.WithFields(logrus.Fields{
			"boardId": boardID,
			"tasks":   report.OrphanTaskIDs,
		}).Warn("tasks reference missing columns")
	}
	if report.ColumnsChanged == 0 && report.TasksChanged == 0 {
		return report, nil
	}

	err = s.audit.record(ctx, actor, auditEvent{
		Action:   models.ActionBoardRenormalized,
		Entity:   models.EntityBoard,
		EntityID: boardID,
		BoardID:  boardID,
		Details:  map[string]any{"columns": columnChanges, "tasks": taskChanges},
	})
	return report, err
}
