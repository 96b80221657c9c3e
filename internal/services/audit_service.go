package services

import (
	"context"
	"strings"
	"time"

	"taskboard-be/internal/ids"
	"taskboard-be/internal/metrics"
	"taskboard-be/internal/models"
	"taskboard-be/internal/utils"

	"github.com/sirupsen/logrus"
)

const auditAttempts = 2

// AuditService is the audit trail recorder. Mutations call record after their
// write committed; clients may append and query through the API.
type AuditService struct {
	store   AuditStore
	boards  BoardStore
	timeout time.Duration
	now     func() time.Time
}

func NewAuditService(store AuditStore, boards BoardStore, timeout time.Duration) *AuditService {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &AuditService{
		store:   store,
		boards:  boards,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// auditEvent is one entry a mutation wants recorded.
type auditEvent struct {
	Action   models.AuditAction
	Entity   models.EntityKind
	EntityID string
	BoardID  string
	Details  map[string]any
}

// record appends the events in order. Each write gets its own timeout and
// one retry, on a context detached from the request: the mutation already
// committed, so a client disconnect must not drop its trail.
func (s *AuditService) record(ctx context.Context, actor models.Actor, events ...auditEvent) error {
	base := context.WithoutCancel(ctx)
	for _, ev := range events {
		entry := s.entry(actor, ev)
		if err := s.insert(base, entry); err != nil {
			metrics.AuditWriteFailures.Inc()
			logrus.WithFields(logrus.Fields{
				"action":   entry.Action,
				"entity":   entry.Entity,
				"entityId": entry.EntityID,
				"actor":    entry.Actor,
			}).WithError(err).Error("audit write failed")
			return &Error{
				Kind:    KindAuditWrite,
				Code:    string(KindAuditWrite),
				Message: "Change was saved but its audit entry could not be written",
				Err:     err,
			}
		}
	}
	return nil
}

func (s *AuditService) entry(actor models.Actor, ev auditEvent) *models.AuditEntry {
	at := s.now()
	entry := &models.AuditEntry{
		ID:       ids.At(at),
		Actor:    actor.Email,
		Action:   ev.Action,
		Entity:   ev.Entity,
		EntityID: ev.EntityID,
		Details:  ev.Details,
		Ts:       at,
	}
	if ev.BoardID != "" {
		boardID := ev.BoardID
		entry.BoardID = &boardID
	}
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}
	return entry
}

func (s *AuditService) insert(base context.Context, entry *models.AuditEntry) error {
	var err error
	for attempt := 0; attempt < auditAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(base, s.timeout)
		err = s.store.InsertAudit(ctx, entry)
		cancel()
		if err == nil {
			return nil
		}
	}
	return err
}

// Append records a client supplied entry. Only known actions and entity
// kinds are accepted, and a board scoped entry needs access to that board.
func (s *AuditService) Append(ctx context.Context, actor models.Actor, req models.AppendAuditRequest) (*models.AuditEntry, error) {
	action := models.AuditAction(strings.TrimSpace(string(req.Action)))
	entity := models.EntityKind(strings.TrimSpace(string(req.Entity)))
	entityID := strings.TrimSpace(req.EntityID)

	if !action.Valid() {
		return nil, validationError("action", "Unknown audit action")
	}
	if !entity.Valid() {
		return nil, validationError("entity", "Unknown audit entity")
	}
	if entityID == "" {
		return nil, validationError("entityId", "entityId is required")
	}

	ts := s.now()
	if req.Ts != "" {
		parsed, err := time.Parse(time.RFC3339Nano, req.Ts)
		if err != nil {
			return nil, validationError("ts", "ts must be an ISO-8601 timestamp with timezone")
		}
		ts = parsed.UTC()
	}

	ev := auditEvent{Action: action, Entity: entity, EntityID: entityID, Details: req.Details}
	if req.BoardID != nil && strings.TrimSpace(*req.BoardID) != "" {
		boardID := strings.TrimSpace(*req.BoardID)
		if _, _, err := visibleBoard(ctx, s.boards, boardID, actor, CodeBoardNotFound); err != nil {
			return nil, err
		}
		ev.BoardID = boardID
	}

	entry := s.entry(actor, ev)
	entry.Ts = ts
	if err := s.store.InsertAudit(ctx, entry); err != nil {
		return nil, storeError(err, CodeBoardNotFound)
	}
	return entry, nil
}

// Query returns matching entries, most recent first. Filtering by board needs
// access to it; otherwise entries on boards the actor cannot see are dropped,
// except the actor's own.
func (s *AuditService) Query(ctx context.Context, actor models.Actor, f models.AuditFilter) ([]models.AuditEntry, error) {
	if f.Entity != "" && !f.Entity.Valid() {
		return nil, validationError("entity", "Unknown audit entity")
	}
	if f.BoardID != "" {
		if _, _, err := visibleBoard(ctx, s.boards, f.BoardID, actor, CodeBoardNotFound); err != nil {
			return nil, err
		}
	}

	entries, err := s.store.FindAudit(ctx, f)
	if err != nil {
		return nil, storeError(err, CodeBoardNotFound)
	}
	if f.BoardID != "" {
		return entries, nil
	}

	visible := make(map[string]bool)
	out := make([]models.AuditEntry, 0, len(entries))
	for _, e := range entries {
		if utils.FoldEmail(e.Actor) == actor.EmailLower {
			out = append(out, e)
			continue
		}
		if e.BoardID == nil {
			continue
		}
		ok, seen := visible[*e.BoardID]
		if !seen {
			board, err := s.boards.GetBoard(ctx, *e.BoardID)
			ok = err == nil && AccessFor(board, actor).CanRead()
			visible[*e.BoardID] = ok
		}
		if ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// Detail payload builders. Every action kind has one documented shape.

// changes reduces before/after snapshots to the fields that differ. It
// returns nil when nothing changed.
func changes(before, after map[string]any) map[string]any {
	b := map[string]any{}
	a := map[string]any{}
	for k, av := range after {
		bv := before[k]
		if !sameValue(bv, av) {
			b[k] = bv
			a[k] = av
		}
	}
	if len(a) == 0 {
		return nil
	}
	return map[string]any{"before": b, "after": a}
}

func sameValue(x, y any) bool {
	return normalizeValue(x) == normalizeValue(y)
}

// normalizeValue makes nil pointers and typed nils compare equal.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case *string:
		if t == nil {
			return nil
		}
		return *t
	case nil:
		return nil
	}
	return v
}

func moveDetails(from, to map[string]any) map[string]any {
	return map[string]any{"from": from, "to": to}
}

func location(columnID string, position int) map[string]any {
	return map[string]any{"columnId": columnID, "position": position}
}

func taskSnapshot(t *models.Task) map[string]any {
	return map[string]any{
		"boardId":     t.BoardID,
		"columnId":    t.ColumnID,
		"position":    t.Position,
		"title":       t.Title,
		"description": t.Description,
		"assigneeId":  normalizeValue(t.AssigneeID),
		"dueDate":     normalizeValue(t.DueDate),
	}
}

func taskContent(t *models.Task) map[string]any {
	return map[string]any{
		"title":       t.Title,
		"description": t.Description,
		"assigneeId":  normalizeValue(t.AssigneeID),
		"dueDate":     normalizeValue(t.DueDate),
	}
}

func columnSnapshot(c models.Column) map[string]any {
	return map[string]any{
		"title":    c.Title,
		"position": c.Position,
		"isDone":   c.IsDone,
	}
}

// Export returns matching entries without visibility filtering, for the
// operator CLI.
func (s *AuditService) Export(ctx context.Context, f models.AuditFilter) ([]models.AuditEntry, error) {
	if f.Entity != "" && !f.Entity.Valid() {
		return nil, validationError("entity", "Unknown audit entity")
	}
	entries, err := s.store.FindAudit(ctx, f)
	if err != nil {
		return nil, storeError(err, CodeBoardNotFound)
	}
	return entries, nil
}
