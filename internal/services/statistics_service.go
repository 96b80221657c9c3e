package services

import (
	"context"
	"time"

	"taskboard-be/internal/models"
)

const topActorsLimit = 10

// StatisticsService serves the board dashboard. It only reads.
type StatisticsService struct {
	stores Stores
	now    func() time.Time
}

// periodDays maps the accepted periods to their length in days.
var periodDays = map[string]int{"7d": 7, "30d": 30, "90d": 90}

// BoardStatistics aggregates task distribution and audit activity of one
// board over the period. An empty period means 30d.
func (s *StatisticsService) BoardStatistics(ctx context.Context, actor models.Actor, boardID, period string) (*models.StatisticsResponse, error) {
	if period == "" {
		period = "30d"
	}
	days, ok := periodDays[period]
	if !ok {
		return nil, validationError("period", "Period must be one of 7d, 30d, 90d")
	}

	board, _, err := visibleBoard(ctx, s.stores.Boards, boardID, actor, CodeBoardNotFound)
	if err != nil {
		return nil, err
	}
	since := s.now().AddDate(0, 0, -days)

	counts, err := s.stores.Stats.TasksByColumn(ctx, board.ID)
	if err != nil {
		return nil, storeError(err, CodeBoardNotFound)
	}
	trend, err := s.stores.Stats.ActivityTrend(ctx, board.ID, since)
	if err != nil {
		return nil, storeError(err, CodeBoardNotFound)
	}
	actors, err := s.stores.Stats.TopActors(ctx, board.ID, since, topActorsLimit)
	if err != nil {
		return nil, storeError(err, CodeBoardNotFound)
	}
	hourly, err := s.stores.Stats.HourlyActivity(ctx, board.ID, since)
	if err != nil {
		return nil, storeError(err, CodeBoardNotFound)
	}

	byColumn := make(map[string]int, len(counts))
	for _, c := range counts {
		byColumn[c.ColumnID] = c.Count
	}
	resp := &models.StatisticsResponse{
		BoardID:        board.ID,
		TasksByColumn:  make([]models.ColumnCount, 0, len(board.Columns)),
		ActivityTrend:  nonNil(trend),
		TopActors:      nonNil(actors),
		HourlyActivity: nonNil(hourly),
		Period:         period,
	}
	// Columns in board order, empty ones included. Counts for columns that
	// no longer exist are left out.
	for _, col := range sortedColumns(board.Columns) {
		n := byColumn[col.ID]
		resp.TasksByColumn = append(resp.TasksByColumn, models.ColumnCount{
			ColumnID: col.ID,
			Title:    col.Title,
			IsDone:   col.IsDone,
			Count:    n,
		})
		resp.TotalTasks += n
		if col.IsDone {
			resp.DoneTasks += n
		}
	}
	return resp, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
