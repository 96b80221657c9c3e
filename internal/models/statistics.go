package models

// ColumnCount - number of tasks in one column
type ColumnCount struct {
	ColumnID string `json:"columnId" bson:"_id"`
	Title    string `json:"title" bson:"-"`
	IsDone   bool   `json:"isDone" bson:"-"`
	Count    int    `json:"count" bson:"count"`
}

// ActivityPoint - audit entries recorded on a specific date
type ActivityPoint struct {
	Date  string `json:"date" bson:"_id"` // YYYY-MM-DD format, UTC
	Count int    `json:"count" bson:"count"`
}

// ActorCount - who changed the board most
type ActorCount struct {
	Actor string `json:"actor" bson:"_id"`
	Count int    `json:"count" bson:"count"`
}

// HourlyActivity - board activity by day of week and hour
type HourlyActivity struct {
	DayOfWeek int `json:"dayOfWeek" bson:"dayOfWeek"` // 0=Sunday, 6=Saturday
	Hour      int `json:"hour" bson:"hour"`           // 0-23, UTC
	Count     int `json:"count" bson:"count"`
}

// StatisticsResponse - board dashboard statistics
type StatisticsResponse struct {
	BoardID        string           `json:"boardId"`
	TasksByColumn  []ColumnCount    `json:"tasksByColumn"`
	ActivityTrend  []ActivityPoint  `json:"activityTrend"`
	TopActors      []ActorCount     `json:"topActors"`
	HourlyActivity []HourlyActivity `json:"hourlyActivity"`
	TotalTasks     int              `json:"totalTasks"`
	DoneTasks      int              `json:"doneTasks"`
	Period         string           `json:"period"` // "7d", "30d", "90d"
}
