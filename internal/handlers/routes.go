package handlers

import (
	"taskboard-be/internal/services"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts every authenticated endpoint on the group. The
// caller installs the auth middleware on it.
func RegisterRoutes(protected *gin.RouterGroup, svc *services.Services) {
	boardHandler := NewBoardHandler(svc.Boards)
	columnHandler := NewColumnHandler(svc.Boards)
	taskHandler := NewTaskHandler(svc.Tasks)
	inviteHandler := NewInviteHandler(svc.Invites)
	auditHandler := NewAuditHandler(svc.Audit)
	statisticsHandler := NewStatisticsHandler(svc.Stats)
	authHandler := NewAuthHandler()

	protected.GET("/auth/me", authHandler.GetMe)

	// Boards
	protected.GET("/boards", boardHandler.ListBoards)
	protected.POST("/boards", boardHandler.CreateBoard)
	protected.GET("/boards/:id", boardHandler.GetBoard)
	protected.PATCH("/boards/:id", boardHandler.UpdateBoard)
	protected.DELETE("/boards/:id", boardHandler.DeleteBoard)
	protected.POST("/boards/:id/renormalize", boardHandler.Renormalize)
	protected.GET("/boards/:id/statistics", statisticsHandler.GetBoardStatistics)

	// Columns
	protected.GET("/boards/:id/columns", columnHandler.ListColumns)
	protected.POST("/columns", columnHandler.CreateColumn)
	protected.PATCH("/columns/:id", columnHandler.UpdateColumn)
	protected.PATCH("/columns/:id/move", columnHandler.MoveColumn)
	protected.DELETE("/columns/:id", columnHandler.DeleteColumn)

	// Tasks
	protected.GET("/boards/:id/tasks", taskHandler.ListTasks)
	protected.POST("/boards/:id/tasks", taskHandler.CreateTask)
	protected.GET("/tasks/:id", taskHandler.GetTask)
	protected.GET("/tickets/:id", taskHandler.GetTicket)
	protected.PATCH("/tasks/:id", taskHandler.UpdateTask)
	protected.PATCH("/tasks/:id/move", taskHandler.MoveTask)
	protected.DELETE("/tasks/:id", taskHandler.DeleteTask)

	// Labels
	protected.GET("/boards/:id/labels", boardHandler.ListLabels)
	protected.POST("/boards/:id/labels", boardHandler.CreateLabel)
	protected.PATCH("/boards/:id/labels/:labelId", boardHandler.RenameLabel)
	protected.DELETE("/boards/:id/labels/:labelId", boardHandler.DeleteLabel)

	// Members and invites
	protected.GET("/boards/:id/members", boardHandler.ListMembers)
	protected.DELETE("/boards/:id/members/:email", boardHandler.RemoveMember)
	protected.POST("/boards/:id/invites", inviteHandler.CreateInvite)
	protected.GET("/invites", inviteHandler.ListInvites)
	protected.POST("/invites/:inviteId/accept", inviteHandler.AcceptInvite)
	protected.POST("/invites/:inviteId/revoke", inviteHandler.RevokeInvite)

	// Audit
	protected.POST("/audit", auditHandler.AppendAudit)
	protected.GET("/audit", auditHandler.QueryAudit)
}
