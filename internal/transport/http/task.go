package http

import (
	"strconv"
	"time"

	"taskmanager/internal/models"
	"taskmanager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type taskRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	DueTime     time.Time `json:"due_time"`
	Priority    int       `json:"priority"`
}

type completeRequest struct {
	Completed bool `json:"completed"`
}

type taskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueTime     time.Time `json:"due_time"`
	IsCompleted bool      `json:"is_completed"`
	Priority    int       `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toTaskResponse(t *models.Task) taskResponse {
	return taskResponse{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		DueTime:     t.DueTime,
		IsCompleted: t.IsCompleted,
		Priority:    int(t.Priority),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (s *Server) handleCreateTask(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		writeCode(c, CodeUnauthenticated, "Authentication required. Please log in.")
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeCode(c, CodeBadRequest, "Oops! Something seems off with your request. Please check and try again.")
		return
	}

	task, err := s.svc.CreateTask(c.Request.Context(), ident, service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueTime:     req.DueTime,
		Priority:    models.TaskPriority(req.Priority),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, toTaskResponse(task), "Task created.")
}

// handleListTasks возвращает страницу задач. Параметры запроса:
// filter_on, filter_query, sort_by, ascending, page, page_size.
func (s *Server) handleListTasks(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		writeCode(c, CodeUnauthenticated, "Authentication required. Please log in.")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	ascending, _ := strconv.ParseBool(c.DefaultQuery("ascending", "true"))

	tasks, err := s.svc.Tasks(c.Request.Context(), ident, models.TaskFilter{
		FilterOn:    c.Query("filter_on"),
		FilterQuery: c.Query("filter_query"),
		SortBy:      c.Query("sort_by"),
		Ascending:   ascending,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]taskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, toTaskResponse(&tasks[i]))
	}

	writeSuccess(c, out, "")
}

func (s *Server) handleGetTask(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		writeCode(c, CodeUnauthenticated, "Authentication required. Please log in.")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeCode(c, CodeBadRequest, "Invalid task id.")
		return
	}

	task, err := s.svc.TaskByID(c.Request.Context(), ident, id)
	if err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, toTaskResponse(task), "")
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		writeCode(c, CodeUnauthenticated, "Authentication required. Please log in.")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeCode(c, CodeBadRequest, "Invalid task id.")
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeCode(c, CodeBadRequest, "Oops! Something seems off with your request. Please check and try again.")
		return
	}

	task, err := s.svc.UpdateTask(c.Request.Context(), ident, id, service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueTime:     req.DueTime,
		Priority:    models.TaskPriority(req.Priority),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, toTaskResponse(task), "Task updated.")
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		writeCode(c, CodeUnauthenticated, "Authentication required. Please log in.")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeCode(c, CodeBadRequest, "Invalid task id.")
		return
	}

	if err := s.svc.DeleteTask(c.Request.Context(), ident, id); err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, nil, "Task deleted.")
}

func (s *Server) handleCompleteTask(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		writeCode(c, CodeUnauthenticated, "Authentication required. Please log in.")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeCode(c, CodeBadRequest, "Invalid task id.")
		return
	}

	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeCode(c, CodeBadRequest, "Oops! Something seems off with your request. Please check and try again.")
		return
	}

	if err := s.svc.SetTaskCompleted(c.Request.Context(), ident, id, req.Completed); err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, nil, "Task completion updated.")
}
