package handlers

import (
	"errors"
	"net/http"
	"time"

	"taskboard-service/logging"
	"taskboard-service/middleware"
	"taskboard-service/models"
	"taskboard-service/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskHandler struct {
	TaskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{TaskService: taskService}
}

type createTaskRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	ProjectID   string     `json:"projectId" validate:"required"`
	AssignedTo  string     `json:"assignedTo" validate:"omitempty"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	projectID, err := primitive.ObjectIDFromHex(req.ProjectID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var assignedTo *primitive.ObjectID
	if req.AssignedTo != "" {
		oid, err := primitive.ObjectIDFromHex(req.AssignedTo)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid assignee ID")
			return
		}
		assignedTo = &oid
	}

	task, err := h.TaskService.CreateTask(r.Context(), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   projectID,
		AssignedTo:  assignedTo,
		Priority:    models.TaskPriority(req.Priority),
		DueDate:     req.DueDate,
	}, userID)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			writeError(w, http.StatusBadRequest, "Missing required fields")
			return
		}
		logging.Logger.Errorf("Event ID: TASK_CREATE_FAILED, Description: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create task")
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// GetTasksByProject accepts the project ID either as a path variable or as a
// projectId query parameter.
func (h *TaskHandler) GetTasksByProject(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	if projectID == "" {
		projectID = r.URL.Query().Get("projectId")
	}
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "Project ID is required")
		return
	}

	tasks, err := h.TaskService.ListTasksByProject(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			writeError(w, http.StatusBadRequest, "Invalid project ID")
			return
		}
		logging.Logger.Errorf("Event ID: TASK_LIST_FAILED, Description: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch tasks")
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetAssignedTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	tasks, err := h.TaskService.ListTasksAssignedTo(r.Context(), userID)
	if err != nil {
		logging.Logger.Errorf("Event ID: ASSIGNED_TASK_LIST_FAILED, Description: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch tasks")
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

type updateTaskStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskId"]

	var req updateTaskStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	task, err := h.TaskService.UpdateTaskStatus(r.Context(), taskID, models.TaskStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			writeError(w, http.StatusBadRequest, "Missing required fields")
		case errors.Is(err, services.ErrTaskNotFound):
			writeError(w, http.StatusNotFound, "Task not found")
		default:
			logging.Logger.Errorf("Event ID: TASK_STATUS_UPDATE_FAILED, Description: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to update task")
		}
		return
	}

	writeJSON(w, http.StatusOK, task)
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssignedTo  *string    `json:"assignedTo"`
	DueDate     *time.Time `json:"dueDate"`
}

// UpdateTask applies a partial update to a task's fields. Status changes go
// through UpdateTaskStatus; this endpoint never touches status.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskId"]

	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	in := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if req.Priority != nil {
		p := models.TaskPriority(*req.Priority)
		in.Priority = &p
	}
	if req.AssignedTo != nil {
		if *req.AssignedTo == "" {
			in.ClearAssignee = true
		} else {
			oid, err := primitive.ObjectIDFromHex(*req.AssignedTo)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid assignee ID")
				return
			}
			in.AssignedTo = &oid
		}
	}

	task, err := h.TaskService.UpdateTaskFields(r.Context(), taskID, in)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			writeError(w, http.StatusBadRequest, "No fields to update")
		case errors.Is(err, services.ErrTaskNotFound):
			writeError(w, http.StatusNotFound, "Task not found")
		default:
			logging.Logger.Errorf("Event ID: TASK_UPDATE_FAILED, Description: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to update task")
		}
		return
	}

	writeJSON(w, http.StatusOK, task)
}
