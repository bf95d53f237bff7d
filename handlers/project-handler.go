package handlers

import (
	"errors"
	"net/http"

	"taskboard-service/logging"
	"taskboard-service/middleware"
	"taskboard-service/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectHandler struct {
	ProjectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{ProjectService: projectService}
}

type createProjectRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Members     []string `json:"members"`
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	memberIDs := make([]primitive.ObjectID, 0, len(req.Members))
	for _, raw := range req.Members {
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid member ID")
			return
		}
		memberIDs = append(memberIDs, oid)
	}

	project, err := h.ProjectService.CreateProject(r.Context(), req.Name, req.Description, memberIDs, userID)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			writeError(w, http.StatusBadRequest, "Missing required fields")
			return
		}
		logging.Logger.Errorf("Event ID: PROJECT_CREATE_FAILED, Description: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create project")
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) ListMyProjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	projects, err := h.ProjectService.ListProjectsForUser(r.Context(), userID)
	if err != nil {
		logging.Logger.Errorf("Event ID: PROJECT_LIST_FAILED, Description: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch projects")
		return
	}

	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) GetProjectByID(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]

	project, err := h.ProjectService.GetProjectByID(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			writeError(w, http.StatusNotFound, "Project not found")
			return
		}
		logging.Logger.Errorf("Event ID: PROJECT_FETCH_FAILED, Description: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch project")
		return
	}

	writeJSON(w, http.StatusOK, project)
}
