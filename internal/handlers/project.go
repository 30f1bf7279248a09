package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/repos"
	"github.com/recapio/recapio-backend/internal/services"
	"github.com/recapio/recapio-backend/internal/types"
)

type ProjectHandler struct {
	log      *logger.Logger
	pipeline services.VideoPipeline
	projects repos.ProjectRepo
}

func NewProjectHandler(log *logger.Logger, pipeline services.VideoPipeline, projects repos.ProjectRepo) *ProjectHandler {
	return &ProjectHandler{
		log:      log.With("handler", "ProjectHandler"),
		pipeline: pipeline,
		projects: projects,
	}
}

type CreateProjectRequest struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// POST /api/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.UserID == "" || req.Name == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("user_id and name are required"))
		return
	}

	project, err := h.projects.Create(c.Request.Context(), nil, &types.Project{
		UserID:      req.UserID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"project": project})
}

// GET /api/projects/user/:user_id
func (h *ProjectHandler) GetUserProjects(c *gin.Context) {
	userID := c.Param("user_id")
	projects, err := h.projects.GetByUser(c.Request.Context(), nil, userID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"user_id":  userID,
		"projects": projects,
	})
}

// GET /api/projects/:project_id/videos
func (h *ProjectHandler) GetProjectVideos(c *gin.Context) {
	projectID := c.Param("project_id")
	videoIDs, err := h.projects.VideoIDsForProject(c.Request.Context(), nil, projectID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"project_id": projectID,
		"video_ids":  videoIDs,
	})
}

// DELETE /api/projects/:project_id
// Each linked video goes through the video delete path, so videos shared
// with other projects survive as unlinks.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	projectID := c.Param("project_id")
	ctx := c.Request.Context()

	project, err := h.projects.GetByID(ctx, nil, projectID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if project == nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("project not found"))
		return
	}

	videoIDs, err := h.projects.VideoIDsForProject(ctx, nil, projectID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}

	deleted := 0
	unlinked := 0
	for _, videoID := range videoIDs {
		completely, err := h.pipeline.Delete(ctx, videoID, projectID)
		if err != nil {
			RespondAPIError(c, err)
			return
		}
		if completely {
			deleted++
		} else {
			unlinked++
		}
	}

	if err := h.projects.Delete(ctx, nil, projectID); err != nil {
		RespondAPIError(c, err)
		return
	}

	h.log.Info("project deleted", "project_id", projectID, "videos_deleted", deleted, "videos_unlinked", unlinked)
	RespondOK(c, gin.H{
		"project_id":      projectID,
		"videos_deleted":  deleted,
		"videos_unlinked": unlinked,
	})
}
