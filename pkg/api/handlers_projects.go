package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// createProjectHandler handles POST /api/v1/projects (create_project, §6).
func (s *Server) createProjectHandler(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := s.projects.Create(req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProjectResponse(*p))
}

// systemProjectName is the bookkeeping project cmd/ creates at startup to
// back the Timeline Agent's store reference; it holds no user data and is
// hidden from the admin listing.
const systemProjectName = "_system"

// listProjectsHandler handles GET /api/v1/projects (list_projects, §6).
func (s *Server) listProjectsHandler(c *gin.Context) {
	list := s.projects.List()
	resp := ListProjectsResponse{Projects: make([]ProjectResponse, 0, len(list))}
	for _, p := range list {
		if p.Name == systemProjectName {
			continue
		}
		resp.Projects = append(resp.Projects, toProjectResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}

// activateProjectHandler handles POST /api/v1/projects/:project/activate (activate_project, §6).
func (s *Server) activateProjectHandler(c *gin.Context) {
	p, err := s.projects.Activate(c.Param("project"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(*p))
}

// archiveProjectHandler handles POST /api/v1/projects/:project/archive (archive_project, §6).
func (s *Server) archiveProjectHandler(c *gin.Context) {
	p, err := s.projects.Archive(c.Param("project"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(*p))
}

func toProjectResponse(p models.Project) ProjectResponse {
	return ProjectResponse{Name: p.Name, Status: string(p.Status), CreatedAt: p.CreatedAt}
}
