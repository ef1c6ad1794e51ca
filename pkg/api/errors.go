package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/nurseresearch/pkg/planner"
	"github.com/codeready-toolchain/nurseresearch/pkg/project"
)

// writeError maps a service-layer error to an HTTP status and JSON body,
// following the teacher's mapServiceError convention.
func writeError(c *gin.Context, err error) {
	var valErr *project.ValidationError
	if errors.As(err, &valErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Error()})
		return
	}
	if errors.Is(err, project.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	if errors.Is(err, project.ErrAlreadyExists) {
		c.JSON(http.StatusConflict, gin.H{"error": "project already exists"})
		return
	}
	if errors.Is(err, planner.ErrCannotUnderstand) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not understand that request"})
		return
	}

	slog.Error("unexpected api error", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
