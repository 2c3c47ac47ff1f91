package http

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/holmosapien/slattice/internal/core"
)

// APIHandlers serves read-only workspace snapshots.
type APIHandlers struct {
	registry *core.Registry
	log      *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(registry *core.Registry, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		registry: registry,
		log:      logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health reports liveness.
// GET /health
func (h *APIHandlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// ListTeams returns a snapshot of every connected workspace.
// GET /api/teams
func (h *APIHandlers) ListTeams(c *gin.Context) {
	snaps := h.registry.Snapshots()
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Name < snaps[j].Name })

	c.JSON(http.StatusOK, gin.H{"teams": snaps})
}

// GetTeam returns the snapshot of one workspace.
// GET /api/teams/:id
func (h *APIHandlers) GetTeam(c *gin.Context) {
	teamID := c.Param("id")

	snap, ok := h.registry.Snapshot(teamID)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "team not found"})
		return
	}

	c.JSON(http.StatusOK, snap)
}
