package handlers

import (
	"net/http"

	"backoffice/internal/domain"
	"backoffice/internal/http/middleware"
	"backoffice/internal/services"

	"github.com/gin-gonic/gin"
)

type selectionRequest struct {
	Selected []int64 `json:"selected"`
	Toggle   *int64  `json:"toggle,omitempty"` // when set, toggles this id
}

// POST /api/trips/:id/dispatch/selection
//
// Stateless selection helper: the frontend sends its current selection and
// gets back the expanded one (whole linked groups for passengers, parcels
// untouched). With "toggle" set the id is added or removed symmetrically.
func (h ManifestHandler) Selection(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req selectionRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	snapshot, err := h.Org.Snapshot(c.Request.Context(), tripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	var selected []int64
	if req.Toggle != nil {
		selected = services.ToggleSelection(snapshot, req.Selected, *req.Toggle)
	} else {
		selected = services.ExpandSelection(snapshot, req.Selected)
	}
	c.JSON(http.StatusOK, gin.H{"selected": selected})
}

type bulkAssignRequest struct {
	Selection []int64 `json:"selection"`
	DriverID  *int64  `json:"driverId"` // null clears the driver for the leg
	Leg       string  `json:"leg"`
}

// POST /api/trips/:id/dispatch/assign
func (h ManifestHandler) BulkAssign(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req bulkAssignRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	leg, ok := domain.ParseLeg(req.Leg)
	if !ok {
		RespondError(c, http.StatusBadRequest, "leg must be pickup or delivery", nil)
		return
	}

	result, err := h.Org.BulkAssign(c.Request.Context(), tripID, req.Selection, req.DriverID, leg, middleware.GetRequestID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	status := http.StatusOK
	if len(result.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}
