package handlers

import (
	"net/http"
	"strconv"

	"backoffice/internal/domain"
	"backoffice/internal/http/middleware"
	"backoffice/internal/services"

	"github.com/gin-gonic/gin"
)

// ManifestHandler exposes the trip manifest organizer to the surrounding
// screens (trip detail, print view, seat assignment, dispatch).
type ManifestHandler struct {
	Org *services.Organizer
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid "+name, err)
		return 0, false
	}
	return id, true
}

func viewParams(c *gin.Context) (domain.OrgMode, domain.CityGroupBy, bool) {
	mode, ok := domain.ParseOrgMode(c.Query("mode"))
	if !ok {
		RespondError(c, http.StatusBadRequest, "unknown mode", nil)
		return mode, domain.GroupByPickup, false
	}
	groupBy := domain.GroupByPickup
	if c.Query("cityGroupBy") == string(domain.GroupByDelivery) {
		groupBy = domain.GroupByDelivery
	}
	return mode, groupBy, true
}

// GET /api/trips/:id/manifest
func (h ManifestHandler) GetManifest(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	mode, groupBy, ok := viewParams(c)
	if !ok {
		return
	}

	var (
		tree []*domain.HierarchyNode
		err  error
	)
	if c.Query("cached") == "true" {
		// mode switch: rebuild from the last known-good snapshot
		tree, err = h.Org.CachedManifest(c.Request.Context(), tripID, mode, groupBy)
	} else {
		tree, err = h.Org.Manifest(c.Request.Context(), tripID, mode, groupBy)
	}
	if err != nil && tree == nil {
		RespondDomainError(c, err)
		return
	}

	resp := gin.H{
		"tripId":      tripID,
		"mode":        mode,
		"cityGroupBy": groupBy,
		"tree":        tree,
	}
	if err != nil {
		// stale snapshot served; tell the caller the refresh failed
		resp["stale"] = true
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/trips/:id/manifest/pdf
func (h ManifestHandler) GetManifestPDF(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	mode, groupBy, ok := viewParams(c)
	if !ok {
		return
	}

	tree, err := h.Org.Manifest(c.Request.Context(), tripID, mode, groupBy)
	if err != nil && tree == nil {
		RespondDomainError(c, err)
		return
	}

	svc := services.ManifestPDFService{RequestID: middleware.GetRequestID(c)}
	data, filename, err := svc.Generate(tripID, mode, tree)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to build manifest pdf", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

type reorderRequest struct {
	Mode       string  `json:"mode"`
	OrderedIDs []int64 `json:"orderedIds"`
}

// PUT /api/trips/:id/manifest/order
func (h ManifestHandler) Reorder(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req reorderRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	mode, ok := domain.ParseOrgMode(req.Mode)
	if !ok {
		RespondError(c, http.StatusBadRequest, "unknown mode", nil)
		return
	}

	if err := h.Org.Reorder(c.Request.Context(), tripID, req.OrderedIDs, mode, middleware.GetRequestID(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type moveRequest struct {
	BookingID   int64  `json:"bookingId"`
	TargetID    int64  `json:"targetId"` // 0 moves to the end
	Mode        string `json:"mode"`
	CityGroupBy string `json:"cityGroupBy"`
}

// POST /api/trips/:id/manifest/move
func (h ManifestHandler) Move(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req moveRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	mode, ok := domain.ParseOrgMode(req.Mode)
	if !ok {
		RespondError(c, http.StatusBadRequest, "unknown mode", nil)
		return
	}
	groupBy := domain.GroupByPickup
	if req.CityGroupBy == string(domain.GroupByDelivery) {
		groupBy = domain.GroupByDelivery
	}

	err := h.Org.MoveBefore(c.Request.Context(), tripID, req.BookingID, req.TargetID, mode, groupBy, middleware.GetRequestID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type syncOrderRequest struct {
	CityGroupBy string `json:"cityGroupBy"`
}

// POST /api/trips/:id/manifest/order/sync
func (h ManifestHandler) SyncOrder(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req syncOrderRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	groupBy := domain.GroupByPickup
	if req.CityGroupBy == string(domain.GroupByDelivery) {
		groupBy = domain.GroupByDelivery
	}

	if err := h.Org.SyncCityOrder(c.Request.Context(), tripID, groupBy, middleware.GetRequestID(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
