package handlers

import (
	"net/http"
	"strconv"

	"backoffice/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

type linkRequest struct {
	TripID   int64 `json:"tripId"`
	AnchorID int64 `json:"anchorId"`
}

// POST /api/bookings/:id/link
func (h ManifestHandler) Link(c *gin.Context) {
	bookingID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req linkRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.TripID <= 0 || req.AnchorID <= 0 {
		RespondError(c, http.StatusBadRequest, "tripId and anchorId are required", nil)
		return
	}

	if err := h.Org.Link(c.Request.Context(), req.TripID, bookingID, req.AnchorID, middleware.GetRequestID(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type tripRequest struct {
	TripID int64 `json:"tripId"`
}

// POST /api/bookings/:id/unlink
func (h ManifestHandler) Unlink(c *gin.Context) {
	bookingID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req tripRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.TripID <= 0 {
		RespondError(c, http.StatusBadRequest, "tripId is required", nil)
		return
	}

	if err := h.Org.Unlink(c.Request.Context(), req.TripID, bookingID, middleware.GetRequestID(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type tagRequest struct {
	TripID int64   `json:"tripId"`
	Color  *string `json:"color"` // null clears the tag of the whole group
}

// PUT /api/bookings/:id/tag
func (h ManifestHandler) SetTag(c *gin.Context) {
	bookingID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req tagRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.TripID <= 0 {
		RespondError(c, http.StatusBadRequest, "tripId is required", nil)
		return
	}

	if err := h.Org.SetTag(c.Request.Context(), req.TripID, bookingID, req.Color, middleware.GetRequestID(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type bindSeatRequest struct {
	TripID    int64  `json:"tripId"`
	VehicleID int64  `json:"vehicleId"`
	Seat      string `json:"seat"`
}

// POST /api/bookings/:id/seat
func (h ManifestHandler) BindSeat(c *gin.Context) {
	bookingID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req bindSeatRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.TripID <= 0 {
		RespondError(c, http.StatusBadRequest, "tripId is required", nil)
		return
	}

	err := h.Org.BindSeat(c.Request.Context(), req.TripID, bookingID, req.VehicleID, req.Seat, middleware.GetRequestID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DELETE /api/bookings/:id/seat?tripId=
func (h ManifestHandler) UnbindSeat(c *gin.Context) {
	bookingID, ok := parseID(c, "id")
	if !ok {
		return
	}
	tripID, err := strconv.ParseInt(c.Query("tripId"), 10, 64)
	if err != nil || tripID <= 0 {
		RespondError(c, http.StatusBadRequest, "tripId is required", err)
		return
	}

	if err := h.Org.UnbindSeat(c.Request.Context(), tripID, bookingID, middleware.GetRequestID(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GET /api/vehicles/:id/seat-map?tripId=
func (h ManifestHandler) SeatMap(c *gin.Context) {
	vehicleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	tripID, err := strconv.ParseInt(c.Query("tripId"), 10, 64)
	if err != nil || tripID <= 0 {
		RespondError(c, http.StatusBadRequest, "tripId is required", err)
		return
	}

	seatMap, err := h.Org.SeatMap(c.Request.Context(), tripID, vehicleID, middleware.GetRequestID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, seatMap)
}
