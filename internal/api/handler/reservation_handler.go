package handler

import (
	"net/http"

	"vehicle_parking/internal/api/middleware"
	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/service"

	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	reservationService *service.ReservationService
}

func NewReservationHandler(rs *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: rs}
}

// GET /api/v1/user/dashboard?search=
func (h *ReservationHandler) Dashboard(c *gin.Context) {
	dash, err := h.reservationService.UserDashboard(c.Request.Context(), middleware.CurrentActor(c), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

// GET /api/v1/user/parking-lots/:id/book
func (h *ReservationHandler) PreviewBooking(c *gin.Context) {
	lotID, ok := intParam(c, "id")
	if !ok {
		return
	}
	preview, err := h.reservationService.PreviewBooking(c.Request.Context(), middleware.CurrentActor(c), lotID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// POST /api/v1/user/parking-lots/:id/book
func (h *ReservationHandler) Book(c *gin.Context) {
	lotID, ok := intParam(c, "id")
	if !ok {
		return
	}
	var dto domain.BookingDTO
	if err := c.ShouldBind(&dto); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.reservationService.Book(c.Request.Context(), middleware.CurrentActor(c), lotID, dto.VehicleNo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reservation": res, "message": "parking spot booked"})
}

// POST /api/v1/user/reservations/:id/release
func (h *ReservationHandler) Release(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	result, err := h.reservationService.Release(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "message": "parking spot released"})
}

// GET /api/v1/reservations/:id
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	res, err := h.reservationService.GetReservation(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
