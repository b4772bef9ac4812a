package handler

import (
	"net/http"

	"vehicle_parking/internal/api/middleware"
	"vehicle_parking/internal/service"

	"github.com/gin-gonic/gin"
)

type ParkingSpotHandler struct {
	parkingService     *service.ParkingService
	reservationService *service.ReservationService
}

func NewParkingSpotHandler(ps *service.ParkingService, rs *service.ReservationService) *ParkingSpotHandler {
	return &ParkingSpotHandler{parkingService: ps, reservationService: rs}
}

// GET /api/v1/parking-lots/:id/spots
func (h *ParkingSpotHandler) GetSpotsByLotID(c *gin.Context) {
	lotID, ok := intParam(c, "id")
	if !ok {
		return
	}
	spots, err := h.parkingService.GetSpotsByLotID(c.Request.Context(), lotID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, spots)
}

// GET /api/v1/admin/parking-spots/:spot_id
func (h *ParkingSpotHandler) GetSpotDetail(c *gin.Context) {
	spotID, ok := intParam(c, "spot_id")
	if !ok {
		return
	}
	detail, err := h.parkingService.SpotDetail(c.Request.Context(), middleware.CurrentActor(c), spotID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// DELETE /api/v1/admin/parking-spots/:spot_id
func (h *ParkingSpotHandler) DeleteParkingSpot(c *gin.Context) {
	spotID, ok := intParam(c, "spot_id")
	if !ok {
		return
	}
	if err := h.parkingService.DeleteParkingSpot(c.Request.Context(), middleware.CurrentActor(c), spotID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "parking spot deleted"})
}

// GET /api/v1/parking-spots/:spot_id/estimate
func (h *ParkingSpotHandler) EstimateCost(c *gin.Context) {
	spotID, ok := intParam(c, "spot_id")
	if !ok {
		return
	}
	cost, err := h.reservationService.EstimateCost(c.Request.Context(), middleware.CurrentActor(c), spotID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"spot_id": spotID, "est_parking_cost": cost})
}
