package handler

import (
	"net/http"

	"vehicle_parking/internal/api/middleware"
	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/service"

	"github.com/gin-gonic/gin"
)

type ParkingLotHandler struct {
	parkingService *service.ParkingService
}

func NewParkingLotHandler(ps *service.ParkingService) *ParkingLotHandler {
	return &ParkingLotHandler{parkingService: ps}
}

// POST /api/v1/admin/parking-lots
func (h *ParkingLotHandler) CreateParkingLot(c *gin.Context) {
	var dto domain.ParkingLotDTO
	if err := c.ShouldBind(&dto); err != nil {
		badRequest(c, err)
		return
	}
	in, err := service.ParseLotInput(dto, true)
	if err != nil {
		respondError(c, err)
		return
	}

	lot, err := h.parkingService.CreateParkingLot(c.Request.Context(), middleware.CurrentActor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lot)
}

// GET /api/v1/parking-lots/:id
func (h *ParkingLotHandler) GetParkingLotByID(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	lot, err := h.parkingService.GetParkingLotByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lot)
}

// GET /api/v1/parking-lots?search=
func (h *ParkingLotHandler) GetAllParkingLots(c *gin.Context) {
	lots, err := h.parkingService.SearchLots(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lots)
}

// PUT /api/v1/admin/parking-lots/:id
func (h *ParkingLotHandler) UpdateParkingLot(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var dto domain.ParkingLotDTO
	if err := c.ShouldBind(&dto); err != nil {
		badRequest(c, err)
		return
	}
	in, err := service.ParseLotInput(dto, false)
	if err != nil {
		respondError(c, err)
		return
	}

	lot, err := h.parkingService.UpdateParkingLot(c.Request.Context(), middleware.CurrentActor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lot)
}

// DELETE /api/v1/admin/parking-lots/:id
func (h *ParkingLotHandler) DeleteParkingLot(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.parkingService.DeleteParkingLot(c.Request.Context(), middleware.CurrentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "parking lot deleted"})
}

// GET /api/v1/admin/search?search_by=&search_term=
func (h *ParkingLotHandler) AdminSearch(c *gin.Context) {
	result, err := h.parkingService.AdminSearch(c.Request.Context(), middleware.CurrentActor(c),
		c.Query("search_by"), c.Query("search_term"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
