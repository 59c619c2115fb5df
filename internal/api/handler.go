package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mfreitas/salesdash/internal/domain/dto"
	"github.com/mfreitas/salesdash/internal/service"
	"github.com/mfreitas/salesdash/internal/storage"
)

// Handler provides HTTP handlers for the sales and analytics endpoints.
//
// Responsibilities:
//   - Validate incoming path/query parameters and JSON bodies
//   - Call into the service layer
//   - Translate domain errors into appropriate HTTP status codes
//   - Return structured JSON responses
type Handler struct {
	svc service.SalesService
}

// NewHandler constructs a new Handler instance.
func NewHandler(svc service.SalesService) *Handler {
	return &Handler{svc: svc}
}

// parseID reads the :id path parameter. Non-numeric ids are rejected with
// 400 before the service is involved.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid sale id", err))
		return 0, false
	}
	return id, true
}

// respondError maps domain errors onto status codes. Validation failures
// and not-found are the caller's problem; everything else is ours.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid request", err))
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse("sale not found", nil))
	default:
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("internal error", err))
	}
}

// ListSales godoc
// @Summary      List sales
// @Description  Returns all recorded sales, newest first
// @Tags         sales
// @Produce      json
// @Success      200  {array}   models.Sale
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/v1/sales [get]
func (h *Handler) ListSales(c *gin.Context) {
	sales, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

// GetSale godoc
// @Summary      Get one sale
// @Description  Returns a single sale by id
// @Tags         sales
// @Produce      json
// @Param        id   path      int  true  "Sale id"
// @Success      200  {object}  models.Sale
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/sales/{id} [get]
func (h *Handler) GetSale(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	sale, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// CreateSale godoc
// @Summary      Create a sale
// @Description  Records a sale. At least two of unit_price, quantity and total_price are required; the third is derived.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        sale  body      dto.SaleRequest  true  "Sale to create"
// @Success      201   {object}  models.Sale
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/v1/sales [post]
func (h *Handler) CreateSale(c *gin.Context) {
	var req dto.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid request body", err))
		return
	}

	sale, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// UpdateSale godoc
// @Summary      Update a sale
// @Description  Applies a partial patch; omitted pricing fields fall back to stored values before re-resolution.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id    path      int              true  "Sale id"
// @Param        sale  body      dto.SaleRequest  true  "Fields to change"
// @Success      200   {object}  models.Sale
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/v1/sales/{id} [put]
func (h *Handler) UpdateSale(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid request body", err))
		return
	}

	sale, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// DeleteSale godoc
// @Summary      Delete a sale
// @Tags         sales
// @Produce      json
// @Param        id   path  int  true  "Sale id"
// @Success      204  "No Content"
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/sales/{id} [delete]
func (h *Handler) DeleteSale(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetAnalytics godoc
// @Summary      Revenue analytics
// @Description  Returns KPIs, revenue by day and month, and the per-product rollup for the selected window
// @Tags         analytics
// @Produce      json
// @Param        range  query     string  false  "Date range"  Enums(7d, 30d, 90d, 1y, all)  default(30d)
// @Success      200    {object}  dto.AnalyticsResponse
// @Failure      400    {object}  dto.ErrorResponse
// @Failure      500    {object}  dto.ErrorResponse
// @Router       /api/v1/analytics [get]
func (h *Handler) GetAnalytics(c *gin.Context) {
	dateRange := c.DefaultQuery("range", service.DefaultRange)

	analytics, err := h.svc.Analytics(c.Request.Context(), dateRange)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAnalyticsResponse(*analytics))
}
