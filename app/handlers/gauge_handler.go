package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/keithamus/tickrs/app/dto"
	businessflow "github.com/keithamus/tickrs/business_flow"
)

// GaugeHandlerInterface defines the contract for the signed domain endpoints
type GaugeHandlerInterface interface {
	New(c fiber.Ctx) error
	Provision(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	GetExt(c fiber.Ctx) error
	RowMetrics(c fiber.Ctx) error
	HitUp(c fiber.Ctx) error
	HitUpExt(c fiber.Ctx) error
	HitDown(c fiber.Ctx) error
	HitDownExt(c fiber.Ctx) error
	Increment(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
}

// GaugeHandler handles gauge-related HTTP requests
type GaugeHandler struct {
	flow      businessflow.GaugeFlow
	validator *validator.Validate
}

func NewGaugeHandler(flow businessflow.GaugeFlow) GaugeHandlerInterface {
	return &GaugeHandler{flow: flow, validator: validator.New()}
}

func (h *GaugeHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *GaugeHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// New provisions a gauge under a freshly generated public id
// @Summary Create Gauge
// @Tags Gauges
// @Produce plain
// @Success 303 {string} string "Public id of the new gauge"
// @Failure 500 {object} dto.APIResponse
// @Router /g [post]
func (h *GaugeHandler) New(c fiber.Ctx) error {
	row, err := h.flow.Create(h.createRequestContext(c, "/g"))
	if err != nil {
		log.Println("Create gauge failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create gauge", "GAUGE_CREATE_FAILED", nil)
	}
	c.Set(fiber.HeaderLocation, "/g/"+row.NanoID)
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(fiber.StatusSeeOther).SendString(row.NanoID)
}

// Provision creates a gauge under a caller-supplied public id
// @Summary Create Gauge With Id
// @Tags Gauges
// @Produce json
// @Param id path string true "Public id"
// @Success 201 {object} dto.APIResponse{data=dto.TickDTO}
// @Failure 400 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /g/{id} [put]
func (h *GaugeHandler) Provision(c fiber.Ctx) error {
	id := c.Params("id")
	row, err := h.flow.CreateWithID(h.createRequestContext(c, "/g/"+id), id)
	if err != nil {
		if businessflow.IsInvalidNanoID(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid public identifier", "INVALID_ID", nil)
		}
		if businessflow.IsGaugeAlreadyExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Gauge already exists", "DUPLICATE_KEY", nil)
		}
		log.Println("Provision gauge failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create gauge", "GAUGE_CREATE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Gauge created", row)
}

// Get returns the current value as plain text
// @Summary Read Gauge
// @Tags Gauges
// @Produce plain
// @Param id path string true "Public id"
// @Success 200 {string} string "Current value"
// @Failure 404 {object} any
// @Router /g/{id} [get]
func (h *GaugeHandler) Get(c fiber.Ctx) error {
	return h.getWithExt(c, ExtTxt)
}

// GetExt returns the current value rendered per the extension
// @Summary Read Gauge As Format
// @Tags Gauges
// @Produce plain
// @Param id path string true "Public id"
// @Param ext path string true "txt, json, svg, png or gif"
// @Success 200 {string} string
// @Failure 404 {object} any
// @Router /g/{id}.{ext} [get]
func (h *GaugeHandler) GetExt(c fiber.Ctx) error {
	return h.getWithExt(c, c.Params("ext"))
}

func (h *GaugeHandler) getWithExt(c fiber.Ctx, ext string) error {
	id := c.Params("id")
	row, err := h.flow.Get(h.createRequestContext(c, "/g/"+id), id)
	if err != nil {
		return h.readError(c, err)
	}
	return renderTick(c, row, ext)
}

// RowMetrics exposes the row as a single OpenMetrics series
// @Summary Gauge OpenMetrics
// @Tags Gauges
// @Produce plain
// @Param id path string true "Public id"
// @Success 200 {string} string
// @Failure 404 {object} any
// @Router /g/{id}/metrics [get]
func (h *GaugeHandler) RowMetrics(c fiber.Ctx) error {
	id := c.Params("id")
	row, err := h.flow.Get(h.createRequestContext(c, "/g/"+id+"/metrics"), id)
	if err != nil {
		return h.readError(c, err)
	}
	return renderOpenMetrics(c, row, "gauge")
}

// HitUp increments by one, creating the gauge at 1 when absent
// @Summary Hit Gauge Up
// @Tags Gauges
// @Produce plain
// @Param id path string true "Public id"
// @Success 303 {string} string "New value"
// @Failure 400 {object} any
// @Router /g+/{id} [get]
func (h *GaugeHandler) HitUp(c fiber.Ctx) error {
	return h.hit(c, 1)
}

// HitDown decrements by one, creating the gauge at -1 when absent
// @Summary Hit Gauge Down
// @Tags Gauges
// @Produce plain
// @Param id path string true "Public id"
// @Success 303 {string} string "New value"
// @Failure 400 {object} any
// @Router /g-/{id} [get]
func (h *GaugeHandler) HitDown(c fiber.Ctx) error {
	return h.hit(c, -1)
}

func (h *GaugeHandler) hit(c fiber.Ctx, delta int64) error {
	id := c.Params("id")
	row, err := h.flow.Hit(h.createRequestContext(c, "/g/"+id), id, delta)
	if err != nil {
		return h.readError(c, err)
	}
	c.Set(fiber.HeaderLocation, "/g/"+id)
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(fiber.StatusSeeOther).SendString(strconv.FormatInt(row.Value, 10))
}

// HitUpExt increments by one and renders the result per the extension
// @Summary Hit Gauge Up As Format
// @Tags Gauges
// @Produce plain
// @Param id path string true "Public id"
// @Param ext path string true "txt, json, svg, png or gif"
// @Success 200 {string} string
// @Failure 400 {object} any
// @Router /g+/{id}.{ext} [get]
func (h *GaugeHandler) HitUpExt(c fiber.Ctx) error {
	return h.hitExt(c, 1)
}

// HitDownExt decrements by one and renders the result per the extension
// @Summary Hit Gauge Down As Format
// @Tags Gauges
// @Produce plain
// @Param id path string true "Public id"
// @Param ext path string true "txt, json, svg, png or gif"
// @Success 200 {string} string
// @Failure 400 {object} any
// @Router /g-/{id}.{ext} [get]
func (h *GaugeHandler) HitDownExt(c fiber.Ctx) error {
	return h.hitExt(c, -1)
}

func (h *GaugeHandler) hitExt(c fiber.Ctx, delta int64) error {
	id := c.Params("id")
	row, err := h.flow.Hit(h.createRequestContext(c, "/g/"+id), id, delta)
	if err != nil {
		return h.readError(c, err)
	}
	return renderTick(c, row, c.Params("ext"))
}

// Increment applies a delta to an existing gauge
// @Summary Increment Gauge
// @Description Add a delta (default 1, may be negative) to the gauge.
// @Tags Gauges
// @Accept json
// @Produce json
// @Param id path string true "Public id"
// @Param request body dto.IncrementRequest false "Optional delta"
// @Success 200 {object} dto.APIResponse{data=dto.TickDTO}
// @Failure 404 {object} dto.APIResponse
// @Router /g/{id} [post]
func (h *GaugeHandler) Increment(c fiber.Ctx) error {
	id := c.Params("id")

	delta := int64(1)
	if len(c.Body()) > 0 {
		var req dto.IncrementRequest
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
		if err := h.validator.Struct(&req); err != nil {
			var validationErrors []string
			for _, err := range err.(validator.ValidationErrors) {
				validationErrors = append(validationErrors, getValidationErrorMessage(err))
			}
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
		}
		if req.Delta != nil {
			delta = *req.Delta
		}
	}

	row, err := h.flow.Increment(h.createRequestContext(c, "/g/"+id), id, delta)
	if err != nil {
		return h.readError(c, err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Gauge incremented", row)
}

// Delete removes a gauge; administrative, idempotent
// @Summary Delete Gauge
// @Tags Gauges
// @Param id path string true "Public id"
// @Success 204 {string} string
// @Failure 400 {object} dto.APIResponse
// @Router /g/{id} [delete]
func (h *GaugeHandler) Delete(c fiber.Ctx) error {
	id := c.Params("id")
	if err := h.flow.Delete(h.createRequestContext(c, "/g/"+id), id); err != nil {
		if businessflow.IsInvalidNanoID(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid public identifier", "INVALID_ID", nil)
		}
		log.Println("Delete gauge failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete gauge", "GAUGE_DELETE_FAILED", nil)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *GaugeHandler) readError(c fiber.Ctx, err error) error {
	if businessflow.IsInvalidNanoID(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid public identifier", "INVALID_ID", nil)
	}
	if businessflow.IsGaugeNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Gauge not found", "NOT_FOUND", nil)
	}
	log.Println("Gauge request failed", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Internal error", "INTERNAL_ERROR", nil)
}

func (h *GaugeHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}
