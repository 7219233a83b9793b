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
	"github.com/keithamus/tickrs/utils"
)

// CounterHandlerInterface defines the contract for the non-negative domain endpoints
type CounterHandlerInterface interface {
	New(c fiber.Ctx) error
	Provision(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	GetExt(c fiber.Ctx) error
	RowMetrics(c fiber.Ctx) error
	Hit(c fiber.Ctx) error
	HitExt(c fiber.Ctx) error
	Increment(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
}

// CounterHandler handles counter-related HTTP requests
type CounterHandler struct {
	flow      businessflow.CounterFlow
	validator *validator.Validate
}

func NewCounterHandler(flow businessflow.CounterFlow) CounterHandlerInterface {
	return &CounterHandler{flow: flow, validator: validator.New()}
}

func (h *CounterHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CounterHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// New provisions a counter under a freshly generated public id
// @Summary Create Counter
// @Tags Counters
// @Produce plain
// @Success 303 {string} string "Public id of the new counter"
// @Failure 500 {object} dto.APIResponse
// @Router /c [post]
func (h *CounterHandler) New(c fiber.Ctx) error {
	row, err := h.flow.Create(h.createRequestContext(c, "/c"))
	if err != nil {
		log.Println("Create counter failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create counter", "COUNTER_CREATE_FAILED", nil)
	}
	c.Set(fiber.HeaderLocation, "/c/"+row.NanoID)
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(fiber.StatusSeeOther).SendString(row.NanoID)
}

// Provision creates a counter under a caller-supplied public id
// @Summary Create Counter With Id
// @Tags Counters
// @Produce json
// @Param id path string true "Public id"
// @Success 201 {object} dto.APIResponse{data=dto.TickDTO}
// @Failure 400 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /c/{id} [put]
func (h *CounterHandler) Provision(c fiber.Ctx) error {
	id := c.Params("id")
	row, err := h.flow.CreateWithID(h.createRequestContext(c, "/c/"+id), id)
	if err != nil {
		if businessflow.IsInvalidNanoID(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid public identifier", "INVALID_ID", nil)
		}
		if businessflow.IsCounterAlreadyExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Counter already exists", "DUPLICATE_KEY", nil)
		}
		log.Println("Provision counter failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create counter", "COUNTER_CREATE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Counter created", row)
}

// Get returns the current value as plain text
// @Summary Read Counter
// @Tags Counters
// @Produce plain
// @Param id path string true "Public id"
// @Success 200 {string} string "Current value"
// @Failure 404 {object} any
// @Router /c/{id} [get]
func (h *CounterHandler) Get(c fiber.Ctx) error {
	return h.getWithExt(c, ExtTxt)
}

// GetExt returns the current value rendered per the extension
// @Summary Read Counter As Format
// @Tags Counters
// @Produce plain
// @Param id path string true "Public id"
// @Param ext path string true "txt, json, svg, png or gif"
// @Success 200 {string} string
// @Failure 404 {object} any
// @Router /c/{id}.{ext} [get]
func (h *CounterHandler) GetExt(c fiber.Ctx) error {
	return h.getWithExt(c, c.Params("ext"))
}

func (h *CounterHandler) getWithExt(c fiber.Ctx, ext string) error {
	id := c.Params("id")
	row, err := h.flow.Get(h.createRequestContext(c, "/c/"+id), id)
	if err != nil {
		return h.readError(c, err)
	}
	return renderTick(c, row, ext)
}

// RowMetrics exposes the row as a single OpenMetrics series
// @Summary Counter OpenMetrics
// @Tags Counters
// @Produce plain
// @Param id path string true "Public id"
// @Success 200 {string} string
// @Failure 404 {object} any
// @Router /c/{id}/metrics [get]
func (h *CounterHandler) RowMetrics(c fiber.Ctx) error {
	id := c.Params("id")
	row, err := h.flow.Get(h.createRequestContext(c, "/c/"+id+"/metrics"), id)
	if err != nil {
		return h.readError(c, err)
	}
	return renderOpenMetrics(c, row, "counter")
}

// Hit increments by one, creating the counter at 1 when absent
// @Summary Hit Counter
// @Tags Counters
// @Produce plain
// @Param id path string true "Public id"
// @Success 303 {string} string "New value"
// @Failure 400 {object} any
// @Router /c+/{id} [get]
func (h *CounterHandler) Hit(c fiber.Ctx) error {
	id := c.Params("id")
	row, err := h.flow.Hit(h.createRequestContext(c, "/c+/"+id), id)
	if err != nil {
		return h.readError(c, err)
	}
	c.Set(fiber.HeaderLocation, "/c/"+id)
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(fiber.StatusSeeOther).SendString(strconv.FormatInt(row.Value, 10))
}

// HitExt increments by one and renders the result per the extension
// @Summary Hit Counter As Format
// @Tags Counters
// @Produce plain
// @Param id path string true "Public id"
// @Param ext path string true "txt, json, svg, png or gif"
// @Success 200 {string} string
// @Failure 400 {object} any
// @Router /c+/{id}.{ext} [get]
func (h *CounterHandler) HitExt(c fiber.Ctx) error {
	id := c.Params("id")
	row, err := h.flow.Hit(h.createRequestContext(c, "/c+/"+id), id)
	if err != nil {
		return h.readError(c, err)
	}
	return renderTick(c, row, c.Params("ext"))
}

// Increment applies a delta to an existing counter
// @Summary Increment Counter
// @Description Add a delta (default 1) to the counter. Deltas that would drive the value below zero are rejected.
// @Tags Counters
// @Accept json
// @Produce json
// @Param id path string true "Public id"
// @Param request body dto.IncrementRequest false "Optional delta"
// @Success 200 {object} dto.APIResponse{data=dto.TickDTO}
// @Failure 404 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse "Range violation"
// @Router /c/{id} [post]
func (h *CounterHandler) Increment(c fiber.Ctx) error {
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

	row, err := h.flow.Increment(h.createRequestContext(c, "/c/"+id), id, delta)
	if err != nil {
		if businessflow.IsValueOutOfRange(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Increment would drive the counter below zero", "RANGE_VIOLATION", nil)
		}
		return h.readError(c, err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Counter incremented", row)
}

// Delete removes a counter; administrative, idempotent
// @Summary Delete Counter
// @Tags Counters
// @Param id path string true "Public id"
// @Success 204 {string} string
// @Failure 400 {object} dto.APIResponse
// @Router /c/{id} [delete]
func (h *CounterHandler) Delete(c fiber.Ctx) error {
	id := c.Params("id")
	if err := h.flow.Delete(h.createRequestContext(c, "/c/"+id), id); err != nil {
		if businessflow.IsInvalidNanoID(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid public identifier", "INVALID_ID", nil)
		}
		log.Println("Delete counter failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete counter", "COUNTER_DELETE_FAILED", nil)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CounterHandler) readError(c fiber.Ctx, err error) error {
	if businessflow.IsInvalidNanoID(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid public identifier", "INVALID_ID", nil)
	}
	if businessflow.IsCounterNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Counter not found", "NOT_FOUND", nil)
	}
	log.Println("Counter request failed", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Internal error", "INTERNAL_ERROR", nil)
}

func (h *CounterHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}

func createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get(businessflow.RequestIDKey))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
