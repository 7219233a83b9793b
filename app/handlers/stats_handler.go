package handlers

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	businessflow "github.com/keithamus/tickrs/business_flow"
)

// StatsHandlerInterface defines the contract for the public aggregate endpoints
type StatsHandlerInterface interface {
	Total(c fiber.Ctx) error
	Highest(c fiber.Ctx) error
}

type StatsHandler struct {
	flow businessflow.StatsFlow
}

func NewStatsHandler(flow businessflow.StatsFlow) StatsHandlerInterface {
	return &StatsHandler{flow: flow}
}

// Total returns the number of provisioned rows across both tables
// @Summary Total Rows
// @Tags Stats
// @Produce plain
// @Success 200 {string} string
// @Failure 500 {object} any
// @Router /_total [get]
func (h *StatsHandler) Total(c fiber.Ctx) error {
	total, err := h.flow.Total(createRequestContextWithTimeout(c, "/_total", 10*time.Second))
	if err != nil {
		log.Println("Total failed", err)
		return c.Status(fiber.StatusInternalServerError).SendString("")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(strconv.FormatInt(total, 10))
}

// Highest returns the highest value across both tables
// @Summary Highest Value
// @Tags Stats
// @Produce plain
// @Success 200 {string} string
// @Failure 404 {object} any
// @Failure 500 {object} any
// @Router /_highest [get]
func (h *StatsHandler) Highest(c fiber.Ctx) error {
	highest, err := h.flow.Highest(createRequestContextWithTimeout(c, "/_highest", 10*time.Second))
	if err != nil {
		log.Println("Highest failed", err)
		return c.Status(fiber.StatusInternalServerError).SendString("")
	}
	if highest == nil {
		return c.Status(fiber.StatusNotFound).SendString("")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(strconv.FormatInt(*highest, 10))
}
