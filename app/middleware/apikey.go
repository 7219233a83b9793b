// Package middleware provides HTTP middleware for the application
package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/keithamus/tickrs/app/dto"
)

// RequireAPIKey guards administrative endpoints (counter/gauge deletion).
// With no keys configured the endpoints stay disabled rather than open.
func RequireAPIKey(header string, allowedKeys []string) fiber.Handler {
	keys := make(map[string]struct{}, len(allowedKeys))
	for _, k := range allowedKeys {
		if k != "" {
			keys[k] = struct{}{}
		}
	}

	return func(c fiber.Ctx) error {
		if len(keys) == 0 {
			return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
				Success: false,
				Message: "Administrative endpoints are disabled",
				Error: dto.ErrorDetail{
					Code: "ADMIN_DISABLED",
				},
			})
		}

		apiKey := c.Get(header)
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "API key is required",
				Error: dto.ErrorDetail{
					Code: "MISSING_API_KEY",
				},
			})
		}
		if _, ok := keys[apiKey]; !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid API key",
				Error: dto.ErrorDetail{
					Code: "INVALID_API_KEY",
				},
			})
		}

		return c.Next()
	}
}
