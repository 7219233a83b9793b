package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/keithamus/tickrs/app/dto"
)

// Render extensions accepted on /c/{id}.{ext} and /g/{id}.{ext}. The image
// variants make a counter usable as a tracking pixel; their payload is a
// fixed one-pixel asset, the count only moves server-side.
const (
	ExtTxt  = "txt"
	ExtJSON = "json"
	ExtSVG  = "svg"
	ExtPNG  = "png"
	ExtJPG  = "jpg"
	ExtGIF  = "gif"
)

// 1x1 transparent pixel assets served for the image extensions.
var (
	pixelPNG = []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
		0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
		0x89, 0x00, 0x00, 0x00, 0x0a, 0x49, 0x44, 0x41,
		0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
		0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
		0x42, 0x60, 0x82,
	}
	pixelJPG = []byte{
		0xff, 0xd8, 0xff, 0xdb, 0x00, 0x43, 0x00, 0x10,
		0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10,
		0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10,
		0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10,
		0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10,
		0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10,
		0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10,
		0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10,
		0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0xff,
		0xc0, 0x00, 0x0b, 0x08, 0x00, 0x01, 0x00, 0x01,
		0x01, 0x01, 0x11, 0x00, 0xff, 0xc4, 0x00, 0x14,
		0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0xff, 0xc4, 0x00, 0x14, 0x10, 0x00,
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xff, 0xda, 0x00, 0x08, 0x01, 0x01, 0x00, 0x00,
		0x3f, 0x00, 0x0f, 0xff, 0xd9,
	}
	pixelGIF = []byte{
		0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00,
		0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
		0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44,
		0x01, 0x00, 0x3b,
	}
)

const emptySVG = `<svg xmlns="http://www.w3.org/2000/svg"/>`

// renderTick writes a counter or gauge row in the requested format, with
// Last-Modified taken from updated_at. Unknown extensions yield 404.
func renderTick(c fiber.Ctx, row *dto.TickDTO, ext string) error {
	c.Set(fiber.HeaderLastModified, row.UpdatedAt.UTC().Format(http.TimeFormat))

	switch ext {
	case ExtTxt:
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(strconv.FormatInt(row.Value, 10))
	case ExtJSON:
		return c.JSON(row.Value)
	case ExtSVG:
		c.Set(fiber.HeaderContentType, "image/svg+xml; charset=utf-8")
		return c.SendString(emptySVG)
	case ExtPNG:
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(pixelPNG)
	case ExtJPG:
		c.Set(fiber.HeaderContentType, "image/jpeg")
		return c.Send(pixelJPG)
	case ExtGIF:
		c.Set(fiber.HeaderContentType, "image/gif")
		return c.Send(pixelGIF)
	default:
		return c.Status(fiber.StatusNotFound).SendString("")
	}
}

// Favicon serves the one-pixel PNG with a long-lived cache header so browsers
// stop re-requesting it on every counter view.
func Favicon(c fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(pixelPNG)
}

// renderOpenMetrics writes a single-series exposition for the row, typed as
// counter or gauge depending on the domain.
func renderOpenMetrics(c fiber.Ctx, row *dto.TickDTO, seriesType string) error {
	c.Set(fiber.HeaderLastModified, row.UpdatedAt.UTC().Format(http.TimeFormat))
	c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4; charset=utf-8")
	return c.SendString(fmt.Sprintf("# TYPE %s %s\n%s_count %d", row.NanoID, seriesType, row.NanoID, row.Value))
}
