package tests

import (
	"bytes"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keithamus/tickrs/app/handlers"
	"github.com/keithamus/tickrs/app/router"
	businessflow "github.com/keithamus/tickrs/business_flow"
	"github.com/keithamus/tickrs/config"
	"github.com/keithamus/tickrs/repository"
	testingutil "github.com/keithamus/tickrs/testing"
)

func newTestRouter(testDB *testingutil.TestDB, apiKeys []string) *fiber.App {
	cfg := &config.ProductionConfig{
		Server: config.ServerConfig{
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  10 * time.Second,
			BodyLimit:    64 * 1024,
		},
		Security: config.SecurityConfig{
			AllowedOrigins:  []string{"*"},
			AllowedMethods:  []string{"GET", "POST", "PUT", "DELETE"},
			AllowedHeaders:  []string{"Origin", "Content-Type", "Accept"},
			GlobalRateLimit: 100000,
			RateLimitWindow: time.Minute,
			APIKeyHeader:    "X-API-Key",
			AllowedAPIKeys:  apiKeys,
		},
	}

	counterFlow := businessflow.NewCounterFlow(repository.NewCounterRepository(testDB.DB), nil, "", 0)
	gaugeFlow := businessflow.NewGaugeFlow(repository.NewGaugeRepository(testDB.DB), nil, "", 0)
	statsFlow := businessflow.NewStatsFlow(repository.NewStatsRepository(testDB.DB))

	r := router.NewFiberRouter(
		cfg,
		handlers.NewCounterHandler(counterFlow),
		handlers.NewGaugeHandler(gaugeFlow),
		handlers.NewStatsHandler(statsFlow),
	)
	r.SetupRoutes()
	return r.GetApp()
}

func doRequest(t *testing.T, app *fiber.App, method, target string, body []byte) (int, map[string]string, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	headers := map[string]string{
		"Location":      resp.Header.Get("Location"),
		"Content-Type":  resp.Header.Get("Content-Type"),
		"Last-Modified": resp.Header.Get("Last-Modified"),
	}
	return resp.StatusCode, headers, respBody
}

func TestCounterRoutes(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		app := newTestRouter(testDB, nil)

		t.Run("CreateRedirectsToNewCounter", func(t *testing.T) {
			status, headers, body := doRequest(t, app, "POST", "/c", nil)
			assert.Equal(t, fiber.StatusSeeOther, status)
			assert.Equal(t, "/c/"+string(body), headers["Location"])
			assert.Len(t, string(body), 10)
		})

		t.Run("HitThenReadAndRowMetrics", func(t *testing.T) {
			status, _, body := doRequest(t, app, "GET", "/c+/hitme", nil)
			assert.Equal(t, fiber.StatusSeeOther, status)
			assert.Equal(t, "1", string(body))

			status, _, body = doRequest(t, app, "GET", "/c/hitme", nil)
			assert.Equal(t, fiber.StatusOK, status)
			assert.Equal(t, "1", string(body))

			// The per-row metrics route must answer, not the hit route
			status, headers, body := doRequest(t, app, "GET", "/c/hitme/metrics", nil)
			assert.Equal(t, fiber.StatusOK, status)
			assert.Contains(t, string(body), "# TYPE hitme counter")
			assert.Contains(t, string(body), "hitme_count 1")
			assert.NotEmpty(t, headers["Last-Modified"])

			// And reading metrics must not have moved the value
			status, _, body = doRequest(t, app, "GET", "/c/hitme", nil)
			assert.Equal(t, fiber.StatusOK, status)
			assert.Equal(t, "1", string(body))
		})

		t.Run("HitRouteDoesNotSwallowOtherPaths", func(t *testing.T) {
			// Only the literal /c+ prefix is a hit; nearby paths are 404s
			status, _, _ := doRequest(t, app, "GET", "/cfoo/bar", nil)
			assert.Equal(t, fiber.StatusNotFound, status)

			status, _, _ = doRequest(t, app, "GET", "/cx/y/z", nil)
			assert.Equal(t, fiber.StatusNotFound, status)

			// None of those paths created rows
			status, _, _ = doRequest(t, app, "GET", "/c/bar", nil)
			assert.Equal(t, fiber.StatusNotFound, status)
			status, _, _ = doRequest(t, app, "GET", "/c/z", nil)
			assert.Equal(t, fiber.StatusNotFound, status)
		})

		t.Run("FormatExtensions", func(t *testing.T) {
			status, _, _ := doRequest(t, app, "GET", "/c+/fmt", nil)
			require.Equal(t, fiber.StatusSeeOther, status)

			status, headers, body := doRequest(t, app, "GET", "/c/fmt.json", nil)
			assert.Equal(t, fiber.StatusOK, status)
			assert.Contains(t, headers["Content-Type"], "json")
			assert.Equal(t, "1", string(body))

			status, headers, body = doRequest(t, app, "GET", "/c/fmt.png", nil)
			assert.Equal(t, fiber.StatusOK, status)
			assert.Equal(t, "image/png", headers["Content-Type"])
			assert.True(t, bytes.HasPrefix(body, []byte{0x89, 'P', 'N', 'G'}))

			status, headers, body = doRequest(t, app, "GET", "/c/fmt.jpg", nil)
			assert.Equal(t, fiber.StatusOK, status)
			assert.Equal(t, "image/jpeg", headers["Content-Type"])
			assert.True(t, bytes.HasPrefix(body, []byte{0xff, 0xd8}))
			assert.True(t, bytes.HasSuffix(body, []byte{0xff, 0xd9}))

			status, _, body = doRequest(t, app, "GET", "/c/fmt.svg", nil)
			assert.Equal(t, fiber.StatusOK, status)
			assert.Contains(t, string(body), "<svg")

			// The hit routes render extensions too
			status, headers, _ = doRequest(t, app, "GET", "/c+/fmt.gif", nil)
			assert.Equal(t, fiber.StatusOK, status)
			assert.Equal(t, "image/gif", headers["Content-Type"])

			status, _, body = doRequest(t, app, "GET", "/c/fmt", nil)
			assert.Equal(t, fiber.StatusOK, status)
			assert.Equal(t, "2", string(body))

			status, _, _ = doRequest(t, app, "GET", "/c/fmt.bmp", nil)
			assert.Equal(t, fiber.StatusNotFound, status)
		})

		t.Run("ProvisionAndIncrementWithDelta", func(t *testing.T) {
			status, _, _ := doRequest(t, app, "PUT", "/c/chosen", nil)
			assert.Equal(t, fiber.StatusCreated, status)

			status, _, _ = doRequest(t, app, "PUT", "/c/chosen", nil)
			assert.Equal(t, fiber.StatusConflict, status)

			status, _, _ = doRequest(t, app, "POST", "/c/chosen", []byte(`{"delta": 5}`))
			assert.Equal(t, fiber.StatusOK, status)

			status, _, body := doRequest(t, app, "POST", "/c/chosen", []byte(`{"delta": -10}`))
			assert.Equal(t, fiber.StatusConflict, status)
			assert.Contains(t, string(body), "RANGE_VIOLATION")

			status, _, body = doRequest(t, app, "GET", "/c/chosen", nil)
			assert.Equal(t, fiber.StatusOK, status)
			assert.Equal(t, "5", string(body))
		})

		t.Run("ReadUnknownCounter", func(t *testing.T) {
			status, _, _ := doRequest(t, app, "GET", "/c/missing", nil)
			assert.Equal(t, fiber.StatusNotFound, status)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestGaugeRoutes(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		app := newTestRouter(testDB, nil)

		t.Run("HitDownCreatesNegative", func(t *testing.T) {
			status, _, body := doRequest(t, app, "GET", "/g-/dial", nil)
			assert.Equal(t, fiber.StatusSeeOther, status)
			assert.Equal(t, "-1", string(body))

			// POST decrements too
			status, _, body = doRequest(t, app, "POST", "/g-/dial", nil)
			assert.Equal(t, fiber.StatusSeeOther, status)
			assert.Equal(t, "-2", string(body))
		})

		t.Run("HitUpAndRowMetrics", func(t *testing.T) {
			status, _, body := doRequest(t, app, "GET", "/g+/dial", nil)
			assert.Equal(t, fiber.StatusSeeOther, status)
			assert.Equal(t, "-1", string(body))

			status, _, body = doRequest(t, app, "GET", "/g/dial/metrics", nil)
			assert.Equal(t, fiber.StatusOK, status)
			assert.Contains(t, string(body), "# TYPE dial gauge")
			assert.Contains(t, string(body), "dial_count -1")
		})

		t.Run("AggregateStats", func(t *testing.T) {
			status, _, body := doRequest(t, app, "GET", "/_total", nil)
			assert.Equal(t, fiber.StatusOK, status)
			assert.Equal(t, "1", string(body))

			status, _, body = doRequest(t, app, "GET", "/_highest", nil)
			assert.Equal(t, fiber.StatusOK, status)
			assert.Equal(t, "-1", string(body))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAdminDeleteRoutes(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		t.Run("DisabledWithoutConfiguredKeys", func(t *testing.T) {
			app := newTestRouter(testDB, nil)
			status, _, _ := doRequest(t, app, "DELETE", "/c/anything", nil)
			assert.Equal(t, fiber.StatusForbidden, status)
		})

		t.Run("GuardedDelete", func(t *testing.T) {
			app := newTestRouter(testDB, []string{"sekret"})

			status, _, _ := doRequest(t, app, "PUT", "/c/doomed", nil)
			require.Equal(t, fiber.StatusCreated, status)

			// No key and a wrong key are both rejected
			status, _, _ = doRequest(t, app, "DELETE", "/c/doomed", nil)
			assert.Equal(t, fiber.StatusUnauthorized, status)

			req := httptest.NewRequest("DELETE", "/c/doomed", nil)
			req.Header.Set("X-API-Key", "wrong")
			resp, err := app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

			req = httptest.NewRequest("DELETE", "/c/doomed", nil)
			req.Header.Set("X-API-Key", "sekret")
			resp, err = app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

			status, _, _ = doRequest(t, app, "GET", "/c/doomed", nil)
			assert.Equal(t, fiber.StatusNotFound, status)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestServiceRoutes(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		app := newTestRouter(testDB, nil)

		t.Run("Index", func(t *testing.T) {
			status, headers, body := doRequest(t, app, "GET", "/", nil)
			assert.Equal(t, fiber.StatusOK, status)
			assert.Contains(t, headers["Content-Type"], "text/html")
			assert.Contains(t, string(body), "tickrs")
		})

		t.Run("Favicon", func(t *testing.T) {
			status, headers, body := doRequest(t, app, "GET", "/favicon.ico", nil)
			assert.Equal(t, fiber.StatusOK, status)
			assert.Equal(t, "image/png", headers["Content-Type"])
			assert.True(t, bytes.HasPrefix(body, []byte{0x89, 'P', 'N', 'G'}))
		})

		t.Run("Health", func(t *testing.T) {
			status, _, body := doRequest(t, app, "GET", "/_h", nil)
			assert.Equal(t, fiber.StatusOK, status)
			assert.True(t, strings.Contains(string(body), "ok"))
		})

		t.Run("HighestOnEmptyService", func(t *testing.T) {
			status, _, _ := doRequest(t, app, "GET", "/_highest", nil)
			assert.Equal(t, fiber.StatusNotFound, status)
		})

		return nil
	})
	require.NoError(t, err)
}
