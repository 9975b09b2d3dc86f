package handler

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/hanspeterhess/show-time-aws-V1/internal/model"
	"github.com/hanspeterhess/show-time-aws-V1/internal/relay"
	"github.com/hanspeterhess/show-time-aws-V1/internal/service"
)

// The API document is compiled in so /openapi.yaml works regardless of the
// process working directory.
//
//go:embed openapi.yaml
var openapiYAML []byte

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic; auth guards the mutating
// endpoints and is a no-op unless configured.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.RelayService, hub *relay.Hub, auth fiber.Handler) {
	// Serve the OpenAPI document and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.Send(openapiYAML)
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/store-time", auth, StoreTime(svc))
	app.Get("/timestamps", ListTimestamps(svc))
	app.Get("/timestamps/:id", GetTimestamp(svc))
	app.Get("/get-upload-url", GetUploadURL(svc))
	app.Get("/get-image-url", GetImageURL(svc))
	app.Post("/blurred-image-callback", BlurredImageCallback(svc))

	// Persistent channel: clients and the worker attach here.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(relay.ServeWS(hub, svc)))
}

// HealthCheck verifies DB connectivity.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a bare liveness check.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// StoreTime persists the current time and schedules the delayed broadcast.
func StoreTime(svc service.RelayService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ts, err := svc.StoreTimestamp(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{
			"status": "stored",
			"time":   ts.RecordedAt.Format(time.RFC3339Nano),
		})
	}
}

// ListTimestamps returns stored timestamps with limit & offset.
func ListTimestamps(svc service.RelayService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limitStr := c.Query("limit", "10")
		offsetStr := c.Query("offset", "0")
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.ListTimestamps(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetTimestamp returns a single stored timestamp by ID.
func GetTimestamp(svc service.RelayService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ts, err := svc.GetTimestamp(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "timestamp not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(ts)
	}
}

// GetUploadURL issues a presigned PUT URL under a fresh key.
func GetUploadURL(svc service.RelayService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		hint := c.Query("fileName")
		if hint == "" {
			return writeError(c, fiber.StatusBadRequest, "FILE_NAME_REQUIRED", "fileName is required")
		}

		target, err := svc.IssueUploadTarget(c.UserContext(), hint)
		if err != nil {
			if errors.Is(err, service.ErrFileNameRequired) {
				return writeError(c, fiber.StatusBadRequest, "FILE_NAME_REQUIRED", "fileName is required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(target)
	}
}

// GetImageURL issues a presigned GET URL for an existing object.
func GetImageURL(svc service.RelayService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Query("key")
		if key == "" {
			return writeError(c, fiber.StatusBadRequest, "KEY_REQUIRED", "key is required")
		}

		url, err := svc.IssueDownloadTarget(c.UserContext(), key)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "object not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"url": url})
	}
}

// BlurredImageCallback receives a worker's completion report over HTTP.
// The response acknowledges receipt; a worker-reported failure is still a 200
// with a distinct body, since the error travels to peers as a broadcast.
func BlurredImageCallback(svc service.RelayService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var result model.ProcessingResult
		if err := c.BodyParser(&result); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if result.OriginalKey == "" {
			return writeError(c, fiber.StatusBadRequest, "ORIGINAL_KEY_REQUIRED", "originalKey is required")
		}

		svc.ReceiveWorkerResult(result)

		status := "ok"
		if result.Error != "" {
			status = "received"
		}
		return c.JSON(fiber.Map{"status": status})
	}
}
