package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hanspeterhess/show-time-aws-V1/internal/model"
	"github.com/hanspeterhess/show-time-aws-V1/internal/relay"
	"github.com/hanspeterhess/show-time-aws-V1/internal/service"
	serviceMocks "github.com/hanspeterhess/show-time-aws-V1/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStoreTime(t *testing.T) {
	mockSvc := new(serviceMocks.MockRelayService)
	app := fiber.New()
	app.Post("/store-time", StoreTime(mockSvc))

	t.Run("success returns the persisted time", func(t *testing.T) {
		recorded := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		mockSvc.On("StoreTimestamp", mock.Anything).
			Return(&model.Timestamp{ID: "id", RecordedAt: recorded}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/store-time", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "stored", body["status"])
		assert.Equal(t, recorded.Format(time.RFC3339Nano), body["time"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("persistence failure", func(t *testing.T) {
		mockSvc.On("StoreTimestamp", mock.Anything).
			Return(nil, errors.New("db fail")).Once()

		req := httptest.NewRequest(http.MethodPost, "/store-time", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestListTimestamps(t *testing.T) {
	mockSvc := new(serviceMocks.MockRelayService)
	app := fiber.New()
	app.Get("/timestamps", ListTimestamps(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := &service.TimestampListResult{
			Items: []model.Timestamp{{ID: "a"}},
			Total: 1,
		}
		mockSvc.On("ListTimestamps", mock.Anything, 10, 0).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/timestamps?limit=10&offset=0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.TimestampListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/timestamps?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_LIMIT", body.Error.Code)
	})
}

func TestGetTimestamp(t *testing.T) {
	mockSvc := new(serviceMocks.MockRelayService)
	app := fiber.New()
	app.Get("/timestamps/:id", GetTimestamp(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("GetTimestamp", mock.Anything, "ts-1").
			Return(&model.Timestamp{ID: "ts-1"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/timestamps/ts-1", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var ts model.Timestamp
		json.NewDecoder(resp.Body).Decode(&ts)
		assert.Equal(t, "ts-1", ts.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("GetTimestamp", mock.Anything, "missing").
			Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/timestamps/missing", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("repository failure", func(t *testing.T) {
		mockSvc.On("GetTimestamp", mock.Anything, "ts-1").
			Return(nil, errors.New("db fail")).Once()

		req := httptest.NewRequest(http.MethodGet, "/timestamps/ts-1", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetUploadURL(t *testing.T) {
	mockSvc := new(serviceMocks.MockRelayService)
	app := fiber.New()
	app.Get("/get-upload-url", GetUploadURL(mockSvc))

	t.Run("success", func(t *testing.T) {
		target := &model.UploadTarget{
			UploadURL: "https://storage/signed-put",
			FileName:  "uploads/xyz.jpg",
		}
		mockSvc.On("IssueUploadTarget", mock.Anything, "photo.png").Return(target, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/get-upload-url?fileName=photo.png", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.UploadTarget
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "uploads/xyz.jpg", result.FileName)
		assert.Equal(t, "https://storage/signed-put", result.UploadURL)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing fileName", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/get-upload-url", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "FILE_NAME_REQUIRED", body.Error.Code)
	})

	t.Run("storage error", func(t *testing.T) {
		mockSvc.On("IssueUploadTarget", mock.Anything, "photo.png").
			Return(nil, errors.New("storage down")).Once()

		req := httptest.NewRequest(http.MethodGet, "/get-upload-url?fileName=photo.png", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetImageURL(t *testing.T) {
	mockSvc := new(serviceMocks.MockRelayService)
	app := fiber.New()
	app.Get("/get-image-url", GetImageURL(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("IssueDownloadTarget", mock.Anything, "uploads/a.jpg").
			Return("https://storage/signed-get", nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/get-image-url?key=uploads%2Fa.jpg", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "https://storage/signed-get", body["url"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("IssueDownloadTarget", mock.Anything, "uploads/missing.jpg").
			Return("", service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/get-image-url?key=uploads%2Fmissing.jpg", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/get-image-url", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "KEY_REQUIRED", body.Error.Code)
	})

	t.Run("storage error", func(t *testing.T) {
		mockSvc.On("IssueDownloadTarget", mock.Anything, "uploads/a.jpg").
			Return("", errors.New("storage down")).Once()

		req := httptest.NewRequest(http.MethodGet, "/get-image-url?key=uploads%2Fa.jpg", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestBlurredImageCallback(t *testing.T) {
	mockSvc := new(serviceMocks.MockRelayService)
	app := fiber.New()
	app.Post("/blurred-image-callback", BlurredImageCallback(mockSvc))

	post := func(body any) *http.Response {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/blurred-image-callback", bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success acknowledges with ok", func(t *testing.T) {
		result := model.ProcessingResult{
			OriginalKey: "uploads/a.jpg",
			BlurredKey:  "uploads/a-blurred.jpg",
		}
		mockSvc.On("ReceiveWorkerResult", result).Return().Once()

		resp := post(result)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "ok", body["status"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("worker error still returns 200 but marks receipt", func(t *testing.T) {
		result := model.ProcessingResult{
			OriginalKey: "uploads/a.jpg",
			Error:       "decode failed",
		}
		mockSvc.On("ReceiveWorkerResult", result).Return().Once()

		resp := post(result)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "received", body["status"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing originalKey", func(t *testing.T) {
		resp := post(model.ProcessingResult{BlurredKey: "uploads/a-blurred.jpg"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "ORIGINAL_KEY_REQUIRED", body.Error.Code)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSvc := new(serviceMocks.MockRelayService)
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	RegisterRoutes(app, db, mockSvc, relay.NewHub(), func(c *fiber.Ctx) error { return c.Next() })

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})

	t.Run("ws route requires upgrade", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
	})

	t.Run("api document is served from the binary", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "openapi: 3.0")
	})
}
