package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/Kosench/qlink/internal/errors"
	"github.com/Kosench/qlink/internal/logger"
	"github.com/Kosench/qlink/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLinkService struct {
	links      map[string]*model.Link
	failWith   error
	lastManage string
}

func newMockLinkService() *mockLinkService {
	return &mockLinkService{
		links: make(map[string]*model.Link),
	}
}

func (m *mockLinkService) CreateLink(ctx context.Context, rawURL string) (*model.CreateLinkResponse, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	if rawURL == "invalid-url" {
		return nil, apperrors.NewValidationError("url", "URL must start with http:// or https://")
	}

	m.links["abc123"] = &model.Link{ID: 1, ShortCode: "abc123", ManageCode: "mng456", OriginalURL: rawURL, CreatedAt: time.Now()}
	return &model.CreateLinkResponse{ShortURL: "abc123", ManageCode: "mng456"}, nil
}

func (m *mockLinkService) ListLinks(ctx context.Context) ([]model.LinkView, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}

	views := make([]model.LinkView, 0, len(m.links))
	for _, link := range m.links {
		views = append(views, link.View())
	}
	return views, nil
}

func (m *mockLinkService) UpdateLink(ctx context.Context, shortCode, manageCode, newURL string) (model.UpdateResult, error) {
	m.lastManage = manageCode
	if m.failWith != nil {
		return model.UpdateResult{}, m.failWith
	}

	link, exists := m.links[shortCode]
	if !exists {
		return model.UpdateResult{}, apperrors.ErrLinkNotFound
	}
	if link.ManageCode != manageCode {
		return model.UpdateResult{}, apperrors.ErrUnauthorized
	}
	if link.OriginalURL == newURL {
		return model.UpdateResult{Changed: false}, nil
	}
	link.OriginalURL = newURL
	return model.UpdateResult{Changed: true}, nil
}

func (m *mockLinkService) DeleteLink(ctx context.Context, shortCode, manageCode string) error {
	m.lastManage = manageCode
	if m.failWith != nil {
		return m.failWith
	}

	link, exists := m.links[shortCode]
	if !exists {
		return apperrors.ErrLinkNotFound
	}
	if link.ManageCode != manageCode {
		return apperrors.ErrUnauthorized
	}
	delete(m.links, shortCode)
	return nil
}

func (m *mockLinkService) Resolve(ctx context.Context, shortCode string) (string, error) {
	if m.failWith != nil {
		return "", m.failWith
	}

	link, exists := m.links[shortCode]
	if !exists {
		return "", apperrors.ErrLinkNotFound
	}
	return link.OriginalURL, nil
}

func newTestRouter(service LinkService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	handler := NewLinkHandler(service, logger.Discard())
	router := gin.New()
	handler.RegisterRoutes(router)
	return router
}

func doRequest(router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	switch b := body.(type) {
	case nil:
		reader = bytes.NewBuffer(nil)
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	return response
}

func TestLinkHandler_CreateLink(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		failWith       error
		expectedStatus int
		expectedFields []string
	}{
		{
			name:           "valid request",
			requestBody:    map[string]string{"url": "https://example.com"},
			expectedStatus: http.StatusOK,
			expectedFields: []string{"short_url", "manage_code"},
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"error", "message"},
		},
		{
			name:           "missing url",
			requestBody:    map[string]string{},
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"error", "message", "field"},
		},
		{
			name:           "validation error",
			requestBody:    map[string]string{"url": "invalid-url"},
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"error", "message", "field"},
		},
		{
			name:           "collision",
			requestBody:    map[string]string{"url": "https://example.com"},
			failWith:       apperrors.ErrShortCodeExists,
			expectedStatus: http.StatusInternalServerError,
			expectedFields: []string{"error"},
		},
		{
			name:           "storage error",
			requestBody:    map[string]string{"url": "https://example.com"},
			failWith:       apperrors.NewStorageError("failed to create link", errors.New("disk full")),
			expectedStatus: http.StatusInternalServerError,
			expectedFields: []string{"error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newMockLinkService()
			service.failWith = tt.failWith
			router := newTestRouter(service)

			w := doRequest(router, http.MethodPost, "/api/links", tt.requestBody, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)

			response := decode(t, w)
			for _, field := range tt.expectedFields {
				assert.Contains(t, response, field)
			}

			// внутренние детали наружу не попадают
			assert.NotContains(t, w.Body.String(), "disk full")
		})
	}
}

func TestLinkHandler_ListLinks(t *testing.T) {
	service := newMockLinkService()
	service.links["abc123"] = &model.Link{ID: 7, ShortCode: "abc123", ManageCode: "mng456", OriginalURL: "https://example.com", CreatedAt: time.Now()}
	router := newTestRouter(service)

	w := doRequest(router, http.MethodGet, "/api/links", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var links []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &links))
	require.Len(t, links, 1)

	assert.Equal(t, "abc123", links[0]["short_code"])
	assert.Equal(t, "https://example.com", links[0]["original_url"])
	assert.EqualValues(t, 7, links[0]["id"])
	assert.Contains(t, links[0], "created_at")
	assert.NotContains(t, links[0], "manage_code")
	assert.NotContains(t, w.Body.String(), "mng456")
}

func TestLinkHandler_ListLinks_StorageError(t *testing.T) {
	service := newMockLinkService()
	service.failWith = apperrors.NewStorageError("failed to list links", errors.New("no such table: links"))
	router := newTestRouter(service)

	w := doRequest(router, http.MethodGet, "/api/links", nil, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "no such table")
}

func TestLinkHandler_UpdateLink(t *testing.T) {
	tests := []struct {
		name            string
		authorization   string
		body            any
		expectedStatus  int
		expectedMessage string
		expectedSuccess bool
	}{
		{
			name:            "successful update",
			authorization:   "Basic mng456",
			body:            map[string]string{"short_code": "abc123", "new_url": "https://example.org"},
			expectedStatus:  http.StatusOK,
			expectedMessage: model.MessageUpdated,
			expectedSuccess: true,
		},
		{
			name:            "same URL",
			authorization:   "Basic mng456",
			body:            map[string]string{"short_code": "abc123", "new_url": "https://example.com"},
			expectedStatus:  http.StatusOK,
			expectedMessage: model.MessageUnchanged,
			expectedSuccess: true,
		},
		{
			name:            "wrong manage code",
			authorization:   "Basic wrong0",
			body:            map[string]string{"short_code": "abc123", "new_url": "https://example.org"},
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid manage code",
		},
		{
			name:            "missing header",
			body:            map[string]string{"short_code": "abc123", "new_url": "https://example.org"},
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid manage code",
		},
		{
			name:            "bearer header",
			authorization:   "Bearer mng456",
			body:            map[string]string{"short_code": "abc123", "new_url": "https://example.org"},
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid manage code",
		},
		{
			name:            "padded manage code",
			authorization:   "Basic  mng456",
			body:            map[string]string{"short_code": "abc123", "new_url": "https://example.org"},
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid manage code",
		},
		{
			name:            "unknown short code",
			authorization:   "Basic mng456",
			body:            map[string]string{"short_code": "zzz999", "new_url": "https://example.org"},
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "Shortcode not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newMockLinkService()
			service.links["abc123"] = &model.Link{ShortCode: "abc123", ManageCode: "mng456", OriginalURL: "https://example.com"}
			router := newTestRouter(service)

			headers := map[string]string{}
			if tt.authorization != "" {
				headers["Authorization"] = tt.authorization
			}

			w := doRequest(router, http.MethodPost, "/api/update-link", tt.body, headers)
			assert.Equal(t, tt.expectedStatus, w.Code)

			response := decode(t, w)
			assert.Equal(t, tt.expectedMessage, response["message"])
			assert.Equal(t, tt.expectedSuccess, response["success"])
		})
	}
}

func TestLinkHandler_UpdateLink_BadBody(t *testing.T) {
	router := newTestRouter(newMockLinkService())

	w := doRequest(router, http.MethodPost, "/api/update-link", map[string]string{"short_code": "abc123"},
		map[string]string{"Authorization": "Basic mng456"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLinkHandler_UpdateLink_StorageError(t *testing.T) {
	service := newMockLinkService()
	service.failWith = apperrors.NewStorageError("failed to update link", errors.New("database is locked"))
	router := newTestRouter(service)

	w := doRequest(router, http.MethodPost, "/api/update-link",
		map[string]string{"short_code": "abc123", "new_url": "https://example.org"},
		map[string]string{"Authorization": "Basic mng456"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to update shortlink URL", decode(t, w)["error"])
	assert.Equal(t, "mng456", service.lastManage)
}

func TestLinkHandler_DeleteLink(t *testing.T) {
	service := newMockLinkService()
	service.links["abc123"] = &model.Link{ShortCode: "abc123", ManageCode: "mng456", OriginalURL: "https://example.com"}
	router := newTestRouter(service)

	t.Run("wrong manage code", func(t *testing.T) {
		w := doRequest(router, http.MethodDelete, "/api/links/abc123", nil, map[string]string{"Authorization": "Basic nope00"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("successful delete", func(t *testing.T) {
		w := doRequest(router, http.MethodDelete, "/api/links/abc123", nil, map[string]string{"Authorization": "Basic mng456"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Link with code abc123 deleted successfully.", decode(t, w)["message"])
	})

	t.Run("already deleted", func(t *testing.T) {
		w := doRequest(router, http.MethodDelete, "/api/links/abc123", nil, map[string]string{"Authorization": "Basic mng456"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Link with code abc123 not found.", decode(t, w)["error"])
	})
}

func TestLinkHandler_Redirect(t *testing.T) {
	service := newMockLinkService()
	service.links["abc123"] = &model.Link{ShortCode: "abc123", OriginalURL: "https://example.com"}
	router := newTestRouter(service)

	t.Run("successful redirect", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/l/abc123", nil, nil)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://example.com", w.Header().Get("Location"))
	})

	t.Run("non-existing link", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/l/notfound", nil, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Link not found", decode(t, w)["message"])
	})

	t.Run("storage error", func(t *testing.T) {
		failing := newMockLinkService()
		failing.failWith = apperrors.NewStorageError("failed to resolve link", errors.New("io"))

		w := doRequest(newTestRouter(failing), http.MethodGet, "/l/abc123", nil, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestLinkHandler_LogsBusinessErrorCode(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	service := newMockLinkService()
	service.failWith = apperrors.NewStorageError("failed to list links", errors.New("disk I/O error"))

	router := gin.New()
	NewLinkHandler(service, logger.New(&buf, "info", "text")).RegisterRoutes(router)

	w := doRequest(router, http.MethodGet, "/api/links", nil, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "code="+apperrors.CodeDatabaseError)
	assert.Contains(t, buf.String(), "kind=storage")
	assert.Contains(t, buf.String(), "disk I/O error")
}
