package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipecost/internal/core/apperror"
	appctx "recipecost/internal/core/context"
	"recipecost/internal/infrastructure/storage/memstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &appctx.UserContext{UserID: "u-1", DisplayName: "Asha", Roles: []string{"costing"}}, nil
}

func TestErrorHandler_AppErrorAndInternal(t *testing.T) {
	r := gin.New()
	r.Use(Trace(), ErrorHandler())
	r.GET("/missing", func(c *gin.Context) {
		_ = c.Error(apperror.NewNotFound("recipe", "r-1"))
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("db exploded"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeNotFound)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db exploded")
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(), Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "kaboom")
}

func TestAuth(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(), Auth(stubValidator{}))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, appctx.ChangedBy(c.Request.Context()))
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "Asha", w.Body.String())
			}
		})
	}
}

func TestOptionalAuthAndUserContext(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(), OptionalAuth(stubValidator{}), UserContext())
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, appctx.ChangedBy(c.Request.Context()))
	})

	call := func(auth, name string) string {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		if name != "" {
			req.Header.Set(HeaderUserName, name)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		return w.Body.String()
	}

	assert.Equal(t, appctx.SystemActor, call("", ""))
	assert.Equal(t, "Ravi", call("", "Ravi"))
	assert.Equal(t, "Ravi", call("Bearer nope", "Ravi"))
	assert.Equal(t, "Asha", call("Bearer good", "Ravi"))
}

func TestRequireRole(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(), OptionalAuth(stubValidator{}))
	r.GET("/costing", RequireRole("costing"), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/admin", RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(path, auth string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, do("/costing", ""))
	assert.Equal(t, http.StatusOK, do("/costing", "Bearer good"))
	assert.Equal(t, http.StatusForbidden, do("/admin", "Bearer good"))
}

func TestIdempotency_ReplaysResponse(t *testing.T) {
	store := memstore.NewIdempotencyStore(time.Minute)
	calls := 0

	r := gin.New()
	r.Use(ErrorHandler(), Idempotency(store))
	r.POST("/quotations", func(c *gin.Context) {
		calls++
		body := gin.H{"number": "QT-00001"}
		if key, s, ok := IdempotencyFrom(c); ok {
			_ = s.CompleteKey(c.Request.Context(), key, http.StatusCreated, "application/json", body)
		}
		c.JSON(http.StatusCreated, body)
	})

	send := func(key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/quotations", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set(HeaderIdempotencyKey, key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := send("k-1", `{"requiredQty":10}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := send("k-1", `{"requiredQty":10}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	mismatch := send("k-1", `{"requiredQty":11}`)
	assert.Equal(t, http.StatusConflict, mismatch.Code)
	assert.Equal(t, 1, calls)

	send("", `{"requiredQty":10}`)
	assert.Equal(t, 2, calls)
}

func TestIdempotency_FailedRequestIsReplayed(t *testing.T) {
	store := memstore.NewIdempotencyStore(time.Minute)
	calls := 0

	r := gin.New()
	r.Use(ErrorHandler(), Idempotency(store))
	r.PUT("/recipes/:id", func(c *gin.Context) {
		calls++
		_ = c.Error(apperror.NewFieldValidation(map[string]string{"name": "name is required"}))
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPut, "/recipes/r-1", strings.NewReader(`{}`))
		req.Header.Set(HeaderIdempotencyKey, "k-2")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "name is required")
	}
	assert.Equal(t, 1, calls)
}

func TestIdempotency_UnreadableBody(t *testing.T) {
	store := memstore.NewIdempotencyStore(time.Minute)
	calls := 0

	r := gin.New()
	r.Use(ErrorHandler(), Idempotency(store))
	r.POST("/quotations", func(c *gin.Context) {
		calls++
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/quotations", iotest.ErrReader(errors.New("connection reset")))
	req.Header.Set(HeaderIdempotencyKey, "k-3")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "failed to read request body")
	assert.Equal(t, 0, calls)
}
