package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/billing-core/internal/config"
)

func TestCORSExposesReplayHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORSMiddleware(&config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}}))
	router.POST("/pay", func(c *gin.Context) {
		c.Header(IdempotencyReplayedHeader, "true")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/pay", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	exposed := w.Header().Get("Access-Control-Expose-Headers")
	if !strings.Contains(exposed, IdempotencyReplayedHeader) {
		t.Errorf("Access-Control-Expose-Headers = %q, want %s", exposed, IdempotencyReplayedHeader)
	}
}

func TestCORSAllowsIdempotencyKeyWithCustomHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORSMiddleware(&config.CORSConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	router.POST("/pay", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/pay", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	allowed := w.Header().Get("Access-Control-Allow-Headers")
	if !strings.Contains(allowed, IdempotencyKeyHeader) {
		t.Errorf("Access-Control-Allow-Headers = %q, want %s", allowed, IdempotencyKeyHeader)
	}
}
