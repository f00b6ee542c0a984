package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CacheControl marks successful responses as publicly cacheable for maxAgeSeconds.
// Error responses are sent with no-store so a transient upstream failure is not cached.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	value := fmt.Sprintf("public, max-age=%d", maxAgeSeconds)

	return func(c *gin.Context) {
		c.Writer = &cacheControlWriter{ResponseWriter: c.Writer, value: value}
		c.Next()
	}
}

// cacheControlWriter decides the header once the status is known.
type cacheControlWriter struct {
	gin.ResponseWriter
	value string
}

func (w *cacheControlWriter) WriteHeader(code int) {
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		w.Header().Set("Cache-Control", w.value)
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
	w.ResponseWriter.WriteHeader(code)
}
