// internal/api/responses/responses.go
package responses

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var logger *zap.Logger

// InitLogger wires the process-wide structured logger. Must be called once
// from main before any request is served.
func InitLogger() {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	logger = l
	zap.ReplaceGlobals(l)
}

// Logger returns the shared logger, falling back to a no-op logger so test
// code can use handlers without calling InitLogger.
func Logger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

type envelope struct {
	Status    string      `json:"status"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// OK writes a success envelope around the payload.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{
		Status:    "success",
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Notice writes a success envelope that carries a message instead of data,
// used when a pipeline legitimately produced an empty result.
func Notice(c *gin.Context, message string) {
	c.JSON(http.StatusOK, envelope{
		Status:    "success",
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Error logs the failure and writes an error envelope with the given status.
func Error(c *gin.Context, status int, message string, err error) {
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("path", c.FullPath()),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	Logger().Error(message, fields...)

	c.JSON(status, envelope{
		Status:    "error",
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Attachment streams generated file bytes as a browser download.
func Attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}
