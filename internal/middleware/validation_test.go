package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestValidateToolNameParam(t *testing.T) {
	tests := []struct {
		name       string
		toolName   string
		wantStatus int
	}{
		{"valid simple", "android_build", http.StatusOK},
		{"valid with digits", "tool123", http.StatusOK},
		{"too short", "ab", http.StatusBadRequest},
		{"uppercase", "AndroidBuild", http.StatusBadRequest},
		{"invalid chars", "tool@123", http.StatusBadRequest},
		{"empty", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/", nil)
			c.Params = gin.Params{{Key: "tool_name", Value: tt.toolName}}

			middleware := ValidateToolNameParam()
			middleware(c)

			if tt.wantStatus == http.StatusOK {
				assert.False(t, c.IsAborted())
			} else {
				assert.True(t, c.IsAborted())
				assert.Equal(t, tt.wantStatus, w.Code)
			}
		})
	}
}

func TestValidateRunIDParam(t *testing.T) {
	tests := []struct {
		name       string
		runID      string
		wantStatus int
	}{
		{"valid uuid", "550e8400-e29b-41d4-a716-446655440000", http.StatusOK},
		{"valid short", "run123", http.StatusOK},
		{"too long", strings.Repeat("a", 129), http.StatusBadRequest},
		{"empty", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/", nil)
			c.Params = gin.Params{{Key: "run_id", Value: tt.runID}}

			middleware := ValidateRunIDParam()
			middleware(c)

			if tt.wantStatus == http.StatusOK {
				assert.False(t, c.IsAborted())
			} else {
				assert.True(t, c.IsAborted())
				assert.Equal(t, tt.wantStatus, w.Code)
			}
		})
	}
}

func TestValidateDeviceKey(t *testing.T) {
	assert.True(t, ValidateDeviceKey("emulator-5554"))
	assert.True(t, ValidateDeviceKey("192.168.1.10:5555"))
	assert.True(t, ValidateDeviceKey("AB5C6DE7-1234-5678-90AB-CDEF12345678"))
	assert.False(t, ValidateDeviceKey(""))
	assert.False(t, ValidateDeviceKey("bad serial"))
	assert.False(t, ValidateDeviceKey(strings.Repeat("a", 65)))
}

func TestValidateProjectID(t *testing.T) {
	assert.True(t, ValidateProjectID("my-app"))
	assert.True(t, ValidateProjectID("com.example.app"))
	assert.False(t, ValidateProjectID(""))
	assert.False(t, ValidateProjectID("bad/project"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  "))
	assert.Equal(t, "ab", SanitizeString("a\x00b"))
	assert.Equal(t, "line", SanitizeString("li\nne"))
}

func TestPayloadSizeLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/", strings.NewReader("body"))
	c.Request.ContentLength = MaxPayloadSize + 1

	middleware := PayloadSizeLimit(MaxPayloadSize)
	middleware(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
