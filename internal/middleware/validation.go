package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// MaxPayloadSize 最大 payload 大小（2MB）
	MaxPayloadSize = 2 * 1024 * 1024
)

var (
	// ToolNameRegex 工具名称正则（小写字母数字下划线，3-64字符）
	ToolNameRegex = regexp.MustCompile(`^[a-z0-9_]{3,64}$`)

	// ProjectIDRegex 项目标识正则（字母数字下划线连字符点，1-128字符）
	ProjectIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,128}$`)

	// DeviceKeyRegex 设备标识正则（adb 序列号 / 模拟器 UDID，1-64字符）
	DeviceKeyRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:-]{1,64}$`)

	// RunIDRegex RunID 正则（字母数字连字符，1-128字符）
	RunIDRegex = regexp.MustCompile(`^[a-zA-Z0-9-]{1,128}$`)
)

// PayloadSizeLimit Payload 大小限制中间件
func PayloadSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "请求体过大，最大允许 2MB",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ValidateToolName 验证工具名称
func ValidateToolName(toolName string) bool {
	return ToolNameRegex.MatchString(toolName)
}

// ValidateProjectID 验证项目标识
func ValidateProjectID(projectID string) bool {
	return ProjectIDRegex.MatchString(projectID)
}

// ValidateDeviceKey 验证设备标识
func ValidateDeviceKey(deviceKey string) bool {
	return DeviceKeyRegex.MatchString(deviceKey)
}

// ValidateRunID 验证 Run ID
func ValidateRunID(runID string) bool {
	return RunIDRegex.MatchString(runID)
}

// SanitizeString 清理字符串（去除危险字符）
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)

	// 去除控制字符
	var builder strings.Builder
	for _, r := range s {
		if r >= 32 && r != 127 {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// ValidateToolNameParam Gin 中间件：验证路径参数中的 tool_name
func ValidateToolNameParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		toolName := c.Param("tool_name")
		if toolName == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "tool_name 参数缺失",
			})
			c.Abort()
			return
		}

		if !ValidateToolName(toolName) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "tool_name 格式无效，必须是3-64个小写字母、数字或下划线",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// ValidateRunIDParam Gin 中间件：验证路径参数中的 run_id
func ValidateRunIDParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		runID := c.Param("run_id")
		if runID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "run_id 参数缺失",
			})
			c.Abort()
			return
		}

		if !ValidateRunID(runID) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "run_id 格式无效，必须是1-128个字母、数字或连字符",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// CORSMiddleware CORS 中间件（内部系统可选）
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
