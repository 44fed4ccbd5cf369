package dto

import (
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/device"
)

// UpsertDeviceRequest 手工登记设备请求（自动发现之外的补充入口）
type UpsertDeviceRequest struct {
	Serial    string `json:"serial" binding:"required" example:"emulator-5554"`
	Platform  string `json:"platform" binding:"required" example:"android"` // android / ios
	Name      string `json:"name,omitempty" example:"Pixel 8 API 34"`
	State     string `json:"state,omitempty" example:"device"`
	IsEnabled bool   `json:"is_enabled" example:"true"`
}

// DeviceListResponse 设备列表响应
type DeviceListResponse struct {
	Total   int           `json:"total" example:"2"`
	Devices []device.Info `json:"devices"`
}
