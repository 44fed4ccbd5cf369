package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jack-beanstalk-2022/PistachioMCP/internal/device"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/logger"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/middleware"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/server/dto"
)

// DeviceHandler 设备清单 API Handler
type DeviceHandler struct {
	devices *device.Store
}

// NewDeviceHandler 创建 DeviceHandler
func NewDeviceHandler(devices *device.Store) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

// ListDevices godoc
// @Summary 列出设备
// @Description 列出当前登记的全部设备；refresh=true 时先重新发现
// @Tags Devices
// @Produce json
// @Param refresh query bool false "是否先执行 adb/simctl 发现"
// @Success 200 {object} dto.DeviceListResponse
// @Router /devices [get]
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	if c.Query("refresh") == "true" {
		if err := device.Refresh(c.Request.Context(), h.devices); err != nil {
			// 发现失败不阻断列表返回，已登记的设备仍然可见
			logger.L.Warn().Err(err).Msg("设备发现失败")
		}
	}

	list := h.devices.List()
	c.JSON(http.StatusOK, dto.DeviceListResponse{
		Total:   len(list),
		Devices: list,
	})
}

// UpsertDevice godoc
// @Summary 登记设备
// @Description 手工登记（或更新）一台设备，补充自动发现之外的入口
// @Tags Devices
// @Accept json
// @Produce json
// @Param request body dto.UpsertDeviceRequest true "设备信息"
// @Success 200 {object} device.Info
// @Failure 400 {object} dto.ErrorResponse
// @Router /devices [post]
func (h *DeviceHandler) UpsertDevice(c *gin.Context) {
	var req dto.UpsertDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if !middleware.ValidateDeviceKey(req.Serial) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "serial 格式无效"})
		return
	}

	info, err := h.devices.Upsert(device.Info{
		Serial:    req.Serial,
		Platform:  device.Platform(req.Platform),
		Name:      req.Name,
		State:     req.State,
		IsEnabled: req.IsEnabled,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, info)
}
