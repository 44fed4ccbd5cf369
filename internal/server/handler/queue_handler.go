package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jack-beanstalk-2022/PistachioMCP/internal/server/dto"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/toolbox"
)

// QueueHandler 队列观测 API Handler
type QueueHandler struct {
	runner *toolbox.Runner
}

// NewQueueHandler 创建 QueueHandler
func NewQueueHandler(runner *toolbox.Runner) *QueueHandler {
	return &QueueHandler{runner: runner}
}

// GetQueueStats godoc
// @Summary 查询队列状态
// @Description 获取准入队列的容量、运行数、等待数和各项目占用快照
// @Tags Queue
// @Produce json
// @Success 200 {object} dto.QueueStatsResponse
// @Router /queue/stats [get]
func (h *QueueHandler) GetQueueStats(c *gin.Context) {
	q := h.runner.Queue()
	c.JSON(http.StatusOK, dto.QueueStatsResponse{
		Capacity:       q.Capacity(),
		Running:        q.RunningCount(),
		QueueDepth:     q.QueueDepth(),
		RunningByGroup: q.RunningByGroup(),
	})
}
