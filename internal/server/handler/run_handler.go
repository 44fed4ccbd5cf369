package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jack-beanstalk-2022/PistachioMCP/internal/middleware"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/model"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/repository"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/server/dto"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/toolbox"
)

// RunHandler 工具调用与运行历史 API Handler
type RunHandler struct {
	runner *toolbox.Runner
	runs   repository.RunRepository
}

// NewRunHandler 创建 RunHandler
func NewRunHandler(runner *toolbox.Runner, runs repository.RunRepository) *RunHandler {
	return &RunHandler{
		runner: runner,
		runs:   runs,
	}
}

// RunTool godoc
// @Summary 调用工具
// @Description 通过准入队列调用指定工具：同一 project_id 串行、指定 device 时独占设备。
// @Description async=true 时立即返回 run_id，结果通过 /runs/:run_id 查询。
// @Tags Tools
// @Accept json
// @Produce json
// @Param tool_name path string true "工具名称"
// @Param request body dto.RunToolRequest true "调用参数"
// @Success 200 {object} dto.RunToolResponse
// @Success 202 {object} dto.RunToolResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /tools/{tool_name} [post]
func (h *RunHandler) RunTool(c *gin.Context) {
	toolName := c.Param("tool_name")

	var req dto.RunToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if req.ProjectID != "" && !middleware.ValidateProjectID(req.ProjectID) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "project_id 格式无效"})
		return
	}
	if req.Device != "" && !middleware.ValidateDeviceKey(req.Device) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "device 格式无效"})
		return
	}

	runID, future, err := h.runner.Submit(toolName, req.ProjectID, req.Device, req.Args)
	if err != nil {
		// Submit 只有工具未注册会同步失败
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if req.Async {
		c.JSON(http.StatusAccepted, dto.RunToolResponse{
			RunID:  runID,
			Status: string(model.RunStatusPending),
		})
		return
	}

	out, err := future.Wait(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, dto.RunToolResponse{
			RunID:  runID,
			Status: string(model.RunStatusFail),
			Error:  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.RunToolResponse{
		RunID:   runID,
		Status:  string(model.RunStatusSuccess),
		Summary: out.Summary,
		Stdout:  out.Stdout,
		Stderr:  out.Stderr,
	})
}

// ListRuns godoc
// @Summary 列出运行记录
// @Description 按条件列出工具运行历史（按创建时间倒序）
// @Tags Runs
// @Produce json
// @Param tool query string false "工具名称"
// @Param project_id query string false "项目标识"
// @Param device query string false "设备标识"
// @Param status query string false "运行状态" Enums(pending, running, success, fail)
// @Param limit query int false "返回条数，默认 50"
// @Param offset query int false "偏移量"
// @Success 200 {object} dto.ListRunsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /runs [get]
func (h *RunHandler) ListRuns(c *gin.Context) {
	f := repository.ListRunsFilter{
		Tool:      c.Query("tool"),
		ProjectID: c.Query("project_id"),
		Device:    c.Query("device"),
		Status:    c.Query("status"),
	}

	if f.Status != "" && !model.RunStatus(f.Status).Valid() {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "status 取值无效"})
		return
	}

	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.Offset = n
		}
	}

	runs, err := h.runs.ListRuns(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.ListRunsResponse{
		Total: len(runs),
		Runs:  runs,
	})
}

// GetRun godoc
// @Summary 查询运行记录
// @Description 按 run_id 查询单条运行记录
// @Tags Runs
// @Produce json
// @Param run_id path string true "运行 ID"
// @Success 200 {object} repository.Run
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /runs/{run_id} [get]
func (h *RunHandler) GetRun(c *gin.Context) {
	runID := c.Param("run_id")

	run, err := h.runs.GetRun(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "run 不存在"})
		return
	}

	c.JSON(http.StatusOK, run)
}
