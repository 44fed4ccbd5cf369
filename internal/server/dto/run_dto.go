package dto

import (
	"encoding/json"

	"github.com/jack-beanstalk-2022/PistachioMCP/internal/repository"
)

// RunToolRequest 工具调用请求
type RunToolRequest struct {
	ProjectID string          `json:"project_id,omitempty" example:"com.example.app"` // 同一项目的调用串行执行
	Device    string          `json:"device,omitempty" example:"emulator-5554"`       // 非空时执行期间独占该设备
	Args      json.RawMessage `json:"args,omitempty" swaggertype:"object"`
	Async     bool            `json:"async,omitempty"` // true 时立即返回 run_id，通过 /runs/:run_id 查询结果
}

// RunToolResponse 工具调用响应
type RunToolResponse struct {
	RunID   string `json:"run_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status  string `json:"status" example:"success"`
	Summary string `json:"summary,omitempty"`
	Stdout  string `json:"stdout,omitempty"`
	Stderr  string `json:"stderr,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ListRunsResponse 运行列表响应
type ListRunsResponse struct {
	Total int              `json:"total" example:"12"`
	Runs  []repository.Run `json:"runs"`
}
