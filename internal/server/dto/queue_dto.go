package dto

// QueueStatsResponse 准入队列状态
type QueueStatsResponse struct {
	Capacity       int            `json:"capacity" example:"4"`
	Running        int            `json:"running" example:"2"`
	QueueDepth     int            `json:"queue_depth" example:"3"`
	RunningByGroup map[string]int `json:"running_by_group,omitempty"`
}
