package collab

import "time"

// DocOpEvent 已应用操作的下游事件（按 docId 分区写入 Kafka）。
type DocOpEvent struct {
	EventType   string    `json:"eventType"` // 固定 "OP_APPLIED"
	DocID       string    `json:"docId"`
	OperationID string    `json:"operationId"` // 幂等/追踪用
	Version     uint64    `json:"version"`     // 应用后的最新版本
	UserID      string    `json:"userId"`
	Operation   Operation `json:"operation"`
	AppliedAt   time.Time `json:"appliedAt"`
}
