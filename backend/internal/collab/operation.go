package collab

// OpKind 操作类型。封闭集合：新增类型必须在 Content.Apply 中显式加 case，
// 避免落入被静默忽略的 default 分支。
type OpKind string

const (
	OpInsert OpKind = "insert"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
	OpMove   OpKind = "move"
)

// Operation 一次编辑请求。字段按 Type 取用：
//   - insert: Element + SlideIndex
//   - update: ElementID + Updates
//   - delete: ElementID
//   - move:   ElementID + NewPosition
//
// 不携带因果元数据（无 base version、无 per-client 时钟），
// 应用顺序就是到达协调器的顺序。
type Operation struct {
	Type        OpKind         `json:"type"`
	ElementID   string         `json:"elementId,omitempty"`
	Element     Element        `json:"element,omitempty"`
	Updates     map[string]any `json:"updates,omitempty"`
	NewPosition map[string]any `json:"newPosition,omitempty"`
	SlideIndex  int            `json:"slideIndex"`
}
