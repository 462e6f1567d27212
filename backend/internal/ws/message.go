package ws

import (
	"slideCollab/backend/internal/collab"
)

// ClientMessage 入站事件信封。字段按 type 取用：
//   - join_document:          docId (+ 可选 userName/userEmail 覆盖)
//   - leave_document:         docId
//   - document_change:        docId + operation
//   - cursor_move:            docId + position
//   - typing_start:           docId (+ 可选 elementId)
//   - typing_stop:            docId
//   - request_document_state: docId
type ClientMessage struct {
	Type       string                 `json:"type"`
	DocumentID string                 `json:"docId"`
	UserName   string                 `json:"userName,omitempty"`
	UserEmail  string                 `json:"userEmail,omitempty"`
	Operation  *collab.Operation      `json:"operation,omitempty"`
	Position   *collab.CursorPosition `json:"position,omitempty"`
	ElementID  string                 `json:"elementId,omitempty"`
}

// ServerMessage 出站事件信封：{type, payload}。
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}
