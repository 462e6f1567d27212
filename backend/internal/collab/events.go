package collab

import (
	"encoding/json"
	"time"
)

// 出站事件名。与入站事件一一对应的见 coordinator 各 handler。
const (
	EvtUserConnected     = "user_connected"
	EvtUserJoined        = "user_joined"
	EvtUserLeft          = "user_left"
	EvtDocumentState     = "document_state"
	EvtDocumentUpdated   = "document_updated"
	EvtCursorMoved       = "cursor_moved"
	EvtUserTyping        = "user_typing"
	EvtUserStoppedTyping = "user_stopped_typing"
)

type UserConnectedPayload struct {
	User   *User  `json:"user"`
	ConnID string `json:"connId"`
}

type UserJoinedPayload struct {
	User       User   `json:"user"`
	DocumentID string `json:"docId"`
}

type UserLeftPayload struct {
	UserID     string `json:"userId"`
	DocumentID string `json:"docId"`
}

// DocumentStatePayload 全量快照。Content 在会话锁内序列化好，
// 发送方不会再读会话状态。
type DocumentStatePayload struct {
	Content      json.RawMessage `json:"content"`
	Version      uint64          `json:"version"`
	Users        map[string]User `json:"users"`
	LastModified time.Time       `json:"lastModified"`
}

type DocumentUpdatedPayload struct {
	Operation Operation `json:"operation"`
	Version   uint64    `json:"version"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

type CursorMovedPayload struct {
	UserID   string          `json:"userId"`
	Position *CursorPosition `json:"position"`
	Name     string          `json:"name"`
	Color    string          `json:"color"`
}

type TypingPayload struct {
	UserID    string `json:"userId"`
	Name      string `json:"name,omitempty"`
	Color     string `json:"color,omitempty"`
	ElementID string `json:"elementId,omitempty"`
}
