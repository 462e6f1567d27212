package ws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"slideCollab/backend/internal/collab"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// presenceTTL Redis 镜像里成员/光标的逻辑存活时长。
const presenceTTL = 600 * time.Second

// Conn 一条 websocket 连接。id 同时充当协调器侧的连接句柄与
// 房间成员句柄。
type Conn struct {
	ws   *websocket.Conn
	hub  *Hub
	id   string
	user *collab.User
	co   *collab.Coordinator
	sem  *collab.SemaphoreControl
	send chan ServerMessage
}

func NewConn(ws *websocket.Conn, hub *Hub, co *collab.Coordinator, sem *collab.SemaphoreControl) *Conn {
	return &Conn{
		ws:   ws,
		hub:  hub,
		id:   uuid.NewString(),
		co:   co,
		sem:  sem,
		send: make(chan ServerMessage, 32),
	}
}

// enqueue 非阻塞入队；队列满则丢弃该消息。
func (c *Conn) enqueue(msg ServerMessage) {
	select {
	case c.send <- msg:
	default:
	}
}

// readLoop 阻塞读取入站事件直到连接关闭。每条消息对应协调器的一个
// 独立状态迁移；镜像写都是尽力而为。
func (c *Conn) readLoop(ctx context.Context) {
	for {
		var msg ClientMessage
		if err := c.ws.ReadJSON(&msg); err != nil {
			log.Printf("read json error (conn=%s): %v", c.id, err)
			return
		}
		switch msg.Type {
		case "join_document":
			name, email := c.identity(msg)
			c.co.JoinDocument(c.id, msg.DocumentID, name, email)
			c.mirrorJoin(ctx, msg.DocumentID, name)

		case "leave_document":
			c.co.LeaveDocument(c.id, msg.DocumentID)
			c.mirrorLeave(ctx, msg.DocumentID)

		case "document_change":
			c.handleDocumentChange(ctx, msg)

		case "cursor_move":
			c.co.CursorMove(c.id, msg.DocumentID, msg.Position)
			c.mirrorCursor(ctx, msg.DocumentID, msg.Position)

		case "typing_start":
			c.co.TypingStart(c.id, msg.DocumentID, msg.ElementID)

		case "typing_stop":
			c.co.TypingStop(c.id, msg.DocumentID)

		case "request_document_state":
			c.co.RequestDocumentState(c.id, msg.DocumentID)

		default:
			c.enqueue(ServerMessage{Type: "ignored", Payload: "unknown message type"})
		}
	}
}

// handleDocumentChange 对编辑事件做进程级限流：200ms 内拿不到
// 信号量就回一条 error，不触碰会话状态。
func (c *Conn) handleDocumentChange(ctx context.Context, msg ClientMessage) {
	opCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()

	if err := c.sem.Acquire(opCtx); err != nil {
		c.enqueue(ServerMessage{Type: "error", Payload: err.Error()})
		return
	}
	defer c.sem.Release()

	c.co.DocumentChange(opCtx, c.id, msg.DocumentID, msg.Operation)
}

// identity join 时允许消息体覆盖连接级身份（原行为）。
func (c *Conn) identity(msg ClientMessage) (name, email string) {
	name, email = msg.UserName, msg.UserEmail
	if c.user != nil {
		if name == "" {
			name = c.user.Name
		}
		if email == "" {
			email = c.user.Email
		}
	}
	return name, email
}

func (c *Conn) mirrorJoin(ctx context.Context, docID, name string) {
	if c.hub.presence == nil || c.user == nil || docID == "" {
		return
	}
	if err := c.hub.presence.AddMember(ctx, docID, c.user.ID, name, presenceTTL); err != nil {
		log.Printf("presence mirror add failed doc=%s user=%s: %v", docID, c.user.ID, err)
	}
}

func (c *Conn) mirrorLeave(ctx context.Context, docID string) {
	if c.hub.presence == nil || c.user == nil || docID == "" {
		return
	}
	if err := c.hub.presence.RemoveMember(ctx, docID, c.user.ID); err != nil {
		log.Printf("presence mirror remove failed doc=%s user=%s: %v", docID, c.user.ID, err)
	}
}

func (c *Conn) mirrorCursor(ctx context.Context, docID string, pos *collab.CursorPosition) {
	if c.hub.presence == nil || c.user == nil || docID == "" || pos == nil {
		return
	}
	b, err := json.Marshal(pos)
	if err != nil {
		return
	}
	if err := c.hub.presence.SetCursor(ctx, docID, c.user.ID, b, presenceTTL); err != nil {
		log.Printf("presence mirror cursor failed doc=%s user=%s: %v", docID, c.user.ID, err)
	}
}

// writeLoop 持续消费发送通道直到通道关闭。
func (c *Conn) writeLoop() {
	for msg := range c.send {
		_ = c.ws.WriteJSON(msg)
	}
}
