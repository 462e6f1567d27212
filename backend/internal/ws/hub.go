package ws

import (
	"sync"

	"slideCollab/backend/internal/cache"
	"slideCollab/backend/internal/collab"
)

// Hub 连接注册表 + 文档房间，实现协调器的 collab.Broadcaster 端口。
// presence 是可选的 Redis 镜像（nil 表示不镜像），权威成员关系始终在
// 会话存储里。
type Hub struct {
	presence cache.PresenceCache

	mu sync.RWMutex
	// 房间里存连接而不是 userID：一个用户可开多个标签页/设备，
	// 广播要逐连接发。
	conns map[string]*Conn            // connID -> conn
	rooms map[string]map[string]*Conn // docID -> connID -> conn
}

func NewHub(p cache.PresenceCache) *Hub {
	return &Hub{
		presence: p,
		conns:    make(map[string]*Conn),
		rooms:    make(map[string]map[string]*Conn),
	}
}

// Register 登记新连接（升级成功后、事件处理前调用）。
func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
}

// Unregister 摘除连接并退出其所有房间。返回后 Hub 不再持有该连接，
// 调用方可以安全关闭发送通道。
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c.id)
	for docID, room := range h.rooms {
		delete(room, c.id)
		if len(room) == 0 {
			delete(h.rooms, docID)
		}
	}
}

func (h *Hub) JoinGroup(connID, groupID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := h.conns[connID]
	if c == nil {
		return
	}
	if h.rooms[groupID] == nil {
		h.rooms[groupID] = make(map[string]*Conn)
	}
	h.rooms[groupID][connID] = c
}

func (h *Hub) LeaveGroup(connID, groupID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[groupID]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(h.rooms, groupID)
		}
	}
}

// Emit 非阻塞下发：逐连接入队，队列满的连接丢消息。
func (h *Hub) Emit(event string, payload any, t collab.BroadcastTarget) {
	msg := ServerMessage{Type: event, Payload: payload}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if t.To != "" {
		if c := h.conns[t.To]; c != nil {
			c.enqueue(msg)
		}
		return
	}
	targets := h.conns
	if t.Group != "" {
		targets = h.rooms[t.Group]
	}
	for id, c := range targets {
		if id == t.Exclude {
			continue
		}
		c.enqueue(msg)
	}
}
