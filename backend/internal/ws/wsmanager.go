package ws

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"slideCollab/backend/internal/collab"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// 允许本地开发环境的来源；一些环境不发 Origin 或发 "null"。
var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "null" {
		return true
	}
	allowedPrefixes := []string{
		"http://localhost",
		"http://127.0.0.1",
		"https://localhost",
		"https://127.0.0.1",
	}
	for _, p := range allowedPrefixes {
		if strings.HasPrefix(origin, p) {
			return true
		}
	}
	return false
}}

type Manager struct {
	hub *Hub
	co  *collab.Coordinator
	sem *collab.SemaphoreControl
}

func NewManager(hub *Hub, co *collab.Coordinator, sem *collab.SemaphoreControl) *Manager {
	return &Manager{hub: hub, co: co, sem: sem}
}

// WebSocketConnect 升级连接并跑完整个连接生命周期。
// 身份来自查询参数（鉴权不在本服务范围内）：userId 缺省时由目录生成。
func (m *Manager) WebSocketConnect(c *gin.Context) {
	suppliedID := c.Query("userId")
	name := c.Query("userName")
	email := c.Query("userEmail")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v (origin=%s)", err, c.Request.Header.Get("Origin"))
		return
	}
	defer conn.Close()

	wsConn := NewConn(conn, m.hub, m.co, m.sem)
	m.hub.Register(wsConn)

	// 先启动写循环，确保 connect 广播与后续入队的消息能被及时发送
	go wsConn.writeLoop()
	wsConn.user = m.co.Connect(wsConn.id, suppliedID, name, email)

	// 读循环（阻塞至连接关闭）
	wsConn.readLoop(c.Request.Context())

	// 清理顺序固定：先退房间（之后不会再有消息入队），
	// 再做目录/会话清理与 user_left 广播，最后关发送通道结束写循环。
	m.hub.Unregister(wsConn)
	_, docIDs := m.co.Disconnect(wsConn.id)
	if m.hub.presence != nil && wsConn.user != nil && len(docIDs) > 0 {
		// 请求上下文此时可能已取消，镜像清理用独立的短超时
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for _, docID := range docIDs {
			if err := m.hub.presence.RemoveMember(cleanupCtx, docID, wsConn.user.ID); err != nil {
				log.Printf("presence mirror remove failed doc=%s user=%s: %v", docID, wsConn.user.ID, err)
			}
		}
	}
	close(wsConn.send)
}
