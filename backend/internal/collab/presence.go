package collab

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// 固定调色板：同一 userID 在进程内始终映射同一颜色。
var userColors = [...]string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
}

// ColorFor 按 userID 的 FNV 哈希从调色板取色。
func ColorFor(userID string) string {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return userColors[h.Sum32()%uint32(len(userColors))]
}

// Directory 进程内的 连接 -> 用户 目录（Presence Directory）。
// 只负责身份解析与颜色分配，不触碰文档会话。
type Directory struct {
	mu    sync.RWMutex
	users map[string]string // connID -> userID
}

func NewDirectory() *Directory {
	return &Directory{users: make(map[string]string)}
}

// Resolve 把连接解析成 User：suppliedID 为空时生成新 uuid。
// 同一连接重复调用会覆盖映射。
func (d *Directory) Resolve(connID, suppliedID, name, email string) *User {
	userID := suppliedID
	if userID == "" {
		userID = uuid.NewString()
	}
	d.mu.Lock()
	d.users[connID] = userID
	d.mu.Unlock()
	return newUser(userID, name, email)
}

// UserID 查询连接对应的用户。
func (d *Directory) UserID(connID string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	userID, ok := d.users[connID]
	return userID, ok
}

// Forget 丢弃连接映射（断连时调用），返回之前映射的用户。
func (d *Directory) Forget(connID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	userID, ok := d.users[connID]
	if ok {
		delete(d.users, connID)
	}
	return userID, ok
}

// Len 当前被跟踪的连接数（健康检查用）。
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}

func newUser(userID, name, email string) *User {
	if name == "" {
		name = "Anonymous"
	}
	return &User{
		ID:       userID,
		Name:     name,
		Email:    email,
		Color:    ColorFor(userID),
		LastSeen: time.Now(),
		IsActive: true,
	}
}
