package collab

import (
	"encoding/json"
	"sync"
	"time"
)

// User 文档会话里的一个参与者。
type User struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Color          string          `json:"color"`
	CursorPosition *CursorPosition `json:"cursorPosition"`
	LastSeen       time.Time       `json:"lastSeen"`
	IsActive       bool            `json:"isActive"`
}

type CursorPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DocumentSession 单个文档的权威协作状态。
// mu 同时覆盖 Users 与 Content/Version/LastModified：同文档的 presence
// 广播与内容广播必须看到一致的快照顺序，不能只锁内容不锁成员。
type DocumentSession struct {
	mu           sync.Mutex
	DocumentID   string
	Users        map[string]*User
	Content      *Content
	Version      uint64
	LastModified time.Time
	OwnerID      string
}

// snapshotLocked 在持锁状态下生成对外快照。内容在锁内序列化，
// 之后锁外异步发送也不会观察到中间状态。
func (ds *DocumentSession) snapshotLocked() DocumentStatePayload {
	raw, err := json.Marshal(ds.Content)
	if err != nil {
		raw = []byte("{}")
	}
	users := make(map[string]User, len(ds.Users))
	for id, u := range ds.Users {
		users[id] = *u
	}
	return DocumentStatePayload{
		Content:      raw,
		Version:      ds.Version,
		Users:        users,
		LastModified: ds.LastModified,
	}
}

// SessionStore 进程级会话注册表：会话存在性与查找的唯一事实来源。
// 会话一旦创建便随进程存活（不做空闲驱逐）。
type SessionStore struct {
	mu   sync.RWMutex
	docs map[string]*DocumentSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{docs: make(map[string]*DocumentSession)}
}

// GetOrCreate 幂等，永不返回 nil；首次引用分配空会话（content {}，version 0）。
func (s *SessionStore) GetOrCreate(docID string) *DocumentSession {
	s.mu.RLock()
	ds := s.docs[docID]
	s.mu.RUnlock()
	if ds != nil {
		return ds
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ds = s.docs[docID]; ds == nil {
		ds = &DocumentSession{
			DocumentID:   docID,
			Users:        make(map[string]*User),
			Content:      &Content{},
			LastModified: time.Now(),
		}
		s.docs[docID] = ds
	}
	return ds
}

// Get 只查不建，不存在返回 nil。
func (s *SessionStore) Get(docID string) *DocumentSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[docID]
}

// RemoveUser 把用户从指定会话移除；会话或成员不存在时为 no-op。
// 即使会话变空也不删除会话本身。
func (s *SessionStore) RemoveUser(docID, userID string) {
	ds := s.Get(docID)
	if ds == nil {
		return
	}
	ds.mu.Lock()
	delete(ds.Users, userID)
	ds.mu.Unlock()
}

// ForEachSessionContaining 对每个包含该用户的会话调用一次 fn。
// fn 在该会话的锁内执行：断连清理时“移除成员 + 广播入队”对同文档的
// 其他 handler 是原子的。
func (s *SessionStore) ForEachSessionContaining(userID string, fn func(ds *DocumentSession)) {
	s.mu.RLock()
	sessions := make([]*DocumentSession, 0, len(s.docs))
	for _, ds := range s.docs {
		sessions = append(sessions, ds)
	}
	s.mu.RUnlock()
	for _, ds := range sessions {
		ds.mu.Lock()
		if _, ok := ds.Users[userID]; ok {
			fn(ds)
		}
		ds.mu.Unlock()
	}
}

// Len 当前会话数（健康检查用）。
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
