package collab

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// BroadcastTarget 广播受众。Group 为空表示全局；To 定向单个连接；
// Exclude 从受众中排除一个连接（通常是发送者自己）。
type BroadcastTarget struct {
	Group   string
	To      string
	Exclude string
}

// Broadcaster 外部实时传输协作方提供的端口。协调器自己不开 socket，
// 只通过这个接口管理房间成员与事件下发。
type Broadcaster interface {
	JoinGroup(connID, groupID string)
	LeaveGroup(connID, groupID string)
	Emit(event string, payload any, target BroadcastTarget)
}

// DropHook 静默丢弃的观测钩子。协议层对畸形/越权事件不回错误，
// 但丢弃本身必须可观测。
type DropHook func(event, reason string)

// Coordinator 协议面：每个方法对应一个入站事件，彼此是独立的状态迁移。
// 对同一文档的 读-改-算版本-广播入队 序列都在该会话的锁内完成。
type Coordinator struct {
	store    *SessionStore
	dir      *Directory
	bcast    Broadcaster
	dispatch *KafkaDispatcher
	onDrop   DropHook
}

// NewCoordinator 组装协调器。dispatch 可为 nil（不发 Kafka）；
// onDrop 为 nil 时退化为打日志。
func NewCoordinator(store *SessionStore, dir *Directory, b Broadcaster, dispatch *KafkaDispatcher, onDrop DropHook) *Coordinator {
	if onDrop == nil {
		onDrop = func(event, reason string) {
			log.Printf("event dropped: %s (%s)", event, reason)
		}
	}
	return &Coordinator{store: store, dir: dir, bcast: b, dispatch: dispatch, onDrop: onDrop}
}

// Connect 解析/创建用户，并向其他连接全局通知。
func (co *Coordinator) Connect(connID, suppliedID, name, email string) *User {
	u := co.dir.Resolve(connID, suppliedID, name, email)
	co.bcast.Emit(EvtUserConnected,
		UserConnectedPayload{User: u, ConnID: connID},
		BroadcastTarget{Exclude: connID})
	return u
}

// Disconnect 断连清理：从目录摘除映射，并把用户从其加入过的每个会话
// 同步移除，逐文档广播 user_left。返回受影响的文档 id，供传输层做
// 自己的镜像清理。
func (co *Coordinator) Disconnect(connID string) (string, []string) {
	userID, ok := co.dir.Forget(connID)
	if !ok {
		co.onDrop("disconnect", "connection not tracked")
		return "", nil
	}
	var docIDs []string
	co.store.ForEachSessionContaining(userID, func(ds *DocumentSession) {
		delete(ds.Users, userID)
		docIDs = append(docIDs, ds.DocumentID)
		co.bcast.Emit(EvtUserLeft,
			UserLeftPayload{UserID: userID, DocumentID: ds.DocumentID},
			BroadcastTarget{Group: ds.DocumentID, Exclude: connID})
	})
	return userID, docIDs
}

// JoinDocument 加入文档：懒建会话、登记成员、入房间，
// 给加入者发全量快照，给房间其他人发 user_joined。
func (co *Coordinator) JoinDocument(connID, docID, name, email string) {
	userID, ok := co.dir.UserID(connID)
	if docID == "" || !ok {
		co.onDrop("join_document", "missing documentId or unresolved user")
		return
	}
	u := newUser(userID, name, email)
	ds := co.store.GetOrCreate(docID)
	ds.mu.Lock()
	ds.Users[userID] = u
	snap := ds.snapshotLocked()
	joined := *u
	co.bcast.JoinGroup(connID, docID)
	co.bcast.Emit(EvtDocumentState, snap, BroadcastTarget{To: connID})
	co.bcast.Emit(EvtUserJoined,
		UserJoinedPayload{User: joined, DocumentID: docID},
		BroadcastTarget{Group: docID, Exclude: connID})
	ds.mu.Unlock()
}

// LeaveDocument 离开文档：移除成员、退房间、通知房间其他人。
func (co *Coordinator) LeaveDocument(connID, docID string) {
	userID, ok := co.dir.UserID(connID)
	if docID == "" || !ok {
		co.onDrop("leave_document", "missing documentId or unresolved user")
		return
	}
	co.store.RemoveUser(docID, userID)
	co.bcast.LeaveGroup(connID, docID)
	co.bcast.Emit(EvtUserLeft,
		UserLeftPayload{UserID: userID, DocumentID: docID},
		BroadcastTarget{Group: docID, Exclude: connID})
}

// DocumentChange 应用一次编辑。只有当前在 users 表里的用户能推进文档：
// 非成员的变更被静默丢弃（不加版本、不广播）。结构上被接受的操作
// 即使语义 no-op 也让 version +1。
func (co *Coordinator) DocumentChange(ctx context.Context, connID, docID string, op *Operation) {
	userID, ok := co.dir.UserID(connID)
	if docID == "" || op == nil || !ok {
		co.onDrop("document_change", "missing documentId/operation or unresolved user")
		return
	}
	ds := co.store.GetOrCreate(docID)
	ds.mu.Lock()
	if _, member := ds.Users[userID]; !member {
		ds.mu.Unlock()
		co.onDrop("document_change", "user "+userID+" is not a member of "+docID)
		return
	}
	ds.Content.Apply(*op)
	ds.Version++
	ds.LastModified = time.Now()
	payload := DocumentUpdatedPayload{
		Operation: *op,
		Version:   ds.Version,
		UserID:    userID,
		Timestamp: ds.LastModified,
	}
	co.bcast.Emit(EvtDocumentUpdated, payload, BroadcastTarget{Group: docID, Exclude: connID})
	ds.mu.Unlock()

	if co.dispatch != nil {
		evt := DocOpEvent{
			EventType:   "OP_APPLIED",
			DocID:       docID,
			OperationID: uuid.NewString(),
			Version:     payload.Version,
			UserID:      userID,
			Operation:   *op,
			AppliedAt:   payload.Timestamp,
		}
		if err := co.dispatch.Enqueue(ctx, evt); err != nil {
			log.Printf("kafka enqueue failed doc=%s rev=%d: %v", docID, evt.Version, err)
		}
	}
}

// CursorMove 更新成员光标并转发给房间其他人。
func (co *Coordinator) CursorMove(connID, docID string, pos *CursorPosition) {
	userID, ok := co.dir.UserID(connID)
	if docID == "" || pos == nil || !ok {
		co.onDrop("cursor_move", "missing documentId/position or unresolved user")
		return
	}
	ds := co.store.GetOrCreate(docID)
	ds.mu.Lock()
	u, member := ds.Users[userID]
	if !member {
		ds.mu.Unlock()
		co.onDrop("cursor_move", "user "+userID+" is not a member of "+docID)
		return
	}
	u.CursorPosition = pos
	u.LastSeen = time.Now()
	payload := CursorMovedPayload{UserID: userID, Position: pos, Name: u.Name, Color: u.Color}
	co.bcast.Emit(EvtCursorMoved, payload, BroadcastTarget{Group: docID, Exclude: connID})
	ds.mu.Unlock()
}

// TypingStart / TypingStop 无状态转发，成员校验同 cursor_move。
func (co *Coordinator) TypingStart(connID, docID, elementID string) {
	co.relayTyping(connID, docID, "typing_start", func(u *User) (string, TypingPayload) {
		return EvtUserTyping, TypingPayload{UserID: u.ID, Name: u.Name, Color: u.Color, ElementID: elementID}
	})
}

func (co *Coordinator) TypingStop(connID, docID string) {
	co.relayTyping(connID, docID, "typing_stop", func(u *User) (string, TypingPayload) {
		return EvtUserStoppedTyping, TypingPayload{UserID: u.ID}
	})
}

func (co *Coordinator) relayTyping(connID, docID, event string, build func(u *User) (string, TypingPayload)) {
	userID, ok := co.dir.UserID(connID)
	if docID == "" || !ok {
		co.onDrop(event, "missing documentId or unresolved user")
		return
	}
	ds := co.store.GetOrCreate(docID)
	ds.mu.Lock()
	u, member := ds.Users[userID]
	if !member {
		ds.mu.Unlock()
		co.onDrop(event, "user "+userID+" is not a member of "+docID)
		return
	}
	name, payload := build(u)
	co.bcast.Emit(name, payload, BroadcastTarget{Group: docID, Exclude: connID})
	ds.mu.Unlock()
}

// RequestDocumentState 只回给请求者当前全量快照。
func (co *Coordinator) RequestDocumentState(connID, docID string) {
	userID, ok := co.dir.UserID(connID)
	if docID == "" || !ok {
		co.onDrop("request_document_state", "missing documentId or unresolved user")
		return
	}
	ds := co.store.GetOrCreate(docID)
	ds.mu.Lock()
	if _, member := ds.Users[userID]; !member {
		ds.mu.Unlock()
		co.onDrop("request_document_state", "user "+userID+" is not a member of "+docID)
		return
	}
	snap := ds.snapshotLocked()
	co.bcast.Emit(EvtDocumentState, snap, BroadcastTarget{To: connID})
	ds.mu.Unlock()
}
