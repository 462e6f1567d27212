package cache

import "fmt"

// 键语义：
// - roomKey(docID):   房间在线成员（ZSet<userID, expireAtUnix>，score=逻辑过期时间）
// - namesKey(docID):  房间内 userID -> username 映射（Hash）
// - cursorKey:        单个用户的光标 JSON（带 TTL 的 String）

const (
	keyRoomFmt   = "presence:room:{docID:%s}"       // ZSet<userID, expireAtUnix>
	keyNamesFmt  = "presence:room:names:{docID:%s}" // Hash<userID -> username>
	keyCursorFmt = "presence:cursor:%s:%s"          // String（JSON 光标）
)

func roomKey(docID string) string           { return fmt.Sprintf(keyRoomFmt, docID) }
func namesKey(docID string) string          { return fmt.Sprintf(keyNamesFmt, docID) }
func cursorKey(docID, userID string) string { return fmt.Sprintf(keyCursorFmt, docID, userID) }
