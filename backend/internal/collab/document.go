package collab

// 文档内容树：幻灯片的有序列表，每张幻灯片持有元素的有序列表。
// 元素是自由字段对象（text/image/shape 共用一种表示），字段级
// last-writer-wins 合并要求保留客户端发来的任意字段，所以用 map 而不是
// 固定结构体。

// Element 幻灯片上的一个元素。约定含 "id"（全文档唯一，由调用方赋予）
// 和 "type"（text | image | shape），其余为位置/样式等自由字段。
type Element map[string]any

// ID 返回元素 id，缺失或非字符串时返回空串。
func (e Element) ID() string {
	id, _ := e["id"].(string)
	return id
}

// merge 浅合并：patch 的每个字段直接覆盖同名字段。
func (e Element) merge(patch map[string]any) {
	for k, v := range patch {
		e[k] = v
	}
}

type Slide struct {
	ID       string    `json:"id,omitempty"`
	Elements []Element `json:"elements,omitempty"`
}

// Content 整棵内容树。空文档序列化为 {}。
type Content struct {
	Slides []*Slide `json:"slides,omitempty"`
}
