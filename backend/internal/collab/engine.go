package collab

// Apply 将单个操作应用到内容树。全函数：任何结构合法的 Operation 都不会
// 失败；目标不存在（slideIndex 越界、elementId 不存在、未知类型）时内容
// 保持不变。是否推进 version 由协调器决定，与这里无关。
func (c *Content) Apply(op Operation) {
	switch op.Type {
	case OpInsert:
		c.insertElement(op)
	case OpUpdate:
		c.patchElement(op.ElementID, op.Updates)
	case OpDelete:
		c.deleteElement(op.ElementID)
	case OpMove:
		c.patchElement(op.ElementID, op.NewPosition)
	default:
		// 未知类型：内容不变
	}
}

// insertElement 追加到目标幻灯片末尾（没有按位插入）。
// slideIndex 越界时静默丢弃。
func (c *Content) insertElement(op Operation) {
	if op.Element == nil {
		return
	}
	if op.SlideIndex < 0 || op.SlideIndex >= len(c.Slides) {
		return
	}
	s := c.Slides[op.SlideIndex]
	s.Elements = append(s.Elements, op.Element)
}

// patchElement 对每张幻灯片里第一个 id 匹配的元素做浅合并。
// 扫描不会在首次命中后停止，会继续后面的幻灯片——只有 id 重复时才有区别
// （既定行为，不是可依赖的特性）。
func (c *Content) patchElement(elementID string, patch map[string]any) {
	if elementID == "" || len(patch) == 0 {
		return
	}
	for _, s := range c.Slides {
		for _, el := range s.Elements {
			if el.ID() == elementID {
				el.merge(patch)
				break
			}
		}
	}
}

// deleteElement 从所有幻灯片删除所有 id 匹配的元素，天然幂等。
func (c *Content) deleteElement(elementID string) {
	if elementID == "" {
		return
	}
	for _, s := range c.Slides {
		kept := s.Elements[:0]
		for _, el := range s.Elements {
			if el.ID() != elementID {
				kept = append(kept, el)
			}
		}
		s.Elements = kept
	}
}
