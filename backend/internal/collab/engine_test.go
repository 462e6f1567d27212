package collab

import (
	"encoding/json"
	"testing"
)

func contentJSON(t *testing.T, c *Content) string {
	t.Helper()
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	return string(b)
}

func twoSlideContent() *Content {
	return &Content{Slides: []*Slide{
		{ID: "s1", Elements: []Element{
			{"id": "e1", "type": "text", "content": "Hi"},
		}},
		{ID: "s2", Elements: []Element{
			{"id": "e2", "type": "shape", "shape": "rect"},
		}},
	}}
}

func TestApply_InsertAppends(t *testing.T) {
	c := twoSlideContent()
	c.Apply(Operation{
		Type:       OpInsert,
		Element:    Element{"id": "e3", "type": "image", "src": "logo.png"},
		SlideIndex: 0,
	})

	if got := len(c.Slides[0].Elements); got != 2 {
		t.Fatalf("slide 0 has %d elements, want 2", got)
	}
	if got := c.Slides[0].Elements[1].ID(); got != "e3" {
		t.Fatalf("appended element id = %q, want %q", got, "e3")
	}
	// 其他幻灯片不受影响
	if got := len(c.Slides[1].Elements); got != 1 {
		t.Fatalf("slide 1 has %d elements, want 1", got)
	}
}

func TestApply_InsertOutOfRangeIsNoop(t *testing.T) {
	c := twoSlideContent()
	before := contentJSON(t, c)

	c.Apply(Operation{Type: OpInsert, Element: Element{"id": "e9"}, SlideIndex: 5})
	c.Apply(Operation{Type: OpInsert, Element: Element{"id": "e9"}, SlideIndex: -1})

	if got := contentJSON(t, c); got != before {
		t.Fatalf("content changed on out-of-range insert:\n got %s\nwant %s", got, before)
	}
}

func TestApply_UpdateMergesFields(t *testing.T) {
	c := twoSlideContent()
	c.Apply(Operation{
		Type:      OpUpdate,
		ElementID: "e1",
		Updates:   map[string]any{"content": "Hello", "fontSize": float64(24)},
	})

	el := c.Slides[0].Elements[0]
	if el["content"] != "Hello" {
		t.Fatalf("content = %v, want Hello", el["content"])
	}
	if el["fontSize"] != float64(24) {
		t.Fatalf("fontSize = %v, want 24", el["fontSize"])
	}
	// 未出现在 patch 里的字段保留
	if el["type"] != "text" {
		t.Fatalf("type = %v, want text", el["type"])
	}
}

func TestApply_UpdateScansAllSlides(t *testing.T) {
	// id 重复时：每张幻灯片改第一个匹配，扫描继续到后面的幻灯片
	c := &Content{Slides: []*Slide{
		{Elements: []Element{{"id": "dup", "n": float64(1)}, {"id": "dup", "n": float64(2)}}},
		{Elements: []Element{{"id": "dup", "n": float64(3)}}},
	}}
	c.Apply(Operation{Type: OpUpdate, ElementID: "dup", Updates: map[string]any{"hit": true}})

	if _, ok := c.Slides[0].Elements[0]["hit"]; !ok {
		t.Fatalf("first match on slide 0 not patched")
	}
	if _, ok := c.Slides[0].Elements[1]["hit"]; ok {
		t.Fatalf("second match on slide 0 should not be patched")
	}
	if _, ok := c.Slides[1].Elements[0]["hit"]; !ok {
		t.Fatalf("match on slide 1 not patched")
	}
}

func TestApply_UpdateMissingTargetIsNoop(t *testing.T) {
	c := twoSlideContent()
	before := contentJSON(t, c)
	c.Apply(Operation{Type: OpUpdate, ElementID: "nope", Updates: map[string]any{"x": float64(1)}})
	if got := contentJSON(t, c); got != before {
		t.Fatalf("content changed on missing target update")
	}
}

func TestApply_DeleteIsIdempotent(t *testing.T) {
	c := &Content{Slides: []*Slide{
		{Elements: []Element{{"id": "e1"}, {"id": "kill"}, {"id": "e2"}}},
		{Elements: []Element{{"id": "kill"}}},
	}}

	c.Apply(Operation{Type: OpDelete, ElementID: "kill"})
	once := contentJSON(t, c)
	c.Apply(Operation{Type: OpDelete, ElementID: "kill"})
	twice := contentJSON(t, c)

	if once != twice {
		t.Fatalf("delete not idempotent:\n once %s\ntwice %s", once, twice)
	}
	if got := len(c.Slides[0].Elements); got != 2 {
		t.Fatalf("slide 0 has %d elements, want 2", got)
	}
	if got := len(c.Slides[1].Elements); got != 0 {
		t.Fatalf("slide 1 has %d elements, want 0", got)
	}
	// 幸存元素顺序不变
	if c.Slides[0].Elements[0].ID() != "e1" || c.Slides[0].Elements[1].ID() != "e2" {
		t.Fatalf("survivor order disturbed: %v", c.Slides[0].Elements)
	}
}

func TestApply_MoveMergesPosition(t *testing.T) {
	c := twoSlideContent()
	c.Apply(Operation{
		Type:        OpMove,
		ElementID:   "e2",
		NewPosition: map[string]any{"x": float64(10), "y": float64(20)},
	})

	el := c.Slides[1].Elements[0]
	if el["x"] != float64(10) || el["y"] != float64(20) {
		t.Fatalf("position = (%v, %v), want (10, 20)", el["x"], el["y"])
	}
}

func TestApply_UnknownKindIsNoop(t *testing.T) {
	c := twoSlideContent()
	before := contentJSON(t, c)
	c.Apply(Operation{Type: OpKind("transmogrify"), ElementID: "e1"})
	if got := contentJSON(t, c); got != before {
		t.Fatalf("content changed on unknown op kind")
	}
}

func TestApply_EmptyContent(t *testing.T) {
	c := &Content{}
	before := contentJSON(t, c)
	if before != "{}" {
		t.Fatalf("empty content serializes to %s, want {}", before)
	}
	c.Apply(Operation{Type: OpInsert, Element: Element{"id": "e1"}, SlideIndex: 0})
	if got := contentJSON(t, c); got != before {
		t.Fatalf("insert into empty content must be a no-op, got %s", got)
	}
}
