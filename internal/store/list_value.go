package store

import "container/list"

// ListValue is a double-ended sequence of byte strings (§3, §4.2). It is
// backed by container/list so push/pop at either end is O(1), matching the
// "front/back push and pop" contract without the O(n) shifting a plain
// slice-backed deque would need.
type ListValue struct {
	l *list.List
}

// NewListValue returns an empty list.
func NewListValue() *ListValue {
	return &ListValue{l: list.New()}
}

func (*ListValue) Kind() Kind { return KindList }

// PushFront prepends b.
func (lv *ListValue) PushFront(b []byte) {
	lv.l.PushFront(append([]byte(nil), b...))
}

// PushBack appends b.
func (lv *ListValue) PushBack(b []byte) {
	lv.l.PushBack(append([]byte(nil), b...))
}

// PopFront removes and returns the first element.
func (lv *ListValue) PopFront() ([]byte, bool) {
	e := lv.l.Front()
	if e == nil {
		return nil, false
	}
	lv.l.Remove(e)
	return e.Value.([]byte), true
}

// PopBack removes and returns the last element.
func (lv *ListValue) PopBack() ([]byte, bool) {
	e := lv.l.Back()
	if e == nil {
		return nil, false
	}
	lv.l.Remove(e)
	return e.Value.([]byte), true
}

// Len returns the number of elements.
func (lv *ListValue) Len() int { return lv.l.Len() }

// Iter returns the elements from front to back.
func (lv *ListValue) Iter() [][]byte {
	out := make([][]byte, 0, lv.l.Len())
	for e := lv.l.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.([]byte))
	}
	return out
}

// Index returns the element at a zero-based index from the front, or
// (nil, false) if out of range. Negative indices count from the back.
func (lv *ListValue) Index(i int) ([]byte, bool) {
	n := lv.l.Len()
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return nil, false
	}
	e := lv.l.Front()
	for ; i > 0; i-- {
		e = e.Next()
	}
	return e.Value.([]byte), true
}
