// Package sections normalizes content-section payloads returned by the
// backend and persists edited sections with the create-or-update protocol.
//
// Backend responses for the same section arrive in several shapes: a bare
// object, an array, either of those encoded as a JSON string, and any of them
// wrapped in {data: ...} or {content: ...}. Everything here degrades to empty
// defaults on unexpected input; nothing in this package fails on a malformed
// payload.
package sections

// ShapeKind tags which variant a Shape holds.
type ShapeKind int

const (
	ShapeAbsent ShapeKind = iota
	ShapeSingle
	ShapeList
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeSingle:
		return "single"
	case ShapeList:
		return "list"
	default:
		return "absent"
	}
}

// Shape is the decoded form of one section: Absent, Single(T) or List([]T).
// ID is the backend row id when one was discovered, 0 otherwise.
type Shape[T any] struct {
	Kind  ShapeKind
	ID    int64
	Items []T
}

// Absent returns the empty shape.
func Absent[T any]() Shape[T] {
	return Shape[T]{Kind: ShapeAbsent}
}

// Single wraps one entry.
func Single[T any](id int64, v T) Shape[T] {
	return Shape[T]{Kind: ShapeSingle, ID: id, Items: []T{v}}
}

// List wraps a list of entries. A nil list is normalized to empty.
func List[T any](id int64, items []T) Shape[T] {
	if items == nil {
		items = []T{}
	}
	return Shape[T]{Kind: ShapeList, ID: id, Items: items}
}

// Value returns the single entry, or the zero value when there is none.
// For a list it returns the first element.
func (s Shape[T]) Value() T {
	var zero T
	if len(s.Items) == 0 {
		return zero
	}
	return s.Items[0]
}

// List returns all entries. Absent yields an empty slice.
func (s Shape[T]) List() []T {
	if s.Items == nil {
		return []T{}
	}
	return s.Items
}

// Present reports whether the backend returned anything usable.
func (s Shape[T]) Present() bool {
	return s.Kind != ShapeAbsent
}

// State converts the discovered id into a persistence state.
func (s Shape[T]) State() State {
	return Unknown().Fetched(s.ID)
}
