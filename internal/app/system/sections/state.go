package sections

import (
	"net/http"
	"strconv"
	"strings"
)

// StateKind is the persistence state of one section on one page.
type StateKind int

const (
	StateUnknown StateKind = iota
	StateAbsent
	StateExisting
)

// State tracks whether a section row exists on the backend.
//
//	Unknown  --fetch--> Absent | Existing(id)
//	Absent   --save-->  Existing(id)
//	Existing --save-->  Existing(id)
//
// The zero value is Unknown.
type State struct {
	kind StateKind
	id   int64
}

// Unknown is the state before the section has been fetched.
func Unknown() State { return State{} }

// Existing is the state of a section whose backend id is known.
func Existing(id int64) State {
	if id <= 0 {
		return State{kind: StateAbsent}
	}
	return State{kind: StateExisting, id: id}
}

// Fetched applies a fetch result. An id of 0 means no row exists yet.
// A state that already knows its id keeps it.
func (s State) Fetched(id int64) State {
	if s.kind == StateExisting {
		return s
	}
	return Existing(id)
}

// Saved applies a successful save that reported id (0 when the response
// carried none). An Existing state keeps its id unless the backend reports
// a different one.
func (s State) Saved(id int64) State {
	if id > 0 {
		return Existing(id)
	}
	if s.kind == StateExisting {
		return s
	}
	return State{kind: StateAbsent}
}

// Kind returns the state tag.
func (s State) Kind() StateKind { return s.kind }

// ID returns the section id and whether it is known.
func (s State) ID() (int64, bool) {
	return s.id, s.kind == StateExisting
}

// Method returns the HTTP method the next save uses.
func (s State) Method() string {
	if s.kind == StateExisting {
		return http.MethodPut
	}
	return http.MethodPost
}

// formUnknown marks a section whose fetch failed.
const formUnknown = "unknown"

// FormValue encodes the state for a hidden form field.
func (s State) FormValue() string {
	switch s.kind {
	case StateExisting:
		return strconv.FormatInt(s.id, 10)
	case StateAbsent:
		return ""
	default:
		return formUnknown
	}
}

// ParseState decodes a hidden form field written by FormValue.
// A blank or invalid value means no row is known.
func ParseState(v string) State {
	v = strings.TrimSpace(v)
	if v == formUnknown {
		return Unknown()
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return State{kind: StateAbsent}
	}
	return Existing(id)
}

func (s State) String() string {
	switch s.kind {
	case StateAbsent:
		return "absent"
	case StateExisting:
		return "existing(" + strconv.FormatInt(s.id, 10) + ")"
	default:
		return "unknown"
	}
}
