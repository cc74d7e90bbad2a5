// Package formutil provides helpers for re-rendering forms with errors.
//
// A failed submission re-renders the same form with the user's values echoed
// back, a summary error and per-field messages. Field keys use the bracketed
// form names (meta[canonical_url]) so templates can look them up by the input
// name they already render.
//
//	type userFormData struct {
//		formutil.Base
//		Name  string
//		Email string
//	}
//
//	data := userFormData{Base: formutil.NewBase(r, "Add User", "/users")}
//	data.ApplyError(err, "Could not save the user.")
package formutil

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"github.com/dalemusser/seoadmin/internal/app/system/inputval"
	"github.com/dalemusser/seoadmin/internal/app/system/viewdata"
)

// Base contains common fields for form pages.
type Base struct {
	viewdata.BaseVM
	Error template.HTML

	// Fields maps an input name to its first error message.
	Fields map[string]string
	// Focus is the input name that receives autofocus.
	Focus string
}

// NewBase creates a populated Base for a form page.
func NewBase(r *http.Request, title, backDefault string) Base {
	return Base{BaseVM: viewdata.NewBaseVM(r, title, backDefault)}
}

// SetError sets the summary error message.
func (b *Base) SetError(msg string) {
	b.Error = template.HTML(template.HTMLEscapeString(msg))
}

// FieldError returns the message recorded for the input named name.
func (b Base) FieldError(name string) string {
	return b.Fields[name]
}

// HasFieldError reports whether name has a recorded message.
func (b Base) HasFieldError(name string) bool {
	_, ok := b.Fields[name]
	return ok
}

// Autofocus reports whether name is the first invalid input.
func (b Base) Autofocus(name string) bool {
	return b.Focus != "" && b.Focus == name
}

// SetFieldError records msg against name. The first recorded field keeps focus.
func (b *Base) SetFieldError(name, msg string) {
	if b.Fields == nil {
		b.Fields = map[string]string{}
	}
	if _, exists := b.Fields[name]; !exists {
		b.Fields[name] = msg
	}
	if b.Focus == "" {
		b.Focus = name
	}
}

// ApplyValidation copies local validation results onto the form. Field names
// in the result are used as input names.
func (b *Base) ApplyValidation(res *inputval.Result) {
	if res == nil || !res.HasErrors() {
		return
	}
	for _, fe := range res.Errors {
		b.SetFieldError(fe.Field, fe.Message)
	}
	b.SetError(res.First())
}

// ApplyError maps a backend error onto the form. Validation errors are shown
// inline with the backend's message as the summary; anything else shows
// fallback (or the backend message when it has one). order lists the form's
// inputs top to bottom and decides which invalid field gets focus.
func (b *Base) ApplyError(err error, fallback string, order ...string) {
	if err == nil {
		return
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.HasFields() {
		fields := apiErr.FieldErrors()
		first := apiErr.FirstField(order...)
		if first != "" {
			b.SetFieldError(first, fields[first])
		}
		for name, msg := range fields {
			b.SetFieldError(name, msg)
		}
	}
	b.SetError(backend.UserMessage(err, fallback))
}
