// Package inputval validates form input with waffle/pantry/validate.
//
// Define an input struct whose json tags match the form input names, add
// validate and label tags, then call Validate. Field names in the Result are
// the json names, so they can be handed straight to formutil.
//
//	type userInput struct {
//	    Name  string `json:"name" validate:"required,max=200" label:"Name"`
//	    Email string `json:"email" validate:"required,email" label:"Email"`
//	}
package inputval

import (
	"net/mail"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
)

// Result holds validation results with user-friendly messages.
type Result struct {
	Errors []FieldError
}

// FieldError represents a validation error for a single field.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first error message, or "".
func (r *Result) First() string {
	if len(r.Errors) > 0 {
		return r.Errors[0].Message
	}
	return ""
}

// All returns all error messages joined with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Add appends an error found outside struct validation.
func (r *Result) Add(field, label, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Label: label, Message: message})
}

var (
	customValidator *validate.Validator
	validatorOnce   sync.Once
)

func getValidator() *validate.Validator {
	validatorOnce.Do(func() {
		customValidator = validate.New(validate.WithStopOnFirstError())

		// httpurl: an http or https URL
		customValidator.RegisterRuleFunc("httpurl", func(value any) bool {
			s, ok := value.(string)
			return ok && IsValidHTTPURL(s)
		}, "httpurl")

		// weburl: empty, or an http or https URL
		customValidator.RegisterRuleFunc("weburl", func(value any) bool {
			s, ok := value.(string)
			return ok && (strings.TrimSpace(s) == "" || IsValidHTTPURL(s))
		}, "weburl")

		// slug: lowercase words joined by hyphens, optionally nested with '/'
		customValidator.RegisterRuleFunc("slug", func(value any) bool {
			s, ok := value.(string)
			return ok && IsValidSlug(s)
		}, "slug")
	})
	return customValidator
}

// Validate validates a struct and returns a Result with user-friendly errors.
//
// Rules from pantry/validate: required, email, oneof, min, max.
// Rules registered here:
//   - httpurl: an http:// or https:// URL
//   - weburl: like httpurl but empty is allowed
//   - slug: a URL slug such as "plumbing/emergency-repairs"
func Validate(s any) *Result {
	result := &Result{}

	err := getValidator().Struct(s)
	if err == nil {
		return result
	}

	labels := getFieldLabels(s)
	if errs, ok := err.(validate.Errors); ok {
		for _, e := range errs {
			label := labels[e.Field]
			if label == "" {
				label = e.Field
			}
			result.Add(e.Field, label, formatMessage(label, e.Rule, e.Param))
		}
	}
	return result
}

// getFieldLabels maps json field names to their label tags.
func getFieldLabels(s any) map[string]string {
	labels := make(map[string]string)

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return labels
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			if n, _, _ := strings.Cut(tag, ","); n != "" && n != "-" {
				name = n
			}
		}
		if label := field.Tag.Get("label"); label != "" {
			labels[name] = label
		}
	}
	return labels
}

func formatMessage(label, rule, param string) string {
	switch rule {
	case "required":
		return label + " is required."
	case "email":
		return "A valid email address is required."
	case "oneof", "enum":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	case "min":
		return label + " must be at least " + param + " characters."
	case "max":
		return label + " must be at most " + param + " characters."
	case "httpurl", "weburl":
		return label + " must be a valid URL starting with http:// or https://."
	case "slug":
		return label + " may only contain lowercase letters, numbers, hyphens and slashes."
	default:
		return label + " is invalid."
	}
}

// ValidatePassword checks a password change before it is sent: both fields
// present, minimum length and matching confirmation.
func ValidatePassword(pc models.PasswordChange) *Result {
	res := &Result{}
	switch {
	case pc.Password == "":
		res.Add("password", "Password", "Password is required.")
	case len([]rune(pc.Password)) < models.MinPasswordLength:
		res.Add("password", "Password", formatMessage("Password", "min", strconv.Itoa(models.MinPasswordLength)))
	}
	switch {
	case pc.PasswordConfirmation == "":
		res.Add("password_confirmation", "Confirm password", "Please confirm the password.")
	case pc.Password != "" && pc.Password != pc.PasswordConfirmation:
		res.Add("password_confirmation", "Confirm password", "Passwords do not match.")
	}
	return res
}

// IsValidEmail checks for a bare RFC 5322 address (no display name).
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email
}

// IsValidHTTPURL checks if the given string is a valid http:// or https:// URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

var slugRE = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*(?:/[a-z0-9]+(?:-[a-z0-9]+)*)*$`)

// IsValidSlug reports whether s is a lowercase hyphenated slug.
func IsValidSlug(s string) bool {
	return slugRE.MatchString(strings.TrimSpace(s))
}
