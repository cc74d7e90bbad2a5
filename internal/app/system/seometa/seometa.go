// Package seometa describes the editable SEO meta fields of a page and checks
// their values before a page is saved.
//
// The field catalog is an embedded YAML file; schema markup is checked
// against an embedded JSON Schema for JSON-LD documents.
package seometa

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/dalemusser/seoadmin/internal/app/system/inputval"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed fields.yaml
var fieldsYAML []byte

//go:embed schema_markup.json
var schemaMarkupJSON []byte

// Field kinds.
const (
	KindText     = "text"
	KindTextarea = "textarea"
	KindTags     = "tags"
	KindURL      = "url"
	KindLanguage = "language"
	KindSelect   = "select"
	KindJSON     = "json"
)

// Field is one editable meta key.
type Field struct {
	Key         string   `yaml:"key"`
	Label       string   `yaml:"label"`
	Kind        string   `yaml:"kind"`
	Max         int      `yaml:"max"`
	Help        string   `yaml:"help"`
	Placeholder string   `yaml:"placeholder"`
	Options     []string `yaml:"options"`
}

// FormKey is the input name of the field, e.g. meta[canonical_url].
func (f Field) FormKey() string { return FormKey(f.Key) }

// Group is a titled run of fields on the page form.
type Group struct {
	Name   string  `yaml:"name"`
	Fields []Field `yaml:"fields"`
}

type catalog struct {
	Groups []Group `yaml:"groups"`
}

var (
	loadOnce sync.Once
	loaded   catalog
	loadErr  error

	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func load() {
	loadOnce.Do(func() {
		if err := yaml.Unmarshal(fieldsYAML, &loaded); err != nil {
			loadErr = fmt.Errorf("seometa: parse fields.yaml: %w", err)
			return
		}
		for _, g := range loaded.Groups {
			for _, f := range g.Fields {
				if _, ok := metaFields()[f.Key]; !ok {
					loadErr = fmt.Errorf("seometa: fields.yaml lists unknown meta key %q", f.Key)
					return
				}
			}
		}
	})
}

// Check reports whether the embedded catalog and schema load. Startup calls
// it so a bad edit fails fast.
func Check() error {
	load()
	if loadErr != nil {
		return loadErr
	}
	_, err := markupSchema()
	return err
}

// Groups returns the field catalog in form order.
func Groups() []Group {
	load()
	return loaded.Groups
}

// FormOrder returns the input names of every catalog field in form order.
func FormOrder() []string {
	var out []string
	for _, g := range Groups() {
		for _, f := range g.Fields {
			out = append(out, f.FormKey())
		}
	}
	return out
}

// Lookup returns the catalog entry for key.
func Lookup(key string) (Field, bool) {
	for _, g := range Groups() {
		for _, f := range g.Fields {
			if f.Key == key {
				return f, true
			}
		}
	}
	return Field{}, false
}

// FormKey returns the input name for a meta key.
func FormKey(key string) string { return "meta[" + key + "]" }

/*─────────────────────────────────────────────────────────────────────────────*
| Reading and writing Meta by key                                             |
*─────────────────────────────────────────────────────────────────────────────*/

var (
	fieldIndexOnce sync.Once
	fieldIndex     map[string]int
)

// metaFields maps json keys of models.Meta to struct field indexes.
func metaFields() map[string]int {
	fieldIndexOnce.Do(func() {
		fieldIndex = map[string]int{}
		t := reflect.TypeOf(models.Meta{})
		for i := 0; i < t.NumField(); i++ {
			name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
			if name != "" && name != "-" {
				fieldIndex[name] = i
			}
		}
	})
	return fieldIndex
}

// Get returns the value stored under key, or "".
func Get(m models.Meta, key string) string {
	i, ok := metaFields()[key]
	if !ok {
		return ""
	}
	return reflect.ValueOf(m).Field(i).String()
}

// Set stores value under key and reports whether key exists.
func Set(m *models.Meta, key, value string) bool {
	i, ok := metaFields()[key]
	if !ok {
		return false
	}
	reflect.ValueOf(m).Elem().Field(i).SetString(value)
	return true
}

// IsKey reports whether key names a Meta field.
func IsKey(key string) bool {
	_, ok := metaFields()[key]
	return ok
}

// FromForm reads meta[...] inputs into a Meta. Every Meta key is read, so the
// page_content slots carried as hidden inputs survive a page save.
func FromForm(form url.Values) models.Meta {
	var m models.Meta
	for key := range metaFields() {
		v := strings.TrimSpace(form.Get(FormKey(key)))
		if key == "meta_keywords" {
			v = models.JoinTags(models.SplitTags(v))
		}
		Set(&m, key, v)
	}
	return m
}

/*─────────────────────────────────────────────────────────────────────────────*
| Validation                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// Validate checks the catalog fields of m. The result maps form keys to a
// message and is empty when m is acceptable. Length limits are advisory and
// never reported here.
func Validate(m models.Meta) map[string]string {
	errs := map[string]string{}
	for _, g := range Groups() {
		for _, f := range g.Fields {
			v := strings.TrimSpace(Get(m, f.Key))
			if v == "" {
				continue
			}
			if msg := checkField(f, v); msg != "" {
				errs[f.FormKey()] = msg
			}
		}
	}
	return errs
}

func checkField(f Field, v string) string {
	switch f.Kind {
	case KindURL:
		if !inputval.IsValidHTTPURL(v) {
			return f.Label + " must be a valid URL starting with http:// or https://."
		}
	case KindLanguage:
		if _, err := language.Parse(v); err != nil {
			return f.Label + " must be a language tag such as en or en-US."
		}
	case KindSelect:
		for _, o := range f.Options {
			if o == v {
				return ""
			}
		}
		return f.Label + " must be one of: " + strings.Join(f.Options, ", ") + "."
	case KindJSON:
		if err := CheckSchemaMarkup(v); err != nil {
			return f.Label + ": " + err.Error()
		}
	}
	return ""
}

// CanonicalLanguage returns the canonical form of a language tag, or s
// unchanged when it does not parse.
func CanonicalLanguage(s string) string {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return tag.String()
}

// Over reports whether v is longer than the field's advisory limit.
func (f Field) Over(v string) bool {
	return f.Max > 0 && len([]rune(v)) > f.Max
}

// Len counts characters the way the limit hints do.
func Len(v string) int { return len([]rune(v)) }

var scriptWrapper = regexp.MustCompile(`(?is)^\s*<script[^>]*>(.*)</script>\s*$`)

// UnwrapScript removes a surrounding <script type="application/ld+json"> tag.
func UnwrapScript(s string) string {
	if m := scriptWrapper.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

func markupSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema_markup.json", bytes.NewReader(schemaMarkupJSON)); err != nil {
			schemaErr = fmt.Errorf("seometa: load schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile("schema_markup.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("seometa: compile schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// CheckSchemaMarkup verifies that s is a JSON-LD document: an object with
// @context and @type, an @graph, or an array of such objects. A surrounding
// script tag is allowed.
func CheckSchemaMarkup(s string) error {
	body := UnwrapScript(s)
	var doc any
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("not valid JSON")
	}
	if dec.More() {
		return fmt.Errorf("unexpected content after the JSON document")
	}
	sch, err := markupSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("expected JSON-LD with @context and @type")
	}
	return nil
}
