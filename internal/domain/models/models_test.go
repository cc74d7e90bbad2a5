package models

import (
	"encoding/json"
	"testing"
)

func TestFlag_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Flag
	}{
		{`true`, true},
		{`false`, false},
		{`1`, true},
		{`0`, false},
		{`"1"`, true},
		{`"0"`, false},
		{`null`, false},
		{`"yes"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var f Flag
			if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.in, err)
			}
			if f != tt.want {
				t.Errorf("Flag(%s) = %v, want %v", tt.in, f, tt.want)
			}
		})
	}
}

func TestFlag_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Flag `json:"a"`
		B Flag `json:"b"`
	}{A: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(b), `{"a":1,"b":0}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestSplitJoinTags(t *testing.T) {
	tags := SplitTags(" seo, marketing ,, ,local ")
	if len(tags) != 3 || tags[0] != "seo" || tags[1] != "marketing" || tags[2] != "local" {
		t.Fatalf("SplitTags = %#v", tags)
	}
	if got := JoinTags([]string{"a", " ", " b "}); got != "a,b" {
		t.Errorf("JoinTags = %q, want %q", got, "a,b")
	}
}

func TestParseSectionKind(t *testing.T) {
	for _, k := range AllSectionKinds() {
		got, ok := ParseSectionKind(string(k))
		if !ok || got != k {
			t.Errorf("ParseSectionKind(%q) = %q, %v", k, got, ok)
		}
	}
	if _, ok := ParseSectionKind("pricing"); ok {
		t.Error("ParseSectionKind accepted an unknown kind")
	}
}

func TestBlankItems(t *testing.T) {
	if !(ServiceItem{Title: "  ", Description: "\n"}).Blank() {
		t.Error("whitespace service item should be blank")
	}
	if (ServiceItem{Title: "X"}).Blank() {
		t.Error("titled service item should not be blank")
	}
	if (FaqItem{Answer: "A"}).Blank() {
		t.Error("answered faq should not be blank")
	}
	for _, ws := range []string{"\v", "\u00a0", "\f \u0085"} {
		if !(ServiceItem{Title: ws}).Blank() || !(FaqItem{Question: ws, Answer: ws}).Blank() {
			t.Errorf("%q should count as blank", ws)
		}
	}
}

func TestUserMatches(t *testing.T) {
	u := User{Name: "Jane Doe", Email: "jane@example.com"}
	for q, want := range map[string]bool{"": true, "jane": true, "EXAMPLE": true, "bob": false} {
		if got := u.Matches(q); got != want {
			t.Errorf("Matches(%q) = %v, want %v", q, got, want)
		}
	}
}

func TestSectionsFor(t *testing.T) {
	if got := len(SectionsFor(PageTypeSEO)); got != 7 {
		t.Errorf("SEO pages edit %d sections, want 7", got)
	}
	ms := SectionsFor(PageTypeManagementService)
	if len(ms) != 4 {
		t.Fatalf("management pages edit %d sections, want 4", len(ms))
	}
	for _, k := range ms {
		if k.Multipart() {
			t.Errorf("management pages should not edit %s", k)
		}
	}
}

func TestPageTypeBasePath(t *testing.T) {
	if got := PageTypeSEO.BasePath(); got != "/seo-pages" {
		t.Errorf("SEO BasePath() = %q", got)
	}
	if got := PageTypeManagementService.BasePath(); got != "/management-services" {
		t.Errorf("management BasePath() = %q", got)
	}
	if !PageTypeSEO.Valid() || PageType(3).Valid() {
		t.Error("Valid() mismatch")
	}
}
