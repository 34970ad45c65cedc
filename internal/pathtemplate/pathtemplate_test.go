package pathtemplate

import (
	"testing"

	"github.com/azuline/rose-sub000/internal/model"
)

func TestRenderLiteralAndFields(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     string
		fields   Fields
		expected string
	}{
		{
			name:     "literal only",
			tmpl:     "Music",
			fields:   Fields{},
			expected: "Music",
		},
		{
			name:     "simple field",
			tmpl:     "{title}",
			fields:   Fields{"title": "Time"},
			expected: "Time",
		},
		{
			name:     "escaped braces",
			tmpl:     "{{literal}}",
			fields:   Fields{},
			expected: "{literal}",
		},
		{
			name:     "mixed literal and field",
			tmpl:     "{artist} - {album}",
			fields:   Fields{"artist": "Pink Floyd", "album": "The Dark Side of the Moon"},
			expected: "Pink Floyd - The Dark Side of the Moon",
		},
		{
			name:     "collapses whitespace runs",
			tmpl:     "{a}   {b}",
			fields:   Fields{"a": "x", "b": "y"},
			expected: "x y",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tmpl, tt.fields)
			if err != nil {
				t.Fatalf("Render(%q) error = %v", tt.tmpl, err)
			}
			if got != tt.expected {
				t.Errorf("Render(%q) = %q, want %q", tt.tmpl, got, tt.expected)
			}
		})
	}
}

func TestRenderConditional(t *testing.T) {
	tmpl := "{if new}[NEW] {end}{title}"
	got, err := Render(tmpl, Fields{"new": true, "title": "Foo"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "[NEW] Foo" {
		t.Errorf("got %q", got)
	}

	got, err = Render(tmpl, Fields{"new": false, "title": "Foo"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "Foo" {
		t.Errorf("got %q", got)
	}
}

func TestRenderConditionalElse(t *testing.T) {
	tmpl := "{if catalognumber}{catalognumber}{else}no-cat{end}"
	got, err := Render(tmpl, Fields{"catalognumber": ""})
	if err != nil {
		t.Fatal(err)
	}
	if got != "no-cat" {
		t.Errorf("got %q", got)
	}
}

func TestRenderForLoop(t *testing.T) {
	tmpl := "{for g in genres}[{g}]{end}"
	got, err := Render(tmpl, Fields{"genres": []string{"Pop", "Rock"}})
	if err != nil {
		t.Fatal(err)
	}
	if got != "[Pop][Rock]" {
		t.Errorf("got %q", got)
	}
}

func TestRenderArtistsFmt(t *testing.T) {
	am := model.ArtistMapping{
		Main:     []string{"Drake"},
		Guest:    []string{"Rihanna"},
		Producer: []string{"40"},
	}
	got, err := Render("{releaseartists|artistsfmt}", Fields{"releaseartists": am})
	if err != nil {
		t.Fatal(err)
	}
	want := "Drake feat. Rihanna produced by 40"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderArrayFmt(t *testing.T) {
	tests := []struct {
		vals []string
		want string
	}{
		{nil, ""},
		{[]string{"x"}, "x"},
		{[]string{"x", "y"}, "x & y"},
		{[]string{"x", "y", "z"}, "x, y & z"},
	}
	for _, tt := range tests {
		got, err := Render("{genres|arrayfmt}", Fields{"genres": tt.vals})
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("arrayfmt(%v) = %q, want %q", tt.vals, got, tt.want)
		}
	}
}

func TestRenderReleaseTypeFmt(t *testing.T) {
	got, err := Render("{releasetype|releasetypefmt}", Fields{"releasetype": model.ReleaseDJMix})
	if err != nil {
		t.Fatal(err)
	}
	if got != "DJ-Mix" {
		t.Errorf("got %q", got)
	}
}

func TestRenderSortOrderAndLastName(t *testing.T) {
	got, err := Render("{artist|sortorder}", Fields{"artist": "David Bowie"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "Bowie, David" {
		t.Errorf("sortorder got %q", got)
	}

	got, err = Render("{artist|lastname}", Fields{"artist": "David Bowie"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "Bowie" {
		t.Errorf("lastname got %q", got)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxBytes int
		want     string
		wantErr  bool
	}{
		{name: "plain", input: "Back in Black", maxBytes: 255, want: "Back in Black"},
		{name: "reserved chars replaced", input: "AC/DC: Greatest?", maxBytes: 255, want: "AC_DC_ Greatest_"},
		{name: "empty rejected", input: "   ", maxBytes: 255, wantErr: true},
		{name: "dot rejected", input: ".", maxBytes: 255, wantErr: true},
		{name: "dotdot rejected", input: "..", maxBytes: 255, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sanitize(tt.input, tt.maxBytes)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Sanitize(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Sanitize(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeTruncatesPreservingExtension(t *testing.T) {
	name := "a-very-long-track-title-that-exceeds-the-budget.flac"
	got, err := Sanitize(name, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) > 20 {
		t.Fatalf("Sanitize result %q exceeds byte budget", got)
	}
	if got[len(got)-5:] != ".flac" {
		t.Errorf("Sanitize(%q) = %q, extension not preserved", name, got)
	}
}

func TestSanitizeDropsOversizedExtension(t *testing.T) {
	got, err := Sanitize("name.verylongextension", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) > 10 {
		t.Fatalf("result %q exceeds byte budget", got)
	}
}
