package rules

import (
	"reflect"
	"testing"

	"github.com/azuline/rose-sub000/internal/codec"
)

func mustMatcher(t *testing.T, s string) Matcher {
	t.Helper()
	m, err := ParseMatcher(s)
	if err != nil {
		t.Fatalf("ParseMatcher(%q): %v", s, err)
	}
	return m
}

func TestApplyAction_ReplaceSingleValue(t *testing.T) {
	tags := &codec.AudioTags{Title: "Old Title"}
	m := mustMatcher(t, "tracktitle:Old")
	after, changed, err := applyAction(FieldRef{Name: "tracktitle"}, Action{Kind: ActionReplace, Args: []string{"New Title"}}, m, tags, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !changed || !reflect.DeepEqual(after, []string{"New Title"}) {
		t.Fatalf("after = %v, changed = %v", after, changed)
	}
}

func TestApplyAction_ReplaceMultiValueSemicolonExpands(t *testing.T) {
	tags := &codec.AudioTags{Genres: []string{"Rock", "Pop"}}
	m := mustMatcher(t, "genre:Rock")
	after, changed, err := applyAction(FieldRef{Name: "genre"}, Action{Kind: ActionReplace, Args: []string{"Alt Rock; Indie"}}, m, tags, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("expected change")
	}
	want := []string{"Alt Rock", "Indie", "Pop"}
	if !reflect.DeepEqual(after, want) {
		t.Fatalf("after = %v, want %v", after, want)
	}
}

func TestApplyAction_ReplaceOnlyTouchesMatchingValues(t *testing.T) {
	tags := &codec.AudioTags{Labels: []string{"Domino", "Sub Pop"}}
	m := mustMatcher(t, "label:Domino")
	after, _, err := applyAction(FieldRef{Name: "label"}, Action{Kind: ActionReplace, Args: []string{"XL"}}, m, tags, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"XL", "Sub Pop"}
	if !reflect.DeepEqual(after, want) {
		t.Fatalf("after = %v, want %v", after, want)
	}
}

func TestApplyAction_Split(t *testing.T) {
	tags := &codec.AudioTags{Genres: []string{"Rock;Pop"}}
	m := mustMatcher(t, "genre:Rock")
	after, changed, err := applyAction(FieldRef{Name: "genre"}, Action{Kind: ActionSplit, Args: []string{";"}}, m, tags, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("expected change")
	}
	want := []string{"Rock", "Pop"}
	if !reflect.DeepEqual(after, want) {
		t.Fatalf("after = %v, want %v", after, want)
	}
}

func TestApplyAction_Add(t *testing.T) {
	tags := &codec.AudioTags{Descriptors: []string{"melancholic"}}
	m := mustMatcher(t, "descriptor:x")
	after, changed, err := applyAction(FieldRef{Name: "descriptor"}, Action{Kind: ActionAdd, Args: []string{"upbeat"}}, m, tags, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("expected change")
	}
	want := []string{"melancholic", "upbeat"}
	if !reflect.DeepEqual(after, want) {
		t.Fatalf("after = %v, want %v", after, want)
	}
}

func TestApplyAction_AddDeduplicates(t *testing.T) {
	tags := &codec.AudioTags{Descriptors: []string{"upbeat"}}
	m := mustMatcher(t, "descriptor:x")
	after, changed, err := applyAction(FieldRef{Name: "descriptor"}, Action{Kind: ActionAdd, Args: []string{"upbeat"}}, m, tags, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Fatal("expected no-op when value already present")
	}
	if !reflect.DeepEqual(after, []string{"upbeat"}) {
		t.Fatalf("after = %v", after)
	}
}

func TestApplyAction_Delete(t *testing.T) {
	tags := &codec.AudioTags{Labels: []string{"Domino", "Sub Pop"}}
	m := mustMatcher(t, "label:Domino")
	after, changed, err := applyAction(FieldRef{Name: "label"}, Action{Kind: ActionDelete}, m, tags, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !changed || !reflect.DeepEqual(after, []string{"Sub Pop"}) {
		t.Fatalf("after = %v, changed = %v", after, changed)
	}
}

func TestApplyAction_Sed(t *testing.T) {
	tags := &codec.AudioTags{Title: "Track  01"}
	m := mustMatcher(t, "tracktitle:Track")
	after, changed, err := applyAction(FieldRef{Name: "tracktitle"}, Action{Kind: ActionSed, Args: []string{`\s+`, " "}}, m, tags, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !changed || !reflect.DeepEqual(after, []string{"Track 01"}) {
		t.Fatalf("after = %v, changed = %v", after, changed)
	}
}

func TestGetSetField_ArtistRoleRoundTrip(t *testing.T) {
	tags := &codec.AudioTags{}
	fr := FieldRef{Name: "trackartist", Role: "guest"}
	setField(fr, tags, []string{"Feature Artist"})
	if got := getField(fr, tags); !reflect.DeepEqual(got, []string{"Feature Artist"}) {
		t.Fatalf("got = %v", got)
	}
}
