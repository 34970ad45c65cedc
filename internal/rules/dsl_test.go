package rules

import "testing"

func TestParseMatcher_Basic(t *testing.T) {
	m, err := ParseMatcher("tracktitle:Remix")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Tags) != 1 || m.Tags[0].Name != "tracktitle" {
		t.Fatalf("tags = %v", m.Tags)
	}
	if m.Pattern != "Remix" || m.AnchorStart || m.AnchorEnd || m.CaseInsensitive {
		t.Fatalf("matcher = %+v", m)
	}
}

func TestParseMatcher_AnchorsWithFlags(t *testing.T) {
	m, err := ParseMatcher(`tracktitle:^Remix$:i`)
	if err != nil {
		t.Fatal(err)
	}
	if !m.AnchorStart || !m.AnchorEnd || !m.CaseInsensitive {
		t.Fatalf("matcher = %+v", m)
	}
	if m.Pattern != "Remix" {
		t.Fatalf("pattern = %q", m.Pattern)
	}
}

func TestParseMatcher_EscapedAnchorIsLiteral(t *testing.T) {
	m, err := ParseMatcher(`tracktitle:\^Remix`)
	if err != nil {
		t.Fatal(err)
	}
	if m.AnchorStart {
		t.Fatal("expected escaped caret to not be treated as an anchor")
	}
	if m.Pattern != "^Remix" {
		t.Fatalf("pattern = %q, want literal caret preserved", m.Pattern)
	}
}

func TestParseMatcher_DoubledColonIsLiteral(t *testing.T) {
	m, err := ParseMatcher(`tracktitle:10::30`)
	if err != nil {
		t.Fatal(err)
	}
	if m.Pattern != "10:30" {
		t.Fatalf("pattern = %q, want %q", m.Pattern, "10:30")
	}
}

func TestParseMatcher_MultipleTags(t *testing.T) {
	m, err := ParseMatcher("tracktitle,releasetitle:Live")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Tags) != 2 {
		t.Fatalf("tags = %v", m.Tags)
	}
}

func TestParseMatcher_UnknownTag(t *testing.T) {
	if _, err := ParseMatcher("notatag:x"); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestParseMatcher_BadShape(t *testing.T) {
	if _, err := ParseMatcher("tracktitle"); err == nil {
		t.Fatal("expected error for missing pattern")
	}
	if _, err := ParseMatcher("a:b:c:d"); err == nil {
		t.Fatal("expected error for too many unescaped colons")
	}
}

func TestTagExpand_ArtistAliasesAllRoles(t *testing.T) {
	tag, err := ParseTag("trackartist")
	if err != nil {
		t.Fatal(err)
	}
	fields := tag.Expand()
	if len(fields) != len(roleNames) {
		t.Fatalf("trackartist expanded to %d fields, want %d", len(fields), len(roleNames))
	}
	for _, fr := range fields {
		if fr.Name != "trackartist" {
			t.Fatalf("field = %+v", fr)
		}
	}
}

func TestTagExpand_ArtistAliasBothEntities(t *testing.T) {
	tag, err := ParseTag("artist")
	if err != nil {
		t.Fatal(err)
	}
	fields := tag.Expand()
	if len(fields) != 2*len(roleNames) {
		t.Fatalf("artist expanded to %d fields, want %d", len(fields), 2*len(roleNames))
	}
}

func TestTagExpand_ExplicitRole(t *testing.T) {
	tag, err := ParseTag("releaseartist[main]")
	if err != nil {
		t.Fatal(err)
	}
	fields := tag.Expand()
	if len(fields) != 1 || fields[0].Name != "releaseartist" || fields[0].Role != "main" {
		t.Fatalf("fields = %v", fields)
	}
}

func TestParseTag_UnknownRole(t *testing.T) {
	if _, err := ParseTag("trackartist[bogus]"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestParseAction_Replace(t *testing.T) {
	a, err := ParseAction("replace:New Title")
	if err != nil {
		t.Fatal(err)
	}
	if a.Kind != ActionReplace || len(a.Args) != 1 || a.Args[0] != "New Title" {
		t.Fatalf("action = %+v", a)
	}
	if a.Matcher != nil {
		t.Fatalf("expected nil matcher, got %+v", a.Matcher)
	}
}

func TestParseAction_WithOwnMatcher(t *testing.T) {
	a, err := ParseAction("genre:Rock/replace:Alternative Rock")
	if err != nil {
		t.Fatal(err)
	}
	if a.Matcher == nil || a.Matcher.Pattern != "Rock" {
		t.Fatalf("action = %+v", a)
	}
}

func TestParseAction_Sed(t *testing.T) {
	a, err := ParseAction(`sed:\s+: `)
	if err != nil {
		t.Fatal(err)
	}
	if a.Kind != ActionSed || len(a.Args) != 2 {
		t.Fatalf("action = %+v", a)
	}
}

func TestParseAction_Delete(t *testing.T) {
	a, err := ParseAction("delete")
	if err != nil {
		t.Fatal(err)
	}
	if a.Kind != ActionDelete || len(a.Args) != 0 {
		t.Fatalf("action = %+v", a)
	}
}

func TestParseAction_ArityMismatch(t *testing.T) {
	if _, err := ParseAction("replace"); err == nil {
		t.Fatal("expected error for missing replace argument")
	}
	if _, err := ParseAction("sed:onlyone"); err == nil {
		t.Fatal("expected error for missing sed argument")
	}
}

func TestParseRule_RejectsSplitOnSingleValueTag(t *testing.T) {
	_, err := ParseRule("tracktitle:x", []string{"split:, "})
	if err == nil {
		t.Fatal("expected error: split requires a multi-value tag")
	}
}

func TestParseRule_RejectsActionOnMatchOnlyTag(t *testing.T) {
	_, err := ParseRule("tracktotal:1", []string{"replace:2"})
	if err == nil {
		t.Fatal("expected error: tracktotal is match-only")
	}
}

func TestParseRule_ValidMultiValueSplit(t *testing.T) {
	rule, err := ParseRule("genre:x", []string{"split:;"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rule.Actions) != 1 {
		t.Fatalf("actions = %v", rule.Actions)
	}
}
