// Package pathtemplate renders release and track directory/file names
// from user-configured templates (spec.md section 4.1).
package pathtemplate

import (
	"fmt"
	"strings"
)

// Fields is the variable vocabulary a template is evaluated against: the
// entity's fields by name, plus any loop variables bound while
// evaluating a {for} body. Values are string, []string, or
// model.ArtistMapping/model.ReleaseType — whatever the field builders in
// fields.go populate.
type Fields map[string]any

// Render parses tmpl and evaluates it against fields, applying the
// post-render whitespace collapse described in spec.md section 4.1.
// Sanitization and byte-budget truncation are separate steps — callers
// combine Render with Sanitize.
func Render(tmpl string, fields Fields) (string, error) {
	nodes, err := parse(tmpl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := evalNodes(nodes, fields, &b); err != nil {
		return "", err
	}
	return collapseWhitespace(b.String()), nil
}

func evalNodes(nodes []node, fields Fields, b *strings.Builder) error {
	for _, n := range nodes {
		if err := evalNode(n, fields, b); err != nil {
			return err
		}
	}
	return nil
}

func evalNode(n node, fields Fields, b *strings.Builder) error {
	switch n.kind {
	case nodeLiteral:
		b.WriteString(n.text)
	case nodeField:
		s, err := evalToString(n.expr, fields)
		if err != nil {
			return err
		}
		b.WriteString(s)
	case nodeIf:
		ok, err := evalTruthy(n.expr, fields)
		if err != nil {
			return err
		}
		if ok {
			return evalNodes(n.body, fields, b)
		}
		return evalNodes(n.elseBody, fields, b)
	case nodeFor:
		seq, err := evalToSequence(n.loopExpr, fields)
		if err != nil {
			return err
		}
		for _, item := range seq {
			loopFields := make(Fields, len(fields)+1)
			for k, v := range fields {
				loopFields[k] = v
			}
			loopFields[n.loopVar] = item
			if err := evalNodes(n.body, loopFields, b); err != nil {
				return err
			}
		}
	}
	return nil
}

// splitExpr parses "field|filter1|filter2" into the bare field name and
// the ordered filter chain.
func splitExpr(expr string) (field string, chain []string) {
	parts := strings.Split(expr, "|")
	field = strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		chain = append(chain, strings.TrimSpace(p))
	}
	return field, chain
}

func lookup(field string, fields Fields) (any, error) {
	v, ok := fields[field]
	if !ok {
		return nil, fmt.Errorf("pathtemplate: unknown field %q", field)
	}
	return v, nil
}

func applyChain(v any, chain []string) (any, error) {
	for _, name := range chain {
		f, ok := filters[name]
		if !ok {
			return nil, fmt.Errorf("pathtemplate: unknown filter %q", name)
		}
		var err error
		v, err = f(v)
		if err != nil {
			return nil, fmt.Errorf("pathtemplate: filter %q: %w", name, err)
		}
	}
	return v, nil
}

// evalToString resolves a {field|filter...} placeholder to its rendered
// string, applying a default stringification when no filter settles on
// a string.
func evalToString(expr string, fields Fields) (string, error) {
	field, chain := splitExpr(expr)
	v, err := lookup(field, fields)
	if err != nil {
		return "", err
	}
	v, err = applyChain(v, chain)
	if err != nil {
		return "", err
	}
	return stringify(v), nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, ", ")
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// evalToSequence resolves a {for x in expr} source to a string sequence.
func evalToSequence(expr string, fields Fields) ([]string, error) {
	field, chain := splitExpr(expr)
	v, err := lookup(field, fields)
	if err != nil {
		return nil, err
	}
	v, err = applyChain(v, chain)
	if err != nil {
		return nil, err
	}
	return asStringSlice(v)
}

// evalTruthy resolves a condition field (no filter chain expected, but
// tolerated) to a boolean per spec's "conditional blocks" requirement:
// a field is truthy when non-empty/non-zero.
func evalTruthy(expr string, fields Fields) (bool, error) {
	field, chain := splitExpr(expr)
	v, err := lookup(field, fields)
	if err != nil {
		return false, err
	}
	v, err = applyChain(v, chain)
	if err != nil {
		return false, err
	}
	switch t := v.(type) {
	case nil:
		return false, nil
	case string:
		return t != "", nil
	case []string:
		return len(t) > 0, nil
	case bool:
		return t, nil
	case int:
		return t != 0, nil
	default:
		return true, nil
	}
}

// collapseWhitespace reduces any whitespace run to a single space and
// trims the result, matching normalizeSpaces in internal/rename/rename.go.
func collapseWhitespace(s string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			inSpace = true
			continue
		}
		if inSpace {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			inSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
