package chat

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// segment is a piece of a template: either literal text or a replacement field.
// raw always holds the exact source text of the segment
type segment struct {
	raw     string
	field   string
	isField bool
	// simple fields have no conversion or format spec and are the only ones
	// substituted by PartialFormat
	simple bool
}

// parseTemplate splits a template into literal and field segments. "{{" and "}}" are
// escaped braces and are kept as literal segments. A "{" that isn't closed before
// the next "{" (or the end of the template) is literal
func parseTemplate(tmpl string) (segments []segment) {
	segments = make([]segment, 0)
	var lit strings.Builder

	flushLiteral := func() {
		if lit.Len() > 0 {
			segments = append(segments, segment{raw: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(tmpl); {
		switch {
		case strings.HasPrefix(tmpl[i:], "{{"), strings.HasPrefix(tmpl[i:], "}}"):
			flushLiteral()
			segments = append(segments, segment{raw: tmpl[i : i+2]})
			i += 2
		case tmpl[i] == '{':
			end := strings.IndexAny(tmpl[i+1:], "{}")
			if end < 0 || tmpl[i+1+end] != '}' {
				lit.WriteByte(tmpl[i])
				i++
				continue
			}

			inner := tmpl[i+1 : i+1+end]
			name := inner
			if idx := strings.IndexAny(inner, "!:"); idx >= 0 {
				name = inner[:idx]
			}

			// Anonymous fields ("{}") are left as literal text
			if name == "" {
				lit.WriteString(tmpl[i : i+end+2])
				i += end + 2
				continue
			}

			flushLiteral()
			segments = append(segments, segment{raw: tmpl[i : i+end+2], field: name, isField: true, simple: name == inner})
			i += end + 2
		default:
			lit.WriteByte(tmpl[i])
			i++
		}
	}

	flushLiteral()

	return segments
}

// Placeholders returns the sorted set of placeholder names found in the template
func Placeholders(tmpl string) (names []string) {
	seen := make(map[string]bool)
	names = make([]string, 0)

	for _, s := range parseTemplate(tmpl) {
		if s.isField && !seen[s.field] {
			seen[s.field] = true
			names = append(names, s.field)
		}
	}

	sort.Strings(names)

	return names
}

// PartialFormat substitutes the placeholders of tmpl that have a value in values. Every other
// part of the template is left exactly as it was: unknown placeholders stay as {name} and literal
// or escaped braces are not altered so the result can still be formatted later
func PartialFormat(tmpl string, values map[string]string) (formatted string) {
	var b strings.Builder

	for _, s := range parseTemplate(tmpl) {
		if s.isField && s.simple {
			if v, ok := values[s.field]; ok {
				b.WriteString(v)
				continue
			}
		}

		b.WriteString(s.raw)
	}

	return b.String()
}

// Format fully formats a template. Every placeholder must have a value and escaped
// braces ("{{" and "}}") are collapsed into single braces
func Format(tmpl string, values map[string]string) (formatted string, err error) {
	var b strings.Builder

	for _, s := range parseTemplate(tmpl) {
		switch {
		case s.isField:
			v, ok := values[s.field]
			if !ok {
				return "", errors.Errorf("missing value for placeholder [%s]", s.field)
			}
			b.WriteString(v)
		case s.raw == "{{":
			b.WriteString("{")
		case s.raw == "}}":
			b.WriteString("}")
		default:
			b.WriteString(s.raw)
		}
	}

	return b.String(), nil
}
