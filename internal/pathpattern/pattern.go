// SPDX-License-Identifier: MPL-2.0

// Package pathpattern models the path patterns accepted by the remove and
// keep lists. A pattern is either a literal relative path or an any-depth
// basename written as "*/name".
package pathpattern

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// KindLiteral matches one exact path.
	KindLiteral Kind = iota + 1
	// KindAnyDepth matches an entry with the given basename at any depth.
	KindAnyDepth
)

// AnyDepthPrefix marks a pattern that matches a basename anywhere in a tree.
const AnyDepthPrefix = "*/"

// ErrEmptyPattern is returned by Parse when the pattern carries no path.
var ErrEmptyPattern = errors.New("empty path pattern")

type (
	// Kind tags a Pattern as literal or any-depth.
	Kind int

	// Pattern is a single remove-list or keep-list entry.
	Pattern struct {
		kind  Kind
		value string
	}

	// List is an ordered set of patterns as given on the command line.
	List []Pattern
)

// String returns a readable kind name.
func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindAnyDepth:
		return "any-depth"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Literal returns a pattern matching exactly path.
func Literal(path string) Pattern {
	return Pattern{kind: KindLiteral, value: path}
}

// AnyDepth returns a pattern matching any entry whose basename is name.
func AnyDepth(name string) Pattern {
	return Pattern{kind: KindAnyDepth, value: name}
}

// Parse converts raw into a Pattern. Only the leading "*/" is treated as
// the any-depth marker; the remainder is taken verbatim.
func Parse(raw string) (Pattern, error) {
	if name, ok := strings.CutPrefix(raw, AnyDepthPrefix); ok {
		if name == "" {
			return Pattern{}, fmt.Errorf("%w: %q", ErrEmptyPattern, raw)
		}
		return AnyDepth(name), nil
	}
	if raw == "" {
		return Pattern{}, ErrEmptyPattern
	}
	return Literal(raw), nil
}

// ParseList splits a space-separated value into patterns. Entries that do
// not parse are dropped.
func ParseList(raw string) List {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}

	list := make(List, 0, len(fields))
	for _, f := range fields {
		p, err := Parse(f)
		if err != nil {
			continue
		}
		list = append(list, p)
	}
	return list
}

// Kind returns the pattern kind. The zero Pattern has kind 0.
func (p Pattern) Kind() Kind { return p.kind }

// Value returns the literal path or the any-depth basename.
func (p Pattern) Value() string { return p.value }

// IsZero reports whether p is the zero Pattern.
func (p Pattern) IsZero() bool { return p.kind == 0 }

// String renders the pattern in its command-line form.
func (p Pattern) String() string {
	if p.kind == KindAnyDepth {
		return AnyDepthPrefix + p.value
	}
	return p.value
}

// Matches reports whether p matches an entry identified by its full path
// and basename.
func (p Pattern) Matches(path, name string) bool {
	switch p.kind {
	case KindLiteral:
		return p.value == path
	case KindAnyDepth:
		return p.value == name
	default:
		return false
	}
}

// Exempts reports whether any pattern in l matches the entry.
func (l List) Exempts(path, name string) bool {
	for _, p := range l {
		if p.Matches(path, name) {
			return true
		}
	}
	return false
}

// Strings renders every pattern in command-line form.
func (l List) Strings() []string {
	out := make([]string, len(l))
	for i, p := range l {
		out[i] = p.String()
	}
	return out
}

// String joins the patterns with single spaces.
func (l List) String() string {
	return strings.Join(l.Strings(), " ")
}
