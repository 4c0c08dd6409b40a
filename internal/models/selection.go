package models

import "strings"

// SelectionKind distinguishes keyword selections from explicit name lists.
type SelectionKind int

// Selection kinds.
const (
	SelectAll SelectionKind = iota
	SelectUser
	SelectSystem
	SelectExplicit
)

// Selection keywords.
const (
	KeywordAll    = "all"
	KeywordUser   = "user"
	KeywordSystem = "system"
)

// Selection is the requested database set, decided once at the boundary.
type Selection struct {
	Kind  SelectionKind
	Names []string // only for SelectExplicit
}

// ParseSelection turns a requested list into a Selection. Only the first
// element is inspected for a keyword.
func ParseSelection(requested []string) Selection {
	if len(requested) == 0 {
		return Selection{Kind: SelectAll}
	}

	switch strings.TrimSpace(requested[0]) {
	case "", KeywordAll:
		return Selection{Kind: SelectAll}
	case KeywordUser:
		return Selection{Kind: SelectUser}
	case KeywordSystem:
		return Selection{Kind: SelectSystem}
	}

	names := make([]string, 0, len(requested))
	for _, n := range requested {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return Selection{Kind: SelectExplicit, Names: names}
}

// String renders the selection the way it was requested.
func (s Selection) String() string {
	switch s.Kind {
	case SelectUser:
		return KeywordUser
	case SelectSystem:
		return KeywordSystem
	case SelectExplicit:
		return strings.Join(s.Names, ",")
	default:
		return KeywordAll
	}
}
