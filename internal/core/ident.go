package core

import "strings"

// CaseMapping selects how nicknames and channel names are folded before comparison.
type CaseMapping int

const (
	// CaseMappingRFC1459 folds ASCII letters and treats []\~ as the uppercase of {}|^.
	CaseMappingRFC1459 CaseMapping = iota
	// CaseMappingStrictRFC1459 is RFC1459 without the ~ and ^ pair.
	CaseMappingStrictRFC1459
	// CaseMappingASCII folds ASCII letters only.
	CaseMappingASCII
)

// ParseCaseMapping maps an ISUPPORT CASEMAPPING token to a CaseMapping.
func ParseCaseMapping(token string) (CaseMapping, bool) {
	switch strings.ToLower(token) {
	case "rfc1459":
		return CaseMappingRFC1459, true
	case "strict-rfc1459":
		return CaseMappingStrictRFC1459, true
	case "ascii":
		return CaseMappingASCII, true
	default:
		return CaseMappingRFC1459, false
	}
}

func (m CaseMapping) String() string {
	switch m {
	case CaseMappingStrictRFC1459:
		return "strict-rfc1459"
	case CaseMappingASCII:
		return "ascii"
	default:
		return "rfc1459"
	}
}

// Fold returns the canonical form of name under the mapping.
func (m CaseMapping) Fold(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		b.WriteByte(m.foldByte(name[i]))
	}
	return b.String()
}

// Ident builds an identifier folded with the mapping.
func (m CaseMapping) Ident(name string) Ident {
	return Ident{name: name, key: m.Fold(name)}
}

func (m CaseMapping) foldByte(c byte) byte {
	switch {
	case c >= 'A' && c <= 'Z':
		return c + ('a' - 'A')
	case m == CaseMappingASCII:
		return c
	case c == '[':
		return '{'
	case c == ']':
		return '}'
	case c == '\\':
		return '|'
	case c == '~' && m == CaseMappingRFC1459:
		return '^'
	}
	return c
}

// Ident is a nickname or channel name that keeps its display form and
// compares by its folded key.
type Ident struct {
	name string
	key  string
}

// NewIdent folds name with RFC1459 rules.
func NewIdent(name string) Ident {
	return CaseMappingRFC1459.Ident(name)
}

// String returns the display form.
func (id Ident) String() string { return id.name }

// Key returns the folded form used for map keys.
func (id Ident) Key() string { return id.key }

// IsZero reports whether the identifier is empty.
func (id Ident) IsZero() bool { return id.key == "" }

// Equal reports whether both identifiers name the same entity.
// Empty identifiers never match.
func (id Ident) Equal(other Ident) bool {
	return id.key != "" && id.key == other.key
}

// Less orders identifiers by folded key.
func (id Ident) Less(other Ident) bool {
	return id.key < other.key
}
