package extract

import (
	"strings"
	"unicode"

	"github.com/soitgoes511/graph-network-visualizer/internal/util"
)

// NormalizeName folds a surface form into the key used for node identity:
// whitespace collapsed, case folded, surrounding punctuation stripped and
// inner punctuation turned into spaces.
func NormalizeName(surface string) string {
	s := strings.ToLower(util.CollapseSpaces(surface))
	s = util.TrimPunct(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, s)
	return util.CollapseSpaces(s)
}

// slug joins the letter and digit runs of key with underscores.
func slug(key, fallback string) string {
	var b strings.Builder
	gap := false
	for _, r := range strings.ToLower(key) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if gap && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			gap = false
			continue
		}
		gap = true
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}

// AliasTable resolves normalized variants, e.g. acronyms, onto a canonical
// normalized key.
type AliasTable map[string]string

// NewAliasTable normalizes both sides of raw.
func NewAliasTable(raw map[string]string) AliasTable {
	t := make(AliasTable, len(raw))
	for k, v := range raw {
		nk, nv := NormalizeName(k), NormalizeName(v)
		if nk == "" || nv == "" || nk == nv {
			continue
		}
		t[nk] = nv
	}
	return t
}

// Resolve returns the canonical key for key.
func (t AliasTable) Resolve(key string) string {
	if canonical, ok := t[key]; ok {
		return canonical
	}
	return key
}

// EntityID returns the node id for a normalized entity key.
func EntityID(key string) string {
	return "entity:" + key
}

// ConceptID returns the node id for a normalized concept term.
func ConceptID(term string) string {
	return "concept:" + term
}
