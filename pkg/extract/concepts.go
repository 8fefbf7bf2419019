package extract

import (
	"sort"
	"strings"

	"github.com/soitgoes511/graph-network-visualizer/pkg/annotate"
	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
)

type conceptHit struct {
	sentence int
	tokens   []int
}

// collectConcepts counts noun phrases outside entity spans by lemma; a
// phrase is a noun head plus its compound modifiers. Only terms reaching
// the minimum count qualify, and of those the most frequent are kept.
func (x *Extractor) collectConcepts(st *docState) {
	counts := make(map[string]int)
	hits := make(map[string][]conceptHit)
	total := 0

	for si, s := range st.sentences {
		for _, tok := range s.Tokens {
			if !conceptToken(tok) || st.tokenNode[si][tok.Index] != "" {
				continue
			}
			if tok.Dep == "compound" && tok.Head != tok.Index &&
				conceptToken(s.Tokens[tok.Head]) && st.tokenNode[si][tok.Head] == "" {
				continue
			}

			var lemmas []string
			var idx []int
			for _, c := range s.Children(tok.Index) {
				child := s.Tokens[c]
				if child.Dep == "compound" && conceptToken(child) && st.tokenNode[si][c] == "" {
					lemmas = append(lemmas, lemmaOf(child))
					idx = append(idx, c)
				}
			}
			lemmas = append(lemmas, lemmaOf(tok))
			idx = append(idx, tok.Index)

			term := strings.Join(lemmas, " ")
			counts[term]++
			total++
			hits[term] = append(hits[term], conceptHit{sentence: si, tokens: idx})
		}
	}
	if total == 0 {
		return
	}

	terms := make([]string, 0, len(counts))
	for term, n := range counts {
		if n >= x.opts.MinConceptCount {
			terms = append(terms, term)
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > x.opts.ConceptTopN {
		terms = terms[:x.opts.ConceptTopN]
	}

	for _, term := range terms {
		id := ConceptID(term)
		n, ok := st.concepts[id]
		if !ok {
			n = &common.Node{ID: id, Title: term, Type: common.NodeTypeConcept}
			st.concepts[id] = n
		}
		n.Count += counts[term]
		n.Title = common.PreferTitle(n.Title, term)
		n.Aliases = common.UnionSorted(common.MaxAliases, n.Aliases, []string{term})
		for _, h := range hits[term] {
			for _, ti := range h.tokens {
				if st.tokenNode[h.sentence][ti] == "" {
					st.tokenNode[h.sentence][ti] = id
				}
			}
		}
	}
	for _, n := range st.concepts {
		n.Confidence = round(float64(n.Count)/float64(total), 4)
	}
}

func isNoun(tok annotate.Token) bool {
	return tok.POS == "NOUN" || tok.POS == "PROPN"
}

func conceptToken(tok annotate.Token) bool {
	return isNoun(tok) && tok.IsAlpha && !tok.IsStop && !tok.IsPunct && len([]rune(tok.Text)) > 2
}

func lemmaOf(tok annotate.Token) string {
	lemma := strings.ToLower(strings.TrimSpace(tok.Lemma))
	if lemma == "" {
		lemma = strings.ToLower(tok.Text)
	}
	return lemma
}
