package annotate

import "context"

// Token is one word of an annotated sentence. Head is the index of the
// syntactic head within the same sentence; the root token points at itself.
type Token struct {
	Index   int    `json:"i"`
	Text    string `json:"text"`
	Lemma   string `json:"lemma"`
	POS     string `json:"pos"`
	Dep     string `json:"dep"`
	Head    int    `json:"head"`
	IsStop  bool   `json:"is_stop"`
	IsAlpha bool   `json:"is_alpha"`
	IsPunct bool   `json:"is_punct"`
}

// EntitySpan is a named-entity mention covering tokens [Start, End).
type EntitySpan struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Sentence is one sentence of a document with its linguistic annotation.
type Sentence struct {
	Text     string       `json:"text"`
	Tokens   []Token      `json:"tokens"`
	Entities []EntitySpan `json:"entities"`
}

// Annotator splits text into sentences and annotates them with part of
// speech, lemmas, entity spans and a dependency parse.
type Annotator interface {
	Annotate(ctx context.Context, text string) ([]Sentence, error)
}

// Valid reports whether the annotation of s is complete enough to extract
// from. Sentences with gaps are skipped, never repaired.
func (s Sentence) Valid() bool {
	if len(s.Tokens) == 0 {
		return false
	}
	for i, tok := range s.Tokens {
		if tok.Index != i {
			return false
		}
		if tok.Head < 0 || tok.Head >= len(s.Tokens) {
			return false
		}
	}
	for _, ent := range s.Entities {
		if ent.Start < 0 || ent.End > len(s.Tokens) || ent.Start >= ent.End {
			return false
		}
	}
	return true
}

// Children returns the indices of tokens whose head is i, in sentence order.
func (s Sentence) Children(i int) []int {
	var out []int
	for _, tok := range s.Tokens {
		if tok.Head == i && tok.Index != i {
			out = append(out, tok.Index)
		}
	}
	return out
}

// Subtree returns i and all of its transitive dependents in sentence order.
func (s Sentence) Subtree(i int) []int {
	in := make([]bool, len(s.Tokens))
	in[i] = true
	// heads may come after their dependents, so iterate to a fixed point
	for changed := true; changed; {
		changed = false
		for _, tok := range s.Tokens {
			if !in[tok.Index] && tok.Head != tok.Index && in[tok.Head] {
				in[tok.Index] = true
				changed = true
			}
		}
	}
	out := make([]int, 0, len(s.Tokens))
	for idx, ok := range in {
		if ok {
			out = append(out, idx)
		}
	}
	return out
}
