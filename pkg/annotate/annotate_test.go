package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// "Acme bought the old mill"
func millSentence() Sentence {
	return Sentence{
		Text: "Acme bought the old mill",
		Tokens: []Token{
			{Index: 0, Text: "Acme", Lemma: "Acme", POS: "PROPN", Dep: "nsubj", Head: 1},
			{Index: 1, Text: "bought", Lemma: "buy", POS: "VERB", Dep: "ROOT", Head: 1},
			{Index: 2, Text: "the", Lemma: "the", POS: "DET", Dep: "det", Head: 4},
			{Index: 3, Text: "old", Lemma: "old", POS: "ADJ", Dep: "amod", Head: 4},
			{Index: 4, Text: "mill", Lemma: "mill", POS: "NOUN", Dep: "dobj", Head: 1},
		},
		Entities: []EntitySpan{{Start: 0, End: 1, Label: "ORG", Text: "Acme"}},
	}
}

func TestSentenceValid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Sentence)
		want   bool
	}{
		{name: "complete", mutate: func(s *Sentence) {}, want: true},
		{name: "no tokens", mutate: func(s *Sentence) { s.Tokens = nil }, want: false},
		{name: "head out of range", mutate: func(s *Sentence) { s.Tokens[2].Head = 9 }, want: false},
		{name: "index gap", mutate: func(s *Sentence) { s.Tokens[3].Index = 7 }, want: false},
		{name: "entity past end", mutate: func(s *Sentence) { s.Entities[0].End = 6 }, want: false},
		{name: "empty entity", mutate: func(s *Sentence) { s.Entities[0].End = 0 }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := millSentence()
			tt.mutate(&s)
			assert.Equal(t, tt.want, s.Valid())
		})
	}
}

func TestChildrenAndSubtree(t *testing.T) {
	s := millSentence()
	assert.Equal(t, []int{0, 4}, s.Children(1))
	assert.Equal(t, []int{2, 3, 4}, s.Subtree(4))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, s.Subtree(1))
}
