package extract

import (
	"math"
	"sort"
	"strings"

	"github.com/soitgoes511/graph-network-visualizer/pkg/annotate"
	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
)

var (
	subjectDeps = map[string]struct{}{"nsubj": {}, "nsubjpass": {}, "csubj": {}, "agent": {}}
	objectDeps  = map[string]struct{}{"dobj": {}, "obj": {}, "pobj": {}, "dative": {}, "attr": {}, "oprd": {}}
)

// relationSet accumulates co-occurrence and verb edges of one document.
// New keys beyond max are dropped; existing keys keep accumulating.
type relationSet struct {
	docID string
	max   int
	byKey map[common.EdgeKey]*common.Edge
	order []common.EdgeKey
	// best proximity confidence seen per co-occurrence edge
	proximity map[common.EdgeKey]float64
}

func newRelationSet(docID string, max int) *relationSet {
	return &relationSet{
		docID:     docID,
		max:       max,
		byKey:     make(map[common.EdgeKey]*common.Edge),
		proximity: make(map[common.EdgeKey]float64),
	}
}

func (r *relationSet) add(e common.Edge, evidence string) *common.Edge {
	if e.Source == "" || e.Target == "" || e.Source == e.Target {
		return nil
	}
	if common.IsSymmetricRelation(e.RelationType) && e.Target < e.Source {
		e.Source, e.Target = e.Target, e.Source
	}
	key := e.Key()
	cur, ok := r.byKey[key]
	if !ok {
		if len(r.byKey) >= r.max {
			return nil
		}
		cur = &common.Edge{
			Source:       e.Source,
			Target:       e.Target,
			RelationType: e.RelationType,
			Predicate:    e.Predicate,
			SourceDocs:   []string{r.docID},
		}
		r.byKey[key] = cur
		r.order = append(r.order, key)
	}
	cur.Weight += e.Weight
	cur.Confidence = math.Max(cur.Confidence, e.Confidence)
	if evidence != "" {
		cur.EvidenceSentences = common.MergeEvidence(common.MaxEvidenceSentences, cur.EvidenceSentences, []string{evidence})
		cur.EvidenceSentence = common.FirstOrEmpty(cur.EvidenceSentences)
	}
	return cur
}

func (r *relationSet) edges() []common.Edge {
	out := make([]common.Edge, 0, len(r.order))
	for _, key := range r.order {
		e := *r.byKey[key]
		if prox, ok := r.proximity[key]; ok {
			// repeated co-occurrence raises confidence on top of proximity
			e.Confidence = math.Min(0.95, prox+0.05*(e.Weight-1))
		}
		e.Weight = round(e.Weight, 3)
		e.Confidence = round(math.Min(1, math.Max(0.05, e.Confidence)), 3)
		out = append(out, e)
	}
	return out
}

type mention struct {
	id    string
	first int
}

func (x *Extractor) sentenceRelations(st *docState, si int) {
	s := st.sentences[si]
	nodes := st.tokenNode[si]
	evidence := trimSentence(s.Text, x.opts.EvidenceChars)
	if evidence == "" {
		evidence = trimSentence(joinTokens(s), x.opts.EvidenceChars)
	}

	var mentions []mention
	seen := make(map[string]struct{})
	for ti, id := range nodes {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		mentions = append(mentions, mention{id: id, first: ti})
		if len(mentions) >= x.opts.MaxEntitiesPerSentence {
			break
		}
	}

	pairs := 0
coOccur:
	for i := 0; i < len(mentions)-1; i++ {
		for j := i + 1; j < len(mentions); j++ {
			gap := mentions[j].first - mentions[i].first - 1
			prox := coOccurrenceConfidence + 0.2/(1+float64(max(gap, 0)))
			e := st.relations.add(common.Edge{
				Source:       mentions[i].id,
				Target:       mentions[j].id,
				RelationType: common.RelationCoOccurs,
				Weight:       1,
				Confidence:   coOccurrenceConfidence,
			}, evidence)
			if e != nil {
				key := e.Key()
				st.relations.proximity[key] = math.Max(st.relations.proximity[key], prox)
			}
			pairs++
			if pairs >= x.opts.MaxCoOccurrencePairs {
				break coOccur
			}
		}
	}

	for _, tok := range s.Tokens {
		if tok.POS != "VERB" {
			continue
		}
		subjects, objects := x.arguments(s, nodes, tok.Index)
		if len(subjects) == 0 || len(objects) == 0 {
			continue
		}
		lemma := sanitizeRelation(lemmaOf(tok))
		relation := common.VerbRelation(lemma)
		predicate := verbPhrase(s, tok.Index)

		pairs := 0
	verbPairs:
		for _, subj := range subjects {
			for _, obj := range objects {
				st.relations.add(common.Edge{
					Source:       subj,
					Target:       obj,
					RelationType: relation,
					Predicate:    predicate,
					Weight:       1,
					Confidence:   verbConfidence,
				}, evidence)
				pairs++
				if pairs >= x.opts.MaxVerbPairs {
					break verbPairs
				}
			}
		}
	}
}

// arguments resolves the subject and object node ids governed by verb v.
// Objects of prepositions attached to the verb count as objects.
func (x *Extractor) arguments(s annotate.Sentence, nodes []string, v int) ([]string, []string) {
	subj := make(map[string]struct{})
	obj := make(map[string]struct{})
	for _, c := range s.Children(v) {
		dep := s.Tokens[c].Dep
		if _, ok := subjectDeps[dep]; ok {
			x.subtreeNodes(s, nodes, c, subj)
			continue
		}
		if _, ok := objectDeps[dep]; ok {
			x.subtreeNodes(s, nodes, c, obj)
			continue
		}
		if dep == "prep" {
			for _, pc := range s.Children(c) {
				if s.Tokens[pc].Dep == "pobj" {
					x.subtreeNodes(s, nodes, pc, obj)
				}
			}
		}
	}
	return sortedKeys(subj), sortedKeys(obj)
}

func (x *Extractor) subtreeNodes(s annotate.Sentence, nodes []string, root int, into map[string]struct{}) {
	found := 0
	local := make(map[string]struct{})
	for _, ti := range s.Subtree(root) {
		id := nodes[ti]
		if id == "" {
			continue
		}
		if _, ok := local[id]; ok {
			continue
		}
		local[id] = struct{}{}
		into[id] = struct{}{}
		found++
		if found >= x.opts.MaxEntitiesPerSentence {
			return
		}
	}
}

// verbPhrase renders the lemma form of verb v with its negation and
// particles, e.g. "not set up".
func verbPhrase(s annotate.Sentence, v int) string {
	var neg, prt []string
	for _, c := range s.Children(v) {
		switch s.Tokens[c].Dep {
		case "neg":
			neg = append(neg, "not")
		case "prt":
			prt = append(prt, lemmaOf(s.Tokens[c]))
		}
	}
	parts := append(neg, lemmaOf(s.Tokens[v]))
	parts = append(parts, prt...)
	return strings.Join(parts, " ")
}

func sanitizeRelation(lemma string) string {
	return slug(lemma, "related_to")
}

func joinTokens(s annotate.Sentence) string {
	parts := make([]string, 0, len(s.Tokens))
	for _, tok := range s.Tokens {
		parts = append(parts, tok.Text)
	}
	return strings.Join(parts, " ")
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
