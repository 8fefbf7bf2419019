package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/soitgoes511/graph-network-visualizer/pkg/analytics"
	"github.com/soitgoes511/graph-network-visualizer/pkg/annotate"
	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
	"github.com/soitgoes511/graph-network-visualizer/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func meetingSentence(text string) annotate.Sentence {
	return annotate.Sentence{
		Text: text,
		Tokens: []annotate.Token{
			{Index: 0, Text: "Acme", Lemma: "Acme", POS: "PROPN", Dep: "compound", Head: 1, IsAlpha: true},
			{Index: 1, Text: "Corp", Lemma: "Corp", POS: "PROPN", Dep: "nsubj", Head: 2, IsAlpha: true},
			{Index: 2, Text: "met", Lemma: "meet", POS: "VERB", Dep: "ROOT", Head: 2, IsAlpha: true},
			{Index: 3, Text: "IBM", Lemma: "IBM", POS: "PROPN", Dep: "dobj", Head: 2, IsAlpha: true},
		},
		Entities: []annotate.EntitySpan{
			{Start: 0, End: 2, Label: "ORG", Text: "Acme Corp"},
			{Start: 3, End: 4, Label: "ORG", Text: "IBM"},
		},
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeDocuments(t *testing.T, dir string, docs []annotatedDocument) string {
	t.Helper()
	data, err := json.Marshal(docs)
	require.NoError(t, err)
	path := filepath.Join(dir, "docs.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func buildSnapshot(t *testing.T, dir string) string {
	t.Helper()
	in := writeDocuments(t, dir, []annotatedDocument{
		{Name: "a.txt", Text: "Acme Corp met IBM.", Sentences: []annotate.Sentence{meetingSentence("Acme Corp met IBM.")}},
		{Name: "b.txt", Text: "Acme Corp met IBM again.", Sentences: []annotate.Sentence{meetingSentence("Acme Corp met IBM again.")}},
	})
	out := filepath.Join(dir, "snapshot.json")
	_, err := run(t, "build", in, "--out", out, "--name", "demo")
	require.NoError(t, err)
	return out
}

func TestBuild(t *testing.T) {
	path := buildSnapshot(t, t.TempDir())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	snap, err := store.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, "demo", snap.Name)
	assert.NotEmpty(t, snap.ID)
	assert.Len(t, snap.Graph.Nodes, 4)
	assert.False(t, snap.Graph.Meta.Truncated)
	assert.Empty(t, snap.Graph.Meta.QueryID)

	var co []common.Edge
	for _, e := range snap.Graph.Links {
		if e.RelationType == common.RelationCoOccurs {
			co = append(co, e)
		}
	}
	require.Len(t, co, 1)
	assert.Equal(t, 2.0, co[0].Weight)
	assert.Equal(t, []string{"file:a.txt", "file:b.txt"}, co[0].SourceDocs)
	assert.Equal(t, analytics.TierBetweennessExact, snap.Graph.Insights.AnalyticsTiers.Betweenness)
}

func TestBuild_RejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	in := writeDocuments(t, dir, []annotatedDocument{{Name: "a.txt", Kind: "audio"}})
	_, err := run(t, "build", in)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = run(t, "build", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestView(t *testing.T) {
	path := buildSnapshot(t, t.TempDir())

	out, err := run(t, "view", path, "--node-limit", "2")
	require.NoError(t, err)
	var resp common.GraphResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Meta.Truncated)
	assert.Equal(t, 2, resp.Meta.VisibleNodes)
	assert.Equal(t, 4, resp.Meta.TotalNodes)

	_, err = run(t, "view", path, "--node-limit=-1")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestPath(t *testing.T) {
	path := buildSnapshot(t, t.TempDir())

	out, err := run(t, "path", path, "file:a.txt", "file:b.txt")
	require.NoError(t, err)
	var got []string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"file:a.txt", "entity:acme corp", "file:b.txt"}, got)

	out, err = run(t, "path", path, "file:a.txt", "file:nowhere")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Empty(t, got)
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	first := buildSnapshot(t, dir)

	other := t.TempDir()
	in := writeDocuments(t, other, []annotatedDocument{
		{Name: "c.txt", Sentences: []annotate.Sentence{meetingSentence("Acme Corp met IBM once more.")}},
	})
	second := filepath.Join(other, "c.json")
	_, err := run(t, "build", in, "--out", second)
	require.NoError(t, err)

	out, err := run(t, "merge", first, second, "--name", "all")
	require.NoError(t, err)
	snap, err := store.Decode([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "all", snap.Name)
	assert.Len(t, snap.Graph.Nodes, 5)

	for _, e := range snap.Graph.Links {
		if e.RelationType == common.RelationCoOccurs {
			assert.Equal(t, 3.0, e.Weight)
			assert.Len(t, e.SourceDocs, 3)
		}
	}
}
