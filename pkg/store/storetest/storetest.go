// Package storetest holds the behavior every SnapshotStore must share.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
	"github.com/soitgoes511/graph-network-visualizer/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() common.GraphResponse {
	return common.GraphResponse{
		Nodes: []common.Node{
			{ID: "entity:acme corp", Title: "Acme Corp", Type: common.NodeTypeOrg, Count: 2, Confidence: 0.63, Aliases: []string{"Acme Corp"}},
			{ID: "entity:ibm", Title: "IBM", Type: common.NodeTypeOrg, Count: 1, Confidence: 0.58, Aliases: []string{"IBM"}},
		},
		Links: []common.Edge{{
			Source: "entity:acme corp", Target: "entity:ibm", RelationType: common.RelationCoOccurs,
			Weight: 2, Confidence: 0.5, SourceDocs: []string{"file:a.txt", "file:b.txt"},
		}},
		Insights: common.Insights{GraphStats: common.GraphStats{NodeCount: 2, EdgeCount: 1}},
		Meta:     common.Meta{QueryID: "live-query", VisibleNodes: 2, VisibleLinks: 1, TotalNodes: 2, TotalLinks: 1},
	}
}

// Run exercises save, load and list against a fresh store.
func Run(t *testing.T, s store.SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	older := store.Snapshot{ID: "snap-old", Name: "older", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Graph: sampleGraph()}
	_, err := s.Save(ctx, older)
	require.NoError(t, err)

	id, err := s.Save(ctx, store.Snapshot{Name: "newer", Graph: sampleGraph()})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "newer", got.Name)
	assert.Empty(t, got.Graph.Meta.QueryID, "snapshots never carry a live query id")
	assert.Equal(t, sampleGraph().Nodes, got.Graph.Nodes)
	assert.Equal(t, sampleGraph().Links, got.Graph.Links)

	infos, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, id, infos[0].ID, "newest first")
	assert.Equal(t, "snap-old", infos[1].ID)
	assert.Equal(t, 2, infos[1].Nodes)
	assert.Equal(t, 1, infos[1].Links)

	_, err = s.Load(ctx, "does-not-exist")
	assert.True(t, errors.Is(err, store.ErrSnapshotNotFound), "got %v", err)
}
