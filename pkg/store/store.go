// Package store persists graph snapshots. A snapshot is an opaque copy of
// a served graph document; it never re-enters the view cache.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/soitgoes511/graph-network-visualizer/pkg/common"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

type Snapshot struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	CreatedAt time.Time            `json:"created_at"`
	Graph     common.GraphResponse `json:"graph"`
}

// SnapshotInfo is the listing form of a snapshot.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Nodes     int       `json:"nodes"`
	Links     int       `json:"links"`
}

type SnapshotStore interface {
	Save(ctx context.Context, s Snapshot) (string, error)
	Load(ctx context.Context, id string) (Snapshot, error)
	List(ctx context.Context) ([]SnapshotInfo, error)
}

// Prepare assigns an id and creation time when missing and strips the
// query id, which only has meaning for the live cache.
func Prepare(s Snapshot, now time.Time) (Snapshot, error) {
	if s.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return Snapshot{}, fmt.Errorf("generate snapshot id: %w", err)
		}
		s.ID = id
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now.UTC()
	}
	if s.Name == "" {
		s.Name = s.ID
	}
	s.Graph.Meta.QueryID = ""
	return s, nil
}

func InfoOf(s Snapshot) SnapshotInfo {
	return SnapshotInfo{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
		Nodes:     len(s.Graph.Nodes),
		Links:     len(s.Graph.Links),
	}
}

// SortInfos orders newest first, ties by id.
func SortInfos(infos []SnapshotInfo) {
	sort.Slice(infos, func(a, b int) bool {
		if !infos[a].CreatedAt.Equal(infos[b].CreatedAt) {
			return infos[a].CreatedAt.After(infos[b].CreatedAt)
		}
		return infos[a].ID < infos[b].ID
	})
}

func Encode(s Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// Decode parses a stored snapshot; the query id is dropped again in case
// the document was written by another tool.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	s.Graph.Meta.QueryID = ""
	return s, nil
}
