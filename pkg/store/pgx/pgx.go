package pgx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soitgoes511/graph-network-visualizer/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
}

// PostgresStore keeps snapshots as JSONB documents. Run Migrate before
// first use.
type PostgresStore struct {
	conn pgxIConn
	now  func() time.Time
}

// NewPostgresStoreWithConnection wraps an existing connection or pool.
func NewPostgresStoreWithConnection(conn pgxIConn) *PostgresStore {
	return &PostgresStore{conn: conn, now: time.Now}
}

const upsertSnapshot = `
INSERT INTO graph_snapshots (id, name, created_at, node_count, link_count, document)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    created_at = EXCLUDED.created_at,
    node_count = EXCLUDED.node_count,
    link_count = EXCLUDED.link_count,
    document = EXCLUDED.document`

func (p *PostgresStore) Save(ctx context.Context, s store.Snapshot) (string, error) {
	s, err := store.Prepare(s, p.now())
	if err != nil {
		return "", err
	}
	data, err := store.Encode(s)
	if err != nil {
		return "", err
	}
	info := store.InfoOf(s)
	if _, err := p.conn.Exec(ctx, upsertSnapshot, s.ID, s.Name, s.CreatedAt, info.Nodes, info.Links, data); err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	return s.ID, nil
}

func (p *PostgresStore) Load(ctx context.Context, id string) (store.Snapshot, error) {
	var data []byte
	err := p.conn.QueryRow(ctx, `SELECT document FROM graph_snapshots WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return store.Snapshot{}, fmt.Errorf("%w: %s", store.ErrSnapshotNotFound, id)
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return store.Decode(data)
}

func (p *PostgresStore) List(ctx context.Context) ([]store.SnapshotInfo, error) {
	rows, err := p.conn.Query(ctx, `
SELECT id, name, created_at, node_count, link_count
FROM graph_snapshots
ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	infos := []store.SnapshotInfo{}
	for rows.Next() {
		var info store.SnapshotInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.CreatedAt, &info.Nodes, &info.Links); err != nil {
			return nil, err
		}
		info.CreatedAt = info.CreatedAt.UTC()
		infos = append(infos, info)
	}
	return infos, rows.Err()
}
