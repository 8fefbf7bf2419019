package s3

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/soitgoes511/graph-network-visualizer/internal/storage"
	"github.com/soitgoes511/graph-network-visualizer/internal/util"
	"github.com/soitgoes511/graph-network-visualizer/pkg/store"
)

// S3Store writes one JSON object per snapshot under Prefix.
type S3Store struct {
	client     storage.ObjectAPI
	bucket     string
	prefix     string
	maxRetries int
	backoff    time.Duration
	now        func() time.Time
}

type NewS3StoreParams struct {
	Client     storage.ObjectAPI
	Bucket     string
	Prefix     string
	MaxRetries int
	Backoff    time.Duration
}

func NewS3Store(params NewS3StoreParams) (*S3Store, error) {
	if params.Bucket == "" {
		return nil, errors.New("s3 store: bucket is required")
	}
	retries := params.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	backoff := params.Backoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	prefix := strings.Trim(params.Prefix, "/")
	if prefix == "" {
		prefix = "snapshots"
	}
	return &S3Store{
		client:     params.Client,
		bucket:     params.Bucket,
		prefix:     prefix,
		maxRetries: retries,
		backoff:    backoff,
		now:        time.Now,
	}, nil
}

func (s *S3Store) key(id string) string {
	return path.Join(s.prefix, id+".json")
}

func (s *S3Store) Save(ctx context.Context, snap store.Snapshot) (string, error) {
	snap, err := store.Prepare(snap, s.now())
	if err != nil {
		return "", err
	}
	data, err := store.Encode(snap)
	if err != nil {
		return "", err
	}
	err = util.RetryErrWithBackoff(ctx, s.maxRetries, s.backoff, func(ctx context.Context) error {
		err := storage.PutFile(ctx, s.client, s.bucket, s.key(snap.ID), "application/json", data)
		if clientError(err) {
			return util.Permanent(err)
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return snap.ID, nil
}

// clientError reports a 4xx response other than timeouts and throttling.
func clientError(err error) bool {
	var re interface{ HTTPStatusCode() int }
	if !errors.As(err, &re) {
		return false
	}
	code := re.HTTPStatusCode()
	return code >= 400 && code < 500 && code != 408 && code != 429
}

func (s *S3Store) Load(ctx context.Context, id string) (store.Snapshot, error) {
	data, err := storage.GetFile(ctx, s.client, s.bucket, s.key(id))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return store.Snapshot{}, fmt.Errorf("%w: %s", store.ErrSnapshotNotFound, id)
	}
	if err != nil {
		return store.Snapshot{}, err
	}
	return store.Decode(data)
}

// List reads every snapshot object; listings are expected to stay small.
func (s *S3Store) List(ctx context.Context) ([]store.SnapshotInfo, error) {
	keys, err := storage.ListFilesWithPrefix(ctx, s.client, s.bucket, s.prefix+"/")
	if err != nil {
		return nil, err
	}
	infos := make([]store.SnapshotInfo, 0, len(keys))
	for _, k := range keys {
		if !strings.HasSuffix(k, ".json") {
			continue
		}
		data, err := storage.GetFile(ctx, s.client, s.bucket, k)
		if err != nil {
			return nil, err
		}
		snap, err := store.Decode(data)
		if err != nil {
			return nil, err
		}
		infos = append(infos, store.InfoOf(snap))
	}
	store.SortInfos(infos)
	return infos, nil
}
