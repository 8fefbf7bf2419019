package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/soitgoes511/graph-network-visualizer/pkg/store"
	"github.com/soitgoes511/graph-network-visualizer/pkg/store/storetest"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBucket is an in-memory object store for one bucket.
type fakeBucket struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failPuts int
	failErr  error
	puts     int
}

type statusError struct{ code int }

func (e statusError) Error() string       { return fmt.Sprintf("status %d", e.code) }
func (e statusError) HTTPStatusCode() int { return e.code }

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: make(map[string][]byte)}
}

func (f *fakeBucket) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeBucket) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.failPuts > 0 {
		f.failPuts--
		if f.failErr != nil {
			return nil, f.failErr
		}
		return nil, errors.New("slow down")
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeBucket) ListObjectsV2(_ context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &awss3.ListObjectsV2Output{}
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
		}
	}
	return out, nil
}

func TestS3Store(t *testing.T) {
	bucket := newFakeBucket()
	s, err := NewS3Store(NewS3StoreParams{Client: bucket, Bucket: "graphs", Prefix: "/snaps/"})
	require.NoError(t, err)

	storetest.Run(t, s)

	for k := range bucket.objects {
		assert.True(t, strings.HasPrefix(k, "snaps/"), k)
	}
}

func TestS3Store_RetriesPut(t *testing.T) {
	bucket := newFakeBucket()
	bucket.failPuts = 2
	s, err := NewS3Store(NewS3StoreParams{Client: bucket, Bucket: "graphs", MaxRetries: 3, Backoff: time.Millisecond})
	require.NoError(t, err)

	storetest.Run(t, s)
}

func TestS3Store_ClientErrorNotRetried(t *testing.T) {
	bucket := newFakeBucket()
	bucket.failPuts = 5
	bucket.failErr = statusError{code: 403}
	s, err := NewS3Store(NewS3StoreParams{Client: bucket, Bucket: "graphs", MaxRetries: 3, Backoff: time.Millisecond})
	require.NoError(t, err)

	_, err = s.Save(context.Background(), store.Snapshot{Name: "denied"})
	require.Error(t, err)
	assert.Equal(t, 1, bucket.puts)
}

func TestS3Store_ServerErrorRetried(t *testing.T) {
	bucket := newFakeBucket()
	bucket.failPuts = 2
	bucket.failErr = statusError{code: 503}
	s, err := NewS3Store(NewS3StoreParams{Client: bucket, Bucket: "graphs", MaxRetries: 3, Backoff: time.Millisecond})
	require.NoError(t, err)

	_, err = s.Save(context.Background(), store.Snapshot{Name: "busy"})
	require.NoError(t, err)
	assert.Equal(t, 3, bucket.puts)
}

func TestS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(NewS3StoreParams{Client: newFakeBucket()})
	assert.Error(t, err)
}
