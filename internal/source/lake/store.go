package lake

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
)

// BlobStore abstracts the object store holding the gold-layer tables. Tests
// use an in-memory implementation.
type BlobStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Read(ctx context.Context, name string) ([]byte, error)
}

// GCSStore reads the lake bucket through the Cloud Storage client.
type GCSStore struct {
	bucket *storage.BucketHandle
}

func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{bucket: client.Bucket(bucket)}
}

func (s *GCSStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "list objects under %s", prefix)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

func (s *GCSStore) Read(ctx context.Context, name string) ([]byte, error) {
	r, err := s.bucket.Object(name).NewReader(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "open object %s", name)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read object %s", name)
	}
	return data, nil
}
