package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var _ Tracker = (*ObjectStore)(nil)

// objectClient is the subset of *minio.Client used by ObjectStore.
type objectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Config configures an ObjectStore.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
}

// ObjectStore tracks runs in an S3-compatible bucket.
type ObjectStore struct {
	client  objectClient
	bucket  string
	baseURL *url.URL
}

// NewObjectStore connects to the object store described by cfg.
func NewObjectStore(cfg Config) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("tracking: %w", err)
	}
	return &ObjectStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: client.EndpointURL(),
	}, nil
}

// Check verifies the tracking bucket exists and the project is complete.
func (s *ObjectStore) Check(ctx context.Context, p Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("tracking: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, s.bucket)
	}
	return nil
}

// LogRun uploads the report and metrics of run under the project prefix.
func (s *ObjectStore) LogRun(ctx context.Context, p Project, run Run) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	prefix := path.Join(p.Prefix(), "evaluations", run.ID)
	metrics, err := json.Marshal(struct {
		Name    string             `json:"name"`
		Created time.Time          `json:"created"`
		Metrics map[string]float64 `json:"metrics"`
	}{run.Name, run.Created, run.Metrics})
	if err != nil {
		return "", err
	}
	objects := []struct {
		name string
		data []byte
	}{
		{"result.json", run.Report},
		{"metrics.json", metrics},
	}
	for _, obj := range objects {
		key := path.Join(prefix, obj.name)
		_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(obj.data), int64(len(obj.data)), minio.PutObjectOptions{
			ContentType: "application/json",
			UserMetadata: map[string]string{
				"evaluation-name": run.Name,
			},
		})
		if err != nil {
			return "", fmt.Errorf("tracking: upload %s: %w", key, err)
		}
	}
	return s.url(path.Join(prefix, "result.json")), nil
}

func (s *ObjectStore) url(key string) string {
	if s.baseURL == nil {
		return path.Join(s.bucket, key)
	}
	u := *s.baseURL
	u.Path = path.Join("/", s.bucket, key)
	return u.String()
}
