package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/albertocavalcante/go-depgraph/repository"
)

// S3Config locates an S3-compatible object store.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3 serves repositories stored in S3 buckets, addressed as
// s3://bucket/optional/prefix.
type S3 struct {
	client *minio.Client
}

// NewS3 creates an S3 transport. Anonymous access is used when no keys are
// configured.
func NewS3(cfg S3Config) (*S3, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	var creds *credentials.Credentials
	access, secret := strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey)
	switch {
	case access != "" && secret != "":
		creds = credentials.NewStaticV4(access, secret, "")
	case access == "" && secret == "":
		creds = credentials.NewStaticV4("", "", "")
	default:
		return nil, fmt.Errorf("s3 access key and secret key must be set together")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3{client: client}, nil
}

// Get implements Transport.
func (s *S3) Get(ctx context.Context, repo repository.Repository, resource string, w io.Writer) error {
	bucket, prefix, err := ParseS3URL(repo.URL)
	if err != nil {
		return &Error{Kind: KindUnsupported, Repository: repo.ID, Resource: resource, Err: err}
	}
	key := path.Join(prefix, strings.TrimPrefix(resource, "/"))

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return s.classify(repo, resource, err)
	}
	defer func() { _ = obj.Close() }()

	if _, err := io.Copy(w, obj); err != nil {
		return s.classify(repo, resource, err)
	}
	return nil
}

func (s *S3) classify(repo repository.Repository, resource string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == http.StatusNotFound:
		return notFound(repo, resource, resp.StatusCode)
	case resp.Code == "AccessDenied":
		return &Error{Kind: KindStatus, Repository: repo.ID, Resource: resource, StatusCode: resp.StatusCode, Err: ErrUnauthorized}
	case resp.StatusCode != 0:
		return &Error{Kind: KindStatus, Repository: repo.ID, Resource: resource, StatusCode: resp.StatusCode, Err: err}
	default:
		return &Error{Kind: KindNetwork, Repository: repo.ID, Resource: resource, Err: err}
	}
}

// ParseS3URL splits s3://bucket/prefix into bucket and key prefix.
func ParseS3URL(url string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(url, "s3://")
	if !ok {
		rest, ok = strings.CutPrefix(url, "S3://")
	}
	if !ok {
		return "", "", fmt.Errorf("not an s3:// URL: %s", url)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 URL %s has no bucket", url)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}
