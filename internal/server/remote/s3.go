package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	mapset "github.com/deckarep/golang-set/v2"
)

// S3Store mirrors files under `<folder>/` in an S3-compatible bucket. The
// object ETag plays the role of the version token.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ Store = (*S3Store)(nil)

func NewS3Store(cfg *S3Config, folder string) (*S3Store, error) {
	// AWS_CA_BUNDLE is applied through the buildable client transport options
	httpClient := awshttp.NewBuildableClient().
		WithTimeout(requestTimeout).
		WithTransportOptions(func(t *http.Transport) {
			t.MaxIdleConns = 20
			t.IdleConnTimeout = 90 * time.Second
			t.TLSHandshakeTimeout = 10 * time.Second
			t.ExpectContinueTimeout = 1 * time.Second
			t.ForceAttemptHTTP2 = true
		})

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
		config.WithRegion(cfg.Region),
		config.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, cfg.BucketName, folder), nil
}

func newS3Store(client *s3.Client, bucket, folder string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(folder, "/") + "/",
	}
}

func (s *S3Store) Backend() string  { return BackendS3 }
func (s *S3Store) Configured() bool { return true }

func (s *S3Store) Exists(ctx context.Context, name string) (string, bool) {
	etag, err := s.head(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("remote exists", "backend", BackendS3, "name", name, "error", err)
		}
		return "", false
	}
	return etag, true
}

// Put overwrites unconditionally; S3 keys have no optimistic version check
func (s *S3Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("remote put %s: %w", name, err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, name string) error {
	if _, err := s.head(ctx, name); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return fmt.Errorf("remote delete %s: %w", name, err)
	}
	return nil
}

func (s *S3Store) List(ctx context.Context) (mapset.Set[string], error) {
	names := mapset.NewSet[string]()

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(s.prefix),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			err = fmt.Errorf("remote list: %w", err)
			slog.Error("remote list", "backend", BackendS3, "bucket", s.bucket, "prefix", s.prefix, "error", err)
			return mapset.NewSet[string](), err
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			if name != "" {
				names.Add(name)
			}
		}
	}

	return names, nil
}

func (s *S3Store) Fetch(ctx context.Context, name string) ([]byte, bool) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if !isS3NotFound(err) {
			slog.Warn("remote fetch", "backend", BackendS3, "name", name, "error", err)
		}
		return nil, false
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		slog.Warn("remote fetch", "backend", BackendS3, "name", name, "error", err)
		return nil, false
	}
	return data, true
}

func (s *S3Store) head(ctx context.Context, name string) (string, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("remote head %s: %w", name, err)
	}
	return strings.Trim(aws.ToString(out.ETag), `"`), nil
}

func (s *S3Store) key(name string) string {
	return s.prefix + name
}

func isS3NotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return true
	}
	var resErr *awshttp.ResponseError
	return errors.As(err, &resErr) && resErr.HTTPStatusCode() == http.StatusNotFound
}
