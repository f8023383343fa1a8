package ioin

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Backend reads from an S3 (or S3-compatible, e.g. MinIO) bucket. The
// bucket is fixed by the Bucket field and globs are key prefixes inside it;
// object listing is a plain prefix scan with no wildcard expansion, since
// the engine's "**"-style recursion is not meaningful against a flat
// key-space - callers narrow with Prefix the way they would with `aws s3
// ls --recursive`.
type S3Backend struct {
	Bucket         string
	Endpoint       string // non-empty for S3-compatible stores (MinIO, etc.)
	Region         string
	ForcePathStyle bool

	mu     sync.Mutex
	client *s3.Client
}

func (b *S3Backend) Scheme() string { return "s3" }

func (b *S3Backend) ensureClient(ctx context.Context) (*s3.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client != nil {
		return b.client, nil
	}
	var opts []func(*config.LoadOptions) error
	if b.Region != "" {
		opts = append(opts, config.WithRegion(b.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "s3: load AWS config")
	}
	var s3Opts []func(*s3.Options)
	if b.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(b.Endpoint) })
	}
	if b.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
	}
	b.client = s3.NewFromConfig(cfg, s3Opts...)
	return b.client, nil
}

// List treats prefix as a plain key prefix (no wildcard expansion) and
// returns every matching object key under b.Bucket.
func (b *S3Backend) List(ctx context.Context, prefix string) ([]string, error) {
	cl, err := b.ensureClient(ctx)
	if err != nil {
		return nil, err
	}
	prefix = strings.TrimPrefix(prefix, "/")
	var keys []string
	var token *string
	for {
		out, err := cl.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(b.Bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "s3: list %s/%s", b.Bucket, prefix)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}
	return keys, nil
}

func (b *S3Backend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	cl, err := b.ensureClient(ctx)
	if err != nil {
		return nil, err
	}
	out, err := cl.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.Bucket),
		Key:    aws.String(strings.TrimPrefix(key, "/")),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "s3: get %s/%s", b.Bucket, key)
	}
	return out.Body, nil
}

func (b *S3Backend) Size(ctx context.Context, key string) (int64, error) {
	cl, err := b.ensureClient(ctx)
	if err != nil {
		return -1, err
	}
	out, err := cl.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.Bucket),
		Key:    aws.String(strings.TrimPrefix(key, "/")),
	})
	if err != nil {
		return -1, err
	}
	return aws.ToInt64(out.ContentLength), nil
}
