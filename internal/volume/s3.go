package volume

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hivefs/hivefs/pkg/types"
)

// S3Config configures the object-storage volume opener.
type S3Config struct {
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style"`
	MaxRetries     int    `yaml:"max_retries"`
}

// s3API is the slice of the S3 client the handle needs; tests stub it.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// s3Handle backs a read-only volume with one object in a bucket,
// served through ranged reads.
type s3Handle struct {
	client s3API
	ctx    context.Context
	bucket string
	key    string
	path   string
	size   int64
}

// NewS3Opener builds an Opener serving "s3://bucket/key" volume paths.
func NewS3Opener(ctx context.Context, cfg *S3Config) (Opener, error) {
	if cfg == nil {
		cfg = &S3Config{}
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.MaxRetries > 0 {
		loadOpts = append(loadOpts, awsconfig.WithRetryMaxAttempts(cfg.MaxRetries))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})
	return func(ctx context.Context, path string) (Handle, error) {
		return openS3(ctx, client, path)
	}, nil
}

// IsS3Path reports whether a spec path names an object-storage volume.
func IsS3Path(path string) bool {
	return strings.HasPrefix(path, "s3://")
}

func openS3(ctx context.Context, client s3API, path string) (Handle, error) {
	rest, ok := strings.CutPrefix(path, "s3://")
	if !ok {
		return nil, fmt.Errorf("%w: not an s3 volume path: %s", types.ErrInvalidArgument, path)
	}
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: s3 volume path %s wants s3://bucket/key", types.ErrInvalidArgument, path)
	}
	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: head %s: %v", types.ErrNotFound, path, err)
	}
	return &s3Handle{
		client: client,
		ctx:    ctx,
		bucket: bucket,
		key:    key,
		path:   path,
		size:   aws.ToInt64(head.ContentLength),
	}, nil
}

func (h *s3Handle) ReadAt(p []byte, off int64) (int, error) {
	if off >= h.size {
		return 0, io.EOF
	}
	end := off + int64(len(p)) - 1
	if end >= h.size {
		end = h.size - 1
	}
	out, err := h.client.GetObject(h.ctx, &s3.GetObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(h.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: ranged read %s: %v", types.ErrMediaError, h.path, err)
	}
	defer out.Body.Close()
	n, err := io.ReadFull(out.Body, p[:end-off+1])
	if err != nil {
		return n, fmt.Errorf("%w: ranged read %s: %v", types.ErrMediaError, h.path, err)
	}
	if int64(n) < int64(len(p)) {
		return n, io.EOF
	}
	return n, nil
}

func (h *s3Handle) Close() error    { return nil }
func (h *s3Handle) Path() string    { return h.path }
func (h *s3Handle) DeviceID() uint64 { return pathDeviceID(h.path) }
func (h *s3Handle) Size() int64     { return h.size }
