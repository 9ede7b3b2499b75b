package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Source serves an archive object through the AWS S3 API. Sequential
// reads stream the object with ranged GETs; random access issues one
// ranged GET per call, so header lookups never download the payload.
type S3Source struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3Source creates a source over bucket/key in region. endpoint
// overrides the AWS default for S3-compatible services; leave it empty
// for AWS itself.
func NewS3Source(ctx context.Context, region, endpoint, bucket, key, accessKey, secretKey string) (*S3Source, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     accessKey,
				SecretAccessKey: secretKey,
			}, nil
		})),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(normalizeEndpoint(endpoint))
		}
	})

	return &S3Source{
		client: client,
		bucket: bucket,
		key:    key,
	}, nil
}

// Open checks the object exists and captures its size. No data is
// transferred until the returned reader is used.
func (s *S3Source) Open(ctx context.Context) (Reader, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	var size int64
	if head.ContentLength != nil {
		size = *head.ContentLength
	}

	return &s3Reader{
		ctx:    ctx,
		client: s.client,
		bucket: s.bucket,
		key:    s.key,
		size:   size,
	}, nil
}

// Name returns the object URL.
func (s *S3Source) Name() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

// s3Reader is one read session over an object. It keeps the context it
// was opened with for the ranged requests issued by later reads.
type s3Reader struct {
	ctx    context.Context
	client *s3.Client
	bucket string
	key    string
	size   int64

	pos     int64
	body    io.ReadCloser
	bodyPos int64
}

// Read streams from the current position. A position moved by Seek since
// the last Read reopens the stream at the new offset.
func (r *s3Reader) Read(p []byte) (int, error) {
	if r.pos >= r.size {
		return 0, io.EOF
	}
	if r.body == nil || r.bodyPos != r.pos {
		r.closeBody()
		out, err := r.client.GetObject(r.ctx, &s3.GetObjectInput{
			Bucket: aws.String(r.bucket),
			Key:    aws.String(r.key),
			Range:  aws.String(rangeFrom(r.pos)),
		})
		if err != nil {
			return 0, fmt.Errorf("failed to get object: %w", err)
		}
		r.body = out.Body
		r.bodyPos = r.pos
	}

	n, err := r.body.Read(p)
	r.pos += int64(n)
	r.bodyPos += int64(n)
	return n, err
}

// ReadAt reads len(p) bytes at off with a single ranged request. The
// current stream position is left untouched.
func (r *s3Reader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("invalid read offset %d", off)
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off >= r.size {
		return 0, io.EOF
	}

	out, err := r.client.GetObject(r.ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
		Range:  aws.String(rangeSpec(off, off+int64(len(p))-1)),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	n, err := io.ReadFull(out.Body, p)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return n, io.EOF
	}
	return n, err
}

func (r *s3Reader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.pos + offset
	case io.SeekEnd:
		abs = r.size + offset
	default:
		return 0, fmt.Errorf("invalid seek whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("invalid seek offset %d", abs)
	}
	r.pos = abs
	return abs, nil
}

func (r *s3Reader) Size() int64 {
	return r.size
}

func (r *s3Reader) Close() error {
	return r.closeBody()
}

func (r *s3Reader) closeBody() error {
	if r.body == nil {
		return nil
	}
	err := r.body.Close()
	r.body = nil
	return err
}

// rangeFrom builds an HTTP range header covering off to the object end.
func rangeFrom(off int64) string {
	return fmt.Sprintf("bytes=%d-", off)
}

// rangeSpec builds an HTTP range header covering off through end inclusive.
func rangeSpec(off, end int64) string {
	return fmt.Sprintf("bytes=%d-%d", off, end)
}

// normalizeEndpoint trims whitespace and defaults the scheme to HTTPS
// when none is present. Explicit schemes pass through unchanged.
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return ""
	}
	lower := strings.ToLower(endpoint)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return endpoint
	}
	return "https://" + endpoint
}
