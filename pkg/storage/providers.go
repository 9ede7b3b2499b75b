package storage

import (
	"context"
	"fmt"
)

// NewAliyunSource creates a source over an Aliyun OSS object. OSS speaks
// the S3 protocol; when endpoint is empty the regional default
// oss-<region>.aliyuncs.com is used.
func NewAliyunSource(ctx context.Context, region, endpoint, bucket, key, accessKey, secretKey string) (*S3Source, error) {
	if endpoint == "" {
		endpoint = fmt.Sprintf("oss-%s.aliyuncs.com", region)
	}
	return NewS3Source(ctx, region, endpoint, bucket, key, accessKey, secretKey)
}

// NewQiniuSource creates a source over a Qiniu Kodo object. Kodo speaks
// the S3 protocol under a fixed pseudo-region; the endpoint carries the
// real location, format s3.<region>.qiniucs.com.
func NewQiniuSource(ctx context.Context, endpoint, bucket, key, accessKey, secretKey string) (*S3Source, error) {
	return NewS3Source(ctx, "qiniu", endpoint, bucket, key, accessKey, secretKey)
}
