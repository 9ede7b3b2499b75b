package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/ngrpv/untar/pkg/config"
	"github.com/ngrpv/untar/pkg/crypto"
	"github.com/ngrpv/untar/pkg/storage"
)

// createSource builds the storage source for target: an s3:// object
// address or a local file path.
func createSource(ctx context.Context, cfg *config.Config, target string) (storage.Source, error) {
	if !strings.HasPrefix(target, "s3://") {
		return storage.NewFileSource(target), nil
	}

	bucket, key, err := parseObjectURL(target)
	if err != nil {
		return nil, err
	}

	accessKey := cfg.GetAccessKey()
	secretKey := cfg.GetSecretKey()
	if accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("access_key and secret_key are required for remote archives")
	}

	// An unset or "local" provider with an object address means AWS.
	provider := cfg.Source.Provider
	if provider == "" || provider == "local" {
		provider = "aws"
	}

	switch strings.ToLower(provider) {
	case "aws":
		return storage.NewS3Source(ctx, cfg.Source.Region, cfg.Source.Endpoint, bucket, key, accessKey, secretKey)
	case "qiniu":
		return storage.NewQiniuSource(ctx, cfg.Source.Endpoint, bucket, key, accessKey, secretKey)
	case "aliyun":
		return storage.NewAliyunSource(ctx, cfg.Source.Region, cfg.Source.Endpoint, bucket, key, accessKey, secretKey)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// parseObjectURL splits s3://bucket/key into its parts.
func parseObjectURL(target string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(target, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid object address %s: want s3://bucket/key", target)
	}
	return bucket, key, nil
}

// createDecryptSource wraps src in the container decryption layer.
func createDecryptSource(cfg *config.Config, src storage.Source) (*crypto.DecryptSource, error) {
	if cfg.Decrypt.KeyFile != "" {
		aesKey, hmacKey, err := crypto.LoadKeyFile(cfg.Decrypt.KeyFile)
		if err != nil {
			return nil, err
		}
		return crypto.NewDecryptSourceWithKeys(src, aesKey, hmacKey)
	}

	password := cfg.GetPassword()
	if password == "" {
		return nil, fmt.Errorf("decryption password is required")
	}
	return crypto.NewDecryptSource(src, password), nil
}
