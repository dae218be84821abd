// Package storage 统一的对象存储入口，日记图片在 image.mode=storage 时上传到这里
package storage

import (
	"context"

	"github.com/haierkeys/onchain-diary-service/pkg/code"
	"github.com/haierkeys/onchain-diary-service/pkg/storage/aliyun_oss"
	"github.com/haierkeys/onchain-diary-service/pkg/storage/aws_s3"
	"github.com/haierkeys/onchain-diary-service/pkg/storage/cloudflare_r2"
	"github.com/haierkeys/onchain-diary-service/pkg/storage/local_fs"
	"github.com/haierkeys/onchain-diary-service/pkg/storage/minio"
	"github.com/haierkeys/onchain-diary-service/pkg/storage/webdav"

	"go.uber.org/zap"
)

type Type = string

const (
	OSS    Type = "oss"
	R2     Type = "r2"
	S3     Type = "s3"
	LOCAL  Type = "localfs"
	MinIO  Type = "minio"
	WebDAV Type = "webdav"
)

var StorageTypeMap = map[Type]bool{
	OSS:    true,
	R2:     true,
	S3:     true,
	LOCAL:  true,
	MinIO:  true,
	WebDAV: true,
}

// Config Unified storage configuration
// Config 统一存储配置
type Config struct {
	Type       Type   `yaml:"type" default:"localfs"`
	IsEnabled  bool   `yaml:"is-enable"`
	CustomPath string `yaml:"custom-path" default:"diary"`

	// Cloud Storage (S3/OSS/MinIO/R2)
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	AccountID       string `yaml:"account-id"` // Cloudflare R2

	// WebDAV
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Path     string `yaml:"path"`

	// Local FS
	SavePath string `yaml:"save-path" default:"storage/uploads"`
}

// Storager 对象存储
type Storager interface {
	// SendContent 上传内容，返回最终对象 key
	SendContent(ctx context.Context, key string, content []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

func NewClient(ctx context.Context, config *Config, logger *zap.Logger) (Storager, error) {
	if config == nil {
		return nil, code.ErrorStorageType
	}

	switch config.Type {
	case LOCAL:
		return local_fs.NewClient(&local_fs.Config{
			SavePath:   config.SavePath,
			CustomPath: config.CustomPath,
		})
	case OSS:
		return aliyun_oss.NewClient(&aliyun_oss.Config{
			Endpoint:        config.Endpoint,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			CustomPath:      config.CustomPath,
		})
	case R2:
		return cloudflare_r2.NewClient(ctx, &cloudflare_r2.Config{
			AccountID:       config.AccountID,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			CustomPath:      config.CustomPath,
		}, logger)
	case S3:
		return aws_s3.NewClient(ctx, &aws_s3.Config{
			Region:          config.Region,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			CustomPath:      config.CustomPath,
			Endpoint:        config.Endpoint,
		}, aws_s3.WithLogger(logger))
	case MinIO:
		return minio.NewClient(ctx, &minio.Config{
			Endpoint:        config.Endpoint,
			Region:          config.Region,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			CustomPath:      config.CustomPath,
		}, logger)
	case WebDAV:
		return webdav.NewClient(&webdav.Config{
			Endpoint:   config.Endpoint,
			Path:       config.Path,
			User:       config.User,
			Password:   config.Password,
			CustomPath: config.CustomPath,
		})
	}
	return nil, code.ErrorStorageType
}
