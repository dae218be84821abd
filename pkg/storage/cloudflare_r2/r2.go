package cloudflare_r2

import (
	"context"
	"fmt"

	"github.com/haierkeys/onchain-diary-service/pkg/storage/aws_s3"

	"go.uber.org/zap"
)

type Config struct {
	AccountID       string `yaml:"account-id"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	CustomPath      string `yaml:"custom-path"`
}

// Endpoint returns the S3 endpoint of an R2 account
// Endpoint 返回 R2 账户的 S3 兼容地址
func Endpoint(accountID string) string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
}

// NewClient creates an R2 storage instance
// NewClient 创建 R2 存储实例
func NewClient(ctx context.Context, conf *Config, logger *zap.Logger) (*aws_s3.S3, error) {
	return aws_s3.NewClient(ctx, &aws_s3.Config{
		Region:          "auto",
		BucketName:      conf.BucketName,
		AccessKeyID:     conf.AccessKeyID,
		AccessKeySecret: conf.AccessKeySecret,
		CustomPath:      conf.CustomPath,
		Endpoint:        Endpoint(conf.AccountID),
	}, aws_s3.WithName("cloudflare_r2"), aws_s3.WithLogger(logger))
}
