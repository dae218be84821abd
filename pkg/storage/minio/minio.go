package minio

import (
	"context"

	"github.com/haierkeys/onchain-diary-service/pkg/storage/aws_s3"

	"go.uber.org/zap"
)

type Config struct {
	BucketName      string `yaml:"bucket-name"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	CustomPath      string `yaml:"custom-path"`
}

// NewClient 创建 MinIO 存储实例，使用 path-style 访问自定义 endpoint
func NewClient(ctx context.Context, conf *Config, logger *zap.Logger) (*aws_s3.S3, error) {
	region := conf.Region
	if region == "" {
		region = "us-east-1"
	}
	return aws_s3.NewClient(ctx, &aws_s3.Config{
		Region:          region,
		BucketName:      conf.BucketName,
		AccessKeyID:     conf.AccessKeyID,
		AccessKeySecret: conf.AccessKeySecret,
		CustomPath:      conf.CustomPath,
		Endpoint:        conf.Endpoint,
		UsePathStyle:    true,
	}, aws_s3.WithName("minio"), aws_s3.WithLogger(logger))
}
