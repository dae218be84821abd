// Package aws_s3 S3 兼容对象存储，MinIO 与 Cloudflare R2 也复用此实现
package aws_s3

import (
	"bytes"
	"context"

	"github.com/haierkeys/onchain-diary-service/pkg/fileurl"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Config struct {
	Region          string `yaml:"region"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	CustomPath      string `yaml:"custom-path"`
	// Endpoint 自定义服务地址，为空时使用 AWS 默认地址
	Endpoint string `yaml:"endpoint"`
	// UsePathStyle MinIO 等需要 path-style 访问
	UsePathStyle bool `yaml:"use-path-style"`
}

type S3 struct {
	Client *s3.Client
	Config *Config
	name   string
	logger *zap.Logger
}

// Option 配置选项函数类型
type Option func(*S3)

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(s *S3) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithName 设置错误信息与日志中使用的存储名称
func WithName(name string) Option {
	return func(s *S3) {
		s.name = name
	}
}

// NewClient 创建 S3 存储实例
func NewClient(ctx context.Context, conf *Config, opts ...Option) (*S3, error) {
	p := &S3{Config: conf, name: "aws_s3", logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(conf.AccessKeyID, conf.AccessKeySecret, "")),
		config.WithRegion(conf.Region),
	)
	if err != nil {
		return nil, errors.Wrap(err, p.name)
	}

	p.Client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
		}
		o.UsePathStyle = conf.UsePathStyle
	})
	return p, nil
}

// SendContent 上传内容，返回带自定义前缀的对象 key
func (p *S3) SendContent(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	key = fileurl.JoinKey(p.Config.CustomPath, key)

	input := &s3.PutObjectInput{
		Bucket: aws.String(p.Config.BucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(content),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := p.Client.PutObject(ctx, input); err != nil {
		return "", errors.Wrap(err, p.name)
	}

	p.logger.Debug("object uploaded",
		zap.String("storage", p.name),
		zap.String("bucket", p.Config.BucketName),
		zap.String("fileKey", key),
		zap.Int("size", len(content)))
	return key, nil
}

// Delete key 为 SendContent 返回的完整 key
func (p *S3) Delete(ctx context.Context, key string) error {
	_, err := p.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.Config.BucketName),
		Key:    aws.String(key),
	})
	return errors.Wrap(err, p.name)
}
