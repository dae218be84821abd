package webdav

import (
	"context"
	"path"

	"github.com/haierkeys/onchain-diary-service/pkg/fileurl"

	"github.com/pkg/errors"
	"github.com/studio-b12/gowebdav"
)

// Config 结构体用于存储 WebDAV 连接信息
type Config struct {
	Endpoint   string `yaml:"endpoint"`
	Path       string `yaml:"path"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	CustomPath string `yaml:"custom-path"`
}

// WebDAV 结构体表示 WebDAV 客户端
type WebDAV struct {
	Client *gowebdav.Client
	Config *Config
}

// NewClient 创建一个新的 WebDAV 客户端实例
func NewClient(conf *Config) (*WebDAV, error) {
	c := gowebdav.NewClient(conf.Endpoint, conf.User, conf.Password)
	if err := c.Connect(); err != nil {
		return nil, errors.Wrap(err, "webdav")
	}
	return &WebDAV{Client: c, Config: conf}, nil
}

func (w *WebDAV) remotePath(key string) string {
	return path.Join("/", w.Config.Path, key)
}

// SendContent WebDAV 不支持 context，ctx 仅用于提前退出
func (w *WebDAV) SendContent(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key = fileurl.JoinKey(w.Config.CustomPath, key)
	remote := w.remotePath(key)

	if err := w.Client.MkdirAll(path.Dir(remote), 0755); err != nil {
		return "", errors.Wrap(err, "webdav")
	}
	if err := w.Client.Write(remote, content, 0644); err != nil {
		return "", errors.Wrap(err, "webdav")
	}
	return key, nil
}

func (w *WebDAV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Wrap(w.Client.Remove(w.remotePath(key)), "webdav")
}
