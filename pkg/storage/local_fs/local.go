package local_fs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/haierkeys/onchain-diary-service/pkg/fileurl"

	"github.com/pkg/errors"
)

type Config struct {
	SavePath   string `yaml:"save-path" default:"storage/uploads"`
	CustomPath string `yaml:"custom-path"`
}

type LocalFS struct {
	Config *Config
}

func NewClient(conf *Config) (*LocalFS, error) {
	if conf.SavePath == "" {
		conf.SavePath = "storage/uploads"
	}
	return &LocalFS{Config: conf}, nil
}

// FilePath 对象 key 在磁盘上的路径
func (p *LocalFS) FilePath(key string) string {
	return filepath.Join(p.Config.SavePath, filepath.FromSlash(key))
}

func (p *LocalFS) SendContent(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key = fileurl.JoinKey(p.Config.CustomPath, key)
	dst := p.FilePath(key)

	if err := fileurl.CreatePath(dst, 0754); err != nil {
		return "", errors.Wrap(err, "local_fs")
	}
	if err := os.WriteFile(dst, content, 0644); err != nil {
		return "", errors.Wrap(err, "local_fs")
	}
	return key, nil
}

func (p *LocalFS) Delete(ctx context.Context, key string) error {
	err := os.Remove(p.FilePath(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "local_fs")
	}
	return nil
}
