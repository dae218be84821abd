package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/domain"
	"github.com/haierkeys/onchain-diary-service/pkg/code"
	"github.com/haierkeys/onchain-diary-service/pkg/fileurl"
	"github.com/haierkeys/onchain-diary-service/pkg/logger"
	"github.com/haierkeys/onchain-diary-service/pkg/storage"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ImageService 将草稿图片转换为链上图片标签
type ImageService interface {
	// Prepare 缩放并编码图片，返回写入合约的图片标签
	Prepare(ctx context.Context, address string, img *domain.DraftImage) (string, error)
}

type imageService struct {
	storager storage.Storager
	logger   *zap.Logger
	config   *ServiceConfig
}

// NewImageService 创建 ImageService 实例，storager 为 nil 时只能使用 inline 模式
func NewImageService(storager storage.Storager, logger *zap.Logger, config *ServiceConfig) ImageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &imageService{
		storager: storager,
		logger:   logger,
		config:   config.withDefaults(),
	}
}

func (s *imageService) Prepare(ctx context.Context, address string, img *domain.DraftImage) (string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", code.ErrorImageDecode
	}
	if int64(len(img.Data)) > s.config.Image.MaxSize {
		return "", code.ErrorImageTooLarge
	}

	encoded, err := s.encode(img.Data)
	if err != nil {
		return "", err
	}

	if s.config.Image.Mode != ImageModeStorage {
		return base64.StdEncoding.EncodeToString(encoded), nil
	}
	if s.storager == nil {
		return "", code.ErrorStorageType
	}

	key := fileurl.NewObjectKey(time.Now(), "image.jpg")
	key, err = s.storager.SendContent(ctx, key, encoded, "image/jpeg")
	if err != nil {
		return "", code.ErrorStorageUpload.WithDetails(err.Error())
	}
	s.logger.Info("diary image uploaded",
		zap.String(logger.FieldAddress, address),
		zap.String(logger.FieldFileKey, key),
		zap.Int(logger.FieldSize, len(encoded)))
	return domain.StorageTagPrefix + key, nil
}

// encode 解码任意支持的格式，最长边超过上限时等比缩小，输出 JPEG
func (s *imageService) encode(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, code.ErrorImageDecode.WithDetails(err.Error())
	}

	var out image.Image = src
	b := src.Bounds()
	if w, h := scaleSize(b.Dx(), b.Dy(), s.config.Image.MaxDimension); w != b.Dx() || h != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: s.config.Image.JPEGQuality}); err != nil {
		return nil, code.ErrorImageDecode.WithDetails(err.Error())
	}
	return buf.Bytes(), nil
}

// scaleSize 等比缩放到最长边不超过 max
func scaleSize(w, h, max int) (int, int) {
	if max <= 0 || (w <= max && h <= max) {
		return w, h
	}
	if w >= h {
		nh := h * max / w
		if nh < 1 {
			nh = 1
		}
		return max, nh
	}
	nw := w * max / h
	if nw < 1 {
		nw = 1
	}
	return nw, max
}
