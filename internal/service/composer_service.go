package service

import (
	"sync"

	"github.com/haierkeys/onchain-diary-service/internal/domain"
	"github.com/haierkeys/onchain-diary-service/internal/dto"
	"github.com/haierkeys/onchain-diary-service/pkg/code"
	"github.com/haierkeys/onchain-diary-service/pkg/util"

	"go.uber.org/zap"
)

// ComposerService 管理已连接账户的草稿（输入内容、心情、图片）及提交前校验
type ComposerService interface {
	// Snapshot 返回当前草稿的副本
	Snapshot(address string) domain.Draft

	// View 草稿的展示对象
	View(address string) *dto.DraftDTO

	// SetContent 设置内容，超出上限的部分被截断，同时清除错误
	SetContent(address, content string) *dto.DraftDTO

	// SelectMood 选择心情并清除自定义图片
	SelectMood(address string, mood domain.Mood) (*dto.DraftDTO, error)

	// SelectImage 选择图片并清除心情
	SelectImage(address string, img domain.DraftImage) (*dto.DraftDTO, error)

	// ClearImage 移除已选图片
	ClearImage(address string) *dto.DraftDTO

	// DismissError 关闭错误提示
	DismissError(address string) *dto.DraftDTO

	// CanSubmit 是否允许提交
	CanSubmit(address string) bool

	// Begin 校验并锁定草稿，返回提交使用的快照
	Begin(address, attemptID string) (domain.Draft, error)

	// SetUploading 标记图片上传状态
	SetUploading(address string, uploading bool)

	// Finish 结束进行中的写入，成功时清空草稿，失败时保留草稿并记录错误
	Finish(address, attemptID string, confirmed bool, errMsg string)

	// Discard 丢弃草稿，钱包断开时调用
	Discard(address string)
}

type composerService struct {
	connected  func(address string) bool
	configured func() bool
	logger     *zap.Logger
	config     *ServiceConfig

	mu     sync.Mutex
	drafts map[string]*domain.Draft
}

// NewComposerService 创建 ComposerService 实例
func NewComposerService(connected func(string) bool, configured func() bool, logger *zap.Logger, config *ServiceConfig) ComposerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &composerService{
		connected:  connected,
		configured: configured,
		logger:     logger,
		config:     config.withDefaults(),
		drafts:     make(map[string]*domain.Draft),
	}
}

// draft 调用方需持有锁
func (s *composerService) draft(address string) *domain.Draft {
	d, ok := s.drafts[address]
	if !ok {
		d = &domain.Draft{Address: address}
		s.drafts[address] = d
	}
	return d
}

func (s *composerService) Snapshot(address string) domain.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyDraft(s.draft(address))
}

func copyDraft(d *domain.Draft) domain.Draft {
	cp := *d
	if d.Image != nil {
		img := *d.Image
		img.Data = append([]byte(nil), d.Image.Data...)
		cp.Image = &img
	}
	return cp
}

func (s *composerService) View(address string) *dto.DraftDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toDTO(s.draft(address))
}

// toDTO 调用方需持有锁
func (s *composerService) toDTO(d *domain.Draft) *dto.DraftDTO {
	out := &dto.DraftDTO{
		Address:           d.Address,
		Content:           d.Content,
		ContentLength:     util.UTF16Len(d.Content),
		MaxContentLength:  s.config.Diary.MaxContentLength,
		Mood:              string(d.Mood),
		Uploading:         d.Uploading,
		InFlightAttemptID: d.InFlightAttemptID,
		Error:             d.Error,
		CanSubmit:         s.validate(d) == nil,
	}
	if d.Image != nil {
		out.Image = &dto.DraftImageDTO{
			Name:        d.Image.Name,
			ContentType: d.Image.ContentType,
			Size:        len(d.Image.Data),
		}
	}
	return out
}

func (s *composerService) SetContent(address, content string) *dto.DraftDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft(address)
	d.Content = util.TruncateUTF16(content, s.config.Diary.MaxContentLength)
	d.Error = ""
	return s.toDTO(d)
}

func (s *composerService) SelectMood(address string, mood domain.Mood) (*dto.DraftDTO, error) {
	if !mood.Valid() {
		return nil, code.ErrorInvalidMood
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft(address)
	d.Mood = mood
	d.Image = nil
	return s.toDTO(d), nil
}

func (s *composerService) SelectImage(address string, img domain.DraftImage) (*dto.DraftDTO, error) {
	if len(img.Data) == 0 {
		return nil, code.ErrorImageDecode
	}
	if int64(len(img.Data)) > s.config.Image.MaxSize {
		return nil, code.ErrorImageTooLarge
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft(address)
	d.Image = &img
	d.Mood = ""
	return s.toDTO(d), nil
}

func (s *composerService) ClearImage(address string) *dto.DraftDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft(address)
	d.Image = nil
	return s.toDTO(d)
}

func (s *composerService) DismissError(address string) *dto.DraftDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft(address)
	d.Error = ""
	return s.toDTO(d)
}

func (s *composerService) CanSubmit(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validate(s.draft(address)) == nil
}

// validate 调用方需持有锁
func (s *composerService) validate(d *domain.Draft) error {
	if s.connected == nil || !s.connected(d.Address) {
		return code.ErrorWalletNotConnected
	}
	if s.configured != nil && !s.configured() {
		return code.ErrorContractNotConfigured
	}
	if d.InFlightAttemptID != "" {
		return code.ErrorWriteInFlight
	}
	if d.Uploading {
		return code.ErrorUploadInProgress
	}
	n := util.UTF16Len(d.Content)
	if n == 0 {
		return code.ErrorContentEmpty
	}
	if n > s.config.Diary.MaxContentLength {
		return code.ErrorContentTooLong
	}
	return nil
}

func (s *composerService) Begin(address, attemptID string) (domain.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft(address)
	if err := s.validate(d); err != nil {
		// 进行中的写入不覆盖已有错误提示
		if !errorsIsCode(err, code.ErrorWriteInFlight) {
			d.Error = err.Error()
		}
		return domain.Draft{}, err
	}
	d.InFlightAttemptID = attemptID
	d.Error = ""
	return copyDraft(d), nil
}

func (s *composerService) SetUploading(address string, uploading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft(address).Uploading = uploading
}

func (s *composerService) Finish(address, attemptID string, confirmed bool, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[address]
	if !ok || d.InFlightAttemptID != attemptID {
		return
	}
	d.InFlightAttemptID = ""
	d.Uploading = false
	if confirmed {
		d.Content = ""
		d.Mood = ""
		d.Image = nil
		d.Error = ""
		return
	}
	d.Error = errMsg
}

func (s *composerService) Discard(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, address)
}

func errorsIsCode(err error, c *code.Code) bool {
	cc, ok := err.(*code.Code)
	return ok && cc.Is(c)
}
