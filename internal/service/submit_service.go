package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/chain"
	"github.com/haierkeys/onchain-diary-service/internal/domain"
	"github.com/haierkeys/onchain-diary-service/internal/dto"
	"github.com/haierkeys/onchain-diary-service/internal/metrics"
	"github.com/haierkeys/onchain-diary-service/pkg/code"
	"github.com/haierkeys/onchain-diary-service/pkg/logger"
	"github.com/haierkeys/onchain-diary-service/pkg/timex"
	"github.com/haierkeys/onchain-diary-service/pkg/workerpool"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
)

// WarningImageSkipped 图片处理失败、只写入文字时附带的提示
const WarningImageSkipped = "Image upload failed, the entry was saved without it"

// errInterrupted 进程在交易发出前退出
var errInterrupted = errors.New("write interrupted before the transaction was sent")

// SignerFunc 返回账户当前会话的签名器
type SignerFunc func(address common.Address) (chain.Signer, error)

// SubmitService 日记写入服务
// 提交后立即返回写入记录，上传、签名、等待回执在任务池中异步进行
type SubmitService interface {
	// Submit 以当前草稿发起一次写入
	Submit(ctx context.Context, address string) (*dto.WriteAttemptDTO, error)

	// Get 查询写入记录，只能查询自己的记录
	Get(ctx context.Context, address, id string) (*dto.WriteAttemptDTO, error)

	// List 分页查询写入记录
	List(ctx context.Context, address string, page, pageSize int) ([]*dto.WriteAttemptDTO, int64, error)

	// Reconcile 处理长时间未结束的写入（如进程重启前提交的交易），返回处理条数
	Reconcile(ctx context.Context, staleAfter time.Duration) (int, error)

	// Cleanup 删除 retention 之前已结束的记录
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)

	// OnUpdate 注册写入状态变化回调
	OnUpdate(fn func(*dto.WriteAttemptDTO))
}

type submitService struct {
	attemptRepo domain.WriteAttemptRepository
	composer    ComposerService
	images      ImageService
	backend     chain.Backend
	signer      SignerFunc
	pool        *workerpool.Pool
	metrics     *metrics.Metrics
	logger      *zap.Logger
	config      *ServiceConfig

	mu        sync.RWMutex
	listeners []func(*dto.WriteAttemptDTO)
	running   sync.Map
}

// NewSubmitService 创建 SubmitService 实例
func NewSubmitService(
	attemptRepo domain.WriteAttemptRepository,
	composer ComposerService,
	images ImageService,
	backend chain.Backend,
	signer SignerFunc,
	pool *workerpool.Pool,
	m *metrics.Metrics,
	logger *zap.Logger,
	config *ServiceConfig,
) SubmitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.Nop()
	}
	return &submitService{
		attemptRepo: attemptRepo,
		composer:    composer,
		images:      images,
		backend:     backend,
		signer:      signer,
		pool:        pool,
		metrics:     m,
		logger:      logger,
		config:      config.withDefaults(),
	}
}

func (s *submitService) OnUpdate(fn func(*dto.WriteAttemptDTO)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *submitService) Submit(ctx context.Context, address string) (*dto.WriteAttemptDTO, error) {
	id := uuid.New().String()

	draft, err := s.composer.Begin(address, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	attempt := &domain.WriteAttempt{
		ID:        id,
		Address:   address,
		Content:   draft.Content,
		Mood:      draft.Mood,
		Stage:     domain.StageIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		s.composer.Finish(address, id, false, code.ErrorDBWrite.Error())
		return nil, code.ErrorDBWrite.WithDetails(err.Error())
	}

	s.running.Store(id, struct{}{})
	s.metrics.WritesInFlight.Inc()

	// 写入不随 HTTP 请求结束而取消，由 write-timeout 限制
	job := *attempt
	err = s.pool.SubmitAsync(context.Background(), "diary.write", func(ctx context.Context) error {
		return s.run(ctx, &job, draft)
	})
	if err != nil {
		s.fail(context.Background(), attempt, err, now)
		return nil, code.ErrorSubmitFailed.WithDetails(err.Error())
	}

	s.logger.Info("diary write submitted",
		zap.String(logger.FieldAddress, address),
		zap.String(logger.FieldAttemptID, id))
	return s.toDTO(attempt), nil
}

// run 依次经过 uploading、building_args、pending、confirming 直到 confirmed 或 errored
func (s *submitService) run(ctx context.Context, a *domain.WriteAttempt, draft domain.Draft) error {
	start := a.CreatedAt
	ctx, cancel := context.WithTimeout(ctx, s.config.Diary.writeTimeout())
	defer cancel()

	imageTag := draft.Mood.Tag()
	if draft.Image != nil {
		s.advance(ctx, a, domain.StageUploading)
		s.composer.SetUploading(a.Address, true)
		tag, err := s.images.Prepare(ctx, a.Address, draft.Image)
		s.composer.SetUploading(a.Address, false)
		if err != nil {
			// 上传失败时仍写入文字
			s.logger.Warn("diary image skipped",
				zap.String(logger.FieldAttemptID, a.ID),
				zap.Error(err))
			a.Warning = WarningImageSkipped + ": " + err.Error()
		} else {
			imageTag = tag
		}
	}

	a.ImageTag = imageTag
	s.advance(ctx, a, domain.StageBuildingArgs)
	if !common.IsHexAddress(a.Address) {
		return s.fail(ctx, a, code.ErrorInvalidAddress, start)
	}
	signer, err := s.signer(common.HexToAddress(a.Address))
	if err != nil {
		return s.fail(ctx, a, err, start)
	}

	s.advance(ctx, a, domain.StagePending)
	hash, err := s.backend.WriteDiary(ctx, signer, a.Content, a.ImageTag)
	if err != nil {
		return s.fail(ctx, a, err, start)
	}

	a.TxHash = hash.Hex()
	s.advance(ctx, a, domain.StageConfirming)
	return s.confirm(ctx, a, hash, start)
}

// confirm 等待回执并写入最终状态
func (s *submitService) confirm(ctx context.Context, a *domain.WriteAttempt, hash common.Hash, start time.Time) error {
	receipt, err := s.backend.WaitReceipt(ctx, hash)
	return s.settle(ctx, a, receipt, err, start)
}

func (s *submitService) settle(ctx context.Context, a *domain.WriteAttempt, receipt *chain.Receipt, err error, start time.Time) error {
	if err != nil {
		return s.fail(ctx, a, err, start)
	}
	a.BlockNumber = receipt.BlockNumber
	a.Day = domain.DayOfUnix(receipt.BlockTime)
	if err := receipt.Err(); err != nil {
		return s.fail(ctx, a, err, start)
	}

	s.finish(a, true, start, "confirmed")
	s.advance(ctx, a, domain.StageConfirmed)
	s.logger.Info("diary write confirmed",
		zap.String(logger.FieldAddress, a.Address),
		zap.String(logger.FieldAttemptID, a.ID),
		zap.String(logger.FieldTxHash, a.TxHash),
		zap.Uint64(logger.FieldBlockNumber, a.BlockNumber),
		zap.Uint64(logger.FieldDay, a.Day))
	return nil
}

func (s *submitService) fail(ctx context.Context, a *domain.WriteAttempt, err error, start time.Time) error {
	kind, c := ClassifyWriteError(err)
	a.ErrorKind = kind
	a.ErrorMessage = c.Error()
	s.finish(a, false, start, string(kind))
	s.advance(ctx, a, domain.StageErrored)
	s.logger.Warn("diary write failed",
		zap.String(logger.FieldAddress, a.Address),
		zap.String(logger.FieldAttemptID, a.ID),
		zap.String(logger.FieldTxHash, a.TxHash),
		zap.String("kind", string(kind)),
		zap.Error(err))
	return err
}

func (s *submitService) finish(a *domain.WriteAttempt, confirmed bool, start time.Time, result string) {
	if _, ok := s.running.LoadAndDelete(a.ID); ok {
		s.metrics.WritesInFlight.Dec()
	}
	s.metrics.WriteResults.WithLabelValues(result).Inc()
	s.metrics.WriteDuration.Observe(time.Since(start).Seconds())
	s.composer.Finish(a.Address, a.ID, confirmed, a.ErrorMessage)
}

// advance 保存新的阶段并通知订阅者
func (s *submitService) advance(ctx context.Context, a *domain.WriteAttempt, stage domain.WriteStage) {
	a.Stage = stage
	a.UpdatedAt = time.Now()
	s.metrics.WriteStages.WithLabelValues(string(stage)).Inc()

	// 超时后仍需记录最终状态
	saveCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		saveCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := s.attemptRepo.Update(saveCtx, a); err != nil {
		s.logger.Error("save write attempt failed",
			zap.String(logger.FieldAttemptID, a.ID),
			zap.String(logger.FieldStage, string(stage)),
			zap.Error(err))
	}

	out := s.toDTO(a)
	s.mu.RLock()
	listeners := append([]func(*dto.WriteAttemptDTO){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(out)
	}
}

func (s *submitService) Get(ctx context.Context, address, id string) (*dto.WriteAttemptDTO, error) {
	a, err := s.attemptRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, code.ErrorAttemptNotFound
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if a.Address != address {
		return nil, code.ErrorAttemptNotFound
	}
	return s.toDTO(a), nil
}

func (s *submitService) List(ctx context.Context, address string, page, pageSize int) ([]*dto.WriteAttemptDTO, int64, error) {
	total, err := s.attemptRepo.CountByAddress(ctx, address)
	if err != nil {
		return nil, 0, code.ErrorDBQuery.WithDetails(err.Error())
	}
	list, err := s.attemptRepo.ListByAddress(ctx, address, page, pageSize)
	if err != nil {
		return nil, 0, code.ErrorDBQuery.WithDetails(err.Error())
	}
	out := make([]*dto.WriteAttemptDTO, 0, len(list))
	for _, a := range list {
		out = append(out, s.toDTO(a))
	}
	return out, total, nil
}

func (s *submitService) Reconcile(ctx context.Context, staleAfter time.Duration) (int, error) {
	stages := []domain.WriteStage{
		domain.StageIdle,
		domain.StageUploading,
		domain.StageBuildingArgs,
		domain.StagePending,
		domain.StageConfirming,
	}
	stale, err := s.attemptRepo.ListByStages(ctx, stages, time.Now().Add(-staleAfter))
	if err != nil {
		return 0, code.ErrorDBQuery.WithDetails(err.Error())
	}

	n := 0
	for _, a := range stale {
		if _, ok := s.running.Load(a.ID); ok {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		n++

		if a.TxHash == "" {
			_ = s.fail(ctx, a, errInterrupted, a.CreatedAt)
			continue
		}

		waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		receipt, err := s.backend.WaitReceipt(waitCtx, common.HexToHash(a.TxHash))
		cancel()
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			// 交易仍未打包，下次再查
			n--
			continue
		}
		_ = s.settle(ctx, a, receipt, err, a.CreatedAt)
	}
	return n, nil
}

func (s *submitService) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	n, err := s.attemptRepo.DeleteTerminalBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, code.ErrorDBWrite.WithDetails(err.Error())
	}
	return n, nil
}

var attemptCopyOption = copier.Option{
	Converters: []copier.TypeConverter{
		{
			SrcType: time.Time{},
			DstType: timex.Time{},
			Fn: func(src interface{}) (interface{}, error) {
				return timex.Time(src.(time.Time)), nil
			},
		},
	},
}

// toDTO 将领域模型转换为 DTO
func (s *submitService) toDTO(a *domain.WriteAttempt) *dto.WriteAttemptDTO {
	out := &dto.WriteAttemptDTO{}
	if err := copier.CopyWithOption(out, a, attemptCopyOption); err != nil {
		s.logger.Warn("copy write attempt failed", zap.Error(err))
	}
	if a.TxHash != "" {
		out.ExplorerURL = chain.ExplorerTxURL(s.config.Chain.ExplorerURL, common.HexToHash(a.TxHash))
	}
	return out
}
