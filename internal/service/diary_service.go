package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/chain"
	"github.com/haierkeys/onchain-diary-service/internal/domain"
	"github.com/haierkeys/onchain-diary-service/internal/dto"
	"github.com/haierkeys/onchain-diary-service/internal/metrics"
	"github.com/haierkeys/onchain-diary-service/pkg/cache"
	"github.com/haierkeys/onchain-diary-service/pkg/code"
	"github.com/haierkeys/onchain-diary-service/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// sharedReadTimeout 合并后的单日读取上限
const sharedReadTimeout = 30 * time.Second

// WarningContractNotConfigured 未配置合约地址时展示的提示
const WarningContractNotConfigured = "Diary contract address is not configured. Set chain.contract-address or " + chain.EnvContractAddress + "."

// DiaryService 日记读取服务
type DiaryService interface {
	// Config 客户端需要的链和限制信息
	Config() *dto.DiaryConfigDTO

	// Today 当天的条目和剩余写入次数
	Today(ctx context.Context, address string) (*dto.DiaryTodayDTO, error)

	// History 最近 days 天（含今天）有条目的日期，按日期倒序
	// 读取失败的日期和没有条目的日期不会出现在结果中
	History(ctx context.Context, address string, days int) ([]*dto.DiaryDayDTO, error)

	// Day 读取任意地址某一天的条目，day 为 0 时读取今天
	Day(ctx context.Context, address string, day uint64) (*dto.DiaryDayDTO, error)

	// Invalidate 移除某天的缓存
	Invalidate(ctx context.Context, address string, day uint64)
}

type diaryService struct {
	backend chain.Backend
	cache   cache.Cache
	metrics *metrics.Metrics
	logger  *zap.Logger
	config  *ServiceConfig
	sf      singleflight.Group
}

// NewDiaryService 创建 DiaryService 实例，c 为 nil 时不缓存
func NewDiaryService(backend chain.Backend, c cache.Cache, m *metrics.Metrics, logger *zap.Logger, config *ServiceConfig) DiaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.Nop()
	}
	return &diaryService{
		backend: backend,
		cache:   c,
		metrics: m,
		logger:  logger,
		config:  config.withDefaults(),
	}
}

func (s *diaryService) Config() *dto.DiaryConfigDTO {
	moods := make([]string, 0, len(domain.Moods))
	for _, m := range domain.Moods {
		moods = append(moods, string(m))
	}
	out := &dto.DiaryConfigDTO{
		ChainMode:        s.config.Chain.Mode,
		ChainID:          s.backend.ChainID().Int64(),
		Configured:       s.backend.Configured(),
		ExplorerURL:      s.config.Chain.ExplorerURL,
		DailyLimit:       s.config.Diary.DailyLimit,
		MaxContentLength: s.config.Diary.MaxContentLength,
		LookbackDays:     s.config.Diary.LookbackDays,
		MaxLookbackDays:  s.config.Diary.MaxLookbackDays,
		MaxImageSize:     s.config.Image.MaxSize,
		Moods:            moods,
	}
	if out.Configured {
		out.ContractAddress = s.backend.ContractAddress().Hex()
	} else {
		out.Warning = WarningContractNotConfigured
	}
	return out
}

func (s *diaryService) Today(ctx context.Context, address string) (*dto.DiaryTodayDTO, error) {
	if !common.IsHexAddress(address) {
		return nil, code.ErrorInvalidAddress
	}
	user := common.HexToAddress(address)

	today, err := s.backend.Today(ctx)
	if err != nil {
		return nil, code.ErrorChainRead.WithDetails(err.Error())
	}

	var (
		entries *domain.DayEntries
		count   uint64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.readDay(gctx, user, today, today)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = s.backend.GetDailySubmissionCount(gctx, user, today)
		s.observeRead("getDailySubmissionCount", err)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("read today failed",
			zap.String(logger.FieldAddress, user.Hex()),
			zap.Uint64(logger.FieldDay, today),
			zap.Error(err))
		return nil, code.ErrorChainRead.WithDetails(err.Error())
	}

	// 计数与条目分两次读取，中间可能有新区块，以条目为准
	if uint64(len(entries.Contents)) > count {
		count = uint64(len(entries.Contents))
	}
	out := &dto.DiaryTodayDTO{
		DiaryDayDTO: *toDayDTO(entries),
		DailyLimit:  s.config.Diary.DailyLimit,
	}
	out.Count = count
	if count < s.config.Diary.DailyLimit {
		out.Remaining = s.config.Diary.DailyLimit - count
	}
	return out, nil
}

func (s *diaryService) History(ctx context.Context, address string, days int) ([]*dto.DiaryDayDTO, error) {
	if !common.IsHexAddress(address) {
		return nil, code.ErrorInvalidAddress
	}
	user := common.HexToAddress(address)

	if days <= 0 {
		days = s.config.Diary.LookbackDays
	}
	if days > s.config.Diary.MaxLookbackDays {
		days = s.config.Diary.MaxLookbackDays
	}

	today, err := s.backend.Today(ctx)
	if err != nil {
		return nil, code.ErrorChainRead.WithDetails(err.Error())
	}
	if uint64(days) > today+1 {
		days = int(today + 1)
	}

	// 每天一个任务，结果写入各自的槽位，全部结束后统一汇总
	results := make([]*domain.DayEntries, days)
	var g errgroup.Group
	g.SetLimit(s.config.Diary.HistoryConcurrency)
	for i := 0; i < days; i++ {
		i := i
		day := today - uint64(i)
		g.Go(func() error {
			entries, err := s.readDay(ctx, user, day, today)
			if err != nil {
				s.metrics.HistoryDaysDropped.Inc()
				s.logger.Warn("read history day failed",
					zap.String(logger.FieldAddress, user.Hex()),
					zap.Uint64(logger.FieldDay, day),
					zap.Error(err))
				return nil
			}
			results[i] = entries
			return nil
		})
	}
	_ = g.Wait()

	byDay := make(map[uint64]*domain.DayEntries, days)
	for _, r := range results {
		if r == nil || len(r.Contents) == 0 {
			continue
		}
		byDay[r.Day] = r
	}

	out := make([]*dto.DiaryDayDTO, 0, len(byDay))
	for _, r := range byDay {
		out = append(out, toDayDTO(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day > out[j].Day })
	return out, nil
}

func (s *diaryService) Day(ctx context.Context, address string, day uint64) (*dto.DiaryDayDTO, error) {
	if !common.IsHexAddress(address) {
		return nil, code.ErrorInvalidAddress
	}
	today, err := s.backend.Today(ctx)
	if err != nil {
		return nil, code.ErrorChainRead.WithDetails(err.Error())
	}
	if day == 0 {
		day = today
	}
	entries, err := s.readDay(ctx, common.HexToAddress(address), day, today)
	if err != nil {
		return nil, code.ErrorChainRead.WithDetails(err.Error())
	}
	return toDayDTO(entries), nil
}

func (s *diaryService) Invalidate(ctx context.Context, address string, day uint64) {
	if s.cache == nil || !common.IsHexAddress(address) {
		return
	}
	if err := s.cache.Delete(ctx, dayCacheKey(common.HexToAddress(address), day)); err != nil {
		s.logger.Warn("cache delete failed", zap.Error(err))
	}
}

// readDay 并行读取某天的内容和图片标签
// 早于 today 的日期不会再变化，结果放入缓存
func (s *diaryService) readDay(ctx context.Context, user common.Address, day, today uint64) (*domain.DayEntries, error) {
	key := dayCacheKey(user, day)
	cacheable := s.cache != nil && day < today && s.backend.Configured()

	if cacheable {
		if entries, ok := s.cached(ctx, key); ok {
			return entries, nil
		}
	}

	// 共享读取不跟随某个调用方的取消，各调用方只等待自己的 ctx
	ch := s.sf.DoChan(key, func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()

		var contents, images []string
		g, gctx := errgroup.WithContext(rctx)
		g.Go(func() error {
			var err error
			contents, err = s.backend.GetDiary(gctx, user, day)
			s.observeRead("getDiary", err)
			return err
		})
		g.Go(func() error {
			var err error
			images, err = s.backend.GetDiaryImage(gctx, user, day)
			s.observeRead("getDiaryImage", err)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return alignEntries(day, contents, images), nil
	})

	var entries *domain.DayEntries
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		entries = res.Val.(*domain.DayEntries)
	}

	if cacheable {
		s.store(ctx, key, entries)
	}
	return entries, nil
}

func (s *diaryService) cached(ctx context.Context, key string) (*domain.DayEntries, bool) {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.metrics.CacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		s.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	var entries domain.DayEntries
	if err := sonic.Unmarshal(raw, &entries); err != nil {
		s.metrics.CacheLookups.WithLabelValues("error").Inc()
		return nil, false
	}
	s.metrics.CacheLookups.WithLabelValues("hit").Inc()
	return &entries, true
}

func (s *diaryService) store(ctx context.Context, key string, entries *domain.DayEntries) {
	raw, err := sonic.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.config.Diary.cacheTTL()); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *diaryService) observeRead(method string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.metrics.ChainReads.WithLabelValues(method, result).Inc()
}

func dayCacheKey(user common.Address, day uint64) string {
	return "day:" + user.Hex() + ":" + strconv.FormatUint(day, 10)
}

// alignEntries 让图片标签与内容按下标一一对应
func alignEntries(day uint64, contents, images []string) *domain.DayEntries {
	if contents == nil {
		contents = []string{}
	}
	aligned := make([]string, len(contents))
	copy(aligned, images)
	return &domain.DayEntries{
		Day:       day,
		Contents:  contents,
		ImageTags: aligned,
		Count:     uint64(len(contents)),
	}
}

func toDayDTO(e *domain.DayEntries) *dto.DiaryDayDTO {
	out := &dto.DiaryDayDTO{
		Day:     e.Day,
		Date:    domain.DayStart(e.Day).Format("2006-01-02"),
		Count:   e.Count,
		Entries: make([]*dto.DiaryEntryDTO, 0, len(e.Contents)),
	}
	for i, content := range e.Contents {
		tag := ""
		if i < len(e.ImageTags) {
			tag = e.ImageTags[i]
		}
		out.Entries = append(out.Entries, &dto.DiaryEntryDTO{
			Position: i,
			Content:  content,
			ImageTag: tag,
			Image:    domain.ParseImageTag(tag),
		})
	}
	return out
}
