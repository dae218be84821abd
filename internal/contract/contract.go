// Package contract 日记合约逻辑
// 以 (地址, 日序号) 为键保存条目，限制内容长度和每日写入次数，写入时产生 DiaryWritten 事件
package contract

import (
	"context"
	"sync"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/contract/diaryabi"
	"github.com/haierkeys/onchain-diary-service/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// 回滚原因，与已部署合约的 require 消息一致
const (
	ReasonContentEmpty        = "Content empty"
	ReasonContentTooLong      = "Content too long"
	ReasonDailyLimitReached   = "Daily limit reached"
	ReasonAlreadyWrittenToday = "Already written today"
)

// Config 合约参数
type Config struct {
	// DailyLimit 每个地址每天最多写入次数
	DailyLimit uint64 `yaml:"daily-limit" default:"5"`
	// MaxContentBytes 内容最大字节数
	MaxContentBytes int `yaml:"max-content-bytes" default:"280"`
}

// State 合约存储
type State = domain.DiaryEntryRepository

// RevertError 合约执行回滚
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	return "execution reverted: " + e.Reason
}

// Data 返回 Error(string) 编码的回滚数据
func (e *RevertError) Data() []byte {
	return diaryabi.EncodeRevert(e.Reason)
}

// BlockContext 执行交易时的区块信息
type BlockContext struct {
	Number uint64
	Time   uint64
	TxHash common.Hash
}

// Result 一次调用的执行结果
type Result struct {
	ReturnData []byte
	Logs       []*types.Log
}

// Diary 日记合约
type Diary struct {
	mu      sync.Mutex
	address common.Address
	cfg     Config
	state   State
}

// NewDiary 创建部署在 address 上的合约实例
func NewDiary(address common.Address, cfg Config, state State) *Diary {
	if cfg.DailyLimit == 0 {
		cfg.DailyLimit = 5
	}
	if cfg.MaxContentBytes <= 0 {
		cfg.MaxContentBytes = 280
	}
	return &Diary{address: address, cfg: cfg, state: state}
}

// Address 合约地址
func (d *Diary) Address() common.Address {
	return d.address
}

// Config 合约参数
func (d *Diary) Config() Config {
	return d.cfg
}

func (d *Diary) limitReason() string {
	if d.cfg.DailyLimit == 1 {
		return ReasonAlreadyWrittenToday
	}
	return ReasonDailyLimitReached
}

// WriteDiary 以 caller 身份写入一条日记，日序号取区块时间
func (d *Diary) WriteDiary(ctx context.Context, blk BlockContext, caller common.Address, content, imageTag string) (*types.Log, error) {
	if len(content) == 0 {
		return nil, &RevertError{Reason: ReasonContentEmpty}
	}
	if len(content) > d.cfg.MaxContentBytes {
		return nil, &RevertError{Reason: ReasonContentTooLong}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	day := domain.DayOfUnix(blk.Time)
	owner := caller.Hex()

	count, err := d.state.CountByDay(ctx, owner, day)
	if err != nil {
		return nil, err
	}
	if count >= d.cfg.DailyLimit {
		return nil, &RevertError{Reason: d.limitReason()}
	}

	entry := &domain.DiaryEntry{
		Owner:       owner,
		Day:         day,
		Position:    count,
		Content:     content,
		ImageTag:    imageTag,
		BlockNumber: blk.Number,
		TxHash:      blk.TxHash.Hex(),
		CreatedAt:   time.Unix(int64(blk.Time), 0).UTC(),
	}
	if err := d.state.Create(ctx, entry); err != nil {
		return nil, err
	}

	log, err := diaryabi.EncodeWrittenLog(d.address, caller, day, content)
	if err != nil {
		return nil, err
	}
	log.BlockNumber = blk.Number
	log.TxHash = blk.TxHash
	return log, nil
}

// GetDiary 返回某地址某天的全部内容，没有时返回空切片
func (d *Diary) GetDiary(ctx context.Context, user common.Address, day uint64) ([]string, error) {
	entries, err := d.state.ListByDay(ctx, user.Hex(), day)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Content)
	}
	return out, nil
}

// GetDiaryImage 返回与 GetDiary 下标对齐的图片标签
func (d *Diary) GetDiaryImage(ctx context.Context, user common.Address, day uint64) ([]string, error) {
	entries, err := d.state.ListByDay(ctx, user.Hex(), day)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ImageTag)
	}
	return out, nil
}

// GetDailySubmissionCount 某地址某天的写入次数
func (d *Diary) GetDailySubmissionCount(ctx context.Context, user common.Address, day uint64) (uint64, error) {
	return d.state.CountByDay(ctx, user.Hex(), day)
}
