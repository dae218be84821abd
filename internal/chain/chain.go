// Package chain 日记合约所在链的访问层
// LocalBackend 为进程内开发链，RPCBackend 通过 JSON-RPC 访问已部署合约
package chain

import (
	"context"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/haierkeys/onchain-diary-service/internal/contract"
	"github.com/haierkeys/onchain-diary-service/internal/contract/diaryabi"
	"github.com/haierkeys/onchain-diary-service/pkg/code"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

const (
	ModeLocal = "local"
	ModeRPC   = "rpc"
)

// EnvContractAddress 覆盖配置中合约地址的环境变量
const EnvContractAddress = "DIARY_CONTRACT_ADDRESS"

var (
	// ErrContractNotConfigured 未配置合约地址
	ErrContractNotConfigured = code.ErrorContractNotConfigured
	// ErrReceiptNotFound 交易未知
	ErrReceiptNotFound = code.ErrorReceiptNotFound
	// ErrTxFailed 交易执行失败且没有回滚原因
	ErrTxFailed = errors.New("transaction failed")
)

// Config 链配置
type Config struct {
	// Mode local 或 rpc
	Mode string `yaml:"mode" default:"local"`
	// RPCURL JSON-RPC 地址
	RPCURL string `yaml:"rpc-url" default:"https://testnet-rpc.irys.xyz/v1/execution-rpc"`
	// ChainID 链 ID
	ChainID int64 `yaml:"chain-id" default:"1270"`
	// ContractAddress 合约地址，可被 DIARY_CONTRACT_ADDRESS 覆盖
	ContractAddress string `yaml:"contract-address"`
	// AutoDeploy 本地链未配置地址时自动部署
	AutoDeploy bool `yaml:"auto-deploy" default:"true"`
	// ExplorerURL 区块浏览器
	ExplorerURL string `yaml:"explorer-url" default:"https://explorer.irys.xyz"`
	// BlockTime 本地链出块间隔
	BlockTime string `yaml:"block-time" default:"1s"`
	// ConfirmPollInterval RPC 模式下轮询回执的间隔
	ConfirmPollInterval string `yaml:"confirm-poll-interval" default:"2s"`
}

// ResolveContractAddress 返回生效的合约地址，环境变量优先
func (c *Config) ResolveContractAddress() (common.Address, bool) {
	raw := strings.TrimSpace(os.Getenv(EnvContractAddress))
	if raw == "" {
		raw = strings.TrimSpace(c.ContractAddress)
	}
	if raw == "" || !common.IsHexAddress(raw) {
		return common.Address{}, false
	}
	addr := common.HexToAddress(raw)
	return addr, addr != (common.Address{})
}

// ExplorerTxURL 交易在区块浏览器中的链接
func ExplorerTxURL(base string, hash common.Hash) string {
	return strings.TrimRight(base, "/") + "/tx/" + hash.Hex()
}

// Signer 代表某个账户签名交易，账户不可用时返回错误
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Receipt 交易回执
type Receipt struct {
	TxHash       common.Hash
	BlockNumber  uint64
	BlockTime    uint64
	Status       uint64
	RevertReason string
	Logs         []*types.Log
	err          error
}

// Succeeded 交易是否执行成功
func (r *Receipt) Succeeded() bool {
	return r.Status == types.ReceiptStatusSuccessful
}

// Err 失败原因，成功时为 nil
func (r *Receipt) Err() error {
	if r.Succeeded() {
		return nil
	}
	if r.RevertReason != "" {
		return &contract.RevertError{Reason: r.RevertReason}
	}
	if r.err != nil {
		return r.err
	}
	return ErrTxFailed
}

// WrittenEvent 已上链的 DiaryWritten 事件
type WrittenEvent struct {
	diaryabi.Written
	TxHash      common.Hash
	BlockNumber uint64
}

// Backend 合约读写接口
type Backend interface {
	ChainID() *big.Int
	ContractAddress() common.Address
	// Configured 合约地址是否可用
	Configured() bool
	// Today 按链上最新区块时间计算的日序号
	Today(ctx context.Context) (uint64, error)

	GetDiary(ctx context.Context, user common.Address, day uint64) ([]string, error)
	GetDiaryImage(ctx context.Context, user common.Address, day uint64) ([]string, error)
	GetDailySubmissionCount(ctx context.Context, user common.Address, day uint64) (uint64, error)

	// WriteDiary 签名并提交交易，交易进入待打包状态即返回
	WriteDiary(ctx context.Context, signer Signer, content, imageTag string) (common.Hash, error)
	// WaitReceipt 阻塞直到交易被打包
	WaitReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error)

	// Subscribe 订阅 DiaryWritten 事件，返回取消函数
	Subscribe(fn func(WrittenEvent)) func()
	Close() error
}

// subscribers DiaryWritten 事件订阅者
type subscribers struct {
	mu   sync.RWMutex
	next int
	fns  map[int]func(WrittenEvent)
}

func (s *subscribers) add(fn func(WrittenEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(WrittenEvent))
	}
	id := s.next
	s.next++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.fns, id)
		s.mu.Unlock()
	}
}

func (s *subscribers) publish(logs []*types.Log) {
	events := make([]WrittenEvent, 0, len(logs))
	for _, l := range logs {
		w, err := diaryabi.DecodeWrittenLog(*l)
		if err != nil {
			continue
		}
		events = append(events, WrittenEvent{Written: *w, TxHash: l.TxHash, BlockNumber: l.BlockNumber})
	}
	if len(events) == 0 {
		return
	}

	s.mu.RLock()
	fns := make([]func(WrittenEvent), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, ev := range events {
		for _, fn := range fns {
			fn(ev)
		}
	}
}
