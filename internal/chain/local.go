package chain

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/contract"
	"github.com/haierkeys/onchain-diary-service/internal/contract/diaryabi"
	"github.com/haierkeys/onchain-diary-service/internal/domain"
	"github.com/haierkeys/onchain-diary-service/pkg/logger"
	"github.com/haierkeys/onchain-diary-service/pkg/util"
	"github.com/haierkeys/onchain-diary-service/pkg/writequeue"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// LocalDeployer 本地链部署合约的账户，合约地址为其 nonce 0 的 CREATE 地址
var LocalDeployer = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

const localTxGas = 200_000

// LocalBackend 进程内自动出块的开发链
// 同一发送者的交易经写队列按 nonce 串行打包，每个区块一笔交易
// 只有合约状态会持久化，区块高度与时间偏移在重启后归零
type LocalBackend struct {
	chainID   *big.Int
	address   common.Address
	diary     *contract.Diary
	queue     *writequeue.Manager
	blockTime time.Duration
	logger    *zap.Logger
	now       func() time.Time

	nonceMu sync.Mutex
	nonces  map[common.Address]uint64

	mu          sync.Mutex
	blockNumber uint64
	timeOffset  time.Duration
	receipts    map[common.Hash]*Receipt
	pending     map[common.Hash]chan struct{}

	subs   subscribers
	closed bool
}

// NewLocalBackend 创建本地开发链，address 为零值时合约视为未配置
func NewLocalBackend(cfg *Config, address common.Address, diary *contract.Diary, queue *writequeue.Manager, log *zap.Logger) *LocalBackend {
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalBackend{
		chainID:   big.NewInt(cfg.ChainID),
		address:   address,
		diary:     diary,
		queue:     queue,
		blockTime: util.MustParseDuration(cfg.BlockTime, time.Second),
		logger:    log,
		now:       time.Now,
		nonces:    make(map[common.Address]uint64),
		receipts:  make(map[common.Hash]*Receipt),
		pending:   make(map[common.Hash]chan struct{}),
	}
}

// LocalContractAddress 本地链自动部署时的合约地址
func LocalContractAddress() common.Address {
	return crypto.CreateAddress(LocalDeployer, 0)
}

func (b *LocalBackend) ChainID() *big.Int {
	return new(big.Int).Set(b.chainID)
}

func (b *LocalBackend) ContractAddress() common.Address {
	return b.address
}

func (b *LocalBackend) Configured() bool {
	return b.address != (common.Address{})
}

func (b *LocalBackend) chainTime() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now().Add(b.timeOffset)
}

// Now 当前链上时间
func (b *LocalBackend) Now() time.Time {
	return b.chainTime()
}

func (b *LocalBackend) Today(ctx context.Context) (uint64, error) {
	return domain.DayOf(b.chainTime()), nil
}

// IncreaseTime 推进链上时间，对应 evm_increaseTime
func (b *LocalBackend) IncreaseTime(d time.Duration) time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timeOffset += d
	b.logger.Info("dev chain time increased", zap.Duration("offset", b.timeOffset))
	return b.now().Add(b.timeOffset)
}

// SetClock 替换链上时钟的时间来源
func (b *LocalBackend) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// Mine 产出一个空区块，对应 evm_mine
func (b *LocalBackend) Mine() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blockNumber++
	return b.blockNumber
}

// BlockNumber 当前区块高度
func (b *LocalBackend) BlockNumber() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.blockNumber
}

// call 执行只读调用，与 eth_call 一样经过 ABI 编解码
func (b *LocalBackend) call(ctx context.Context, data []byte) ([]byte, error) {
	res, err := b.diary.Dispatch(ctx, contract.BlockContext{}, common.Address{}, data)
	if err != nil {
		return nil, err
	}
	return res.ReturnData, nil
}

func (b *LocalBackend) GetDiary(ctx context.Context, user common.Address, day uint64) ([]string, error) {
	if !b.Configured() {
		return []string{}, nil
	}
	data, err := diaryabi.PackGetDiary(user, day)
	if err != nil {
		return nil, err
	}
	out, err := b.call(ctx, data)
	if err != nil {
		return nil, err
	}
	return diaryabi.UnpackStrings(diaryabi.MethodGetDiary, out)
}

func (b *LocalBackend) GetDiaryImage(ctx context.Context, user common.Address, day uint64) ([]string, error) {
	if !b.Configured() {
		return []string{}, nil
	}
	data, err := diaryabi.PackGetDiaryImage(user, day)
	if err != nil {
		return nil, err
	}
	out, err := b.call(ctx, data)
	if err != nil {
		return nil, err
	}
	return diaryabi.UnpackStrings(diaryabi.MethodGetDiaryImage, out)
}

func (b *LocalBackend) GetDailySubmissionCount(ctx context.Context, user common.Address, day uint64) (uint64, error) {
	if !b.Configured() {
		return 0, nil
	}
	data, err := diaryabi.PackGetDailySubmissionCount(user, day)
	if err != nil {
		return 0, err
	}
	out, err := b.call(ctx, data)
	if err != nil {
		return 0, err
	}
	return diaryabi.UnpackCount(out)
}

// estimate 提交前预执行，对应 eth_estimateGas：会回滚的交易不会被提交
func (b *LocalBackend) estimate(ctx context.Context, from common.Address, content string) error {
	cfg := b.diary.Config()
	if len(content) == 0 {
		return &contract.RevertError{Reason: contract.ReasonContentEmpty}
	}
	if len(content) > cfg.MaxContentBytes {
		return &contract.RevertError{Reason: contract.ReasonContentTooLong}
	}
	day := domain.DayOf(b.chainTime())
	n, err := b.GetDailySubmissionCount(ctx, from, day)
	if err != nil {
		return err
	}
	if n >= cfg.DailyLimit {
		reason := contract.ReasonDailyLimitReached
		if cfg.DailyLimit == 1 {
			reason = contract.ReasonAlreadyWrittenToday
		}
		return &contract.RevertError{Reason: reason}
	}
	return nil
}

func (b *LocalBackend) WriteDiary(ctx context.Context, signer Signer, content, imageTag string) (common.Hash, error) {
	if !b.Configured() {
		return common.Hash{}, ErrContractNotConfigured
	}
	from := signer.Address()

	if err := b.estimate(ctx, from, content); err != nil {
		return common.Hash{}, err
	}

	data, err := diaryabi.PackWriteDiary(content, imageTag)
	if err != nil {
		return common.Hash{}, err
	}

	b.nonceMu.Lock()
	defer b.nonceMu.Unlock()

	nonce := b.nonces[from]
	to := b.address
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      localTxGas,
		GasPrice: new(big.Int),
		Data:     data,
	})
	signed, err := signer.SignTx(tx, b.chainID)
	if err != nil {
		return common.Hash{}, err
	}
	sender, err := types.Sender(types.LatestSignerForChainID(b.chainID), signed)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "recover sender")
	}
	if sender != from {
		return common.Hash{}, errors.Errorf("signature from %s does not match %s", sender.Hex(), from.Hex())
	}

	hash := signed.Hash()
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return common.Hash{}, writequeue.ErrWriteQueueClosed
	}
	b.pending[hash] = make(chan struct{})
	b.mu.Unlock()

	// 已提交的交易不受请求上下文影响
	_, err = b.queue.Enqueue(context.Background(), from.Hex(), func() error {
		return b.mine(signed, sender)
	})
	if err != nil {
		b.mu.Lock()
		delete(b.pending, hash)
		b.mu.Unlock()
		return common.Hash{}, err
	}
	b.nonces[from] = nonce + 1

	b.logger.Debug("dev chain tx submitted",
		zap.String(logger.FieldTxHash, hash.Hex()),
		zap.String(logger.FieldAddress, from.Hex()),
		zap.Uint64("nonce", nonce))
	return hash, nil
}

// mine 等待出块间隔后将交易打包进新区块
func (b *LocalBackend) mine(tx *types.Transaction, from common.Address) error {
	if b.blockTime > 0 {
		time.Sleep(b.blockTime)
	}

	b.mu.Lock()
	b.blockNumber++
	blk := contract.BlockContext{
		Number: b.blockNumber,
		Time:   uint64(b.now().Add(b.timeOffset).Unix()),
		TxHash: tx.Hash(),
	}
	b.mu.Unlock()

	receipt := &Receipt{
		TxHash:      blk.TxHash,
		BlockNumber: blk.Number,
		BlockTime:   blk.Time,
		Status:      types.ReceiptStatusSuccessful,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := b.diary.Dispatch(ctx, blk, from, tx.Data())
	if err != nil {
		receipt.Status = types.ReceiptStatusFailed
		var revert *contract.RevertError
		if errors.As(err, &revert) {
			receipt.RevertReason = revert.Reason
		} else {
			receipt.err = err
		}
		b.logger.Info("dev chain tx reverted",
			zap.String(logger.FieldTxHash, blk.TxHash.Hex()),
			zap.Uint64(logger.FieldBlockNumber, blk.Number),
			zap.Error(err))
	} else {
		receipt.Logs = res.Logs
	}

	b.mu.Lock()
	b.receipts[receipt.TxHash] = receipt
	if ch, ok := b.pending[receipt.TxHash]; ok {
		close(ch)
		delete(b.pending, receipt.TxHash)
	}
	b.mu.Unlock()

	b.subs.publish(receipt.Logs)
	return err
}

func (b *LocalBackend) WaitReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	b.mu.Lock()
	if r, ok := b.receipts[txHash]; ok {
		b.mu.Unlock()
		return r, nil
	}
	ch, ok := b.pending[txHash]
	b.mu.Unlock()
	if !ok {
		return nil, ErrReceiptNotFound
	}

	select {
	case <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.receipts[txHash]
	if !ok {
		return nil, ErrReceiptNotFound
	}
	return r, nil
}

func (b *LocalBackend) Subscribe(fn func(WrittenEvent)) func() {
	return b.subs.add(fn)
}

// Close 停止接收新交易，已提交的交易由写队列关闭时处理完
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
