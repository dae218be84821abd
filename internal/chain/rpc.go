package chain

import (
	"context"
	"math/big"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/contract/diaryabi"
	"github.com/haierkeys/onchain-diary-service/internal/domain"
	"github.com/haierkeys/onchain-diary-service/pkg/logger"
	"github.com/haierkeys/onchain-diary-service/pkg/util"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RPCBackend 通过 JSON-RPC 访问已部署的日记合约
// DiaryWritten 事件只在本服务等待的交易回执中分发
type RPCBackend struct {
	client       *ethclient.Client
	contract     *bind.BoundContract
	address      common.Address
	configured   bool
	chainID      *big.Int
	pollInterval time.Duration
	logger       *zap.Logger
	subs         subscribers
}

// NewRPCBackend 连接节点并校验链 ID
func NewRPCBackend(ctx context.Context, cfg *Config, log *zap.Logger) (*RPCBackend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", cfg.RPCURL)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, errors.Wrap(err, "query chain id")
	}
	if cfg.ChainID != 0 && chainID.Int64() != cfg.ChainID {
		client.Close()
		return nil, errors.Errorf("chain id mismatch: node %s, config %d", chainID, cfg.ChainID)
	}

	address, ok := cfg.ResolveContractAddress()
	b := &RPCBackend{
		client:       client,
		address:      address,
		configured:   ok,
		chainID:      chainID,
		pollInterval: util.MustParseDuration(cfg.ConfirmPollInterval, 2*time.Second),
		logger:       log,
	}
	b.contract = bind.NewBoundContract(address, diaryabi.ABI(), client, client, client)

	log.Info("rpc backend connected",
		zap.String("rpc", cfg.RPCURL),
		zap.String(logger.FieldChainID, chainID.String()),
		zap.String("contract", address.Hex()),
		zap.Bool("configured", ok))
	return b, nil
}

func (b *RPCBackend) ChainID() *big.Int {
	return new(big.Int).Set(b.chainID)
}

func (b *RPCBackend) ContractAddress() common.Address {
	return b.address
}

func (b *RPCBackend) Configured() bool {
	return b.configured
}

func (b *RPCBackend) Today(ctx context.Context) (uint64, error) {
	header, err := b.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "latest header")
	}
	return domain.DayOfUnix(header.Time), nil
}

func (b *RPCBackend) callStrings(ctx context.Context, method string, user common.Address, day uint64) ([]string, error) {
	if !b.configured {
		return []string{}, nil
	}
	var out []interface{}
	err := b.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, user, new(big.Int).SetUint64(day))
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return []string{}, nil
	}
	values := *abi.ConvertType(out[0], new([]string)).(*[]string)
	if values == nil {
		values = []string{}
	}
	return values, nil
}

func (b *RPCBackend) GetDiary(ctx context.Context, user common.Address, day uint64) ([]string, error) {
	return b.callStrings(ctx, diaryabi.MethodGetDiary, user, day)
}

func (b *RPCBackend) GetDiaryImage(ctx context.Context, user common.Address, day uint64) ([]string, error) {
	return b.callStrings(ctx, diaryabi.MethodGetDiaryImage, user, day)
}

func (b *RPCBackend) GetDailySubmissionCount(ctx context.Context, user common.Address, day uint64) (uint64, error) {
	if !b.configured {
		return 0, nil
	}
	var out []interface{}
	err := b.contract.Call(&bind.CallOpts{Context: ctx}, &out, diaryabi.MethodGetDailySubmissionCount, user, new(big.Int).SetUint64(day))
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	n := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	if n == nil || !n.IsUint64() {
		return 0, errors.Errorf("unexpected count %v", out[0])
	}
	return n.Uint64(), nil
}

// WriteDiary 估算 gas 时节点会返回回滚原因，此时交易不会被发送
func (b *RPCBackend) WriteDiary(ctx context.Context, signer Signer, content, imageTag string) (common.Hash, error) {
	if !b.configured {
		return common.Hash{}, ErrContractNotConfigured
	}
	from := signer.Address()
	opts := &bind.TransactOpts{
		From:    from,
		Context: ctx,
		Signer: func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
			if addr != from {
				return nil, bind.ErrNotAuthorized
			}
			return signer.SignTx(tx, b.chainID)
		},
	}
	tx, err := b.contract.Transact(opts, diaryabi.MethodWriteDiary, content, imageTag)
	if err != nil {
		return common.Hash{}, err
	}
	b.logger.Info("diary tx sent",
		zap.String(logger.FieldTxHash, tx.Hash().Hex()),
		zap.String(logger.FieldAddress, from.Hex()))
	return tx.Hash(), nil
}

// WaitReceipt 轮询回执，节点返回 NotFound 时交易仍在等待打包
func (b *RPCBackend) WaitReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		r, err := b.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return b.toReceipt(ctx, r), nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (b *RPCBackend) toReceipt(ctx context.Context, r *types.Receipt) *Receipt {
	receipt := &Receipt{
		TxHash: r.TxHash,
		Status: r.Status,
		Logs:   r.Logs,
	}
	if r.BlockNumber != nil {
		receipt.BlockNumber = r.BlockNumber.Uint64()
	}
	if header, err := b.client.HeaderByNumber(ctx, r.BlockNumber); err == nil {
		receipt.BlockTime = header.Time
	}

	if r.Status == types.ReceiptStatusFailed {
		receipt.RevertReason = b.revertReason(ctx, r)
		return receipt
	}

	b.subs.publish(r.Logs)
	return receipt
}

// revertReason 在交易所在区块重放调用以取得回滚原因
func (b *RPCBackend) revertReason(ctx context.Context, r *types.Receipt) string {
	tx, _, err := b.client.TransactionByHash(ctx, r.TxHash)
	if err != nil {
		return ""
	}
	from, err := types.Sender(types.LatestSignerForChainID(b.chainID), tx)
	if err != nil {
		return ""
	}
	_, err = b.client.CallContract(ctx, ethereum.CallMsg{
		From: from,
		To:   tx.To(),
		Gas:  tx.Gas(),
		Data: tx.Data(),
	}, r.BlockNumber)
	if err == nil {
		return ""
	}
	return ReasonFromError(err)
}

func (b *RPCBackend) Subscribe(fn func(WrittenEvent)) func() {
	return b.subs.add(fn)
}

func (b *RPCBackend) Close() error {
	b.client.Close()
	return nil
}
