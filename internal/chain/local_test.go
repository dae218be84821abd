package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/contract"
	"github.com/haierkeys/onchain-diary-service/pkg/writequeue"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type keySigner struct {
	key      *ecdsa.PrivateKey
	rejected bool
}

func newKeySigner(t *testing.T) *keySigner {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &keySigner{key: key}
}

func (s *keySigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

func (s *keySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if s.rejected {
		return nil, errors.New("User rejected the request.")
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

func newTestBackend(t *testing.T, dailyLimit uint64) *LocalBackend {
	t.Helper()
	cfg := &Config{Mode: ModeLocal, ChainID: 1270, BlockTime: "0s", AutoDeploy: true}
	queue := writequeue.New(&writequeue.Config{QueueCapacity: 16, WriteTimeout: 5 * time.Second, IdleTimeout: time.Minute}, zap.NewNop())
	t.Cleanup(func() { _ = queue.Shutdown(context.Background()) })

	b, err := NewBackend(context.Background(), cfg, contract.Config{DailyLimit: dailyLimit, MaxContentBytes: 280}, contract.NewMemoryState(), queue, zap.NewNop())
	require.NoError(t, err)
	local := b.(*LocalBackend)
	local.now = func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }
	return local
}

func waitOK(t *testing.T, b Backend, hash common.Hash) *Receipt {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := b.WaitReceipt(ctx, hash)
	require.NoError(t, err)
	return r
}

func TestLocalBackend_WriteAndRead(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t, 5)
	signer := newKeySigner(t)

	assert.True(t, b.Configured())
	assert.Equal(t, LocalContractAddress(), b.ContractAddress())
	assert.Equal(t, int64(1270), b.ChainID().Int64())

	var mu sync.Mutex
	var events []WrittenEvent
	unsubscribe := b.Subscribe(func(ev WrittenEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	defer unsubscribe()

	hash, err := b.WriteDiary(ctx, signer, "hello world", "")
	require.NoError(t, err)

	r := waitOK(t, b, hash)
	assert.True(t, r.Succeeded())
	assert.NoError(t, r.Err())
	assert.Equal(t, uint64(1), r.BlockNumber)
	require.Len(t, r.Logs, 1)

	today, err := b.Today(ctx)
	require.NoError(t, err)

	entries, err := b.GetDiary(ctx, signer.Address(), today)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello world"}, entries)

	images, err := b.GetDiaryImage(ctx, signer.Address(), today)
	require.NoError(t, err)
	assert.Equal(t, []string{""}, images)

	n, err := b.GetDailySubmissionCount(ctx, signer.Address(), today)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, signer.Address(), events[0].User)
	assert.Equal(t, today, events[0].Day)
	assert.Equal(t, "hello world", events[0].Content)
	assert.Equal(t, hash, events[0].TxHash)
}

func TestLocalBackend_OncePerDayThenNextDay(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t, 1)
	signer := newKeySigner(t)

	hash, err := b.WriteDiary(ctx, signer, "hello world", "")
	require.NoError(t, err)
	waitOK(t, b, hash)

	_, err = b.WriteDiary(ctx, signer, "again", "")
	var revert *contract.RevertError
	require.ErrorAs(t, err, &revert)
	assert.Equal(t, contract.ReasonAlreadyWrittenToday, revert.Reason)

	before, _ := b.Today(ctx)
	b.IncreaseTime(24 * time.Hour)
	b.Mine()
	after, _ := b.Today(ctx)
	assert.Equal(t, before+1, after)

	hash, err = b.WriteDiary(ctx, signer, "tomorrow", "emoji:happy")
	require.NoError(t, err)
	r := waitOK(t, b, hash)
	assert.True(t, r.Succeeded())
	assert.Equal(t, uint64(3), r.BlockNumber)
}

func TestLocalBackend_ContentTooLong(t *testing.T) {
	b := newTestBackend(t, 5)
	long := make([]byte, 281)
	for i := range long {
		long[i] = 'x'
	}
	_, err := b.WriteDiary(context.Background(), newKeySigner(t), string(long), "")
	var revert *contract.RevertError
	require.ErrorAs(t, err, &revert)
	assert.Equal(t, contract.ReasonContentTooLong, revert.Reason)
}

func TestLocalBackend_SameSenderOrdered(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t, 5)
	signer := newKeySigner(t)

	var hashes []common.Hash
	for _, content := range []string{"one", "two", "three"} {
		hash, err := b.WriteDiary(ctx, signer, content, "")
		require.NoError(t, err)
		hashes = append(hashes, hash)
	}
	for _, hash := range hashes {
		waitOK(t, b, hash)
	}

	today, _ := b.Today(ctx)
	entries, err := b.GetDiary(ctx, signer.Address(), today)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, entries)
}

func TestLocalBackend_SignerRejected(t *testing.T) {
	b := newTestBackend(t, 5)
	signer := newKeySigner(t)
	signer.rejected = true

	_, err := b.WriteDiary(context.Background(), signer, "hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User rejected")
}

func TestLocalBackend_NotConfigured(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{Mode: ModeLocal, ChainID: 1270, BlockTime: "0s", AutoDeploy: false}
	queue := writequeue.New(nil, zap.NewNop())
	defer queue.Shutdown(ctx)

	b, err := NewBackend(ctx, cfg, contract.Config{}, contract.NewMemoryState(), queue, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, b.Configured())

	entries, err := b.GetDiary(ctx, common.HexToAddress("0x01"), 1)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = b.WriteDiary(ctx, newKeySigner(t), "hello", "")
	assert.ErrorIs(t, err, ErrContractNotConfigured)
}

func TestLocalBackend_WaitUnknown(t *testing.T) {
	b := newTestBackend(t, 5)
	_, err := b.WaitReceipt(context.Background(), common.HexToHash("0x1234"))
	assert.ErrorIs(t, err, ErrReceiptNotFound)
}

func TestResolveContractAddress(t *testing.T) {
	cfg := &Config{ContractAddress: "0x9C12221922Ad0AD07a83A0560a00350fee5aCcc5"}

	t.Setenv(EnvContractAddress, "")
	addr, ok := cfg.ResolveContractAddress()
	assert.True(t, ok)
	assert.Equal(t, common.HexToAddress("0x9C12221922Ad0AD07a83A0560a00350fee5aCcc5"), addr)

	t.Setenv(EnvContractAddress, "0x5FbDB2315678afecb367f032d93F642f64180aa3")
	addr, ok = cfg.ResolveContractAddress()
	assert.True(t, ok)
	assert.Equal(t, common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), addr)

	t.Setenv(EnvContractAddress, "not-an-address")
	_, ok = (&Config{}).ResolveContractAddress()
	assert.False(t, ok)
}

func TestExplorerTxURL(t *testing.T) {
	hash := common.HexToHash("0xabc")
	assert.Equal(t, "https://explorer.irys.xyz/tx/"+hash.Hex(), ExplorerTxURL("https://explorer.irys.xyz/", hash))
}

func TestReasonFromError(t *testing.T) {
	assert.Equal(t, "", ReasonFromError(nil))
	assert.Equal(t, "Daily limit reached", ReasonFromError(errors.New("execution reverted: Daily limit reached")))
	assert.Equal(t, "", ReasonFromError(errors.New("connection refused")))
}

func TestReceiptErr(t *testing.T) {
	r := &Receipt{Status: types.ReceiptStatusFailed, RevertReason: contract.ReasonDailyLimitReached}
	var revert *contract.RevertError
	require.ErrorAs(t, r.Err(), &revert)
	assert.Equal(t, contract.ReasonDailyLimitReached, revert.Reason)

	r = &Receipt{Status: types.ReceiptStatusFailed}
	assert.ErrorIs(t, r.Err(), ErrTxFailed)
}
