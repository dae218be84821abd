package service

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/chain"
	"github.com/haierkeys/onchain-diary-service/internal/domain"
	"github.com/haierkeys/onchain-diary-service/internal/metrics"
	"github.com/haierkeys/onchain-diary-service/pkg/cache"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend 只实现读取的链后端
type fakeBackend struct {
	today      uint64
	configured bool

	mu       sync.Mutex
	contents map[uint64][]string
	images   map[uint64][]string
	failDays map[uint64]bool
	reads    atomic.Int64
}

func newFakeBackend(today uint64) *fakeBackend {
	return &fakeBackend{
		today:      today,
		configured: true,
		contents:   map[uint64][]string{},
		images:     map[uint64][]string{},
		failDays:   map[uint64]bool{},
	}
}

func (f *fakeBackend) ChainID() *big.Int               { return big.NewInt(1270) }
func (f *fakeBackend) ContractAddress() common.Address { return common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3") }
func (f *fakeBackend) Configured() bool                { return f.configured }
func (f *fakeBackend) Today(context.Context) (uint64, error) {
	return f.today, nil
}

func (f *fakeBackend) GetDiary(_ context.Context, _ common.Address, day uint64) ([]string, error) {
	f.reads.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDays[day] {
		return nil, errors.New("rpc timeout")
	}
	return append([]string{}, f.contents[day]...), nil
}

func (f *fakeBackend) GetDiaryImage(_ context.Context, _ common.Address, day uint64) ([]string, error) {
	f.reads.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.images[day]...), nil
}

func (f *fakeBackend) GetDailySubmissionCount(_ context.Context, _ common.Address, day uint64) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.contents[day])), nil
}

func (f *fakeBackend) WriteDiary(context.Context, chain.Signer, string, string) (common.Hash, error) {
	return common.Hash{}, errors.New("read only")
}

func (f *fakeBackend) WaitReceipt(context.Context, common.Hash) (*chain.Receipt, error) {
	return nil, chain.ErrReceiptNotFound
}

func (f *fakeBackend) Subscribe(func(chain.WrittenEvent)) func() { return func() {} }
func (f *fakeBackend) Close() error                              { return nil }

func TestDiaryService_History(t *testing.T) {
	const today = 20379
	fb := newFakeBackend(today)
	fb.contents[today] = []string{"today"}
	fb.images[today] = []string{"emoji:happy"}
	fb.contents[today-2] = []string{"a", "b", "c"}
	fb.images[today-2] = []string{"", "emoji:sad"} // 图片少于内容时补齐
	fb.contents[today-3] = []string{"lost"}
	fb.failDays[today-3] = true
	fb.contents[today-9] = []string{"too old"}

	m := metrics.Nop()
	svc := NewDiaryService(fb, nil, m, nil, nil)

	days, err := svc.History(context.Background(), testAddr, 0)
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, uint64(today), days[0].Day)
	assert.Equal(t, "emoji:happy", days[0].Entries[0].ImageTag)
	assert.Equal(t, domain.MoodHappy, days[0].Entries[0].Image.Mood)

	assert.Equal(t, uint64(today-2), days[1].Day)
	require.Len(t, days[1].Entries, 3)
	assert.Equal(t, uint64(3), days[1].Count)
	assert.Equal(t, "c", days[1].Entries[2].Content)
	assert.Equal(t, "", days[1].Entries[2].ImageTag)
	assert.Equal(t, domain.ImageTagNone, days[1].Entries[0].Image.Kind)
	assert.Equal(t, 2, days[1].Entries[2].Position)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HistoryDaysDropped))

	// 超过最大回看天数时截断
	days, err = svc.History(context.Background(), testAddr, 100)
	require.NoError(t, err)
	assert.Len(t, days, 3)

	_, err = svc.History(context.Background(), "nope", 7)
	assert.Error(t, err)
}

func TestDiaryService_HistoryCachesPastDays(t *testing.T) {
	const today = 20379
	fb := newFakeBackend(today)
	fb.contents[today-1] = []string{"yesterday"}
	fb.images[today-1] = []string{""}

	m := metrics.Nop()
	svc := NewDiaryService(fb, cache.NewMemory(100, 0), m, nil, &ServiceConfig{Diary: DiaryServiceConfig{LookbackDays: 2}})

	_, err := svc.History(context.Background(), testAddr, 0)
	require.NoError(t, err)
	first := fb.reads.Load()
	assert.Equal(t, int64(4), first)

	days, err := svc.History(context.Background(), testAddr, 0)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "yesterday", days[0].Entries[0].Content)
	// 只有今天被重新读取
	assert.Equal(t, first+2, fb.reads.Load())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))

	svc.Invalidate(context.Background(), testAddr, today-1)
	_, err = svc.History(context.Background(), testAddr, 0)
	require.NoError(t, err)
	assert.Equal(t, first+6, fb.reads.Load())
}

func TestDiaryService_TodayAndConfig(t *testing.T) {
	const today = 20379
	fb := newFakeBackend(today)
	fb.contents[today] = []string{"one", "two"}
	fb.images[today] = []string{"", ""}

	svc := NewDiaryService(fb, nil, nil, nil, &ServiceConfig{Chain: ChainServiceConfig{Mode: "local", ExplorerURL: "https://explorer.irys.xyz"}})

	out, err := svc.Today(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), out.Count)
	assert.Equal(t, uint64(5), out.DailyLimit)
	assert.Equal(t, uint64(3), out.Remaining)
	assert.Equal(t, "2025-10-18", out.Date)

	cfg := svc.Config()
	assert.True(t, cfg.Configured)
	assert.Empty(t, cfg.Warning)
	assert.Equal(t, 20, cfg.MaxContentLength)
	assert.Equal(t, []string{"happy", "sad", "angry"}, cfg.Moods)

	fb.configured = false
	cfg = svc.Config()
	assert.Empty(t, cfg.ContractAddress)
	assert.Equal(t, WarningContractNotConfigured, cfg.Warning)

	day, err := svc.Day(context.Background(), testAddr, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(today), day.Day)
}

// gatedBackend GetDiary 阻塞到 release 关闭
type gatedBackend struct {
	*fakeBackend
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (g *gatedBackend) GetDiary(ctx context.Context, user common.Address, day uint64) ([]string, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.fakeBackend.GetDiary(ctx, user, day)
}

// 合并读取时，第一个调用方被取消不影响其它调用方
func TestDiaryService_SharedReadSurvivesCancel(t *testing.T) {
	const today = 20379
	fb := newFakeBackend(today)
	fb.contents[today] = []string{"hello world"}
	fb.images[today] = []string{""}
	gb := &gatedBackend{fakeBackend: fb, started: make(chan struct{}), release: make(chan struct{})}

	svc := NewDiaryService(gb, nil, metrics.Nop(), nil, nil).(*diaryService)
	user := common.HexToAddress(testAddr)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.readDay(first, user, today, today)
		firstErr <- err
	}()
	<-gb.started

	type result struct {
		entries *domain.DayEntries
		err     error
	}
	second := make(chan result, 1)
	go func() {
		entries, err := svc.readDay(context.Background(), user, today, today)
		second <- result{entries, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(gb.release)
	select {
	case r := <-second:
		require.NoError(t, r.err)
		require.Len(t, r.entries.Contents, 1)
		assert.Equal(t, "hello world", r.entries.Contents[0])
	case <-time.After(time.Second):
		t.Fatal("second caller did not return")
	}
}
