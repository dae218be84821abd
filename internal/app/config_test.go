package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/chain"
	"github.com/haierkeys/onchain-diary-service/internal/dao"
	"github.com/haierkeys/onchain-diary-service/internal/service"

	"github.com/creasty/defaults"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testConfigYAML = `
server:
  http-port: ":9100"
chain:
  mode: local
  block-time: 0s
contract:
  daily-limit: 1
diary:
  max-content-length: 40
  write-timeout: 30s
image:
  mode: storage
  max-size: 512KB
storage:
  type: localfs
cache:
  type: memory
  ttl: 1h
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestLoadConfig(t *testing.T) {
	cfg, realpath, err := LoadConfig(writeConfig(t, testConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, realpath, cfg.File)

	assert.Equal(t, ":9100", cfg.Server.HttpPort)
	// 未出现在文件中的字段使用默认值
	assert.Equal(t, ":9001", cfg.Server.PrivateHttpListen)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 7, cfg.Diary.LookbackDays)
	assert.Equal(t, "7d", cfg.Wallet.TokenExpiry)
	assert.Equal(t, "https://explorer.irys.xyz", cfg.Chain.ExplorerURL)

	assert.Equal(t, 7*24*time.Hour, cfg.GetTokenExpiry())
	assert.Equal(t, int64(512<<10), cfg.GetImageMaxSize())
	assert.Equal(t, 30*24*time.Hour, cfg.GetAttemptRetention())
	assert.True(t, cfg.IsLocalChain())

	svc := cfg.ServiceConfig()
	assert.Equal(t, uint64(1), svc.Diary.DailyLimit)
	assert.Equal(t, 40, svc.Diary.MaxContentLength)
	assert.Equal(t, "30s", svc.Diary.WriteTimeout)
	assert.Equal(t, "1h", svc.Diary.CacheTTL)
	assert.Equal(t, service.ImageModeStorage, svc.Image.Mode)
	assert.Equal(t, int64(1270), svc.Chain.ChainID)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, _, err = LoadConfig(writeConfig(t, "image:\n  mode: ipfs\n"))
	assert.ErrorContains(t, err, "image mode")

	_, _, err = LoadConfig(writeConfig(t, "server: [\n"))
	assert.Error(t, err)
}

func TestAppConfig_Save(t *testing.T) {
	p := writeConfig(t, testConfigYAML)
	cfg, _, err := LoadConfig(p)
	require.NoError(t, err)

	cfg.Diary.LookbackDays = 14
	require.NoError(t, cfg.Save())

	again, _, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, 14, again.Diary.LookbackDays)
	assert.Equal(t, uint64(1), again.Contract.DailyLimit)
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv(chain.EnvContractAddress, "")

	cfg := new(AppConfig)
	require.NoError(t, defaults.Set(cfg))
	cfg.Database.Path = filepath.Join(t.TempDir(), "diary.sqlite3")
	cfg.Chain.BlockTime = "0s"

	db, err := dao.NewDBEngine(cfg.Database, false, nil)
	require.NoError(t, err)

	a, err := NewApp(cfg, zap.NewNop(), db, WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	return a
}

func TestNewApp(t *testing.T) {
	a := newTestApp(t)

	assert.True(t, a.Backend.Configured())
	_, ok := a.LocalChain()
	assert.True(t, ok)
	assert.Nil(t, a.Storage)
	assert.Equal(t, 3, a.Wallets.Keystore().Len())

	// 连接后可以编辑草稿，断开后草稿被丢弃
	addr := a.Wallets.Keystore().Accounts()[0].Address
	_, _, err := a.Wallets.Connect(addr, "127.0.0.1")
	require.NoError(t, err)

	a.ComposerService.SetContent(addr, "hello")
	assert.True(t, a.ComposerService.CanSubmit(addr))

	a.Wallets.Disconnect(common.HexToAddress(addr))
	assert.Empty(t, a.ComposerService.View(addr).Content)

	require.NoError(t, a.Shutdown(context.Background()))
	assert.True(t, a.IsShuttingDown())
	// 重复关闭直接返回
	assert.NoError(t, a.Shutdown(context.Background()))
}
