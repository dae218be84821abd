package routers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/app"
	"github.com/haierkeys/onchain-diary-service/internal/chain"
	"github.com/haierkeys/onchain-diary-service/internal/dao"
	"github.com/haierkeys/onchain-diary-service/internal/dto"
	pkgapp "github.com/haierkeys/onchain-diary-service/pkg/app"
	"github.com/haierkeys/onchain-diary-service/pkg/code"
	"github.com/haierkeys/onchain-diary-service/pkg/validator"

	"github.com/bytedance/sonic"
	"github.com/creasty/defaults"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testRes[T any] struct {
	Code    int    `json:"code"`
	Status  bool   `json:"status"`
	Details any    `json:"details"`
	Data    T      `json:"data"`
}

type testEnv struct {
	app    *app.App
	router *gin.Engine
	reg    *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.RegisterCustom())
	t.Setenv(chain.EnvContractAddress, "")

	cfg := new(app.AppConfig)
	require.NoError(t, defaults.Set(cfg))
	cfg.Database.Path = filepath.Join(t.TempDir(), "diary.sqlite3")
	cfg.Chain.BlockTime = "0s"
	cfg.Tracer.Enabled = true

	db, err := dao.NewDBEngine(cfg.Database, false, nil)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	a, err := app.NewApp(cfg, zap.NewNop(), db, app.WithRegisterer(reg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	uni := ut.New(en.New())
	return &testEnv{app: a, router: NewRouter(a, uni, nil), reg: reg}
}

func call[T any](t *testing.T, r http.Handler, method, path, token string, body any) testRes[T] {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := sonic.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var res testRes[T]
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func (e *testEnv) connect(t *testing.T) (string, string) {
	t.Helper()
	addr := e.app.Wallets.Keystore().Accounts()[0].Address
	res := call[dto.WalletSessionDTO](t, e.router, http.MethodPost, "/api/wallet/connect", "", map[string]string{"address": addr})
	require.Equal(t, code.SuccessConnected.Code(), res.Code)
	require.NotEmpty(t, res.Data.Token)
	return addr, res.Data.Token
}

func TestRouter_PublicEndpoints(t *testing.T) {
	e := newTestEnv(t)

	cfgRes := call[dto.DiaryConfigDTO](t, e.router, http.MethodGet, "/api/diary/config", "", nil)
	assert.Equal(t, code.Success.Code(), cfgRes.Code)
	assert.True(t, cfgRes.Data.Configured)
	assert.Equal(t, uint64(5), cfgRes.Data.DailyLimit)
	assert.Equal(t, []string{"happy", "sad", "angry"}, cfgRes.Data.Moods)

	accounts := call[[]dto.AccountDTO](t, e.router, http.MethodGet, "/api/wallet/accounts", "", nil)
	assert.Len(t, accounts.Data, 3)

	bad := call[any](t, e.router, http.MethodGet, "/api/diary/day?address=nope", "", nil)
	assert.Equal(t, code.ErrorInvalidParams.Code(), bad.Code)

	missing := call[any](t, e.router, http.MethodGet, "/api/nothing", "", nil)
	assert.Equal(t, code.ErrorNotFoundAPI.Code(), missing.Code)
}

func TestRouter_RequiresWallet(t *testing.T) {
	e := newTestEnv(t)

	res := call[any](t, e.router, http.MethodGet, "/api/diary/today", "", nil)
	assert.Equal(t, code.ErrorNotUserAuthToken.Code(), res.Code)

	res = call[any](t, e.router, http.MethodPost, "/api/diary/submit", "garbage", nil)
	assert.Equal(t, code.ErrorInvalidUserAuthToken.Code(), res.Code)
}

func TestRouter_WriteAndRead(t *testing.T) {
	e := newTestEnv(t)
	addr, token := e.connect(t)

	today := call[dto.DiaryTodayDTO](t, e.router, http.MethodGet, "/api/diary/today", token, nil)
	require.Equal(t, code.Success.Code(), today.Code)
	assert.Equal(t, uint64(0), today.Data.Count)
	assert.Equal(t, uint64(5), today.Data.Remaining)

	draft := call[dto.DraftDTO](t, e.router, http.MethodPost, "/api/diary/draft/content", token, map[string]string{"content": "hello world"})
	assert.True(t, draft.Data.CanSubmit)

	mood := call[any](t, e.router, http.MethodPost, "/api/diary/draft/mood", token, map[string]string{"mood": "bored"})
	assert.Equal(t, code.ErrorInvalidParams.Code(), mood.Code)

	submitted := call[dto.WriteAttemptDTO](t, e.router, http.MethodPost, "/api/diary/submit", token, nil)
	require.Equal(t, code.SuccessSubmitted.Code(), submitted.Code)
	require.NotEmpty(t, submitted.Data.ID)

	var attempt dto.WriteAttemptDTO
	require.Eventually(t, func() bool {
		got := call[dto.WriteAttemptDTO](t, e.router, http.MethodGet, "/api/diary/attempt?id="+submitted.Data.ID, token, nil)
		attempt = got.Data
		return got.Data.Stage == "confirmed"
	}, 5*time.Second, 20*time.Millisecond)
	// 未选心情和图片，写入参数为 ("hello world", "")
	assert.Equal(t, "hello world", attempt.Content)
	assert.Empty(t, attempt.ImageTag)

	today = call[dto.DiaryTodayDTO](t, e.router, http.MethodGet, "/api/diary/today", token, nil)
	require.Len(t, today.Data.Entries, 1)
	assert.Equal(t, uint64(1), today.Data.Count)
	assert.Equal(t, uint64(4), today.Data.Remaining)

	day := call[dto.DiaryDayDTO](t, e.router, http.MethodGet, "/api/diary/day?address="+addr, "", nil)
	require.Equal(t, code.Success.Code(), day.Code)
	require.Len(t, day.Data.Entries, 1)
	assert.Equal(t, "hello world", day.Data.Entries[0].Content)
	assert.Empty(t, day.Data.Entries[0].ImageTag)

	list := call[pkgapp.ListRes](t, e.router, http.MethodGet, "/api/diary/attempts?page=1&pageSize=10", token, nil)
	assert.Equal(t, 1, list.Data.Pager.TotalRows)

	history := call[[]dto.DiaryDayDTO](t, e.router, http.MethodGet, "/api/diary/history?days=3", token, nil)
	require.Len(t, history.Data, 1)
	assert.Equal(t, day.Data.Day, history.Data[0].Day)
}

func TestRouter_DevChain(t *testing.T) {
	e := newTestEnv(t)

	before := call[dto.ChainTimeDTO](t, e.router, http.MethodGet, "/api/dev/time", "", nil)
	require.Equal(t, code.Success.Code(), before.Code)

	after := call[dto.ChainTimeDTO](t, e.router, http.MethodPost, "/api/dev/increase-time", "", map[string]int64{"seconds": 86400})
	require.Equal(t, code.SuccessTimeIncreased.Code(), after.Code)
	assert.Equal(t, before.Data.Day+1, after.Data.Day)
	assert.Greater(t, after.Data.BlockNumber, before.Data.BlockNumber)

	invalid := call[any](t, e.router, http.MethodPost, "/api/dev/increase-time", "", map[string]int64{"seconds": 0})
	assert.Equal(t, code.ErrorInvalidParams.Code(), invalid.Code)
}

func TestPrivateRouter(t *testing.T) {
	e := newTestEnv(t)
	e.app.Metrics.WSPushes.WithLabelValues("DiaryWritten").Inc()

	r := NewPrivateRouter("release", zap.NewNop(), e.reg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "diary_ws_push_total"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, DefaultPrefix+"/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
