package dao

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDao(t *testing.T) *Dao {
	t.Helper()
	cfg := Config{
		Type:         "sqlite",
		Path:         filepath.Join(t.TempDir(), "db", "diary.sqlite3"),
		AutoMigrate:  true,
		MaxIdleConns: 1,
		MaxOpenConns: 1,
	}
	db, err := NewDBEngine(cfg, false, nil)
	require.NoError(t, err)
	d := New(db, cfg, nil)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDiaryEntryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDiaryEntryRepository(newTestDao(t))
	owner := "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

	n, err := repo.CountByDay(ctx, owner, 20379)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)

	for i, content := range []string{"first", "second"} {
		err := repo.Create(ctx, &domain.DiaryEntry{
			Owner:       owner,
			Day:         20379,
			Position:    uint64(i),
			Content:     content,
			ImageTag:    "emoji:happy",
			BlockNumber: uint64(i + 1),
			TxHash:      "0xabc",
			CreatedAt:   time.Unix(20379*86400+int64(i), 0),
		})
		require.NoError(t, err)
	}

	// (owner, day, position) 唯一
	err = repo.Create(ctx, &domain.DiaryEntry{Owner: owner, Day: 20379, Position: 1, Content: "dup"})
	assert.Error(t, err)

	list, err := repo.ListByDay(ctx, owner, 20379)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Content)
	assert.Equal(t, "second", list[1].Content)
	assert.Equal(t, "emoji:happy", list[1].ImageTag)
	assert.Equal(t, uint64(2), list[1].BlockNumber)

	n, err = repo.CountByDay(ctx, owner, 20379)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	list, err = repo.ListByDay(ctx, owner, 20380)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWriteAttemptRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewWriteAttemptRepository(newTestDao(t))
	addr := "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

	old := time.Now().Add(-2 * time.Hour)
	attempts := []*domain.WriteAttempt{
		{ID: "a1", Address: addr, Content: "one", Stage: domain.StageConfirmed, CreatedAt: old, UpdatedAt: old},
		{ID: "a2", Address: addr, Content: "two", Stage: domain.StagePending, CreatedAt: old.Add(time.Minute), UpdatedAt: old},
		{ID: "a3", Address: addr, Content: "three", Stage: domain.StageBuildingArgs},
	}
	for _, a := range attempts {
		require.NoError(t, repo.Create(ctx, a))
	}

	got, err := repo.GetByID(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, "two", got.Content)
	assert.Equal(t, domain.StagePending, got.Stage)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	count, err := repo.CountByAddress(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	page, err := repo.ListByAddress(ctx, addr, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "a3", page[0].ID)
	assert.Equal(t, "a2", page[1].ID)

	page, err = repo.ListByAddress(ctx, addr, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "a1", page[0].ID)

	// 页码小于 1 按第一页处理
	page, err = repo.ListByAddress(ctx, addr, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "a3", page[0].ID)

	stuck, err := repo.ListByStages(ctx, []domain.WriteStage{domain.StagePending, domain.StageConfirming}, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, "a2", stuck[0].ID)

	got.Stage = domain.StageErrored
	got.ErrorKind = domain.ErrorKindFailed
	got.ErrorMessage = "boom"
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.GetByID(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, domain.StageErrored, got.Stage)
	assert.Equal(t, "boom", got.ErrorMessage)

	assert.ErrorIs(t, repo.Update(ctx, &domain.WriteAttempt{ID: "missing"}), domain.ErrNotFound)

	// a1 已结束且早于阈值，a2 刚被更新
	deleted, err := repo.DeleteTerminalBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, err = repo.CountByAddress(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
