package dao

import (
	"context"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/domain"
	"github.com/haierkeys/onchain-diary-service/internal/model"
	"github.com/haierkeys/onchain-diary-service/pkg/timex"

	"gorm.io/gorm"
)

// diaryEntryRepository 实现 domain.DiaryEntryRepository 接口，保存开发链上的合约状态
type diaryEntryRepository struct {
	dao *Dao
}

// NewDiaryEntryRepository 创建 DiaryEntryRepository 实例
func NewDiaryEntryRepository(dao *Dao) domain.DiaryEntryRepository {
	return &diaryEntryRepository{dao: dao}
}

func (r *diaryEntryRepository) db(ctx context.Context) (*gorm.DB, error) {
	db, err := r.dao.UseWithMigrate("DiaryEntry")
	if err != nil {
		return nil, err
	}
	return db.WithContext(ctx).Model(&model.DiaryEntry{}), nil
}

// toDomain 将数据库模型转换为领域模型
func (r *diaryEntryRepository) toDomain(m *model.DiaryEntry) *domain.DiaryEntry {
	if m == nil {
		return nil
	}
	return &domain.DiaryEntry{
		Owner:       m.Owner,
		Day:         m.Day,
		Position:    m.Position,
		Content:     m.Content,
		ImageTag:    m.ImageTag,
		BlockNumber: m.BlockNumber,
		TxHash:      m.TxHash,
		CreatedAt:   time.Time(m.CreatedAt),
	}
}

// toModel 将领域模型转换为数据库模型
func (r *diaryEntryRepository) toModel(e *domain.DiaryEntry) *model.DiaryEntry {
	if e == nil {
		return nil
	}
	return &model.DiaryEntry{
		Owner:       e.Owner,
		Day:         e.Day,
		Position:    e.Position,
		Content:     e.Content,
		ImageTag:    e.ImageTag,
		BlockNumber: e.BlockNumber,
		TxHash:      e.TxHash,
		CreatedAt:   timex.Time(e.CreatedAt.UTC()),
	}
}

// ListByDay 按 position 升序返回条目
func (r *diaryEntryRepository) ListByDay(ctx context.Context, owner string, day uint64) ([]*domain.DiaryEntry, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	var list []*model.DiaryEntry
	err = db.Where("owner = ? AND day = ?", owner, day).Order("position ASC").Find(&list).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domain.DiaryEntry, 0, len(list))
	for _, m := range list {
		out = append(out, r.toDomain(m))
	}
	return out, nil
}

// CountByDay 条目数量
func (r *diaryEntryRepository) CountByDay(ctx context.Context, owner string, day uint64) (uint64, error) {
	db, err := r.db(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Where("owner = ? AND day = ?", owner, day).Count(&n).Error; err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// Create 写入条目，唯一索引 (owner, day, position) 保证不会覆盖
func (r *diaryEntryRepository) Create(ctx context.Context, entry *domain.DiaryEntry) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	return db.Create(r.toModel(entry)).Error
}

// 确保 diaryEntryRepository 实现了 domain.DiaryEntryRepository 接口
var _ domain.DiaryEntryRepository = (*diaryEntryRepository)(nil)
