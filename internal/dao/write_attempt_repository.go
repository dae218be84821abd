package dao

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/domain"
	"github.com/haierkeys/onchain-diary-service/internal/model"
	"github.com/haierkeys/onchain-diary-service/pkg/app"
	"github.com/haierkeys/onchain-diary-service/pkg/timex"

	"gorm.io/gorm"
)

// writeAttemptRepository 实现 domain.WriteAttemptRepository 接口
type writeAttemptRepository struct {
	dao *Dao
}

// NewWriteAttemptRepository 创建 WriteAttemptRepository 实例
func NewWriteAttemptRepository(dao *Dao) domain.WriteAttemptRepository {
	return &writeAttemptRepository{dao: dao}
}

func (r *writeAttemptRepository) db(ctx context.Context) (*gorm.DB, error) {
	db, err := r.dao.UseWithMigrate("WriteAttempt")
	if err != nil {
		return nil, err
	}
	return db.WithContext(ctx).Model(&model.WriteAttempt{}), nil
}

func (r *writeAttemptRepository) toDomain(m *model.WriteAttempt) *domain.WriteAttempt {
	if m == nil {
		return nil
	}
	return &domain.WriteAttempt{
		ID:           m.ID,
		Address:      m.Address,
		Content:      m.Content,
		Mood:         domain.Mood(m.Mood),
		ImageTag:     m.ImageTag,
		Stage:        domain.WriteStage(m.Stage),
		TxHash:       m.TxHash,
		Day:          m.Day,
		BlockNumber:  m.BlockNumber,
		ErrorKind:    domain.WriteErrorKind(m.ErrorKind),
		ErrorMessage: m.ErrorMessage,
		Warning:      m.Warning,
		CreatedAt:    time.Time(m.CreatedAt),
		UpdatedAt:    time.Time(m.UpdatedAt),
	}
}

func (r *writeAttemptRepository) toModel(a *domain.WriteAttempt) *model.WriteAttempt {
	if a == nil {
		return nil
	}
	return &model.WriteAttempt{
		ID:           a.ID,
		Address:      a.Address,
		Content:      a.Content,
		Mood:         string(a.Mood),
		ImageTag:     a.ImageTag,
		Stage:        string(a.Stage),
		TxHash:       a.TxHash,
		Day:          a.Day,
		BlockNumber:  a.BlockNumber,
		ErrorKind:    string(a.ErrorKind),
		ErrorMessage: a.ErrorMessage,
		Warning:      a.Warning,
		CreatedAt:    timex.Time(a.CreatedAt.UTC()),
		UpdatedAt:    timex.Time(a.UpdatedAt.UTC()),
	}
}

// Create 创建写入记录
func (r *writeAttemptRepository) Create(ctx context.Context, attempt *domain.WriteAttempt) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = now
	}
	if attempt.UpdatedAt.IsZero() {
		attempt.UpdatedAt = now
	}
	return db.Create(r.toModel(attempt)).Error
}

// Update 更新全部可变字段
func (r *writeAttemptRepository) Update(ctx context.Context, attempt *domain.WriteAttempt) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	attempt.UpdatedAt = time.Now()
	m := r.toModel(attempt)
	res := db.Where("id = ?", attempt.ID).Updates(map[string]interface{}{
		"image_tag":     m.ImageTag,
		"stage":         m.Stage,
		"tx_hash":       m.TxHash,
		"day":           m.Day,
		"block_number":  m.BlockNumber,
		"error_kind":    m.ErrorKind,
		"error_message": m.ErrorMessage,
		"warning":       m.Warning,
		"updated_at":    m.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID 根据 ID 获取
func (r *writeAttemptRepository) GetByID(ctx context.Context, id string) (*domain.WriteAttempt, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	var m model.WriteAttempt
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return r.toDomain(&m), nil
}

// ListByAddress 按创建时间倒序分页
func (r *writeAttemptRepository) ListByAddress(ctx context.Context, address string, page, pageSize int) ([]*domain.WriteAttempt, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	var list []*model.WriteAttempt
	err = db.Where("address = ?", address).
		Order("created_at DESC").
		Offset(app.GetPageOffset(page, pageSize)).
		Limit(pageSize).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return r.toDomainList(list), nil
}

// CountByAddress 记录数量
func (r *writeAttemptRepository) CountByAddress(ctx context.Context, address string) (int64, error) {
	db, err := r.db(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	err = db.Where("address = ?", address).Count(&n).Error
	return n, err
}

// ListByStages 查询停留在指定阶段的记录
func (r *writeAttemptRepository) ListByStages(ctx context.Context, stages []domain.WriteStage, updatedBefore time.Time) ([]*domain.WriteAttempt, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(stages))
	for _, s := range stages {
		names = append(names, string(s))
	}
	var list []*model.WriteAttempt
	err = db.Where("stage IN ? AND updated_at < ?", names, timex.Time(updatedBefore.UTC())).
		Order("updated_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return r.toDomainList(list), nil
}

// DeleteTerminalBefore 删除已结束且早于 before 的记录
func (r *writeAttemptRepository) DeleteTerminalBefore(ctx context.Context, before time.Time) (int64, error) {
	db, err := r.db(ctx)
	if err != nil {
		return 0, err
	}
	res := db.Where("stage IN ? AND updated_at < ?",
		[]string{string(domain.StageConfirmed), string(domain.StageErrored)},
		timex.Time(before.UTC()),
	).Delete(&model.WriteAttempt{})
	return res.RowsAffected, res.Error
}

func (r *writeAttemptRepository) toDomainList(list []*model.WriteAttempt) []*domain.WriteAttempt {
	out := make([]*domain.WriteAttempt, 0, len(list))
	for _, m := range list {
		out = append(out, r.toDomain(m))
	}
	return out
}

// 确保 writeAttemptRepository 实现了 domain.WriteAttemptRepository 接口
var _ domain.WriteAttemptRepository = (*writeAttemptRepository)(nil)
