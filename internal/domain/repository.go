// Package domain 定义领域模型和接口
package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// DiaryEntryRepository 合约状态存储
type DiaryEntryRepository interface {
	// ListByDay 按 Position 升序返回某地址某天的所有条目
	ListByDay(ctx context.Context, owner string, day uint64) ([]*DiaryEntry, error)

	// CountByDay 某地址某天的条目数
	CountByDay(ctx context.Context, owner string, day uint64) (uint64, error)

	// Create 写入条目，(Owner, Day, Position) 重复时返回错误
	Create(ctx context.Context, entry *DiaryEntry) error
}

// WriteAttemptRepository 写入记录存储
type WriteAttemptRepository interface {
	// Create 创建写入记录
	Create(ctx context.Context, attempt *WriteAttempt) error

	// Update 按 ID 更新全部可变字段
	Update(ctx context.Context, attempt *WriteAttempt) error

	// GetByID 不存在时返回 ErrNotFound
	GetByID(ctx context.Context, id string) (*WriteAttempt, error)

	// ListByAddress 按创建时间倒序分页
	ListByAddress(ctx context.Context, address string, page, pageSize int) ([]*WriteAttempt, error)

	// CountByAddress 某地址的记录数
	CountByAddress(ctx context.Context, address string) (int64, error)

	// ListByStages 查询处于指定阶段且在 updatedBefore 之前更新的记录
	ListByStages(ctx context.Context, stages []WriteStage, updatedBefore time.Time) ([]*WriteAttempt, error)

	// DeleteTerminalBefore 删除 before 之前结束的记录，返回删除条数
	DeleteTerminalBefore(ctx context.Context, before time.Time) (int64, error)
}
