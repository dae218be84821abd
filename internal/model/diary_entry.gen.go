package model

import "github.com/haierkeys/onchain-diary-service/pkg/timex"

const TableNameDiaryEntry = "diary_entry"

// DiaryEntry mapped from table <diary_entry>
type DiaryEntry struct {
	ID          int64      `gorm:"column:id;primaryKey" json:"id" form:"id"`
	Owner       string     `gorm:"column:owner;size:42;not null;uniqueIndex:idx_owner_day_position,priority:1" json:"owner" form:"owner"`
	Day         uint64     `gorm:"column:day;not null;uniqueIndex:idx_owner_day_position,priority:2" json:"day" form:"day"`
	Position    uint64     `gorm:"column:position;not null;uniqueIndex:idx_owner_day_position,priority:3" json:"position" form:"position"`
	Content     string     `gorm:"column:content;not null" json:"content" form:"content"`
	ImageTag    string     `gorm:"column:image_tag" json:"imageTag" form:"imageTag"`
	BlockNumber uint64     `gorm:"column:block_number;not null;default:0" json:"blockNumber" form:"blockNumber"`
	TxHash      string     `gorm:"column:tx_hash;size:66;index:idx_diary_tx_hash" json:"txHash" form:"txHash"`
	CreatedAt   timex.Time `gorm:"column:created_at;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
}

// TableName DiaryEntry's table name
func (*DiaryEntry) TableName() string {
	return TableNameDiaryEntry
}
