package model

import "github.com/haierkeys/onchain-diary-service/pkg/timex"

const TableNameWriteAttempt = "write_attempt"

// WriteAttempt mapped from table <write_attempt>
type WriteAttempt struct {
	ID           string     `gorm:"column:id;size:36;primaryKey" json:"id" form:"id"`
	Address      string     `gorm:"column:address;size:42;not null;index:idx_attempt_address_created,priority:1" json:"address" form:"address"`
	Content      string     `gorm:"column:content;not null" json:"content" form:"content"`
	Mood         string     `gorm:"column:mood;size:16" json:"mood" form:"mood"`
	ImageTag     string     `gorm:"column:image_tag" json:"imageTag" form:"imageTag"`
	Stage        string     `gorm:"column:stage;size:16;not null;index:idx_attempt_stage_updated,priority:1" json:"stage" form:"stage"`
	TxHash       string     `gorm:"column:tx_hash;size:66" json:"txHash" form:"txHash"`
	Day          uint64     `gorm:"column:day;not null;default:0" json:"day" form:"day"`
	BlockNumber  uint64     `gorm:"column:block_number;not null;default:0" json:"blockNumber" form:"blockNumber"`
	ErrorKind    string     `gorm:"column:error_kind;size:16" json:"errorKind" form:"errorKind"`
	ErrorMessage string     `gorm:"column:error_message" json:"errorMessage" form:"errorMessage"`
	Warning      string     `gorm:"column:warning" json:"warning" form:"warning"`
	CreatedAt    timex.Time `gorm:"column:created_at;default:NULL;autoCreateTime:false;index:idx_attempt_address_created,priority:2" json:"createdAt" form:"createdAt"`
	UpdatedAt    timex.Time `gorm:"column:updated_at;default:NULL;autoUpdateTime:false;index:idx_attempt_stage_updated,priority:2" json:"updatedAt" form:"updatedAt"`
}

// TableName WriteAttempt's table name
func (*WriteAttempt) TableName() string {
	return TableNameWriteAttempt
}
