package domain

import "time"

// WriteStage 写入流程所处阶段
type WriteStage string

const (
	StageIdle         WriteStage = "idle"
	StageUploading    WriteStage = "uploading"
	StageBuildingArgs WriteStage = "building_args"
	StagePending      WriteStage = "pending"
	StageConfirming   WriteStage = "confirming"
	StageConfirmed    WriteStage = "confirmed"
	StageErrored      WriteStage = "errored"
)

// Terminal 是否为终态
func (s WriteStage) Terminal() bool {
	return s == StageConfirmed || s == StageErrored
}

// InFlight 是否仍在进行中
func (s WriteStage) InFlight() bool {
	return s != StageIdle && !s.Terminal()
}

// WriteErrorKind 写入失败分类
type WriteErrorKind string

const (
	// ErrorKindValidation 发起任何网络请求前被拒绝
	ErrorKindValidation WriteErrorKind = "validation"
	// ErrorKindDailyLimit 合约拒绝：当日次数已用完
	ErrorKindDailyLimit WriteErrorKind = "daily_limit"
	// ErrorKindUserRejected 用户拒绝签名
	ErrorKindUserRejected WriteErrorKind = "user_rejected"
	// ErrorKindFailed 其它失败，消息附带原始错误
	ErrorKindFailed WriteErrorKind = "failed"
)

// WriteAttempt 一次提交的完整记录
type WriteAttempt struct {
	ID           string
	Address      string
	Content      string
	Mood         Mood
	ImageTag     string
	Stage        WriteStage
	TxHash       string
	Day          uint64
	BlockNumber  uint64
	ErrorKind    WriteErrorKind
	ErrorMessage string
	Warning      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Draft 已连接账户的编辑中内容
type Draft struct {
	Address           string
	Content           string
	Mood              Mood
	Image             *DraftImage
	Uploading         bool
	InFlightAttemptID string
	Error             string
}

// DraftImage 选择的自定义图片
type DraftImage struct {
	Name        string
	ContentType string
	Data        []byte
}
