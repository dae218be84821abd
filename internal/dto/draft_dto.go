package dto

// DraftContentRequest set draft content
// 设置草稿内容请求参数
type DraftContentRequest struct {
	Content string `json:"content" form:"content"` // Text, truncated to the max length // 内容，超长部分被截断
}

// DraftMoodRequest select a mood
// 选择心情请求参数
type DraftMoodRequest struct {
	Mood string `json:"mood" form:"mood" binding:"required,mood"` // happy / sad / angry // 心情
}

// DraftImageDTO selected image
// DraftImageDTO 已选择的图片
type DraftImageDTO struct {
	Name        string `json:"name"`        // File name // 文件名
	ContentType string `json:"contentType"` // MIME type // 类型
	Size        int    `json:"size"`        // Bytes // 大小
}

// DraftDTO current draft of a connected address
// DraftDTO 当前草稿
type DraftDTO struct {
	Address           string         `json:"address"`                     // Account address // 账户地址
	Content           string         `json:"content"`                     // Text // 内容
	ContentLength     int            `json:"contentLength"`               // UTF-16 length // 长度
	MaxContentLength  int            `json:"maxContentLength"`            // Max characters // 最大字数
	Mood              string         `json:"mood,omitempty"`              // Selected mood // 已选心情
	Image             *DraftImageDTO `json:"image,omitempty"`             // Selected image // 已选图片
	Uploading         bool           `json:"uploading"`                   // Upload in progress // 正在上传
	InFlightAttemptID string         `json:"inFlightAttemptId,omitempty"` // Write in flight // 进行中的写入
	Error             string         `json:"error,omitempty"`             // Last error // 错误信息
	CanSubmit         bool           `json:"canSubmit"`                   // Submit enabled // 是否可提交
}
