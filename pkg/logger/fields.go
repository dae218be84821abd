package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldAddress 钱包地址字段
	FieldAddress = "address"

	// FieldDay 日序号字段 (unix 时间戳 / 86400)
	FieldDay = "day"

	// FieldTxHash 交易哈希字段
	FieldTxHash = "txHash"

	// FieldAttemptID 写入尝试 ID 字段
	FieldAttemptID = "attemptId"

	// FieldStage 写入阶段字段
	FieldStage = "stage"

	// FieldBlockNumber 区块号字段
	FieldBlockNumber = "blockNumber"

	// FieldChainID 链 ID 字段
	FieldChainID = "chainId"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldSize 大小字段
	FieldSize = "size"

	// FieldBucket 存储桶名称字段
	FieldBucket = "bucket"

	// FieldFileKey 文件键字段
	FieldFileKey = "fileKey"
)
