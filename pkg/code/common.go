package code

var (
	Failed                = NewError(0, lang{en: "Failed", zh_cn: "失败"})
	Success               = NewSuss(1, lang{en: "Success", zh_cn: "成功"})
	SuccessCreate         = NewSuss(2, lang{en: "Created successfully", zh_cn: "创建成功"})
	SuccessUpdate         = NewSuss(3, lang{en: "Updated successfully", zh_cn: "更新成功"})
	SuccessDelete         = NewSuss(4, lang{en: "Deleted successfully", zh_cn: "删除成功"})
	SuccessSubmitted      = NewSuss(5, lang{en: "Diary submitted, waiting for confirmation", zh_cn: "日记已提交，等待确认"})
	SuccessConnected      = NewSuss(6, lang{en: "Wallet connected", zh_cn: "钱包已连接"})
	SuccessDisconnected   = NewSuss(7, lang{en: "Wallet disconnected", zh_cn: "钱包已断开"})
	SuccessTimeIncreased  = NewSuss(8, lang{en: "Chain time increased", zh_cn: "链上时间已推进"})
	SuccessAttemptUpdated = NewSuss(9, lang{en: "Write attempt updated", zh_cn: "写入状态已更新"})
	SuccessDiaryWritten   = NewSuss(10, lang{en: "Diary written", zh_cn: "日记已写入"})

	ErrorServerInternal       = NewError(500, lang{en: "Internal server error", zh_cn: "服务器内部错误"})
	ErrorNotFoundAPI          = NewError(404, lang{en: "API not found", zh_cn: "找不到接口"})
	ErrorInvalidParams        = NewError(400, lang{en: "Invalid parameters", zh_cn: "参数错误"})
	ErrorTooManyRequests      = NewError(429, lang{en: "Too many requests", zh_cn: "请求过多"})
	ErrorNotUserAuthToken     = NewError(401, lang{en: "Wallet session token missing", zh_cn: "缺少钱包会话 Token"})
	ErrorInvalidUserAuthToken = NewError(403, lang{en: "Wallet session token invalid or expired", zh_cn: "钱包会话 Token 无效或已过期"})

	ErrorDBQuery       = NewError(1001, lang{en: "Database query failed", zh_cn: "数据库查询失败"})
	ErrorDBWrite       = NewError(1002, lang{en: "Database write failed", zh_cn: "数据库写入失败"})
	ErrorStorageType   = NewError(1003, lang{en: "Invalid storage type", zh_cn: "存储类型无效"})
	ErrorStorageUpload = NewError(1004, lang{en: "Storage upload failed", zh_cn: "存储上传失败"})
	ErrorCache         = NewError(1005, lang{en: "Cache operation failed", zh_cn: "缓存操作失败"})

	ErrorWalletNotConnected = NewError(2001, lang{en: "Wallet not connected", zh_cn: "钱包未连接"})
	ErrorAccountNotFound    = NewError(2002, lang{en: "Account not found in keystore", zh_cn: "钥匙库中没有该账户"})
	ErrorInvalidAddress     = NewError(2003, lang{en: "Invalid address", zh_cn: "地址无效"})
	ErrorUserRejected       = NewError(2004, lang{en: "Transaction cancelled by user", zh_cn: "用户取消了交易"})

	ErrorContentEmpty          = NewError(3001, lang{en: "Diary content is empty", zh_cn: "日记内容为空"})
	ErrorContentTooLong        = NewError(3002, lang{en: "Diary content is too long", zh_cn: "日记内容过长"})
	ErrorDailyLimitReached     = NewError(3003, lang{en: "Daily limit reached. Please write again tomorrow", zh_cn: "已达今日写入上限，请明天再来"})
	ErrorSubmitFailed          = NewError(3004, lang{en: "Failed to submit diary", zh_cn: "日记提交失败"})
	ErrorWriteInFlight         = NewError(3005, lang{en: "A diary transaction is already in progress", zh_cn: "已有日记交易正在进行"})
	ErrorUploadInProgress      = NewError(3006, lang{en: "Image upload in progress", zh_cn: "图片正在上传"})
	ErrorContractNotConfigured = NewError(3007, lang{en: "Diary contract address is not configured", zh_cn: "未配置日记合约地址"})
	ErrorInvalidMood           = NewError(3008, lang{en: "Invalid mood", zh_cn: "心情无效"})
	ErrorImageTooLarge         = NewError(3009, lang{en: "Image exceeds the size limit", zh_cn: "图片超过大小限制"})
	ErrorImageDecode           = NewError(3010, lang{en: "Unsupported image", zh_cn: "不支持的图片"})
	ErrorAttemptNotFound       = NewError(3011, lang{en: "Write attempt not found", zh_cn: "找不到写入记录"})
	ErrorAlreadyWrittenToday   = NewError(3012, lang{en: "Already written today", zh_cn: "今天已经写过了"})

	ErrorChainRead       = NewError(4001, lang{en: "Chain read failed", zh_cn: "链上读取失败"})
	ErrorChainWrite      = NewError(4002, lang{en: "Chain write failed", zh_cn: "链上写入失败"})
	ErrorDevChainOnly    = NewError(4003, lang{en: "Only available on the local dev chain in debug mode", zh_cn: "仅在调试模式的本地开发链可用"})
	ErrorReceiptNotFound = NewError(4004, lang{en: "Transaction receipt not found", zh_cn: "找不到交易回执"})
)
