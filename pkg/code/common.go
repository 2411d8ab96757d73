package code

var (
	Success = NewSuss(200, lang{en: "Success", zh_cn: "成功"})

	ErrorInvalidParams      = NewError(40001, KindValidation, lang{en: "Invalid params", zh_cn: "参数错误"})
	ErrorNoteEmpty          = NewError(40002, KindValidation, lang{en: "Title and body are both empty", zh_cn: "标题和正文均为空"})
	ErrorUnknownSourceKind  = NewError(40003, KindValidation, lang{en: "Unknown source kind", zh_cn: "未知的来源类型"})
	ErrorStudyNotStarted    = NewError(40004, KindValidation, lang{en: "Study session is not running", zh_cn: "学习会话未开始"})
	ErrorStudyFinished      = NewError(40005, KindValidation, lang{en: "Study session is finished", zh_cn: "学习会话已结束"})
	ErrorDeckEmpty          = NewError(40006, KindValidation, lang{en: "Deck has no cards", zh_cn: "卡组中没有卡片"})
	ErrorInvalidReviewGoal  = NewError(40007, KindValidation, lang{en: "Invalid goal date", zh_cn: "目标日期无效"})
	ErrorEditorClosed       = NewError(40008, KindValidation, lang{en: "Editor is closed", zh_cn: "编辑器已关闭"})
	ErrorNoteNotFound       = NewError(40401, KindNotFound, lang{en: "Note not found", zh_cn: "笔记不存在"})
	ErrorVersionNotFound    = NewError(40402, KindNotFound, lang{en: "Note version not found", zh_cn: "笔记版本不存在"})
	ErrorSourceNotFound     = NewError(40403, KindNotFound, lang{en: "Card source not found", zh_cn: "卡片来源不存在"})
	ErrorStudyNotFound      = NewError(40404, KindNotFound, lang{en: "Study session not found", zh_cn: "学习会话不存在"})
	ErrorEditorNotFound     = NewError(40405, KindNotFound, lang{en: "Editor not found", zh_cn: "编辑器不存在"})
	ErrorTimelineNotFound   = NewError(40406, KindNotFound, lang{en: "Timeline entry not found", zh_cn: "时间线条目不存在"})
	ErrorNotFoundAPI        = NewError(40407, KindNotFound, lang{en: "API not found", zh_cn: "接口不存在"})
	ErrorTooManyRequests    = NewError(42901, KindRateLimited, lang{en: "Too many requests", zh_cn: "请求过多"})
	ErrorServerInternal     = NewError(50001, KindInternal, lang{en: "Internal server error", zh_cn: "服务器内部错误"})
	ErrorStorage            = NewError(50002, KindStorage, lang{en: "Storage failure", zh_cn: "存储失败"})
	ErrorRemote             = NewError(50201, KindRemote, lang{en: "Backend request failed", zh_cn: "后端请求失败"})
	ErrorRemoteNotConfigure = NewError(50202, KindRemote, lang{en: "Backend is not configured", zh_cn: "未配置后端地址"})
)
