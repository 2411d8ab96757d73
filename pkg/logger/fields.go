package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldProfile 本地存储所属档案字段
	FieldProfile = "profile"

	// FieldAction 操作类型字段
	FieldAction = "action"

	// FieldKey 存储键字段
	FieldKey = "key"

	// FieldNoteID 笔记 ID 字段
	FieldNoteID = "noteId"

	// FieldSource 卡片来源字段
	FieldSource = "source"

	// FieldSessionID 学习会话 ID 字段
	FieldSessionID = "sessionId"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldURL 后端请求地址字段
	FieldURL = "url"

	// FieldTask 定时任务名称字段
	FieldTask = "task"

	// FieldError 错误信息字段
	FieldError = "error"
)
