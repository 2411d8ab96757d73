package dto

// RecordingTitleRequest 修改录音标题
type RecordingTitleRequest struct {
	Title string `json:"title" form:"title" binding:"required,max=512"`
}

// RecordingRebuildResponse 由录音重建卡组的结果
type RecordingRebuildResponse struct {
	Count int `json:"count"`
}
