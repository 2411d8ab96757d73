package dto

// StudyStartRequest 开始学习，可按来源过滤卡组
type StudyStartRequest struct {
	Kind   string `json:"kind" form:"kind" binding:"omitempty,sourcekind"`
	Source string `json:"source" form:"source"`
}

// StudyAnswerRequest 作答
type StudyAnswerRequest struct {
	Correct *bool `json:"correct" form:"correct" binding:"required"`
}
