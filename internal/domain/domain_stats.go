package domain

import "math"

// StudyStats 学习统计：正确、错误、作答总数与正确率
type StudyStats struct {
	Correct       int `json:"correct"`
	Incorrect     int `json:"incorrect"`
	TotalAnswered int `json:"totalAnswered"`
	Accuracy      int `json:"accuracy"`
}

// Accuracy 计算正确率 round(correct/total*100)，未作答时为 0
func Accuracy(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// Record 记录一次作答并返回新的统计
func (s StudyStats) Record(correct bool) StudyStats {
	if correct {
		s.Correct++
	} else {
		s.Incorrect++
	}
	s.TotalAnswered = s.Correct + s.Incorrect
	s.Accuracy = Accuracy(s.Correct, s.TotalAnswered)
	return s
}

// Normalize 加载时修正存储的计数：负数归零，总数与正确率按计数重新计算
func (s StudyStats) Normalize() StudyStats {
	if s.Correct < 0 {
		s.Correct = 0
	}
	if s.Incorrect < 0 {
		s.Incorrect = 0
	}
	s.TotalAnswered = s.Correct + s.Incorrect
	s.Accuracy = Accuracy(s.Correct, s.TotalAnswered)
	return s
}

// StatsEvent 统计总线上的事件
type StatsEvent struct {
	Profile string
	Stats   StudyStats
	// Stored 快照已在写队列内落库，持久化订阅者跳过
	Stored bool
	// Answered 事件由一次作答产生，Correct 为作答结果
	Answered bool
	Correct  bool
}
