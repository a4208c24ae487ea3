package model

import "time"

// TimeOfDayLayout は授業開始・終了時刻の表現形式。
const TimeOfDayLayout = "15:04:05"

// Schedule は授業の週次スケジュールを表す。
// DayOfWeekは0（日曜）から6（土曜）、時刻はTimeOfDayLayout形式。
type Schedule struct {
	ID        string
	StudentID string
	ClassID   string
	DayOfWeek int16
	StartTime string
	EndTime   string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
