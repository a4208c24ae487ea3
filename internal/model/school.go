package model

import "time"

// School はテナントとなる学校を表す。
type School struct {
	ID        string
	Name      string
	Website   string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
