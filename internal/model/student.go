package model

import "time"

// Student は学校に在籍する学生を表す。
// UserIDはログイン用アカウント、SchoolIDは所属テナント。
type Student struct {
	ID         string
	FirstName  string
	LastName   string
	Program    string
	Department *string
	UserID     string
	SchoolID   string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// Class は学生が履修する授業を表す。
type Class struct {
	ID        string
	Name      string
	StudentID string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
