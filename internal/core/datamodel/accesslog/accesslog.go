package accesslog

import "time"

// AccessLog rows are append-only.
type AccessLog struct {
	ID           int64     `gorm:"primaryKey"`
	UserID       *int64    `gorm:"column:user_id;index"`
	IPAddress    string    `gorm:"column:ip_address;size:45;not null"`
	UserAgent    string    `gorm:"column:user_agent;size:500"`
	Endpoint     string    `gorm:"column:endpoint;size:255"`
	Method       string    `gorm:"column:method;size:10"`
	StatusCode   int       `gorm:"column:status_code"`
	ResponseTime float64   `gorm:"column:response_time"`
	CreatedAt    time.Time `gorm:"column:created_at;index;not null"`
	FileID       *int64    `gorm:"column:file_id;index"`
	Action       string    `gorm:"column:action;size:50"`
	Details      string    `gorm:"column:details;type:text"`
}

func (AccessLog) TableName() string { return "access_logs" }
