package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeFileUploaded     = "file.uploaded"
	EventTypeFileUploadFailed = "file.upload_failed"
	EventTypeFileDownloaded   = "file.downloaded"
	EventTypeFileDeleted      = "file.deleted"
	EventTypeFileViewed       = "file.viewed"
)

// FileEvent describes something a user did to a file. UserID is 0 for
// anonymous callers and FileID is 0 when no row exists (failed uploads).
type FileEvent struct {
	BaseEvent
	FileID    int64  `json:"file_id"`
	UserID    int64  `json:"user_id"`
	Filename  string `json:"filename"`
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	Details   string `json:"details"`
}

func NewFileEvent(eventType string, fileID, userID int64, filename, details string) *FileEvent {
	return &FileEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"file_id":  fileID,
				"user_id":  userID,
				"filename": filename,
			},
		},
		FileID:   fileID,
		UserID:   userID,
		Filename: filename,
		Details:  details,
	}
}

// WithClient attaches client address information.
func (e *FileEvent) WithClient(ip, userAgent string) *FileEvent {
	e.IPAddress = ip
	e.UserAgent = userAgent
	return e
}
