package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserLogin       = "auth.login"
	EventTypeUserLoginFailed = "auth.login_failed"
	EventTypeUserLogout      = "auth.logout"
	EventTypeUserRegistered  = "auth.registered"
)

type AuthEvent struct {
	BaseEvent
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	Details   string `json:"details"`
}

func NewAuthEvent(eventType string, userID int64, username, details string) *AuthEvent {
	return &AuthEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":  userID,
				"username": username,
			},
		},
		UserID:   userID,
		Username: username,
		Details:  details,
	}
}

func (e *AuthEvent) WithClient(ip, userAgent string) *AuthEvent {
	e.IPAddress = ip
	e.UserAgent = userAgent
	return e
}
