package models

// Session is a stored login session, used when no external session storage is configured.
type Session struct {
	// ID is the opaque session id handed out as cookie value.
	ID string `gorm:"primaryKey;size:64"`
	// Data is the JSON encoded session payload.
	Data []byte
	// ExpiresAt is the unix time after which the session is invalid, 0 never expires.
	ExpiresAt int64 `gorm:"index"`
}

// TableName specifies the database table name for the Session model.
func (Session) TableName() string {
	return "api_sessions"
}
