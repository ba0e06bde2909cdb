package models

import "gorm.io/datatypes"

// AuditLog is a security or administrative event. UserID is a weak reference:
// the record may outlive its subject.
type AuditLog struct {
	ImmutableModel
	UserID       *string        `gorm:"type:uuid;index"`
	Action       AuditAction    `gorm:"type:varchar(50);not null;index"`
	ResourceType string         `gorm:"type:varchar(50)"`
	ResourceID   string         `gorm:"type:varchar(64)"`
	OldValues    datatypes.JSON `gorm:"type:jsonb"`
	NewValues    datatypes.JSON `gorm:"type:jsonb"`
	IPAddress    string         `gorm:"type:varchar(45)"`
	UserAgent    string         `gorm:"type:text"`
	RequestID    string         `gorm:"type:varchar(36);index"`
	Success      bool           `gorm:"not null"`
	ErrorMessage string         `gorm:"type:text"`
}
