package models

import "time"

// AuditLog is an append-only ledger entry. Rows are never updated; the only
// delete path is the admin bulk purge.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActorID    *string   `gorm:"size:64;index" json:"actorId"`
	ActorLabel string    `gorm:"size:128;not null" json:"actorLabel"`
	Action     string    `gorm:"size:100;not null;index" json:"action"`
	Details    string    `gorm:"type:text" json:"details"`
	IP         string    `gorm:"size:45" json:"ip"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
