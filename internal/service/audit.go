package service

import (
	"encoding/json"
	"log"

	"avalon/internal/models"
)

type AuditSink interface {
	Create(entry *models.AuditLog) error
}

// AuditLogger writes ledger entries on a best-effort basis. A failed write
// is reported to the operator log and otherwise ignored so it can never
// abort the caller's primary operation.
type AuditLogger struct {
	sink AuditSink
}

func NewAuditLogger(sink AuditSink) *AuditLogger {
	return &AuditLogger{sink: sink}
}

// Record appends one entry. details may be a string or any JSON-serializable
// value; actorID may be empty for system actions.
func (l *AuditLogger) Record(actorID, actorLabel, action string, details interface{}, ip string) {
	detailsStr := ""
	switch d := details.(type) {
	case nil:
	case string:
		detailsStr = d
	default:
		b, err := json.Marshal(d)
		if err == nil {
			detailsStr = string(b)
		}
	}
	entry := &models.AuditLog{
		ActorLabel: actorLabel,
		Action:     action,
		Details:    detailsStr,
		IP:         ip,
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	if err := l.sink.Create(entry); err != nil {
		log.Printf("[audit] failed to record %s: %v", action, err)
	}
}
