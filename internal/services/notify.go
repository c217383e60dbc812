package services

import (
	applog "furnibles/internal/log"
)

// Notifier is the outbound notification dispatcher. Delivery is
// fire-and-forget: a failed send must never fail the operation that
// triggered it.
type Notifier interface {
	Notify(userID, ntype, title, message string, meta map[string]any) error
}

// LogNotifier writes notifications to the structured log. Real delivery
// (email/push) sits behind the same interface out of process.
type LogNotifier struct{}

func (LogNotifier) Notify(userID, ntype, title, message string, meta map[string]any) error {
	fields := map[string]any{"user_id": userID, "type": ntype, "title": title, "message": message}
	for k, v := range meta {
		fields[k] = v
	}
	applog.Info(nil, "notify.dispatch", fields)
	return nil
}
