// Package telegram carries the chat transport; Notifier adapts it to the
// notification-sink interfaces the engine and reports consume.
package telegram

import "github.com/aquastream/collections_backend/watersync"

type Notifier struct{}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// Notify sends a message to the admin chat, chunked when needed.
func (n *Notifier) Notify(message string) {
	SendNotification(message)
}

// SendTo sends a message to a specific chat, for report broadcasts.
func (n *Notifier) SendTo(chatID int64, message string) error {
	return SendPersonalNotification(chatID, message)
}

var _ watersync.NotificationSink = (*Notifier)(nil)
