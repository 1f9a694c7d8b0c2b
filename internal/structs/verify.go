package structs

import "time"

type VerificationStatus string

const (
	VerificationWaiting  VerificationStatus = "waiting_contact"
	VerificationVerified VerificationStatus = "verified"
)

// PendingVerification links a registration session to a Telegram contact share.
type PendingVerification struct {
	Token     string             `json:"token"`
	Status    VerificationStatus `json:"status"`
	Phone     string             `json:"phone,omitempty"`
	ChatID    int64              `json:"chat_id,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// Channel is an external notification destination (telegram first, push fallback).
type Channel struct {
	TelegramChatID int64  `json:"telegram_chat_id,omitempty"`
	PushToken      string `json:"push_token,omitempty"`
}

func (ch Channel) Empty() bool {
	return ch.TelegramChatID == 0 && ch.PushToken == ""
}
