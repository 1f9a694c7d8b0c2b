package structs

import "time"

type DeliveryPartner struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	TgChatID     int64     `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (p DeliveryPartner) Channel() Channel {
	return Channel{TelegramChatID: p.TgChatID}
}

type RegisterPartner struct {
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Phone    string  `json:"phone"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	TgChatID int64   `json:"tg_chat_id"`
}

type PartnerLogin struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}
