package structs

import "time"

type Courier struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	PasswordHash string     `json:"-"`
	IsOnline     bool       `json:"is_online"`
	IsActive     bool       `json:"is_active"`
	Lat          *float64   `json:"lat,omitempty"`
	Lng          *float64   `json:"lng,omitempty"`
	LastSeenAt   *time.Time `json:"last_seen_at,omitempty"`
	PushToken    string     `json:"-"`
	TgChatID     int64      `json:"-"`
	RatingAvg    float64    `json:"rating_avg"`
	RatingCount  int64      `json:"rating_count"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Channel is where a courier can be reached off-socket.
func (c Courier) Channel() Channel {
	return Channel{TelegramChatID: c.TgChatID, PushToken: c.PushToken}
}

func (c Courier) Reachable() bool {
	return c.TgChatID != 0 || c.PushToken != ""
}

type RegisterCourier struct {
	Name        string `json:"name"`
	Password    string `json:"password"`
	VerifyToken string `json:"verify_token"`
	PushToken   string `json:"push_token"`
}

type CourierLogin struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type LocationPing struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type ShiftToggle struct {
	Online bool `json:"online"`
}
