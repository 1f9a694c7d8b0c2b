package structs

import "time"

type ChatMessage struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	Sender    Role      `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type SendChat struct {
	Text string `json:"text"`
}
