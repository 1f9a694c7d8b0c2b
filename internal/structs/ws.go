package structs

import "time"

type Role string

const (
	RoleCourier Role = "courier"
	RolePartner Role = "partner"
)

type EventType string

const (
	EventNewOrder    EventType = "new_order"
	EventJobUpdate   EventType = "job_update"
	EventJobReady    EventType = "job_ready"
	EventChatMessage EventType = "chat_message"
)

type Event struct {
	Type    EventType `json:"type"`
	TS      time.Time `json:"ts"`
	Payload any       `json:"payload,omitempty"`
}

// JobPatchPayload carries only what changed on a job.
type JobPatchPayload struct {
	ID          string    `json:"id"`
	Status      JobStatus `json:"status"`
	CourierID   string    `json:"courier_id,omitempty"`
	DeliveryFee int64     `json:"delivery_fee,omitempty"`
	Ready       bool      `json:"ready,omitempty"`
}

type NewOrderPayload struct {
	Job DeliveryJob `json:"job"`
}

type ChatPayload struct {
	Message ChatMessage `json:"message"`
}
