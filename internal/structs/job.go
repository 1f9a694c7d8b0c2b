package structs

import "time"

type JobStatus string

const (
	StatusPending       JobStatus = "pending"
	StatusAssigned      JobStatus = "assigned"
	StatusArrivedPickup JobStatus = "arrived_pickup"
	StatusPickedUp      JobStatus = "picked_up"
	StatusReturning     JobStatus = "returning"
	StatusDelivered     JobStatus = "delivered"
	StatusCancelled     JobStatus = "cancelled"
)

type PaymentType string

const (
	PaymentPrepaid PaymentType = "prepaid"
	PaymentCash    PaymentType = "cash"
	PaymentBuyout  PaymentType = "buyout"
)

func (p PaymentType) Valid() bool {
	switch p {
	case PaymentPrepaid, PaymentCash, PaymentBuyout:
		return true
	}
	return false
}

type DeliveryJob struct {
	ID               string      `json:"id"`
	PartnerID        string      `json:"partner_id"`
	CourierID        *string     `json:"courier_id,omitempty"`
	Status           JobStatus   `json:"status"`
	CustomerName     string      `json:"customer_name"`
	CustomerPhone    string      `json:"customer_phone"`
	DropoffAddress   string      `json:"dropoff_address"`
	DropoffLat       float64     `json:"dropoff_lat"`
	DropoffLng       float64     `json:"dropoff_lng"`
	OrderPrice       int64       `json:"order_price"`
	DeliveryFee      int64       `json:"delivery_fee"`
	PaymentType      PaymentType `json:"payment_type"`
	IsReturnRequired bool        `json:"is_return_required"`
	Comment          string      `json:"comment,omitempty"`
	ReadyAt          *time.Time  `json:"ready_at,omitempty"`
	Rating           *int        `json:"rating,omitempty"`
	Review           string      `json:"review,omitempty"`
	Tier1Notified    bool        `json:"-"`
	Tier2Notified    bool        `json:"-"`
	CreatedAt        time.Time   `json:"created_at"`
	AcceptedAt       *time.Time  `json:"accepted_at,omitempty"`
	ArrivedPickupAt  *time.Time  `json:"arrived_pickup_at,omitempty"`
	PickedUpAt       *time.Time  `json:"picked_up_at,omitempty"`
	DeliveredAt      *time.Time  `json:"delivered_at,omitempty"`
	CancelledAt      *time.Time  `json:"cancelled_at,omitempty"`
}

// Terminal reports whether the job can no longer change state.
func (j DeliveryJob) Terminal() bool {
	return j.Status == StatusDelivered || j.Status == StatusCancelled
}

type CreateJob struct {
	CustomerName     string      `json:"customer_name"`
	CustomerPhone    string      `json:"customer_phone"`
	DropoffAddress   string      `json:"dropoff_address"`
	DropoffLat       float64     `json:"dropoff_lat"`
	DropoffLng       float64     `json:"dropoff_lng"`
	OrderPrice       int64       `json:"order_price"`
	DeliveryFee      int64       `json:"delivery_fee"`
	PaymentType      PaymentType `json:"payment_type"`
	IsReturnRequired bool        `json:"is_return_required"`
	Comment          string      `json:"comment"`
}

type BoostFee struct {
	Amount int64 `json:"amount"`
}

type RateCourier struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}
