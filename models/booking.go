package models

import "time"

// Booking represents one customer's claim on a provider's time. Start and End
// are minutes from midnight, denormalized from Time+Duration so the conflict
// scan and the unique index never reparse clock strings.
type Booking struct {
	ID             string        `bson:"id" json:"id"`
	ProviderID     string        `bson:"providerId" json:"providerId"`
	UserID         string        `bson:"userId" json:"userId"`
	ServiceID      string        `bson:"serviceId" json:"serviceId"`
	AddressID      string        `bson:"addressId,omitempty" json:"addressId,omitempty"`
	PaymentRef     string        `bson:"paymentRef,omitempty" json:"paymentRef,omitempty"`
	Date           string        `bson:"date" json:"date"`         // "2006-01-02"
	Time           string        `bson:"time" json:"time"`         // "03:04 PM"
	Duration       int           `bson:"duration" json:"duration"` // minutes
	Start          int           `bson:"start" json:"start"`
	End            int           `bson:"end" json:"end"`
	Amount         float64       `bson:"amount" json:"amount"`
	Commission     float64       `bson:"commission,omitempty" json:"commission,omitempty"`
	ProviderAmount float64       `bson:"providerAmount,omitempty" json:"providerAmount,omitempty"`
	RefundDue      float64       `bson:"refundDue,omitempty" json:"refundDue,omitempty"` // owed to the customer until PaymentStatus turns Refunded
	Status         BookingStatus `bson:"status" json:"status"`
	PaymentStatus  PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	Reviewed       bool          `bson:"reviewed" json:"reviewed"`
	CreatedAt      time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// Overlaps reports whether the booking's half-open interval intersects
// [start, end) on the same date.
func (b Booking) Overlaps(start, end int) bool {
	return b.Start < end && b.End > start
}

// BookingRequest is the creation payload handed to the conflict guard.
type BookingRequest struct {
	ProviderID string `json:"providerId" binding:"required"`
	UserID     string `json:"userId" binding:"required"`
	ServiceID  string `json:"serviceId" binding:"required"`
	AddressID  string `json:"addressId,omitempty"`
	PaymentRef string `json:"paymentRef,omitempty"`
	Date       string `json:"date" binding:"required"` // "2006-01-02"
	Time       string `json:"time" binding:"required"` // "03:04 PM"
}

// TransitionActor identifies who is driving a lifecycle transition; refund
// percentages depend on it.
type TransitionActor string

const (
	ActorCustomer TransitionActor = "customer"
	ActorProvider TransitionActor = "provider"
	ActorAdmin    TransitionActor = "admin"
	ActorSystem   TransitionActor = "system"
)

// TransitionAction is a lifecycle request from the API surface.
type TransitionAction string

const (
	ActionConfirm           TransitionAction = "confirm"
	ActionStart             TransitionAction = "start"
	ActionRequestCompletion TransitionAction = "requestCompletion"
	ActionConfirmCompletion TransitionAction = "confirmCompletion"
	ActionCancel            TransitionAction = "cancel"
)
