package models

import "time"

// GeoPoint represents a GeoJSON Point.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`               // always "Point"
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [longitude, latitude]
}

// Profile carries a provider's public identity and fixed location.
type Profile struct {
	Name        string   `bson:"name" json:"name"`
	Email       string   `bson:"email" json:"email,omitempty"`
	PhoneNumber string   `bson:"phoneNumber" json:"phoneNumber,omitempty"`
	Address     string   `bson:"address" json:"address,omitempty"`
	Status      string   `bson:"status" json:"status,omitempty"`
	Rating      float64  `bson:"rating" json:"rating,omitempty"` // 1..5
	LocationGeo GeoPoint `bson:"locationGeo" json:"locationGeo"`
}

// Subscription is the provider's active plan, embedded on the provider
// document. A plan is in force while ExpiresAt is in the future.
type Subscription struct {
	PlanID    string    `bson:"planId" json:"planId"`
	PlanName  string    `bson:"planName" json:"planName"`
	Features  []string  `bson:"features" json:"features"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
}

// Active reports whether the subscription is in force at t.
func (s *Subscription) Active(t time.Time) bool {
	return s != nil && s.ExpiresAt.After(t)
}

// Provider is a service-supplying actor with a fixed location and a published
// availability calendar.
type Provider struct {
	ID                string        `bson:"id" json:"id"`
	Profile           Profile       `bson:"profile" json:"profile"`
	Availability      Availability  `bson:"availability" json:"availability"`
	Subscription      *Subscription `bson:"subscription,omitempty" json:"subscription,omitempty"`
	TotalEarnings     float64       `bson:"totalEarnings" json:"totalEarnings"`
	CompletedBookings int           `bson:"completedBookings" json:"completedBookings"`
	ReviewCount       int           `bson:"reviewCount" json:"reviewCount,omitempty"`
	CreatedAt         time.Time     `bson:"createdAt" json:"createdAt,omitzero"`
	UpdatedAt         time.Time     `bson:"updatedAt" json:"updatedAt,omitzero"`
}

// Review is a customer's post-completion feedback on a booking.
type Review struct {
	BookingID string    `bson:"bookingId" json:"bookingId"`
	Rating    float64   `bson:"rating" json:"rating"` // 1..5
	Comment   string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
