package models

// Slot is a concrete bookable interval implied by a service duration.
// Start and End are minutes from midnight.
type Slot struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"` // e.g., "9:00 AM - 10:30 AM"
}

// ProviderDaySlots is the slot generator's output for one provider on one date.
type ProviderDaySlots struct {
	ProviderID string  `json:"providerId"`
	Date       string  `json:"date"`
	DistanceKm float64 `json:"distanceKm"`
	Slots      []Slot  `json:"slots"`
}

// SlotQuery is a read-only slot search across a geographic radius and a date
// range (inclusive bounds, "2006-01-02").
type SlotQuery struct {
	ServiceID string  `json:"serviceId" binding:"required"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	RadiusKm  float64 `json:"radiusKm"`
	FromDate  string  `json:"fromDate" binding:"required"`
	ToDate    string  `json:"toDate" binding:"required"`
}
