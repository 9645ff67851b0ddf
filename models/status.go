package models

// BookingStatus is the booking lifecycle state.
type BookingStatus string

const (
	BookingPending    BookingStatus = "Pending"
	BookingConfirmed  BookingStatus = "Confirmed"
	BookingInProgress BookingStatus = "InProgress"
	BookingCompleted  BookingStatus = "Completed"
	BookingCancelled  BookingStatus = "Cancelled"
	BookingExpired    BookingStatus = "Expired"
)

// PaymentStatus tracks the money side of a booking independently of its
// lifecycle state.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "Unpaid"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentRefunded PaymentStatus = "Refunded"
)

// transitions is the single source of truth for legal status moves. Expired
// is reachable only from the daily sweep, never from a caller-driven action.
// Cancel stays legal for an InProgress booking so support can resolve a job
// that was started but never finished.
var transitions = map[BookingStatus][]BookingStatus{
	BookingPending:    {BookingConfirmed, BookingCancelled, BookingExpired},
	BookingConfirmed:  {BookingInProgress, BookingCancelled, BookingExpired},
	BookingInProgress: {BookingCompleted, BookingCancelled},
	BookingCompleted:  {},
	BookingCancelled:  {},
	BookingExpired:    {},
}

// CanTransitionTo reports whether moving from s to next is a legal step.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s BookingStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// BlockingStatuses are the states in which a booking still occupies its
// interval on the provider's schedule.
func BlockingStatuses() []BookingStatus {
	return []BookingStatus{BookingPending, BookingConfirmed, BookingInProgress}
}
