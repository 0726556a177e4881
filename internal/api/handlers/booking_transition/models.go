package booking_transition

// CompleteBookingRequest HTTP request model
type CompleteBookingRequest struct {
	Override bool `json:"override,omitempty"`
}
