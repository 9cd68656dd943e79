package model

import "time"

// Rating is one participant's score for another after a completed ride.
type Rating struct {
	ID        uint64    `json:"rating_id"`
	RideID    uint64    `json:"ride_id"`
	RaterID   uint64    `json:"rated_by"`
	RateeID   uint64    `json:"rated_user"`
	Score     int       `json:"rating"` // 1..5
	Review    *string   `json:"review"`
	CreatedAt time.Time `json:"created_at"`
}

// RatingDetail is a rating as shown on a user's profile.
type RatingDetail struct {
	Rating
	ReviewerName string    `json:"reviewer_name"`
	Source       string    `json:"source"`
	Destination  string    `json:"destination"`
	DepartsAt    time.Time `json:"departs_at"`
}

// RatingSummary is the profile view: every rating plus the average.
type RatingSummary struct {
	Ratings       []RatingDetail `json:"ratings"`
	AverageRating float64        `json:"averageRating"`
	TotalRatings  int            `json:"totalRatings"`
}

// RidePassenger is a rider the driver can rate for a ride.
type RidePassenger struct {
	UserID        uint64        `json:"user_id"`
	FullName      string        `json:"full_name"`
	BookingStatus BookingStatus `json:"booking_status"`
	HasRated      bool          `json:"has_rated"`
}
