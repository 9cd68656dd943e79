package model

import "time"

// RideTemplate is a saved ride a driver can publish again. RideTime is
// the wall clock departure, HH:MM:SS; templates carry no date.
type RideTemplate struct {
	ID             uint64         `json:"template_id"`
	UserID         uint64         `json:"user_id"`
	VehicleID      *uint64        `json:"vehicle_id"`
	Source         string         `json:"source"`
	SourceLat      float64        `json:"source_lat"`
	SourceLng      float64        `json:"source_lng"`
	Destination    string         `json:"destination"`
	DestinationLat float64        `json:"destination_lat"`
	DestinationLng float64        `json:"destination_lng"`
	RideTime       string         `json:"ride_time"`
	TotalSeats     int            `json:"total_seats"`
	BasePriceCents int64          `json:"base_price_cents"`
	BookingType    BookingType    `json:"booking_type"`
	RoutePolyline  *string        `json:"route_polyline"`
	VehicleModel   *string        `json:"vehicle_model,omitempty"`
	VehicleNumber  *string        `json:"vehicle_number,omitempty"`
	Stops          []TemplateStop `json:"stops"`
	CreatedAt      time.Time      `json:"created_at"`
}

// TemplateStop is an intermediate stop saved with a template.
type TemplateStop struct {
	CityName       string  `json:"city_name"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	StopOrder      int     `json:"stop_order"`
	StopPriceCents int64   `json:"stop_price_cents"`
}
