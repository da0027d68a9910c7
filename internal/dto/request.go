package dto

type LocationRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type IndividualBookingRequest struct {
	UserID string `json:"user_id"`
	BusID  string `json:"bus_id"`
	Date   string `json:"date"`
}

type GroupBookingRequest struct {
	GroupID string `json:"group_id"`
	BusID   string `json:"bus_id"`
	Date    string `json:"date"`
}

type UpsertRequestRequest struct {
	Date     string           `json:"date"`
	Location *LocationRequest `json:"location,omitempty"`
}
