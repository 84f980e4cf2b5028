package domain

type DashboardStats struct {
	ParkingLots   int64 `json:"parking_lots"`
	Bookings      int64 `json:"bookings"`
	Users         int64 `json:"users"`
	VehiclesIn    int64 `json:"vehicles_in"`
	Revenue       int64 `json:"revenue"`
	PaidBookings  int64 `json:"paid_bookings"`
}

type LotOccupancy struct {
	ParkingLotID int64  `json:"parking_lot_id"`
	Location     string `json:"location"`
	TotalSlot    int    `json:"total_slot"`
	BookedSlot   int    `json:"booked_slot"`
	Available    int    `json:"available"`
}
