package domain

import "time"

// Booking ties a user, a vehicle and a parking lot together for one visit.
// A booking row exists only if the lot had a free slot at creation time;
// creation and the slot increment happen in one transaction.
type Booking struct {
	ID           int64  `json:"id"`
	BookRef      string `json:"book_ref"`
	UserID       int64  `json:"user_id"`
	ParkingLotID int64  `json:"parking_lot_id"`
	VehicleID    int64  `json:"vehicle_id"`
	// Amount is the lot price captured at creation; price edits on the
	// lot never change it.
	Amount    int64     `json:"amount"`
	PaymentID *string   `json:"payment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BookingCreateReq is the validated input for both the admin walk-in flow
// and the post-payment commit.
type BookingCreateReq struct {
	UserID             int64     `json:"user_id" validate:"required,gt=0"`
	ParkingLotID       int64     `json:"parking_lot_id" validate:"required,gt=0"`
	CategoryID         int64     `json:"category_id" validate:"required,gt=0"`
	CompanyName        string    `json:"company_name" validate:"required"`
	RegistrationNumber string    `json:"registration_number" validate:"required,min=4,max=16"`
	InTime             time.Time `json:"in_time" validate:"required"`
	PaymentID          *string   `json:"payment_id,omitempty"`
}

// BookingDetail is the read projection joining booking, vehicle, lot and
// user rows. Phase is derived at query time, never stored.
type BookingDetail struct {
	Booking
	Vehicle  Vehicle    `json:"vehicle"`
	Location string     `json:"location"`
	Price    int64      `json:"price"`
	Phase    Phase      `json:"phase"`
	User     *UserDTO   `json:"user,omitempty"`
	OutTime  *time.Time `json:"out_time,omitempty"`
}

// BookingFilter narrows admin booking listings.
type BookingFilter struct {
	UserID       *int64
	ParkingLotID *int64
	Status       *VehicleStatus
	Limit        int
	Offset       int
}

type CheckoutReq struct {
	ParkingLotID       int64     `json:"parking_lot_id" validate:"required,gt=0"`
	CategoryID         int64     `json:"category_id" validate:"required,gt=0"`
	CompanyName        string    `json:"company_name" validate:"required"`
	RegistrationNumber string    `json:"registration_number" validate:"required,min=4,max=16"`
	InTime             time.Time `json:"in_time" validate:"required"`
}

type SettleReq struct {
	Remark string `json:"remark" validate:"required,max=256"`
}
