package domain

import "time"

type VehicleStatus string

const (
	// VehicleUpcoming means booked but not yet arrived.
	VehicleUpcoming VehicleStatus = "upcoming"
	// VehicleIn means physically parked.
	VehicleIn VehicleStatus = "in"
	// VehicleOut means departed, awaiting settlement.
	VehicleOut VehicleStatus = "out"
	// VehicleSettled means closed out by an administrator with a remark.
	VehicleSettled VehicleStatus = "settled"
)

func ParseVehicleStatus(s string) (VehicleStatus, bool) {
	switch VehicleStatus(s) {
	case VehicleUpcoming, VehicleIn, VehicleOut, VehicleSettled:
		return VehicleStatus(s), true
	default:
		return "", false
	}
}

type VehicleCategory struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type CategoryReq struct {
	Name string `json:"name" validate:"required,min=2,max=64"`
}

type Vehicle struct {
	ID                 int64         `json:"id"`
	RegistrationNumber string        `json:"registration_number"`
	CompanyName        string        `json:"company_name"`
	CategoryID         int64         `json:"category_id"`
	InTime             time.Time     `json:"in_time"`
	OutTime            *time.Time    `json:"out_time,omitempty"`
	Status             VehicleStatus `json:"status"`
	Remark             string        `json:"remark,omitempty"`
	SettledAt          *time.Time    `json:"settled_at,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
}
