package domain

import "time"

// ParkingLot is one bookable location. BookedSlot is maintained only by
// the guarded reserve/release statements in the repository; nothing else
// writes it.
type ParkingLot struct {
	ID         int64     `json:"id"`
	Location   string    `json:"location"`
	ImgURL     string    `json:"img_url"`
	Price      int64     `json:"price"`
	TotalSlot  int       `json:"total_slot"`
	BookedSlot int       `json:"booked_slot"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Available is the number of free slots.
func (p *ParkingLot) Available() int {
	return p.TotalSlot - p.BookedSlot
}

// CanBook reports whether the lot has at least one free slot.
func (p *ParkingLot) CanBook() bool {
	return p.Available() > 0
}

type ParkingLotCreateReq struct {
	Location  string `json:"location" validate:"required"`
	ImgURL    string `json:"img_url" validate:"omitempty,url"`
	Price     int64  `json:"price" validate:"gte=0"`
	TotalSlot int    `json:"total_slot" validate:"required,gt=0"`
}

type ParkingLotPatch struct {
	Location  *string `json:"location" validate:"omitempty,min=1"`
	ImgURL    *string `json:"img_url" validate:"omitempty,url"`
	Price     *int64  `json:"price" validate:"omitempty,gte=0"`
	TotalSlot *int    `json:"total_slot" validate:"omitempty,gt=0"`
}

type ParkingLotDTO struct {
	ID        int64  `json:"id"`
	Location  string `json:"location"`
	ImgURL    string `json:"img_url"`
	Price     int64  `json:"price"`
	TotalSlot int    `json:"total_slot"`
	Booked    int    `json:"booked_slot"`
	Available int    `json:"available"`
}

func (p *ParkingLot) DTO() ParkingLotDTO {
	return ParkingLotDTO{
		ID:        p.ID,
		Location:  p.Location,
		ImgURL:    p.ImgURL,
		Price:     p.Price,
		TotalSlot: p.TotalSlot,
		Booked:    p.BookedSlot,
		Available: p.Available(),
	}
}
