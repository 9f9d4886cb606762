package repository

import (
	"cinebook/internal/database"
)

type Repositories struct {
	Shows     *ShowRepository
	Inventory *InventoryRepository
	Holds     *HoldRepository
	Bookings  *BookingRepository
	Promos    *PromoRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Shows:     NewShowRepository(db),
		Inventory: NewInventoryRepository(db),
		Holds:     NewHoldRepository(db),
		Bookings:  NewBookingRepository(db),
		Promos:    NewPromoRepository(db),
	}
}
