package postgres

import (
	"database/sql"

	"careconnect-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.ListingRepository
	repository.BookingRepository
	repository.PaymentRepository
	repository.EscrowRepository
	repository.LedgerRepository
	repository.BidRepository
	repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		UserRepository:         NewUserRepository(db),
		ListingRepository:      NewListingRepository(db),
		BookingRepository:      NewBookingRepository(db),
		PaymentRepository:      NewPaymentRepository(db),
		EscrowRepository:       NewEscrowRepository(db),
		LedgerRepository:       NewLedgerRepository(db),
		BidRepository:          NewBidRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}
