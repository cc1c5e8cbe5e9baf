package postgres

import (
	"database/sql"

	"amicale-intake-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.MembershipRequestRepository
	repository.NotificationJobRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                          db,
		MembershipRequestRepository: NewMembershipRequestRepository(db),
		NotificationJobRepository:   NewNotificationJobRepository(db),
	}
}

// DB returns the underlying connection pool
func (s *Store) DB() *sql.DB {
	return s.db
}
