package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"amicale-intake-backend/internal/domain"
	"amicale-intake-backend/internal/logger"
	"amicale-intake-backend/internal/repository"

	"github.com/lib/pq"
)

const requestColumns = `id, nom, prenom, adresse, telephone, email, region_universitaire,
	certificat_inscription, certificat_residence, demande_manuscrite, carte_membre_reed, copie_cni,
	status, date_submitted, date_processed, admin_notes`

type membershipRequestRepository struct {
	db *sql.DB
}

func NewMembershipRequestRepository(db *sql.DB) repository.MembershipRequestRepository {
	return &membershipRequestRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*domain.MembershipRequest, error) {
	var (
		req       domain.MembershipRequest
		docs      [5]sql.NullString
		processed sql.NullTime
		notes     sql.NullString
	)
	err := row.Scan(
		&req.ID, &req.LastName, &req.FirstName, &req.Address, &req.Phone, &req.Email, &req.Region,
		&docs[0], &docs[1], &docs[2], &docs[3], &docs[4],
		&req.Status, &req.SubmittedAt, &processed, &notes,
	)
	if err != nil {
		return nil, err
	}

	req.Documents = domain.Documents{}
	for i, slot := range domain.DocumentSlots {
		if docs[i].Valid && docs[i].String != "" {
			req.Documents[slot] = docs[i].String
		}
	}
	if processed.Valid {
		t := processed.Time
		req.ProcessedAt = &t
	}
	req.AdminNotes = notes.String
	return &req, nil
}

func (r *membershipRequestRepository) Reserve(ctx context.Context, req *domain.MembershipRequest) (repository.Reservation, error) {
	logger.EnterMethod("membershipRequestRepository.Reserve", "email", req.Email)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.ExitMethodWithError("membershipRequestRepository.Reserve", err, "reason", "begin transaction")
		return nil, err
	}

	query := `INSERT INTO student_request (nom, prenom, adresse, telephone, email, region_universitaire, status, date_submitted)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	logger.DatabaseCall("INSERT", "student_request", "email", req.Email)
	err = tx.QueryRowContext(ctx, query,
		req.LastName, req.FirstName, req.Address, req.Phone, req.Email, req.Region, req.Status, req.SubmittedAt,
	).Scan(&req.ID)
	logger.DatabaseResult("INSERT", 1, err, "requestID", req.ID)
	if err != nil {
		_ = tx.Rollback()
		logger.ExitMethodWithError("membershipRequestRepository.Reserve", err)
		return nil, err
	}

	logger.ExitMethod("membershipRequestRepository.Reserve", "requestID", req.ID)
	return &reservation{tx: tx, id: req.ID}, nil
}

type reservation struct {
	tx *sql.Tx
	id int64
}

func (res *reservation) ID() int64 {
	return res.id
}

func (res *reservation) Commit(ctx context.Context, docs domain.Documents) error {
	if !docs.Complete() {
		_ = res.tx.Rollback()
		return fmt.Errorf("request %d: document set is incomplete", res.id)
	}

	query := `UPDATE student_request SET certificat_inscription = $1, certificat_residence = $2,
	          demande_manuscrite = $3, carte_membre_reed = $4, copie_cni = $5 WHERE id = $6`
	logger.DatabaseCall("UPDATE", "student_request", "requestID", res.id)
	_, err := res.tx.ExecContext(ctx, query,
		docs[domain.SlotEnrollmentCertificate],
		docs[domain.SlotResidenceCertificate],
		docs[domain.SlotHandwrittenRequest],
		docs[domain.SlotMemberCard],
		docs[domain.SlotIDCardCopy],
		res.id,
	)
	logger.DatabaseResult("UPDATE", 1, err, "requestID", res.id)
	if err != nil {
		_ = res.tx.Rollback()
		return err
	}
	return res.tx.Commit()
}

func (res *reservation) Rollback() error {
	err := res.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (r *membershipRequestRepository) GetByID(ctx context.Context, id int64) (*domain.MembershipRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM student_request WHERE id = $1`
	req, err := scanRequest(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *membershipRequestRepository) UpdateStatus(ctx context.Context, req *domain.MembershipRequest) error {
	query := `UPDATE student_request SET status = $1, admin_notes = $2, date_processed = $3 WHERE id = $4`
	logger.DatabaseCall("UPDATE", "student_request", "requestID", req.ID, "status", req.Status)
	result, err := r.db.ExecContext(ctx, query, req.Status, req.AdminNotes, req.ProcessedAt, req.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "requestID", req.ID)
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("UPDATE", rows, nil, "requestID", req.ID)
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *membershipRequestRepository) List(ctx context.Context) ([]domain.MembershipRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM student_request ORDER BY date_submitted DESC`
	return r.query(ctx, query)
}

func (r *membershipRequestRepository) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.MembershipRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM student_request WHERE status = $1 ORDER BY date_submitted DESC`
	return r.query(ctx, query, status)
}

func (r *membershipRequestRepository) ListByIDs(ctx context.Context, ids []int64) ([]domain.MembershipRequest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + requestColumns + ` FROM student_request WHERE id = ANY($1) ORDER BY date_submitted DESC`
	return r.query(ctx, query, pq.Array(ids))
}

func (r *membershipRequestRepository) query(ctx context.Context, query string, args ...any) ([]domain.MembershipRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.MembershipRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, *req)
	}
	return reqs, rows.Err()
}

func (r *membershipRequestRepository) CountByStatus(ctx context.Context) (map[domain.RequestStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM student_request GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.RequestStatus]int)
	for rows.Next() {
		var (
			status domain.RequestStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *membershipRequestRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
