package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"amicale-intake-backend/internal/domain"
	"amicale-intake-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var requestColumns = []string{
	"id", "nom", "prenom", "adresse", "telephone", "email", "region_universitaire",
	"certificat_inscription", "certificat_residence", "demande_manuscrite", "carte_membre_reed", "copie_cni",
	"status", "date_submitted", "date_processed", "admin_notes",
}

func fullDocuments(id string) domain.Documents {
	return domain.Documents{
		domain.SlotEnrollmentCertificate: id + "_certificat_inscription.pdf",
		domain.SlotResidenceCertificate:  id + "_certificat_residence.pdf",
		domain.SlotHandwrittenRequest:    id + "_demande_manuscrite.pdf",
		domain.SlotMemberCard:            id + "_carte_membre_reed.pdf",
		domain.SlotIDCardCopy:            id + "_copie_cni.pdf",
	}
}

func newRequest() *domain.MembershipRequest {
	return &domain.MembershipRequest{
		LastName:    "Diop",
		FirstName:   "Awa",
		Address:     "Cité Mixte, Dakar",
		Phone:       "+221 77 123 45 67",
		Email:       "student@example.com",
		Region:      "Dakar",
		Status:      domain.RequestStatusPending,
		SubmittedAt: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestMembershipRequestRepository_Reserve(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewMembershipRequestRepository(db)
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		req := newRequest()
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO student_request").
			WithArgs(req.LastName, req.FirstName, req.Address, req.Phone, req.Email, req.Region, req.Status, req.SubmittedAt).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		mock.ExpectExec("UPDATE student_request SET certificat_inscription").
			WithArgs("7_certificat_inscription.pdf", "7_certificat_residence.pdf", "7_demande_manuscrite.pdf",
				"7_carte_membre_reed.pdf", "7_copie_cni.pdf", int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		res, err := repo.Reserve(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, int64(7), res.ID())
		assert.Equal(t, int64(7), req.ID)

		require.NoError(t, res.Commit(ctx, fullDocuments("7")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rollback", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO student_request").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
		mock.ExpectRollback()

		res, err := repo.Reserve(ctx, newRequest())
		require.NoError(t, err)
		assert.NoError(t, res.Rollback())
		// A second rollback on a finished transaction is not an error
		assert.NoError(t, res.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("IncompleteDocumentsRollsBack", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO student_request").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
		mock.ExpectRollback()

		res, err := repo.Reserve(ctx, newRequest())
		require.NoError(t, err)

		docs := fullDocuments("9")
		delete(docs, domain.SlotIDCardCopy)
		assert.Error(t, res.Commit(ctx, docs))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsertFails", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO student_request").WillReturnError(assert.AnError)
		mock.ExpectRollback()

		res, err := repo.Reserve(ctx, newRequest())
		assert.Error(t, err)
		assert.Nil(t, res)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMembershipRequestRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewMembershipRequestRepository(db)
	ctx := context.Background()
	submitted := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(requestColumns).
			AddRow(7, "Diop", "Awa", "Dakar", "+221 77 123 45 67", "student@example.com", "Dakar",
				"7_certificat_inscription.pdf", "7_certificat_residence.pdf", "7_demande_manuscrite.pdf",
				"7_carte_membre_reed.pdf", "7_copie_cni.pdf",
				"pending", submitted, nil, nil)
		mock.ExpectQuery("SELECT (.+) FROM student_request WHERE id = \\$1").
			WithArgs(int64(7)).
			WillReturnRows(rows)

		req, err := repo.GetByID(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(7), req.ID)
		assert.Equal(t, domain.RequestStatusPending, req.Status)
		assert.True(t, req.Documents.Complete())
		assert.Nil(t, req.ProcessedAt)
		assert.Empty(t, req.AdminNotes)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM student_request WHERE id = \\$1").
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)

		req, err := repo.GetByID(ctx, 99)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, req)
	})
}

func TestMembershipRequestRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewMembershipRequestRepository(db)
	ctx := context.Background()
	processed := time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC)

	req := newRequest()
	req.ID = 7
	req.Status = domain.RequestStatusRejected
	req.AdminNotes = "incomplete file"
	req.ProcessedAt = &processed

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE student_request SET status").
			WithArgs(domain.RequestStatusRejected, "incomplete file", &processed, int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateStatus(ctx, req))
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectExec("UPDATE student_request SET status").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateStatus(ctx, req), domain.ErrNotFound)
	})
}

func TestMembershipRequestRepository_Lists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewMembershipRequestRepository(db)
	ctx := context.Background()
	submitted := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	t.Run("ListByStatus", func(t *testing.T) {
		rows := sqlmock.NewRows(requestColumns).
			AddRow(3, "Ba", "Moussa", "Thiès", "771234567", "moussa@example.com", "Thiès",
				"a", "b", "c", "d", "e", "approved", submitted, submitted, "ok")
		mock.ExpectQuery("SELECT (.+) FROM student_request WHERE status = \\$1 ORDER BY date_submitted DESC").
			WithArgs(domain.RequestStatusApproved).
			WillReturnRows(rows)

		reqs, err := repo.ListByStatus(ctx, domain.RequestStatusApproved)
		require.NoError(t, err)
		require.Len(t, reqs, 1)
		assert.Equal(t, domain.RequestStatusApproved, reqs[0].Status)
		require.NotNil(t, reqs[0].ProcessedAt)
		assert.Equal(t, "ok", reqs[0].AdminNotes)
	})

	t.Run("ListByIDs", func(t *testing.T) {
		rows := sqlmock.NewRows(requestColumns).
			AddRow(5, "Fall", "Ndeye", "Saint-Louis", "781112233", "ndeye@example.com", "Saint-Louis",
				"a", "b", "c", "d", "e", "pending", submitted, nil, nil)
		mock.ExpectQuery("SELECT (.+) FROM student_request WHERE id = ANY\\(\\$1\\)").
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(rows)

		reqs, err := repo.ListByIDs(ctx, []int64{5, 6})
		require.NoError(t, err)
		require.Len(t, reqs, 1)
		assert.Equal(t, int64(5), reqs[0].ID)
	})

	t.Run("ListByIDsEmpty", func(t *testing.T) {
		reqs, err := repo.ListByIDs(ctx, nil)
		assert.NoError(t, err)
		assert.Empty(t, reqs)
	})

	t.Run("CountByStatus", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 4).
			AddRow("approved", 2)
		mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM student_request GROUP BY status").
			WillReturnRows(rows)

		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, counts[domain.RequestStatusPending])
		assert.Equal(t, 2, counts[domain.RequestStatusApproved])
		assert.Equal(t, 0, counts[domain.RequestStatusRejected])
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
