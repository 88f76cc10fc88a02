package postgres

import (
	"context"
	"testing"
	"time"

	"merchant-collections/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAbono(merchantID uuid.UUID) *domain.Abono {
	return &domain.Abono{
		ID:         uuid.New(),
		MerchantID: merchantID,
		Amount:     30000,
		RecordedBy: uuid.New(),
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

func abonoCols() []string {
	return []string{"id", "merchant_id", "amount", "recorded_by", "archived", "created_at"}
}

func abonoRow(a *domain.Abono) *pgxmock.Rows {
	return pgxmock.NewRows(abonoCols()).AddRow(
		a.ID, a.MerchantID, a.Amount, a.RecordedBy, a.Archived, a.CreatedAt,
	)
}

func TestAbonoRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAbonoRepo(mock)
	a := newTestAbono(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO abonos").
		WithArgs(a.ID, a.MerchantID, a.Amount, a.RecordedBy, a.Archived, a.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, a)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbonoRepo_ListByMerchant_ExcludesArchived(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAbonoRepo(mock)
	merchantID := uuid.New()
	a := newTestAbono(merchantID)

	mock.ExpectQuery("SELECT .+ FROM abonos WHERE merchant_id = .+ AND archived = FALSE ORDER BY created_at DESC").
		WithArgs(merchantID).
		WillReturnRows(abonoRow(a))

	abonos, err := repo.ListByMerchant(context.Background(), merchantID, false)
	require.NoError(t, err)
	require.Len(t, abonos, 1)
	assert.Equal(t, a.ID, abonos[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbonoRepo_ListByMerchant_IncludeArchived(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAbonoRepo(mock)
	merchantID := uuid.New()
	live := newTestAbono(merchantID)
	archived := newTestAbono(merchantID)
	archived.Archived = true

	mock.ExpectQuery(`SELECT .+ FROM abonos WHERE merchant_id = \$1 ORDER BY created_at DESC`).
		WithArgs(merchantID).
		WillReturnRows(pgxmock.NewRows(abonoCols()).
			AddRow(live.ID, live.MerchantID, live.Amount, live.RecordedBy, live.Archived, live.CreatedAt).
			AddRow(archived.ID, archived.MerchantID, archived.Amount, archived.RecordedBy, archived.Archived, archived.CreatedAt))

	abonos, err := repo.ListByMerchant(context.Background(), merchantID, true)
	require.NoError(t, err)
	require.Len(t, abonos, 2)
	assert.True(t, abonos[1].Archived)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbonoRepo_ListDetailed_FiltersByCollector(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAbonoRepo(mock)
	collectorID := uuid.New()
	a := newTestAbono(uuid.New())
	a.RecordedBy = collectorID
	from := time.Now().AddDate(0, 0, -30)
	to := time.Now()

	cols := append(abonoCols(), "merchant_name", "collector_name")
	mock.ExpectQuery("SELECT .+ FROM abonos a").
		WithArgs(from, to, collectorID).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(
			a.ID, a.MerchantID, a.Amount, a.RecordedBy, a.Archived, a.CreatedAt,
			"Amina Haddad", "Rachid B.",
		))

	details, err := repo.ListDetailed(context.Background(), from, to, &collectorID)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Amina Haddad", details[0].MerchantName)
	assert.Equal(t, "Rachid B.", details[0].CollectorName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbonoRepo_ArchiveByMerchant(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAbonoRepo(mock)
	merchantID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE abonos SET archived = TRUE").
		WithArgs(merchantID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	archived, err := repo.ArchiveByMerchant(context.Background(), tx, merchantID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), archived)
	assert.NoError(t, mock.ExpectationsWereMet())
}
