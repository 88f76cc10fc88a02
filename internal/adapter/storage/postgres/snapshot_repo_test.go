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

func TestSnapshotRepo_UpsertZones_OnePerRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSnapshotRepo(mock)
	now := time.Now().UTC().Truncate(time.Microsecond)
	zones := []domain.Zone{
		{ID: uuid.New(), Name: "Marche Central", RatePerMeter: 1200, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), Name: "Souk Nord", RatePerMeter: 900, CreatedAt: now, UpdatedAt: now},
	}

	for i := range zones {
		z := &zones[i]
		mock.ExpectExec("INSERT INTO zones .+ ON CONFLICT").
			WithArgs(z.ID, z.Name, z.RatePerMeter, z.CreatedAt, z.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	err = repo.UpsertZones(context.Background(), zones)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepo_UpsertMerchants_KeepsStoredBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSnapshotRepo(mock)
	m := *newStoredMerchant()

	mock.ExpectExec("INSERT INTO merchants .+ ON CONFLICT").
		WithArgs(m.ID, m.FirstName, m.LastName, m.Phone, m.PhotoURL, m.IDPhotoURL, m.Note,
			m.TotalDebt, m.Balance, m.ReadyForAdmin, m.AdminReceived, m.AdminReceivedAt,
			m.DeliveryCount, m.CreatedAt, m.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.UpsertMerchants(context.Background(), []domain.Merchant{m})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepo_UpsertAbonos_StopsOnFirstError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSnapshotRepo(mock)
	first := *newTestAbono(uuid.New())
	second := *newTestAbono(uuid.New())

	mock.ExpectExec("INSERT INTO abonos .+ ON CONFLICT").
		WithArgs(first.ID, first.MerchantID, first.Amount, first.RecordedBy, first.Archived, first.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO abonos .+ ON CONFLICT").
		WithArgs(second.ID, second.MerchantID, second.Amount, second.RecordedBy, second.Archived, second.CreatedAt).
		WillReturnError(assert.AnError)

	err = repo.UpsertAbonos(context.Background(), []domain.Abono{first, second})
	assert.ErrorContains(t, err, "upsert abono")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepo_DumpZones(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSnapshotRepo(mock)
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM zones").
		WillReturnRows(pgxmock.NewRows(zoneCols()).
			AddRow(id, "Marche Central", int64(1200), now, now))

	zones, err := repo.DumpZones(context.Background())
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, id, zones[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepo_DumpAbonos(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSnapshotRepo(mock)
	a := newTestAbono(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM abonos").
		WillReturnRows(abonoRow(a))

	abonos, err := repo.DumpAbonos(context.Background())
	require.NoError(t, err)
	require.Len(t, abonos, 1)
	assert.Equal(t, a.Amount, abonos[0].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
