package repositories

import (
	"context"
	"testing"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceRepository_Add(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPostgresDeviceRepository(mock)

	mock.ExpectExec("INSERT INTO sensors_data").
		WithArgs("dev1", "a@b.com").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Add(context.Background(), &models.Device{DeviceID: "dev1", UserEmail: "a@b.com"})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_Remove(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPostgresDeviceRepository(mock)

	mock.ExpectExec("DELETE FROM sensors_data").
		WithArgs("dev1", "a@b.com").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	err := repo.Remove(context.Background(), &models.Device{DeviceID: "dev1", UserEmail: "a@b.com"})

	require.NoError(t, err)
}

func TestDeviceRepository_Remove_NotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPostgresDeviceRepository(mock)

	mock.ExpectExec("DELETE FROM sensors_data").
		WithArgs("ghost", "a@b.com").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Remove(context.Background(), &models.Device{DeviceID: "ghost", UserEmail: "a@b.com"})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeviceRepository_ListByUser(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPostgresDeviceRepository(mock)

	mock.ExpectQuery("SELECT DISTINCT device_id").
		WithArgs("a@b.com").
		WillReturnRows(pgxmock.NewRows([]string{"device_id"}).AddRow("dev1").AddRow("dev2"))

	devices, err := repo.ListByUser(context.Background(), "a@b.com")

	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "dev1", devices[0].DeviceID)
	assert.Equal(t, "a@b.com", devices[1].UserEmail)
}
