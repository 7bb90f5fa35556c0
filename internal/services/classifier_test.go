package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/mocks"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestClassify_Boundaries(t *testing.T) {
	cases := []struct {
		elapsed time.Duration
		want    models.ConnectionStatus
	}{
		{0, models.StatusOnline},
		{2*time.Minute + 59*time.Second, models.StatusOnline},
		{3 * time.Minute, models.StatusWarning},
		{4*time.Minute + 59*time.Second, models.StatusWarning},
		{5 * time.Minute, models.StatusOffline},
		{2 * time.Hour, models.StatusOffline},
		{-30 * time.Second, models.StatusOnline},
	}

	for _, tc := range cases {
		got := Classify(fixedNow, fixedNow.Add(-tc.elapsed))
		assert.Equal(t, tc.want, got, "elapsed %s", tc.elapsed)
	}
}

func TestClassify_MonotonicInElapsedTime(t *testing.T) {
	rank := map[models.ConnectionStatus]int{
		models.StatusOnline:  0,
		models.StatusWarning: 1,
		models.StatusOffline: 2,
	}

	previous := models.StatusOnline
	for s := 0; s <= 600; s += 10 {
		current := Classify(fixedNow, fixedNow.Add(-time.Duration(s)*time.Second))
		assert.GreaterOrEqual(t, rank[current], rank[previous])
		previous = current
	}
}

func TestNewPresence(t *testing.T) {
	hb := &models.Heartbeat{DeviceID: "dev1", UserEmail: "a@x.com", LastActivity: fixedNow.Add(-4*time.Minute - 30*time.Second)}

	presence, err := NewPresence(fixedNow, hb)

	require.NoError(t, err)
	assert.Equal(t, models.StatusWarning, presence.Status)
	assert.Equal(t, 4, presence.MinutesSinceLastSeen)
	assert.Equal(t, "dev1", presence.DeviceID)
	assert.Equal(t, "a@x.com", presence.UserEmail)
}

func TestNewPresence_FutureHeartbeat(t *testing.T) {
	hb := &models.Heartbeat{DeviceID: "dev1", LastActivity: fixedNow.Add(2 * time.Minute)}

	presence, err := NewPresence(fixedNow, hb)

	require.NoError(t, err)
	assert.Equal(t, models.StatusOnline, presence.Status)
	assert.Equal(t, 0, presence.MinutesSinceLastSeen)
}

func TestNewPresence_MissingTimestamp(t *testing.T) {
	_, err := NewPresence(fixedNow, &models.Heartbeat{DeviceID: "dev1"})
	assert.ErrorIs(t, err, ErrMissingHeartbeatTime)
}

func newTestClassifier(repo *mocks.MockHeartbeatRepository) *Classifier {
	c := NewClassifier(repo, zerolog.Nop())
	c.now = func() time.Time { return fixedNow }
	return c
}

func TestClassifier_Snapshot(t *testing.T) {
	// ARRANGE
	repo := new(mocks.MockHeartbeatRepository)
	repo.On("LatestPerDevice", mock.Anything).Return([]*models.Heartbeat{
		{ID: 1, DeviceID: "dev1", UserEmail: "a@x.com", LastActivity: fixedNow.Add(-time.Minute)},
		{ID: 2, DeviceID: "dev2", UserEmail: "a@x.com"},
		{ID: 3, DeviceID: "dev3", UserEmail: "b@x.com", LastActivity: fixedNow.Add(-10 * time.Minute)},
	}, nil)

	// ACT
	snapshot, err := newTestClassifier(repo).Snapshot(context.Background())

	// ASSERT
	require.NoError(t, err)
	require.Len(t, snapshot, 2)
	assert.Equal(t, "dev1", snapshot[0].DeviceID)
	assert.Equal(t, models.StatusOnline, snapshot[0].Status)
	assert.Equal(t, "dev3", snapshot[1].DeviceID)
	assert.Equal(t, models.StatusOffline, snapshot[1].Status)
	assert.Equal(t, 10, snapshot[1].MinutesSinceLastSeen)
}

func TestClassifier_SnapshotIsIdempotent(t *testing.T) {
	repo := new(mocks.MockHeartbeatRepository)
	repo.On("LatestPerDevice", mock.Anything).Return([]*models.Heartbeat{
		{ID: 7, DeviceID: "dev1", UserEmail: "a@x.com", LastActivity: fixedNow.Add(-4 * time.Minute)},
	}, nil)
	classifier := newTestClassifier(repo)

	first, err := classifier.Snapshot(context.Background())
	require.NoError(t, err)
	second, err := classifier.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestClassifier_SnapshotQueryFailure(t *testing.T) {
	repo := new(mocks.MockHeartbeatRepository)
	repo.On("LatestPerDevice", mock.Anything).Return(nil, errors.New("connection refused"))

	snapshot, err := newTestClassifier(repo).Snapshot(context.Background())

	assert.Error(t, err)
	assert.Nil(t, snapshot)
}
