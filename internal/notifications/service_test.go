package notifications

import (
	"context"
	"errors"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viraldeals/viraldeals-backend/pkg/db/models"
	pkgerrors "github.com/viraldeals/viraldeals-backend/pkg/errors"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
)

type memoryNotificationRepo struct {
	rows      []*models.Notification
	createErr error
}

func (r *memoryNotificationRepo) Create(_ context.Context, notification *models.Notification) error {
	if r.createErr != nil {
		return r.createErr
	}
	notification.ID = uuid.New()
	notification.CreatedAt = time.Now()
	r.rows = append(r.rows, notification)
	return nil
}

func (r *memoryNotificationRepo) List(_ context.Context, params listNotificationsParams) ([]models.Notification, error) {
	var out []models.Notification
	for _, row := range r.rows {
		if row.UserID != params.UserID {
			continue
		}
		if params.UnreadOnly && row.ReadAt != nil {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (r *memoryNotificationRepo) MarkRead(_ context.Context, userID, notificationID uuid.UUID, at time.Time) (int64, error) {
	for _, row := range r.rows {
		if row.ID == notificationID && row.UserID == userID && row.ReadAt == nil {
			row.ReadAt = &at
			return 1, nil
		}
	}
	return 0, nil
}

func (r *memoryNotificationRepo) MarkAllRead(_ context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	var affected int64
	for _, row := range r.rows {
		if row.UserID == userID && row.ReadAt == nil {
			row.ReadAt = &at
			affected++
		}
	}
	return affected, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func TestNotifyAndList(t *testing.T) {
	t.Parallel()

	repo := &memoryNotificationRepo{}
	svc, err := NewService(repo, testLogger())
	require.NoError(t, err)

	userID := uuid.New()
	svc.Notify(context.Background(), userID, "cart.item_added", "Speaker added to cart")
	svc.Notify(context.Background(), userID, "order.placed", "Order placed")
	svc.Notify(context.Background(), uuid.New(), "order.placed", "someone else's order")

	result, err := svc.List(context.Background(), ListParams{UserID: userID})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
}

func TestNotifySwallowsRepoErrors(t *testing.T) {
	t.Parallel()

	repo := &memoryNotificationRepo{createErr: errors.New("db down")}
	svc, err := NewService(repo, testLogger())
	require.NoError(t, err)

	// must not panic or surface the failure
	svc.Notify(context.Background(), uuid.New(), "cart.item_added", "msg")
}

func TestMarkRead(t *testing.T) {
	t.Parallel()

	repo := &memoryNotificationRepo{}
	svc, err := NewService(repo, testLogger())
	require.NoError(t, err)

	userID := uuid.New()
	svc.Notify(context.Background(), userID, "order.placed", "Order placed")
	notificationID := repo.rows[0].ID

	require.NoError(t, svc.MarkRead(context.Background(), userID, notificationID))

	// double reads and foreign reads both come back not found
	err = svc.MarkRead(context.Background(), userID, notificationID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	err = svc.MarkRead(context.Background(), uuid.New(), notificationID)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestMarkAllRead(t *testing.T) {
	t.Parallel()

	repo := &memoryNotificationRepo{}
	svc, err := NewService(repo, testLogger())
	require.NoError(t, err)

	userID := uuid.New()
	svc.Notify(context.Background(), userID, "a", "1")
	svc.Notify(context.Background(), userID, "b", "2")

	affected, err := svc.MarkAllRead(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	unread, err := svc.List(context.Background(), ListParams{UserID: userID, UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unread.Items)
}
