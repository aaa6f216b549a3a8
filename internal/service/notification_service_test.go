package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-drive-api/internal/integration"
	"github.com/noah-isme/campus-drive-api/pkg/config"
	"github.com/noah-isme/campus-drive-api/pkg/jobs"
)

type notifyClientStub struct {
	students  []integration.Student
	rosterErr error
	singles   []integration.Notification
	bulks     [][]integration.Notification
}

func (c *notifyClientStub) GetClassStudents(ctx context.Context, token string, classID int64) ([]integration.Student, error) {
	if c.rosterErr != nil {
		return nil, c.rosterErr
	}
	return c.students, nil
}

func (c *notifyClientStub) SendNotification(ctx context.Context, token string, n integration.Notification) error {
	c.singles = append(c.singles, n)
	return nil
}

func (c *notifyClientStub) SendNotificationBulk(ctx context.Context, token string, notifications []integration.Notification) error {
	c.bulks = append(c.bulks, notifications)
	return nil
}

func TestNotificationServiceUserDelivery(t *testing.T) {
	client := &notifyClientStub{}
	svc := NewNotificationService(client, config.NotificationsConfig{}, nil)

	err := svc.handle(context.Background(), jobs.Job{
		Type: jobNotifyUser,
		Payload: notifyUserPayload{Token: "tok", Notification: integration.Notification{
			UserID: 7, Title: "hello", Type: integration.NotifyTypeInfo,
		}},
	})
	require.NoError(t, err)
	require.Len(t, client.singles, 1)
	require.Equal(t, int64(7), client.singles[0].UserID)
}

func TestNotificationServiceClassFanOut(t *testing.T) {
	client := &notifyClientStub{students: []integration.Student{{ID: 1}, {ID: 2}, {ID: 3}}}
	svc := NewNotificationService(client, config.NotificationsConfig{}, nil)

	err := svc.handle(context.Background(), jobs.Job{
		Type: jobNotifyClass,
		Payload: notifyClassPayload{
			Token: "tok", ClassID: 5, Title: "New file", Type: integration.NotifyTypeFileUpload,
		},
	})
	require.NoError(t, err)
	require.Len(t, client.bulks, 1)
	require.Len(t, client.bulks[0], 3)
}

func TestNotificationServiceRosterErrorPropagatesForRetry(t *testing.T) {
	client := &notifyClientStub{rosterErr: errors.New("roster down")}
	svc := NewNotificationService(client, config.NotificationsConfig{}, nil)

	err := svc.handle(context.Background(), jobs.Job{
		Type:    jobNotifyClass,
		Payload: notifyClassPayload{Token: "tok", ClassID: 5},
	})
	require.Error(t, err)

	err = svc.handle(context.Background(), jobs.Job{Type: "unknown"})
	require.Error(t, err)
}
