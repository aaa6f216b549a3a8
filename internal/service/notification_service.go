package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-drive-api/internal/integration"
	"github.com/noah-isme/campus-drive-api/pkg/config"
	"github.com/noah-isme/campus-drive-api/pkg/jobs"
)

type notifierClient interface {
	GetClassStudents(ctx context.Context, token string, classID int64) ([]integration.Student, error)
	SendNotification(ctx context.Context, token string, n integration.Notification) error
	SendNotificationBulk(ctx context.Context, token string, notifications []integration.Notification) error
}

const (
	jobNotifyUser  = "notify_user"
	jobNotifyClass = "notify_class"
)

type notifyUserPayload struct {
	Token        string
	Notification integration.Notification
}

type notifyClassPayload struct {
	Token    string
	ClassID  int64
	Title    string
	Message  string
	Type     string
	Priority string
	Metadata map[string]interface{}
}

// NotificationService delivers notifications through the system management
// service asynchronously. Delivery is best effort: enqueue failures and
// exhausted retries are logged, never surfaced to the triggering request.
type NotificationService struct {
	client notifierClient
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService constructs the dispatcher and its worker queue.
func NewNotificationService(client notifierClient, cfg config.NotificationsConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{client: client, logger: logger}
	s.queue = jobs.NewQueue("notifications", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// NotifyUser queues a single-user notification.
func (s *NotificationService) NotifyUser(token string, n integration.Notification) {
	s.enqueue(jobNotifyUser, notifyUserPayload{Token: token, Notification: n})
}

// NotifyClass queues a fan-out notification to every student of a class.
func (s *NotificationService) NotifyClass(token string, classID int64, title, message, notifType string, metadata map[string]interface{}) {
	s.enqueue(jobNotifyClass, notifyClassPayload{
		Token:    token,
		ClassID:  classID,
		Title:    title,
		Message:  message,
		Type:     notifType,
		Priority: integration.NotifyPriorityNormal,
		Metadata: metadata,
	})
}

func (s *NotificationService) enqueue(jobType string, payload interface{}) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobType,
		Payload: payload,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue notification", zap.String("type", jobType), zap.Error(err))
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobNotifyUser:
		payload, ok := job.Payload.(notifyUserPayload)
		if !ok {
			return fmt.Errorf("unexpected payload for %s", job.Type)
		}
		return s.client.SendNotification(ctx, payload.Token, payload.Notification)

	case jobNotifyClass:
		payload, ok := job.Payload.(notifyClassPayload)
		if !ok {
			return fmt.Errorf("unexpected payload for %s", job.Type)
		}
		students, err := s.client.GetClassStudents(ctx, payload.Token, payload.ClassID)
		if err != nil {
			return fmt.Errorf("fetch class %d roster: %w", payload.ClassID, err)
		}
		if len(students) == 0 {
			s.logger.Warn("no students found for class notification", zap.Int64("class_id", payload.ClassID))
			return nil
		}
		notifications := make([]integration.Notification, 0, len(students))
		for _, student := range students {
			notifications = append(notifications, integration.Notification{
				UserID:   student.ID,
				Title:    payload.Title,
				Message:  payload.Message,
				Type:     payload.Type,
				Priority: payload.Priority,
				Metadata: payload.Metadata,
			})
		}
		return s.client.SendNotificationBulk(ctx, payload.Token, notifications)
	}
	return fmt.Errorf("unknown notification job type %s", job.Type)
}
