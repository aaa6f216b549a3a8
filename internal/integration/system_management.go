package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-drive-api/pkg/config"
)

// SystemManagementClient talks to the system management service that owns
// rosters, course catalogs, departments and notification delivery. Calls
// forward the caller's bearer token; this service holds no credentials of
// its own.
type SystemManagementClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewSystemManagementClient constructs the client.
func NewSystemManagementClient(cfg config.SystemManagementConfig, logger *zap.Logger) *SystemManagementClient {
	return &SystemManagementClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// Course is a catalog entry used when provisioning class folders.
type Course struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Code       string `json:"code"`
	SemesterID int64  `json:"semester_id"`
}

// CourseFilter narrows catalog queries.
type CourseFilter struct {
	SemesterID   *int64
	LecturerID   *int64
	DepartmentID *int64
	Search       string
}

// Department is an organizational unit with its sub-units.
type Department struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Code  string `json:"code"`
	Units []Unit `json:"units"`
}

// Unit is a sub-unit within a department.
type Unit struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ClassSummary identifies a class a lecturer teaches.
type ClassSummary struct {
	ID        int64  `json:"id"`
	ClassName string `json:"class_name"`
	ClassCode string `json:"class_code"`
}

// Student is a class roster entry.
type Student struct {
	ID          int64  `json:"id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	StudentCode string `json:"student_code"`
}

// Notification is one delivery request for the notification API.
type Notification struct {
	UserID   int64                  `json:"user_id"`
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Type     string                 `json:"type"`
	Priority string                 `json:"priority"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Notification types understood by the system management service.
const (
	NotifyTypeInfo            = "INFO"
	NotifyTypeFileUpload      = "FILE_UPLOAD"
	NotifyTypeSigningResolved = "SIGNING_RESOLVED"

	NotifyPriorityNormal = "NORMAL"
	NotifyPriorityHigh   = "HIGH"
)

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// GetCourses fetches the course catalog, optionally filtered.
func (c *SystemManagementClient) GetCourses(ctx context.Context, token string, filter CourseFilter) ([]Course, error) {
	params := url.Values{}
	params.Set("per_page", "100")
	if filter.SemesterID != nil {
		params.Set("semester_id", strconv.FormatInt(*filter.SemesterID, 10))
	}
	if filter.LecturerID != nil {
		params.Set("lecturer_id", strconv.FormatInt(*filter.LecturerID, 10))
	}
	if filter.DepartmentID != nil {
		params.Set("department_id", strconv.FormatInt(*filter.DepartmentID, 10))
	}
	if filter.Search != "" {
		params.Set("search", filter.Search)
	}

	var courses []Course
	if err := c.getJSON(ctx, token, "/api/v1/attendance/courses?"+params.Encode(), &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// GetDepartments fetches every department with its sub-units.
func (c *SystemManagementClient) GetDepartments(ctx context.Context, token string) ([]Department, error) {
	var departments []Department
	if err := c.getJSON(ctx, token, "/api/v1/departments", &departments); err != nil {
		return nil, err
	}
	return departments, nil
}

// GetDepartment fetches a single department by id.
func (c *SystemManagementClient) GetDepartment(ctx context.Context, token string, departmentID int64) (*Department, error) {
	departments, err := c.GetDepartments(ctx, token)
	if err != nil {
		return nil, err
	}
	for i := range departments {
		if departments[i].ID == departmentID {
			return &departments[i], nil
		}
	}
	return nil, fmt.Errorf("department %d not found", departmentID)
}

// GetLecturerClasses fetches the classes a lecturer teaches.
func (c *SystemManagementClient) GetLecturerClasses(ctx context.Context, token string, lecturerID int64) ([]ClassSummary, error) {
	var classes []ClassSummary
	path := fmt.Sprintf("/api/v1/classes/lecturer/%d", lecturerID)
	if err := c.getJSON(ctx, token, path, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

// CheckLecturerTeachesClass answers the roster question behind class
// repository write permission. Errors propagate so the caller can decide
// how to fail.
func (c *SystemManagementClient) CheckLecturerTeachesClass(ctx context.Context, token string, lecturerID, classID int64) (bool, error) {
	classes, err := c.GetLecturerClasses(ctx, token, lecturerID)
	if err != nil {
		return false, err
	}
	for _, class := range classes {
		if class.ID == classID {
			return true, nil
		}
	}
	return false, nil
}

// GetClassStudents fetches the student roster of a class.
func (c *SystemManagementClient) GetClassStudents(ctx context.Context, token string, classID int64) ([]Student, error) {
	var students []Student
	path := fmt.Sprintf("/api/v1/student/class/%d", classID)
	if err := c.getJSON(ctx, token, path, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// SendNotification delivers one notification.
func (c *SystemManagementClient) SendNotification(ctx context.Context, token string, n Notification) error {
	return c.postJSON(ctx, token, "/api/v1/notifications/send", n)
}

// SendNotificationBulk delivers a batch of notifications in one call.
func (c *SystemManagementClient) SendNotificationBulk(ctx context.Context, token string, notifications []Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	payload := map[string]interface{}{"notifications": notifications}
	return c.postJSON(ctx, token, "/api/v1/notifications/send-bulk", payload)
}

func (c *SystemManagementClient) getJSON(ctx context.Context, token, path string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build system management request: %w", err)
	}
	return c.do(req, token, dest)
}

func (c *SystemManagementClient) postJSON(ctx context.Context, token, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal system management payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build system management request: %w", err)
	}
	return c.do(req, token, nil)
}

func (c *SystemManagementClient) do(req *http.Request, token string, dest interface{}) error {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("system management request failed",
			zap.String("url", req.URL.Path), zap.Error(err))
		return fmt.Errorf("system management request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("system management returned error status",
			zap.String("url", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet))
		return fmt.Errorf("system management status %d", resp.StatusCode)
	}

	if dest == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode system management response: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("decode system management data: %w", err)
	}
	return nil
}
