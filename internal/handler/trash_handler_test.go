package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-drive-api/internal/middleware"
	"github.com/noah-isme/campus-drive-api/internal/models"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
)

type trashServiceMock struct {
	trashed  []string
	restored []string
	purged   []string
	items    []models.DriveItem
	err      error
}

func (m *trashServiceMock) Trash(ctx context.Context, actor *models.JWTClaims, token, itemID string) (*models.DriveItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.trashed = append(m.trashed, itemID)
	return &models.DriveItem{ItemID: itemID, IsTrashed: true}, nil
}

func (m *trashServiceMock) List(ctx context.Context, actor *models.JWTClaims) ([]models.DriveItem, error) {
	return m.items, m.err
}

func (m *trashServiceMock) Restore(ctx context.Context, actor *models.JWTClaims, itemID string) (*models.DriveItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.restored = append(m.restored, itemID)
	return &models.DriveItem{ItemID: itemID}, nil
}

func (m *trashServiceMock) Purge(ctx context.Context, actor *models.JWTClaims, itemID string) error {
	if m.err != nil {
		return m.err
	}
	m.purged = append(m.purged, itemID)
	return nil
}

func (m *trashServiceMock) EmptyTrash(ctx context.Context, actor *models.JWTClaims) (int, error) {
	return len(m.items), m.err
}

func trashTestContext(t *testing.T, method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, path, nil)
	require.NoError(t, err)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 1, Role: models.RoleStudent})
	c.Set(middleware.ContextTokenKey, "tok")
	return c, w
}

func TestTrashHandlerTrash(t *testing.T) {
	mock := &trashServiceMock{}
	handler := NewTrashHandler(mock)

	c, w := trashTestContext(t, http.MethodPost, "/drive/items/abc/trash")
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	handler.Trash(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"abc"}, mock.trashed)

	var envelope struct {
		Data models.DriveItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Data.IsTrashed)
}

func TestTrashHandlerRequiresClaims(t *testing.T) {
	handler := NewTrashHandler(&trashServiceMock{})
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, "/drive/trash", nil)
	require.NoError(t, err)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTrashHandlerPurgeErrorsPassThrough(t *testing.T) {
	mock := &trashServiceMock{err: appErrors.ErrNotTrashed}
	handler := NewTrashHandler(mock)

	c, w := trashTestContext(t, http.MethodDelete, "/drive/trash/abc")
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	handler.Purge(c)

	require.Equal(t, appErrors.ErrNotTrashed.Status, w.Code)
}

func TestTrashHandlerEmpty(t *testing.T) {
	mock := &trashServiceMock{items: []models.DriveItem{{ItemID: "a"}, {ItemID: "b"}}}
	handler := NewTrashHandler(mock)

	c, w := trashTestContext(t, http.MethodDelete, "/drive/trash")
	handler.Empty(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 2, envelope.Data["purged_subtrees"])
}
