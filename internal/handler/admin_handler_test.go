package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-drive-api/internal/models"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
)

type adminStoreMock struct {
	items     []models.DriveItem
	users     []models.User
	purged    []string
	lastOwner int64
	err       error
}

func (m *adminStoreMock) AdminList(ctx context.Context, limit, offset int) ([]models.DriveItem, error) {
	return m.items, m.err
}

func (m *adminStoreMock) ListChildren(ctx context.Context, ownerID int64, parentID *string) ([]models.DriveItem, error) {
	m.lastOwner = ownerID
	return m.items, m.err
}

func (m *adminStoreMock) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	for i := range m.users {
		if m.users[i].UserID == userID {
			return &m.users[i], nil
		}
	}
	return nil, m.err
}

func (m *adminStoreMock) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return m.users, m.err
}

func (m *adminStoreMock) ForcePurge(ctx context.Context, actor *models.JWTClaims, itemID string) error {
	if m.err != nil {
		return m.err
	}
	m.purged = append(m.purged, itemID)
	return nil
}

func TestAdminHandlerListUsers(t *testing.T) {
	mock := &adminStoreMock{users: []models.User{{UserID: 1}, {UserID: 2}}}
	handler := NewAdminHandler(mock, mock, mock, nil)

	c, w := trashTestContext(t, http.MethodGet, "/admin/users")
	handler.ListUsers(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data []models.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
}

func TestAdminHandlerGetUserItems(t *testing.T) {
	mock := &adminStoreMock{items: []models.DriveItem{{ItemID: "a"}}}
	handler := NewAdminHandler(mock, mock, mock, nil)

	c, w := trashTestContext(t, http.MethodGet, "/admin/users/7/items")
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	handler.GetUserItems(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(7), mock.lastOwner)

	c, w = trashTestContext(t, http.MethodGet, "/admin/users/nope/items")
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	handler.GetUserItems(c)
	require.Equal(t, appErrors.ErrValidation.Status, w.Code)
}

func TestAdminHandlerDeleteItem(t *testing.T) {
	mock := &adminStoreMock{}
	handler := NewAdminHandler(mock, mock, mock, nil)

	c, w := trashTestContext(t, http.MethodDelete, "/admin/items/abc")
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	handler.DeleteItem(c)
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, []string{"abc"}, mock.purged)

	mock.err = appErrors.ErrForbidden
	c, w = trashTestContext(t, http.MethodDelete, "/admin/items/abc")
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	handler.DeleteItem(c)
	require.Equal(t, appErrors.ErrForbidden.Status, w.Code)
}
