//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomly-backend/internal/config"
	"roomly-backend/internal/models"
	"roomly-backend/internal/server"
)

// setupTestServerFast creates a test server with SQLite in-memory and a
// miniredis-backed document store (no Docker needed, no container startup
// time). It uses the actual server.Initialize() method to avoid code
// duplication.
func setupTestServerFast(t *testing.T) (*server.Server, func()) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.Port = "8080"
	cfg.Server.Host = "localhost"
	cfg.Server.Debug = false
	cfg.Database.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	cfg.Database.RedisURI = "redis://" + mr.Addr()
	cfg.Auth.SessionSecret = "test-secret-key-for-testing-only"

	srv := server.New(cfg)
	srv.Echo.Logger.SetLevel(log.ERROR)

	err = srv.Initialize()
	require.NoError(t, err)

	cleanup := func() {
		if srv.DB != nil {
			sqlDB, _ := srv.DB.DB()
			if sqlDB != nil {
				sqlDB.Close()
			}
		}
		if srv.Redis != nil {
			srv.Redis.Close()
		}
		mr.Close()
	}

	return srv, cleanup
}

func doJSON(t *testing.T, srv *server.Server, method, target, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)
	return rec
}

// signUp registers an account and returns its bearer token
func signUp(t *testing.T, srv *server.Server, email string) string {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/sign-up", "", map[string]interface{}{
		"first_name": "Test",
		"last_name":  "User",
		"email":      email,
		"password":   "securepassword123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "sign-up response: %s", rec.Body.String())

	var response map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.NotEmpty(t, response["token"])
	return response["token"]
}

func TestSignUpAndSignIn(t *testing.T) {
	srv, cleanup := setupTestServerFast(t)
	defer cleanup()

	signUp(t, srv, "john.doe@gmail.com")

	// Duplicate email is rejected
	rec := doJSON(t, srv, http.MethodPost, "/api/sign-up", "", map[string]interface{}{
		"first_name": "John",
		"last_name":  "Doe",
		"email":      "john.doe@gmail.com",
		"password":   "securepassword123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/sign-in", "", map[string]interface{}{
		"email":    "john.doe@gmail.com",
		"password": "securepassword123",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.NotEmpty(t, response["token"])

	rec = doJSON(t, srv, http.MethodPost, "/api/sign-in", "", map[string]interface{}{
		"email":    "john.doe@gmail.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestMeetingRoomLifecycle runs the full ownership scenario: user one
// creates a room, user two cannot delete it, user one can, and the room is
// gone afterwards.
func TestMeetingRoomLifecycle(t *testing.T) {
	srv, cleanup := setupTestServerFast(t)
	defer cleanup()

	tokenU1 := signUp(t, srv, "u1@gmail.com")
	tokenU2 := signUp(t, srv, "u2@gmail.com")

	// List starts empty
	rec := doJSON(t, srv, http.MethodGet, "/meetingroom", tokenU1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rooms []models.MeetingRoom
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rooms))
	assert.Empty(t, rooms)

	// Create as U1
	rec = doJSON(t, srv, http.MethodPost, "/meetingroom", tokenU1, map[string]interface{}{
		"title":        "Room A",
		"description":  "d",
		"location":     "HQ",
		"capacity":     4,
		"priceOnHours": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "create response: %s", rec.Body.String())

	var room models.MeetingRoom
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &room))
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, 0, room.ClickCount)
	assert.True(t, room.IsAvailable)

	// The owner is U1, not U2
	userRec := doJSON(t, srv, http.MethodGet, "/api/auth/user", tokenU1, nil)
	require.Equal(t, http.StatusOK, userRec.Code)
	var u1 models.User
	require.NoError(t, json.Unmarshal(userRec.Body.Bytes(), &u1))
	assert.Equal(t, u1.ID, room.OwnerID)

	// Delete as U2 is forbidden
	rec = doJSON(t, srv, http.MethodDelete, "/meetingroom/"+room.ID, tokenU2, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Patch keeps untouched fields
	rec = doJSON(t, srv, http.MethodPatch, "/meetingroom/"+room.ID, tokenU1, map[string]interface{}{
		"capacity": 9,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/meetingroom/"+room.ID, tokenU1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var patched models.MeetingRoom
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patched))
	assert.Equal(t, "Room A", patched.Title)
	assert.Equal(t, 9, patched.Capacity)

	// Delete as U1 succeeds
	rec = doJSON(t, srv, http.MethodDelete, "/meetingroom/"+room.ID, tokenU1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "Meeting room deleted", response["message"])

	// And the room is gone
	rec = doJSON(t, srv, http.MethodGet, "/meetingroom/"+room.ID, tokenU1, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMeetingRoomRoutesRejectAnonymousCallers(t *testing.T) {
	srv, cleanup := setupTestServerFast(t)
	defer cleanup()

	rec := doJSON(t, srv, http.MethodGet, "/meetingroom", "not-a-real-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
