package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"

	"roomly-backend/internal/models"

	"github.com/labstack/echo/v4"
)

func roomPath(meetingID string) string {
	return models.MeetingRoomsCollection + "/" + meetingID
}

// Get all meeting rooms
func (h *AuthHandler) GetMeetingRooms(c echo.Context) error {
	ident, isAuthenticated := h.callerIdentity(c)
	if !isAuthenticated {
		return c.String(http.StatusUnauthorized, "Unauthorized request")
	}

	docs, err := h.Rooms.GetAll(c.Request().Context(), models.MeetingRoomsCollection, ident.IDToken)
	if err != nil {
		c.Logger().Error("Failed to list meeting rooms:", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list meeting rooms")
	}

	// An absent or empty collection is an empty list, not an error
	rooms := make([]models.MeetingRoom, 0, len(docs))

	keys := make([]string, 0, len(docs))
	for id := range docs {
		keys = append(keys, id)
	}
	sort.Strings(keys)

	for _, id := range keys {
		var room models.MeetingRoom
		if err := json.Unmarshal(docs[id], &room); err != nil {
			c.Logger().Error("Failed to decode meeting room:", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list meeting rooms")
		}
		// The storage key wins over any id embedded in the stored value
		room.ID = id
		rooms = append(rooms, room)
	}

	return c.JSON(http.StatusOK, rooms)
}

func (h *AuthHandler) GetMeetingRoom(c echo.Context) error {
	ident, isAuthenticated := h.callerIdentity(c)
	if !isAuthenticated {
		return c.String(http.StatusUnauthorized, "Unauthorized request")
	}

	meetingID := c.Param("meeting_id")

	doc, err := h.Rooms.Get(c.Request().Context(), roomPath(meetingID), ident.IDToken)
	if err != nil {
		c.Logger().Error("Failed to get meeting room:", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get meeting room")
	}
	if doc == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Meeting room not found")
	}

	var room models.MeetingRoom
	if err := json.Unmarshal(doc, &room); err != nil {
		c.Logger().Error("Failed to decode meeting room:", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get meeting room")
	}
	room.ID = meetingID

	return c.JSON(http.StatusOK, room)
}

// CreateMeetingRoom creates a new meeting room owned by the caller.
func (h *AuthHandler) CreateMeetingRoom(c echo.Context) error {
	ident, isAuthenticated := h.callerIdentity(c)
	if !isAuthenticated {
		return c.String(http.StatusUnauthorized, "Unauthorized request")
	}

	draft := new(models.MeetingRoomDraft)
	if err := c.Bind(draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	room := models.NewMeetingRoom(*draft, ident.UID)

	if err := h.Rooms.Set(c.Request().Context(), roomPath(room.ID), room, ident.IDToken); err != nil {
		c.Logger().Error("Failed to create meeting room:", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create meeting room")
	}

	return c.JSON(http.StatusCreated, room)
}

func (h *AuthHandler) DeleteMeetingRoom(c echo.Context) error {
	ident, isAuthenticated := h.callerIdentity(c)
	if !isAuthenticated {
		return c.String(http.StatusUnauthorized, "Unauthorized request")
	}

	meetingID := c.Param("meeting_id")
	ctx := c.Request().Context()

	// First, check if the room exists. An absent room must report not
	// found, never a permission failure.
	doc, err := h.Rooms.Get(ctx, roomPath(meetingID), ident.IDToken)
	if err != nil {
		c.Logger().Error("Failed to get meeting room:", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete meeting room")
	}
	if doc == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Meeting room not found")
	}

	var room models.MeetingRoom
	if err := json.Unmarshal(doc, &room); err != nil {
		c.Logger().Error("Failed to decode meeting room:", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete meeting room")
	}

	// Check if the caller owns the room
	if room.OwnerID != ident.UID {
		return echo.NewHTTPError(http.StatusForbidden, "Permission denied. You are not the owner of this meeting room")
	}

	if err := h.Rooms.Remove(ctx, roomPath(meetingID)); err != nil {
		c.Logger().Error("Failed to remove meeting room:", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete meeting room")
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Meeting room deleted"})
}

// PatchMeetingRoom applies a sparse patch: only fields present in the
// request body are merged into the stored document, everything else keeps
// its stored value. The response echoes the input draft with id and
// owner_id filled in from the path and the stored record; GET returns the
// authoritative merged state.
func (h *AuthHandler) PatchMeetingRoom(c echo.Context) error {
	ident, isAuthenticated := h.callerIdentity(c)
	if !isAuthenticated {
		return c.String(http.StatusUnauthorized, "Unauthorized request")
	}

	meetingID := c.Param("meeting_id")
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	patch, err := models.ParseRoomPatch(body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	doc, err := h.Rooms.Get(ctx, roomPath(meetingID), ident.IDToken)
	if err != nil {
		c.Logger().Error("Failed to get meeting room:", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update meeting room")
	}
	if doc == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Meeting room not found")
	}

	var stored models.MeetingRoom
	if err := json.Unmarshal(doc, &stored); err != nil {
		c.Logger().Error("Failed to decode meeting room:", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update meeting room")
	}

	if err := h.Rooms.Update(ctx, roomPath(meetingID), patch, ident.IDToken); err != nil {
		c.Logger().Error("Failed to update meeting room:", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update meeting room")
	}

	draft := models.MeetingRoomDraft{}
	if err := json.Unmarshal(body, &draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	room := models.MeetingRoom{
		ID:           meetingID,
		OwnerID:      stored.OwnerID,
		Title:        draft.Title,
		Description:  draft.Description,
		Location:     draft.Location,
		Capacity:     draft.Capacity,
		PriceOnHours: draft.PriceOnHours,
		ClickCount:   draft.ClickCount,
		IsAvailable:  draft.IsAvailable,
	}

	return c.JSON(http.StatusOK, room)
}
