package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// MeetingRoomsCollection is the document store collection holding one
// document per room, keyed by the room id.
const MeetingRoomsCollection = "meetingRooms"

type MeetingRoom struct {
	ID           string  `json:"id"`
	OwnerID      string  `json:"owner_id"`
	Title        string  `json:"title" validate:"required"`
	Description  string  `json:"description" validate:"required"`
	Location     string  `json:"location" validate:"required"`
	Capacity     int     `json:"capacity" validate:"required"`
	PriceOnHours float64 `json:"priceOnHours" validate:"required"`
	ClickCount   int     `json:"click_count"`
	IsAvailable  bool    `json:"is_available"`
}

// MeetingRoomDraft is the unidentified input shape for creation and patches.
type MeetingRoomDraft struct {
	Title        string  `json:"title" validate:"required"`
	Description  string  `json:"description" validate:"required"`
	Location     string  `json:"location" validate:"required"`
	Capacity     int     `json:"capacity" validate:"required"`
	PriceOnHours float64 `json:"priceOnHours" validate:"required"`
	ClickCount   int     `json:"click_count"`
	IsAvailable  bool    `json:"is_available"`
}

// NewMeetingRoom builds the record persisted at creation: a fresh random
// id, owner stamped from the caller, click count zeroed and the room
// available regardless of what the draft carried.
func NewMeetingRoom(draft MeetingRoomDraft, ownerID string) MeetingRoom {
	return MeetingRoom{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Title:        draft.Title,
		Description:  draft.Description,
		Location:     draft.Location,
		Capacity:     draft.Capacity,
		PriceOnHours: draft.PriceOnHours,
		ClickCount:   0,
		IsAvailable:  true,
	}
}

// patchableFields are the draft fields a PATCH may set. id and owner_id
// are deliberately absent: neither is ever client-writable.
var patchableFields = []string{
	"title",
	"description",
	"location",
	"capacity",
	"priceOnHours",
	"click_count",
	"is_available",
}

// ParseRoomPatch reduces a raw PATCH body to the set of known fields the
// caller explicitly supplied, so an omitted field and a zero value stay
// distinguishable. Unknown keys are dropped.
func ParseRoomPatch(body []byte) (map[string]interface{}, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON payload")
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("patch payload must be a JSON object")
	}

	patch := map[string]interface{}{}
	for _, field := range patchableFields {
		if value := parsed.Get(field); value.Exists() {
			patch[field] = value.Value()
		}
	}
	return patch, nil
}
