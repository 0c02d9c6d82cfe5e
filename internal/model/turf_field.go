package model

import "time"

// DefaultSlotDuration is applied when a field is created without an
// explicit slot duration, in minutes.
const DefaultSlotDuration = 90

// TurfField is a single bookable physical resource within a facility.
// Opening hours are stored as facility-local "HH:MM" strings; the slot
// generator combines them with a calendar date to derive bookable
// windows.  Fields are never deleted, only deactivated, so historical
// bookings keep a valid reference.
//
// Fields:
//  ID            – primary key identifier.
//  TurfProfileID – owning facility.
//  Name          – display name of the field (e.g. "Field A").
//  OpenHour      – opening time of day, "HH:MM".
//  CloseHour     – closing time of day, "HH:MM"; must be after OpenHour.
//  SlotDuration  – bookable window length in minutes; must be positive.
//  PricePerSlot  – price of one slot in minor currency units.
//  IsActive      – soft-disable flag.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type TurfField struct {
	ID            uint64    `json:"id"`              // turf_fields.id
	TurfProfileID uint64    `json:"turf_profile_id"` // turf_fields.turf_profile_id
	Name          string    `json:"name"`            // turf_fields.name
	OpenHour      string    `json:"open_hour"`       // turf_fields.open_hour
	CloseHour     string    `json:"close_hour"`      // turf_fields.close_hour
	SlotDuration  int       `json:"slot_duration"`   // turf_fields.slot_duration (minutes)
	PricePerSlot  int64     `json:"price_per_slot"`  // turf_fields.price_per_slot (minor units)
	IsActive      bool      `json:"is_active"`       // turf_fields.is_active
	CreatedAt     time.Time `json:"created_at"`      // turf_fields.created_at
	UpdatedAt     time.Time `json:"updated_at"`      // turf_fields.updated_at
}
