package model

import "time"

// TurfProfile represents a tenant: one sports-venue business with its
// own fields, customers and managers.  The slug is a URL-safe unique
// handle used for tenant-scoped routing, most importantly the
// facility-scoped payment redirect pages.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – user ID of the facility owner.
//  Slug      – unique URL-safe handle of the facility.
//  Name      – display name of the facility.
//  Location  – free-form address or area description.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type TurfProfile struct {
	ID        uint64    `json:"id"`         // turf_profiles.id
	OwnerID   uint64    `json:"owner_id"`   // turf_profiles.owner_id
	Slug      string    `json:"slug"`       // turf_profiles.slug
	Name      string    `json:"name"`       // turf_profiles.name
	Location  string    `json:"location"`   // turf_profiles.location
	CreatedAt time.Time `json:"created_at"` // turf_profiles.created_at
	UpdatedAt time.Time `json:"updated_at"` // turf_profiles.updated_at
}
