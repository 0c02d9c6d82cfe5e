package model

import "time"

// TurfUser is a tenant customer: an account that exists only within a
// single facility.  Email uniqueness is scoped per facility, so the
// same address may register at two different turfs independently.
//
// Fields:
//  ID            – primary key identifier.
//  TurfProfileID – facility this customer belongs to.
//  Email         – email address, unique within the facility.
//  PasswordHash  – bcrypt hashed password.
//  Name          – display name, snapshotted onto payments.
//  Phone         – optional contact number.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type TurfUser struct {
	ID            uint64    // turf_users.id
	TurfProfileID uint64    // turf_users.turf_profile_id
	Email         string    // turf_users.email
	PasswordHash  string    // turf_users.password_hash
	Name          string    // turf_users.name
	Phone         string    // turf_users.phone
	CreatedAt     time.Time // turf_users.created_at
	UpdatedAt     time.Time // turf_users.updated_at
}
