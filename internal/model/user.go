package model

import "time"

// User represents a global platform account as stored in the `users`
// table.  Owners and managers of facilities are global users; when a
// user manages a single facility the TurfProfileID column links them
// to it.  Regular users (role USER) may book any facility.
//
// Fields:
//  ID            – primary key identifier of the user.
//  Email         – unique email address.
//  PasswordHash  – bcrypt hashed password.
//  Name          – display name, snapshotted onto payments.
//  Role          – one of USER, OWNER, MANAGER.
//  TurfProfileID – facility a MANAGER belongs to (nil otherwise).
//  IsActive      – whether the account is active.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type User struct {
	ID            uint64    // users.id
	Email         string    // users.email
	PasswordHash  string    // users.password_hash
	Name          string    // users.name
	Role          string    // users.role (USER, OWNER, MANAGER)
	TurfProfileID *uint64   // users.turf_profile_id (nullable)
	IsActive      bool      // users.is_active
	CreatedAt     time.Time // users.created_at
	UpdatedAt     time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  A token
// belongs either to a global user or to a tenant customer; only the
// SHA-256 hash of the raw token value is stored.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – owning global user (nil for tenant customers).
//  TurfUserID – owning tenant customer (nil for global users).
//  TokenHash  – SHA-256 hex digest of the token value.
//  ExpiresAt  – expiration timestamp of the token.
//  RevokedAt  – when the token was revoked (nil if still active).
//  CreatedAt  – timestamp of creation.
type RefreshToken struct {
	ID         uint64     // refresh_tokens.id
	UserID     *uint64    // refresh_tokens.user_id (nullable)
	TurfUserID *uint64    // refresh_tokens.turf_user_id (nullable)
	TokenHash  string     // refresh_tokens.token_hash
	ExpiresAt  time.Time  // refresh_tokens.expires_at
	RevokedAt  *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt  time.Time  // refresh_tokens.created_at
}
