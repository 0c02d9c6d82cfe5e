package model

import "errors"

// Roles carried in the JWT "role" claim.  OWNER and MANAGER act on
// behalf of a facility; TURF_USER is a tenant customer of exactly one
// facility; USER is a global account with no facility attachment.
const (
	RoleUser     = "USER"
	RoleOwner    = "OWNER"
	RoleManager  = "MANAGER"
	RoleTurfUser = "TURF_USER"
)

// PayerKind tags which table a payer reference points into.
type PayerKind uint8

// Payer variants.  PayerGlobalUser references users.id and is used
// when an owner or manager records an internal walk-in booking.
// PayerTenantCustomer references turf_users.id.
const (
	PayerGlobalUser PayerKind = iota + 1
	PayerTenantCustomer
)

// PayerRef is a tagged payer reference.  The bookings table keeps two
// nullable foreign keys (user_id, turf_user_id); modelling the pair as
// a single tagged value makes "exactly one is set" structurally true
// everywhere above the repository layer.
type PayerRef struct {
	Kind PayerKind `json:"kind"`
	ID   uint64    `json:"id"`
}

// Valid reports whether the reference carries a known kind and a
// non-zero ID.
func (p PayerRef) Valid() bool {
	return (p.Kind == PayerGlobalUser || p.Kind == PayerTenantCustomer) && p.ID != 0
}

// ErrNoPayer is returned when an identity cannot be resolved into a
// payer reference, e.g. a token with an unknown role or missing IDs.
var ErrNoPayer = errors.New("identity carries no resolvable payer")

// Identity is the role-tagged caller identity resolved by the JWT
// middleware.  The reservation path consumes it read-only to attribute
// the payer and snapshot their contact details onto the payment row.
//
// For TURF_USER tokens, TurfUserID and TurfProfileID are set and
// UserID is zero.  For the global roles UserID is set and TurfUserID
// is zero; MANAGER tokens additionally carry their facility in
// TurfProfileID.
type Identity struct {
	Role          string
	UserID        uint64
	TurfUserID    uint64
	TurfProfileID uint64
	Name          string
	Email         string
}

// Payer resolves the identity into its payer variant.  Owners and
// managers book as the facility's internal walk-in attributed to their
// global account; tenant customers book for themselves.  Unknown roles
// or missing IDs yield ErrNoPayer.
func (id Identity) Payer() (PayerRef, error) {
	switch id.Role {
	case RoleOwner, RoleManager, RoleUser:
		if id.UserID == 0 {
			return PayerRef{}, ErrNoPayer
		}
		return PayerRef{Kind: PayerGlobalUser, ID: id.UserID}, nil
	case RoleTurfUser:
		if id.TurfUserID == 0 {
			return PayerRef{}, ErrNoPayer
		}
		return PayerRef{Kind: PayerTenantCustomer, ID: id.TurfUserID}, nil
	}
	return PayerRef{}, ErrNoPayer
}
