// Package model defines the data structures used throughout the application.
package model

// Hash method tags as stored in the passwords table.
//
// The game server stamps every password row with an integer discriminator
// saying which algorithm produced the digest. Only bcrypt is understood;
// any other value means the credential cannot be verified here and login
// must be refused (fail closed), not guessed at.
const (
	HashMethodBcrypt = 1
)

// Account is a row from the game server's accounts table, restricted to
// the columns this backend consumes. The table is owned and mutated by
// the game server — we only ever read it.
//
// Name is case-sensitive and matched exactly: the game server validates
// names at registration time, so no sanitization or case-folding happens
// on this side.
type Account struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Admin    bool   `json:"admin"`
	Immortal bool   `json:"immortal"`
}

// VerificationHash is the credential material needed to check a password:
// the stored digest, the method tag that says how it was produced, and
// the expiry timestamp (Unix seconds; 0 means the credential never
// expires).
type VerificationHash struct {
	Digest    string
	Method    int
	ExpiresAt int64
}

// UserInfo is the host-facing view of an account: name, mail, and the
// derived group list. It is computed from an Account on every call and
// never persisted.
type UserInfo struct {
	Name   string   `json:"name"`
	Mail   string   `json:"mail"`
	Groups []string `json:"groups"`
}

// DeriveGroups builds the ordered, duplicate-free group list for an
// account: every account is in "user"; "admin" and "immortal" follow
// from the corresponding flags, in that order.
func DeriveGroups(a *Account) []string {
	groups := []string{"user"}
	if a.Admin {
		groups = append(groups, "admin")
	}
	if a.Immortal {
		groups = append(groups, "immortal")
	}
	return groups
}

// NewUserInfo derives the host-facing view from an account row.
func NewUserInfo(a *Account) *UserInfo {
	return &UserInfo{
		Name:   a.Name,
		Mail:   a.Email,
		Groups: DeriveGroups(a),
	}
}

// Capabilities is the static contract advertised to the hosting
// framework. It is declarative metadata, not logic: the backend can list
// and count users and supports logout, but cannot create, delete, or
// modify anything — the account database belongs to the game server.
//
// Exposed as an immutable value queried at startup rather than as
// mutable fields toggled in a constructor.
type Capabilities struct {
	GetUsers     bool `json:"getUsers"`
	GetUserCount bool `json:"getUserCount"`
	Logout       bool `json:"logout"`

	CreateLogin    bool `json:"createLogin"`
	DeleteLogin    bool `json:"deleteLogin"`
	SetPassword    bool `json:"setPassword"`
	SetDisplayName bool `json:"setDisplayName"`
	SetMail        bool `json:"setMail"`
	ManageGroups   bool `json:"manageGroups"`
	ExternalAuth   bool `json:"externalAuth"`
}
