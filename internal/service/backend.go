// Package service holds the auth backend adapter: the host-facing
// capability contract, implemented over the read-only account reader.
//
// FAIL-CLOSED POLICY:
// No operation here ever surfaces an error to the host. A store outage,
// a missing account, an unrecognized hash scheme, and a wrong password
// all collapse to the same refusal (false / absent / 0 / empty) so that
// no error path can be mistaken for — or abused into — a grant, and so
// the return shape never distinguishes valid from invalid usernames.
// Diagnostics go to the structured log, where they belong.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sakif/mudauth/internal/auth"
	"github.com/sakif/mudauth/internal/model"
	"github.com/sakif/mudauth/internal/repository"
)

// capabilities is the static contract advertised to the host. Immutable;
// handed out by value so callers cannot toggle flags at runtime.
var capabilities = model.Capabilities{
	GetUsers:     true,
	GetUserCount: true,
	Logout:       true,

	// The account database is owned by the game server; every mutation
	// capability is off, as is delegation to an external auth provider.
	CreateLogin:    false,
	DeleteLogin:    false,
	SetPassword:    false,
	SetDisplayName: false,
	SetMail:        false,
	ManageGroups:   false,
	ExternalAuth:   false,
}

// Backend implements the host's auth backend contract against the game
// server's account database.
//
// Stateless: every operation is a single-shot read-then-decide call.
// The only long-lived resource is the reader's store handle, owned by
// the server wiring, not by this struct.
type Backend struct {
	reader   repository.AccountReader
	verifier *auth.Verifier
	logger   *slog.Logger

	// now is injectable so credential-expiry behavior is testable
	// without sleeping.
	now func() time.Time

	// disabled marks a backend built without a configured store path.
	// Every operation then fails closed without touching a connection.
	disabled bool
}

// NewBackend creates a Backend over the given reader.
func NewBackend(reader repository.AccountReader, verifier *auth.Verifier, logger *slog.Logger) *Backend {
	return &Backend{
		reader:   reader,
		verifier: verifier,
		logger:   logger,
		now:      time.Now,
	}
}

// NewDisabledBackend creates a Backend that refuses every operation.
// Used when no store path is configured: the host keeps running, but
// authentication fails closed rather than open.
func NewDisabledBackend(logger *slog.Logger) *Backend {
	return &Backend{
		logger:   logger,
		now:      time.Now,
		disabled: true,
	}
}

// CheckPassword verifies cleartext against the stored credential of the
// active account named username.
//
// Refusal paths, all returning plain false:
//   - backend disabled, store unreachable, or no matching active
//     account / non-temporary credential
//   - credential's hash method tag is not the bcrypt tag
//   - credential expired (expiry != 0 and in the past)
//   - bcrypt comparison fails
//
// The cleartext password is never logged or persisted.
func (b *Backend) CheckPassword(ctx context.Context, username, cleartext string) bool {
	if b.disabled {
		return false
	}

	h, err := b.reader.FetchVerificationHash(ctx, username)
	if err != nil {
		// Not-found and store-unavailable deliberately look identical
		// from here out.
		b.logger.Debug("password check refused",
			slog.String("user", username),
			slog.String("reason", "no eligible credential"),
		)
		return false
	}

	if h.Method != model.HashMethodBcrypt {
		// A future hash scheme needs explicit support before it can be
		// trusted; an unknown tag is a refusal, not a crash.
		b.logger.Warn("password check refused: unrecognized hash method",
			slog.String("user", username),
			slog.Int("method", h.Method),
		)
		return false
	}

	// Expiry 0 is the sentinel for "never expires". The game server's
	// original backend read the expiry but compared an unset variable,
	// so it never rejected an expired credential; the documented intent
	// is enforced here instead.
	if h.ExpiresAt != 0 && h.ExpiresAt < b.now().Unix() {
		b.logger.Debug("password check refused: credential expired",
			slog.String("user", username),
			slog.Int64("expired_at", h.ExpiresAt),
		)
		return false
	}

	if err := b.verifier.Verify(h.Digest, cleartext); err != nil {
		return false
	}

	return true
}

// GetUserData returns the derived user-info view for the active account
// named username, or (nil, false) if it does not exist or the store is
// unreachable.
//
// requireGroups exists for parity with the host contract only: groups
// are derived on every call regardless, since derivation is a handful of
// flag checks.
func (b *Backend) GetUserData(ctx context.Context, username string, requireGroups bool) (*model.UserInfo, bool) {
	_ = requireGroups

	if b.disabled {
		return nil, false
	}

	account, err := b.reader.FetchUser(ctx, username)
	if err != nil {
		return nil, false
	}

	return model.NewUserInfo(account), true
}

// GetUserCount returns the number of active accounts. On any failure it
// returns 0 — indistinguishable from an empty store, which is acceptable
// because counts are advisory and never gate authorization.
func (b *Backend) GetUserCount(ctx context.Context, filter map[string]string) int {
	if b.disabled {
		return 0
	}

	count, err := b.reader.FetchUserCount(ctx, filter)
	if err != nil {
		b.logger.Warn("user count unavailable", slog.String("error", err.Error()))
		return 0
	}

	return count
}

// RetrieveUsers returns a page of active accounts as a mapping from
// username to derived user info. limit 0 yields an empty mapping; any
// failure yields an empty mapping.
//
// The page itself follows store order (account id). Go maps do not
// preserve insertion order, so callers that need the ordered page should
// go through RetrieveUserPage.
func (b *Backend) RetrieveUsers(ctx context.Context, start, limit int, filter map[string]string) map[string]model.UserInfo {
	users := make(map[string]model.UserInfo)
	for _, info := range b.RetrieveUserPage(ctx, start, limit, filter) {
		users[info.Name] = info
	}
	return users
}

// RetrieveUserPage is RetrieveUsers with the store's row order kept.
func (b *Backend) RetrieveUserPage(ctx context.Context, start, limit int, filter map[string]string) []model.UserInfo {
	if b.disabled {
		return []model.UserInfo{}
	}

	accounts, err := b.reader.FetchUserPage(ctx, start, limit, filter)
	if err != nil {
		b.logger.Warn("user listing unavailable", slog.String("error", err.Error()))
		return []model.UserInfo{}
	}

	infos := make([]model.UserInfo, 0, len(accounts))
	for i := range accounts {
		infos = append(infos, *model.NewUserInfo(&accounts[i]))
	}
	return infos
}

// Capabilities returns the static capability flags, by value.
func (b *Backend) Capabilities() model.Capabilities {
	return capabilities
}

// IsCaseSensitive reports whether usernames are case-sensitive. Always
// true: names are matched exactly as stored.
func (b *Backend) IsCaseSensitive() bool {
	return true
}

// CleanUser is the identity function. Registration is disabled and every
// query is parameterized, so no sanitization is needed for injection
// safety, and no casing or charset policy is enforced at this layer.
func (b *Backend) CleanUser(username string) string {
	return username
}

// CleanGroup is the identity function, for the same reasons as CleanUser.
func (b *Backend) CleanGroup(groupname string) string {
	return groupname
}
