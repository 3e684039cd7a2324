// Package repository defines the read-side port to the game server's
// account database. The database is owned and mutated exclusively by the
// game server; this interface deliberately has no write methods.
package repository

import (
	"context"

	"github.com/sakif/mudauth/internal/model"
)

// AccountReader is the read-only view of the external account store.
//
// Every method reports failures through the apperror taxonomy:
// apperror.ErrNotFound for "no matching active account/credential" (and
// for rows that decode with an unexpected shape), apperror.ErrStoreUnavailable
// for queries that could not execute at all.
type AccountReader interface {
	// FetchVerificationHash returns the non-temporary primary credential
	// of the active account with exactly the given name.
	FetchVerificationHash(ctx context.Context, username string) (*model.VerificationHash, error)

	// FetchUser returns the active account with exactly the given name.
	FetchUser(ctx context.Context, username string) (*model.Account, error)

	// FetchUserCount counts active accounts. The filter is accepted for
	// interface parity with the host contract but is not applied; any
	// filter shape is tolerated without error.
	FetchUserCount(ctx context.Context, filter map[string]string) (int, error)

	// FetchUserPage returns active accounts in store order (account id),
	// limit rows starting at offset. limit 0 returns no rows; an offset
	// past the end returns an empty slice, not an error.
	FetchUserPage(ctx context.Context, offset, limit int, filter map[string]string) ([]model.Account, error)
}
