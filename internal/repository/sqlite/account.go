package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/mudauth/internal/apperror"
	"github.com/sakif/mudauth/internal/model"
	"github.com/sakif/mudauth/internal/repository"
)

// compile-time check that *DB implements repository.AccountReader
var _ repository.AccountReader = (*DB)(nil)

// Account rows are visible only while flags != 0; an inactive account is
// treated as nonexistent everywhere. Credential rows flagged temporary
// (one-time recovery passwords issued by the game server) are never
// eligible for login, so every query below excludes them at the SQL
// level rather than filtering in Go.
//
// Usernames are matched exactly and case-sensitively. They arrive
// pre-validated by the game server and only ever appear as bound
// parameters, never interpolated into query text.

// FetchVerificationHash selects the non-temporary primary credential of
// the active account named username.
func (db *DB) FetchVerificationHash(ctx context.Context, username string) (*model.VerificationHash, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT p.password, p.method, p.expiry
		 FROM accounts a
		 JOIN passwords p ON p.id = a.password_id
		 WHERE a.name = ? AND a.flags != 0 AND p.is_temporary = 0`,
		username,
	)
	if err != nil {
		return nil, apperror.StoreUnavailable("fetching verification hash", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, apperror.StoreUnavailable("fetching verification hash", err)
		}
		return nil, apperror.NotFound("credential", username)
	}

	// Defensive check against schema drift in the externally-owned
	// database: a row that no longer carries all three fields is treated
	// as not-found, never as a crash.
	if cols, err := rows.Columns(); err != nil || len(cols) < 3 {
		return nil, apperror.NotFound("credential", username)
	}

	var h model.VerificationHash
	if err := rows.Scan(&h.Digest, &h.Method, &h.ExpiresAt); err != nil {
		return nil, apperror.NotFound("credential", username)
	}

	return &h, nil
}

// FetchUser selects the active account named username.
func (db *DB) FetchUser(ctx context.Context, username string) (*model.Account, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT name, email, admin, immortal
		 FROM accounts
		 WHERE name = ? AND flags != 0`,
		username,
	)
	if err != nil {
		return nil, apperror.StoreUnavailable("fetching user", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, apperror.StoreUnavailable("fetching user", err)
		}
		return nil, apperror.NotFound("account", username)
	}

	a, err := scanAccount(rows)
	if err != nil {
		// Same schema-drift posture as FetchVerificationHash.
		return nil, apperror.NotFound("account", username)
	}

	return a, nil
}

// FetchUserCount counts active accounts.
//
// The filter parameter exists for parity with the host contract and is
// intentionally not applied — the count is always the full active-account
// count. Accepting and ignoring it (rather than erroring on unsupported
// shapes) keeps the contract forward compatible.
func (db *DB) FetchUserCount(ctx context.Context, filter map[string]string) (int, error) {
	_ = filter // accepted, not applied

	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE flags != 0`,
	).Scan(&count)
	if err != nil {
		return 0, apperror.StoreUnavailable("counting users", err)
	}

	return count, nil
}

// FetchUserPage selects a page of active accounts in store order
// (account id — callers must not assume alphabetical order).
//
// offset and limit are bound parameters, never interpolated. limit 0
// returns zero rows, matching SQLite's LIMIT 0 — it does not mean
// "unlimited". An offset past the end of the table yields an empty
// slice, not an error.
func (db *DB) FetchUserPage(ctx context.Context, offset, limit int, filter map[string]string) ([]model.Account, error) {
	_ = filter // accepted, not applied (see FetchUserCount)

	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		// A negative LIMIT means "no limit" to SQLite; clamp so a bad
		// caller value cannot dump the whole table.
		limit = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT name, email, admin, immortal
		 FROM accounts
		 WHERE flags != 0
		 ORDER BY id
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, apperror.StoreUnavailable("listing users", err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, apperror.NotFound("account page", fmt.Sprintf("offset %d", offset))
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.StoreUnavailable("listing users", err)
	}

	return accounts, nil
}

// rowScanner is the subset of sql.Rows used by scanAccount.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanAccount decodes one accounts row. The admin/immortal columns are
// integer "boolean-like" flags in the game server's schema, so they are
// scanned as integers and converted.
func scanAccount(row rowScanner) (*model.Account, error) {
	var (
		a        model.Account
		admin    int64
		immortal int64
	)
	if err := row.Scan(&a.Name, &a.Email, &admin, &immortal); err != nil {
		return nil, err
	}
	a.Admin = admin != 0
	a.Immortal = immortal != 0
	return &a, nil
}
