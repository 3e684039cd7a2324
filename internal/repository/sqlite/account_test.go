package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sakif/mudauth/internal/apperror"
	"github.com/sakif/mudauth/internal/model"
)

// The account database is owned by the game server, so tests build a
// stand-in fixture file: a writable connection seeds the schema and
// rows, then the reader under test opens the same file through New(),
// i.e. read-only, exactly as in production.

const fixtureSchema = `
CREATE TABLE accounts (
	id          INTEGER PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	email       TEXT NOT NULL DEFAULT '',
	admin       INTEGER NOT NULL DEFAULT 0,
	immortal    INTEGER NOT NULL DEFAULT 0,
	flags       INTEGER NOT NULL DEFAULT 1,
	password_id INTEGER REFERENCES passwords(id)
);
CREATE TABLE passwords (
	id           INTEGER PRIMARY KEY,
	password     TEXT NOT NULL,
	method       INTEGER NOT NULL DEFAULT 1,
	expiry       INTEGER NOT NULL DEFAULT 0,
	is_temporary INTEGER NOT NULL DEFAULT 0
);
`

// fixture bundles the read-only DB under test with the writable seeding
// connection.
type fixture struct {
	reader *DB
	writer *sql.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "accounts.db")

	writer, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("opening fixture writer: %v", err)
	}
	t.Cleanup(func() { writer.Close() })

	if _, err := writer.Exec(fixtureSchema); err != nil {
		t.Fatalf("creating fixture schema: %v", err)
	}

	reader, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { reader.Close() })

	return &fixture{reader: reader, writer: writer}
}

type seedAccount struct {
	name      string
	email     string
	admin     bool
	immortal  bool
	flags     int
	digest    string
	method    int
	expiry    int64
	temporary bool
}

// seed inserts a credential row and an account pointing at it, returning
// nothing: failures end the test.
func (f *fixture) seed(t *testing.T, a seedAccount) {
	t.Helper()

	res, err := f.writer.Exec(
		`INSERT INTO passwords (password, method, expiry, is_temporary) VALUES (?, ?, ?, ?)`,
		a.digest, a.method, a.expiry, boolToInt(a.temporary),
	)
	if err != nil {
		t.Fatalf("seeding credential for %s: %v", a.name, err)
	}
	passwordID, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("credential id for %s: %v", a.name, err)
	}

	_, err = f.writer.Exec(
		`INSERT INTO accounts (name, email, admin, immortal, flags, password_id) VALUES (?, ?, ?, ?, ?, ?)`,
		a.name, a.email, boolToInt(a.admin), boolToInt(a.immortal), a.flags, passwordID,
	)
	if err != nil {
		t.Fatalf("seeding account %s: %v", a.name, err)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestNew_MissingFile(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "does-not-exist.db")); err == nil {
		t.Fatal("New() should fail on a missing database file")
	}
}

// =========================================================================
// FetchVerificationHash
// =========================================================================

func TestFetchVerificationHash(t *testing.T) {
	f := newFixture(t)
	f.seed(t, seedAccount{
		name: "tharion", flags: 1,
		digest: "$2y$10$fakesaltfakesaltfakesaltfakehashfakehashfakehash",
		method: model.HashMethodBcrypt, expiry: 1234567890,
	})

	h, err := f.reader.FetchVerificationHash(context.Background(), "tharion")
	if err != nil {
		t.Fatalf("FetchVerificationHash() error = %v", err)
	}

	if h.Digest != "$2y$10$fakesaltfakesaltfakesaltfakehashfakehashfakehash" {
		t.Errorf("Digest = %q", h.Digest)
	}
	if h.Method != model.HashMethodBcrypt {
		t.Errorf("Method = %d, want %d", h.Method, model.HashMethodBcrypt)
	}
	if h.ExpiresAt != 1234567890 {
		t.Errorf("ExpiresAt = %d, want 1234567890", h.ExpiresAt)
	}
}

func TestFetchVerificationHash_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.reader.FetchVerificationHash(context.Background(), "nobody")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestFetchVerificationHash_InactiveAccount(t *testing.T) {
	f := newFixture(t)
	f.seed(t, seedAccount{
		name: "banned", flags: 0,
		digest: "$2a$10$whatever", method: model.HashMethodBcrypt,
	})

	// flags = 0 means the account does not exist as far as this reader
	// is concerned.
	_, err := f.reader.FetchVerificationHash(context.Background(), "banned")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestFetchVerificationHash_TemporaryCredentialExcluded(t *testing.T) {
	f := newFixture(t)
	f.seed(t, seedAccount{
		name: "forgetful", flags: 1,
		digest: "$2a$10$onetimerecovery", method: model.HashMethodBcrypt,
		temporary: true,
	})

	_, err := f.reader.FetchVerificationHash(context.Background(), "forgetful")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestFetchVerificationHash_CaseSensitive(t *testing.T) {
	f := newFixture(t)
	f.seed(t, seedAccount{
		name: "Tharion", flags: 1,
		digest: "$2a$10$x", method: model.HashMethodBcrypt,
	})

	if _, err := f.reader.FetchVerificationHash(context.Background(), "tharion"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("lowercased lookup error = %v, want ErrNotFound", err)
	}
	if _, err := f.reader.FetchVerificationHash(context.Background(), "Tharion"); err != nil {
		t.Errorf("exact lookup error = %v", err)
	}
}

func TestFetchVerificationHash_StoreUnavailable(t *testing.T) {
	// A database file with no tables at all: queries fail to prepare,
	// which must surface as ErrStoreUnavailable, not ErrNotFound.
	path := filepath.Join(t.TempDir(), "empty.db")
	writer, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("opening writer: %v", err)
	}
	defer writer.Close()
	if _, err := writer.Exec(`CREATE TABLE placeholder (id INTEGER)`); err != nil {
		t.Fatalf("creating placeholder: %v", err)
	}

	reader, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer reader.Close()

	_, err = reader.FetchVerificationHash(context.Background(), "anyone")
	if !errors.Is(err, apperror.ErrStoreUnavailable) {
		t.Errorf("error = %v, want ErrStoreUnavailable", err)
	}
}

// =========================================================================
// FetchUser
// =========================================================================

func TestFetchUser(t *testing.T) {
	f := newFixture(t)
	f.seed(t, seedAccount{
		name: "elandra", email: "elandra@mud.example", admin: true, flags: 1,
		digest: "$2a$10$x", method: model.HashMethodBcrypt,
	})

	a, err := f.reader.FetchUser(context.Background(), "elandra")
	if err != nil {
		t.Fatalf("FetchUser() error = %v", err)
	}

	if a.Name != "elandra" {
		t.Errorf("Name = %q", a.Name)
	}
	if a.Email != "elandra@mud.example" {
		t.Errorf("Email = %q", a.Email)
	}
	if !a.Admin {
		t.Error("Admin = false, want true")
	}
	if a.Immortal {
		t.Error("Immortal = true, want false")
	}
}

func TestFetchUser_InactiveIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.seed(t, seedAccount{name: "dormant", flags: 0, digest: "$2a$10$x", method: 1})

	_, err := f.reader.FetchUser(context.Background(), "dormant")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// FetchUserCount / FetchUserPage
// =========================================================================

func TestFetchUserCount(t *testing.T) {
	f := newFixture(t)
	f.seed(t, seedAccount{name: "one", flags: 1, digest: "$2a$10$x", method: 1})
	f.seed(t, seedAccount{name: "two", flags: 7, digest: "$2a$10$x", method: 1})
	f.seed(t, seedAccount{name: "inactive", flags: 0, digest: "$2a$10$x", method: 1})

	count, err := f.reader.FetchUserCount(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchUserCount() error = %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

// Filters are accepted for contract parity and ignored; no shape may
// cause an error.
func TestFetchUserCount_FilterIgnored(t *testing.T) {
	f := newFixture(t)
	f.seed(t, seedAccount{name: "solo", flags: 1, digest: "$2a$10$x", method: 1})

	for _, filter := range []map[string]string{
		nil,
		{},
		{"group": "admin"},
		{"'; DROP TABLE accounts; --": "x"},
	} {
		count, err := f.reader.FetchUserCount(context.Background(), filter)
		if err != nil {
			t.Errorf("FetchUserCount(%v) error = %v", filter, err)
		}
		if count != 1 {
			t.Errorf("FetchUserCount(%v) = %d, want 1", filter, count)
		}
	}
}

func TestFetchUserPage_StoreOrder(t *testing.T) {
	f := newFixture(t)
	// Seeded in non-alphabetical order on purpose: the page must follow
	// account id order, not name order.
	f.seed(t, seedAccount{name: "zeno", flags: 1, digest: "$2a$10$x", method: 1})
	f.seed(t, seedAccount{name: "abel", flags: 1, digest: "$2a$10$x", method: 1})
	f.seed(t, seedAccount{name: "mira", flags: 0, digest: "$2a$10$x", method: 1})

	page, err := f.reader.FetchUserPage(context.Background(), 0, 10, nil)
	if err != nil {
		t.Fatalf("FetchUserPage() error = %v", err)
	}

	if len(page) != 2 {
		t.Fatalf("len(page) = %d, want 2 (inactive excluded)", len(page))
	}
	if page[0].Name != "zeno" || page[1].Name != "abel" {
		t.Errorf("page order = [%s %s], want [zeno abel]", page[0].Name, page[1].Name)
	}
}

func TestFetchUserPage_LimitZero(t *testing.T) {
	f := newFixture(t)
	f.seed(t, seedAccount{name: "present", flags: 1, digest: "$2a$10$x", method: 1})

	// LIMIT 0 means zero rows, not "unlimited".
	page, err := f.reader.FetchUserPage(context.Background(), 0, 0, nil)
	if err != nil {
		t.Fatalf("FetchUserPage() error = %v", err)
	}
	if len(page) != 0 {
		t.Errorf("len(page) = %d, want 0", len(page))
	}
}

func TestFetchUserPage_OffsetPastEnd(t *testing.T) {
	f := newFixture(t)
	f.seed(t, seedAccount{name: "lonely", flags: 1, digest: "$2a$10$x", method: 1})

	page, err := f.reader.FetchUserPage(context.Background(), 1000, 10, nil)
	if err != nil {
		t.Fatalf("FetchUserPage() error = %v", err)
	}
	if len(page) != 0 {
		t.Errorf("len(page) = %d, want 0", len(page))
	}
}

func TestFetchUserPage_NegativeInputsClamped(t *testing.T) {
	f := newFixture(t)
	f.seed(t, seedAccount{name: "careful", flags: 1, digest: "$2a$10$x", method: 1})

	// Negative limit must not become SQLite's "no limit".
	page, err := f.reader.FetchUserPage(context.Background(), -5, -1, nil)
	if err != nil {
		t.Fatalf("FetchUserPage() error = %v", err)
	}
	if len(page) != 0 {
		t.Errorf("len(page) = %d, want 0", len(page))
	}
}

func TestFetchUserPage_Pagination(t *testing.T) {
	f := newFixture(t)
	names := []string{"p1", "p2", "p3", "p4", "p5"}
	for _, name := range names {
		f.seed(t, seedAccount{name: name, flags: 1, digest: "$2a$10$x", method: 1})
	}

	first, err := f.reader.FetchUserPage(context.Background(), 0, 2, nil)
	if err != nil {
		t.Fatalf("first page error = %v", err)
	}
	second, err := f.reader.FetchUserPage(context.Background(), 2, 2, nil)
	if err != nil {
		t.Fatalf("second page error = %v", err)
	}

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("page sizes = %d, %d, want 2, 2", len(first), len(second))
	}
	if first[0].Name != "p1" || first[1].Name != "p2" {
		t.Errorf("first page = [%s %s], want [p1 p2]", first[0].Name, first[1].Name)
	}
	if second[0].Name != "p3" || second[1].Name != "p4" {
		t.Errorf("second page = [%s %s], want [p3 p4]", second[0].Name, second[1].Name)
	}
}
