// Package roster is the identity store consulted for authentication.
// It follows the same upsert discipline as the category tables but
// keeps no undo snapshot and no audit trail: password history is
// deliberately not tracked.
package roster

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrNotFound is returned when no identity exists for an email.
var ErrNotFound = errors.New("identity not found")

// Identity is one row of a roster import: plaintext password, hashed
// before storage.
type Identity struct {
	Email    string
	Role     string
	Password string
}

// User is a listed identity. Password hashes are never listed; use
// Lookup for authentication.
type User struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Credential is what an authenticator needs about one identity.
type Credential struct {
	Role         string
	PasswordHash string
}

// Store is the identity satellite over the shared database.
type Store struct {
	db  *sql.DB
	log *zap.Logger

	// Cost overrides the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

func New(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, log: logger}
}

func (s *Store) cost() int {
	if s.Cost > 0 {
		return s.Cost
	}
	return bcrypt.DefaultCost
}

// BulkUpsert imports identities, hashing passwords and upserting by
// case-insensitive email. Rows with an empty email or password are
// skipped, not errors. The batch is one transaction; returns how many
// rows were imported.
func (s *Store) BulkUpsert(rows []Identity) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	imported := 0
	for _, row := range rows {
		email := canonEmail(row.Email)
		if email == "" || row.Password == "" {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(row.Password), s.cost())
		if err != nil {
			return 0, fmt.Errorf("hash password for %s: %w", email, err)
		}
		_, err = tx.Exec(`INSERT INTO users (email, role, password_hash)
			VALUES (?, ?, ?)
			ON CONFLICT(email) DO UPDATE SET role=excluded.role, password_hash=excluded.password_hash`,
			email, strings.TrimSpace(row.Role), string(hash))
		if err != nil {
			return 0, err
		}
		imported++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	s.log.Info("roster imported", zap.Int("rows", len(rows)), zap.Int("imported", imported))
	return imported, nil
}

// Lookup returns the role and password hash for an email, or
// ErrNotFound. Matching is case-insensitive.
func (s *Store) Lookup(email string) (Credential, error) {
	var c Credential
	err := s.db.QueryRow("SELECT role, password_hash FROM users WHERE email = ?",
		canonEmail(email)).Scan(&c.Role, &c.PasswordHash)
	if err == sql.ErrNoRows {
		return Credential{}, ErrNotFound
	}
	if err != nil {
		return Credential{}, err
	}
	return c, nil
}

// List returns all identities ordered by role then email.
func (s *Store) List() ([]User, error) {
	rows, err := s.db.Query("SELECT email, role FROM users ORDER BY role, email")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Email, &u.Role); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetPassword replaces an identity's password hash. ErrNotFound when
// the email is unknown.
func (s *Store) SetPassword(email, password string) error {
	if password == "" {
		return fmt.Errorf("password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	if err != nil {
		return err
	}
	res, err := s.db.Exec("UPDATE users SET password_hash = ? WHERE email = ?",
		string(hash), canonEmail(email))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	s.log.Info("password reset", zap.String("email", canonEmail(email)))
	return nil
}

func canonEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
