// Package store provides durable storage of connection records in SQLite.
//
// Records are keyed by a unique alias and a store-assigned numeric id;
// identifiers made up entirely of digits resolve against ids first, anything
// else against aliases. The password column is opaque to the store —
// field-level encryption is the service layer's concern.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Errors
var (
	ErrDuplicateAlias = errors.New("store: alias already exists")
	ErrNotFound       = errors.New("store: connection not found")
	ErrInvalidAlias   = errors.New("store: invalid alias")
)

// ConnectionRecord is the central entity: one named remote-access target.
// Port is kept as a string so protocol-specific defaulting happens at launch
// time, not at storage time. The id is store-assigned and never portable,
// so it is excluded from the JSON interchange form.
type ConnectionRecord struct {
	ID         int64             `json:"-"`
	Alias      string            `json:"alias"`
	Protocol   string            `json:"protocol"`
	HostOrIP   string            `json:"host_or_ip"`
	Port       string            `json:"port,omitempty"`
	Username   string            `json:"username,omitempty"`
	Password   string            `json:"password,omitempty"`
	SSHKeyPath string            `json:"ssh_key_path,omitempty"`
	Domain     string            `json:"domain,omitempty"`
	Resolution string            `json:"resolution,omitempty"`
	Tag        string            `json:"tag,omitempty"`
	Extras     map[string]string `json:"extras,omitempty"`
}

// Summary is the lightweight projection used for list and search display.
type Summary struct {
	ID       int64
	Alias    string
	Protocol string
	HostOrIP string
	Tag      string
}

// Fields describes a partial update: nil pointers leave the stored value
// untouched, non-nil pointers overwrite it (empty string clears).
type Fields struct {
	Alias      *string
	Protocol   *string
	HostOrIP   *string
	Port       *string
	Username   *string
	Password   *string
	SSHKeyPath *string
	Domain     *string
	Resolution *string
	Tag        *string
	Extras     map[string]string
}

// Store is a single shared handle per process invocation. It is not safe
// for concurrent use; every mutation runs in its own transaction.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the connection database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open database: %w", err)
	}

	// Single-connection mode avoids "database is locked" errors; appropriate
	// for CLI usage where there is exactly one logical session.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS connections (
			id INTEGER PRIMARY KEY,
			alias TEXT UNIQUE NOT NULL,
			protocol TEXT NOT NULL,
			host_or_ip TEXT NOT NULL,
			port TEXT,
			username TEXT,
			password TEXT,
			ssh_key_path TEXT,
			domain TEXT,
			resolution TEXT,
			tag TEXT,
			extras TEXT NOT NULL DEFAULT '{}'
		)
	`)
	if err != nil {
		return fmt.Errorf("store: failed to create table: %w", err)
	}
	return nil
}

// ValidateAlias enforces the alias rules shared by add and import: aliases
// must be non-empty and must not be composed solely of digits, so they stay
// unambiguous against numeric ids.
func ValidateAlias(alias string) error {
	if strings.TrimSpace(alias) == "" {
		return fmt.Errorf("%w: alias is empty", ErrInvalidAlias)
	}
	if isAllDigits(alias) {
		return fmt.Errorf("%w: alias %q cannot be only digits", ErrInvalidAlias, alias)
	}
	return nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Add persists a new record and assigns its id. Fails with
// ErrDuplicateAlias when the alias is already taken.
func (s *Store) Add(rec *ConnectionRecord) error {
	if err := ValidateAlias(rec.Alias); err != nil {
		return err
	}

	extras, err := encodeExtras(rec.Extras)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM connections WHERE alias = ?", rec.Alias).Scan(&count); err != nil {
		return fmt.Errorf("store: failed to check alias: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateAlias, rec.Alias)
	}

	res, err := tx.Exec(`
		INSERT INTO connections (alias, protocol, host_or_ip, port, username, password, ssh_key_path, domain, resolution, tag, extras)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Alias, rec.Protocol, rec.HostOrIP, rec.Port, rec.Username, rec.Password,
		rec.SSHKeyPath, rec.Domain, rec.Resolution, rec.Tag, extras,
	)
	if err != nil {
		return fmt.Errorf("store: failed to insert %q: %w", rec.Alias, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: failed to read assigned id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: failed to commit: %w", err)
	}
	rec.ID = id
	return nil
}

// Get resolves an alias-or-id to a full record. Numeric identifiers are
// tried as ids first with an alias fallback for partial or legacy data;
// everything else is tried as an alias first.
func (s *Store) Get(aliasOrID string) (*ConnectionRecord, error) {
	var queries []string
	if isAllDigits(aliasOrID) {
		queries = []string{
			"SELECT id, alias, protocol, host_or_ip, port, username, password, ssh_key_path, domain, resolution, tag, extras FROM connections WHERE id = ?",
			"SELECT id, alias, protocol, host_or_ip, port, username, password, ssh_key_path, domain, resolution, tag, extras FROM connections WHERE alias = ?",
		}
	} else {
		queries = []string{
			"SELECT id, alias, protocol, host_or_ip, port, username, password, ssh_key_path, domain, resolution, tag, extras FROM connections WHERE alias = ?",
			"SELECT id, alias, protocol, host_or_ip, port, username, password, ssh_key_path, domain, resolution, tag, extras FROM connections WHERE id = ?",
		}
	}

	for _, q := range queries {
		rec, err := s.scanRecord(s.db.QueryRow(q, aliasOrID))
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store: failed to get %q: %w", aliasOrID, err)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, aliasOrID)
}

// Update merges only the supplied fields into the record matching
// aliasOrID. Unspecified fields are left untouched.
func (s *Store) Update(aliasOrID string, f Fields) error {
	var sets []string
	var args []any

	set := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	if f.Alias != nil {
		if err := ValidateAlias(*f.Alias); err != nil {
			return err
		}
	}
	set("alias", f.Alias)
	set("protocol", f.Protocol)
	set("host_or_ip", f.HostOrIP)
	set("port", f.Port)
	set("username", f.Username)
	set("password", f.Password)
	set("ssh_key_path", f.SSHKeyPath)
	set("domain", f.Domain)
	set("resolution", f.Resolution)
	set("tag", f.Tag)
	if f.Extras != nil {
		extras, err := encodeExtras(f.Extras)
		if err != nil {
			return err
		}
		sets = append(sets, "extras = ?")
		args = append(args, extras)
	}
	if len(sets) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Renaming onto an existing alias of a different record is a conflict.
	if f.Alias != nil {
		var count int
		err := tx.QueryRow(
			"SELECT COUNT(*) FROM connections WHERE alias = ? AND NOT (alias = ? OR id = ?)",
			*f.Alias, aliasOrID, aliasOrID,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("store: failed to check alias: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %q", ErrDuplicateAlias, *f.Alias)
		}
	}

	query := "UPDATE connections SET " + strings.Join(sets, ", ") + " WHERE alias = ? OR id = ?"
	args = append(args, aliasOrID, aliasOrID)
	res, err := tx.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("store: failed to update %q: %w", aliasOrID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, aliasOrID)
	}
	return tx.Commit()
}

// Delete removes the record matching aliasOrID by alias or id in one
// operation. Deleting a non-existent record succeeds silently.
func (s *Store) Delete(aliasOrID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM connections WHERE alias = ? OR id = ?", aliasOrID, aliasOrID); err != nil {
		return fmt.Errorf("store: failed to delete %q: %w", aliasOrID, err)
	}
	return tx.Commit()
}

// Search returns summaries of all records whose alias, host, username,
// protocol or tag contains text, case-insensitively.
func (s *Store) Search(text string) ([]Summary, error) {
	pattern := "%" + strings.ToLower(text) + "%"
	rows, err := s.db.Query(`
		SELECT id, alias, protocol, host_or_ip, tag FROM connections
		WHERE lower(alias) LIKE ? OR lower(host_or_ip) LIKE ? OR lower(username) LIKE ?
		   OR lower(protocol) LIKE ? OR lower(tag) LIKE ?
		ORDER BY id`,
		pattern, pattern, pattern, pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("store: search failed: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// Summary returns the display projection of all records, ordered by id.
func (s *Store) Summary() ([]Summary, error) {
	rows, err := s.db.Query("SELECT id, alias, protocol, host_or_ip, tag FROM connections ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("store: summary failed: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// All returns every full record, ordered by id. Used for export.
func (s *Store) All() ([]ConnectionRecord, error) {
	rows, err := s.db.Query("SELECT id, alias, protocol, host_or_ip, port, username, password, ssh_key_path, domain, resolution, tag, extras FROM connections ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("store: failed to list connections: %w", err)
	}
	defer rows.Close()

	var out []ConnectionRecord
	for rows.Next() {
		rec, err := s.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("store: failed to scan connection: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: failed to list connections: %w", err)
	}
	return out, nil
}

// AliasExists reports whether a record with the given alias exists.
func (s *Store) AliasExists(alias string) (bool, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM connections WHERE alias = ?", alias).Scan(&count); err != nil {
		return false, fmt.Errorf("store: failed to check alias: %w", err)
	}
	return count > 0, nil
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM connections").Scan(&count); err != nil {
		return 0, fmt.Errorf("store: failed to count connections: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanRecord(row rowScanner) (*ConnectionRecord, error) {
	var rec ConnectionRecord
	var port, username, password, keyPath, domain, resolution, tag sql.NullString
	var extras string
	err := row.Scan(
		&rec.ID, &rec.Alias, &rec.Protocol, &rec.HostOrIP,
		&port, &username, &password, &keyPath, &domain, &resolution, &tag, &extras,
	)
	if err != nil {
		return nil, err
	}
	rec.Port = port.String
	rec.Username = username.String
	rec.Password = password.String
	rec.SSHKeyPath = keyPath.String
	rec.Domain = domain.String
	rec.Resolution = resolution.String
	rec.Tag = tag.String
	rec.Extras, err = decodeExtras(extras)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanSummaries(rows *sql.Rows) ([]Summary, error) {
	var out []Summary
	for rows.Next() {
		var s Summary
		var tag sql.NullString
		if err := rows.Scan(&s.ID, &s.Alias, &s.Protocol, &s.HostOrIP, &tag); err != nil {
			return nil, fmt.Errorf("store: failed to scan summary: %w", err)
		}
		s.Tag = tag.String
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: failed to scan summaries: %w", err)
	}
	return out, nil
}

// encodeExtras produces the canonical serialized form of the extras bag.
// encoding/json sorts map keys, so the encoding round-trips exactly.
func encodeExtras(extras map[string]string) (string, error) {
	if extras == nil {
		extras = map[string]string{}
	}
	data, err := json.Marshal(extras)
	if err != nil {
		return "", fmt.Errorf("store: failed to encode extras: %w", err)
	}
	return string(data), nil
}

func decodeExtras(data string) (map[string]string, error) {
	if strings.TrimSpace(data) == "" {
		return map[string]string{}, nil
	}
	var extras map[string]string
	if err := json.Unmarshal([]byte(data), &extras); err != nil {
		return nil, fmt.Errorf("store: failed to decode extras: %w", err)
	}
	if extras == nil {
		extras = map[string]string{}
	}
	return extras, nil
}
