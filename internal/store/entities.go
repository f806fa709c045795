package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/tvaillant/mailarch/internal/normalize"
)

// Email holds the scalar columns of an Emails row. The id (content hash) is
// passed separately because it is computed before any write.
type Email struct {
	Filepath string
	Filename string
	Subject  string
	Body     string
}

// Attachment holds the scalar columns of an Attachments row.
type Attachment struct {
	Filename      string
	Content       []byte
	ExtractedText sql.NullString
}

// upsertScalar is the single insert-if-absent primitive for surrogate-keyed
// entities (Contacts, Alias, EmailAddresses, Timestamp). It attempts an
// INSERT OR IGNORE; when the row already existed (including when a
// concurrent writer won the race), a follow-up SELECT on the natural key
// returns the winner's id. existed reports whether the row was already
// present so callers can skip redundant downstream work.
func (s *Store) upsertScalar(table string, cols []string, vals ...interface{}) (id int64, existed bool, err error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	insert := fmt.Sprintf(
		"INSERT OR IGNORE INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), placeholders,
	)

	res, err := s.db.Exec(insert, vals...)
	if err != nil {
		return 0, false, fmt.Errorf("insert %s: %w", table, err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, false, fmt.Errorf("last insert id %s: %w", table, err)
		}
		return id, false, nil
	}

	conds := make([]string, len(cols))
	for i, c := range cols {
		conds[i] = c + " = ?"
	}
	sel := fmt.Sprintf(
		"SELECT id FROM %s WHERE %s",
		table, strings.Join(conds, " AND "),
	)
	if err := s.db.QueryRow(sel, vals...).Scan(&id); err != nil {
		return 0, false, fmt.Errorf("select %s id: %w", table, err)
	}
	return id, true, nil
}

// InsertContact gets or creates a contact. Names are normalized before use
// as the dedup key.
func (s *Store) InsertContact(firstName, lastName string) (int64, bool, error) {
	return s.upsertScalar("Contacts",
		[]string{"first_name", "last_name"},
		normalize.Key(firstName), normalize.Key(lastName))
}

// InsertAlias gets or creates a display-name alias.
func (s *Store) InsertAlias(alias string) (int64, bool, error) {
	return s.upsertScalar("Alias",
		[]string{"alias"}, normalize.Key(alias))
}

// InsertEmailAddress gets or creates an email address.
func (s *Store) InsertEmailAddress(address string) (int64, bool, error) {
	return s.upsertScalar("EmailAddresses",
		[]string{"email_address"}, normalize.Key(address))
}

// InsertTimestamp gets or creates a normalized epoch-seconds value.
func (s *Store) InsertTimestamp(ts int64) (int64, bool, error) {
	return s.upsertScalar("Timestamp", []string{"timestamp"}, ts)
}

// UpsertEmail inserts an email keyed on its content hash. A pre-existing row
// is left untouched: first write wins, re-ingestion of identical bytes is a
// no-op.
func (s *Store) UpsertEmail(id string, e *Email) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO Emails (id, filepath, filename, subject, body)
		VALUES (?, ?, ?, ?, ?)
	`, id, e.Filepath, e.Filename, e.Subject, e.Body)
	if err != nil {
		return fmt.Errorf("upsert email: %w", err)
	}
	return nil
}

// UpsertAttachment inserts an attachment keyed on its content hash, same
// first-write-wins semantics as UpsertEmail. Two emails carrying the same
// bytes under different filenames collapse to one row; the first-seen
// filename is authoritative.
func (s *Store) UpsertAttachment(id string, a *Attachment) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO Attachments (id, filename, content, extracted_text)
		VALUES (?, ?, ?, ?)
	`, id, a.Filename, a.Content, a.ExtractedText)
	if err != nil {
		return fmt.Errorf("upsert attachment: %w", err)
	}
	return nil
}

// EmailExists reports whether an email with the given content hash is
// already stored.
func (s *Store) EmailExists(id string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM Emails WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("email exists: %w", err)
	}
	return n > 0, nil
}
