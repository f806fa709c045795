package store

import (
	"database/sql"
	"fmt"
)

// Relation identifies a link table by name and column pair. Link call sites
// pass one of the package-level values below rather than raw table names.
type Relation struct {
	Table string
	ColA  string
	ColB  string
}

var (
	EmailFrom        = Relation{"Email_From", "email_id", "email_address_id"}
	EmailTo          = Relation{"Email_To", "email_id", "email_address_id"}
	EmailCc          = Relation{"Email_Cc", "email_id", "email_address_id"}
	EmailBcc         = Relation{"Email_Bcc", "email_id", "email_address_id"}
	EmailTimestamp   = Relation{"Email_Timestamp", "email_id", "timestamp_id"}
	EmailAttachments = Relation{"Email_Attachments", "email_id", "attachment_id"}
	ContactAddresses = Relation{"Contacts_EmailAddresses", "contact_id", "email_address_id"}
	ContactAliases   = Relation{"Contacts_Alias", "contact_id", "alias_id"}
)

// Link inserts (idA, idB) pairs into a link relation, one batch in one
// transaction. Pairs that already exist are skipped, so linking is
// idempotent. Accepting a slice keeps call sites uniform whether an email
// has one or many recipients.
func (s *Store) Link(rel Relation, idA interface{}, idsB ...interface{}) error {
	if len(idsB) == 0 {
		return nil
	}
	err := s.withTx(func(tx *sql.Tx) error {
		prefix := fmt.Sprintf(
			"INSERT OR IGNORE INTO %s (%s, %s) VALUES ",
			rel.Table, rel.ColA, rel.ColB,
		)
		return insertInChunks(tx, len(idsB), 2, prefix,
			func(start, end int) ([]string, []interface{}) {
				values := make([]string, end-start)
				args := make([]interface{}, 0, (end-start)*2)
				for i := start; i < end; i++ {
					values[i-start] = "(?, ?)"
					args = append(args, idA, idsB[i])
				}
				return values, args
			})
	})
	if err != nil {
		return fmt.Errorf("link %s: %w", rel.Table, err)
	}
	return nil
}

// CountLinks returns the number of rows in a link relation for the given
// left-hand id.
func (s *Store) CountLinks(rel Relation, idA interface{}) (int64, error) {
	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", rel.Table, rel.ColA)
	if err := s.db.QueryRow(query, idA).Scan(&n); err != nil {
		return 0, fmt.Errorf("count links %s: %w", rel.Table, err)
	}
	return n, nil
}
