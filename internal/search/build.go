package search

import (
	"strings"

	"github.com/tvaillant/mailarch/internal/normalize"
)

// Build renders a request into one SELECT DISTINCT statement with bound
// parameters. Validation failures are returned before any SQL is assembled.
// A request with no filters degenerates to selecting every email id.
func Build(req Request) (Query, error) {
	op, err := normalizeOperator(req.WordOperator)
	if err != nil {
		return Query{}, err
	}
	active, err := normalizeLocalization(req.Localization)
	if err != nil {
		return Query{}, err
	}

	words := normalize.Keys(req.Words)
	wordsIn := func(loc Localization) bool {
		return len(words) > 0 && active[loc]
	}

	b := newBuilder()

	// Join activation: each chain is added when any filter touches it.
	// addJoin dedups, so overlapping activations cost nothing.
	if len(req.Contacts) > 0 || wordsIn(LocContact) {
		b.joinContacts()
	}
	if len(req.Aliases) > 0 || wordsIn(LocAlias) {
		b.joinAliases()
	}
	if len(req.Addresses) > 0 || wordsIn(LocAddress) {
		b.joinAddresses()
	}
	if req.StartDate != nil || req.EndDate != nil {
		b.joinTimestamp()
	}
	if len(req.AttachmentTypes) > 0 || wordsIn(LocAttachmentName) || wordsIn(LocAttachmentText) {
		b.joinAttachments()
	}

	whereDate(b, req)
	whereContacts(b, req.Contacts)
	whereAliases(b, req.Aliases)
	whereAddresses(b, req.Addresses)
	whereAttachmentTypes(b, req.AttachmentTypes)
	whereWords(b, words, active, op)

	return b.render(), nil
}

// whereDate fills the mandatory bucket: date bounds always narrow the
// result, regardless of what the optional filters match.
func whereDate(b *builder, req Request) {
	switch {
	case req.StartDate != nil && req.EndDate != nil:
		b.addMandatory("ts.timestamp BETWEEN ? AND ?", *req.StartDate, *req.EndDate)
	case req.StartDate != nil:
		b.addMandatory("ts.timestamp >= ?", *req.StartDate)
	case req.EndDate != nil:
		b.addMandatory("ts.timestamp <= ?", *req.EndDate)
	}
}

func whereContacts(b *builder, contacts []Contact) {
	if len(contacts) == 0 {
		return
	}
	var conds []string
	var args []interface{}
	for _, contact := range contacts {
		first := normalize.Key(contact.FirstName)
		last := normalize.Key(contact.LastName)
		for i := range roleNames {
			c := roleAlias("c", i)
			conds = append(conds,
				"(lower("+c+".first_name) = ? AND lower("+c+".last_name) = ?)")
			args = append(args, first, last)
		}
	}
	b.addOptional("("+strings.Join(conds, " OR ")+")", args...)
}

func whereAliases(b *builder, aliases []string) {
	if len(aliases) == 0 {
		return
	}
	var conds []string
	var args []interface{}
	for _, alias := range aliases {
		key := normalize.Key(alias)
		for i := range roleNames {
			conds = append(conds, "lower("+roleAlias("a", i)+".alias) = ?")
			args = append(args, key)
		}
	}
	b.addOptional("("+strings.Join(conds, " OR ")+")", args...)
}

func whereAddresses(b *builder, addresses []string) {
	if len(addresses) == 0 {
		return
	}
	var conds []string
	var args []interface{}
	for _, address := range addresses {
		key := normalize.Key(address)
		for i := range roleNames {
			conds = append(conds, "lower("+roleAlias("ea", i)+".email_address) = ?")
			args = append(args, key)
		}
	}
	b.addOptional("("+strings.Join(conds, " OR ")+")", args...)
}

// whereAttachmentTypes filters on filename suffix, "pdf" matching "%.pdf".
func whereAttachmentTypes(b *builder, types []string) {
	if len(types) == 0 {
		return
	}
	var conds []string
	var args []interface{}
	for _, fileType := range types {
		conds = append(conds, "lower(a.filename) LIKE ?")
		args = append(args, "%."+normalize.Key(fileType))
	}
	b.addOptional("("+strings.Join(conds, " OR ")+")", args...)
}

// whereWords builds one OR-group per distinct word spanning every active
// field, then joins the groups with the requested operator into a single
// optional-bucket entry.
func whereWords(b *builder, words []string, active map[Localization]bool, op Operator) {
	if len(words) == 0 || len(active) == 0 {
		return
	}

	var groups []string
	var args []interface{}
	seen := make(map[string]struct{})

	for _, word := range words {
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}

		pattern := "%" + word + "%"
		var conds []string

		if active[LocContact] {
			for i := range roleNames {
				c := roleAlias("c", i)
				conds = append(conds,
					"lower("+c+".first_name) LIKE ?", "lower("+c+".last_name) LIKE ?")
				args = append(args, pattern, pattern)
			}
		}
		if active[LocAlias] {
			for i := range roleNames {
				conds = append(conds, "lower("+roleAlias("a", i)+".alias) LIKE ?")
				args = append(args, pattern)
			}
		}
		if active[LocAddress] {
			for i := range roleNames {
				conds = append(conds, "lower("+roleAlias("ea", i)+".email_address) LIKE ?")
				args = append(args, pattern)
			}
		}
		if active[LocSubject] {
			conds = append(conds, "lower(e.subject) LIKE ?")
			args = append(args, pattern)
		}
		if active[LocBody] {
			conds = append(conds, "lower(e.body) LIKE ?")
			args = append(args, pattern)
		}
		if active[LocAttachmentName] {
			conds = append(conds, "lower(a.filename) LIKE ?")
			args = append(args, pattern)
		}
		if active[LocAttachmentText] {
			conds = append(conds, "lower(a.extracted_text) LIKE ?")
			args = append(args, pattern)
		}

		groups = append(groups, "("+strings.Join(conds, " OR ")+")")
	}

	b.addOptional("("+strings.Join(groups, " "+string(op)+" ")+")", args...)
}
