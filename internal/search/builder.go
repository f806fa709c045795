package search

import (
	"fmt"
	"strings"
)

// roleNames generates the per-role table aliases: the four address roles get
// numbered aliases for each table along their join chain (ea1..ea4,
// cea1..cea4, c1..c4, ca1..ca4, a1..a4).
var roleNames = []struct {
	linkTable string
	linkAlias string
}{
	{"Email_From", "ef"},
	{"Email_To", "et"},
	{"Email_Cc", "ec"},
	{"Email_Bcc", "eb"},
}

func roleAlias(prefix string, i int) string {
	return fmt.Sprintf("%s%d", prefix, i+1)
}

// joinID identifies an added join by table and alias so repeated activation
// of the same chain is a no-op.
type joinID struct {
	table string
	alias string
}

type builder struct {
	joins  []string
	joined map[joinID]struct{}

	// mandatory conditions are AND-ed into the final WHERE; optional
	// groups are OR-ed with each other. Args follow the same order the
	// conditions are appended in.
	mandatory     []string
	mandatoryArgs []interface{}
	optional      []string
	optionalArgs  []interface{}
}

func newBuilder() *builder {
	return &builder{joined: make(map[joinID]struct{})}
}

// addJoin records a LEFT JOIN once per (table, alias). The first join of a
// statement is demoted to an inner join: it anchors the FROM clause to at
// least one matching row, while later chains must stay outer so emails with
// no rows in an unrelated chain are not excluded.
func (b *builder) addJoin(table, alias, on string) {
	id := joinID{table: table, alias: alias}
	if _, ok := b.joined[id]; ok {
		return
	}
	b.joined[id] = struct{}{}

	kind := "LEFT JOIN"
	if len(b.joins) == 0 {
		kind = "JOIN"
	}
	b.joins = append(b.joins, fmt.Sprintf("%s %s %s ON %s", kind, table, alias, on))
}

func (b *builder) joinAddresses() {
	for _, role := range roleNames {
		b.addJoin(role.linkTable, role.linkAlias,
			fmt.Sprintf("e.id = %s.email_id", role.linkAlias))
	}
	for i, role := range roleNames {
		ea := roleAlias("ea", i)
		b.addJoin("EmailAddresses", ea,
			fmt.Sprintf("%s.id = %s.email_address_id", ea, role.linkAlias))
	}
}

func (b *builder) joinContacts() {
	b.joinAddresses()
	for i := range roleNames {
		ea, cea := roleAlias("ea", i), roleAlias("cea", i)
		b.addJoin("Contacts_EmailAddresses", cea,
			fmt.Sprintf("%s.id = %s.email_address_id", ea, cea))
	}
	for i := range roleNames {
		cea, c := roleAlias("cea", i), roleAlias("c", i)
		b.addJoin("Contacts", c,
			fmt.Sprintf("%s.contact_id = %s.id", cea, c))
	}
}

func (b *builder) joinAliases() {
	b.joinContacts()
	for i := range roleNames {
		c, ca := roleAlias("c", i), roleAlias("ca", i)
		b.addJoin("Contacts_Alias", ca,
			fmt.Sprintf("%s.id = %s.contact_id", c, ca))
	}
	for i := range roleNames {
		ca, a := roleAlias("ca", i), roleAlias("a", i)
		b.addJoin("Alias", a,
			fmt.Sprintf("%s.alias_id = %s.id", ca, a))
	}
}

func (b *builder) joinTimestamp() {
	b.addJoin("Email_Timestamp", "eti", "e.id = eti.email_id")
	b.addJoin("Timestamp", "ts", "eti.timestamp_id = ts.id")
}

func (b *builder) joinAttachments() {
	b.addJoin("Email_Attachments", "ea", "e.id = ea.email_id")
	b.addJoin("Attachments", "a", "ea.attachment_id = a.id")
}

func (b *builder) addMandatory(cond string, args ...interface{}) {
	b.mandatory = append(b.mandatory, "("+cond+")")
	b.mandatoryArgs = append(b.mandatoryArgs, args...)
}

func (b *builder) addOptional(group string, args ...interface{}) {
	b.optional = append(b.optional, group)
	b.optionalArgs = append(b.optionalArgs, args...)
}

func (b *builder) render() Query {
	var sb strings.Builder
	sb.WriteString("SELECT DISTINCT e.id FROM Emails e")
	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}

	args := make([]interface{}, 0, len(b.mandatoryArgs)+len(b.optionalArgs))
	switch {
	case len(b.mandatory) > 0 && len(b.optional) > 0:
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.mandatory, " AND "))
		sb.WriteString(" AND (")
		sb.WriteString(strings.Join(b.optional, " OR "))
		sb.WriteString(")")
		args = append(args, b.mandatoryArgs...)
		args = append(args, b.optionalArgs...)
	case len(b.mandatory) > 0:
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.mandatory, " AND "))
		args = append(args, b.mandatoryArgs...)
	case len(b.optional) > 0:
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.optional, " OR "))
		args = append(args, b.optionalArgs...)
	}

	return Query{SQL: sb.String(), Args: args}
}
