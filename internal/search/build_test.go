package search_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tvaillant/mailarch/internal/search"
)

func mustBuild(t *testing.T, req search.Request) search.Query {
	t.Helper()
	q, err := search.Build(req)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return q
}

func int64p(v int64) *int64 { return &v }

func TestBuildEmptyRequest(t *testing.T) {
	q := mustBuild(t, search.Request{})
	if q.SQL != "SELECT DISTINCT e.id FROM Emails e" {
		t.Errorf("sql = %q", q.SQL)
	}
	if len(q.Args) != 0 {
		t.Errorf("args = %v", q.Args)
	}
}

func TestBuildWordsSubjectBody(t *testing.T) {
	q := mustBuild(t, search.Request{
		Words:        []string{"urgent"},
		Localization: []search.Localization{search.LocSubject, search.LocBody},
		WordOperator: search.OpOr,
	})

	want := "(lower(e.subject) LIKE ? OR lower(e.body) LIKE ?)"
	if !strings.Contains(q.SQL, want) {
		t.Errorf("sql missing %q:\n%s", want, q.SQL)
	}
	for _, chain := range []string{"JOIN", "Contacts", "Alias", "EmailAddresses", "Attachments", "Timestamp"} {
		if strings.Contains(q.SQL, chain) {
			t.Errorf("sql unexpectedly contains %q:\n%s", chain, q.SQL)
		}
	}
	if diff := cmp.Diff([]interface{}{"%urgent%", "%urgent%"}, q.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDateRangeOnly(t *testing.T) {
	q := mustBuild(t, search.Request{StartDate: int64p(100), EndDate: int64p(200)})

	if !strings.Contains(q.SQL, "(ts.timestamp BETWEEN ? AND ?)") {
		t.Errorf("sql missing date clause:\n%s", q.SQL)
	}
	if !strings.Contains(q.SQL, "JOIN Email_Timestamp eti ON e.id = eti.email_id") {
		t.Errorf("sql missing timestamp link join:\n%s", q.SQL)
	}
	if !strings.Contains(q.SQL, "LEFT JOIN Timestamp ts ON eti.timestamp_id = ts.id") {
		t.Errorf("sql missing timestamp join:\n%s", q.SQL)
	}
	if strings.Contains(q.SQL, " OR ") {
		t.Errorf("sql has an optional bucket:\n%s", q.SQL)
	}
	if diff := cmp.Diff([]interface{}{int64(100), int64(200)}, q.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildStartDateOnly(t *testing.T) {
	q := mustBuild(t, search.Request{StartDate: int64p(100)})
	if !strings.Contains(q.SQL, "(ts.timestamp >= ?)") {
		t.Errorf("sql = %q", q.SQL)
	}
}

func TestBuildTwoWordsAnd(t *testing.T) {
	q := mustBuild(t, search.Request{
		Words:        []string{"a", "b"},
		WordOperator: search.OpAnd,
		Localization: []search.Localization{search.LocSubject},
	})

	want := "((lower(e.subject) LIKE ?) AND (lower(e.subject) LIKE ?))"
	if !strings.Contains(q.SQL, want) {
		t.Errorf("sql missing %q:\n%s", want, q.SQL)
	}
	if diff := cmp.Diff([]interface{}{"%a%", "%b%"}, q.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRepeatedWordOnce(t *testing.T) {
	q := mustBuild(t, search.Request{
		Words:        []string{"dup", "Dup", "dup"},
		WordOperator: search.OpAnd,
		Localization: []search.Localization{search.LocSubject},
	})
	if n := strings.Count(q.SQL, "lower(e.subject) LIKE ?"); n != 1 {
		t.Errorf("group emitted %d times:\n%s", n, q.SQL)
	}
	if len(q.Args) != 1 {
		t.Errorf("args = %v", q.Args)
	}
}

func TestBuildAddressesJoinMinimality(t *testing.T) {
	q := mustBuild(t, search.Request{Addresses: []string{"a@x.com"}})

	if !strings.Contains(q.SQL, "JOIN Email_From ef ON e.id = ef.email_id") {
		t.Errorf("sql missing role joins:\n%s", q.SQL)
	}
	// First join is the inner anchor; everything after stays outer.
	if strings.HasPrefix(q.SQL, "SELECT DISTINCT e.id FROM Emails e LEFT JOIN") {
		t.Errorf("first join is not inner:\n%s", q.SQL)
	}
	if n := strings.Count(q.SQL, "LEFT JOIN"); n != 7 {
		t.Errorf("left join count = %d:\n%s", n, q.SQL)
	}
	for _, chain := range []string{"Attachments", "Timestamp", "Contacts", "Alias"} {
		if strings.Contains(q.SQL, chain) {
			t.Errorf("sql unexpectedly contains %q:\n%s", chain, q.SQL)
		}
	}

	want := "(lower(ea1.email_address) = ? OR lower(ea2.email_address) = ? OR lower(ea3.email_address) = ? OR lower(ea4.email_address) = ?)"
	if !strings.Contains(q.SQL, want) {
		t.Errorf("sql missing address group:\n%s", q.SQL)
	}
}

func TestBuildContactsJoinChain(t *testing.T) {
	q := mustBuild(t, search.Request{
		Contacts: []search.Contact{{FirstName: "Ada", LastName: "Lovelace"}},
	})

	for _, join := range []string{
		"LEFT JOIN EmailAddresses ea1 ON ea1.id = ef.email_address_id",
		"LEFT JOIN Contacts_EmailAddresses cea1 ON ea1.id = cea1.email_address_id",
		"LEFT JOIN Contacts c1 ON cea1.contact_id = c1.id",
	} {
		if !strings.Contains(q.SQL, join) {
			t.Errorf("sql missing %q:\n%s", join, q.SQL)
		}
	}
	if strings.Contains(q.SQL, "Contacts_Alias") {
		t.Errorf("alias chain joined without alias filter:\n%s", q.SQL)
	}
	if !strings.Contains(q.SQL, "(lower(c1.first_name) = ? AND lower(c1.last_name) = ?)") {
		t.Errorf("sql missing contact group:\n%s", q.SQL)
	}
	if q.Args[0] != "ada" || q.Args[1] != "lovelace" {
		t.Errorf("args = %v", q.Args)
	}
}

func TestBuildJoinsNotDuplicated(t *testing.T) {
	q := mustBuild(t, search.Request{
		Addresses: []string{"a@x.com"},
		Aliases:   []string{"ada"},
		Words:     []string{"x"},
		Localization: []search.Localization{
			search.LocAddress, search.LocAlias, search.LocContact,
		},
	})

	for _, frag := range []string{
		"Email_From ef", "EmailAddresses ea1", "Contacts c1", "Alias a1",
	} {
		if n := strings.Count(q.SQL, frag); n != 1 {
			t.Errorf("%q appears %d times:\n%s", frag, n, q.SQL)
		}
	}
}

func TestBuildEverywhereExpansion(t *testing.T) {
	everywhere := mustBuild(t, search.Request{
		Words:        []string{"x"},
		Localization: []search.Localization{search.LocEverywhere},
	})
	explicit := mustBuild(t, search.Request{
		Words: []string{"x"},
		Localization: []search.Localization{
			search.LocContact, search.LocAlias, search.LocAddress,
			search.LocSubject, search.LocBody,
			search.LocAttachmentName, search.LocAttachmentText,
		},
	})

	if diff := cmp.Diff(explicit, everywhere); diff != "" {
		t.Errorf("everywhere differs from explicit list (-explicit +everywhere):\n%s", diff)
	}
}

func TestBuildEverywhereOverridesOthers(t *testing.T) {
	mixed := mustBuild(t, search.Request{
		Words: []string{"x"},
		Localization: []search.Localization{
			search.LocSubject, search.LocEverywhere,
		},
	})
	everywhere := mustBuild(t, search.Request{
		Words:        []string{"x"},
		Localization: []search.Localization{search.LocEverywhere},
	})
	if diff := cmp.Diff(everywhere, mixed); diff != "" {
		t.Errorf("mixed localization did not collapse (-want +got):\n%s", diff)
	}
}

func TestBuildOptionalBucketOrs(t *testing.T) {
	q := mustBuild(t, search.Request{
		Addresses:       []string{"a@x.com"},
		AttachmentTypes: []string{"pdf"},
		StartDate:       int64p(5),
	})

	idx := strings.Index(q.SQL, "WHERE")
	if idx < 0 {
		t.Fatalf("no WHERE:\n%s", q.SQL)
	}
	where := q.SQL[idx:]
	if !strings.Contains(where, "(ts.timestamp >= ?) AND (") {
		t.Errorf("mandatory bucket not AND-ed in front:\n%s", where)
	}
	if !strings.Contains(where, ") OR (") {
		t.Errorf("optional categories not OR-ed:\n%s", where)
	}
	if !strings.Contains(where, "lower(a.filename) LIKE ?") {
		t.Errorf("missing attachment-type condition:\n%s", where)
	}
	if q.Args[len(q.Args)-1] != "%.pdf" {
		t.Errorf("args = %v", q.Args)
	}
}

func TestBuildBadOperator(t *testing.T) {
	_, err := search.Build(search.Request{
		Words:        []string{"x"},
		Localization: []search.Localization{search.LocSubject},
		WordOperator: "NOT",
	})
	if !errors.Is(err, search.ErrBadOperator) {
		t.Errorf("err = %v", err)
	}
}

func TestBuildOperatorCaseInsensitive(t *testing.T) {
	q := mustBuild(t, search.Request{
		Words:        []string{"a", "b"},
		Localization: []search.Localization{search.LocSubject},
		WordOperator: "and",
	})
	if !strings.Contains(q.SQL, ") AND (") {
		t.Errorf("sql = %q", q.SQL)
	}
}

func TestBuildBadLocalization(t *testing.T) {
	_, err := search.Build(search.Request{
		Words:        []string{"x"},
		Localization: []search.Localization{"header"},
	})
	if !errors.Is(err, search.ErrBadLocalization) {
		t.Errorf("err = %v", err)
	}
}
