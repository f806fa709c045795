// Package search translates a structured search request into a single SQL
// statement over the archive schema. The request struct is the public search
// contract; Build is the only way to produce the statement.
package search

import (
	"errors"
	"fmt"
	"strings"
)

// Operator combines per-word keyword groups in the WHERE clause.
type Operator string

const (
	OpAnd Operator = "AND"
	OpOr  Operator = "OR"
)

// Localization names the record fields a free-text word is matched against.
type Localization string

const (
	LocEverywhere     Localization = "everywhere"
	LocContact        Localization = "contact"
	LocAlias          Localization = "alias"
	LocAddress        Localization = "address"
	LocSubject        Localization = "subject"
	LocBody           Localization = "body"
	LocAttachmentName Localization = "attachment_name"
	LocAttachmentText Localization = "attachment_text"
)

// Validation errors, surfaced before any SQL is built.
var (
	ErrBadOperator     = errors.New("search: word operator must be AND or OR")
	ErrBadLocalization = errors.New("search: unknown word localization")
)

// Contact is a first/last name pair to filter on.
type Contact struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Request describes one search. Empty slices skip their filter category
// entirely; a request with no filters at all matches every email. Date
// bounds are inclusive epoch seconds.
type Request struct {
	Contacts        []Contact      `json:"contacts,omitempty"`
	Aliases         []string       `json:"aliases,omitempty"`
	Addresses       []string       `json:"addresses,omitempty"`
	StartDate       *int64         `json:"start_date,omitempty"`
	EndDate         *int64         `json:"end_date,omitempty"`
	AttachmentTypes []string       `json:"attachment_types,omitempty"`
	Words           []string       `json:"words,omitempty"`
	Localization    []Localization `json:"word_localization,omitempty"`
	WordOperator    Operator       `json:"word_operator,omitempty"`
}

// Query is a rendered statement with its bound parameters.
type Query struct {
	SQL  string
	Args []interface{}
}

// normalizeOperator validates the operator, defaulting empty to OR.
func normalizeOperator(op Operator) (Operator, error) {
	switch Operator(strings.ToUpper(string(op))) {
	case "":
		return OpOr, nil
	case OpAnd:
		return OpAnd, nil
	case OpOr:
		return OpOr, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBadOperator, op)
	}
}

// searchFields is every concrete localization a word can match against.
var searchFields = []Localization{
	LocContact, LocAlias, LocAddress, LocSubject, LocBody,
	LocAttachmentName, LocAttachmentText,
}

// normalizeLocalization validates the requested localizations and returns
// the active set. Everywhere overrides everything else in the same request
// and expands to the full field list.
func normalizeLocalization(locs []Localization) (map[Localization]bool, error) {
	for _, loc := range locs {
		if loc == LocEverywhere {
			active := make(map[Localization]bool, len(searchFields))
			for _, f := range searchFields {
				active[f] = true
			}
			return active, nil
		}
	}

	active := make(map[Localization]bool, len(locs))
	for _, loc := range locs {
		valid := false
		for _, f := range searchFields {
			if loc == f {
				valid = true
				break
			}
		}
		if !valid {
			return nil, fmt.Errorf("%w: %q", ErrBadLocalization, loc)
		}
		active[loc] = true
	}
	return active, nil
}
