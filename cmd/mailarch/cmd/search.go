package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tvaillant/mailarch/internal/search"
)

var (
	searchContacts    []string
	searchAliases     []string
	searchAddresses   []string
	searchStartDate   string
	searchEndDate     string
	searchAttachTypes []string
	searchWhere       []string
	searchOperator    string
	searchShowSQL     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [word]...",
	Short: "Search the archive",
	Long: `Search the archive and print matching email identifiers.

Words are matched case-insensitively against the fields named by --where
(subject, body, address, alias, contact, attachment_name, attachment_text,
or everywhere). Other flags add filters; an email matching any filter is
returned, except dates, which always narrow the result.`,
	Example: `  mailarch search urgent deadline --where subject --where body --operator AND
  mailarch search --address alice@example.com --from-date 2006-01-01
  mailarch search invoice --where everywhere --attachment-type pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := search.Request{
			Aliases:         searchAliases,
			Addresses:       searchAddresses,
			AttachmentTypes: searchAttachTypes,
			Words:           args,
			WordOperator:    search.Operator(searchOperator),
		}

		if len(args) > 0 && len(searchWhere) == 0 {
			searchWhere = []string{string(search.LocEverywhere)}
		}
		for _, loc := range searchWhere {
			req.Localization = append(req.Localization, search.Localization(loc))
		}
		for _, c := range searchContacts {
			first, last, ok := splitContact(c)
			if !ok {
				return fmt.Errorf("contact %q must be \"first,last\"", c)
			}
			req.Contacts = append(req.Contacts, search.Contact{FirstName: first, LastName: last})
		}

		var err error
		if req.StartDate, err = parseDateFlag(searchStartDate, false); err != nil {
			return err
		}
		if req.EndDate, err = parseDateFlag(searchEndDate, true); err != nil {
			return err
		}

		q, err := search.Build(req)
		if err != nil {
			return err
		}
		if searchShowSQL {
			fmt.Printf("SQL: %s\nargs: %v\n", q.SQL, q.Args)
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ids, err := s.SelectEmailIDs(cmd.Context(), q.SQL, q.Args)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		for _, id := range ids {
			fmt.Println(id)
		}
		fmt.Printf("%d emails matched\n", len(ids))
		return nil
	},
}

// splitContact parses "first,last".
func splitContact(s string) (first, last string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

// parseDateFlag converts a YYYY-MM-DD flag to inclusive epoch-second bounds:
// start of day for --from-date, end of day for --to-date.
func parseDateFlag(value string, endOfDay bool) (*int64, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("date %q must be YYYY-MM-DD", value)
	}
	epoch := t.UTC().Unix()
	if endOfDay {
		epoch += 24*60*60 - 1
	}
	return &epoch, nil
}

func init() {
	searchCmd.Flags().StringArrayVar(&searchContacts, "contact", nil, "contact filter as \"first,last\" (repeatable)")
	searchCmd.Flags().StringArrayVar(&searchAliases, "alias", nil, "alias filter (repeatable)")
	searchCmd.Flags().StringArrayVar(&searchAddresses, "address", nil, "email address filter (repeatable)")
	searchCmd.Flags().StringVar(&searchStartDate, "from-date", "", "earliest date, YYYY-MM-DD")
	searchCmd.Flags().StringVar(&searchEndDate, "to-date", "", "latest date, YYYY-MM-DD")
	searchCmd.Flags().StringArrayVar(&searchAttachTypes, "attachment-type", nil, "attachment filename suffix, e.g. pdf (repeatable)")
	searchCmd.Flags().StringArrayVar(&searchWhere, "where", nil, "word localization (repeatable, default everywhere)")
	searchCmd.Flags().StringVar(&searchOperator, "operator", "OR", "combine words with AND or OR")
	searchCmd.Flags().BoolVar(&searchShowSQL, "show-sql", false, "print the generated statement")
	rootCmd.AddCommand(searchCmd)
}
