// Package decode turns raw RFC 5322 message bytes into a field-level Record
// using enmime. It is the message-decoder collaborator consumed by the
// ingestion pipeline.
package decode

import (
	"bytes"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"

	"github.com/tvaillant/mailarch/internal/textutil"
)

// Address is a name/address pair from an address header.
type Address struct {
	Name    string
	Address string
}

// Attachment is a decoded attachment part. ExtractedText is filled in later
// by the text-extraction collaborator, not here.
type Attachment struct {
	Filename string
	Content  []byte
}

// Record is the decoded form of one message. Missing or unparseable fields
// are empty rather than errors: decoding is best-effort by contract.
type Record struct {
	Subject  string
	Body     string
	DateText string // the raw Date header, if present

	// Timestamp is the Date header as UTC epoch seconds. Valid only when
	// HasDate is true; a message without a parseable date is still a
	// complete record.
	Timestamp int64
	HasDate   bool

	From []Address
	To   []Address
	Cc   []Address
	Bcc  []Address

	Attachments []Attachment
}

// Decode parses raw message bytes. Malformed input yields a partial Record
// with empty fields, never an error: the pipeline stores what could be
// recovered.
func Decode(raw []byte) *Record {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return &Record{}
	}

	rec := &Record{
		Subject: textutil.EnsureUTF8(env.GetHeader("Subject")),
		Body:    textutil.EnsureUTF8(bodyText(env)),
		From:    addressList(env, "From"),
		To:      addressList(env, "To"),
		Cc:      addressList(env, "Cc"),
		Bcc:     addressList(env, "Bcc"),
	}

	if dateStr := env.GetHeader("Date"); dateStr != "" {
		rec.DateText = dateStr
		if t, ok := parseDate(dateStr); ok {
			rec.Timestamp = t.Unix()
			rec.HasDate = true
		}
	}

	rec.Attachments = append(rec.Attachments, attachmentParts(env.Attachments)...)
	rec.Attachments = append(rec.Attachments, attachmentParts(env.Inlines)...)

	return rec
}

// bodyText returns the best available body: plain text, else stripped HTML.
func bodyText(env *enmime.Envelope) string {
	if env.Text != "" {
		return env.Text
	}
	if env.HTML != "" {
		return textutil.StripHTML(env.HTML)
	}
	return ""
}

// addressList parses an address header via enmime, which copes with the
// usual malformed-header edge cases.
func addressList(env *enmime.Envelope, header string) []Address {
	list, err := env.AddressList(header)
	if err != nil || list == nil {
		return nil
	}

	addrs := make([]Address, 0, len(list))
	for _, a := range list {
		if a.Address == "" {
			continue
		}
		addrs = append(addrs, Address{
			Name:    textutil.EnsureUTF8(a.Name),
			Address: strings.ToLower(a.Address),
		})
	}
	return addrs
}

// isBodyPart reports whether a part is body content rather than an
// attachment: text/plain or text/html without a filename and without an
// explicit attachment disposition.
func isBodyPart(part *enmime.Part) bool {
	contentType := strings.ToLower(part.ContentType)
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if contentType != "text/plain" && contentType != "text/html" {
		return false
	}
	if part.FileName != "" {
		return false
	}
	disposition := strings.ToLower(part.Disposition)
	if idx := strings.Index(disposition, ";"); idx >= 0 {
		disposition = strings.TrimSpace(disposition[:idx])
	}
	return disposition != "attachment"
}

func attachmentParts(parts []*enmime.Part) []Attachment {
	var result []Attachment
	for _, part := range parts {
		if isBodyPart(part) {
			continue
		}
		if len(part.Content) == 0 {
			continue
		}
		result = append(result, Attachment{
			Filename: part.FileName,
			Content:  part.Content,
		})
	}
	return result
}

// dateFormats lists date layouts seen in real email exports, most common
// first.
var dateFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	"02 Jan 2006 15:04:05 -0700",
	"02 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	"Mon, 02 Jan 2006 15:04:05 -0700 (MST)",
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
}

// parseDate parses a Date header, normalizing to UTC. A trailing
// parenthesized timezone name is stripped first since most layouts reject it.
func parseDate(s string) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")

	baseStr := s
	if idx := strings.LastIndex(s, "("); idx > 0 {
		baseStr = strings.TrimSpace(s[:idx])
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, baseStr); err == nil {
			return t.UTC(), true
		}
	}
	if baseStr != s {
		for _, format := range dateFormats {
			if t, err := time.Parse(format, s); err == nil {
				return t.UTC(), true
			}
		}
	}

	return time.Time{}, false
}
