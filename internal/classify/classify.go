// Package classify decides how an input file should be ingested: as a single
// message, as a container of messages, or not at all.
package classify

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the ingestion treatment for a file.
type Kind int

const (
	// Unknown files are skipped by the pipeline.
	Unknown Kind = iota
	// Message files hold exactly one raw message.
	Message
	// Container files hold a sequence of messages (mbox).
	Container
)

func (k Kind) String() string {
	switch k {
	case Message:
		return "message"
	case Container:
		return "container"
	default:
		return "unknown"
	}
}

// File classifies a path by extension, falling back to a content sniff for
// extensionless or ambiguous names.
func File(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".eml":
		return Message
	case ".mbox", ".mbx":
		return Container
	}
	return sniff(path)
}

// sniff reads the first line: mbox containers start with an mbox From_
// separator, and bare messages start with a header line.
func sniff(path string) Kind {
	f, err := os.Open(path)
	if err != nil {
		return Unknown
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return Unknown
	}
	line = bytes.TrimRight(line, "\r\n")

	if bytes.HasPrefix(line, []byte("From ")) {
		return Container
	}
	if looksLikeHeader(line) {
		return Message
	}
	return Unknown
}

// looksLikeHeader reports whether a line matches "Name: value" with a
// token-safe header name.
func looksLikeHeader(line []byte) bool {
	idx := bytes.IndexByte(line, ':')
	if idx <= 0 {
		return false
	}
	for _, b := range line[:idx] {
		if b <= ' ' || b == ':' {
			return false
		}
	}
	return true
}
