// Package mbox splits mbox container files into raw per-message byte slices.
package mbox

import (
	"errors"
	"fmt"
	"io"
	"os"

	gombox "github.com/emersion/go-mbox"
)

// Message is one entry of a container, with its zero-based position.
type Message struct {
	Index int
	Raw   []byte
}

// Reader iterates over messages in an mbox stream. It is not safe for
// concurrent use.
type Reader struct {
	inner *gombox.Reader
	index int
}

// NewReader wraps an mbox stream.
func NewReader(r io.Reader) *Reader {
	return &Reader{inner: gombox.NewReader(r)}
}

// Next returns the next message, or io.EOF when the container is exhausted.
func (r *Reader) Next() (*Message, error) {
	mr, err := r.inner.NextMessage()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read mbox entry %d: %w", r.index, err)
	}

	raw, err := io.ReadAll(mr)
	if err != nil {
		return nil, fmt.Errorf("read mbox entry %d: %w", r.index, err)
	}

	msg := &Message{Index: r.index, Raw: raw}
	r.index++
	return msg, nil
}

// ForEachMessage opens path and calls fn with each raw message. An error from
// fn stops the walk. A read error mid-container also stops it and is returned,
// so callers can record the loss; messages already yielded stand.
func ForEachMessage(path string, fn func(*Message) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open mbox %s: %w", path, err)
	}
	defer f.Close()

	r := NewReader(f)
	for {
		msg, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
}
