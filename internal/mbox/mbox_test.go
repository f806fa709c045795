package mbox_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	gombox "github.com/emersion/go-mbox"

	"github.com/tvaillant/mailarch/internal/mbox"
	"github.com/tvaillant/mailarch/internal/testutil"
)

const twoMessages = "From alice@example.com Mon Jan  2 15:04:05 2006\n" +
	"From: alice@example.com\n" +
	"Subject: first\n" +
	"\n" +
	"body one\n" +
	"\n" +
	"From bob@example.com Mon Jan  2 16:04:05 2006\n" +
	"From: bob@example.com\n" +
	"Subject: second\n" +
	"\n" +
	"body two\n"

func TestForEachMessage(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "all.mbox", []byte(twoMessages))

	var subjects []string
	var indexes []int
	err := mbox.ForEachMessage(path, func(m *mbox.Message) error {
		indexes = append(indexes, m.Index)
		// The underlying reader normalizes line endings to CRLF.
		if !strings.Contains(string(m.Raw), "\r\n") {
			t.Errorf("message %d not CRLF-terminated: %q", m.Index, m.Raw)
		}
		for _, line := range strings.Split(string(m.Raw), "\n") {
			line = strings.TrimRight(line, "\r")
			if strings.HasPrefix(line, "Subject: ") {
				subjects = append(subjects, strings.TrimPrefix(line, "Subject: "))
			}
		}
		return nil
	})
	testutil.MustNoErr(t, err, "walk mbox")

	testutil.AssertStrings(t, subjects, "first", "second")
	if len(indexes) != 2 || indexes[0] != 0 || indexes[1] != 1 {
		t.Errorf("indexes = %v", indexes)
	}
}

func TestForEachMessageEmpty(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "empty.mbox", nil)

	count := 0
	err := mbox.ForEachMessage(path, func(*mbox.Message) error {
		count++
		return nil
	})
	testutil.MustNoErr(t, err, "walk empty mbox")
	if count != 0 {
		t.Errorf("count = %d", count)
	}
}

func TestForEachMessageCallbackError(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "all.mbox", []byte(twoMessages))

	count := 0
	err := mbox.ForEachMessage(path, func(*mbox.Message) error {
		count++
		return errStop
	})
	if err != errStop {
		t.Errorf("err = %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d", count)
	}
}

func TestForEachMessageMalformed(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "bad.mbox", []byte("not a container\n"))

	err := mbox.ForEachMessage(path, func(*mbox.Message) error {
		t.Error("callback invoked for malformed container")
		return nil
	})
	if !errors.Is(err, gombox.ErrInvalidFormat) {
		t.Errorf("err = %v, want ErrInvalidFormat", err)
	}
}

// failAfter yields its data, then fails every subsequent read.
type failAfter struct {
	data []byte
	err  error
}

func (r *failAfter) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestReaderSurfacesMidStreamError(t *testing.T) {
	errBoom := errors.New("boom")
	truncated := "From alice@example.com Mon Jan  2 15:04:05 2006\n" +
		"Subject: first\n" +
		"\n" +
		"body one\n" +
		"\n" +
		"From bob@example.com Mon Jan  2 16:04:05 2006\n" +
		"Subject: second\n"
	r := mbox.NewReader(&failAfter{data: []byte(truncated), err: errBoom})

	msg, err := r.Next()
	testutil.MustNoErr(t, err, "read first message")
	if msg.Index != 0 {
		t.Errorf("Index = %d, want 0", msg.Index)
	}

	_, err = r.Next()
	if errors.Is(err, io.EOF) || !errors.Is(err, errBoom) {
		t.Errorf("err = %v, want wrapped read failure", err)
	}
}

var errStop = &stopError{}

type stopError struct{}

func (*stopError) Error() string { return "stop" }
