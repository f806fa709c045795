package classify_test

import (
	"testing"

	"github.com/tvaillant/mailarch/internal/classify"
	"github.com/tvaillant/mailarch/internal/testutil"
)

func TestFileByExtension(t *testing.T) {
	dir := t.TempDir()
	eml := testutil.WriteFile(t, dir, "msg.eml", []byte("binary-ish content, extension wins"))
	mbox := testutil.WriteFile(t, dir, "all.mbox", []byte("whatever"))

	if got := classify.File(eml); got != classify.Message {
		t.Errorf("eml = %v", got)
	}
	if got := classify.File(mbox); got != classify.Container {
		t.Errorf("mbox = %v", got)
	}
}

func TestFileSniff(t *testing.T) {
	dir := t.TempDir()
	container := testutil.WriteFile(t, dir, "export",
		[]byte("From alice@example.com Mon Jan  2 15:04:05 2006\nFrom: alice@example.com\n\nbody\n"))
	message := testutil.WriteFile(t, dir, "message",
		[]byte("From: alice@example.com\nSubject: hi\n\nbody\n"))
	junk := testutil.WriteFile(t, dir, "junk", []byte("this is not mail at all\n"))

	if got := classify.File(container); got != classify.Container {
		t.Errorf("container = %v", got)
	}
	if got := classify.File(message); got != classify.Message {
		t.Errorf("message = %v", got)
	}
	if got := classify.File(junk); got != classify.Unknown {
		t.Errorf("junk = %v", got)
	}
}

func TestFileMissing(t *testing.T) {
	if got := classify.File("/nonexistent/path"); got != classify.Unknown {
		t.Errorf("missing = %v", got)
	}
}
