package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tvaillant/mailarch/internal/classify"
	"github.com/tvaillant/mailarch/internal/mbox"
)

// walk discovers messages under root and hands them to emit. Directories are
// walked recursively; container files are split into their messages.
func (p *Pipeline) walk(ctx context.Context, root string, res *Result, emit func(Item) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		switch kind := classify.File(path); kind {
		case classify.Message:
			raw, err := os.ReadFile(path)
			if err != nil {
				res.Failed++
				p.log.Warn("skipping unreadable file", "path", path, "error", err)
				return nil
			}
			return emit(Item{Path: path, Raw: raw})

		case classify.Container:
			err := mbox.ForEachMessage(path, func(m *mbox.Message) error {
				return emit(Item{Path: path, Index: m.Index, Raw: m.Raw})
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				res.Failed++
				p.log.Warn("skipping container remainder", "path", path, "error", err)
			}
			return nil

		default:
			res.Skipped++
			p.log.Debug("skipping unrecognized file", "path", path)
			return nil
		}
	})
}
