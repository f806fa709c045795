// Package ingest drives the archive pipeline: it walks input paths, splits
// containers into messages, and writes decoded records into the store
// through a bounded worker pool.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tvaillant/mailarch/internal/decode"
	"github.com/tvaillant/mailarch/internal/extract"
	"github.com/tvaillant/mailarch/internal/identity"
	"github.com/tvaillant/mailarch/internal/normalize"
	"github.com/tvaillant/mailarch/internal/store"
)

const (
	defaultWorkers   = 4
	defaultBatchSize = 800
)

// Item is one unit of work: the raw bytes of a single message and where they
// came from. Index distinguishes messages from the same container file.
type Item struct {
	Path  string
	Index int
	Raw   []byte
}

// Result accumulates pipeline counters across batches.
type Result struct {
	Processed int64
	Failed    int64
	Skipped   int64 // files the classifier could not place
	Batches   int64
}

// Options tunes the pipeline. Zero values select the defaults.
type Options struct {
	Workers   int
	BatchSize int

	// Progress, when set, is called after each completed batch with the
	// running totals.
	Progress func(Result)
}

// Pipeline ingests messages into a store. Safe to reuse across runs; each
// run's counters are independent.
type Pipeline struct {
	store     *store.Store
	log       *slog.Logger
	workers   int
	batchSize int
	progress  func(Result)
}

func New(st *store.Store, logger *slog.Logger, opts Options) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &Pipeline{
		store:     st,
		log:       logger,
		workers:   opts.Workers,
		batchSize: opts.BatchSize,
		progress:  opts.Progress,
	}
}

// IngestPaths walks the given files and directories and ingests every
// message found. Per-message failures are logged and counted, never fatal;
// only context cancellation or an unreadable root stops the run early.
func (p *Pipeline) IngestPaths(ctx context.Context, paths []string) (Result, error) {
	var res Result
	batch := make([]Item, 0, p.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		processed, failed := p.processBatch(ctx, batch)
		res.Processed += processed
		res.Failed += failed
		res.Batches++
		if p.progress != nil {
			p.progress(res)
		}
		batch = batch[:0]
		return ctx.Err()
	}

	emit := func(item Item) error {
		batch = append(batch, item)
		if len(batch) >= p.batchSize {
			return flush()
		}
		return nil
	}

	for _, root := range paths {
		if err := p.walk(ctx, root, &res, emit); err != nil {
			return res, err
		}
	}
	if err := flush(); err != nil {
		return res, err
	}
	return res, nil
}

// processBatch drains one batch through the worker pool and waits for every
// worker to finish before returning. Workers share nothing but the store.
func (p *Pipeline) processBatch(ctx context.Context, items []Item) (processed, failed int64) {
	var proc, fail atomic.Int64

	work := make(chan Item)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			for item := range work {
				if err := p.processOne(item); err != nil {
					fail.Add(1)
					p.log.Warn("skipping message",
						"path", item.Path,
						"index", item.Index,
						"error", err)
					continue
				}
				proc.Add(1)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(work)
		for _, item := range items {
			select {
			case work <- item:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	// Workers never return errors for per-message failures, so Wait only
	// reports cancellation; the partial counters remain valid either way.
	_ = g.Wait()

	return proc.Load(), fail.Load()
}

// processOne runs the per-record algorithm for a single message. Every write
// is idempotent and scoped to this message's own rows, so a failed record is
// always safe to retry later.
func (p *Pipeline) processOne(item Item) error {
	id, err := identity.Hash(item.Raw)
	if err != nil {
		return fmt.Errorf("content identity: %w", err)
	}

	rec := decode.Decode(item.Raw)

	err = p.store.UpsertEmail(id, &store.Email{
		Filepath: item.Path,
		Filename: normalize.Filename(item.Path),
		Subject:  rec.Subject,
		Body:     rec.Body,
	})
	if err != nil {
		return err
	}

	if err := p.storeAliases(rec); err != nil {
		return err
	}
	if err := p.linkAddresses(id, rec); err != nil {
		return err
	}
	if err := p.linkTimestamp(id, rec); err != nil {
		return err
	}
	return p.linkAttachments(id, rec)
}

// storeAliases records every display name seen in any role. Duplicate names
// across roles collapse to one row.
func (p *Pipeline) storeAliases(rec *decode.Record) error {
	seen := make(map[string]struct{})
	for _, list := range [][]decode.Address{rec.From, rec.To, rec.Cc, rec.Bcc} {
		for _, addr := range list {
			name := normalize.DisplayName(addr.Name)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			if _, _, err := p.store.InsertAlias(name); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) linkAddresses(emailID string, rec *decode.Record) error {
	roles := []struct {
		rel   store.Relation
		addrs []decode.Address
	}{
		{store.EmailFrom, rec.From},
		{store.EmailTo, rec.To},
		{store.EmailCc, rec.Cc},
		{store.EmailBcc, rec.Bcc},
	}
	for _, role := range roles {
		ids := make([]interface{}, 0, len(role.addrs))
		for _, addr := range role.addrs {
			addrID, _, err := p.store.InsertEmailAddress(addr.Address)
			if err != nil {
				return err
			}
			ids = append(ids, addrID)
		}
		if err := p.store.Link(role.rel, emailID, ids...); err != nil {
			return err
		}
	}
	return nil
}

// linkTimestamp links the parsed date, if any. A message without a parseable
// date is stored without a timestamp link.
func (p *Pipeline) linkTimestamp(emailID string, rec *decode.Record) error {
	if !rec.HasDate {
		return nil
	}
	tsID, _, err := p.store.InsertTimestamp(rec.Timestamp)
	if err != nil {
		return err
	}
	return p.store.Link(store.EmailTimestamp, emailID, tsID)
}

func (p *Pipeline) linkAttachments(emailID string, rec *decode.Record) error {
	ids := make([]interface{}, 0, len(rec.Attachments))
	for _, att := range rec.Attachments {
		attID, err := identity.Hash(att.Content)
		if err != nil {
			p.log.Warn("skipping attachment",
				"filename", att.Filename,
				"error", err)
			continue
		}

		var extracted sql.NullString
		if text, ok := extract.Text(att.Filename, att.Content); ok {
			extracted = sql.NullString{String: text, Valid: true}
		}

		err = p.store.UpsertAttachment(attID, &store.Attachment{
			Filename:      att.Filename,
			Content:       att.Content,
			ExtractedText: extracted,
		})
		if err != nil {
			return err
		}
		ids = append(ids, attID)
	}
	return p.store.Link(store.EmailAttachments, emailID, ids...)
}
