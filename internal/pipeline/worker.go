package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docoutline/internal/hierarchy"
	"github.com/dgallion1/docoutline/internal/parser"
	"github.com/dgallion1/docoutline/internal/pathstore"
	"github.com/dgallion1/docoutline/internal/store"
	"github.com/dgallion1/docoutline/internal/version"
)

// Worker processes a single document job.
type Worker struct {
	engine     *hierarchy.Engine
	store      *store.Store
	publisher  *pathstore.Publisher // nil disables publication
	stats      *BuildStats
	parserOpts parser.Options
	log        *slog.Logger

	backoff func(attempt int) time.Duration
}

func NewWorker(engine *hierarchy.Engine, st *store.Store, pub *pathstore.Publisher, stats *BuildStats, opts parser.Options, log *slog.Logger) *Worker {
	return &Worker{
		engine:     engine,
		store:      st,
		publisher:  pub,
		stats:      stats,
		parserOpts: opts,
		log:        log,
		backoff:    Backoff,
	}
}

// Process runs parse, build, store and publish for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)
	data := job.FileData()
	defer job.SetFileData(nil)

	// Phase 1: Dedup on the raw bytes.
	snap := job.Snapshot()
	hash := ContentHashHex(data)
	job.SetSource(snap.Title, hash)
	existing, err := w.store.FindByHash(ctx, hash)
	switch {
	case err == nil:
		log.Info("duplicate document, skipping", "existing_doc_id", existing.ID)
		job.SetDuplicate(existing.ID)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	case !errors.Is(err, store.ErrNotFound):
		log.Warn("dedup check failed, proceeding", "error", err)
	}

	// Phase 2: Parse into spans.
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(snap.Filename, w.parserOpts)
	if err != nil {
		w.fail(log, job, "parsing", err)
		return
	}
	doc, err := p.Parse(bytes.NewReader(data), snap.Filename)
	if err != nil {
		w.fail(log, job, "parsing", fmt.Errorf("parse: %w", err))
		return
	}
	title := snap.Title
	if title == "" {
		title = doc.Title
		job.SetSource(title, hash)
	}
	if len(doc.Spans) == 0 {
		w.fail(log, job, "parsing", errors.New("no extractable text"))
		return
	}

	// Phase 3: Build the outline.
	job.SetStatus(StatusBuilding, "building")
	res := w.engine.Build(doc.Spans)
	nodes := res.Forest.Count()
	job.SetBuild(res.Pages, res.Blocks, nodes, len(res.Warnings))
	w.stats.Record(res.Duration, res.Pages, nodes)
	log.Info("outline built",
		"pages", res.Pages,
		"blocks", res.Blocks,
		"nodes", nodes,
		"warnings", len(res.Warnings),
		"duration_ms", res.Duration.Milliseconds(),
	)

	// Phase 4: Persist.
	job.SetStatus(StatusStoring, "storing")
	env := hierarchy.NewDocument(job.DocID, title, res, version.Parser)
	env.Processing.Source = snap.Filename
	info := store.DocumentInfo{
		ID:          job.DocID,
		Title:       title,
		Filename:    snap.Filename,
		ContentHash: hash,
		Pages:       res.Pages,
		CreatedAt:   snap.CreatedAt,
	}
	err = w.store.Save(ctx, info, res.Forest, res.Warnings, env.Processing)
	if errors.Is(err, store.ErrDuplicate) {
		// Another job stored the same bytes after our dedup check.
		if existing, ferr := w.store.FindByHash(ctx, hash); ferr == nil {
			log.Info("duplicate document stored concurrently, skipping", "existing_doc_id", existing.ID)
			job.SetDuplicate(existing.ID)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		}
	}
	if err != nil {
		w.fail(log, job, "storing", err)
		return
	}

	// Phase 5: Publish.
	if w.publisher == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}
	job.SetStatus(StatusPublishing, "publishing")
	n, err := w.publish(ctx, log, job.DocID, title, res)
	job.SetPublished(n)
	if err != nil {
		log.Error("publish failed", "error", err, "published", n)
		job.AddError(fmt.Sprintf("publish: %s", err))
		job.SetStatus(StatusPartial, "done")
		return
	}
	log.Info("outline published", "nodes", n)
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) publish(ctx context.Context, log *slog.Logger, docID, title string, res *hierarchy.Result) (int, error) {
	var n int
	err := retry(ctx, log, w.backoff, func() error {
		var err error
		n, err = w.publisher.Publish(ctx, docID, title, res.Forest)
		return err
	})
	return n, err
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase string, err error) {
	log.Error("job failed", "phase", phase, "error", err)
	w.stats.RecordFailure()
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
}
