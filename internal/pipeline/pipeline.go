// Package pipeline runs one report: ingest the source, summarize it, then
// compose and persist the workbook and the HTML page.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/tabreport/internal/htmlreport"
	"github.com/KaramelBytes/tabreport/internal/ingest"
	"github.com/KaramelBytes/tabreport/internal/logging"
	"github.com/KaramelBytes/tabreport/internal/stats"
	"github.com/KaramelBytes/tabreport/internal/table"
	"github.com/KaramelBytes/tabreport/internal/utils"
	"github.com/KaramelBytes/tabreport/internal/workbook"
)

// DefaultBudget is the soft time target for a whole run.
const DefaultBudget = 3 * time.Second

// State is a pipeline stage. A run moves strictly forward through them.
type State int

const (
	Idle State = iota
	Ingesting
	Summarizing
	Composing
	Persisted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ingesting:
		return "ingesting"
	case Summarizing:
		return "summarizing"
	case Composing:
		return "composing"
	case Persisted:
		return "persisted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrAlreadyRun is returned when Run is called on a used pipeline.
var ErrAlreadyRun = errors.New("pipeline already run")

// StageError reports the stage at which a run aborted.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Config wires the components of a run.
type Config struct {
	Ingest   ingest.Options
	Workbook workbook.Options
	HTML     htmlreport.Options
	// Budget is the soft time limit; exceeding it is reported, not fatal.
	Budget time.Duration
	// Parallel composes the workbook and the page concurrently.
	Parallel bool
	Logger   *slog.Logger
}

// DefaultConfig returns the built-in settings with logging discarded.
func DefaultConfig() Config {
	return Config{
		Workbook: workbook.DefaultOptions(),
		HTML:     htmlreport.DefaultOptions(),
		Budget:   DefaultBudget,
		Logger:   logging.Discard(),
	}
}

// Artifacts describes a finished run.
type Artifacts struct {
	WorkbookPath string
	HTMLPath     string
	RunID        string
	Rows         int
	Cols         int
	Elapsed      time.Duration
	OverBudget   bool
}

// Pipeline is a single-use report run.
type Pipeline struct {
	cfg Config

	mu    sync.Mutex
	state State
}

// New returns an idle pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Budget <= 0 {
		cfg.Budget = DefaultBudget
	}
	return &Pipeline{cfg: cfg}
}

// State returns the stage the pipeline has reached.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) enter(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Generate runs a fresh pipeline with cfg.
func Generate(ctx context.Context, cfg Config, src ingest.Source, xlsxPath, htmlPath string) (*Artifacts, error) {
	return New(cfg).Run(ctx, src, xlsxPath, htmlPath)
}

// Run executes every stage in order. The context is checked between stages
// only; a stage in progress runs to completion. Artifacts persisted before a
// failure are left on disk.
func (p *Pipeline) Run(ctx context.Context, src ingest.Source, xlsxPath, htmlPath string) (*Artifacts, error) {
	p.mu.Lock()
	if p.state != Idle {
		p.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	p.mu.Unlock()

	start := time.Now()
	runID := uuid.NewString()
	log := p.cfg.Logger.With(slog.String("run_id", runID))

	if utils.SamePath(xlsxPath, htmlPath) {
		log.Warn("workbook and html share an output path; the last write wins", slog.String("path", xlsxPath))
	}

	p.enter(Ingesting)
	t, err := ingest.Ingest(src, p.cfg.Ingest)
	if err != nil {
		return nil, &StageError{Stage: Ingesting, Err: err}
	}
	log.Debug("stage done", slog.String("stage", Ingesting.String()),
		slog.Int("rows", t.Rows()), slog.Int("cols", t.NumCols()),
		slog.Duration("elapsed", time.Since(start)))
	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: Ingesting, Err: err}
	}

	p.enter(Summarizing)
	s, err := stats.Summarize(t)
	switch {
	case errors.Is(err, stats.ErrNoData):
		log.Info("no numeric data; statistics and charts omitted", slog.String("reason", err.Error()))
		s = nil
	case err != nil:
		return nil, &StageError{Stage: Summarizing, Err: err}
	}
	log.Debug("stage done", slog.String("stage", Summarizing.String()), slog.Duration("elapsed", time.Since(start)))
	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: Summarizing, Err: err}
	}

	p.enter(Composing)
	if err := p.compose(ctx, t, s, runID, xlsxPath, htmlPath, log); err != nil {
		return nil, &StageError{Stage: Composing, Err: err}
	}
	p.enter(Persisted)

	elapsed := time.Since(start)
	out := &Artifacts{
		WorkbookPath: xlsxPath,
		HTMLPath:     htmlPath,
		RunID:        runID,
		Rows:         t.Rows(),
		Cols:         t.NumCols(),
		Elapsed:      elapsed,
		OverBudget:   elapsed > p.cfg.Budget,
	}
	if out.OverBudget {
		log.Warn("report exceeded time budget", slog.Duration("elapsed", elapsed), slog.Duration("budget", p.cfg.Budget))
	} else {
		log.Info("report generated", slog.Duration("elapsed", elapsed),
			slog.String("workbook", xlsxPath), slog.String("html", htmlPath))
	}
	return out, nil
}

func (p *Pipeline) compose(ctx context.Context, t *table.Table, s *stats.Summary, runID, xlsxPath, htmlPath string, log *slog.Logger) error {
	writeWorkbook := func() error {
		start := time.Now()
		opt := p.cfg.Workbook
		opt.RunID = runID
		c, err := workbook.Compose(t, s, opt)
		if err != nil {
			return fmt.Errorf("compose workbook: %w", err)
		}
		defer c.Close()
		if err := c.Save(xlsxPath); err != nil {
			return err
		}
		log.Debug("workbook saved", slog.String("path", xlsxPath), slog.Duration("elapsed", time.Since(start)))
		return nil
	}
	writeHTML := func() error {
		start := time.Now()
		opt := p.cfg.HTML
		opt.RunID = runID
		c := htmlreport.NewComposer(opt)
		c.SetData(t, s)
		if err := c.Save(htmlPath); err != nil {
			return fmt.Errorf("compose html: %w", err)
		}
		log.Debug("html saved", slog.String("path", htmlPath), slog.Duration("elapsed", time.Since(start)))
		return nil
	}

	if !p.cfg.Parallel {
		if err := writeWorkbook(); err != nil {
			return err
		}
		return writeHTML()
	}
	g, _ := errgroup.WithContext(ctx)
	g.Go(writeWorkbook)
	g.Go(writeHTML)
	return g.Wait()
}
