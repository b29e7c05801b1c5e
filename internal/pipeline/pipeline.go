package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maxkimambo/prodcrew/internal/config"
	"github.com/maxkimambo/prodcrew/internal/logger"
	"github.com/maxkimambo/prodcrew/internal/report"
	"github.com/maxkimambo/prodcrew/internal/scoring"
	"github.com/maxkimambo/prodcrew/internal/store"
	"github.com/maxkimambo/prodcrew/internal/taskgraph"
)

// ProductStore indexes products found by a run.
type ProductStore interface {
	Insert(ctx context.Context, rec *store.ProductRecord) error
	FindDuplicate(ctx context.Context, name string, threshold float64) (*store.Duplicate, error)
}

// Product is one candidate extracted from the scoring task.
type Product struct {
	Candidate scoring.Candidate
	Verdict   scoring.Verdict
	// Duplicate is set when the store already held a similar product
	Duplicate *store.Duplicate
	// RecordID is the inserted row, empty when nothing was stored
	RecordID string
}

// Result is everything one run produced.
type Result struct {
	Report   *report.RunReport
	Persist  report.PersistResult
	Products []Product
}

type Option func(*Pipeline)

func WithObserver(o taskgraph.Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observers = append(p.observers, o)
		}
	}
}

// WithProductStore enables product extraction into s.
func WithProductStore(s ProductStore) Option {
	return func(p *Pipeline) {
		p.products = s
	}
}

func WithPersister(persister *report.Persister) Option {
	return func(p *Pipeline) {
		p.persister = persister
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// Pipeline runs a graph definition end to end: execution, aggregation,
// persistence and product indexing.
type Pipeline struct {
	cfg       *config.Config
	def       Definition
	executor  taskgraph.Executor
	observers []taskgraph.Observer
	products  ProductStore
	persister *report.Persister
	now       func() time.Time
}

// New creates a pipeline. Roles left empty in def fall back to cfg.
func New(cfg *config.Config, def Definition, executor taskgraph.Executor, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	if def.FinalTask == "" {
		def.FinalTask = cfg.Execution.FinalTask
	}
	if def.DecisionTask == "" {
		def.DecisionTask = cfg.Execution.DecisionTask
	}
	if def.ScoringTask == "" {
		def.ScoringTask = cfg.Execution.ScoringTask
	}

	p := &Pipeline{
		cfg:      cfg,
		def:      def,
		executor: executor,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Definition returns the definition the pipeline runs.
func (p *Pipeline) Definition() Definition {
	return p.def
}

// Run executes the graph. The returned Result always carries a report, even
// when the graph could not be built or the run stopped early; the error
// reports why.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	log := logger.Op.WithFields(map[string]interface{}{
		"run_id": runID,
		"tasks":  len(p.def.Tasks),
	})

	graph, err := taskgraph.NewGraph(p.def.Tasks)
	if err != nil {
		log.WithError(err).Error("Task graph rejected, nothing executed")
		res := &Result{Report: report.Aggregate(declared(p.def.Tasks), nil, p.reportOptions(runID, err))}
		p.persist(ctx, res)
		return res, err
	}

	runCtx := ctx
	if timeout := p.cfg.Execution.RunTimeout; timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	opts := []taskgraph.Option{taskgraph.WithClock(p.now)}
	for _, o := range p.observers {
		opts = append(opts, taskgraph.WithObserver(o))
	}
	ec, runErr := taskgraph.NewRunner(graph, p.executor, opts...).Run(runCtx)
	if runErr != nil {
		log.WithError(runErr).Warn("Run stopped early")
	}

	res := &Result{Report: report.Aggregate(graph, ec, p.reportOptions(runID, runErr))}
	p.persist(ctx, res)
	p.indexProducts(ctx, ec, res)

	log.WithFields(map[string]interface{}{
		"succeeded": res.Report.Stats.Succeeded,
		"failed":    res.Report.Stats.Failed + res.Report.Stats.Empty,
		"approved":  res.Report.Approved,
		"products":  len(res.Products),
	}).Info("Pipeline run finished")
	return res, runErr
}

func (p *Pipeline) reportOptions(runID string, runErr error) report.Options {
	return report.Options{
		RunID:        runID,
		Timestamp:    p.now(),
		FinalTask:    p.def.FinalTask,
		DecisionTask: p.def.DecisionTask,
		RunErr:       runErr,
	}
}

// persist writes the report even when ctx was cancelled mid-run.
func (p *Pipeline) persist(ctx context.Context, res *Result) {
	if p.persister == nil {
		return
	}
	res.Persist = p.persister.Persist(context.WithoutCancel(ctx), res.Report)
	for _, err := range res.Persist.Errors {
		logger.Op.WithFields(map[string]interface{}{
			"run_id": res.Report.RunID,
		}).WithError(err).Warn("Run artifact not persisted")
	}
}

// indexProducts stores the scored candidates. An explicit decision for a
// product overrides the criteria verdict.
func (p *Pipeline) indexProducts(ctx context.Context, ec *taskgraph.ExecutionContext, res *Result) {
	scored, ok := ec.Get(p.def.ScoringTask)
	if !ok || scored.Status != taskgraph.StatusSucceeded {
		return
	}
	candidates, err := scoring.ExtractProducts(scored.Output)
	if err != nil {
		logger.Op.WithFields(map[string]interface{}{
			"task": p.def.ScoringTask,
		}).WithError(err).Warn("No products found in scoring output")
		return
	}

	decisions := map[string]bool{}
	if decided, ok := ec.Get(p.def.DecisionTask); ok && decided.Status == taskgraph.StatusSucceeded {
		if parsed, err := scoring.ParseDecisions(decided.Output); err == nil {
			for _, d := range parsed {
				decisions[normalizeName(d.Name)] = d.Approved
			}
		}
	}

	criteria := scoring.Criteria{
		MinScore:         p.cfg.Scoring.MinApprovalScore,
		MinMarginPercent: p.cfg.Scoring.MinProfitMarginPercent,
	}
	ctx = context.WithoutCancel(ctx)
	for _, c := range candidates {
		product := Product{Candidate: c, Verdict: criteria.Evaluate(c)}
		if approved, ok := decisions[normalizeName(c.Name)]; ok {
			product.Verdict.Approved = approved
		}
		if p.products != nil {
			p.storeProduct(ctx, res.Report.RunID, &product)
		}
		res.Products = append(res.Products, product)
	}
}

func (p *Pipeline) storeProduct(ctx context.Context, runID string, product *Product) {
	log := logger.Op.WithFields(map[string]interface{}{
		"product": product.Candidate.Name,
	})

	dup, err := p.products.FindDuplicate(ctx, product.Candidate.Name, p.cfg.Scoring.DuplicateThreshold)
	if err != nil {
		log.WithError(err).Warn("Duplicate check failed")
		return
	}
	if dup != nil {
		product.Duplicate = dup
		logger.User.Warnf("Skipping %s: %.0f%% similar to %s", product.Candidate.Name, dup.Similarity*100, dup.Record.Name)
		return
	}

	payload, err := json.Marshal(struct {
		RunID     string            `json:"run_id"`
		Candidate scoring.Candidate `json:"candidate"`
		Verdict   scoring.Verdict   `json:"verdict"`
	}{runID, product.Candidate, product.Verdict})
	if err != nil {
		log.WithError(err).Warn("Failed to encode product")
		return
	}

	rec := &store.ProductRecord{
		Name:     product.Candidate.Name,
		Category: product.Candidate.Category,
		Payload:  payload,
		Score:    product.Verdict.Score,
		Approved: product.Verdict.Approved,
	}
	if err := p.products.Insert(ctx, rec); err != nil {
		log.WithError(err).Warn("Failed to store product")
		return
	}
	product.RecordID = rec.ID
	logger.User.Persistf("Stored product %s (score %.1f, approved: %t)", rec.Name, rec.Score, rec.Approved)
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// declared lays tasks out in declaration order for graphs that failed to build.
type declared []taskgraph.TaskSpec

func (d declared) Order() []string {
	ids := make([]string, 0, len(d))
	seen := make(map[string]bool, len(d))
	for _, t := range d {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		ids = append(ids, t.ID)
	}
	return ids
}

func (d declared) Task(id string) (taskgraph.TaskSpec, bool) {
	for _, t := range d {
		if t.ID == id {
			return t, true
		}
	}
	return taskgraph.TaskSpec{}, false
}
