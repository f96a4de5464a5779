package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"MediaScope/internal/aggregate"
	"MediaScope/internal/domain"
	"MediaScope/internal/extract"
	"MediaScope/internal/fetcher"
	"MediaScope/internal/locator"
	"MediaScope/internal/metrics"
	"MediaScope/internal/ports"
)

// state tracks the per-request progression. States advance strictly
// forward; FAILED is reachable from any non-terminal state.
type state string

const (
	stateLocating    state = "LOCATING"
	stateFetching    state = "FETCHING"
	stateExtracting  state = "EXTRACTING"
	stateAggregating state = "AGGREGATING"
	stateDone        state = "DONE"
	stateFailed      state = "FAILED"
)

// Deps wires all collaborators into the orchestrator.
type Deps struct {
	Locator    *locator.Locator
	Fetcher    *fetcher.Fetcher
	Extractors *extract.Registry
	History    ports.HistoryRepository
	Translator ports.Translator
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	Workers    int
}

// Pipeline composes locate, fetch, extract and aggregate for one request,
// owns temp-resource lifecycle, and maps every failure into the typed error
// taxonomy. It holds no cross-request mutable state.
type Pipeline struct {
	locator    *locator.Locator
	fetcher    *fetcher.Fetcher
	extractors *extract.Registry
	history    ports.HistoryRepository
	translator ports.Translator
	metrics    *metrics.Metrics
	logger     *slog.Logger
	workers    int
}

// Outcome is one item's terminal result inside a batch.
type Outcome struct {
	Result *domain.AnalysisResult
	Err    error
}

// New constructs the orchestrator.
func New(deps Deps) *Pipeline {
	workers := deps.Workers
	if workers < 1 {
		workers = 4
	}
	return &Pipeline{
		locator:    deps.Locator,
		fetcher:    deps.Fetcher,
		extractors: deps.Extractors,
		history:    deps.History,
		translator: deps.Translator,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		workers:    workers,
	}
}

// Analyze runs the full pipeline for a single input. The returned error is
// always a *domain.Error; any temp resource acquired along the way is
// released before return on every path.
func (p *Pipeline) Analyze(ctx context.Context, in domain.Input, opts domain.Options) (*domain.AnalysisResult, error) {
	opts = opts.Normalize()
	requestID := uuid.NewString()
	started := time.Now()

	result, err := p.run(ctx, requestID, in, opts, started)
	if err != nil {
		perr := domain.Internalize(domain.StageLocate, err)
		p.observe(nil, "error")
		p.warn("analysis failed",
			"requestId", requestID, "input", in.DisplayName(),
			"code", perr.Code, "stage", perr.Stage, "error", err)
		return nil, perr
	}

	p.observe(result, "ok")
	p.persist(ctx, in, result, opts)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, requestID string, in domain.Input, opts domain.Options, started time.Time) (*domain.AnalysisResult, error) {
	current := stateLocating
	p.debug("state", "requestId", requestID, "state", current)

	family, err := p.timedLocate(ctx, in)
	if err != nil {
		return nil, p.fail(requestID, current, err)
	}

	current = stateFetching
	p.debug("state", "requestId", requestID, "state", current, "family", family)

	resource, err := p.timedFetch(ctx, in, family)
	if err != nil {
		return nil, p.fail(requestID, current, err)
	}
	defer func() {
		if closeErr := resource.Close(); closeErr != nil {
			p.warn("release resource", "requestId", requestID, "error", closeErr)
		}
	}()

	current = stateExtracting
	p.debug("state", "requestId", requestID, "state", current)

	findings, err := p.timedExtract(ctx, family, resource, opts)
	if err != nil {
		return nil, p.fail(requestID, current, err)
	}

	current = stateAggregating
	p.debug("state", "requestId", requestID, "state", current)

	result := aggregate.Aggregate(requestID, findings, opts, time.Since(started))
	result.SourceName = resource.Name
	result.SourceTag = opts.SourceTag
	p.translate(result, opts)

	current = stateDone
	p.debug("state", "requestId", requestID, "state", current, "elapsed", result.Elapsed)
	return result, nil
}

// AnalyzeBatch fans out independent pipeline instances over a bounded
// worker pool. One item's failure never aborts its siblings; the caller
// receives a per-item outcome array in input order.
func (p *Pipeline) AnalyzeBatch(ctx context.Context, inputs []domain.Input, opts domain.Options) []Outcome {
	outcomes := make([]Outcome, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			result, err := p.Analyze(gctx, in, opts)
			outcomes[i] = Outcome{Result: result, Err: err}
			return nil
		})
	}
	// Workers always return nil; Wait only synchronizes completion.
	_ = g.Wait()

	return outcomes
}

func (p *Pipeline) timedLocate(ctx context.Context, in domain.Input) (domain.ContentFamily, error) {
	started := time.Now()
	defer func() { p.metrics.ObserveStage("locate", time.Since(started)) }()
	return p.locator.Classify(ctx, in)
}

func (p *Pipeline) timedFetch(ctx context.Context, in domain.Input, family domain.ContentFamily) (*domain.Resource, error) {
	started := time.Now()
	defer func() { p.metrics.ObserveStage("fetch", time.Since(started)) }()
	return p.fetcher.Fetch(ctx, in, family)
}

func (p *Pipeline) timedExtract(ctx context.Context, family domain.ContentFamily, res *domain.Resource, opts domain.Options) (*domain.Findings, error) {
	started := time.Now()
	defer func() { p.metrics.ObserveStage("extract", time.Since(started)) }()

	extractor, err := p.extractors.Resolve(family)
	if err != nil {
		return nil, domain.WrapError(domain.CodeUnsupportedContent, domain.StageExtract, "resolve extractor", err)
	}
	return extractor.Analyze(ctx, res, opts)
}

// translate fills localized labels; translator failure degrades to the raw
// label and never fails the request.
func (p *Pipeline) translate(result *domain.AnalysisResult, opts domain.Options) {
	for i := range result.Labels {
		result.Labels[i].Translated = result.Labels[i].Label
		if !opts.Translate || p.translator == nil {
			continue
		}
		localized, err := p.translator.Translate(result.Labels[i].Label)
		if err != nil || localized == "" {
			continue
		}
		result.Labels[i].Translated = localized
	}
}

// persist records the successful result; failures are logged, never
// surfaced, and failed analyses are never written.
func (p *Pipeline) persist(ctx context.Context, in domain.Input, result *domain.AnalysisResult, opts domain.Options) {
	if p.history == nil {
		return
	}

	row := domain.HistoryRow{
		CreatedAt: result.CompletedAt,
		RequestID: result.RequestID,
		Name:      in.DisplayName(),
		Family:    result.Family,
		Source:    opts.SourceTag,
	}
	if len(result.Labels) > 0 {
		row.TopLabel = result.Labels[0].Label
		row.TopConfidence = result.Labels[0].Score
	}

	if err := p.history.Save(ctx, row); err != nil {
		p.warn("persist history row", "requestId", result.RequestID, "error", err)
	}
}

func (p *Pipeline) fail(requestID string, from state, err error) error {
	p.debug("state", "requestId", requestID, "state", stateFailed, "from", from)
	return err
}

func (p *Pipeline) observe(result *domain.AnalysisResult, outcome string) {
	family := string(domain.FamilyUnsupported)
	if result != nil {
		family = string(result.Family)
	}
	p.metrics.ObserveRequest(family, outcome)
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
