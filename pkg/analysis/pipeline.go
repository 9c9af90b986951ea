package analysis

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"oss-clearance-be/internal/pkg/logger"
	"oss-clearance-be/pkg/items"
	"oss-clearance-be/pkg/llm"
	"oss-clearance-be/pkg/prompt"
	"oss-clearance-be/pkg/report"
	"oss-clearance-be/pkg/retrieval"
	"oss-clearance-be/pkg/store"
)

const defaultConcurrency = 4

// Pipeline builds the store of a new session from an uploaded report.
type Pipeline struct {
	reviewer    Reviewer
	risk        *RiskChecker
	dependency  *DependencyChecker
	concurrency int
	log         logger.ILogger
}

type Option func(*Pipeline)

// WithConcurrency bounds the parallel model calls of one run.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithReviewer replaces the license reviewer.
func WithReviewer(r Reviewer) Option {
	return func(p *Pipeline) {
		p.reviewer = r
	}
}

// NewPipeline wires the model backed checks. A nil provider runs the
// keyword rules only and skips the dependency check; a nil retriever runs
// without reference material.
func NewPipeline(provider llm.LLMProvider, catalog *prompt.Catalog, retriever retrieval.Retriever, log logger.ILogger, opts ...Option) *Pipeline {
	if retriever == nil {
		retriever = retrieval.Nop{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	p := &Pipeline{
		reviewer:    RuleReviewer{},
		risk:        NewRiskChecker(provider, catalog, retriever, log),
		dependency:  NewDependencyChecker(provider, catalog, retriever, log),
		concurrency: defaultConcurrency,
		log:         log,
	}
	if provider != nil {
		p.reviewer = NewLLMReviewer(provider, catalog, log)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run parses the report and runs every check. Cursors of the returned store
// are left for the session to initialize.
func (p *Pipeline) Run(ctx context.Context, html []byte) (*store.Store, error) {
	start := time.Now()
	doc, err := Parse(html)
	if err != nil {
		return nil, err
	}
	p.log.Info("ANALYSIS", "Parsed report", map[string]interface{}{
		"project":  doc.ProjectTitle(),
		"releases": len(doc.Releases),
		"licenses": len(doc.LicenseTexts),
	})

	risks, err := p.review(ctx, doc.LicenseTexts)
	if err != nil {
		return nil, fmt.Errorf("review licenses: %w", err)
	}
	checked, err := p.checkRisks(ctx, doc.LicenseTexts, risks)
	if err != nil {
		return nil, fmt.Errorf("check risks: %w", err)
	}
	dependent, err := p.checkDependencies(ctx, doc.Releases)
	if err != nil {
		return nil, fmt.Errorf("check dependencies: %w", err)
	}

	st := store.New()
	st.Document = doc
	st.RiskAnalysis = risks
	setList(st, items.KindLicense, checked)
	setList(st, items.KindComponent, dependent)
	setList(st, items.KindSpecialCheck, CollectSpecial(doc))
	setList(st, items.KindMainLicense, MainLicenseItems(doc))
	setList(st, items.KindCredential, CredentialItems(doc, risks))
	setList(st, items.KindProductComponent, ProductComponents(doc))

	p.log.Info("ANALYSIS", "Analysis finished", map[string]interface{}{
		"project":     doc.ProjectTitle(),
		"dependent":   len(dependent),
		"credential":  len(st.List(items.MustLookup(items.KindCredential).ItemsKey)),
		"special":     len(st.List(items.MustLookup(items.KindSpecialCheck).ItemsKey)),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return st, nil
}

func setList(st *store.Store, kind items.Kind, list []store.Item) {
	if list == nil {
		list = []store.Item{}
	}
	st.SetList(items.MustLookup(kind).ItemsKey, list)
}

// review rates every license text. Results keep the order of the texts.
func (p *Pipeline) review(ctx context.Context, texts []report.LicenseText) ([]report.RiskAssessment, error) {
	out := make([]report.RiskAssessment, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, lt := range texts {
		g.Go(func() error {
			ra, err := p.reviewer.Review(gctx, lt)
			if err != nil {
				return fmt.Errorf("%s: %w", lt.Title, err)
			}
			out[i] = ra
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) checkRisks(ctx context.Context, texts []report.LicenseText, risks []report.RiskAssessment) ([]store.Item, error) {
	out := make([]store.Item, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, lt := range texts {
		g.Go(func() error {
			item, err := p.risk.Check(gctx, lt, risks[i])
			if err != nil {
				return fmt.Errorf("%s: %w", lt.Title, err)
			}
			out[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// checkDependencies keeps only the releases reported as dependent, in
// report order.
func (p *Pipeline) checkDependencies(ctx context.Context, releases []report.Release) ([]store.Item, error) {
	found := make([]store.Item, len(releases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, rel := range releases {
		g.Go(func() error {
			item, dependent, err := p.dependency.Check(gctx, rel)
			if err != nil {
				return fmt.Errorf("%s: %w", rel.Name, err)
			}
			if dependent {
				found[i] = item
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []store.Item
	for _, it := range found {
		if it != nil {
			out = append(out, it)
		}
	}
	return out, nil
}
