// Package analysis runs the analog pipeline for one series:
// match, project, estimate, score and size.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"analog-lab/internal/analog"
	"analog-lab/internal/decision"
	"analog-lab/internal/distribution"
	"analog-lab/internal/domain"
	"analog-lab/internal/idhash"
	"analog-lab/internal/lookup"
	"analog-lab/internal/regime"
	"analog-lab/internal/storage"
)

// Analyzer produces one AnalysisResult per configured horizon.
// It keeps no state between calls and is safe for concurrent use.
type Analyzer struct {
	cfg        domain.AnalysisConfig
	weights    decision.ConfidenceWeights
	sizer      *decision.Sizer
	classifier *regime.Classifier
	store      storage.AnalysisResultStore
	now        func() time.Time
}

// Options contains configuration for creating an Analyzer.
// Sizer, Classifier and ResultStore are optional: without a sizer results carry
// no advice, without a classifier advice carries no regime, without a store
// nothing is persisted.
type Options struct {
	Config      domain.AnalysisConfig
	Weights     decision.ConfidenceWeights
	Sizer       *decision.Sizer
	Classifier  *regime.Classifier
	ResultStore storage.AnalysisResultStore
	Now         func() time.Time
}

// NewAnalyzer validates the configuration and creates an analyzer.
func NewAnalyzer(opts Options) (*Analyzer, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Weights.Validate(); err != nil {
		return nil, err
	}

	a := &Analyzer{
		cfg:        opts.Config,
		weights:    opts.Weights,
		sizer:      opts.Sizer,
		classifier: opts.Classifier,
		store:      opts.ResultStore,
		now:        opts.Now,
	}
	if a.now == nil {
		a.now = func() time.Time { return time.Now().UTC() }
	}
	return a, nil
}

// Config returns the analysis configuration.
func (a *Analyzer) Config() domain.AnalysisConfig {
	return a.cfg
}

// Compute runs the pipeline over series without persisting anything.
// Steps:
//  1. Validate the series
//  2. Find analogs of the reference price
//  3. Project forward returns for every horizon
//  4. Estimate the distribution and drawdowns per horizon
//  5. Score confidence
//  6. Size a position when a sizer is configured
//
// An empty match set yields Insufficient stats, not an error.
func (a *Analyzer) Compute(series *domain.PriceSeries) ([]*domain.AnalysisResult, error) {
	// 1. Validate
	if err := series.Validate(); err != nil {
		return nil, err
	}

	// 2. Match
	matches, err := analog.FindMatches(series, analog.MatchParams{
		ReferencePrice: a.cfg.ReferencePrice,
		Tolerance:      a.cfg.Tolerance,
		ExclusionDays:  a.cfg.ExclusionDays,
	})
	if err != nil {
		return nil, err
	}

	// 3. Project
	projection, err := analog.ProjectForwardReturns(series, matches, a.cfg.Horizons)
	if err != nil {
		return nil, err
	}

	reg := domain.RegimeUnknown
	if a.sizer != nil && a.classifier != nil {
		reg = a.classifier.Classify(series).Regime
	}

	last := series.Last()
	results := make([]*domain.AnalysisResult, 0, len(projection))
	for _, h := range analog.SortedHorizons(projection) {
		// 4. Estimate
		st := distribution.EstimateHorizon(series, projection[h], distribution.Params{
			Horizon:       h,
			RiskFreeDaily: a.cfg.RiskFreeDaily,
			BreachLevel:   a.cfg.BreachLevel,
		})

		// 5. Score
		st.Confidence = decision.ScoreConfidence(st, a.weights)

		res := &domain.AnalysisResult{
			Symbol:         series.Symbol,
			Period:         series.Period,
			Horizon:        h,
			AsOf:           last.Date,
			ReferencePrice: matches.ReferencePrice,
			Tolerance:      a.cfg.Tolerance,
			MatchCount:     len(matches.Matches),
			Stats:          st,
		}

		// 6. Size
		if a.sizer != nil {
			advice := a.sizer.Size(st, st.Confidence, reg)
			res.Advice = &advice
		}

		res.ID = idhash.ComputeAnalysisID(res.Symbol, res.Period, h, res.AsOf, res.ReferencePrice, res.Tolerance)
		results = append(results, res)
	}

	return results, nil
}

// Analyze computes results for series and persists them when a store is configured.
// Re-analysing the same inputs produces the same ids; already stored results
// are left as they are.
func (a *Analyzer) Analyze(ctx context.Context, series *domain.PriceSeries) ([]*domain.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results, err := a.Compute(series)
	if err != nil {
		return nil, err
	}

	createdAt := a.now()
	for _, res := range results {
		res.CreatedAt = createdAt
		if a.store == nil {
			continue
		}
		if err := a.store.Insert(ctx, res); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("store analysis %s/h%d: %w", res.Symbol, res.Horizon, err)
		}
	}
	return results, nil
}

// AnalyzeAt analyses the series as it stood at asOf: bars after asOf are
// invisible to every step.
func (a *Analyzer) AnalyzeAt(ctx context.Context, series *domain.PriceSeries, asOf time.Time) ([]*domain.AnalysisResult, error) {
	i, err := lookup.IndexAt(asOf, series)
	if err != nil {
		return nil, fmt.Errorf("%w: as of %s: %v", domain.ErrInsufficientData, asOf.Format(time.DateOnly), err)
	}
	return a.Analyze(ctx, series.Head(i+1))
}

// ForHorizon returns a copy of the analyzer that computes only horizon h.
func (a *Analyzer) ForHorizon(h int) *Analyzer {
	c := *a
	c.cfg.Horizons = []int{h}
	return &c
}

// WithReferencePrice returns a copy of the analyzer that matches against p
// instead of the last close.
func (a *Analyzer) WithReferencePrice(p float64) (*Analyzer, error) {
	c := *a
	c.cfg.ReferencePrice = &p
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
