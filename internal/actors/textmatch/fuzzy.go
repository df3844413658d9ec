// Package textmatch provides an Actor that scores string similarity
// without an LLM call, adapted from the teacher's
// infrastructure/units/fuzzy_match_unit.go.
package textmatch

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/ahrav/portflow/internal/ports"
)

// foldCaser is a package-level Unicode case folder for performance,
// avoiding a new caser per comparison (same rationale as the teacher's
// package-level foldCaser).
var foldCaser = cases.Fold()

// ActorID is the convention-following id of this actor implementation.
const ActorID = "portflow:text.fuzzy_match"

var _ ports.Actor = (*FuzzyMatch)(nil)

// FuzzyMatch is a two-input ("candidate", "reference"), one-output
// ("score") Actor computing Levenshtein similarity in [0,1], optionally
// zeroing scores below a configured Threshold. It is deterministic and
// lazy by default (IsLazy() == true): the engine's reuse policy applies
// to it exactly as it would to any other actor.
type FuzzyMatch struct {
	id            string
	threshold     float64
	caseSensitive bool
	tracer        trace.Tracer
}

// Config are the construction-time parameters of a FuzzyMatch actor.
type Config struct {
	// Threshold is the minimum similarity score (0.0-1.0) to report as
	// non-zero; scores below it are reported as 0.0.
	Threshold float64
	// CaseSensitive disables Unicode case folding before comparison.
	CaseSensitive bool
}

// New returns a FuzzyMatch actor identified by id.
func New(id string, cfg Config) (*FuzzyMatch, error) {
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("textmatch: threshold must be in [0,1], got %f", cfg.Threshold)
	}
	return &FuzzyMatch{
		id:            id,
		threshold:     cfg.Threshold,
		caseSensitive: cfg.CaseSensitive,
		tracer:        otel.Tracer("portflow/textmatch"),
	}, nil
}

func (f *FuzzyMatch) Inputs() []string  { return []string{"candidate", "reference"} }
func (f *FuzzyMatch) Outputs() []string { return []string{"score"} }
func (f *FuzzyMatch) IsLazy() bool      { return true }
func (f *FuzzyMatch) Priority() int     { return 0 }
func (f *FuzzyMatch) ID() string        { return f.id }

// Invoke computes the similarity score between in[0] (candidate) and
// in[1] (reference), both expected to be strings.
func (f *FuzzyMatch) Invoke(ctx context.Context, in []any) ([]any, error) {
	_, span := f.tracer.Start(ctx, "FuzzyMatch.Invoke",
		trace.WithAttributes(
			attribute.String("actor.id", f.id),
			attribute.Float64("config.threshold", f.threshold),
			attribute.Bool("config.case_sensitive", f.caseSensitive),
		),
	)
	defer span.End()

	candidate, ok := in[0].(string)
	if !ok {
		err := fmt.Errorf("textmatch: candidate must be a string, got %T", in[0])
		span.RecordError(err)
		return nil, err
	}
	reference, ok := in[1].(string)
	if !ok {
		err := fmt.Errorf("textmatch: reference must be a string, got %T", in[1])
		span.RecordError(err)
		return nil, err
	}

	preparedCandidate := f.prepare(candidate)
	preparedReference := f.prepare(reference)
	similarity := f.similarity(preparedCandidate, preparedReference)

	score := similarity
	if similarity < f.threshold {
		score = 0.0
	}
	span.SetAttributes(attribute.Float64("result.score", score))
	return []any{score}, nil
}

// prepare canonicalizes s to NFC (so combining-mark sequences that
// render identically compare equal) before optionally folding case.
func (f *FuzzyMatch) prepare(s string) string {
	s = norm.NFC.String(s)
	if f.caseSensitive {
		return s
	}
	return foldCaser.String(s)
}

// similarity computes a Levenshtein-based similarity in [0,1]: 1.0 for
// identical strings, decreasing with edit distance normalized by the
// longer string's rune count (Unicode-correct, unlike a byte-length
// normalization).
func (f *FuzzyMatch) similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(a, b)
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}
	sim := 1.0 - float64(distance)/float64(maxLen)
	if sim < 0 {
		sim = 0
	}
	return sim
}
