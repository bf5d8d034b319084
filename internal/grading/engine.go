package grading

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-qti/internal/qti/node"
	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

// ErrUnknownTemplate is returned for a responseProcessing template no
// strategy is installed for.
var ErrUnknownTemplate = errors.New("unknown response processing template")

// State is the variable store response processing reads and writes.
type State interface {
	Response(id value.Identifier) value.Value
	SetOutcome(id value.Identifier, v value.Value)
}

// Result is the outcome of running one template.
type Result struct {
	Template string
	Score    float64
	MaxScore float64
	Feedback []string
}

// Strategy runs one response processing template.
type Strategy interface {
	Process(ctx context.Context, item *node.AssessmentItem, st State) (Result, error)
}

// Processor routes by template name to the correct Strategy.
type Processor interface {
	Process(ctx context.Context, item *node.AssessmentItem, st State) (Result, error)
}

type defaultProcessor struct {
	score      value.Identifier
	strategies map[string]Strategy
}

// Process runs the item's template and stores the score outcome. An item
// without responseProcessing or without a template is left untouched.
func (p *defaultProcessor) Process(ctx context.Context, item *node.AssessmentItem, st State) (Result, error) {
	rp := item.ResponseProcessing()
	if rp == nil || rp.Template() == "" {
		return Result{}, nil
	}
	name := node.TemplateName(rp.Template())
	s, ok := p.strategies[name]
	if !ok {
		return Result{Template: name}, errors.Wrap(ErrUnknownTemplate, rp.Template())
	}
	res, err := s.Process(ctx, item, st)
	if err != nil {
		return res, errors.Wrapf(err, "template %s", name)
	}
	res.Template = name
	st.SetOutcome(p.score, value.FloatValue(res.Score))
	return res, nil
}

// Processor options

type Option func(*config)

type config struct {
	Response   value.Identifier // response variable the templates read
	Score      value.Identifier // outcome variable the templates write
	Strategies map[string]Strategy
}

func WithResponseIdentifier(id value.Identifier) Option { return func(c *config) { c.Response = id } }
func WithScoreIdentifier(id value.Identifier) Option    { return func(c *config) { c.Score = id } }

// WithStrategy installs or replaces the strategy for a template name.
func WithStrategy(name string, s Strategy) Option {
	return func(c *config) { c.Strategies[name] = s }
}

// NewDefaultProcessor installs the built-in templates.
func NewDefaultProcessor(opts ...Option) Processor {
	cfg := &config{
		Response:   "RESPONSE",
		Score:      "SCORE",
		Strategies: map[string]Strategy{},
	}
	for _, o := range opts {
		o(cfg)
	}
	strategies := map[string]Strategy{
		"match_correct": matchCorrectStrategy{response: cfg.Response},
		"map_response":  mapResponseStrategy{response: cfg.Response},
	}
	for name, s := range cfg.Strategies {
		strategies[name] = s
	}
	return &defaultProcessor{score: cfg.Score, strategies: strategies}
}

// --- Strategies ---

type matchCorrectStrategy struct{ response value.Identifier }

func (s matchCorrectStrategy) Process(_ context.Context, item *node.AssessmentItem, st State) (Result, error) {
	res := Result{MaxScore: 1}
	decl := item.ResponseDeclaration(s.response)
	if decl == nil {
		return res, errors.Errorf("no responseDeclaration %s", s.response)
	}
	cr := decl.CorrectResponse()
	if cr == nil {
		res.Feedback = append(res.Feedback, "no correctResponse")
		return res, nil
	}
	correct, err := cr.Evaluate()
	if err != nil {
		return res, err
	}
	if value.Equal(st.Response(s.response), correct) {
		res.Score = 1
	}
	return res, nil
}

type mapResponseStrategy struct{ response value.Identifier }

func (s mapResponseStrategy) Process(_ context.Context, item *node.AssessmentItem, st State) (Result, error) {
	var res Result
	decl := item.ResponseDeclaration(s.response)
	if decl == nil {
		return res, errors.Errorf("no responseDeclaration %s", s.response)
	}
	m := decl.Mapping()
	if m == nil {
		return res, errors.Errorf("responseDeclaration %s has no mapping", s.response)
	}
	res.MaxScore = maxMapped(m)

	resp := st.Response(s.response)
	if value.IsNull(resp) {
		return res, nil
	}
	total := 0.0
	for _, v := range distinct(resp) {
		if mapped, ok := m.Lookup(v); ok {
			total += mapped
		} else {
			total += m.DefaultValue()
		}
	}
	res.Score = clamp(m, total)
	return res, nil
}

// helpers

func distinct(v value.Value) []value.Scalar {
	switch t := v.(type) {
	case value.ListValue:
		var out []value.Scalar
		for _, it := range t.Items() {
			dup := false
			for _, seen := range out {
				if seen.Equal(it) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, it)
			}
		}
		return out
	case value.Scalar:
		return []value.Scalar{t}
	}
	return nil
}

func clamp(m *node.Mapping, f float64) float64 {
	if lo, ok := m.LowerBound(); ok {
		f = math.Max(f, lo)
	}
	if hi, ok := m.UpperBound(); ok {
		f = math.Min(f, hi)
	}
	return f
}

func maxMapped(m *node.Mapping) float64 {
	if hi, ok := m.UpperBound(); ok {
		return hi
	}
	total := 0.0
	for _, e := range m.Entries() {
		if v := e.MappedValue(); v > 0 {
			total += v
		}
	}
	return total
}
