// Package session drives one candidate's interaction with an item: variable
// initialisation, response binding and response processing.
package session

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-qti/internal/grading"
	"github.com/mind-engage/mindengage-qti/internal/qti/binding"
	"github.com/mind-engage/mindengage-qti/internal/qti/node"
	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

// Submission is the outcome of binding one set of raw responses.
type Submission struct {
	// Bound lists the variables whose values were stored.
	Bound []value.Identifier
	// Failures holds the binding error per variable; nothing was stored.
	Failures map[value.Identifier]error
	// Invalid lists bound variables rejected by their interaction's
	// constraints. Their values are stored.
	Invalid []value.Identifier
	// Ignored lists companion variables that were sent directly. They are
	// written only by the interaction that names them as stringIdentifier.
	Ignored []value.Identifier
}

// OK reports whether every response was bound and accepted.
func (s Submission) OK() bool { return len(s.Failures) == 0 && len(s.Invalid) == 0 }

// Controller owns the variable state of one item session. It is not safe for
// concurrent use.
type Controller struct {
	item      *node.AssessmentItem
	log       *zap.Logger
	processor grading.Processor
	responses value.Map
	outcomes  value.Map
}

// New creates a controller for item. A nil logger discards output.
func New(item *node.AssessmentItem, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		item:      item,
		log:       logger.With(zap.String("item", item.Identifier())),
		processor: grading.NewDefaultProcessor(),
		responses: value.Map{},
		outcomes:  value.Map{},
	}
}

// WithProcessor replaces the response processor and returns c.
func (c *Controller) WithProcessor(p grading.Processor) *Controller {
	c.processor = p
	return c
}

// Initialize sets every response and outcome variable to its default value,
// or NULL or an empty container when none is declared.
func (c *Controller) Initialize() error {
	c.responses, c.outcomes = value.Map{}, value.Map{}
	for _, d := range c.item.ResponseDeclarations() {
		v, err := d.Initial()
		if err != nil {
			return errors.Wrapf(err, "initialise response %s", d.Identifier())
		}
		c.responses[d.Identifier()] = v
	}
	for _, d := range c.item.OutcomeDeclarations() {
		v, err := d.Initial()
		if err != nil {
			return errors.Wrapf(err, "initialise outcome %s", d.Identifier())
		}
		c.outcomes[d.Identifier()] = v
	}
	c.log.Debug("session initialised",
		zap.Int("responses", len(c.responses)), zap.Int("outcomes", len(c.outcomes)))
	return nil
}

// Restore replaces the variable state with previously saved values.
func (c *Controller) Restore(responses, outcomes value.Map) {
	c.responses, c.outcomes = value.Map{}, value.Map{}
	for k, v := range responses {
		c.responses[k] = v
	}
	for k, v := range outcomes {
		c.outcomes[k] = v
	}
}

func (c *Controller) SetResponseValue(id value.Identifier, v value.Value) { c.responses[id] = v }
func (c *Controller) SetOutcome(id value.Identifier, v value.Value)       { c.outcomes[id] = v }

// Response returns the value of a response variable, NULL when unset.
func (c *Controller) Response(id value.Identifier) value.Value {
	if v, ok := c.responses[id]; ok {
		return v
	}
	return value.Null
}

// Outcome returns the value of an outcome variable, NULL when unset.
func (c *Controller) Outcome(id value.Identifier) value.Value {
	if v, ok := c.outcomes[id]; ok {
		return v
	}
	return value.Null
}

func (c *Controller) Responses() value.Map { return copyMap(c.responses) }
func (c *Controller) Outcomes() value.Map  { return copyMap(c.outcomes) }

// BindResponses binds raw tokens per response variable through the
// interaction that collects it, then validates the stored value with the
// same interaction. Variables without an interaction are bound from their
// declaration alone. Identifiers that name no response variable fail, and
// companion variables of a string interaction are skipped.
func (c *Controller) BindResponses(raw map[value.Identifier][]string) Submission {
	sub := Submission{Failures: map[value.Identifier]error{}}
	ids := make([]value.Identifier, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	derived := c.companions()

	for _, id := range ids {
		tokens := raw[id]
		log := c.log.With(zap.String("response", string(id)))
		if derived[id] {
			sub.Ignored = append(sub.Ignored, id)
			log.Debug("companion response ignored")
			continue
		}
		it := c.item.Interaction(id)
		if it == nil {
			decl := c.item.ResponseDeclaration(id)
			if decl == nil {
				sub.Failures[id] = &binding.Error{Identifier: id, Tokens: tokens, Reason: "unknown response variable"}
				log.Info("response rejected", zap.Error(sub.Failures[id]))
				continue
			}
			v, err := binding.Bind(decl, tokens)
			if err != nil {
				sub.Failures[id] = err
				log.Info("response rejected", zap.Error(err))
				continue
			}
			c.responses[id] = v
			sub.Bound = append(sub.Bound, id)
			continue
		}
		if err := it.BindResponse(c, tokens); err != nil {
			sub.Failures[id] = err
			log.Info("response rejected", zap.Error(err))
			continue
		}
		sub.Bound = append(sub.Bound, id)
		if !it.ValidateResponse(c.Response(id)) {
			sub.Invalid = append(sub.Invalid, id)
			log.Info("response invalid for interaction", zap.String("interaction", it.ClassTag()))
		}
	}
	return sub
}

// companions returns the variables filled in by another interaction's
// numeric breakdown.
func (c *Controller) companions() map[value.Identifier]bool {
	out := map[value.Identifier]bool{}
	for _, it := range c.item.Interactions() {
		si, ok := it.(interface{ StringIdentifier() value.Identifier })
		if !ok {
			continue
		}
		if id := si.StringIdentifier(); id != "" && id != it.ResponseIdentifier() {
			out[id] = true
		}
	}
	return out
}

// ProcessResponses runs the item's response processing template.
func (c *Controller) ProcessResponses(ctx context.Context) (grading.Result, error) {
	res, err := c.processor.Process(ctx, c.item, c)
	if err != nil {
		c.log.Warn("response processing failed", zap.Error(err))
		return res, err
	}
	if res.Template != "" {
		c.log.Debug("responses processed", zap.String("template", res.Template), zap.Float64("score", res.Score))
	}
	return res, nil
}

func copyMap(m value.Map) value.Map {
	out := make(value.Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
