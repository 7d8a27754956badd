// Package emitter assembles the test cases of a run and publishes each one to
// an observer as soon as it is finished.
package emitter

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chriserin/cukeplan/internal/assembler"
	"github.com/chriserin/cukeplan/internal/hooks"
	"github.com/chriserin/cukeplan/internal/idgen"
	"github.com/chriserin/cukeplan/internal/messages"
	"github.com/chriserin/cukeplan/internal/support"
)

var (
	// ErrPublish is wrapped by every error returned because an observer failed.
	ErrPublish = errors.New("publishing test case")
	// ErrDuplicatePickle rejects input that names the same pickle twice.
	ErrDuplicatePickle = errors.New("duplicate pickle id")
)

// Plan maps pickle ids to their test cases.
type Plan map[string]messages.TestCase

type options struct {
	logger *zap.Logger
}

type Option func(*options)

// WithLogger sets the logger used for progress output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// AssembleAll assembles one test case per pickle, strictly in input order.
// Each test case is published to obs before the next pickle is touched. If
// obs fails, assembly stops and no plan is returned.
//
// ctx is only handed to obs; assembly itself is never interrupted. Observers
// receive their own copy of each test case. Pickle ids must be unique; a
// repeated id fails the call before anything is assembled.
func AssembleAll(ctx context.Context, pickles []messages.Pickle, reg support.Registry, gen idgen.Generator, obs Observer, opts ...Option) (Plan, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if obs == nil {
		obs = Discard
	}

	seen := make(map[string]int, len(pickles))
	for i, p := range pickles {
		if j, ok := seen[p.ID]; ok {
			return nil, fmt.Errorf("%w %s: pickles %d and %d", ErrDuplicatePickle, p.ID, j, i)
		}
		seen[p.ID] = i
	}

	defs := reg.StepDefinitions()
	plan := make(Plan, len(pickles))
	for i, p := range pickles {
		resolved := hooks.Resolve(reg, p)
		tc := assembler.Assemble(p, resolved, defs, gen)

		published := tc.Clone()
		if err := obs.OnTestCaseAssembled(ctx, messages.Envelope{TestCase: &published}); err != nil {
			o.logger.Debug("observer rejected test case",
				zap.String("pickle", p.ID),
				zap.String("testCase", tc.ID),
				zap.Error(err))
			return nil, fmt.Errorf("%w %s for pickle %s: %w", ErrPublish, tc.ID, p.ID, err)
		}
		plan[p.ID] = tc

		o.logger.Debug("assembled test case",
			zap.Int("index", i),
			zap.String("pickle", p.ID),
			zap.String("testCase", tc.ID),
			zap.Int("steps", len(tc.TestSteps)),
			zap.Int("hooks", resolved.Len()))
	}
	o.logger.Info("plan assembled", zap.Int("testCases", len(plan)))
	return plan, nil
}
