package emitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/chriserin/cukeplan/internal/messages"
)

// Observer receives every assembled test case, in pickle order. Returning an
// error aborts the assembly.
type Observer interface {
	OnTestCaseAssembled(ctx context.Context, env messages.Envelope) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, env messages.Envelope) error

func (f ObserverFunc) OnTestCaseAssembled(ctx context.Context, env messages.Envelope) error {
	return f(ctx, env)
}

// Discard accepts and drops every envelope.
var Discard Observer = ObserverFunc(func(context.Context, messages.Envelope) error { return nil })

// Recorder is a concurrency-safe in-memory collector.
type Recorder struct {
	mu        sync.Mutex
	envelopes []messages.Envelope
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) OnTestCaseAssembled(_ context.Context, env messages.Envelope) error {
	r.mu.Lock()
	r.envelopes = append(r.envelopes, env)
	r.mu.Unlock()
	return nil
}

// Snapshot returns a point-in-time copy of all recorded envelopes.
func (r *Recorder) Snapshot() []messages.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]messages.Envelope, len(r.envelopes))
	copy(out, r.envelopes)
	return out
}

// Multi fans each envelope out to observers in order, stopping at the first
// error.
func Multi(observers ...Observer) Observer {
	return ObserverFunc(func(ctx context.Context, env messages.Envelope) error {
		for _, o := range observers {
			if err := o.OnTestCaseAssembled(ctx, env); err != nil {
				return err
			}
		}
		return nil
	})
}

// NDJSONWriter writes each envelope as one line of JSON.
type NDJSONWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	return &NDJSONWriter{enc: json.NewEncoder(w)}
}

func (n *NDJSONWriter) OnTestCaseAssembled(_ context.Context, env messages.Envelope) error {
	return n.Write(env)
}

// Write encodes any envelope, not only test cases.
func (n *NDJSONWriter) Write(env messages.Envelope) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enc.Encode(env); err != nil {
		return fmt.Errorf("writing envelope: %w", err)
	}
	return nil
}

// CBORWriter writes each envelope as one canonical CBOR data item.
type CBORWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewCBORWriter(w io.Writer) *CBORWriter {
	return &CBORWriter{w: w}
}

func (c *CBORWriter) OnTestCaseAssembled(_ context.Context, env messages.Envelope) error {
	return c.Write(env)
}

// Write encodes any envelope, not only test cases.
func (c *CBORWriter) Write(env messages.Envelope) error {
	b, err := messages.MarshalCBOR(env)
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.w.Write(b); err != nil {
		return fmt.Errorf("writing envelope: %w", err)
	}
	return nil
}

// LogObserver logs one debug line per test case.
type LogObserver struct {
	Logger *zap.Logger
}

func (l LogObserver) OnTestCaseAssembled(_ context.Context, env messages.Envelope) error {
	tc := env.TestCase
	if tc == nil || l.Logger == nil {
		return nil
	}
	var hookSteps, undefined, ambiguous int
	for _, s := range tc.TestSteps {
		switch {
		case s.IsHook():
			hookSteps++
		case s.IsUndefined():
			undefined++
		case s.IsAmbiguous():
			ambiguous++
		}
	}
	l.Logger.Debug("test case",
		zap.String("id", tc.ID),
		zap.String("pickle", tc.PickleID),
		zap.Int("steps", len(tc.TestSteps)),
		zap.Int("hookSteps", hookSteps),
		zap.Int("undefined", undefined),
		zap.Int("ambiguous", ambiguous))
	return nil
}
