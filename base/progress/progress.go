// Copyright 2023 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package progress tracks the progress of long-running operations (model
// fitting, cross-validation) so a CLI or server can report on them
// without the tracked code knowing anything about how it is displayed.
package progress

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type spanKeyType string

var spanKeyName = spanKeyType(uuid.New().String())

type Status string

const (
	StatusPending   Status = "Pending"
	StatusComplete  Status = "Complete"
	StatusRunning   Status = "Running"
	StatusSuspended Status = "Suspended"
	StatusFailed    Status = "Failed"
)

// Tracer owns a set of named root spans and can list their current state.
type Tracer struct {
	name  string
	spans sync.Map // name -> *Span
}

func NewTracer(name string) *Tracer {
	return &Tracer{name: name}
}

// Start creates a root span owned by this tracer and stashes it in ctx so
// nested Start calls can attach themselves as its child.
func (t *Tracer) Start(ctx context.Context, name string, total int) (context.Context, *Span) {
	span := &Span{name: name, status: StatusRunning, total: total, start: time.Now()}
	t.spans.Store(name, span)
	return context.WithValue(ctx, spanKeyName, span), span
}

// List returns a snapshot of every root span owned by this tracer, with
// an active child's progress folded into its parent's total and count.
func (t *Tracer) List() []Progress {
	var out []Progress
	t.spans.Range(func(_, value interface{}) bool {
		out = append(out, value.(*Span).snapshot(t.name))
		return true
	})
	return out
}

// Span tracks one unit of progress. A Span may have at most one active
// child at a time, attached via the package-level Start function; while
// the child is running its total and count are folded into the parent's.
type Span struct {
	mu     sync.Mutex
	name   string
	status Status
	err    error
	total  int
	count  int
	start  time.Time
	finish time.Time
	child  *Span
}

func (s *Span) Add(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count += n
}

func (s *Span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = s.total
	s.status = StatusComplete
	s.finish = time.Now()
}

func (s *Span) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	s.status = StatusFailed
	s.finish = time.Now()
}

func (s *Span) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Span) setChild(child *Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.child = child
}

func (s *Span) snapshot(tracer string) Progress {
	s.mu.Lock()
	name, status, total, count, start, finish := s.name, s.status, s.total, s.count, s.start, s.finish
	errMsg := ""
	if s.err != nil {
		errMsg = s.err.Error()
	}
	child := s.child
	s.mu.Unlock()

	if child != nil {
		child.mu.Lock()
		childStatus, childTotal, childCount := child.status, child.total, child.count
		childErr := child.err
		child.mu.Unlock()

		switch childStatus {
		case StatusRunning:
			total *= childTotal
			count = count*childTotal + childCount
		case StatusFailed:
			status = StatusFailed
			if childErr != nil {
				errMsg = childErr.Error()
			}
		}
	}

	return Progress{
		Tracer:     tracer,
		Name:       name,
		Status:     status,
		Error:      errMsg,
		Count:      count,
		Total:      total,
		StartTime:  start,
		FinishTime: finish,
	}
}

// Start opens a child span nested under whatever span is stored in ctx,
// attaching it to the parent so the parent's progress reflects it. If ctx
// carries no span the child is still usable, just untracked by a parent.
func Start(ctx context.Context, name string, total int) (context.Context, *Span) {
	child := &Span{name: name, status: StatusRunning, total: total, start: time.Now()}
	if parent, ok := ctx.Value(spanKeyName).(*Span); ok {
		parent.setChild(child)
	}
	return context.WithValue(ctx, spanKeyName, child), child
}

// Fail marks the span stored in ctx, if any, as failed.
func Fail(ctx context.Context, err error) {
	if span, ok := ctx.Value(spanKeyName).(*Span); ok {
		span.Fail(err)
	}
}

type Progress struct {
	Tracer     string
	Name       string
	Status     Status
	Error      string
	Count      int
	Total      int
	StartTime  time.Time
	FinishTime time.Time
}
