// Copyright 2020 gorse Project Authors
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

package main

import (
	"context"
	"time"

	"github.com/gorse-io/fpsg/base/progress"
	"github.com/schollz/progressbar/v3"
)

// withProgressBar wraps ctx in a tracer span named label and, if
// showProgress is set, starts a goroutine rendering a progressbar/v3 bar
// from the span's reported count/total until stop is called.
func withProgressBar(ctx context.Context, label string, total int) (context.Context, func()) {
	tracer := progress.NewTracer(label)
	ctx, span := tracer.Start(ctx, label, total)
	if !showProgress {
		return ctx, func() { span.End() }
	}

	bar := progressbar.Default(int64(total), label)
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, p := range tracer.List() {
					bar.Set(p.Count)
				}
			case <-done:
				return
			}
		}
	}()
	return ctx, func() {
		span.End()
		close(done)
		bar.Finish()
	}
}
