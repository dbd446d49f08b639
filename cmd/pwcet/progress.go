package main

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// progressReporter adapts the concurrent (done, total) callbacks of the optimizer to a
// single progress bar. A new total starts a new bar.
type progressReporter struct {
	mu   sync.Mutex
	w    io.Writer
	desc string
	bar  *progressbar.ProgressBar
	last int
}

func newProgressReporter(w io.Writer, desc string) *progressReporter {
	return &progressReporter{w: w, desc: desc}
}

func (p *progressReporter) update(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil || p.bar.GetMax() != total {
		if p.bar != nil {
			_ = p.bar.Finish()
		}
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription(p.desc),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(p.w, "\n") }),
		)
		p.last = 0
	}
	// Workers report out of order; the bar only moves forward.
	if done <= p.last {
		return
	}
	p.last = done
	_ = p.bar.Set(done)
}

func (p *progressReporter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil && !p.bar.IsFinished() {
		_ = p.bar.Finish()
	}
}
