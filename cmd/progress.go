package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/khanhnv2901/seca-headers/internal/checker"
)

// progressPrinter redraws a single status line on w while a check runs.
type progressPrinter struct {
	w        io.Writer
	total    int
	mu       sync.Mutex
	passing  int
	failing  int
	errored  int
	duration float64
	updates  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newProgressPrinter(w io.Writer, total int) *progressPrinter {
	if total <= 0 {
		total = 1
	}
	return &progressPrinter{
		w:       w,
		total:   total,
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (p *progressPrinter) Start() {
	p.wg.Add(1)
	go p.loop()
}

// Observe records one finished target.
func (p *progressPrinter) Observe(o checker.Outcome, duration float64) {
	p.mu.Lock()
	switch {
	case o.FetchFailed():
		p.errored++
	case o.Result.Grade.Failing():
		p.failing++
	default:
		p.passing++
	}
	p.duration += duration
	p.mu.Unlock()

	select {
	case p.updates <- struct{}{}:
	default:
	}
}

func (p *progressPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
		fmt.Fprintf(p.w, "\r%s\r", strings.Repeat(" ", 80))
		p.print()
		fmt.Fprintln(p.w)
	})
}

func (p *progressPrinter) loop() {
	defer p.wg.Done()
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.updates:
			p.print()
		case <-ticker.C:
			p.print()
		case <-p.done:
			return
		}
	}
}

func (p *progressPrinter) line() string {
	p.mu.Lock()
	passing, failing, errored, dur := p.passing, p.failing, p.errored, p.duration
	p.mu.Unlock()

	completed := passing + failing + errored
	total := p.total
	if completed > total {
		total = completed
	}

	percent := (float64(completed) / float64(total)) * 100
	avg := 0.0
	if completed > 0 {
		avg = dur / float64(completed)
	}

	return fmt.Sprintf("[check] %d/%d (%.1f%%) A-C:%d D-F:%d Errors:%d Avg:%.2fs",
		completed, total, percent, passing, failing, errored, avg)
}

func (p *progressPrinter) print() {
	fmt.Fprintf(p.w, "\r%s", p.line())
}
