package main

import (
	"fmt"
	"sync"
	"time"
)

const progressUpdateInterval = 100 * time.Millisecond

// progressPrinter shows a single-line countdown while a scan runs.
// Single-use: Start once, Stop once.
type progressPrinter struct {
	prefix   string
	duration time.Duration
	start    time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func newProgressPrinter(prefix string, duration time.Duration) *progressPrinter {
	return &progressPrinter{
		prefix:   prefix,
		duration: duration,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (p *progressPrinter) Start() {
	p.start = time.Now()
	fmt.Printf("\r%s...   ", p.prefix)

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(progressUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				if p.duration <= 0 {
					fmt.Printf("\r%s (%ds)   ", p.prefix, int(time.Since(p.start).Seconds()))
					continue
				}
				remaining := p.duration - time.Since(p.start)
				if remaining < 0 {
					remaining = 0
				}
				fmt.Printf("\r%s (%ds left)   ", p.prefix, int(remaining.Seconds()+0.5))
			}
		}
	}()
}

// Stop ends the countdown and clears the progress line. Safe to call
// more than once.
func (p *progressPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		<-p.done
		fmt.Print("\r\033[K")
	})
}
