package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// progressBar is a terminal progress bar for multi-request commands. It is
// safe for use by concurrent workers.
type progressBar struct {
	mu          sync.Mutex
	total       int
	current     int
	width       int
	description string
	writer      io.Writer
}

// newProgressBar creates a progress bar over total steps.
func newProgressBar(total int, description string, writer io.Writer) *progressBar {
	return &progressBar{
		total:       total,
		width:       30,
		description: description,
		writer:      writer,
	}
}

// Add advances the bar by n steps.
func (p *progressBar) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = min(p.current+n, p.total)
	p.render()
}

// Finish fills the bar and ends the line.
func (p *progressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.total
	p.render()
	fmt.Fprintln(p.writer)
}

// render redraws the bar in place using a carriage return.
func (p *progressBar) render() {
	if p.total <= 0 {
		return
	}

	filled := min(p.current*p.width/p.total, p.width)
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", p.width-filled)
	fmt.Fprintf(p.writer, "\r%s [%s] %d/%d", p.description, bar, p.current, p.total)
}
