package progress

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
)

// Bar renders a terminal progress bar on stderr.
type Bar struct {
	bar   *progressbar.ProgressBar
	bytes int64
	mu    sync.Mutex
}

// NewBar creates a progress bar. Nothing is drawn until Init.
func NewBar() *Bar {
	return &Bar{}
}

// Init resets the counters and draws a fresh bar for total bytes.
func (b *Bar) Init(total int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	atomic.StoreInt64(&b.bytes, 0)

	// Indeterminate mode when the total is unknown.
	if total <= 0 {
		total = -1
	}

	b.bar = progressbar.NewOptions64(
		total,
		progressbar.OptionSetDescription("Extracting"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("B"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "─",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// Add records n more bytes written.
func (b *Bar) Add(n int64) {
	if b.bar == nil {
		return
	}
	atomic.AddInt64(&b.bytes, n)
	b.bar.Add64(n)
}

// Complete fills the bar to the end.
func (b *Bar) Complete() {
	if b.bar == nil {
		return
	}
	b.bar.Finish()
}

// Close finishes and releases the bar.
func (b *Bar) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar == nil {
		return nil
	}
	b.bar.Finish()
	b.bar = nil
	return nil
}

// Write implements io.Writer so the bar can sit in a copy chain.
func (b *Bar) Write(p []byte) (int, error) {
	n := len(p)
	b.Add(int64(n))
	return n, nil
}

// GetBytes returns the bytes recorded so far.
func (b *Bar) GetBytes() int64 {
	return atomic.LoadInt64(&b.bytes)
}
