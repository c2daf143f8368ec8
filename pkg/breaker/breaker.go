package breaker

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

type state uint8

const (
	closed state = iota + 1
	open
	halfOpen
)

var ErrOpen = errors.New("circuit breaker is open")

// Breaker tracks the failure rate of recent calls over a sliding window.
// When the rate crosses the threshold it opens and rejects calls until
// the timeout elapses, then lets probes through until enough of them
// succeed in a row.
type Breaker interface {
	Call(fn func() error) error
	Reset()
}

type breaker struct {
	mu sync.Mutex

	state        state
	windowSize   int
	timeout      time.Duration
	lastOpenedAt time.Time
	// share of failed calls in the window that trips the breaker
	threshold float64
	window    []bool
	pos       int
	// consecutive successful probes required to close again
	recovery     int
	successCount int
}

func New(windowSize int, timeout time.Duration, threshold float64, recovery int) Breaker {
	return &breaker{
		state:      closed,
		windowSize: windowSize,
		timeout:    timeout,
		threshold:  threshold,
		window:     make([]bool, windowSize),
		recovery:   recovery,
	}
}

func (b *breaker) Call(fn func() error) error {
	b.mu.Lock()
	if b.state == open {
		if time.Since(b.lastOpenedAt) <= b.timeout {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = halfOpen
		b.successCount = 0
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.window[b.pos] = err != nil
	b.pos = (b.pos + 1) % b.windowSize

	if b.state == halfOpen {
		if err != nil {
			b.state = open
			b.successCount = 0
			b.lastOpenedAt = time.Now()
		} else {
			b.successCount++
			if b.successCount > b.recovery {
				b.Reset()
			}
		}
		return err
	}

	fails := 0
	for _, failed := range b.window {
		if failed {
			fails++
		}
	}
	if float64(fails)/float64(b.windowSize) >= b.threshold {
		b.state = open
		b.successCount = 0
		b.lastOpenedAt = time.Now()
	}

	return err
}

func (b *breaker) Reset() {
	for i := range b.window {
		b.window[i] = false
	}
	b.successCount = 0
	b.pos = 0
	b.state = closed
}
