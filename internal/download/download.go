package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cavaliergopher/grab/v3"
)

// ChunkSize is the copy buffer used for the response body.
const ChunkSize = 4096

// DefaultSampleInterval is how often a running transfer is sampled for progress.
const DefaultSampleInterval = 20 * time.Millisecond

var (
	// ErrProtocol reports a response the transfer cannot use: bad status,
	// missing Content-Length or a body shorter than declared.
	ErrProtocol = errors.New("protocol error")

	// ErrNetwork reports a failure to connect, read or write.
	ErrNetwork = errors.New("network error")
)

// State is the stage of a transfer carried by a Progress value.
type State int

const (
	InProgress State = iota
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "in progress"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Target is a single file to fetch.
type Target struct {
	Destination string
	URL         string
}

// Progress is one report from a running transfer. A transfer sends zero or
// more InProgress values with non-decreasing Fraction, then exactly one
// Completed or Failed value, then closes the channel.
type Progress struct {
	State         State
	Fraction      float64
	BytesComplete int64
	BytesTotal    int64
	Err           error
}

// Terminal reports whether p is the last value of a transfer.
func (p Progress) Terminal() bool {
	return p.State == Completed || p.State == Failed
}

// Percent returns Fraction as a whole percentage clamped to [0, 100].
func (p Progress) Percent() int {
	pct := int(p.Fraction * 100)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Engine runs transfers with a shared grab client.
type Engine struct {
	client         *grab.Client
	SampleInterval time.Duration
}

// NewEngine returns an engine using httpClient, or http.DefaultClient when nil.
func NewEngine(httpClient *http.Client) *Engine {
	client := grab.NewClient()
	if httpClient != nil {
		client.HTTPClient = httpClient
	}
	client.UserAgent = "magic-installer"
	client.BufferSize = ChunkSize

	return &Engine{
		client:         client,
		SampleInterval: DefaultSampleInterval,
	}
}

var defaultEngine = NewEngine(nil)

// Transfer starts t on the default engine.
func Transfer(ctx context.Context, t Target) <-chan Progress {
	return defaultEngine.Transfer(ctx, t)
}

// Transfer fetches t.URL into t.Destination in the background, always
// overwriting, and reports progress on the returned channel. The channel is
// closed after the terminal value. A failed transfer leaves any partial file
// in place.
func (e *Engine) Transfer(ctx context.Context, t Target) <-chan Progress {
	out := make(chan Progress, 64)
	go e.run(ctx, t, out)
	return out
}

func (e *Engine) run(ctx context.Context, t Target, out chan<- Progress) {
	defer close(out)

	req, err := grab.NewRequest(t.Destination, t.URL)
	if err != nil {
		out <- failed(fmt.Errorf("%w: invalid request for %s: %v", ErrProtocol, t.URL, err))
		return
	}
	req = req.WithContext(ctx)
	req.NoResume = true // Always overwrite, never resume
	req.BufferSize = ChunkSize

	resp := e.client.Do(req)

	if resp.IsComplete() {
		if err := resp.Err(); err != nil {
			out <- failed(classify(ctx, t.URL, resp, err))
			return
		}
	}
	if resp.HTTPResponse == nil {
		out <- failed(classify(ctx, t.URL, resp, resp.Err()))
		return
	}

	total := resp.HTTPResponse.ContentLength
	if total < 0 {
		_ = resp.Cancel()
		out <- failed(fmt.Errorf("%w: no Content-Length in response from %s", ErrProtocol, t.URL))
		return
	}

	interval := e.SampleInterval
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := int64(-1)
	sample := func() int64 {
		n := resp.BytesComplete()
		if n != last {
			last = n
			out <- Progress{State: InProgress, Fraction: fraction(n, total), BytesComplete: n, BytesTotal: total}
		}
		return n
	}

	for {
		select {
		case <-ticker.C:
			sample()
		case <-resp.Done:
			if err := resp.Err(); err != nil {
				out <- failed(classify(ctx, t.URL, resp, err))
				return
			}
			n := sample()
			out <- Progress{State: Completed, Fraction: fraction(n, total), BytesComplete: n, BytesTotal: total}
			return
		}
	}
}

func failed(err error) Progress {
	return Progress{State: Failed, Err: err}
}

func fraction(n, total int64) float64 {
	if total <= 0 {
		return 1
	}
	return float64(n) / float64(total)
}

// classify maps a grab error onto ErrProtocol or ErrNetwork. Cancellation
// is passed through so callers can match context.Canceled.
func classify(ctx context.Context, url string, resp *grab.Response, err error) error {
	switch {
	case ctx.Err() != nil:
		return fmt.Errorf("transfer of %s cancelled: %w", url, ctx.Err())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("transfer of %s cancelled: %w", url, err)
	case resp != nil && resp.HTTPResponse != nil &&
		(resp.HTTPResponse.StatusCode < 200 || resp.HTTPResponse.StatusCode > 299):
		return fmt.Errorf("%w: %s returned %s", ErrProtocol, url, resp.HTTPResponse.Status)
	case errors.Is(err, grab.ErrBadLength):
		return fmt.Errorf("%w: %s: %v", ErrProtocol, url, err)
	default:
		return fmt.Errorf("%w: %s: %v", ErrNetwork, url, err)
	}
}
