package testing

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"
)

// MockPayloadServer serves archive payloads the way a download host would
type MockPayloadServer struct {
	*httptest.Server

	mu       sync.Mutex
	payloads map[string]MockPayload
	requests []MockRequest
}

// MockPayload describes how one path is served
type MockPayload struct {
	StatusCode int
	Body       []byte

	// OmitLength streams the body chunked, without a Content-Length header.
	OmitLength bool

	// FailAfter aborts the connection once that many bytes were written.
	// Zero serves the whole body.
	FailAfter int

	// ChunkSize and ChunkDelay pace the body. Defaults to 1 KiB, no delay.
	ChunkSize  int
	ChunkDelay time.Duration
}

// MockRequest records a request made to the mock server
type MockRequest struct {
	Method string
	Path   string
}

// NewMockPayloadServer creates a new payload server closed at test cleanup
func NewMockPayloadServer(t *testing.T) *MockPayloadServer {
	t.Helper()

	mock := &MockPayloadServer{
		payloads: make(map[string]MockPayload),
	}

	mock.Server = httptest.NewServer(http.HandlerFunc(mock.serve))

	t.Cleanup(func() {
		mock.Server.Close()
	})

	return mock
}

func (m *MockPayloadServer) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requests = append(m.requests, MockRequest{Method: r.Method, Path: r.URL.Path})
	payload, ok := m.payloads[r.URL.Path]
	m.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if payload.StatusCode != 0 && payload.StatusCode != http.StatusOK {
		w.WriteHeader(payload.StatusCode)
		w.Write(payload.Body)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	if !payload.OmitLength {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload.Body)))
	}
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	limit := len(payload.Body)
	if payload.FailAfter > 0 && payload.FailAfter < limit {
		limit = payload.FailAfter
	}
	chunk := payload.ChunkSize
	if chunk <= 0 {
		chunk = 1024
	}

	for off := 0; off < limit; off += chunk {
		end := off + chunk
		if end > limit {
			end = limit
		}
		if _, err := w.Write(payload.Body[off:end]); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		if payload.ChunkDelay > 0 {
			time.Sleep(payload.ChunkDelay)
		}
	}

	if limit < len(payload.Body) {
		panic(http.ErrAbortHandler)
	}
}

// SetPayload registers a payload for path
func (m *MockPayloadServer) SetPayload(path string, payload MockPayload) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads[path] = payload
}

// SetBody serves body at path with a Content-Length header
func (m *MockPayloadServer) SetBody(path string, body []byte) {
	m.SetPayload(path, MockPayload{Body: body})
}

// URL returns the absolute URL for path
func (m *MockPayloadServer) URL(path string) string {
	return m.Server.URL + path
}

// GetRequestCount returns the number of GET requests made to a path
func (m *MockPayloadServer) GetRequestCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, req := range m.requests {
		if req.Path == path && req.Method == http.MethodGet {
			count++
		}
	}
	return count
}
