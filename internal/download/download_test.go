package download

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	th "github.com/magic-installer/magic-installer/testing"
)

func collect(t *testing.T, ch <-chan Progress) []Progress {
	t.Helper()

	var got []Progress
	timeout := time.After(10 * time.Second)
	for {
		select {
		case p, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, p)
		case <-timeout:
			t.Fatalf("transfer did not finish, got %d values", len(got))
		}
	}
}

// checkSequence asserts zero or more non-decreasing InProgress values then
// exactly one terminal value of state want.
func checkSequence(t *testing.T, got []Progress, want State) Progress {
	t.Helper()

	if len(got) == 0 {
		t.Fatal("no progress values received")
	}
	last := -1.0
	for i, p := range got[:len(got)-1] {
		if p.State != InProgress {
			t.Fatalf("value %d has state %v before the end of the stream", i, p.State)
		}
		if p.Fraction < last {
			t.Errorf("value %d fraction %f decreased from %f", i, p.Fraction, last)
		}
		last = p.Fraction
	}

	final := got[len(got)-1]
	if final.State != want {
		t.Fatalf("final state = %v (err %v), want %v", final.State, final.Err, want)
	}
	return final
}

func TestTransferCompletes(t *testing.T) {
	body := bytes.Repeat([]byte("modpack!"), 64*1024/8)

	srv := th.NewMockPayloadServer(t)
	srv.SetPayload("/pack.zip", th.MockPayload{Body: body, ChunkSize: 4096, ChunkDelay: time.Millisecond})

	dest := filepath.Join(t.TempDir(), "staging", "modpack.zip")
	engine := NewEngine(nil)
	engine.SampleInterval = time.Millisecond

	got := collect(t, engine.Transfer(context.Background(), Target{Destination: dest, URL: srv.URL("/pack.zip")}))
	final := checkSequence(t, got, Completed)

	if final.BytesComplete != int64(len(body)) || final.BytesTotal != int64(len(body)) {
		t.Errorf("final bytes = %d/%d, want %d", final.BytesComplete, final.BytesTotal, len(body))
	}
	if final.Percent() != 100 {
		t.Errorf("final Percent() = %d, want 100", final.Percent())
	}
	if len(got) < 2 {
		t.Errorf("expected at least one InProgress before Completed, got %d values", len(got))
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read destination: %v", err)
	}
	if !bytes.Equal(data, body) {
		t.Errorf("destination holds %d bytes, want %d", len(data), len(body))
	}
}

func TestTransferOverwritesExisting(t *testing.T) {
	srv := th.NewMockPayloadServer(t)
	srv.SetBody("/pack.zip", []byte("new"))

	dest := filepath.Join(t.TempDir(), "modpack.zip")
	th.WriteFile(t, dest, "a much longer stale archive")

	got := collect(t, NewEngine(nil).Transfer(context.Background(), Target{Destination: dest, URL: srv.URL("/pack.zip")}))
	checkSequence(t, got, Completed)
	th.AssertFileContent(t, dest, "new")
}

func TestTransferMidStreamFailure(t *testing.T) {
	body := bytes.Repeat([]byte{0xAB}, 32*1024)

	srv := th.NewMockPayloadServer(t)
	srv.SetPayload("/pack.zip", th.MockPayload{Body: body, FailAfter: 8 * 1024, ChunkSize: 2048})

	dest := filepath.Join(t.TempDir(), "modpack.zip")
	got := collect(t, NewEngine(nil).Transfer(context.Background(), Target{Destination: dest, URL: srv.URL("/pack.zip")}))
	final := checkSequence(t, got, Failed)

	if final.Err == nil {
		t.Fatal("Failed value carries no error")
	}
	for _, p := range got[:len(got)-1] {
		if p.BytesComplete >= int64(len(body)) {
			t.Errorf("InProgress reported %d bytes past the failure point", p.BytesComplete)
		}
	}
}

func TestTransferMissingContentLength(t *testing.T) {
	srv := th.NewMockPayloadServer(t)
	srv.SetPayload("/pack.zip", th.MockPayload{Body: []byte("no length here"), OmitLength: true})

	dest := filepath.Join(t.TempDir(), "modpack.zip")
	got := collect(t, NewEngine(nil).Transfer(context.Background(), Target{Destination: dest, URL: srv.URL("/pack.zip")}))
	final := checkSequence(t, got, Failed)

	if !errors.Is(final.Err, ErrProtocol) {
		t.Errorf("error = %v, want ErrProtocol", final.Err)
	}
}

func TestTransferBadStatus(t *testing.T) {
	srv := th.NewMockPayloadServer(t)

	dest := filepath.Join(t.TempDir(), "modpack.zip")
	got := collect(t, NewEngine(nil).Transfer(context.Background(), Target{Destination: dest, URL: srv.URL("/missing.zip")}))
	final := checkSequence(t, got, Failed)

	if !errors.Is(final.Err, ErrProtocol) {
		t.Errorf("error = %v, want ErrProtocol", final.Err)
	}
}

func TestTransferUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/pack.zip"
	srv.Close()

	dest := filepath.Join(t.TempDir(), "modpack.zip")
	got := collect(t, NewEngine(nil).Transfer(context.Background(), Target{Destination: dest, URL: url}))
	final := checkSequence(t, got, Failed)

	if !errors.Is(final.Err, ErrNetwork) {
		t.Errorf("error = %v, want ErrNetwork", final.Err)
	}
}

func TestTransferCancelled(t *testing.T) {
	body := bytes.Repeat([]byte{1}, 64*1024)

	srv := th.NewMockPayloadServer(t)
	srv.SetPayload("/pack.zip", th.MockPayload{Body: body, ChunkSize: 1024, ChunkDelay: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	ch := NewEngine(nil).Transfer(ctx, Target{Destination: filepath.Join(t.TempDir(), "modpack.zip"), URL: srv.URL("/pack.zip")})
	time.AfterFunc(50*time.Millisecond, cancel)

	final := checkSequence(t, collect(t, ch), Failed)
	if !errors.Is(final.Err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", final.Err)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		fraction float64
		want     int
	}{
		{0, 0},
		{0.5, 50},
		{1, 100},
		{1.7, 100},
		{-0.2, 0},
	}

	for _, tt := range tests {
		if got := (Progress{Fraction: tt.fraction}).Percent(); got != tt.want {
			t.Errorf("Percent(%f) = %d, want %d", tt.fraction, got, tt.want)
		}
	}
}
