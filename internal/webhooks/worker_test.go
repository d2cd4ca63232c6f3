package webhooks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"daynav/internal/store"
)

type recordStore struct {
	*store.Memory
	mu    sync.Mutex
	marks []markRec
	fails []failRec
}

type markRec struct {
	ID      string
	Success bool
	Code    int
	LastErr string
}

type failRec struct {
	ID      string
	Code    int
	LastErr string
}

func (r *recordStore) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	r.mu.Lock()
	r.marks = append(r.marks, markRec{ID: id, Success: success, Code: responseCode, LastErr: lastError})
	r.mu.Unlock()
	return r.Memory.MarkWebhookDelivery(ctx, id, success, nextAttemptAt, lastError, responseCode, latencyMs)
}

func (r *recordStore) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	r.mu.Lock()
	r.fails = append(r.fails, failRec{ID: id, Code: responseCode, LastErr: lastError})
	r.mu.Unlock()
	return r.Memory.FailWebhookDelivery(ctx, id, lastError, responseCode, latencyMs)
}

func TestWorkerProcessOnce_SuccessAndSignature(t *testing.T) {
	var gotSig, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Signature")
		gotType = r.Header.Get("X-Event-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(200)
	}))
	defer srv.Close()

	rs := &recordStore{Memory: store.NewMemory()}
	w := &Worker{Store: rs, HTTP: srv.Client(), Log: zerolog.Nop(), Stop: make(chan struct{}), MaxAttempts: 3}
	payload := []byte(`{"id":"evt1"}`)
	id, err := rs.Memory.EnqueueWebhook(context.Background(), "sub1", "plan.solved", srv.URL, "secret", payload)
	if err != nil || id == "" {
		t.Fatalf("enqueue failed: %v", err)
	}

	w.processOnce()

	if gotType != "plan.solved" {
		t.Fatalf("wrong event type header: %q", gotType)
	}
	if !VerifyHMAC("secret", gotBody, gotSig) {
		t.Fatalf("signature did not verify: sig=%q body=%s", gotSig, gotBody)
	}
	if len(rs.marks) == 0 || !rs.marks[0].Success {
		t.Fatalf("expected mark success, got: %+v", rs.marks)
	}
}

func TestWorkerProcessOnce_RetriesThenFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500) }))
	defer srv.Close()

	rs := &recordStore{Memory: store.NewMemory()}
	w := &Worker{Store: rs, HTTP: srv.Client(), Log: zerolog.Nop(), Stop: make(chan struct{}), MaxAttempts: 1}
	_, _ = rs.Memory.EnqueueWebhook(context.Background(), "sub1", "plan.solved", srv.URL, "", []byte(`{}`))

	w.processOnce()

	if len(rs.fails) == 0 {
		t.Fatalf("expected fail recorded")
	}
	if len(rs.marks) != 0 {
		t.Fatalf("delivery should go straight to failed at max attempts, got marks: %+v", rs.marks)
	}
}

func TestWorkerBackoffGrowth(t *testing.T) {
	if nextBackoff(0) != time.Second {
		t.Fatalf("first retry should wait 1s, got %v", nextBackoff(0))
	}
	if nextBackoff(3) != 8*time.Second {
		t.Fatalf("fourth retry should wait 8s, got %v", nextBackoff(3))
	}
	if nextBackoff(20) != time.Hour {
		t.Fatalf("backoff should cap at 1h, got %v", nextBackoff(20))
	}
}

func TestSignHMACRoundTrip(t *testing.T) {
	body := []byte(`{"hello":"world"}`)
	sig := SignHMAC("s3cret", body)
	if !VerifyHMAC("s3cret", body, sig) {
		t.Fatalf("signature should verify")
	}
	if VerifyHMAC("other", body, sig) {
		t.Fatalf("wrong secret should not verify")
	}
	if VerifyHMAC("s3cret", []byte(`{}`), sig) {
		t.Fatalf("altered body should not verify")
	}
}
