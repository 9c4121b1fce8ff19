package prealert

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPNotifier_Delivers(t *testing.T) {
	var got Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prealerts", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "RED", r.Header.Get("X-Triage-Code"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewHTTPNotifier(HTTPConfig{Endpoint: srv.URL, APIKey: "key"}, nil)
	err := n.Notify(context.Background(), Alert{AlertID: "a1", HospitalID: "h1", TriageCode: "RED"})
	require.NoError(t, err)
	assert.Equal(t, "a1", got.AlertID)
	assert.Equal(t, "h1", got.HospitalID)
}

func TestHTTPNotifier_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewHTTPNotifier(HTTPConfig{Endpoint: srv.URL, RetryAttempts: 3, RetryInterval: time.Millisecond}, nil)
	require.NoError(t, n.Notify(context.Background(), Alert{HospitalID: "h1"}))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPNotifier_GivesUp(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewHTTPNotifier(HTTPConfig{Endpoint: srv.URL, RetryAttempts: 2, RetryInterval: time.Millisecond}, nil)
	err := n.Notify(context.Background(), Alert{HospitalID: "h1"})
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHTTPNotifier_StopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	n := NewHTTPNotifier(HTTPConfig{Endpoint: srv.URL, RetryAttempts: 5, RetryInterval: time.Hour}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := n.Notify(ctx, Alert{HospitalID: "h1"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func TestNATSNotifier_PublishesOnHospitalSubject(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNATSNotifier(pub, "")

	require.NoError(t, n.Notify(context.Background(), Alert{AlertID: "a1", HospitalID: "del-aiims"}))
	require.Len(t, pub.subjects, 1)
	assert.Equal(t, "tero.prealert.del-aiims", pub.subjects[0])

	var got Alert
	require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
	assert.Equal(t, "a1", got.AlertID)

	assert.NoError(t, n.Close())
}

func TestNATSNotifier_Errors(t *testing.T) {
	n := NewNATSNotifier(&fakePublisher{err: errors.New("nats: connection closed")}, "ops.alerts")
	assert.Equal(t, "ops.alerts.h1", n.Subject("h1"))

	err := n.Notify(context.Background(), Alert{HospitalID: "h1"})
	assert.ErrorIs(t, err, ErrDeliveryFailed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Notify(ctx, Alert{HospitalID: "h1"}), context.Canceled)
}
