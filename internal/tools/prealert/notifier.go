package prealert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
)

// ErrDeliveryFailed is returned when every delivery attempt failed.
var ErrDeliveryFailed = errors.New("pre-alert delivery failed")

// Alert is the pre-arrival notice sent to a receiving hospital.
type Alert struct {
	AlertID            string    `json:"alert_id"`
	AssessmentID       string    `json:"assessment_id"`
	HospitalID         string    `json:"hospital_id"`
	HospitalName       string    `json:"hospital_name"`
	TriageCode         string    `json:"triage_code"`
	Critical           bool      `json:"is_critical"`
	CriticalReasons    []string  `json:"critical_reasons,omitempty"`
	MatchScore         int       `json:"match_score"`
	MatchedSpecialties []string  `json:"matched_specialties,omitempty"`
	ETAMinutes         float64   `json:"eta_minutes,omitempty"`
	Summary            string    `json:"summary,omitempty"`
	SentAt             time.Time `json:"sent_at"`
}

// Notifier delivers alerts. Implementations must honour ctx.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// HTTPConfig configures HTTPNotifier.
type HTTPConfig struct {
	Endpoint      string
	APIKey        string
	Timeout       time.Duration
	RetryAttempts int
	// RetryInterval is the base backoff; attempt n waits n*n*RetryInterval.
	RetryInterval time.Duration
}

// HTTPNotifier POSTs alerts to <Endpoint>/prealerts.
type HTTPNotifier struct {
	config HTTPConfig
	client *http.Client
}

// NewHTTPNotifier creates an HTTP notifier. A nil client gets one with config.Timeout.
func NewHTTPNotifier(config HTTPConfig, client *http.Client) *HTTPNotifier {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 3
	}
	if config.RetryInterval == 0 {
		config.RetryInterval = 100 * time.Millisecond
	}
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	return &HTTPNotifier{config: config, client: client}
}

func (n *HTTPNotifier) Notify(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < n.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * n.config.RetryInterval
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = n.post(ctx, alert, body)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrDeliveryFailed, n.config.RetryAttempts, lastErr)
}

func (n *HTTPNotifier) post(ctx context.Context, alert Alert, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.Endpoint+"/prealerts", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Triage-Code", alert.TriageCode)
	if n.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.config.APIKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("hospital API returned status code: %d", resp.StatusCode)
	}
	return nil
}

// Publisher is the part of *nats.Conn the NATS notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier publishes alerts on <prefix>.<hospital_id>.
type NATSNotifier struct {
	pub    Publisher
	prefix string
	conn   *nats.Conn
}

// DialNATS connects to url and returns a notifier that owns the connection.
func DialNATS(url, prefix string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url,
		nats.Name("tero-prealert"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(10),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	n := NewNATSNotifier(conn, prefix)
	n.conn = conn
	return n, nil
}

// NewNATSNotifier wraps an existing publisher.
func NewNATSNotifier(pub Publisher, prefix string) *NATSNotifier {
	if prefix == "" {
		prefix = "tero.prealert"
	}
	return &NATSNotifier{pub: pub, prefix: prefix}
}

// Subject returns the subject alerts for hospitalID are published on.
func (n *NATSNotifier) Subject(hospitalID string) string {
	return n.prefix + "." + hospitalID
}

func (n *NATSNotifier) Notify(ctx context.Context, alert Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	if err := n.pub.Publish(n.Subject(alert.HospitalID), payload); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

// Close drains the connection if the notifier dialled it.
func (n *NATSNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
