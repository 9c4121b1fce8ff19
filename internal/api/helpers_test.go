package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"tero/internal/ai"
	"tero/internal/directory"
	"tero/internal/matching"
	"tero/internal/models"
	"tero/internal/tools"
	"tero/internal/tools/prealert"
	"tero/internal/tools/reservation"
	"tero/internal/triage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Heart Institute sits exactly at heartOrigin.
var heartOrigin = models.Location{Latitude: 12.97, Longitude: 77.59}

func fixtureHospitals() []models.Hospital {
	return []models.Hospital{
		{
			ID:            "cardiac",
			Name:          "Heart Institute",
			City:          "Testville",
			Location:      heartOrigin,
			Specialties:   []string{"Cardiology", "Emergency"},
			AvailableBeds: 10,
			WaitTime:      20,
		},
		{
			ID:            "general",
			Name:          "General Hospital",
			City:          "Testville",
			Location:      models.Location{Latitude: 12.98, Longitude: 77.60},
			Specialties:   []string{"General Medicine", "Emergency"},
			AvailableBeds: 50,
			WaitTime:      5,
		},
		{
			ID:            "far-neuro",
			Name:          "Neuro Centre",
			City:          "Othertown",
			Location:      models.Location{Latitude: 13.30, Longitude: 77.90},
			Specialties:   []string{"Neurology", "Neurosurgery"},
			AvailableBeds: 2,
			WaitTime:      60,
		},
	}
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []prealert.Alert
}

func (r *recordingNotifier) Notify(ctx context.Context, alert prealert.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

type fakeModel struct {
	content string
	err     error
}

func (f *fakeModel) Name() string       { return "fake" }
func (f *fakeModel) Type() ai.ModelType { return "fake" }
func (f *fakeModel) ProcessText(ctx context.Context, prompt string) (*ai.ModelResponse, error) {
	return f.ProcessTextWithJSON(ctx, prompt, "")
}
func (f *fakeModel) ProcessTextWithJSON(ctx context.Context, prompt, schema string) (*ai.ModelResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ai.ModelResponse{Content: f.content, Format: ai.FormatJSON}, nil
}

type testEnv struct {
	router      *gin.Engine
	store       *directory.SQLiteStore
	notifier    *recordingNotifier
	coordinator *MatchCoordinator
}

func newTestEnv(t *testing.T, model ai.Model) *testEnv {
	t.Helper()

	store, err := directory.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.Seed(context.Background(), fixtureHospitals())
	require.NoError(t, err)

	log := zerolog.Nop()
	dir := directory.New(store, 0, log)
	scorer := matching.NewScorer(matching.DefaultParams())

	notifier := &recordingNotifier{}
	registry := tools.NewToolRegistry()
	require.NoError(t, registry.Register(prealert.NewTool(notifier, log)))
	require.NoError(t, registry.Register(reservation.NewTool(store, log)))

	coordinator := NewMatchCoordinator(
		dir,
		scorer,
		triage.NewRuleBasedClassifier(triage.ClassifierConfig{}),
		nil,
		registry,
		nil,
		CoordinatorConfig{},
		log,
	)
	processor := NewAssessmentProcessor(model, nil, 0, log)
	handler := NewHandler(coordinator, processor, dir, scorer, 0, log)

	return &testEnv{
		router:      NewRouter(handler, log, 1<<20),
		store:       store,
		notifier:    notifier,
		coordinator: coordinator,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
