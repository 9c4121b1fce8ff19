package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TERO_CONFIG", "")
	t.Setenv("TERO_DB_PATH", ":memory:")
	t.Setenv("TERO_DB_SEED", "true")
	t.Setenv("NOTIFY_MODE", "none")
	t.Setenv("AI_MODEL_TYPE", "")
	t.Setenv("AI_MODEL_API_KEY", "")
	t.Setenv("CLAUDE_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("MATCH_TOP_N", "")
	t.Setenv("MATCH_MAX_DISTANCE_KM", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

const fixtureHospitals = `
hospitals:
  - id: alpha
    name: Alpha Heart Institute
    city: Testville
    location: {latitude: 10.0, longitude: 10.0}
    specialties: [Cardiology]
    available_beds: 20
    wait_time: 30
    distance: 2
  - id: beta
    name: Beta General
    city: Testville
    location: {latitude: 10.01, longitude: 10.0}
    specialties: [General Medicine]
    available_beds: 5
    wait_time: 0
    distance: 1
`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hospitals.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureHospitals), 0o600))
	return path
}

type fileResult struct {
	Critical bool `json:"is_critical"`
	Matches  []struct {
		ID       string `json:"id"`
		Score    int    `json:"match_score"`
		Reason   string `json:"match_reason"`
		Promoted bool   `json:"promoted"`
	} `json:"matches"`
}

func TestMatchFileStandard(t *testing.T) {
	testEnv(t)

	out, err := run(t, "match", "--file", writeFixture(t), "--specialty", "cardio", "--json")
	require.NoError(t, err)

	var res fileResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Matches, 2)

	assert.False(t, res.Critical)
	assert.Equal(t, "alpha", res.Matches[0].ID)
	assert.Equal(t, 39, res.Matches[0].Score)
	assert.Equal(t, "specialty match", res.Matches[0].Reason)
	assert.Equal(t, "beta", res.Matches[1].ID)
	assert.Equal(t, 30, res.Matches[1].Score)
	assert.Equal(t, "balanced", res.Matches[1].Reason)
}

func TestMatchFileCritical(t *testing.T) {
	testEnv(t)

	out, err := run(t, "match", "-f", writeFixture(t), "-s", "Cardiology", "--critical", "--top", "1", "--json")
	require.NoError(t, err)

	var res fileResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Matches, 1)

	assert.True(t, res.Critical)
	assert.Equal(t, 52, res.Matches[0].Score)
	assert.True(t, res.Matches[0].Promoted)
}

func TestMatchFileTagsNotes(t *testing.T) {
	testEnv(t)

	out, err := run(t, "match", "-f", writeFixture(t), "--notes", "crushing chest pain, HR 140")
	require.NoError(t, err)

	assert.Contains(t, out, "Specialties: Cardiology")
	assert.Contains(t, out, "Critical: true")
	assert.Contains(t, out, "Alpha Heart Institute *")
}

func TestMatchFileRejectsReserve(t *testing.T) {
	testEnv(t)

	_, err := run(t, "match", "-f", writeFixture(t), "--reserve")
	require.Error(t, err)
}

func TestMatchRequiresBothCoordinates(t *testing.T) {
	testEnv(t)

	_, err := run(t, "match", "--lat", "12.9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--lat and --lng")

	_, err = run(t, "match", "--lat", "120", "--lng", "10")
	require.Error(t, err)
}

func TestMatchDirectory(t *testing.T) {
	testEnv(t)

	out, err := run(t, "match", "--city", "Bengaluru", "--specialty", "Pediatrics", "--json")
	require.NoError(t, err)

	var res struct {
		Code    string `json:"code"`
		Matches []struct {
			ID    string `json:"id"`
			City  string `json:"city"`
			Score int    `json:"match_score"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Matches, 4)

	assert.Equal(t, "blr-rainbow-marathahalli", res.Matches[0].ID)
	assert.Equal(t, 42, res.Matches[0].Score)
	for _, m := range res.Matches {
		assert.Equal(t, "Bengaluru", m.City)
	}
}

func TestMatchDirectoryReserve(t *testing.T) {
	testEnv(t)

	out, err := run(t, "match", "--city", "Bengaluru", "--specialty", "Pediatrics", "--reserve")
	require.NoError(t, err)

	assert.Contains(t, out, "Rainbow Children's Hospital")
	assert.Contains(t, out, "[reservation] ok")
}

func TestHospitalsList(t *testing.T) {
	testEnv(t)

	out, err := run(t, "hospitals", "--city", "mumbai", "--json")
	require.NoError(t, err)

	var hospitals []struct {
		ID   string `json:"id"`
		City string `json:"city"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &hospitals))
	require.Len(t, hospitals, 3)
	for _, h := range hospitals {
		assert.Equal(t, "Mumbai", h.City)
	}

	out, err = run(t, "hospitals", "--city", "Atlantis")
	require.NoError(t, err)
	assert.Contains(t, out, "No hospitals found.")
}

func TestInvalidConfigFails(t *testing.T) {
	testEnv(t)
	t.Setenv("NOTIFY_MODE", "carrier-pigeon")

	_, err := run(t, "hospitals")
	require.Error(t, err)
}

func TestHospitalsImport(t *testing.T) {
	testEnv(t)

	out, err := run(t, "hospitals", "import", writeFixture(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 hospitals.")
	assert.Contains(t, out, "Testville")

	_, err = run(t, "hospitals", "import")
	require.Error(t, err)
}
