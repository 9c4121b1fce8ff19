package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tero/internal/models"
)

func TestIsCriticalThresholds(t *testing.T) {
	v := models.Value

	cases := []struct {
		name     string
		vitals   models.Vitals
		critical bool
	}{
		{"nothing measured", models.Vitals{}, false},
		{"normal", models.Vitals{HeartRate: v(80), BPSystolic: v(120), SpO2: v(98), GCS: v(15)}, false},
		{"heart rate at upper bound", models.Vitals{HeartRate: v(120)}, false},
		{"tachycardia", models.Vitals{HeartRate: v(121)}, true},
		{"heart rate at lower bound", models.Vitals{HeartRate: v(50)}, false},
		{"bradycardia", models.Vitals{HeartRate: v(49)}, true},
		{"systolic at upper bound", models.Vitals{BPSystolic: v(180)}, false},
		{"hypertensive", models.Vitals{BPSystolic: v(181)}, true},
		{"systolic at lower bound", models.Vitals{BPSystolic: v(90)}, false},
		{"hypotensive", models.Vitals{BPSystolic: v(89)}, true},
		{"spo2 at bound", models.Vitals{SpO2: v(92)}, false},
		{"hypoxic", models.Vitals{SpO2: v(91)}, true},
		{"gcs at bound", models.Vitals{GCS: v(9)}, false},
		{"low gcs", models.Vitals{GCS: v(8)}, true},
		{"diastolic and temperature are not criteria", models.Vitals{BPDiastolic: v(130), Temperature: v(41)}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.critical, IsCritical(tc.vitals))
		})
	}
}

func TestCriticalReasons(t *testing.T) {
	v := models.Value
	reasons := CriticalReasons(models.Vitals{HeartRate: v(140), SpO2: v(85), GCS: v(6)})

	assert.Equal(t, []string{
		"tachycardia (HR 140)",
		"hypoxia (SpO2 85%)",
		"depressed consciousness (GCS 6)",
	}, reasons)
}
