package triage

import (
	"regexp"
	"strconv"

	"tero/internal/models"
)

var (
	hrPattern   = regexp.MustCompile(`(?i)\b(?:hr|heart rate|pulse)\s*(?:of|is|:|=)?\s*(\d{2,3})\b`)
	bpPattern   = regexp.MustCompile(`(?i)\b(?:bp|blood pressure)\s*(?:of|is|:|=)?\s*(\d{2,3})\s*/\s*(\d{2,3})\b`)
	spo2Pattern = regexp.MustCompile(`(?i)\b(?:spo2|sats?|o2 sat(?:uration)?)\s*(?:of|is|:|=)?\s*(\d{2,3})\s*%?`)
	rrPattern   = regexp.MustCompile(`(?i)\b(?:rr|resp(?:iratory)? rate)\s*(?:of|is|:|=)?\s*(\d{1,2})\b`)
	tempPattern = regexp.MustCompile(`(?i)\b(?:temp(?:erature)?)\s*(?:of|is|:|=)?\s*(\d{2,3}(?:\.\d)?)\b`)
	gcsPattern  = regexp.MustCompile(`(?i)\bgcs\s*(?:of|is|:|=)?\s*(\d{1,2})\b`)
)

// ExtractVitals pulls vital signs written in common paramedic shorthand
// ("HR 140", "BP 85/50", "SpO2 88%", "GCS 7") out of free text. Values not
// present in the text stay nil.
func ExtractVitals(text string) models.Vitals {
	var v models.Vitals

	v.HeartRate = firstNumber(hrPattern, text, 1)
	if m := bpPattern.FindStringSubmatch(text); m != nil {
		v.BPSystolic = parse(m[1])
		v.BPDiastolic = parse(m[2])
	}
	v.SpO2 = firstNumber(spo2Pattern, text, 1)
	v.RespiratoryRate = firstNumber(rrPattern, text, 1)
	v.Temperature = firstNumber(tempPattern, text, 1)
	v.GCS = firstNumber(gcsPattern, text, 1)

	if v.GCS != nil && (*v.GCS < 3 || *v.GCS > 15) {
		v.GCS = nil
	}
	if v.SpO2 != nil && *v.SpO2 > 100 {
		v.SpO2 = nil
	}
	return v
}

// MergeVitals fills the unmeasured fields of base from extra.
func MergeVitals(base, extra models.Vitals) models.Vitals {
	pick := func(a, b *float64) *float64 {
		if a != nil {
			return a
		}
		return b
	}
	return models.Vitals{
		HeartRate:       pick(base.HeartRate, extra.HeartRate),
		BPSystolic:      pick(base.BPSystolic, extra.BPSystolic),
		BPDiastolic:     pick(base.BPDiastolic, extra.BPDiastolic),
		SpO2:            pick(base.SpO2, extra.SpO2),
		RespiratoryRate: pick(base.RespiratoryRate, extra.RespiratoryRate),
		Temperature:     pick(base.Temperature, extra.Temperature),
		GCS:             pick(base.GCS, extra.GCS),
	}
}

func firstNumber(re *regexp.Regexp, text string, group int) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return parse(m[group])
}

func parse(s string) *float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return models.Value(f)
}
