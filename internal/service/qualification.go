package service

import (
	"fmt"

	"github.com/thethakurshivam/grs-sub003/internal/models"
)

// DefaultQualificationThresholds are the credits required per qualification.
var DefaultQualificationThresholds = map[models.Qualification]float64{
	models.QualificationCertificate: 20,
	models.QualificationDiploma:     40,
	models.QualificationPGDiploma:   60,
}

// QualificationThresholds looks up required credits, with optional per-umbrella overrides.
type QualificationThresholds struct {
	defaults  map[models.Qualification]float64
	overrides map[string]map[models.Qualification]float64
}

// NewQualificationThresholds parses raw qualification names. Overrides are keyed by umbrella.
func NewQualificationThresholds(defaults map[string]float64, overrides map[string]map[string]float64) (*QualificationThresholds, error) {
	t := &QualificationThresholds{
		defaults:  make(map[models.Qualification]float64, len(DefaultQualificationThresholds)),
		overrides: make(map[string]map[models.Qualification]float64, len(overrides)),
	}
	for qual, credits := range DefaultQualificationThresholds {
		t.defaults[qual] = credits
	}
	for raw, credits := range defaults {
		qual, ok := models.ParseQualification(raw)
		if !ok {
			return nil, fmt.Errorf("unknown qualification %q", raw)
		}
		t.defaults[qual] = credits
	}
	for umbrella, values := range overrides {
		parsed := make(map[models.Qualification]float64, len(values))
		for raw, credits := range values {
			qual, ok := models.ParseQualification(raw)
			if !ok {
				return nil, fmt.Errorf("unknown qualification %q for umbrella %s", raw, umbrella)
			}
			parsed[qual] = credits
		}
		t.overrides[umbrella] = parsed
	}
	return t, nil
}

// Required returns the credits needed for qual in umbrellaKey.
func (t *QualificationThresholds) Required(umbrellaKey string, qual models.Qualification) (float64, bool) {
	if t == nil {
		credits, ok := DefaultQualificationThresholds[qual]
		return credits, ok
	}
	if byQual, ok := t.overrides[umbrellaKey]; ok {
		if credits, ok := byQual[qual]; ok {
			return credits, true
		}
	}
	credits, ok := t.defaults[qual]
	return credits, ok
}

// ForUmbrella returns the effective thresholds of one umbrella keyed by qualification name.
func (t *QualificationThresholds) ForUmbrella(umbrellaKey string) map[string]float64 {
	out := make(map[string]float64, 3)
	for _, qual := range Qualifications() {
		if credits, ok := t.Required(umbrellaKey, qual); ok {
			out[string(qual)] = credits
		}
	}
	return out
}

// Qualifications lists the known qualifications in ascending order of rank.
func Qualifications() []models.Qualification {
	return []models.Qualification{
		models.QualificationCertificate,
		models.QualificationDiploma,
		models.QualificationPGDiploma,
	}
}
