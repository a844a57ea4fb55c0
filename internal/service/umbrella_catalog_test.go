package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thethakurshivam/grs-sub003/internal/models"
)

func TestUmbrellaCatalogNormalize(t *testing.T) {
	catalog := NewUmbrellaCatalog(nil)

	cases := map[string]string{
		"Cyber_Security":   "Cyber_Security",
		"cyber security":   "Cyber_Security",
		" Cyber-Security ": "Cyber_Security",
		"FORENSIC SCIENCE": "Forensic_Science",
	}
	for raw, want := range cases {
		got, ok := catalog.Normalize(raw)
		require.True(t, ok, raw)
		require.Equal(t, want, got)
	}

	_, ok := catalog.Normalize("Astrology")
	require.False(t, ok)
	require.True(t, catalog.Exists("Criminology"))
	require.False(t, catalog.Exists("criminology"))
	require.Len(t, catalog.List(), len(DefaultUmbrellas))
}

func TestUmbrellaCatalogConfigured(t *testing.T) {
	catalog := NewUmbrellaCatalog([]string{"Cyber_Security", "cyber security", "Maritime_Law"})
	require.Equal(t, []string{"Cyber_Security", "Maritime_Law"}, catalog.List())
	_, ok := catalog.Normalize("Criminology")
	require.False(t, ok)
}

func TestQualificationThresholds(t *testing.T) {
	thresholds, err := NewQualificationThresholds(
		map[string]float64{"certificate": 20, "diploma": 40, "pg diploma": 60},
		map[string]map[string]float64{"Cyber_Security": {"certificate": 3}},
	)
	require.NoError(t, err)

	required, ok := thresholds.Required("Cyber_Security", models.QualificationCertificate)
	require.True(t, ok)
	require.Equal(t, 3.0, required)

	required, ok = thresholds.Required("Cyber_Security", models.QualificationDiploma)
	require.True(t, ok)
	require.Equal(t, 40.0, required)

	required, ok = thresholds.Required("Criminology", models.QualificationPGDiploma)
	require.True(t, ok)
	require.Equal(t, 60.0, required)

	require.Equal(t, map[string]float64{"certificate": 3, "diploma": 40, "pg diploma": 60}, thresholds.ForUmbrella("Cyber_Security"))

	_, err = NewQualificationThresholds(map[string]float64{"doctorate": 90}, nil)
	require.Error(t, err)
}
