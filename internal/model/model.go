package model

import "fmt"

// SensorReading is one compensated forced-mode conversion. Values are in
// display units: °C, Pa, %RH, Ω.
type SensorReading struct {
	Temperature   float64
	Pressure      float64
	Humidity      float64
	GasResistance float64
	HeatStable    bool

	// Raw status byte from the sensor (new-data 0x80, gas-valid 0x20,
	// heat-stable 0x10). Negative when the transport did not expose one.
	Status int
}

// HasStatus reports whether the reading carries a raw status byte.
func (r *SensorReading) HasStatus() bool {
	return r.Status >= 0
}

// Storage conditions accepted for sample metadata.
var ValidStorage = []string{"refrigerated", "countertop", "frozen", "other"}

// Metadata describes the food sample under the sensor for one run. It is
// stamped onto every CSV row.
type Metadata struct {
	SampleName string `json:"sample_name"`
	SpecimenID string `json:"specimen_id"`
	Storage    string `json:"storage"`
	Notes      string `json:"notes"`
}

func (m *Metadata) Validate() error {
	if m.SampleName == "" {
		return fmt.Errorf("sample_name is required")
	}
	if m.SpecimenID == "" {
		return fmt.Errorf("specimen_id is required")
	}
	for _, s := range ValidStorage {
		if m.Storage == s {
			return nil
		}
	}
	return fmt.Errorf("storage must be one of refrigerated/countertop/frozen/other, got %q", m.Storage)
}
