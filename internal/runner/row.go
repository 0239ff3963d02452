package runner

import (
	"encoding/json"
	"math"
	"strconv"
)

// Row is one logged heater step. Missing sensor fields after a failed
// capture are NaN so downstream tooling can distinguish "no reading" from
// a legitimate zero.
type Row struct {
	TimestampUTC  string  `json:"timestamp_utc"`
	ElapsedSec    float64 `json:"elapsed_sec"`
	CycleIndex    int     `json:"cycle_index"`
	StepIndex     int     `json:"step_index"`
	HeaterTempC   int     `json:"commanded_heater_temp_C"`
	DurationTicks int     `json:"step_duration_ticks"`
	DurationMS    int     `json:"step_duration_ms"`
	HeatStable    bool    `json:"heater_heat_stable"`
	StatusRaw     float64 `json:"sensor_status_raw"`
	GasResistance float64 `json:"gas_resistance_ohm"`
	Temperature   float64 `json:"sensor_temperature_C"`
	Humidity      float64 `json:"sensor_humidity_RH"`
	Pressure      float64 `json:"pressure_Pa"`
	Backend       string  `json:"backend"`
	I2CAddr       string  `json:"i2c_addr"`
	SampleName    string  `json:"sample_name"`
	SpecimenID    string  `json:"specimen_id"`
	Storage       string  `json:"storage"`
	Notes         string  `json:"notes"`
	ProfileName   string  `json:"profile_name"`
	ProfileHash   string  `json:"profile_hash"`
	WarmupCycle   bool    `json:"warmup_cycle"`
}

var csvHeader = []string{
	"timestamp_utc",
	"elapsed_sec",
	"cycle_index",
	"step_index",
	"commanded_heater_temp_C",
	"step_duration_ticks",
	"step_duration_ms",
	"heater_heat_stable",
	"sensor_status_raw",
	"gas_resistance_ohm",
	"sensor_temperature_C",
	"sensor_humidity_RH",
	"pressure_Pa",
	"backend",
	"i2c_addr",
	"sample_name",
	"specimen_id",
	"storage",
	"notes",
	"profile_name",
	"profile_hash",
	"warmup_cycle",
}

// Record renders the row in csvHeader order.
func (r Row) Record() []string {
	return []string{
		r.TimestampUTC,
		formatFloat(r.ElapsedSec),
		strconv.Itoa(r.CycleIndex),
		strconv.Itoa(r.StepIndex),
		strconv.Itoa(r.HeaterTempC),
		strconv.Itoa(r.DurationTicks),
		strconv.Itoa(r.DurationMS),
		strconv.FormatBool(r.HeatStable),
		formatFloat(r.StatusRaw),
		formatFloat(r.GasResistance),
		formatFloat(r.Temperature),
		formatFloat(r.Humidity),
		formatFloat(r.Pressure),
		r.Backend,
		r.I2CAddr,
		r.SampleName,
		r.SpecimenID,
		r.Storage,
		r.Notes,
		r.ProfileName,
		r.ProfileHash,
		strconv.FormatBool(r.WarmupCycle),
	}
}

// MarshalJSON emits null for the sensor fields that are NaN after a
// failed capture; NaN is not representable in JSON.
func (r Row) MarshalJSON() ([]byte, error) {
	type alias Row
	return json.Marshal(struct {
		alias
		StatusRaw     *float64 `json:"sensor_status_raw"`
		GasResistance *float64 `json:"gas_resistance_ohm"`
		Temperature   *float64 `json:"sensor_temperature_C"`
		Humidity      *float64 `json:"sensor_humidity_RH"`
		Pressure      *float64 `json:"pressure_Pa"`
	}{
		alias:         alias(r),
		StatusRaw:     jsonFloat(r.StatusRaw),
		GasResistance: jsonFloat(r.GasResistance),
		Temperature:   jsonFloat(r.Temperature),
		Humidity:      jsonFloat(r.Humidity),
		Pressure:      jsonFloat(r.Pressure),
	})
}

func jsonFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
