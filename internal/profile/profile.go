// Package profile defines heater sweep profiles: an ordered table of heater
// temperature/duration steps plus the backend and device address they run
// against. Profiles are validated as a whole before a run and treated as
// immutable while one is active.
package profile

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
)

// TickMS is the heater-duration unit, aligned with the device's internal
// timing granularity.
const TickMS = 140

const (
	MinStepTempC = 100
	MaxStepTempC = 400
	MinTicks     = 1
	MaxTicks     = 255
	MinSteps     = 1
	MaxSteps     = 16
)

// Valid backend identifiers.
const (
	BackendI2C    = "bme68x_i2c"
	BackendBridge = "coines"
)

// Step is one commanded heater setpoint.
type Step struct {
	TempC int `json:"temp_c"`
	Ticks int `json:"ticks"`
}

// DurationMS is the step duration derived from the tick count.
func (s Step) DurationMS() int {
	return s.Ticks * TickMS
}

func (s Step) Validate() error {
	if s.TempC < MinStepTempC || s.TempC > MaxStepTempC {
		return fmt.Errorf("step temperature %d out of range (%d-%d C)", s.TempC, MinStepTempC, MaxStepTempC)
	}
	if s.Ticks < MinTicks || s.Ticks > MaxTicks {
		return fmt.Errorf("step duration %d ticks out of range (%d-%d ticks)", s.Ticks, MinTicks, MaxTicks)
	}
	return nil
}

// Profile is a named, versioned heater sweep.
type Profile struct {
	Name           string  `json:"name"`
	Version        int     `json:"version"`
	Backend        string  `json:"backend"`
	I2CAddr        string  `json:"i2c_addr"`
	Steps          []Step  `json:"steps"`
	CycleTargetSec float64 `json:"cycle_target_sec"`
	DwellSec       float64 `json:"dwell_sec,omitempty"`
	Notes          string  `json:"notes"`

	// Path is set when the profile was loaded from disk; the hash is
	// computed over the file bytes in that case.
	Path string `json:"-"`
}

func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	if p.Backend != BackendI2C && p.Backend != BackendBridge {
		return fmt.Errorf("unsupported backend %q, expected %q or %q", p.Backend, BackendI2C, BackendBridge)
	}
	if len(p.I2CAddr) < 3 || p.I2CAddr[:2] != "0x" {
		return fmt.Errorf("i2c address must be a hex string like 0x76, got %q", p.I2CAddr)
	}
	if len(p.Steps) < MinSteps || len(p.Steps) > MaxSteps {
		return fmt.Errorf("profiles must contain between %d and %d steps, got %d", MinSteps, MaxSteps, len(p.Steps))
	}
	if p.CycleTargetSec < 0 {
		return fmt.Errorf("cycle_target_sec must be non-negative")
	}
	if p.DwellSec < 0 {
		return fmt.Errorf("dwell_sec must be non-negative")
	}
	for i, step := range p.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

// EstimatedCycleLengthSec is the wall-clock length of one full sweep.
func (p *Profile) EstimatedCycleLengthSec() float64 {
	total := 0
	for _, s := range p.Steps {
		total += s.DurationMS()
	}
	return float64(total) / 1000.0
}

// Clone returns an independent copy for editing; the running profile stays
// untouched.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Steps = make([]Step, len(p.Steps))
	copy(c.Steps, p.Steps)
	c.Path = ""
	return &c
}

// WithDwell returns a copy with the inter-cycle dwell replaced, so a
// command-line override never mutates the loaded profile.
func (p *Profile) WithDwell(seconds float64) *Profile {
	c := p.Clone()
	c.DwellSec = seconds
	return c
}

// Hash is the SHA-1 of the persisted profile: the file bytes when the
// profile was loaded from disk, otherwise the canonical JSON encoding.
func (p *Profile) Hash() (string, error) {
	var payload []byte
	if p.Path != "" {
		b, err := os.ReadFile(p.Path)
		if err == nil {
			payload = b
		}
	}
	if payload == nil {
		b, err := canonicalJSON(p)
		if err != nil {
			return "", err
		}
		payload = b
	}
	sum := sha1.Sum(payload)
	return hex.EncodeToString(sum[:]), nil
}

// canonicalJSON marshals with sorted keys so the hash is stable.
func canonicalJSON(p *Profile) ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := []byte("{")
	for i, k := range keys {
		if i > 0 {
			out = append(out, ',')
		}
		kb, _ := json.Marshal(k)
		out = append(out, kb...)
		out = append(out, ':')
		out = append(out, m[k]...)
	}
	return append(out, '}'), nil
}

// stepFile is the on-disk step encoding: either ticks or ms may be given;
// ms is rounded to the nearest whole tick with a floor of one.
type stepFile struct {
	TempC int  `json:"temp_c"`
	Ticks *int `json:"ticks,omitempty"`
	MS    *int `json:"ms,omitempty"`
}

func (sf stepFile) toStep() (Step, error) {
	if sf.Ticks != nil {
		return Step{TempC: sf.TempC, Ticks: *sf.Ticks}, nil
	}
	if sf.MS != nil {
		ticks := int(math.Round(float64(*sf.MS) / TickMS))
		if ticks < 1 {
			ticks = 1
		}
		return Step{TempC: sf.TempC, Ticks: ticks}, nil
	}
	return Step{}, fmt.Errorf("step needs either ticks or ms")
}

type profileFile struct {
	Name           string     `json:"name"`
	Version        int        `json:"version"`
	Backend        string     `json:"backend"`
	I2CAddr        string     `json:"i2c_addr"`
	Steps          []stepFile `json:"steps"`
	CycleTargetSec float64    `json:"cycle_target_sec"`
	DwellSec       float64    `json:"dwell_sec"`
	Notes          string     `json:"notes"`
}

// Load reads and validates a profile JSON file.
func Load(path string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	p, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	p.Path = path
	return p, nil
}

// Parse decodes a profile from JSON and validates it.
func Parse(raw []byte) (*Profile, error) {
	var pf profileFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	p := &Profile{
		Name:           pf.Name,
		Version:        pf.Version,
		Backend:        pf.Backend,
		I2CAddr:        pf.I2CAddr,
		CycleTargetSec: pf.CycleTargetSec,
		DwellSec:       pf.DwellSec,
		Notes:          pf.Notes,
	}
	if p.Version == 0 {
		p.Version = 1
	}
	if p.Backend == "" {
		p.Backend = BackendI2C
	}
	if p.I2CAddr == "" {
		p.I2CAddr = "0x76"
	}
	for _, sf := range pf.Steps {
		step, err := sf.toStep()
		if err != nil {
			return nil, err
		}
		p.Steps = append(p.Steps, step)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Save writes the profile as indented JSON, recomputing the cycle target
// from the step table and emitting both ticks and ms for each step.
func (p *Profile) Save(path string) error {
	p.CycleTargetSec = p.EstimatedCycleLengthSec()
	pf := profileFile{
		Name:           p.Name,
		Version:        p.Version,
		Backend:        p.Backend,
		I2CAddr:        p.I2CAddr,
		CycleTargetSec: p.CycleTargetSec,
		DwellSec:       p.DwellSec,
		Notes:          p.Notes,
	}
	for _, s := range p.Steps {
		ticks, ms := s.Ticks, s.DurationMS()
		pf.Steps = append(pf.Steps, stepFile{TempC: s.TempC, Ticks: &ticks, MS: &ms})
	}
	raw, err := json.MarshalIndent(&pf, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	p.Path = path
	return nil
}

// Address parses the profile's I2C address string.
func (p *Profile) Address() (uint16, error) {
	var addr uint16
	if _, err := fmt.Sscanf(p.I2CAddr, "0x%x", &addr); err != nil {
		return 0, fmt.Errorf("invalid I2C address %q", p.I2CAddr)
	}
	return addr, nil
}
