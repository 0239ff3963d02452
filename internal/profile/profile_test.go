package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile() *Profile {
	return &Profile{
		Name:    "test sweep",
		Version: 1,
		Backend: BackendI2C,
		I2CAddr: "0x76",
		Steps: []Step{
			{TempC: 180, Ticks: 1},
			{TempC: 220, Ticks: 2},
		},
		CycleTargetSec: 0.42,
	}
}

func TestStepDurationMS(t *testing.T) {
	assert.Equal(t, 140, Step{TempC: 200, Ticks: 1}.DurationMS())
	assert.Equal(t, 420, Step{TempC: 200, Ticks: 3}.DurationMS())
}

func TestStepValidate(t *testing.T) {
	tests := []struct {
		name string
		step Step
		ok   bool
	}{
		{"valid", Step{TempC: 200, Ticks: 1}, true},
		{"temp low", Step{TempC: 99, Ticks: 1}, false},
		{"temp high", Step{TempC: 401, Ticks: 1}, false},
		{"temp bounds", Step{TempC: 100, Ticks: 255}, true},
		{"zero ticks", Step{TempC: 200, Ticks: 0}, false},
		{"ticks high", Step{TempC: 200, Ticks: 256}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.step.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestProfileValidate(t *testing.T) {
	p := validProfile()
	require.NoError(t, p.Validate())

	t.Run("empty name", func(t *testing.T) {
		bad := validProfile()
		bad.Name = ""
		assert.Error(t, bad.Validate())
	})
	t.Run("bad backend", func(t *testing.T) {
		bad := validProfile()
		bad.Backend = "spi"
		assert.Error(t, bad.Validate())
	})
	t.Run("bad address", func(t *testing.T) {
		bad := validProfile()
		bad.I2CAddr = "118"
		assert.Error(t, bad.Validate())
	})
	t.Run("too many steps", func(t *testing.T) {
		bad := validProfile()
		bad.Steps = make([]Step, 17)
		for i := range bad.Steps {
			bad.Steps[i] = Step{TempC: 200, Ticks: 1}
		}
		assert.Error(t, bad.Validate())
	})
	t.Run("no steps", func(t *testing.T) {
		bad := validProfile()
		bad.Steps = nil
		assert.Error(t, bad.Validate())
	})
	t.Run("bad step reported with index", func(t *testing.T) {
		bad := validProfile()
		bad.Steps[1].TempC = 50
		err := bad.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "step 2")
	})
}

func TestParseTicksFromMS(t *testing.T) {
	raw := []byte(`{
		"name": "ms profile",
		"backend": "bme68x_i2c",
		"i2c_addr": "0x76",
		"steps": [
			{"temp_c": 180, "ms": 150},
			{"temp_c": 220, "ms": 10},
			{"temp_c": 260, "ticks": 3}
		]
	}`)
	p, err := Parse(raw)
	require.NoError(t, err)
	// 150 ms rounds to 1 tick, 10 ms floors at 1 tick.
	assert.Equal(t, 1, p.Steps[0].Ticks)
	assert.Equal(t, 1, p.Steps[1].Ticks)
	assert.Equal(t, 3, p.Steps[2].Ticks)
	assert.Equal(t, 1, p.Version)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sweep.bmeprofile")

	p := validProfile()
	require.NoError(t, p.Save(path))

	// Saving recomputes the cycle target from the step table.
	assert.InDelta(t, 0.42, p.CycleTargetSec, 1e-9)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Steps, got.Steps)
	assert.Equal(t, path, got.Path)
}

func TestHashStableForFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sweep.bmeprofile")

	p := validProfile()
	require.NoError(t, p.Save(path))

	h1, err := p.Hash()
	require.NoError(t, err)
	h2, err := p.Hash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 40)

	// Hash tracks the file contents.
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"x"}`), 0644))
	h3, err := p.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestClone(t *testing.T) {
	p := validProfile()
	c := p.Clone()
	c.Steps[0].TempC = 399
	assert.Equal(t, 180, p.Steps[0].TempC)
	assert.Empty(t, c.Path)
}

func TestWithDwell(t *testing.T) {
	p := validProfile()
	p.DwellSec = 5

	o := p.WithDwell(0.5)
	assert.Equal(t, 0.5, o.DwellSec)
	assert.Equal(t, 5.0, p.DwellSec)

	o.Steps[0].TempC = 399
	assert.Equal(t, 180, p.Steps[0].TempC)
}

func TestDefaultsValidate(t *testing.T) {
	for _, p := range Defaults() {
		assert.NoError(t, p.Validate(), p.Name)
	}
}

func TestAddress(t *testing.T) {
	p := validProfile()
	addr, err := p.Address()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x76), addr)

	p.I2CAddr = "0xzz"
	_, err = p.Address()
	assert.Error(t, err)
}
