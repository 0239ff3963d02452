package profile

// Built-in starter profiles, available without any profile file.

func defaultBroadSweep() *Profile {
	return &Profile{
		Name:    "Meat Freshness Sweep v1",
		Version: 1,
		Backend: BackendI2C,
		I2CAddr: "0x76",
		Steps: []Step{
			{TempC: 180, Ticks: 1},
			{TempC: 220, Ticks: 1},
			{TempC: 260, Ticks: 1},
			{TempC: 300, Ticks: 1},
			{TempC: 340, Ticks: 1},
		},
		CycleTargetSec: 0.7,
		Notes:          "Starter broad-spectrum sweep for VOC/spoilage signals",
	}
}

func defaultVOC() *Profile {
	return &Profile{
		Name:    "VOC/IAQ Default",
		Version: 1,
		Backend: BackendI2C,
		I2CAddr: "0x76",
		Steps: []Step{
			{TempC: 150, Ticks: 1},
			{TempC: 200, Ticks: 1},
			{TempC: 250, Ticks: 1},
			{TempC: 300, Ticks: 1},
		},
		CycleTargetSec: 0.56,
		Notes:          "IAQ-focused sweep",
	}
}

// Defaults returns the built-in profiles, broad sweep first.
func Defaults() []*Profile {
	return []*Profile{defaultBroadSweep(), defaultVOC()}
}

// Default returns the standard profile used when none is specified.
func Default() *Profile {
	return defaultBroadSweep()
}
