// Package bme68x drives a BME680/BME690 metal-oxide gas sensor over raw
// registers: calibration decoding, vendor fixed-point compensation, and
// forced-mode heater-step conversions.
package bme68x

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNotReady is returned by ReadStep when the sensor never raised the
// new-data flag within the poll budget. It is transient: the caller may
// retry the step. Transport failures are returned as distinct errors.
var ErrNotReady = errors.New("bme68x: data not ready")

// Reading is one compensated forced-mode conversion in display units.
type Reading struct {
	Temperature   float64 // °C
	Pressure      float64 // compensated pressure / 100
	Humidity      float64 // %RH
	GasResistance float64 // Ω
	HeatStable    bool
	Status        byte // composed new-data | gas-valid | heat-stable bits
	GasIndex      uint8
	MeasIndex     uint8
}

// Dev is a handle to an initialized BME68x.
type Dev struct {
	t       Transport
	cal     *Calibration
	variant byte
}

// New initializes the sensor: chip-ID check, soft reset, calibration load,
// and the fixed oversampling/filter/gas configuration used for heater
// sweeps. Any failure leaves the device unusable; there is no retry.
func New(t Transport) (*Dev, error) {
	d := &Dev{t: t}

	buf := make([]byte, 1)
	if err := t.ReadReg(regChipID, buf); err != nil {
		return nil, fmt.Errorf("bme68x: read chip ID: %w", err)
	}
	if buf[0] != chipID {
		return nil, fmt.Errorf("bme68x: unexpected chip ID 0x%02x, want 0x%02x", buf[0], chipID)
	}
	if err := t.ReadReg(regChipVariant, buf); err != nil {
		return nil, fmt.Errorf("bme68x: read chip variant: %w", err)
	}
	d.variant = buf[0]

	if err := d.softReset(); err != nil {
		return nil, err
	}
	if err := d.setPowerMode(sleepMode); err != nil {
		return nil, fmt.Errorf("bme68x: enter sleep mode: %w", err)
	}

	cal, err := loadCalibration(t)
	if err != nil {
		return nil, fmt.Errorf("bme68x: calibration: %w", err)
	}
	d.cal = cal

	if err := t.WriteReg(regCtrlHum, Oversample2x); err != nil {
		return nil, fmt.Errorf("bme68x: set humidity oversampling: %w", err)
	}
	if err := d.updateReg(regCtrlMeas, 0x1C, Oversample4x<<2); err != nil {
		return nil, fmt.Errorf("bme68x: set pressure oversampling: %w", err)
	}
	if err := d.updateReg(regCtrlMeas, 0xE0, Oversample8x<<5); err != nil {
		return nil, fmt.Errorf("bme68x: set temperature oversampling: %w", err)
	}
	if err := d.updateReg(regCtrlGas, 0x1C, Filter3<<2); err != nil {
		return nil, fmt.Errorf("bme68x: set IIR filter: %w", err)
	}
	if err := d.updateReg(regCtrlGas, 0x10, 0x10); err != nil {
		return nil, fmt.Errorf("bme68x: enable gas measurement: %w", err)
	}

	log.Info().
		Uint8("variant", d.variant).
		Uint8("res_heat_range", cal.ResHeatRange).
		Uint8("range_sw_err", cal.RangeSwErr).
		Msg("BME68x initialized")
	return d, nil
}

// Calibration exposes the decoded coefficients, mainly for inspection.
func (d *Dev) Calibration() *Calibration {
	return d.cal
}

func (d *Dev) softReset() error {
	if err := d.t.WriteReg(regSoftReset, softResetCmd); err != nil {
		return fmt.Errorf("bme68x: soft reset: %w", err)
	}
	time.Sleep(resetPeriodMS * time.Millisecond)
	return nil
}

// updateReg does a read-modify-write, clearing mask bits and setting val.
func (d *Dev) updateReg(reg byte, mask byte, val byte) error {
	buf := make([]byte, 1)
	if err := d.t.ReadReg(reg, buf); err != nil {
		return err
	}
	return d.t.WriteReg(reg, (buf[0]&^mask)|val)
}

func (d *Dev) setPowerMode(mode byte) error {
	return d.updateReg(regCtrlMeas, 0x03, mode)
}

// ReadStep programs one heater step, triggers a forced-mode conversion,
// polls for data-ready, and returns the compensated reading. A poll timeout
// returns ErrNotReady; transport failures propagate as fatal errors.
//
// ReadStep updates the calibration store's ambient temperature from each
// successful conversion, so consecutive steps encode their heater setpoint
// against the latest measured temperature.
func (d *Dev) ReadStep(tempC, durationMS int) (*Reading, error) {
	res := d.cal.HeaterResistance(tempC)
	if err := d.t.WriteReg(regResHeat0, res); err != nil {
		return nil, fmt.Errorf("bme68x: write res_heat_0: %w", err)
	}
	if err := d.t.WriteReg(regGasWait0, HeaterDuration(durationMS)); err != nil {
		return nil, fmt.Errorf("bme68x: write gas_wait_0: %w", err)
	}
	// Select heater profile 0 for the conversion.
	if err := d.updateReg(regCtrlGas, 0x0F, 0); err != nil {
		return nil, fmt.Errorf("bme68x: select heater profile: %w", err)
	}
	if err := d.setPowerMode(forcedMode); err != nil {
		return nil, fmt.Errorf("bme68x: trigger forced mode: %w", err)
	}

	buf := make([]byte, 1)
	for try := 0; try < maxPollTries; try++ {
		if err := d.t.ReadReg(regField0, buf); err != nil {
			return nil, fmt.Errorf("bme68x: poll field status: %w", err)
		}
		if buf[0]&StatusNewData == 0 {
			time.Sleep(pollPeriodMS * time.Millisecond)
			continue
		}
		return d.readField()
	}
	return nil, ErrNotReady
}

// readField reads the full field block and runs compensation. Temperature
// runs first: it sets TFine for pressure and humidity and refreshes the
// ambient-temperature carry.
func (d *Dev) readField() (*Reading, error) {
	regs := make([]byte, fieldLength)
	if err := d.t.ReadReg(regField0, regs); err != nil {
		return nil, fmt.Errorf("bme68x: read field block: %w", err)
	}

	adcPres := uint32(regs[2])<<12 | uint32(regs[3])<<4 | uint32(regs[4])>>4
	adcTemp := uint32(regs[5])<<12 | uint32(regs[6])<<4 | uint32(regs[7])>>4
	adcHum := uint16(regs[8])<<8 | uint16(regs[9])
	adcGas := uint16(regs[13])<<2 | uint16(regs[14])>>6
	gasRange := regs[14] & 0x0F

	status := (regs[0] & StatusNewData) | (regs[14] & (StatusGasValid | StatusHeatStable))

	temp := d.cal.CompensateTemperature(adcTemp)
	d.cal.AmbientTemp = temp

	return &Reading{
		Temperature:   float64(temp) / 100.0,
		Pressure:      float64(d.cal.CompensatePressure(adcPres)) / 100.0,
		Humidity:      float64(d.cal.CompensateHumidity(adcHum)) / 1000.0,
		GasResistance: d.cal.CompensateGas(adcGas, gasRange),
		HeatStable:    status&StatusHeatStable != 0,
		Status:        status,
		GasIndex:      regs[0] & 0x0F,
		MeasIndex:     regs[1],
	}, nil
}
