package backend

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/thatsimonsguy/enose-collector/internal/bme68x"
	"github.com/thatsimonsguy/enose-collector/internal/model"
)

type i2cBackend struct {
	dev *bme68x.Dev
	bus i2c.BusCloser
}

// NewI2C opens an I2C bus (empty name selects the first available bus) and
// initializes the sensor behind it. Initialization failures are fatal.
func NewI2C(busName string, addr uint16) (Backend, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	dev, err := bme68x.New(bme68x.NewI2CTransport(bus, addr))
	if err != nil {
		bus.Close()
		return nil, err
	}
	log.Info().
		Str("bus", bus.String()).
		Uint16("addr", addr).
		Msg("I2C sensor backend ready")
	return &i2cBackend{dev: dev, bus: bus}, nil
}

// NewI2CWithTransport builds an I2C-style backend over an existing
// transport. Used when the bus is owned elsewhere (tests, playback).
func NewI2CWithTransport(t bme68x.Transport) (Backend, error) {
	dev, err := bme68x.New(t)
	if err != nil {
		return nil, err
	}
	return &i2cBackend{dev: dev}, nil
}

func (b *i2cBackend) ApplyAndReadStep(tempC, durationMS int) (*model.SensorReading, error) {
	r, err := b.dev.ReadStep(tempC, durationMS)
	if errors.Is(err, bme68x.ErrNotReady) {
		return nil, fmt.Errorf("forced-mode conversion timed out: %w", ErrNotReady)
	}
	if err != nil {
		return nil, &Error{Backend: "bme68x_i2c", Op: "read step", Err: err}
	}
	return &model.SensorReading{
		Temperature:   r.Temperature,
		Pressure:      r.Pressure,
		Humidity:      r.Humidity,
		GasResistance: r.GasResistance,
		HeatStable:    r.HeatStable,
		Status:        int(r.Status),
	}, nil
}

func (b *i2cBackend) Close() error {
	if b.bus == nil {
		return nil
	}
	return b.bus.Close()
}
