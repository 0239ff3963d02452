// Package backend abstracts the two ways a sensor can be reached: direct
// register I2C and the line-based subprocess bridge. The run orchestrator
// only ever sees this interface.
package backend

import (
	"errors"
	"fmt"

	"github.com/thatsimonsguy/enose-collector/internal/model"
	"github.com/thatsimonsguy/enose-collector/internal/profile"
)

// Backend applies one heater step and reads the sensor in forced mode.
//
// A nil reading with an error wrapping ErrNotReady means the step produced
// no usable data but the backend is healthy; callers may retry. Any other
// error is fatal for the backend.
type Backend interface {
	ApplyAndReadStep(tempC, durationMS int) (*model.SensorReading, error)
	Close() error
}

// ErrNotReady marks transient per-step failures: conversion timeouts,
// bridge measurement errors, and readings missing required status bits.
var ErrNotReady = errors.New("reading not ready")

// Error is a fatal backend failure: the transport is broken and the run
// must abort.
type Error struct {
	Backend string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend %s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a benign no-reading condition rather
// than a broken backend.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNotReady)
}

// Build constructs the backend named by the profile.
func Build(p *profile.Profile, bridgeExe, i2cBus string) (Backend, error) {
	switch p.Backend {
	case profile.BackendI2C:
		addr, err := p.Address()
		if err != nil {
			return nil, err
		}
		return NewI2C(i2cBus, addr)
	case profile.BackendBridge:
		return NewBridge(bridgeExe)
	}
	return nil, fmt.Errorf("unsupported backend %q", p.Backend)
}
