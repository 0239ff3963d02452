package bme68x

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// Transport abstracts raw register access so the driver can run against a
// real I2C bus or a fake register file in tests. Implementations are not
// thread-safe; a device is driven by one goroutine for the life of a run.
type Transport interface {
	ReadReg(reg byte, buf []byte) error
	WriteReg(reg byte, val byte) error
}

type i2cTransport struct {
	d *i2c.Dev
}

// NewI2CTransport wraps a periph.io I2C bus and device address.
func NewI2CTransport(bus i2c.Bus, addr uint16) Transport {
	return &i2cTransport{d: &i2c.Dev{Bus: bus, Addr: addr}}
}

func (t *i2cTransport) ReadReg(reg byte, buf []byte) error {
	if err := t.d.Tx([]byte{reg}, buf); err != nil {
		return fmt.Errorf("i2c read reg 0x%02x: %w", reg, err)
	}
	return nil
}

func (t *i2cTransport) WriteReg(reg byte, val byte) error {
	if err := t.d.Tx([]byte{reg, val}, nil); err != nil {
		return fmt.Errorf("i2c write reg 0x%02x: %w", reg, err)
	}
	return nil
}
