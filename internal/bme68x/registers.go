package bme68x

// Register map and constants for the BME68x family (BME680/BME690).

const (
	AddrPrimary   = 0x76
	AddrSecondary = 0x77

	chipID = 0x61

	regChipID      = 0xD0
	regChipVariant = 0xF0

	regCoeff1    = 0x89
	coeff1Len    = 25
	regCoeff2    = 0xE1
	coeff2Len    = 16
	regHeatVal   = 0x00
	regHeatRange = 0x02
	regSwErr     = 0x04

	regField0   = 0x1D
	fieldLength = 17

	regSoftReset = 0xE0
	softResetCmd = 0xB6

	regCtrlGas  = 0x71
	regCtrlHum  = 0x72
	regCtrlMeas = 0x74
	regGasWait0 = 0x64
	regResHeat0 = 0x5A

	resetPeriodMS = 10
	pollPeriodMS  = 10
	maxPollTries  = 10
)

// Power modes (low two bits of ctrl_meas).
const (
	sleepMode  = 0x00
	forcedMode = 0x01
)

// Oversampling settings.
const (
	OversampleNone = 0
	Oversample1x   = 1
	Oversample2x   = 2
	Oversample4x   = 3
	Oversample8x   = 4
	Oversample16x  = 5
)

// IIR filter coefficients.
const (
	Filter0   = 0
	Filter1   = 1
	Filter3   = 2
	Filter7   = 3
	Filter15  = 4
	Filter31  = 5
	Filter63  = 6
	Filter127 = 7
)

// Field status bits. newData lives in the field0 status byte; gasValid and
// heatStable live in gas_r_lsb. Readings compose all three into one status
// byte so the I2C and bridge transports share a validity contract.
const (
	StatusNewData    = 0x80
	StatusGasValid   = 0x20
	StatusHeatStable = 0x10
)

// Vendor gas-resistance lookup tables, indexed by the 4-bit gas range.
// Fixed per sensor family; values reproduced from the vendor reference.
var lookupTable1 = [16]int64{
	2147483647, 2147483647, 2147483647, 2147483647,
	2147483647, 2126008810, 2147483647, 2130303777,
	2147483647, 2147483647, 2143188679, 2136746228,
	2147483647, 2126008810, 2147483647, 2147483647,
}

var lookupTable2 = [16]int64{
	4096000000, 2048000000, 1024000000, 512000000,
	255744255, 127110228, 64000000, 32258064,
	16016016, 8000000, 4000000, 2000000,
	1000000, 500000, 250000, 125000,
}
