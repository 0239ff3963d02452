package bme68x

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCalibration(t *testing.T) {
	coeff := make([]byte, coeff1Len+coeff2Len)

	// par_t1 lives at msb=34 lsb=33.
	coeff[34], coeff[33] = 0x66, 0x55
	coeff[2], coeff[1] = 0x12, 0x34 // par_t2
	coeff[3] = 0x10                 // par_t3, raw byte

	// Signed 16-bit fields: 0x8000 must decode as -32768 and 0x7FFF as 32767.
	coeff[8], coeff[7] = 0x80, 0x00   // par_p2
	coeff[12], coeff[11] = 0x7F, 0xFF // par_p4

	// 12-bit humidity pair, left-justified in 16 bits.
	coeff[27], coeff[26] = 0xAB, 0xC0 // par_h1
	coeff[25], coeff[24] = 0x12, 0x30 // par_h2

	cal, err := decodeCalibration(coeff, 0x30, 0xFF, 0xF0)
	require.NoError(t, err)

	assert.Equal(t, uint16(0x6655), cal.T1)
	assert.Equal(t, uint16(0x1234), cal.T2)
	assert.Equal(t, uint8(0x10), cal.T3)
	assert.Equal(t, int16(-32768), cal.P2)
	assert.Equal(t, int16(32767), cal.P4)
	assert.Equal(t, uint16(0xABC), cal.H1)
	assert.Equal(t, uint16(0x123), cal.H2)

	// res_heat_range is the 0x30 nibble shifted down; res_heat_val and
	// range_sw_err come from two's-complement bytes.
	assert.Equal(t, uint8(3), cal.ResHeatRange)
	assert.Equal(t, int8(-1), cal.ResHeatVal)
	assert.Equal(t, uint8(15), cal.RangeSwErr)

	// Ambient temperature starts at the power-on default.
	assert.Equal(t, int32(2500), cal.AmbientTemp)
}

func TestDecodeCalibrationBadLength(t *testing.T) {
	_, err := decodeCalibration(make([]byte, 10), 0, 0, 0)
	assert.Error(t, err)
}

func TestDecodeCalibrationGasCoefficients(t *testing.T) {
	coeff := make([]byte, coeff1Len+coeff2Len)
	coeff[36] = 0x2A                  // par_gh1, raw byte
	coeff[35], coeff[34] = 0xFF, 0xFE // par_gh2, signed
	coeff[37] = 0x12                  // par_gh3, raw byte

	cal, err := decodeCalibration(coeff, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x2A), cal.GH1)
	assert.Equal(t, int16(-2), cal.GH2)
	assert.Equal(t, uint8(0x12), cal.GH3)
}
