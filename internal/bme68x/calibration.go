package bme68x

import "fmt"

// Calibration holds the per-device coefficients read once at startup, plus
// two mutable running values: TFine (recomputed by every temperature
// compensation, consumed by pressure and humidity in the same conversion)
// and AmbientTemp (hundredths of a degree, updated after every temperature
// compensation and read by the next heater-resistance encoding).
//
// Coefficient widths mirror how the registers are decoded: 16-bit words,
// signed 16-bit words, raw single bytes, and two 12-bit left-justified
// humidity words.
type Calibration struct {
	T1 uint16
	T2 uint16
	T3 uint8

	P1  uint16
	P2  int16
	P3  uint8
	P4  int16
	P5  int16
	P6  uint8
	P7  uint8
	P8  int16
	P9  int16
	P10 uint8

	H1 uint16
	H2 uint16
	H3 uint8
	H4 uint8
	H5 uint8
	H6 uint8
	H7 uint8

	GH1 uint8
	GH2 int16
	GH3 uint8

	ResHeatRange uint8
	ResHeatVal   int8
	RangeSwErr   uint8

	TFine int32

	// AmbientTemp must only be trusted after at least one temperature
	// compensation has run; until then it holds the power-on default.
	AmbientTemp int32
}

// ambientTempDefault is the assumed ambient before the first conversion,
// in hundredths of a degree Celsius.
const ambientTempDefault = 2500

// word builds a 16-bit value from two coefficient bytes.
func word(msb, lsb byte) uint16 {
	return uint16(msb)<<8 | uint16(lsb)
}

// s16 applies two's-complement correction to a 16-bit word.
func s16(v uint16) int16 {
	return int16(v)
}

// decodeCalibration unpacks the concatenated coefficient blocks (25 bytes
// from 0x89 followed by 16 bytes from 0xE1) and the three auxiliary bytes.
// Byte offsets follow the vendor packing scheme and must not be reordered.
func decodeCalibration(coeff []byte, heatRange, heatVal, swErr byte) (*Calibration, error) {
	if len(coeff) != coeff1Len+coeff2Len {
		return nil, fmt.Errorf("calibration block length %d, want %d", len(coeff), coeff1Len+coeff2Len)
	}
	c := &Calibration{
		T1: word(coeff[34], coeff[33]),
		T2: word(coeff[2], coeff[1]),
		T3: coeff[3],

		P1:  word(coeff[6], coeff[5]),
		P2:  s16(word(coeff[8], coeff[7])),
		P3:  coeff[9],
		P4:  s16(word(coeff[12], coeff[11])),
		P5:  s16(word(coeff[14], coeff[13])),
		P6:  coeff[16],
		P7:  coeff[15],
		P8:  s16(word(coeff[20], coeff[19])),
		P9:  s16(word(coeff[22], coeff[21])),
		P10: coeff[23],

		// H1 and H2 are 12-bit coefficients stored left-justified.
		H1: word(coeff[27], coeff[26]) >> 4,
		H2: word(coeff[25], coeff[24]) >> 4,
		H3: coeff[28],
		H4: coeff[29],
		H5: coeff[30],
		H6: coeff[31],
		H7: coeff[32],

		GH1: coeff[36],
		GH2: s16(word(coeff[35], coeff[34])),
		GH3: coeff[37],

		ResHeatRange: (heatRange & 0x30) >> 4,
		ResHeatVal:   int8(heatVal),
		RangeSwErr:   (swErr & 0xF0) >> 4,

		AmbientTemp: ambientTempDefault,
	}
	return c, nil
}

// loadCalibration reads the coefficient blocks and auxiliary registers from
// the device. Any I/O failure here is fatal for initialization.
func loadCalibration(t Transport) (*Calibration, error) {
	coeff := make([]byte, coeff1Len+coeff2Len)
	if err := t.ReadReg(regCoeff1, coeff[:coeff1Len]); err != nil {
		return nil, fmt.Errorf("read coefficient block 1: %w", err)
	}
	if err := t.ReadReg(regCoeff2, coeff[coeff1Len:]); err != nil {
		return nil, fmt.Errorf("read coefficient block 2: %w", err)
	}
	aux := make([]byte, 1)
	if err := t.ReadReg(regHeatRange, aux); err != nil {
		return nil, fmt.Errorf("read res_heat_range: %w", err)
	}
	heatRange := aux[0]
	if err := t.ReadReg(regHeatVal, aux); err != nil {
		return nil, fmt.Errorf("read res_heat_val: %w", err)
	}
	heatVal := aux[0]
	if err := t.ReadReg(regSwErr, aux); err != nil {
		return nil, fmt.Errorf("read range_sw_err: %w", err)
	}
	return decodeCalibration(coeff, heatRange, heatVal, aux[0])
}
