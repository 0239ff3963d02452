package bme68x

import "math/bits"

// Fixed-point compensation formulas from the vendor reference. All
// intermediates are integer; shifts and divisions must stay exactly as
// written because the coefficient ranges are calibrated to this arithmetic.
// Outputs convert to floating point only at the driver boundary.

// CompensateTemperature converts a raw temperature ADC value into hundredths
// of a degree Celsius. It recomputes TFine, which pressure and humidity
// compensation consume within the same conversion.
func (c *Calibration) CompensateTemperature(adc uint32) int32 {
	var1 := (int64(adc) >> 3) - (int64(c.T1) << 1)
	var2 := (var1 * int64(c.T2)) >> 11
	var3 := ((var1 >> 1) * (var1 >> 1)) >> 12
	var3 = (var3 * (int64(c.T3) << 4)) >> 14
	c.TFine = int32(var2 + var3)
	return ((c.TFine * 5) + 128) >> 8
}

// CompensatePressure converts a raw pressure ADC value using the TFine from
// the current conversion. The result is divided by 100 at the boundary for
// display. Returns 0 when the calibration denominator degenerates to zero.
func (c *Calibration) CompensatePressure(adc uint32) int32 {
	var1 := int64(c.TFine) >> 1
	var1 -= 64000
	var2 := (((var1 >> 2) * (var1 >> 2)) >> 11) * int64(c.P6)
	var2 >>= 2
	var2 += (var1 * int64(c.P5)) << 1
	var2 = (var2 >> 2) + (int64(c.P4) << 16)
	var1 = (((int64(c.P3) * ((var1 >> 2) * (var1 >> 2)) >> 13) >> 3) + ((int64(c.P2) * var1) >> 1)) >> 18
	var1 = ((32768 + var1) * int64(c.P1)) >> 15
	if var1 == 0 {
		return 0
	}
	pressure := ((1048576 - int64(adc)) - (var2 >> 12)) * 3125
	if pressure >= (1 << 31) {
		pressure = (pressure / var1) << 1
	} else {
		pressure = (pressure << 1) / var1
	}
	var1 = (int64(c.P9) * (((pressure >> 3) * (pressure >> 3)) >> 13)) >> 12
	var2 = ((pressure >> 2) * int64(c.P8)) >> 13
	var3 := ((pressure >> 8) * (pressure >> 8) * (pressure >> 8) * int64(c.P10)) >> 17
	pressure += (var1 + var2 + var3 + (int64(c.P7) << 7)) >> 4
	return int32(pressure)
}

// CompensateHumidity converts a raw humidity ADC value using the TFine from
// the current conversion. The result is in thousandths of %RH, clamped to
// the inclusive range [0, 100000].
func (c *Calibration) CompensateHumidity(adc uint16) int32 {
	tempScaled := ((int64(c.TFine) * 5) + 128) >> 8
	var1 := (int64(adc) - (int64(c.H1) * 16)) - (((tempScaled * int64(c.H3)) / 100) >> 1)
	var2 := (int64(c.H2) *
		(((tempScaled * int64(c.H4)) / 100) +
			(((tempScaled * ((tempScaled * int64(c.H5)) / 100)) >> 6) / 100) +
			(1 << 14))) >> 10
	var3 := var1 * var2
	var4 := int64(c.H6) << 7
	var4 = (var4 + ((tempScaled * int64(c.H7)) / 100)) >> 4
	var5 := ((var3 >> 14) * (var3 >> 14)) >> 10
	var6 := (var4 * var5) >> 1
	hum := (((var3 + var6) >> 10) * 1000) >> 12
	if hum < 0 {
		return 0
	}
	if hum > 100000 {
		return 100000
	}
	return int32(hum)
}

// CompensateGas converts the raw gas ADC value and 4-bit gas range into a
// resistance in ohms using the vendor lookup tables. Returns 0.0 when the
// computed denominator is exactly zero.
func (c *Calibration) CompensateGas(adc uint16, gasRange uint8) float64 {
	var1 := (1340 + (5 * int64(c.RangeSwErr))) * lookupTable1[gasRange&0x0F]
	var1 >>= 10
	var2 := ((int64(adc) << 15) - 16777216) + var1
	if var2 == 0 {
		return 0.0
	}
	// lookupTable2[range]*var1 can exceed 63 bits; keep the product exact.
	hi, lo := bits.Mul64(uint64(lookupTable2[gasRange&0x0F]), uint64(var1))
	gasRes := int64(hi<<55 | lo>>9)
	return (float64(gasRes) / float64(var2)) * 100.0
}

// HeaterResistance encodes a commanded heater temperature into the raw
// res_heat register value. The temperature is clamped to [200, 400] °C.
// Reads AmbientTemp, so the value tracks the most recent temperature
// compensation; before the first conversion it uses the power-on default.
func (c *Calibration) HeaterResistance(tempC int) uint8 {
	if tempC < 200 {
		tempC = 200
	}
	if tempC > 400 {
		tempC = 400
	}
	var1 := (int64(c.AmbientTemp) * int64(c.GH3) / 1000) * 256
	var2 := (int64(c.GH1) + 784) * (((((int64(c.GH2) + 154009) * int64(tempC) * 5) / 100) + 3276800) / 10)
	var3 := var1 + (var2 / 2)
	var4 := var3 / (int64(c.ResHeatRange) + 4)
	var5 := (131 * int64(c.ResHeatVal)) + 65536
	resX100 := ((var4 / var5) - 250) * 34
	return uint8((resX100 + 50) / 100)
}

// HeaterDuration encodes a millisecond duration into the mantissa+exponent
// gas_wait byte format. Durations of 0xFC0 ms and above clamp to 0xFF.
func HeaterDuration(durationMS int) uint8 {
	if durationMS >= 0xFC0 {
		return 0xFF
	}
	factor := 0
	for durationMS > 0x3F {
		durationMS >>= 2
		factor++
	}
	return uint8(durationMS + (factor << 6))
}
