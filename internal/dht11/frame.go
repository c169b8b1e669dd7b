package dht11

import "fmt"

// Frame is the 5-byte payload of one transaction, most significant bit first.
type Frame [5]byte

// Byte positions within a Frame.
const (
	HumidityInteger = iota
	HumidityFraction
	TemperatureInteger
	TemperatureFraction
	ChecksumByte
)

// frameBits is the number of data bits in a Frame.
const frameBits = len(Frame{}) * 8

// Checksum returns the sum of the four data bytes modulo 256.
func (f Frame) Checksum() byte {
	return f[HumidityInteger] + f[HumidityFraction] + f[TemperatureInteger] + f[TemperatureFraction]
}

// Valid reports whether the checksum byte matches the data bytes.
func (f Frame) Valid() bool {
	return f.Checksum() == f[ChecksumByte]
}

// Humidity returns relative humidity in percent. No range check is applied.
func (f Frame) Humidity() float64 {
	return float64(f[HumidityInteger]) + float64(f[HumidityFraction])/10
}

// Temperature returns the temperature in degrees Celsius. No range check is applied.
func (f Frame) Temperature() float64 {
	return float64(f[TemperatureInteger]) + float64(f[TemperatureFraction])/10
}

func (f Frame) String() string {
	return fmt.Sprintf("[0x%02x 0x%02x 0x%02x 0x%02x 0x%02x]", f[0], f[1], f[2], f[3], f[4])
}

// setBit stores bit i of the frame, counting from the MSB of byte 0.
func (f *Frame) setBit(i int, one bool) {
	if one {
		f[i/8] |= 1 << (7 - uint(i%8))
	}
}
