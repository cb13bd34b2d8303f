package xtouch

import (
	"fmt"
	"math"

	"github.com/ringsurface/corebridge/surface"
)

type EncoderDirection uint8

const (
	EncoderClockwise        EncoderDirection = 1
	EncoderCounterClockwise EncoderDirection = 65
)

// Encoder is a rotary control with a two-segment CC LED ring (CC 48-55 for
// the low six segments plus center, CC 56-63 for the high six). Rotation
// arrives as a relative CC value on encoderCC: 1-64 clockwise (the count is
// the number of detents), 65-127 counterclockwise (value-64 detents).
type Encoder struct {
	d *surface.MidiDevice

	channel     uint8
	encoderCC   uint8
	ledRingLow  uint8
	ledRingHigh uint8
}

func newEncoder(d *surface.MidiDevice, channel, id uint8) *Encoder {
	return &Encoder{
		d:           d,
		channel:     channel,
		encoderCC:   16 + (id % 8),
		ledRingLow:  48 + (id % 8),
		ledRingHigh: 56 + (id % 8),
	}
}

// Bind runs callback on every rotation tick with the signed detent count:
// positive for clockwise, negative for counterclockwise.
func (e *Encoder) Bind(callback func(delta int) error) {
	e.d.CC(e.channel, e.encoderCC).Bind(func(value uint8) error {
		if value >= uint8(EncoderCounterClockwise) {
			return callback(-int(value - uint8(EncoderCounterClockwise) + 1))
		}
		return callback(int(value))
	})
}

func (e *Encoder) SetLEDRingAllSegments() error {
	if err := e.d.CC(e.channel, e.ledRingLow).Set(127); err != nil {
		return fmt.Errorf("failed to set low LED ring value: %w", err)
	}
	if err := e.d.CC(e.channel, e.ledRingHigh).Set(127); err != nil {
		return fmt.Errorf("failed to set high LED ring value: %w", err)
	}
	return nil
}

func (e *Encoder) ClearLEDRing() error {
	if err := e.d.CC(e.channel, e.ledRingLow).Set(0); err != nil {
		return fmt.Errorf("failed to clear low LED ring value: %w", err)
	}
	if err := e.d.CC(e.channel, e.ledRingHigh).Set(0); err != nil {
		return fmt.Errorf("failed to clear high LED ring value: %w", err)
	}
	return nil
}

// SetLEDRingRelative sweeps the ring to represent v in [0.0, 1.0], animating
// smoothly across the 13 physical segments by interpolating between
// adjacent bit patterns.
func (e *Encoder) SetLEDRingRelative(v float64) error {
	if v < 0.0 {
		v = 0.0
	}
	if v > 1.0 {
		v = 1.0
	}

	const sweepSteps = 26
	lowPattern := [sweepSteps]uint8{
		1, 3, 2, 6, 5, 4, 12, 8, 24, 16, 48, 32, 96, 64, 64, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
	highPattern := [sweepSteps]uint8{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 3, 2, 6, 5, 4, 12, 8, 24, 16, 48, 32,
	}

	step := int(math.Round(v * float64(sweepSteps-1)))
	if err := e.d.CC(e.channel, e.ledRingLow).Set(lowPattern[step]); err != nil {
		return fmt.Errorf("failed to set low LED ring value: %w", err)
	}
	if err := e.d.CC(e.channel, e.ledRingHigh).Set(highPattern[step]); err != nil {
		return fmt.Errorf("failed to set high LED ring value: %w", err)
	}
	return nil
}
