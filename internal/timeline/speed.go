package timeline

const (
	MinSpeed = 0.5
	MaxSpeed = 2.0
)

// ClampSpeed bounds a playback multiplier to [MinSpeed, MaxSpeed].
func ClampSpeed(speed float64) float64 {
	if speed < MinSpeed {
		return MinSpeed
	}
	if speed > MaxSpeed {
		return MaxSpeed
	}
	return speed
}
