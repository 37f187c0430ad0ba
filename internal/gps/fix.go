package gps

import "math"

// Fix modes.
const (
	ModeNotSeen = 0
	ModeNoFix   = 1
	Mode2D      = 2
	Mode3D      = 3
)

// Fix status.
const (
	StatusNoFix   = 0
	StatusFix     = 1
	StatusDGPSFix = 2
)

// NaN is the unavailable value for every float field.
func NaN() float64 { return math.NaN() }

// Fix is the position/velocity/time estimate. Errors are 95% confidence.
type Fix struct {
	Time      float64 // Unix seconds
	Mode      int
	Ept       float64
	Latitude  float64 // degrees
	Epy       float64 // meters
	Longitude float64 // degrees
	Epx       float64 // meters
	Altitude  float64 // meters
	Epv       float64
	Track     float64 // degrees from true north
	Epd       float64
	Speed     float64 // m/s over ground
	Eps       float64
	Climb     float64 // m/s
	Epc       float64
}

// Clear marks every value unavailable.
func (f *Fix) Clear() {
	n := math.NaN()
	*f = Fix{
		Time: n, Mode: ModeNotSeen, Ept: n,
		Latitude: n, Epy: n, Longitude: n, Epx: n,
		Altitude: n, Epv: n, Track: n, Epd: n,
		Speed: n, Eps: n, Climb: n, Epc: n,
	}
}

// Eph is the combined horizontal error, NaN unless both axes are known.
func (f *Fix) Eph() float64 { return math.Hypot(f.Epx, f.Epy) }

// SetEph splits a combined horizontal error evenly over both axes.
func (f *Fix) SetEph(eph float64) {
	f.Epx = eph / math.Sqrt2
	f.Epy = eph / math.Sqrt2
}

// DOPs are dilution of precision factors.
type DOPs struct {
	X, Y, P, H, V, T, G float64
}

func (d *DOPs) Clear() {
	n := math.NaN()
	*d = DOPs{n, n, n, n, n, n, n}
}

// AttitudeData carries compass and IMU readings.
type AttitudeData struct {
	Heading, Pitch, Roll, Yaw, Dip float64
	MagLen, MagX, MagY, MagZ       float64
	AccLen, AccX, AccY, AccZ       float64
	GyroX, GyroY                   float64
	Temp, Depth                    float64
	MagStatus, PitchStatus         byte
	RollStatus, YawStatus          byte
}

func (a *AttitudeData) Clear() {
	n := math.NaN()
	*a = AttitudeData{
		Heading: n, Pitch: n, Roll: n, Yaw: n, Dip: n,
		MagLen: n, MagX: n, MagY: n, MagZ: n,
		AccLen: n, AccX: n, AccY: n, AccZ: n,
		GyroX: n, GyroY: n, Temp: n, Depth: n,
	}
}

// MaxChannels bounds the skyview.
const MaxChannels = 72

// Satellite is one skyview channel slot.
type Satellite struct {
	PRN       int
	Elevation int // degrees
	Azimuth   int // degrees
	SS        float64
	Used      bool
}

// Skyview is the set of tracked satellites. Only the first Visible slots are
// meaningful.
type Skyview struct {
	Time       float64
	Visible    int
	Satellites [MaxChannels]Satellite
}

// Add appends a satellite and reports false when the skyview is full.
func (s *Skyview) Add(sat Satellite) bool {
	if s.Visible >= MaxChannels {
		return false
	}
	s.Satellites[s.Visible] = sat
	s.Visible++
	return true
}

// Channels returns the occupied slots.
func (s *Skyview) Channels() []Satellite { return s.Satellites[:s.Visible] }

func (s *Skyview) Clear() {
	*s = Skyview{Time: math.NaN()}
}

// compactUsed writes the PRNs of used slots, in slot order, to used and
// returns how many there were.
func compactUsed(s *Skyview, used *[MaxChannels]int) int {
	n := 0
	for _, sat := range s.Channels() {
		if sat.Used {
			used[n] = sat.PRN
			n++
		}
	}
	for i := n; i < MaxChannels; i++ {
		used[i] = 0
	}
	return n
}
