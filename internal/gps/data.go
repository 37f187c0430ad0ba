package gps

import (
	"errors"
	"fmt"
	"math"
)

// ErrAuxConflict reports a merge whose auxiliary bits do not name exactly the
// report it carries.
var ErrAuxConflict = errors.New("gps: auxiliary report conflict")

// Data is the current best knowledge about one receiver. Set records which
// groups were written since the consumer last cleared it.
type Data struct {
	Set    Mask
	Online float64

	Fix        Fix
	Separation float64 // geoid separation, MSL - WGS84, meters
	Status     int

	SatellitesUsed int
	Used           [MaxChannels]int
	DOP            DOPs
	Epe            float64

	Sky      Skyview
	Dev      DeviceConfig
	Policy   Policy
	Tag      string
	Attitude AttitudeData

	Report Report
}

// NewData returns a record with every value unavailable.
func NewData() *Data {
	d := &Data{}
	d.Clear()
	return d
}

// Clear resets d to the empty record.
func (d *Data) Clear() {
	*d = Data{Online: math.NaN(), Separation: math.NaN(), Epe: math.NaN()}
	d.Fix.Clear()
	d.DOP.Clear()
	d.Sky.Clear()
	d.Dev.Clear()
	d.Attitude.Clear()
}

// ClearSet forgets which groups changed.
func (d *Data) ClearSet() { d.Set = 0 }

// Clone returns a deep copy.
func (d *Data) Clone() Data {
	c := *d
	c.Report = cloneReport(d.Report)
	return c
}

// Merge copies the groups named in mask from in and returns the new Set.
//
// A mask carrying Time with a time that differs from the stored one starts a
// new reporting cycle and replaces Set; otherwise mask is OR-ed in. At most
// one auxiliary group may be named and it must match in.Report; on conflict
// d is left untouched. A non-empty in.Dev.Path is always taken, so reports
// keep the device they came from without naming the Device group.
func (d *Data) Merge(in *Data, mask Mask) (Mask, error) {
	if aux := mask.Aux(); aux != 0 {
		if in.Report == nil || aux != in.Report.Field().Mask() {
			return d.Set, fmt.Errorf("%w: mask %s, report %s", ErrAuxConflict, aux, reportName(in.Report))
		}
	}

	fresh := mask.Has(Time) && !sameFloat(in.Fix.Time, d.Fix.Time)

	if mask.Has(Online) {
		d.Online = in.Online
	}
	if mask.Has(Time) {
		d.Fix.Time = in.Fix.Time
	}
	if mask.Has(TimeErr) {
		d.Fix.Ept = in.Fix.Ept
	}
	if mask.Has(LatLon) {
		d.Fix.Latitude = in.Fix.Latitude
		d.Fix.Longitude = in.Fix.Longitude
	}
	if mask.Has(Altitude) {
		d.Fix.Altitude = in.Fix.Altitude
		d.Separation = in.Separation
	}
	if mask.Has(Speed) {
		d.Fix.Speed = in.Fix.Speed
	}
	if mask.Has(Track) {
		d.Fix.Track = in.Fix.Track
	}
	if mask.Has(Climb) {
		d.Fix.Climb = in.Fix.Climb
	}
	if mask.Has(Status) {
		d.Status = in.Status
	}
	if mask.Has(Mode) {
		d.Fix.Mode = in.Fix.Mode
	}
	if mask.Has(DOP) {
		d.DOP = in.DOP
	}
	if mask.Has(HErr) {
		d.Fix.Epx = in.Fix.Epx
		d.Fix.Epy = in.Fix.Epy
		d.Epe = in.Epe
	}
	if mask.Has(VErr) {
		d.Fix.Epv = in.Fix.Epv
	}
	if mask.Has(Attitude) {
		d.Attitude = in.Attitude
	}
	if mask.Has(SatelliteSet) {
		d.Sky = in.Sky
		d.SatellitesUsed = compactUsed(&d.Sky, &d.Used)
	}
	if mask.Has(SpeedErr) {
		d.Fix.Eps = in.Fix.Eps
	}
	if mask.Has(TrackErr) {
		d.Fix.Epd = in.Fix.Epd
	}
	if mask.Has(ClimbErr) {
		d.Fix.Epc = in.Fix.Epc
	}
	if mask.Has(Device) {
		flags := d.Dev.Flags
		d.Dev = in.Dev
		d.Dev.Flags |= flags
		d.Dev.Bound()
	} else if in.Dev.Path != "" {
		d.Dev.Path = Truncate(in.Dev.Path, PathMax)
	}
	if mask.Has(DeviceID) {
		d.Dev.Driver = Truncate(in.Dev.Driver, DriverMax)
		d.Dev.Subtype = Truncate(in.Dev.Subtype, DriverMax)
	}
	if mask.Has(Packet) {
		d.Tag = Truncate(in.Tag, TagMax)
	}
	if mask.Has(PolicySet) {
		d.Policy = in.Policy
		d.Policy.Devpath = Truncate(in.Policy.Devpath, PathMax)
	}
	if mask.Aux() != 0 {
		d.Report = cloneReport(in.Report)
	}

	if fresh {
		d.Set = mask
	} else {
		d.Set |= mask
	}
	if aux := mask.Aux(); aux != 0 {
		d.Set = d.Set&^AuxMask | aux
	}
	return d.Set, nil
}

func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func reportName(r Report) string {
	if r == nil {
		return "none"
	}
	return r.Field().String()
}
