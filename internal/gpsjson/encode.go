package gpsjson

import (
	"encoding/json"
	"fmt"
	"math"

	"gpsd-ng/internal/gps"
	"gpsd-ng/internal/timeutil"
)

// Groups that put a TPV or SKY object on the wire.
var (
	tpvMask = gps.MaskOf(gps.Time, gps.TimeErr, gps.LatLon, gps.Altitude, gps.Speed, gps.Track,
		gps.Climb, gps.Status, gps.Mode, gps.HErr, gps.VErr, gps.SpeedErr, gps.TrackErr, gps.ClimbErr)
	skyMask = gps.MaskOf(gps.SatelliteSet, gps.DOP)
)

// Encode renders the groups in mask as wire objects, one per slice element,
// without trailing newlines.
func Encode(d *gps.Data, mask gps.Mask, p gps.Policy) ([][]byte, error) {
	var out [][]byte
	add := func(b []byte, err error) error {
		if err != nil {
			return err
		}
		out = append(out, b)
		return nil
	}

	if mask.Intersects(tpvMask) {
		var err error
		if p.JSON {
			err = add(encodeTPV(d, mask))
		} else {
			err = add(legacyO(d, mask), nil)
		}
		if err != nil {
			return nil, err
		}
	}
	if mask.Intersects(skyMask) {
		var err error
		if p.JSON {
			err = add(encodeSKY(d, mask))
		} else {
			err = add(legacyY(d), nil)
		}
		if err != nil {
			return nil, err
		}
	}
	if mask.Intersects(gps.MaskOf(gps.Device, gps.DeviceID)) {
		if err := add(json.Marshal(deviceBody{envelope{Class: "DEVICE"}, newDeviceOut(d.Dev)})); err != nil {
			return nil, err
		}
	}
	if mask.Has(gps.PolicySet) {
		if err := add(encodeWatch(d.Policy)); err != nil {
			return nil, err
		}
	}
	if aux := mask.Aux(); aux != 0 && d.Report != nil && d.Report.Field().Mask() == aux {
		if err := add(encodeReport(d, p)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// envelope opens every object. Device and tag are left out when empty.
type envelope struct {
	Class  string `json:"class"`
	Device string `json:"device,omitempty"`
	Tag    string `json:"tag,omitempty"`
}

func head(class string, d *gps.Data) envelope {
	return envelope{Class: class, Device: d.Dev.Path, Tag: d.Tag}
}

func isoTime(t float64) string { return timeutil.UnixToISO8601(t) }

// opt returns nil for a NaN value, which leaves the member off the object.
func opt(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// pick is opt(v) when f is in mask and nil otherwise.
func pick(mask gps.Mask, f gps.Field, v float64) *float64 {
	if !mask.Has(f) {
		return nil
	}
	return opt(v)
}

type tpvBody struct {
	envelope
	Time   string   `json:"time,omitempty"`
	Ept    *float64 `json:"ept,omitempty"`
	Lat    *float64 `json:"lat,omitempty"`
	Lon    *float64 `json:"lon,omitempty"`
	Alt    *float64 `json:"alt,omitempty"`
	Eph    *float64 `json:"eph,omitempty"`
	Epv    *float64 `json:"epv,omitempty"`
	Track  *float64 `json:"track,omitempty"`
	Speed  *float64 `json:"speed,omitempty"`
	Climb  *float64 `json:"climb,omitempty"`
	Epd    *float64 `json:"epd,omitempty"`
	Eps    *float64 `json:"eps,omitempty"`
	Epc    *float64 `json:"epc,omitempty"`
	Mode   *int     `json:"mode,omitempty"`
	Status *int     `json:"status,omitempty"`
}

func encodeTPV(d *gps.Data, mask gps.Mask) ([]byte, error) {
	f := &d.Fix
	b := tpvBody{
		envelope: head("TPV", d),
		Ept:      pick(mask, gps.TimeErr, f.Ept),
		Lat:      pick(mask, gps.LatLon, f.Latitude),
		Lon:      pick(mask, gps.LatLon, f.Longitude),
		Alt:      pick(mask, gps.Altitude, f.Altitude),
		Eph:      pick(mask, gps.HErr, f.Eph()),
		Epv:      pick(mask, gps.VErr, f.Epv),
		Track:    pick(mask, gps.Track, f.Track),
		Speed:    pick(mask, gps.Speed, f.Speed),
		Climb:    pick(mask, gps.Climb, f.Climb),
		Epd:      pick(mask, gps.TrackErr, f.Epd),
		Eps:      pick(mask, gps.SpeedErr, f.Eps),
		Epc:      pick(mask, gps.ClimbErr, f.Epc),
	}
	if mask.Has(gps.Time) {
		b.Time = isoTime(f.Time)
	}
	if mask.Has(gps.Mode) {
		mode := f.Mode
		b.Mode = &mode
	}
	if mask.Has(gps.Status) && d.Status == gps.StatusDGPSFix {
		status := d.Status
		b.Status = &status
	}
	return json.Marshal(b)
}

type skySatBody struct {
	PRN  int      `json:"PRN"`
	El   int      `json:"el"`
	Az   int      `json:"az"`
	SS   *float64 `json:"ss,omitempty"`
	Used bool     `json:"used"`
}

type skyBody struct {
	envelope
	Time       string       `json:"time,omitempty"`
	Xdop       *float64     `json:"xdop,omitempty"`
	Ydop       *float64     `json:"ydop,omitempty"`
	Vdop       *float64     `json:"vdop,omitempty"`
	Tdop       *float64     `json:"tdop,omitempty"`
	Hdop       *float64     `json:"hdop,omitempty"`
	Pdop       *float64     `json:"pdop,omitempty"`
	Gdop       *float64     `json:"gdop,omitempty"`
	Satellites []skySatBody `json:"satellites,omitempty"`
}

func encodeSKY(d *gps.Data, mask gps.Mask) ([]byte, error) {
	b := skyBody{
		envelope: head("SKY", d),
		Xdop:     pick(mask, gps.DOP, d.DOP.X),
		Ydop:     pick(mask, gps.DOP, d.DOP.Y),
		Vdop:     pick(mask, gps.DOP, d.DOP.V),
		Tdop:     pick(mask, gps.DOP, d.DOP.T),
		Hdop:     pick(mask, gps.DOP, d.DOP.H),
		Pdop:     pick(mask, gps.DOP, d.DOP.P),
		Gdop:     pick(mask, gps.DOP, d.DOP.G),
	}
	if mask.Has(gps.SatelliteSet) {
		b.Time = isoTime(d.Sky.Time)
		for _, s := range d.Sky.Channels() {
			b.Satellites = append(b.Satellites, skySatBody{PRN: s.PRN, El: s.Elevation, Az: s.Azimuth, SS: opt(s.SS), Used: s.Used})
		}
	}
	return json.Marshal(b)
}

type deviceOut struct {
	Path      string   `json:"path,omitempty"`
	Activated string   `json:"activated,omitempty"`
	Flags     int      `json:"flags,omitempty"`
	Driver    string   `json:"driver,omitempty"`
	Subtype   string   `json:"subtype,omitempty"`
	Bps       int      `json:"bps,omitempty"`
	Parity    string   `json:"parity,omitempty"`
	Stopbits  int      `json:"stopbits,omitempty"`
	Native    int      `json:"native"`
	Cycle     *float64 `json:"cycle,omitempty"`
	Mincycle  *float64 `json:"mincycle,omitempty"`
}

type deviceBody struct {
	envelope
	deviceOut
}

func newDeviceOut(c gps.DeviceConfig) deviceOut {
	out := deviceOut{
		Path:      c.Path,
		Activated: isoTime(c.Activated),
		Flags:     c.Flags,
		Driver:    c.Driver,
		Subtype:   c.Subtype,
		Bps:       c.Baudrate,
		Stopbits:  c.Stopbits,
		Native:    c.DriverMode,
		Cycle:     opt(c.Cycle),
		Mincycle:  opt(c.Mincycle),
	}
	if c.Parity != 0 {
		out.Parity = string(rune(c.Parity))
	}
	return out
}

type devicesBody struct {
	envelope
	Devices []deviceOut `json:"devices"`
}

type versionBody struct {
	envelope
	Release    string `json:"release"`
	Rev        string `json:"rev"`
	ProtoMajor int    `json:"proto_major"`
	ProtoMinor int    `json:"proto_minor"`
}

type errorBody struct {
	envelope
	Message string `json:"message"`
}

type gstBody struct {
	envelope
	Time   string   `json:"time,omitempty"`
	RMS    *float64 `json:"rms,omitempty"`
	Major  *float64 `json:"major,omitempty"`
	Minor  *float64 `json:"minor,omitempty"`
	Orient *float64 `json:"orient,omitempty"`
	Lat    *float64 `json:"lat,omitempty"`
	Lon    *float64 `json:"lon,omitempty"`
	Alt    *float64 `json:"alt,omitempty"`
}

func encodeReport(d *gps.Data, p gps.Policy) ([]byte, error) {
	switch r := d.Report.(type) {
	case gps.RTCM2Report:
		return marshalReport("RTCM2", p.Scaled, reportHead(d), r.Message)
	case gps.RTCM3Report:
		return marshalReport("RTCM3", p.Scaled, reportHead(d), r.Message)
	case gps.SubframeReport:
		return marshalReport("SUBFRAME", p.Scaled, reportHead(d), r.Message)
	case gps.AISReport:
		h := append(reportHead(d), member{"scaled", p.Scaled})
		if r.Static != nil {
			h = append(h, member{"assembled", r.Static})
		}
		return marshalReport("AIS", p.Scaled, h, r.Message)
	case gps.GSTReport:
		return json.Marshal(gstBody{
			envelope: head("GST", d),
			Time:     isoTime(r.Time),
			RMS:      opt(r.RMS),
			Major:    opt(r.Major),
			Minor:    opt(r.Minor),
			Orient:   opt(r.Orientation),
			Lat:      opt(r.Lat),
			Lon:      opt(r.Lon),
			Alt:      opt(r.Alt),
		})
	case gps.VersionReport:
		return json.Marshal(versionBody{
			envelope:   envelope{Class: "VERSION"},
			Release:    r.Release,
			Rev:        r.Rev,
			ProtoMajor: r.ProtoMajor,
			ProtoMinor: r.ProtoMinor,
		})
	case gps.DeviceListReport:
		b := devicesBody{envelope: envelope{Class: "DEVICES"}, Devices: []deviceOut{}}
		for _, c := range r.Devices {
			b.Devices = append(b.Devices, newDeviceOut(c))
		}
		return json.Marshal(b)
	case gps.ErrorReport:
		return json.Marshal(errorBody{envelope: envelope{Class: "ERROR"}, Message: r.Message})
	default:
		return nil, fmt.Errorf("gpsjson: no encoder for %T", d.Report)
	}
}
