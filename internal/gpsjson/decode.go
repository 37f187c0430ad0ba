// Package gpsjson maps gps.Data to and from gpsd's class-tagged JSON objects.
//
// Decoding is strict: an unknown attribute or a value of the wrong type
// fails the whole object. Over-long strings are cut at the field capacity.
package gpsjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gpsd-ng/internal/gps"
	"gpsd-ng/internal/timeutil"
)

var (
	ErrUnknownClass = errors.New("gpsjson: unknown class")
	ErrBadObject    = errors.New("gpsjson: malformed object")
)

type decoder func(line []byte, in *gps.Data) (gps.Mask, error)

var decoders map[string]decoder

func init() {
	decoders = map[string]decoder{
		"TPV":     decodeTPV,
		"SKY":     decodeSKY,
		"DEVICE":  decodeDevice,
		"DEVICES": decodeDevices,
		"VERSION": decodeVersion,
		"ERROR":   decodeError,
		"WATCH":   decodeWatch,
		"GST":     decodeGST,
	}
}

// Unpack decodes one object and merges it into d. On failure d is unchanged.
func Unpack(line []byte, d *gps.Data) (gps.Mask, error) {
	in, mask, err := UnpackPartial(line)
	if err != nil {
		return 0, err
	}
	return d.Merge(in, mask)
}

// UnpackPartial decodes one object into a fresh record and returns it with
// the groups it carries.
func UnpackPartial(line []byte) (*gps.Data, gps.Mask, error) {
	var head struct {
		Class string `json:"class"`
	}
	if err := json.Unmarshal(line, &head); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBadObject, err)
	}
	dec, ok := decoders[head.Class]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownClass, head.Class)
	}
	in := gps.NewData()
	mask, err := dec(line, in)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", head.Class, err)
	}
	return in, mask, nil
}

// Class names the object on a line: its class attribute, or "GPSD" for a
// pre-JSON report. It is empty when the line is neither.
func Class(line []byte) string {
	if bytes.HasPrefix(line, []byte("GPSD,")) {
		return "GPSD"
	}
	var head struct {
		Class string `json:"class"`
	}
	if err := json.Unmarshal(line, &head); err != nil {
		return ""
	}
	return head.Class
}

func strict(line []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadObject, err)
	}
	return nil
}

// wireTime accepts Unix seconds or an ISO-8601 string.
type wireTime float64

func (t *wireTime) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := timeutil.ISO8601ToUnix(s)
		if err != nil {
			return err
		}
		*t = wireTime(v)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*t = wireTime(f)
	return nil
}

func timeOr(t *wireTime) float64 {
	if t == nil {
		return math.NaN()
	}
	return float64(*t)
}

func num(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// either returns a when it is set, else b.
func either(a, b float64) float64 {
	if math.IsNaN(a) {
		return b
	}
	return a
}

func str(p *string, max int) string {
	if p == nil {
		return ""
	}
	return gps.Truncate(*p, max)
}

type tpvObject struct {
	Class  string    `json:"class"`
	Device *string   `json:"device"`
	Tag    *string   `json:"tag"`
	Time   *wireTime `json:"time"`
	Ept    *float64  `json:"ept"`
	Lat    *float64  `json:"lat"`
	Lon    *float64  `json:"lon"`
	Alt    *float64  `json:"alt"`
	Eph    *float64  `json:"eph"`
	Epx    *float64  `json:"epx"`
	Epy    *float64  `json:"epy"`
	Epv    *float64  `json:"epv"`
	Track  *float64  `json:"track"`
	Speed  *float64  `json:"speed"`
	Climb  *float64  `json:"climb"`
	Epd    *float64  `json:"epd"`
	Eps    *float64  `json:"eps"`
	Epc    *float64  `json:"epc"`
	Mode   *int      `json:"mode"`
	Status *int      `json:"status"`
}

func decodeTPV(line []byte, in *gps.Data) (gps.Mask, error) {
	var o tpvObject
	if err := strict(line, &o); err != nil {
		return 0, err
	}
	f := &in.Fix
	f.Time = timeOr(o.Time)
	f.Ept = num(o.Ept)
	f.Latitude = num(o.Lat)
	f.Longitude = num(o.Lon)
	f.Altitude = num(o.Alt)
	f.Epx = num(o.Epx)
	f.Epy = num(o.Epy)
	if o.Eph != nil && (o.Epx == nil || o.Epy == nil) {
		f.SetEph(*o.Eph)
	}
	f.Epv = num(o.Epv)
	f.Track = num(o.Track)
	f.Speed = num(o.Speed)
	f.Climb = num(o.Climb)
	f.Epd = num(o.Epd)
	f.Eps = num(o.Eps)
	f.Epc = num(o.Epc)
	if o.Mode != nil {
		f.Mode = *o.Mode
	}

	mask := gps.MaskOf(gps.Status)
	switch {
	case o.Status != nil:
		in.Status = *o.Status
	case f.Mode == gps.ModeNoFix:
		in.Status = gps.StatusNoFix
	default:
		in.Status = gps.StatusFix
	}
	if o.Device != nil {
		in.Dev.Path = str(o.Device, gps.PathMax)
	}
	if o.Tag != nil {
		in.Tag = str(o.Tag, gps.TagMax)
		mask = mask.With(gps.Packet)
	}
	checks := []struct {
		v     float64
		field gps.Field
	}{
		{f.Time, gps.Time},
		{f.Ept, gps.TimeErr},
		{f.Latitude + f.Longitude, gps.LatLon},
		{f.Altitude, gps.Altitude},
		{either(f.Epx, f.Epy), gps.HErr},
		{f.Epv, gps.VErr},
		{f.Track, gps.Track},
		{f.Speed, gps.Speed},
		{f.Climb, gps.Climb},
		{f.Epd, gps.TrackErr},
		{f.Eps, gps.SpeedErr},
		{f.Epc, gps.ClimbErr},
	}
	for _, c := range checks {
		if !math.IsNaN(c.v) {
			mask = mask.With(c.field)
		}
	}
	if f.Mode != gps.ModeNotSeen {
		mask = mask.With(gps.Mode)
	}
	return mask, nil
}

type skySatellite struct {
	PRN  *int     `json:"PRN"`
	El   *int     `json:"el"`
	Az   *int     `json:"az"`
	SS   *float64 `json:"ss"`
	Used *bool    `json:"used"`
}

type skyObject struct {
	Class      string         `json:"class"`
	Device     *string        `json:"device"`
	Tag        *string        `json:"tag"`
	Time       *wireTime      `json:"time"`
	Reported   *int           `json:"reported"` // used count from older servers; the used flags win
	Xdop       *float64       `json:"xdop"`
	Ydop       *float64       `json:"ydop"`
	Vdop       *float64       `json:"vdop"`
	Tdop       *float64       `json:"tdop"`
	Hdop       *float64       `json:"hdop"`
	Pdop       *float64       `json:"pdop"`
	Gdop       *float64       `json:"gdop"`
	Satellites []skySatellite `json:"satellites"`
}

func decodeSKY(line []byte, in *gps.Data) (gps.Mask, error) {
	var o skyObject
	if err := strict(line, &o); err != nil {
		return 0, err
	}
	mask := gps.MaskOf(gps.SatelliteSet)
	if o.Device != nil {
		in.Dev.Path = str(o.Device, gps.PathMax)
	}
	if o.Tag != nil {
		in.Tag = str(o.Tag, gps.TagMax)
		mask = mask.With(gps.Packet)
	}
	in.Sky.Time = timeOr(o.Time)
	if o.Reported != nil && (*o.Reported < 0 || *o.Reported > len(o.Satellites)) {
		return 0, fmt.Errorf("%w: reported %d with %d satellites", ErrBadObject, *o.Reported, len(o.Satellites))
	}
	for _, s := range o.Satellites {
		sat := gps.Satellite{SS: num(s.SS)}
		if s.PRN != nil {
			sat.PRN = *s.PRN
		}
		if s.El != nil {
			sat.Elevation = *s.El
		}
		if s.Az != nil {
			sat.Azimuth = *s.Az
		}
		if s.Used != nil {
			sat.Used = *s.Used
		}
		if !in.Sky.Add(sat) {
			break
		}
	}

	dops := []*float64{o.Xdop, o.Ydop, o.Pdop, o.Hdop, o.Vdop, o.Tdop, o.Gdop}
	in.DOP = gps.DOPs{X: num(o.Xdop), Y: num(o.Ydop), P: num(o.Pdop), H: num(o.Hdop),
		V: num(o.Vdop), T: num(o.Tdop), G: num(o.Gdop)}
	for _, p := range dops {
		if p != nil {
			mask = mask.With(gps.DOP)
			break
		}
	}
	return mask, nil
}

type deviceObject struct {
	Class     *string   `json:"class"`
	Path      *string   `json:"path"`
	Activated *wireTime `json:"activated"`
	Flags     *int      `json:"flags"`
	Driver    *string   `json:"driver"`
	Subtype   *string   `json:"subtype"`
	Bps       *int      `json:"bps"`
	Parity    *string   `json:"parity"`
	Stopbits  *int      `json:"stopbits"`
	Native    *int      `json:"native"`
	Cycle     *float64  `json:"cycle"`
	Mincycle  *float64  `json:"mincycle"`
}

func (o *deviceObject) config() (gps.DeviceConfig, error) {
	var c gps.DeviceConfig
	c.Clear()
	c.Path = str(o.Path, gps.PathMax)
	c.Activated = timeOr(o.Activated)
	c.Driver = str(o.Driver, gps.DriverMax)
	c.Subtype = str(o.Subtype, gps.DriverMax)
	c.Cycle = num(o.Cycle)
	c.Mincycle = num(o.Mincycle)
	if o.Flags != nil {
		c.Flags = *o.Flags
	}
	if o.Bps != nil {
		c.Baudrate = *o.Bps
	}
	if o.Stopbits != nil {
		c.Stopbits = *o.Stopbits
	}
	if o.Native != nil {
		c.DriverMode = *o.Native
	}
	if o.Parity != nil {
		switch *o.Parity {
		case "N", "O", "E":
			c.Parity = (*o.Parity)[0]
		case "":
		default:
			return c, fmt.Errorf("%w: parity %q", ErrBadObject, *o.Parity)
		}
	}
	return c, nil
}

func decodeDevice(line []byte, in *gps.Data) (gps.Mask, error) {
	var o deviceObject
	if err := strict(line, &o); err != nil {
		return 0, err
	}
	c, err := o.config()
	if err != nil {
		return 0, err
	}
	in.Dev = c
	mask := gps.MaskOf(gps.Device)
	if o.Driver != nil || o.Subtype != nil {
		mask = mask.With(gps.DeviceID)
	}
	return mask, nil
}

type devicesObject struct {
	Class   string         `json:"class"`
	Devices []deviceObject `json:"devices"`
	Remote  *string        `json:"remote"`
}

func decodeDevices(line []byte, in *gps.Data) (gps.Mask, error) {
	var o devicesObject
	if err := strict(line, &o); err != nil {
		return 0, err
	}
	list := gps.DeviceListReport{Time: math.NaN()}
	for i := range o.Devices {
		if len(list.Devices) == gps.MaxUserDevs {
			break
		}
		c, err := o.Devices[i].config()
		if err != nil {
			return 0, err
		}
		list.Devices = append(list.Devices, c)
	}
	in.Report = list
	return gps.MaskOf(gps.DeviceList), nil
}

type versionObject struct {
	Class      string  `json:"class"`
	Release    *string `json:"release"`
	Rev        *string `json:"rev"`
	ProtoMajor *int    `json:"proto_major"`
	ProtoMinor *int    `json:"proto_minor"`
}

func decodeVersion(line []byte, in *gps.Data) (gps.Mask, error) {
	var o versionObject
	if err := strict(line, &o); err != nil {
		return 0, err
	}
	v := gps.VersionReport{Release: str(o.Release, gps.VersionMax), Rev: str(o.Rev, gps.VersionMax)}
	if o.ProtoMajor != nil {
		v.ProtoMajor = *o.ProtoMajor
	}
	if o.ProtoMinor != nil {
		v.ProtoMinor = *o.ProtoMinor
	}
	in.Report = v
	return gps.MaskOf(gps.Version), nil
}

type errorObject struct {
	Class   string  `json:"class"`
	Message *string `json:"message"`
}

func decodeError(line []byte, in *gps.Data) (gps.Mask, error) {
	var o errorObject
	if err := strict(line, &o); err != nil {
		return 0, err
	}
	in.Report = gps.ErrorReport{Message: str(o.Message, gps.ErrorMax)}
	return gps.MaskOf(gps.Error), nil
}

type gstObject struct {
	Class  string    `json:"class"`
	Device *string   `json:"device"`
	Tag    *string   `json:"tag"`
	Time   *wireTime `json:"time"`
	RMS    *float64  `json:"rms"`
	Major  *float64  `json:"major"`
	Minor  *float64  `json:"minor"`
	Orient *float64  `json:"orient"`
	Lat    *float64  `json:"lat"`
	Lon    *float64  `json:"lon"`
	Alt    *float64  `json:"alt"`
}

func decodeGST(line []byte, in *gps.Data) (gps.Mask, error) {
	var o gstObject
	if err := strict(line, &o); err != nil {
		return 0, err
	}
	if o.Device != nil {
		in.Dev.Path = str(o.Device, gps.PathMax)
	}
	in.Report = gps.GSTReport{
		Time:        timeOr(o.Time),
		RMS:         num(o.RMS),
		Major:       num(o.Major),
		Minor:       num(o.Minor),
		Orientation: num(o.Orient),
		Lat:         num(o.Lat),
		Lon:         num(o.Lon),
		Alt:         num(o.Alt),
	}
	mask := gps.MaskOf(gps.GST)
	if o.Tag != nil {
		in.Tag = str(o.Tag, gps.TagMax)
		mask = mask.With(gps.Packet)
	}
	return mask, nil
}
