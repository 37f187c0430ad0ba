package gpsjson

import (
	"encoding/json"

	"gpsd-ng/internal/gps"
)

type watchBody struct {
	Class  string `json:"class"`
	Enable bool   `json:"enable"`
	JSON   bool   `json:"json"`
	NMEA   bool   `json:"nmea"`
	Raw    int    `json:"raw"`
	Scaled bool   `json:"scaled"`
	Timing bool   `json:"timing"`
	Device string `json:"device,omitempty"`
}

func encodeWatch(p gps.Policy) ([]byte, error) {
	return json.Marshal(watchBody{
		Class:  "WATCH",
		Enable: p.Watcher,
		JSON:   p.JSON,
		NMEA:   p.NMEA,
		Raw:    p.Raw,
		Scaled: p.Scaled,
		Timing: p.Timing,
		Device: p.Devpath,
	})
}

// Watch renders the ?WATCH request that asks a server for policy p.
func Watch(p gps.Policy) []byte {
	obj, err := encodeWatch(p)
	if err != nil {
		// watchBody holds only scalars.
		panic(err)
	}
	out := make([]byte, 0, len(obj)+9)
	out = append(out, "?WATCH="...)
	out = append(out, obj...)
	return append(out, '\n')
}

type watchObject struct {
	Class  string  `json:"class"`
	Enable *bool   `json:"enable"`
	JSON   *bool   `json:"json"`
	NMEA   *bool   `json:"nmea"`
	Raw    *int    `json:"raw"`
	Scaled *bool   `json:"scaled"`
	Timing *bool   `json:"timing"`
	Device *string `json:"device"`
}

func flag(p *bool) bool { return p != nil && *p }

func decodeWatch(line []byte, in *gps.Data) (gps.Mask, error) {
	var o watchObject
	if err := strict(line, &o); err != nil {
		return 0, err
	}
	in.Policy = gps.Policy{
		Watcher: flag(o.Enable),
		JSON:    flag(o.JSON),
		NMEA:    flag(o.NMEA),
		Scaled:  flag(o.Scaled),
		Timing:  flag(o.Timing),
		Devpath: str(o.Device, gps.PathMax),
	}
	if o.Raw != nil {
		in.Policy.Raw = *o.Raw
	}
	return gps.MaskOf(gps.PolicySet), nil
}
