package gps

import (
	"gpsd-ng/internal/ais"
	"gpsd-ng/internal/rtcm2"
	"gpsd-ng/internal/rtcm3"
	"gpsd-ng/internal/subframe"
)

// Report is the auxiliary slot of Data. A nil Report is the empty slot.
// Reports are treated as immutable once stored.
type Report interface {
	// Field is the mask group that owns the report.
	Field() Field
	report()
}

type RTCM2Report struct{ *rtcm2.Message }

type RTCM3Report struct{ *rtcm3.Message }

// AISReport carries a decoded AIS message, plus the merged static data when
// it completed a Type 24 pair.
type AISReport struct {
	*ais.Message
	Static *ais.StaticData
}

type SubframeReport struct{ *subframe.Message }

// GSTReport is a pseudorange noise report.
type GSTReport struct {
	Time        float64
	RMS         float64
	Major       float64
	Minor       float64
	Orientation float64
	Lat         float64
	Lon         float64
	Alt         float64
}

// VersionReport identifies the server.
type VersionReport struct {
	Release    string
	Rev        string
	ProtoMajor int
	ProtoMinor int
}

// DeviceListReport lists at most MaxUserDevs devices.
type DeviceListReport struct {
	Time    float64
	Devices []DeviceConfig
}

type ErrorReport struct {
	Message string
}

func (RTCM2Report) Field() Field      { return RTCM2 }
func (RTCM3Report) Field() Field      { return RTCM3 }
func (AISReport) Field() Field        { return AIS }
func (SubframeReport) Field() Field   { return Subframe }
func (GSTReport) Field() Field        { return GST }
func (VersionReport) Field() Field    { return Version }
func (DeviceListReport) Field() Field { return DeviceList }
func (ErrorReport) Field() Field      { return Error }

func (RTCM2Report) report()      {}
func (RTCM3Report) report()      {}
func (AISReport) report()        {}
func (SubframeReport) report()   {}
func (GSTReport) report()        {}
func (VersionReport) report()    {}
func (DeviceListReport) report() {}
func (ErrorReport) report()      {}

func cloneReport(r Report) Report {
	if dl, ok := r.(DeviceListReport); ok {
		dl.Devices = append([]DeviceConfig(nil), dl.Devices...)
		return dl
	}
	return r
}
