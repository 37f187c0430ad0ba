package ais

// PositionReport is a Class A position report (types 1, 2 and 3).
type PositionReport struct {
	Status   int     `json:"status"`
	Turn     Turn    `json:"turn"`
	Speed    Speed   `json:"speed"`
	Accuracy bool    `json:"accuracy"`
	Lon      Lon     `json:"lon"`
	Lat      Lat     `json:"lat"`
	Course   Course  `json:"course"`
	Heading  Heading `json:"heading"`
	Second   Second  `json:"second"`
	Maneuver int     `json:"maneuver"`
	RAIM     bool    `json:"raim"`
	Radio    int     `json:"radio"`
}

func decodePosition(r reader) *PositionReport {
	return &PositionReport{
		Status:   r.u(38, 4),
		Turn:     Turn(r.s(42, 8)),
		Speed:    Speed(r.u(50, 10)),
		Accuracy: r.flag(60),
		Lon:      r.lon(61),
		Lat:      r.lat(89),
		Course:   Course(r.u(116, 12)),
		Heading:  Heading(r.u(128, 9)),
		Second:   Second(r.u(137, 6)),
		Maneuver: r.u(143, 2),
		RAIM:     r.flag(148),
		Radio:    r.u(149, 19),
	}
}

// BaseStationReport is a base station report or UTC response (types 4
// and 11).
type BaseStationReport struct {
	Year     int  `json:"year"`
	Month    int  `json:"month"`
	Day      int  `json:"day"`
	Hour     int  `json:"hour"`
	Minute   int  `json:"minute"`
	Second   int  `json:"second"`
	Accuracy bool `json:"accuracy"`
	Lon      Lon  `json:"lon"`
	Lat      Lat  `json:"lat"`
	EPFD     int  `json:"epfd"`
	RAIM     bool `json:"raim"`
	Radio    int  `json:"radio"`
}

// TimeAvailable reports whether every date and time field was broadcast.
func (b *BaseStationReport) TimeAvailable() bool {
	return b.Year != YearNotAvailable && b.Month != MonthNotAvailable && b.Day != DayNotAvailable &&
		b.Hour < HourNotAvailable && b.Minute < MinuteNotAvailable && b.Second < SecondNotAvailable
}

func decodeBaseStation(r reader) *BaseStationReport {
	return &BaseStationReport{
		Year:     r.u(38, 14),
		Month:    r.u(52, 4),
		Day:      r.u(56, 5),
		Hour:     r.u(61, 5),
		Minute:   r.u(66, 6),
		Second:   r.u(72, 6),
		Accuracy: r.flag(78),
		Lon:      r.lon(79),
		Lat:      r.lat(107),
		EPFD:     r.u(134, 4),
		RAIM:     r.flag(148),
		Radio:    r.u(149, 19),
	}
}

// Dimensions gives the reference point position relative to the hull, in
// meters.
type Dimensions struct {
	ToBow       int `json:"to_bow"`
	ToStern     int `json:"to_stern"`
	ToPort      int `json:"to_port"`
	ToStarboard int `json:"to_starboard"`
}

func (r reader) dimensions(off int) Dimensions {
	return Dimensions{
		ToBow:       r.u(off, 9),
		ToStern:     r.u(off+9, 9),
		ToPort:      r.u(off+18, 6),
		ToStarboard: r.u(off+24, 6),
	}
}

// StaticVoyage is ship static and voyage related data (type 5).
type StaticVoyage struct {
	AISVersion  int        `json:"ais_version"`
	IMO         int        `json:"imo"`
	Callsign    string     `json:"callsign"`
	Shipname    string     `json:"shipname"`
	Shiptype    int        `json:"shiptype"`
	Dimensions  Dimensions `json:"dimensions"`
	EPFD        int        `json:"epfd"`
	Month       int        `json:"month"`
	Day         int        `json:"day"`
	Hour        int        `json:"hour"`
	Minute      int        `json:"minute"`
	Draught     float64    `json:"draught"`
	Destination string     `json:"destination"`
	DTE         bool       `json:"dte"`
}

func decodeVoyage(r reader) *StaticVoyage {
	return &StaticVoyage{
		AISVersion:  r.u(38, 2),
		IMO:         r.u(40, 30),
		Callsign:    r.text(70, 7),
		Shipname:    r.text(112, ShipNameMaxLen),
		Shiptype:    r.u(232, 8),
		Dimensions:  r.dimensions(240),
		EPFD:        r.u(270, 4),
		Month:       r.u(274, 4),
		Day:         r.u(278, 5),
		Hour:        r.u(283, 5),
		Minute:      r.u(288, 6),
		Draught:     float64(r.u(294, 8)) / 10,
		Destination: r.text(302, 20),
		DTE:         r.flag(422),
	}
}

// AddressedBinary is an addressed binary message (type 6).
type AddressedBinary struct {
	Seqno      int    `json:"seqno"`
	DestMMSI   uint32 `json:"dest_mmsi"`
	Retransmit bool   `json:"retransmit"`
	DAC        int    `json:"dac"`
	FID        int    `json:"fid"`
	Binary
}

// Acknowledge is a binary or safety acknowledge (types 7 and 13). Unused
// slots are zero.
type Acknowledge struct {
	MMSI [4]uint32 `json:"mmsi"`
}

// BroadcastBinary is a binary broadcast message (type 8).
type BroadcastBinary struct {
	DAC int `json:"dac"`
	FID int `json:"fid"`
	Binary
}

// SARAircraft is a standard SAR aircraft position report (type 9).
type SARAircraft struct {
	Alt      Altitude `json:"alt"`
	Speed    Speed    `json:"speed"`
	Accuracy bool     `json:"accuracy"`
	Lon      Lon      `json:"lon"`
	Lat      Lat      `json:"lat"`
	Course   Course   `json:"course"`
	Second   Second   `json:"second"`
	Regional int      `json:"regional"`
	DTE      bool     `json:"dte"`
	Assigned bool     `json:"assigned"`
	RAIM     bool     `json:"raim"`
	Radio    int      `json:"radio"`
}

func decodeSAR(r reader) *SARAircraft {
	return &SARAircraft{
		Alt:      Altitude(r.u(38, 12)),
		Speed:    Speed(r.u(50, 10)),
		Accuracy: r.flag(60),
		Lon:      r.lon(61),
		Lat:      r.lat(89),
		Course:   Course(r.u(116, 12)),
		Second:   Second(r.u(128, 6)),
		Regional: r.u(134, 8),
		DTE:      r.flag(142),
		Assigned: r.flag(146),
		RAIM:     r.flag(147),
		Radio:    r.u(148, 20),
	}
}

// UTCInquiry is a UTC/date inquiry (type 10).
type UTCInquiry struct {
	DestMMSI uint32 `json:"dest_mmsi"`
}

// AddressedSafety is an addressed safety-related message (type 12).
type AddressedSafety struct {
	Seqno      int    `json:"seqno"`
	DestMMSI   uint32 `json:"dest_mmsi"`
	Retransmit bool   `json:"retransmit"`
	Text       string `json:"text"`
}

// BroadcastSafety is a safety-related broadcast (type 14).
type BroadcastSafety struct {
	Text string `json:"text"`
}

// Interrogation is type 15. Zero MMSI or type means the slot is unused.
type Interrogation struct {
	MMSI1     uint32 `json:"mmsi1"`
	Type1_1   int    `json:"type1_1"`
	Offset1_1 int    `json:"offset1_1"`
	Type1_2   int    `json:"type1_2,omitempty"`
	Offset1_2 int    `json:"offset1_2,omitempty"`
	MMSI2     uint32 `json:"mmsi2,omitempty"`
	Type2_1   int    `json:"type2_1,omitempty"`
	Offset2_1 int    `json:"offset2_1,omitempty"`
}

func decodeInterrogation(r reader) *Interrogation {
	q := &Interrogation{MMSI1: r.mmsi(40), Type1_1: r.u(70, 6), Offset1_1: r.u(76, 12)}
	if r.has(90, 18) {
		q.Type1_2, q.Offset1_2 = r.u(90, 6), r.u(96, 12)
	}
	if r.has(110, 48) {
		q.MMSI2, q.Type2_1, q.Offset2_1 = r.mmsi(110), r.u(140, 6), r.u(146, 12)
	}
	return q
}

// AssignedMode is an assignment mode command (type 16).
type AssignedMode struct {
	MMSI1      uint32 `json:"mmsi1"`
	Offset1    int    `json:"offset1"`
	Increment1 int    `json:"increment1"`
	MMSI2      uint32 `json:"mmsi2,omitempty"`
	Offset2    int    `json:"offset2,omitempty"`
	Increment2 int    `json:"increment2,omitempty"`
}

// DGNSSBroadcast is a DGNSS binary broadcast (type 17).
type DGNSSBroadcast struct {
	Lon CoarseLon `json:"lon"`
	Lat CoarseLat `json:"lat"`
	Binary
}

// ClassBPosition is a standard Class B position report (type 18).
type ClassBPosition struct {
	Speed    Speed   `json:"speed"`
	Accuracy bool    `json:"accuracy"`
	Lon      Lon     `json:"lon"`
	Lat      Lat     `json:"lat"`
	Course   Course  `json:"course"`
	Heading  Heading `json:"heading"`
	Second   Second  `json:"second"`
	Regional int     `json:"regional"`
	CS       bool    `json:"cs"`
	Display  bool    `json:"display"`
	DSC      bool    `json:"dsc"`
	Band     bool    `json:"band"`
	Msg22    bool    `json:"msg22"`
	Assigned bool    `json:"assigned"`
	RAIM     bool    `json:"raim"`
	Radio    int     `json:"radio"`
}

func decodeClassB(r reader) *ClassBPosition {
	return &ClassBPosition{
		Speed:    Speed(r.u(46, 10)),
		Accuracy: r.flag(56),
		Lon:      r.lon(57),
		Lat:      r.lat(85),
		Course:   Course(r.u(112, 12)),
		Heading:  Heading(r.u(124, 9)),
		Second:   Second(r.u(133, 6)),
		Regional: r.u(139, 2),
		CS:       r.flag(141),
		Display:  r.flag(142),
		DSC:      r.flag(143),
		Band:     r.flag(144),
		Msg22:    r.flag(145),
		Assigned: r.flag(146),
		RAIM:     r.flag(147),
		Radio:    r.u(148, 20),
	}
}

// ClassBExtended is an extended Class B position report (type 19).
type ClassBExtended struct {
	Speed      Speed      `json:"speed"`
	Accuracy   bool       `json:"accuracy"`
	Lon        Lon        `json:"lon"`
	Lat        Lat        `json:"lat"`
	Course     Course     `json:"course"`
	Heading    Heading    `json:"heading"`
	Second     Second     `json:"second"`
	Regional   int        `json:"regional"`
	Shipname   string     `json:"shipname"`
	Shiptype   int        `json:"shiptype"`
	Dimensions Dimensions `json:"dimensions"`
	EPFD       int        `json:"epfd"`
	RAIM       bool       `json:"raim"`
	DTE        bool       `json:"dte"`
	Assigned   bool       `json:"assigned"`
}

func decodeClassBExtended(r reader) *ClassBExtended {
	return &ClassBExtended{
		Speed:      Speed(r.u(46, 10)),
		Accuracy:   r.flag(56),
		Lon:        r.lon(57),
		Lat:        r.lat(85),
		Course:     Course(r.u(112, 12)),
		Heading:    Heading(r.u(124, 9)),
		Second:     Second(r.u(133, 6)),
		Regional:   r.u(139, 4),
		Shipname:   r.text(143, ShipNameMaxLen),
		Shiptype:   r.u(263, 8),
		Dimensions: r.dimensions(271),
		EPFD:       r.u(301, 4),
		RAIM:       r.flag(305),
		DTE:        r.flag(306),
		Assigned:   r.flag(307),
	}
}

// Reservation is one data link slot reservation of type 20.
type Reservation struct {
	Offset    int `json:"offset"`
	Number    int `json:"number"`
	Timeout   int `json:"timeout"`
	Increment int `json:"increment"`
}

// DataLinkManagement is type 20; up to four reservations.
type DataLinkManagement struct {
	Reservations []Reservation `json:"reservations"`
}

func decodeDataLink(r reader) *DataLinkManagement {
	d := &DataLinkManagement{}
	for off := 40; off+30 <= r.bitlen && len(d.Reservations) < 4; off += 30 {
		res := Reservation{Offset: r.u(off, 12), Number: r.u(off+12, 4), Timeout: r.u(off+16, 3), Increment: r.u(off+19, 11)}
		if res.Offset == 0 && res.Number == 0 {
			break
		}
		d.Reservations = append(d.Reservations, res)
	}
	return d
}

// AidToNavigation is an aid-to-navigation report (type 21). Name includes
// the name extension when present.
type AidToNavigation struct {
	AidType     int        `json:"aid_type"`
	Name        string     `json:"name"`
	Accuracy    bool       `json:"accuracy"`
	Lon         Lon        `json:"lon"`
	Lat         Lat        `json:"lat"`
	Dimensions  Dimensions `json:"dimensions"`
	EPFD        int        `json:"epfd"`
	Second      Second     `json:"second"`
	OffPosition bool       `json:"off_position"`
	Regional    int        `json:"regional"`
	RAIM        bool       `json:"raim"`
	Virtual     bool       `json:"virtual_aid"`
	Assigned    bool       `json:"assigned"`
}

func decodeAidToNavigation(r reader) *AidToNavigation {
	a := &AidToNavigation{
		AidType:     r.u(38, 5),
		Name:        r.text(43, 20),
		Accuracy:    r.flag(163),
		Lon:         r.lon(164),
		Lat:         r.lat(192),
		Dimensions:  r.dimensions(219),
		EPFD:        r.u(249, 4),
		Second:      Second(r.u(253, 6)),
		OffPosition: r.flag(259),
		Regional:    r.u(260, 8),
		RAIM:        r.flag(268),
		Virtual:     r.flag(269),
		Assigned:    r.flag(270),
	}
	if len(a.Name) == 20 && r.bitlen > 272 {
		a.Name += r.text(272, (r.bitlen-272)/6)
	}
	if len(a.Name) > Type21NameMax {
		a.Name = a.Name[:Type21NameMax]
	}
	return a
}

// ChannelManagement is type 22. The area corners are set for broadcast
// commands, the destinations for addressed ones.
type ChannelManagement struct {
	ChannelA  int       `json:"channel_a"`
	ChannelB  int       `json:"channel_b"`
	TxRx      int       `json:"txrx"`
	Power     bool      `json:"power"`
	NELon     CoarseLon `json:"ne_lon,omitempty"`
	NELat     CoarseLat `json:"ne_lat,omitempty"`
	SWLon     CoarseLon `json:"sw_lon,omitempty"`
	SWLat     CoarseLat `json:"sw_lat,omitempty"`
	Dest1     uint32    `json:"dest1,omitempty"`
	Dest2     uint32    `json:"dest2,omitempty"`
	Addressed bool      `json:"addressed"`
	BandA     bool      `json:"band_a"`
	BandB     bool      `json:"band_b"`
	ZoneSize  int       `json:"zonesize"`
}

func decodeChannel(r reader) *ChannelManagement {
	c := &ChannelManagement{
		ChannelA:  r.u(40, 12),
		ChannelB:  r.u(52, 12),
		TxRx:      r.u(64, 4),
		Power:     r.flag(68),
		Addressed: r.flag(139),
		BandA:     r.flag(140),
		BandB:     r.flag(141),
		ZoneSize:  r.u(142, 3),
	}
	if c.Addressed {
		c.Dest1, c.Dest2 = r.mmsi(69), r.mmsi(104)
	} else {
		c.NELon, c.NELat = r.coarseLon(69), r.coarseLat(87)
		c.SWLon, c.SWLat = r.coarseLon(104), r.coarseLat(122)
	}
	return c
}

// GroupAssignment is a group assignment command (type 23).
type GroupAssignment struct {
	NELon       CoarseLon `json:"ne_lon"`
	NELat       CoarseLat `json:"ne_lat"`
	SWLon       CoarseLon `json:"sw_lon"`
	SWLat       CoarseLat `json:"sw_lat"`
	StationType int       `json:"stationtype"`
	ShipType    int       `json:"shiptype"`
	TxRx        int       `json:"txrx"`
	Interval    int       `json:"interval"`
	Quiet       int       `json:"quiet"`
}

// StaticData is a Class B static data report (type 24). Part A carries the
// name; part B the rest. Auxiliary craft report their mothership instead of
// dimensions.
type StaticData struct {
	Part           int         `json:"part"`
	Shipname       string      `json:"shipname,omitempty"`
	Shiptype       int         `json:"shiptype,omitempty"`
	VendorID       string      `json:"vendorid,omitempty"`
	Callsign       string      `json:"callsign,omitempty"`
	Dimensions     *Dimensions `json:"dimensions,omitempty"`
	MothershipMMSI uint32      `json:"mothership_mmsi,omitempty"`
}

// Type 24 part numbers.
const (
	PartA = 0
	PartB = 1
)

func decodeStaticData(r reader, mmsi uint32) *StaticData {
	s := &StaticData{Part: r.u(38, 2)}
	switch s.Part {
	case PartA:
		s.Shipname = r.text(40, ShipNameMaxLen)
	case PartB:
		s.Shiptype = r.u(40, 8)
		s.VendorID = r.text(48, 7)
		s.Callsign = r.text(90, 7)
		switch {
		case !r.has(132, 30):
		case IsAuxiliaryMMSI(mmsi):
			s.MothershipMMSI = r.mmsi(132)
		default:
			d := r.dimensions(132)
			s.Dimensions = &d
		}
	}
	return s
}

// SingleSlotBinary is type 25.
type SingleSlotBinary struct {
	Addressed  bool   `json:"addressed"`
	Structured bool   `json:"structured"`
	DestMMSI   uint32 `json:"dest_mmsi,omitempty"`
	AppID      int    `json:"app_id,omitempty"`
	Binary
}

func decodeSingleSlot(r reader) *SingleSlotBinary {
	s := &SingleSlotBinary{Addressed: r.flag(38), Structured: r.flag(39)}
	off := 40
	if s.Addressed && r.has(off, 30) {
		s.DestMMSI = r.mmsi(off)
		off += 30
	}
	if s.Structured && r.has(off, 16) {
		s.AppID = r.u(off, 16)
		off += 16
	}
	s.Binary = r.binary(off, Type25BitsMax)
	return s
}

// MultiSlotBinary is type 26; the last 20 bits are radio status.
type MultiSlotBinary struct {
	Addressed  bool   `json:"addressed"`
	Structured bool   `json:"structured"`
	DestMMSI   uint32 `json:"dest_mmsi,omitempty"`
	AppID      int    `json:"app_id,omitempty"`
	Radio      int    `json:"radio"`
	Binary
}

func decodeMultiSlot(r reader) *MultiSlotBinary {
	s := &MultiSlotBinary{Addressed: r.flag(38), Structured: r.flag(39)}
	s.Radio = r.u(r.bitlen-20, 20)
	body := reader{buf: r.buf, bitlen: r.bitlen - 20}
	off := 40
	if s.Addressed && body.has(off, 30) {
		s.DestMMSI = body.mmsi(off)
		off += 30
	}
	if s.Structured && body.has(off, 16) {
		s.AppID = body.u(off, 16)
		off += 16
	}
	s.Binary = body.binary(off, Type26BitsMax)
	return s
}

// LongRangePosition is a long range broadcast (type 27). Speed and Course
// use the Type27 sentinels.
type LongRangePosition struct {
	Accuracy bool      `json:"accuracy"`
	RAIM     bool      `json:"raim"`
	Status   int       `json:"status"`
	Lon      CoarseLon `json:"lon"`
	Lat      CoarseLat `json:"lat"`
	Speed    int       `json:"speed"`
	Course   int       `json:"course"`
	GNSS     bool      `json:"gnss"`
}
