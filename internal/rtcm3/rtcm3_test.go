package rtcm3

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpsd-ng/internal/bits"
	"gpsd-ng/internal/bits/bitstest"
)

// frame wraps a payload with the 0xD3 header and a zero CRC.
func frame(payload *bitstest.Writer) []byte {
	p := payload.Pad(8).Bytes()
	out := []byte{Preamble, byte(len(p) >> 8 & 0x03), byte(len(p))}
	out = append(out, p...)
	return append(out, 0, 0, 0)
}

func TestDecode_1004ExtendedDual(t *testing.T) {
	w := &bitstest.Writer{}
	w.Put(1004, 12).Put(2003, 12).Put(345600000, 30).Put(0, 1).Put(1, 5).Put(0, 1).Put(0, 3)
	w.Put(12, 6).Put(0, 1).Put(1000000, 24).Put(-2000, 20).Put(100, 7).Put(70, 8).Put(180, 8)
	w.Put(3, 2).Put(-8192, 14).Put(-0x80000, 20).Put(50, 7).Put(0, 8)

	m, err := Decode(frame(w))
	require.NoError(t, err)
	require.NotNil(t, m.Observations)
	o := m.Observations
	assert.Equal(t, 1004, m.Type)
	assert.True(t, o.Extended)
	assert.False(t, o.GLONASS)
	assert.Equal(t, 2003, o.Header.StationID)
	assert.InDelta(t, 345600.0, o.Header.TOW, 1e-9)
	require.Len(t, o.Sats, 1)

	s := o.Sats[0]
	assert.Equal(t, 12, s.Ident)
	assert.InDelta(t, 20000.0, s.L1.Pseudorange, 1e-9)
	assert.InDelta(t, -1.0, s.L1.RangeDiff, 1e-9)
	assert.Equal(t, 100, s.L1.Locktime)
	assert.Equal(t, 70, s.L1.Ambiguity)
	assert.InDelta(t, 45.0, s.L1.CNR, 1e-9)

	require.NotNil(t, s.L2)
	assert.Equal(t, 3, s.L2.Indicator)
	assert.True(t, math.IsNaN(s.L2.Pseudorange))
	assert.True(t, math.IsNaN(s.L2.RangeDiff))
	assert.True(t, math.IsNaN(s.L2.CNR))
}

func TestDecode_1001BasicHasNoCNR(t *testing.T) {
	w := &bitstest.Writer{}
	w.Put(1001, 12).Put(1, 12).Put(1000, 30).Put(1, 1).Put(2, 5).Put(0, 1).Put(0, 3)
	w.Put(1, 6).Put(1, 1).Put(50, 24).Put(10, 20).Put(1, 7)
	w.Put(2, 6).Put(0, 1).Put(60, 24).Put(20, 20).Put(2, 7)

	m, err := Decode(frame(w))
	require.NoError(t, err)
	o := m.Observations
	assert.False(t, o.Extended)
	assert.True(t, o.Header.Sync)
	require.Len(t, o.Sats, 2)
	assert.Nil(t, o.Sats[0].L2)
	assert.Equal(t, 1, o.Sats[0].L1.Indicator)
	assert.True(t, math.IsNaN(o.Sats[1].L1.CNR))
	assert.InDelta(t, 0.01, o.Sats[1].L1.RangeDiff, 1e-12)
}

func TestDecode_1009GLONASSChannel(t *testing.T) {
	w := &bitstest.Writer{}
	w.Put(1009, 12).Put(7, 12).Put(5000, 27).Put(0, 1).Put(1, 5).Put(0, 1).Put(0, 3)
	w.Put(4, 6).Put(0, 1).Put(13, 5).Put(100, 25).Put(0, 20).Put(3, 7)
	m, err := Decode(frame(w))
	require.NoError(t, err)
	o := m.Observations
	assert.True(t, o.GLONASS)
	assert.InDelta(t, 5.0, o.Header.TOW, 1e-9)
	assert.Equal(t, 13, o.Sats[0].Channel)
	assert.InDelta(t, 2.0, o.Sats[0].L1.Pseudorange, 1e-9)
}

func TestDecode_1006AntennaReference(t *testing.T) {
	w := &bitstest.Writer{}
	w.Put(1006, 12).Put(2003, 12).Put(0, 6).Put(0, 1).Put(1, 1).Put(0, 1).Put(1, 1)
	w.Put(-27141234567, 38).Put(1, 1).Put(0, 1).Put(43000000000, 38).Put(0, 2).Put(1234, 38)
	w.Put(15000, 16)
	m, err := Decode(frame(w))
	require.NoError(t, err)
	r := m.Reference
	require.NotNil(t, r)
	assert.Equal(t, NavSystemGLONASS, r.System)
	assert.True(t, r.RefStation)
	assert.True(t, r.SingleReceiver)
	assert.InDelta(t, -2714123.4567, r.X, 1e-6)
	assert.InDelta(t, 4300000.0, r.Y, 1e-6)
	assert.InDelta(t, 0.1234, r.Z, 1e-9)
	assert.InDelta(t, 1.5, r.Height, 1e-9)
}

func TestDecode_1008Descriptor(t *testing.T) {
	w := &bitstest.Writer{}
	w.Put(1008, 12).Put(5, 12).Put(6, 8).PutString("ASH700", 8).Put(2, 8).Put(3, 8).PutString("123", 8)
	m, err := Decode(frame(w))
	require.NoError(t, err)
	assert.Equal(t, &AntennaDescriptor{StationID: 5, Descriptor: "ASH700", SetupID: 2, Serial: "123"}, m.Descriptor)
}

func TestDecode_1017NetworkCorrections(t *testing.T) {
	w := &bitstest.Writer{}
	w.Put(1017, 12).Put(9, 8).Put(1, 4).Put(36000, 23).Put(1, 1).Put(10, 12).Put(11, 12).Put(1, 4)
	w.Put(21, 6).Put(int64(AmbiguityWidelane), 2).Put(4, 3).Put(-200, 17).Put(88, 8).Put(100, 17)
	m, err := Decode(frame(w))
	require.NoError(t, err)
	nc := m.Corrections
	require.NotNil(t, nc)
	assert.InDelta(t, 3600.0, nc.TOW, 1e-9)
	assert.True(t, nc.MultiMessage)
	require.Len(t, nc.Sats, 1)
	d := nc.Sats[0]
	assert.Equal(t, AmbiguityWidelane, d.Ambiguity)
	assert.InDelta(t, -0.1, d.GeometricDiff, 1e-12)
	assert.Equal(t, 88, d.IODE)
	assert.InDelta(t, 0.05, d.IonosphericDiff, 1e-12)
}

func TestDecode_1029Text(t *testing.T) {
	w := &bitstest.Writer{}
	w.Put(1029, 12).Put(1, 12).Put(59000, 16).Put(43200, 17).Put(5, 7).Put(5, 8).PutString("hello", 8)
	m, err := Decode(frame(w))
	require.NoError(t, err)
	assert.Equal(t, "hello", m.Text.Text)
	assert.Equal(t, 59000, m.Text.MJD)
}

func TestDecode_UnknownTypeKeepsPayload(t *testing.T) {
	w := &bitstest.Writer{}
	w.Put(4094, 12).Put(0xABC, 12)
	m, err := Decode(frame(w))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xEA, 0xBC}, m.Data)
}

func TestDecode_Errors(t *testing.T) {
	w := &bitstest.Writer{}
	w.Put(1001, 12).Put(1, 12).Put(0, 30).Put(0, 1).Put(3, 5).Put(0, 1).Put(0, 3)
	truncatedSats := frame(w)

	tests := []struct {
		name string
		buf  []byte
		kind error
	}{
		{"short header", []byte{Preamble, 0}, bits.ErrTruncated},
		{"preamble", []byte{0x00, 0x00, 0x02, 0x3E, 0x90}, bits.ErrBadPreamble},
		{"zero length", []byte{Preamble, 0x00, 0x00}, bits.ErrBadLength},
		{"payload short", []byte{Preamble, 0x00, 0x10, 0x3E}, bits.ErrTruncated},
		{"satellites missing", truncatedSats, bits.ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Decode(tt.buf)
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, tt.kind), "err=%v", err)
		})
	}
}

func TestDecode_Golden(t *testing.T) {
	tests := []struct {
		name  string
		build func(w *bitstest.Writer)
		check func(t *testing.T, m *Message)
	}{
		{
			name: "1013 system parameters",
			build: func(w *bitstest.Writer) {
				w.Put(1013, 12).Put(2003, 12).Put(59000, 16).Put(43200, 17).Put(2, 5).Put(18, 8)
				w.Put(1004, 12).Put(1, 1).Put(50, 16)
				w.Put(1006, 12).Put(0, 1).Put(100, 16)
			},
			check: func(t *testing.T, m *Message) {
				p := m.Params
				require.NotNil(t, p)
				assert.Equal(t, 2003, p.StationID)
				assert.Equal(t, 59000, p.MJD)
				assert.Equal(t, 43200, p.SOD)
				assert.Equal(t, 18, p.LeapSecs)
				require.Len(t, p.Announcements, 2)
				assert.Equal(t, 1004, p.Announcements[0].ID)
				assert.True(t, p.Announcements[0].Sync)
				assert.InDelta(t, 5.0, p.Announcements[0].Interval, 1e-9)
				assert.Equal(t, 1006, p.Announcements[1].ID)
				assert.False(t, p.Announcements[1].Sync)
				assert.InDelta(t, 10.0, p.Announcements[1].Interval, 1e-9)
			},
		},
		{
			name: "1014 network auxiliary station",
			build: func(w *bitstest.Writer) {
				w.Put(1014, 12).Put(5, 8).Put(2, 4).Put(7, 5).Put(100, 12).Put(200, 12)
				w.Put(-4000, 20).Put(8000, 21).Put(-1500, 23)
			},
			check: func(t *testing.T, m *Message) {
				a := m.Auxiliary
				require.NotNil(t, a)
				assert.Equal(t, 5, a.NetworkID)
				assert.Equal(t, 2, a.SubnetworkID)
				assert.Equal(t, 7, a.StationCount)
				assert.Equal(t, 100, a.MasterID)
				assert.Equal(t, 200, a.AuxID)
				assert.InDelta(t, -0.1, a.DLat, 1e-12)
				assert.InDelta(t, 0.2, a.DLon, 1e-12)
				assert.InDelta(t, -1.5, a.DAlt, 1e-12)
			},
		},
		{
			name: "1019 GPS ephemeris",
			build: func(w *bitstest.Writer) {
				w.Put(1019, 12).Put(17, 6).Put(1023, 10).Put(2, 4).Put(1, 2).Put(-100, 14).Put(77, 8)
				w.Put(30000, 16).Put(-3, 8).Put(-1000, 16).Put(-123456, 22).Put(333, 10)
				w.Put(-500, 16).Put(12000, 16).Put(-1073741824, 32).Put(-200, 16).Put(4000000000, 32)
				w.Put(300, 16).Put(2702000000, 32).Put(30000, 16).Put(-7, 16).Put(1500000000, 32)
				w.Put(9, 16).Put(-660000000, 32).Put(-12000, 16).Put(-2000000000, 32).Put(-8000000, 24)
				w.Put(-12, 8).Put(0, 6).Put(1, 1).Put(0, 1)
			},
			check: func(t *testing.T, m *Message) {
				assert.Equal(t, &GPSEphemeris{
					Ident: 17, Week: 1023, SVAcc: 2, CodeL2: 1, IDOT: -100, IODE: 77,
					Toc: 30000, Af2: -3, Af1: -1000, Af0: -123456, IODC: 333,
					Crs: -500, DeltaN: 12000, M0: -1073741824, Cuc: -200, E: 4000000000,
					Cus: 300, SqrtA: 2702000000, Toe: 30000, Cic: -7, Omega0: 1500000000,
					Cis: 9, I0: -660000000, Crc: -12000, Omega: -2000000000, OmegaDot: -8000000,
					TGD: -12, Health: 0, L2PData: true, FitInt: false,
				}, m.GPSEphemeris)
			},
		},
		{
			name: "1020 GLONASS ephemeris",
			build: func(w *bitstest.Writer) {
				w.Put(1020, 12).Put(9, 6).Put(14, 5).Put(1, 1).Put(1, 1).Put(3, 2).Put(0xABC, 12)
				w.Put(1, 1).Put(0, 1).Put(96, 7)
				w.PutSM(-1234567, 24).PutSM(-12345678, 27).PutSM(-3, 5)
				w.PutSM(2000000, 24).PutSM(20000000, 27).PutSM(2, 5)
				w.PutSM(-100, 24).PutSM(3000000, 27).PutSM(0, 5)
				w.Put(1, 1).PutSM(-5, 11).Put(2, 2).Put(0, 1).PutSM(-1000, 22).PutSM(-2, 5)
				w.Put(7, 5).Put(1, 1).Put(4, 4).Put(1461, 11).Put(3, 2).Put(1, 1).Put(1000, 11)
				w.PutSM(-70000, 32).Put(6, 5).PutSM(300, 22).Put(1, 1).Put(0, 7)
			},
			check: func(t *testing.T, m *Message) {
				assert.Equal(t, &GLONASSEphemeris{
					Ident: 9, Channel: 14, AlmanacHealth: true, HealthAvailable: true, P1: 3, Tk: 0xABC,
					BnMSB: true, P2: false, Tb: 96,
					XnDot: -1234567, Xn: -12345678, XnDDot: -3,
					YnDot: 2000000, Yn: 20000000, YnDDot: 2,
					ZnDot: -100, Zn: 3000000, ZnDDot: 0,
					P3: true, GammaN: -5, MP: 2, MIn3: false, TauN: -1000, MDeltaTau: -2,
					En: 7, MP4: true, MFT: 4, MNT: 1461, MM: 3, AdditionalData: true, NA: 1000,
					TauC: -70000, MN4: 6, MTauGPS: 300, MIn5: true,
				}, m.GLONASSEphemeris)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &bitstest.Writer{}
			tt.build(w)
			m, err := Decode(frame(w))
			require.NoError(t, err)
			tt.check(t, m)
		})
	}
}
