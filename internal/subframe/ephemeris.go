package subframe

import "gpsd-ng/internal/bits"

// Clock is subframe 1: week number, health and clock corrections.
type Clock struct {
	WN     int         `json:"WN"`
	CodeL2 int         `json:"l2"`
	URA    int         `json:"ura"`
	Health int         `json:"hlth"`
	IODC   int         `json:"IODC"`
	L2P    bool        `json:"l2p"`
	TGD    bits.Scaled `json:"Tgd"`
	Toc    bits.Scaled `json:"toc"`
	Af2    bits.Scaled `json:"af2"`
	Af1    bits.Scaled `json:"af1"`
	Af0    bits.Scaled `json:"af0"`
}

var (
	clkWN     = bits.U(48, 10)
	clkCodeL2 = bits.U(58, 2)
	clkURA    = bits.U(60, 4)
	clkHealth = bits.U(64, 6)
	clkIODC   = bits.Split{Hi: bits.U(70, 2), Lo: bits.U(168, 8)}
	clkL2P    = bits.U(72, 1)
	clkTGD    = bits.S(160, 8).Scaled(p2(-31))
	clkToc    = bits.U(176, 16).Scaled(p2(4))
	clkAf2    = bits.S(192, 8).Scaled(p2(-55))
	clkAf1    = bits.S(200, 16).Scaled(p2(-43))
	clkAf0    = bits.S(216, 22).Scaled(p2(-31))
)

func decodeClock(w []byte) *Clock {
	return &Clock{
		WN:     clkWN.Int(w),
		CodeL2: clkCodeL2.Int(w),
		URA:    clkURA.Int(w),
		Health: clkHealth.Int(w),
		IODC:   int(clkIODC.Raw(w)),
		L2P:    clkL2P.Bool(w),
		TGD:    clkTGD.Pair(w),
		Toc:    clkToc.Pair(w),
		Af2:    clkAf2.Pair(w),
		Af1:    clkAf1.Pair(w),
		Af0:    clkAf0.Pair(w),
	}
}

// Orbit2 is subframe 2, the first half of the ephemeris.
type Orbit2 struct {
	IODE   int         `json:"IODE"`
	Crs    bits.Scaled `json:"Crs"`
	DeltaN bits.Scaled `json:"deltan"`
	M0     bits.Scaled `json:"M0"`
	Cuc    bits.Scaled `json:"Cuc"`
	E      bits.Scaled `json:"e"`
	Cus    bits.Scaled `json:"Cus"`
	SqrtA  bits.Scaled `json:"sqrtA"`
	Toe    bits.Scaled `json:"toe"`
	Fit    bool        `json:"FIT"`
	AODO   bits.Scaled `json:"AODO"`
}

var (
	o2IODE   = bits.U(48, 8)
	o2Crs    = bits.S(56, 16).Scaled(p2(-5))
	o2DeltaN = bits.S(72, 16).Scaled(p2(-43))
	o2M0     = bits.S(88, 32).Scaled(p2(-31))
	o2Cuc    = bits.S(120, 16).Scaled(p2(-29))
	o2E      = bits.U(136, 32).Scaled(p2(-33))
	o2Cus    = bits.S(168, 16).Scaled(p2(-29))
	o2SqrtA  = bits.U(184, 32).Scaled(p2(-19))
	o2Toe    = bits.U(216, 16).Scaled(p2(4))
	o2Fit    = bits.U(232, 1)
	o2AODO   = bits.U(233, 5).Scaled(900)
)

func decodeOrbit2(w []byte) *Orbit2 {
	return &Orbit2{
		IODE:   o2IODE.Int(w),
		Crs:    o2Crs.Pair(w),
		DeltaN: o2DeltaN.Pair(w),
		M0:     o2M0.Pair(w),
		Cuc:    o2Cuc.Pair(w),
		E:      o2E.Pair(w),
		Cus:    o2Cus.Pair(w),
		SqrtA:  o2SqrtA.Pair(w),
		Toe:    o2Toe.Pair(w),
		Fit:    o2Fit.Bool(w),
		AODO:   o2AODO.Pair(w),
	}
}

// Orbit3 is subframe 3, the second half of the ephemeris.
type Orbit3 struct {
	Cic      bits.Scaled `json:"Cic"`
	Omega0   bits.Scaled `json:"Omega0"`
	Cis      bits.Scaled `json:"Cis"`
	I0       bits.Scaled `json:"i0"`
	Crc      bits.Scaled `json:"Crc"`
	Omega    bits.Scaled `json:"omega"`
	OmegaDot bits.Scaled `json:"Omegad"`
	IODE     int         `json:"IODE"`
	IDOT     bits.Scaled `json:"IDOT"`
}

var (
	o3Cic      = bits.S(48, 16).Scaled(p2(-29))
	o3Omega0   = bits.S(64, 32).Scaled(p2(-31))
	o3Cis      = bits.S(96, 16).Scaled(p2(-29))
	o3I0       = bits.S(112, 32).Scaled(p2(-31))
	o3Crc      = bits.S(144, 16).Scaled(p2(-5))
	o3Omega    = bits.S(160, 32).Scaled(p2(-31))
	o3OmegaDot = bits.S(192, 24).Scaled(p2(-43))
	o3IODE     = bits.U(216, 8)
	o3IDOT     = bits.S(224, 14).Scaled(p2(-43))
)

func decodeOrbit3(w []byte) *Orbit3 {
	return &Orbit3{
		Cic:      o3Cic.Pair(w),
		Omega0:   o3Omega0.Pair(w),
		Cis:      o3Cis.Pair(w),
		I0:       o3I0.Pair(w),
		Crc:      o3Crc.Pair(w),
		Omega:    o3Omega.Pair(w),
		OmegaDot: o3OmegaDot.Pair(w),
		IODE:     o3IODE.Int(w),
		IDOT:     o3IDOT.Pair(w),
	}
}
