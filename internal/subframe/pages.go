package subframe

import (
	"strings"

	"gpsd-ng/internal/bits"
)

// Almanac is one almanac page (subframe 4 or 5, SV id 1-32).
type Almanac struct {
	SV       int         `json:"ID"`
	E        bits.Scaled `json:"e"`
	Toa      bits.Scaled `json:"toa"`
	DeltaI   bits.Scaled `json:"deltai"`
	OmegaDot bits.Scaled `json:"Omegad"`
	Health   int         `json:"Health"`
	SqrtA    bits.Scaled `json:"sqrtA"`
	Omega0   bits.Scaled `json:"Omega0"`
	Omega    bits.Scaled `json:"omega"`
	M0       bits.Scaled `json:"M0"`
	Af0      bits.Scaled `json:"af0"`
	Af1      bits.Scaled `json:"af1"`
}

var (
	alE        = bits.U(56, 16).Scaled(p2(-21))
	alToa      = bits.U(72, 8).Scaled(p2(12))
	alDeltaI   = bits.S(80, 16).Scaled(p2(-19))
	alOmegaDot = bits.S(96, 16).Scaled(p2(-38))
	alHealth   = bits.U(112, 8)
	alSqrtA    = bits.U(120, 24).Scaled(p2(-11))
	alOmega0   = bits.S(144, 24).Scaled(p2(-23))
	alOmega    = bits.S(168, 24).Scaled(p2(-23))
	alM0       = bits.S(192, 24).Scaled(p2(-23))
	alAf0      = bits.Split{Hi: bits.U(216, 8), Lo: bits.U(235, 3), Sign: bits.TwosComplement, Scale: p2(-20)}
	alAf1      = bits.S(224, 11).Scaled(p2(-38))
)

func decodeAlmanac(w []byte, sv int) *Almanac {
	return &Almanac{
		SV:       sv,
		E:        alE.Pair(w),
		Toa:      alToa.Pair(w),
		DeltaI:   alDeltaI.Pair(w),
		OmegaDot: alOmegaDot.Pair(w),
		Health:   alHealth.Int(w),
		SqrtA:    alSqrtA.Pair(w),
		Omega0:   alOmega0.Pair(w),
		Omega:    alOmega.Pair(w),
		M0:       alM0.Pair(w),
		Af0:      alAf0.Pair(w),
		Af1:      alAf1.Pair(w),
	}
}

// NMCT is subframe 4 page 13: estimated range deviations for SVs 1-30.
type NMCT struct {
	AI  int             `json:"ai"`
	ERD [31]bits.Scaled `json:"ERD"`
}

var (
	nmctAI  = bits.U(56, 2)
	nmctERD = bits.S(58, 6).Scaled(0.3)
)

func decodeNMCT(w []byte) *NMCT {
	n := &NMCT{AI: nmctAI.Int(w)}
	// ERD[0] is unused so that the index is the PRN.
	for sv := 1; sv <= 30; sv++ {
		p := nmctERD.At(6 * (sv - 1)).Pair(w)
		if !ERDNotAvailable.Available(p.Raw) {
			p.Value = bits.NaN()
		}
		n.ERD[sv] = p
	}
	return n
}

const textChars = 22

func decodeText(w []byte) string {
	var sb strings.Builder
	for i := 0; i < textChars; i++ {
		c := byte(bits.U(56+8*i, 8).Uint(w))
		if c < 0x20 || c > 0x7e {
			c = ' '
		}
		sb.WriteByte(c)
	}
	return strings.TrimRight(sb.String(), " ")
}

// IonoUTC is subframe 4 page 18: Klobuchar coefficients and UTC parameters.
type IonoUTC struct {
	Alpha0 bits.Scaled `json:"a0"`
	Alpha1 bits.Scaled `json:"a1"`
	Alpha2 bits.Scaled `json:"a2"`
	Alpha3 bits.Scaled `json:"a3"`
	Beta0  bits.Scaled `json:"b0"`
	Beta1  bits.Scaled `json:"b1"`
	Beta2  bits.Scaled `json:"b2"`
	Beta3  bits.Scaled `json:"b3"`
	A1     bits.Scaled `json:"A1"`
	A0     bits.Scaled `json:"A0"`
	Tot    bits.Scaled `json:"tot"`
	WNt    int         `json:"WNt"`
	LeapS  int         `json:"ls"`
	WNlsf  int         `json:"WNlsf"`
	DN     int         `json:"DN"`
	LeapSF int         `json:"lsf"`
}

var (
	ioAlpha0 = bits.S(56, 8).Scaled(p2(-30))
	ioAlpha1 = bits.S(64, 8).Scaled(p2(-27))
	ioAlpha2 = bits.S(72, 8).Scaled(p2(-24))
	ioAlpha3 = bits.S(80, 8).Scaled(p2(-24))
	ioBeta0  = bits.S(88, 8).Scaled(p2(11))
	ioBeta1  = bits.S(96, 8).Scaled(p2(14))
	ioBeta2  = bits.S(104, 8).Scaled(p2(16))
	ioBeta3  = bits.S(112, 8).Scaled(p2(16))
	ioA1     = bits.S(120, 24).Scaled(p2(-50))
	ioA0     = bits.S(144, 32).Scaled(p2(-30))
	ioTot    = bits.U(176, 8).Scaled(p2(12))
	ioWNt    = bits.U(184, 8)
	ioLeapS  = bits.S(192, 8)
	ioWNlsf  = bits.U(200, 8)
	ioDN     = bits.U(208, 8)
	ioLeapSF = bits.S(216, 8)
)

func decodeIonoUTC(w []byte) *IonoUTC {
	return &IonoUTC{
		Alpha0: ioAlpha0.Pair(w),
		Alpha1: ioAlpha1.Pair(w),
		Alpha2: ioAlpha2.Pair(w),
		Alpha3: ioAlpha3.Pair(w),
		Beta0:  ioBeta0.Pair(w),
		Beta1:  ioBeta1.Pair(w),
		Beta2:  ioBeta2.Pair(w),
		Beta3:  ioBeta3.Pair(w),
		A1:     ioA1.Pair(w),
		A0:     ioA0.Pair(w),
		Tot:    ioTot.Pair(w),
		WNt:    ioWNt.Int(w),
		LeapS:  ioLeapS.Int(w),
		WNlsf:  ioWNlsf.Int(w),
		DN:     ioDN.Int(w),
		LeapSF: ioLeapSF.Int(w),
	}
}

// HealthFlags is subframe 4 page 25: anti-spoof/configuration flags for
// SVs 1-32 and health for SVs 25-32. Both arrays are indexed by PRN.
type HealthFlags struct {
	SVF  [33]int `json:"svf"`
	SVHx [33]int `json:"svhx"`
}

var (
	hfSVF   = bits.U(56, 4)
	hfSVH25 = bits.U(186, 6)
)

func decodeHealthFlags(w []byte) *HealthFlags {
	h := &HealthFlags{}
	for sv := 1; sv <= 32; sv++ {
		h.SVF[sv] = hfSVF.At(4 * (sv - 1)).Int(w)
	}
	for sv := 25; sv <= 32; sv++ {
		h.SVHx[sv] = hfSVH25.At(6 * (sv - 25)).Int(w)
	}
	return h
}

// HealthSummary is subframe 5 page 25: almanac reference and health for
// SVs 1-24, indexed by PRN.
type HealthSummary struct {
	Toa bits.Scaled `json:"toa"`
	WNa int         `json:"WNa"`
	SV  [25]int     `json:"sv"`
}

var (
	hsToa = bits.U(56, 8).Scaled(p2(12))
	hsWNa = bits.U(64, 8)
	hsSV  = bits.U(72, 6)
)

func decodeHealthSummary(w []byte) *HealthSummary {
	h := &HealthSummary{Toa: hsToa.Pair(w), WNa: hsWNa.Int(w)}
	for sv := 1; sv <= 24; sv++ {
		h.SV[sv] = hsSV.At(6 * (sv - 1)).Int(w)
	}
	return h
}
