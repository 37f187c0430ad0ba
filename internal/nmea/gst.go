package nmea

import (
	"github.com/adrianmo/go-nmea"
)

const typeGST = "GST"

// GST is the pseudorange error statistics sentence, which go-nmea leaves to
// custom parsers.
//
//	$--GST,hhmmss.ss,rms,major,minor,orient,laterr,lonerr,alterr*hh
type GST struct {
	nmea.BaseSentence
	Time               nmea.Time
	RMS                float64 // of the pseudorange residuals, meters
	EllipseMajor       float64 // 1-sigma semi-major axis, meters
	EllipseMinor       float64 // 1-sigma semi-minor axis, meters
	EllipseOrientation float64 // degrees from true north
	LatitudeError      float64 // meters
	LongitudeError     float64 // meters
	AltitudeError      float64 // meters
}

func parseGST(s nmea.BaseSentence) (nmea.Sentence, error) {
	p := nmea.NewParser(s)
	p.AssertType(typeGST)
	m := GST{
		BaseSentence:       s,
		Time:               p.Time(0, "time"),
		RMS:                p.Float64(1, "rms"),
		EllipseMajor:       p.Float64(2, "ellipse major"),
		EllipseMinor:       p.Float64(3, "ellipse minor"),
		EllipseOrientation: p.Float64(4, "ellipse orientation"),
		LatitudeError:      p.Float64(5, "latitude error"),
		LongitudeError:     p.Float64(6, "longitude error"),
		AltitudeError:      p.Float64(7, "altitude error"),
	}
	return m, p.Err()
}

// newSentenceParser returns a go-nmea parser that also knows the sentences
// gpsd reads and go-nmea does not.
func newSentenceParser() *nmea.SentenceParser {
	return &nmea.SentenceParser{
		CustomParsers: map[string]nmea.ParserFunc{
			typeGST: parseGST,
		},
	}
}
