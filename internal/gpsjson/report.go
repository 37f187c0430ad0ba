package gpsjson

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"gpsd-ng/internal/bits"
	"gpsd-ng/internal/gps"
)

// physical is implemented by sentinel-carrying values that know their
// physical unit. ok is false when the value is the "not available" code.
type physical interface {
	Physical() (float64, bool)
}

var (
	physicalType = reflect.TypeOf((*physical)(nil)).Elem()
	scaledType   = reflect.TypeOf(bits.Scaled{})
)

// reportWriter renders the RTCM2, RTCM3, SUBFRAME and AIS reports. Their
// message types are shared between raw and scaled output, which a request
// picks, and their unavailable floats are NaN, which encoding/json rejects.
// NaN members and, in scaled output, unavailable sentinels are left out.
type reportWriter struct {
	buf    bytes.Buffer
	scaled bool
}

type member struct {
	name  string
	value interface{}
}

func reportHead(d *gps.Data) []member {
	return []member{{"device", d.Dev.Path}, {"tag", d.Tag}}
}

// marshalReport writes {"class":class, head..., fields of body...}. body is
// a struct, or pointer to one, whose fields are flattened in.
func marshalReport(class string, scaled bool, head []member, body interface{}) ([]byte, error) {
	w := &reportWriter{scaled: scaled}
	w.buf.WriteString(`{"class":`)
	w.scalar(class)
	for _, m := range head {
		v := reflect.ValueOf(m.value)
		if w.omit(v, true) {
			continue
		}
		w.key(m.name)
		if err := w.value(v); err != nil {
			return nil, err
		}
	}
	v := reflect.Indirect(reflect.ValueOf(body))
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("gpsjson: %s body is %s, not a struct", class, v.Kind())
	}
	if err := w.fields(v); err != nil {
		return nil, err
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}

func (w *reportWriter) key(name string) {
	w.buf.WriteByte(',')
	w.scalar(name)
	w.buf.WriteByte(':')
}

func (w *reportWriter) scalar(v interface{}) {
	b, _ := json.Marshal(v)
	w.buf.Write(b)
}

// omit reports whether a struct member is left out of the object.
func (w *reportWriter) omit(v reflect.Value, omitEmpty bool) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return true
		}
	case reflect.Float32, reflect.Float64:
		if math.IsNaN(v.Float()) {
			return true
		}
	}
	if w.scaled && v.Type().Implements(physicalType) {
		if _, ok := v.Interface().(physical).Physical(); !ok {
			return true
		}
	}
	return omitEmpty && v.IsZero()
}

func (w *reportWriter) fields(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" && !sf.Anonymous {
			continue
		}
		name, omitEmpty, skip := parseTag(sf)
		if skip {
			continue
		}
		fv := v.Field(i)
		if sf.Anonymous && name == "" {
			inner := reflect.Indirect(fv)
			if inner.Kind() == reflect.Struct && inner.Type() != scaledType {
				if err := w.fields(inner); err != nil {
					return err
				}
				continue
			}
			name = sf.Name
		}
		if w.omit(fv, omitEmpty) {
			continue
		}
		w.key(name)
		if err := w.value(fv); err != nil {
			return err
		}
	}
	return nil
}

func parseTag(sf reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	if name == "" && !sf.Anonymous {
		name = sf.Name
	}
	return name, omitEmpty, false
}

func (w *reportWriter) value(v reflect.Value) error {
	if v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			w.buf.WriteString("null")
			return nil
		}
		return w.value(v.Elem())
	}
	if v.Type() == scaledType && !w.scaled {
		w.scalar(v.Interface().(bits.Scaled).Raw)
		return nil
	}
	if w.scaled && v.Type().Implements(physicalType) {
		f, ok := v.Interface().(physical).Physical()
		if !ok {
			w.buf.WriteString("null")
			return nil
		}
		w.float(f)
		return nil
	}

	switch v.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		w.scalar(v.Interface())
	case reflect.Float32, reflect.Float64:
		w.float(v.Float())
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			w.scalar(hex.EncodeToString(v.Bytes()))
			return nil
		}
		return w.list(v)
	case reflect.Array:
		return w.list(v)
	case reflect.Struct:
		w.buf.WriteString("{")
		mark := w.buf.Len()
		if err := w.fields(v); err != nil {
			return err
		}
		// fields writes a leading comma before every member.
		if w.buf.Len() > mark {
			b := w.buf.Bytes()
			copy(b[mark:], b[mark+1:])
			w.buf.Truncate(w.buf.Len() - 1)
		}
		w.buf.WriteString("}")
	default:
		return fmt.Errorf("gpsjson: cannot encode %s", v.Type())
	}
	return nil
}

func (w *reportWriter) list(v reflect.Value) error {
	w.buf.WriteByte('[')
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		if err := w.value(v.Index(i)); err != nil {
			return err
		}
	}
	w.buf.WriteByte(']')
	return nil
}

func (w *reportWriter) float(f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		w.buf.WriteString("null")
		return
	}
	w.scalar(f)
}
