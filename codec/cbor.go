package codec

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"
	"strconv"

	"github.com/fxamacker/cbor/v2"

	"github.com/wippyai/windowless/errors"
	"github.com/wippyai/windowless/value"
)

// MaxDepth is the deepest container nesting Marshal and Unmarshal accept.
const MaxDepth = 64

// CBOR major types.
const (
	majorUint   = 0
	majorNegint = 1
	majorBytes  = 2
	majorText   = 3
	majorArray  = 4
	majorMap    = 5
	majorTag    = 6
	majorSimple = 7
)

const (
	simpleFalse     = 0xf4
	simpleTrue      = 0xf5
	simpleNull      = 0xf6
	simpleUndefined = 0xf7
	breakCode       = 0xff
)

// encMode follows Core Deterministic Encoding (RFC 8949 §4.2.1) for
// scalars. NaN payloads are kept so floats round-trip bit-exact.
var encMode cbor.EncMode

// decMode validates UTF-8 in text strings and allows nesting well past
// MaxDepth so the depth error below is the one callers see.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.NaNConvert = cbor.NaNConvertPreserveSignal
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		MaxNestedLevels: 4 * MaxDepth,
		UTF8:            cbor.UTF8RejectInvalid,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v as one CBOR data item. Map entries are emitted sorted
// by their encoded key bytes, so equal values always produce identical
// bytes. Maps holding two equal keys cannot be encoded.
func Marshal(v value.Value) ([]byte, error) {
	e := encoder{buf: make([]byte, 0, 64)}
	if err := e.encode(v, nil, 0); err != nil {
		return nil, err
	}
	return e.buf, nil
}

// Unmarshal decodes exactly one CBOR data item. Tags, undefined, simple
// values, integers outside int64 and duplicate map keys are rejected.
func Unmarshal(data []byte) (value.Value, error) {
	if len(data) == 0 {
		return value.Value{}, errors.InvalidData(errors.PhaseDeserialize, nil, "empty input")
	}
	if err := decMode.Wellformed(data); err != nil {
		return value.Value{}, errors.New(errors.PhaseDeserialize, errors.KindInvalidData).
			Detail("malformed CBOR").
			Cause(err).
			Build()
	}
	d := decoder{data: data}
	v, err := d.decode(nil, 0)
	if err != nil {
		return value.Value{}, err
	}
	if d.off != len(data) {
		return value.Value{}, errors.InvalidData(errors.PhaseDeserialize, nil,
			strconv.Itoa(len(data)-d.off)+" trailing bytes")
	}
	return v, nil
}

// Diagnose returns the RFC 8949 diagnostic notation of data.
func Diagnose(data []byte) (string, error) {
	s, err := cbor.Diagnose(data)
	if err != nil {
		return "", errors.Wrap(errors.PhaseDeserialize, errors.KindInvalidData, err, "diagnose")
	}
	return s, nil
}

// DiagnoseFirst returns the diagnostic notation of the first data item in
// data and the bytes that follow it.
func DiagnoseFirst(data []byte) (string, []byte, error) {
	s, rest, err := cbor.DiagnoseFirst(data)
	if err != nil {
		return "", nil, errors.Wrap(errors.PhaseDeserialize, errors.KindInvalidData, err, "diagnose")
	}
	return s, rest, nil
}

type encoder struct {
	buf []byte
}

func (e *encoder) head(major byte, n uint64) {
	e.buf = appendHead(e.buf, major, n)
}

func appendHead(b []byte, major byte, n uint64) []byte {
	m := major << 5
	switch {
	case n < 24:
		return append(b, m|byte(n))
	case n <= math.MaxUint8:
		return append(b, m|24, byte(n))
	case n <= math.MaxUint16:
		return binary.BigEndian.AppendUint16(append(b, m|25), uint16(n))
	case n <= math.MaxUint32:
		return binary.BigEndian.AppendUint32(append(b, m|26), uint32(n))
	}
	return binary.BigEndian.AppendUint64(append(b, m|27), n)
}

func (e *encoder) scalar(x any, path []string) error {
	b, err := encMode.Marshal(x)
	if err != nil {
		return errors.New(errors.PhaseSerialize, errors.KindInvalidData).
			Path(path...).
			Cause(err).
			Build()
	}
	e.buf = append(e.buf, b...)
	return nil
}

func (e *encoder) encode(v value.Value, path []string, depth int) error {
	switch v.Kind() {
	case value.KindNull:
		e.buf = append(e.buf, simpleNull)
	case value.KindBool:
		if b, _ := v.AsBool(); b {
			e.buf = append(e.buf, simpleTrue)
		} else {
			e.buf = append(e.buf, simpleFalse)
		}
	case value.KindInt:
		i, _ := v.AsInt()
		if i >= 0 {
			e.head(majorUint, uint64(i))
		} else {
			e.head(majorNegint, uint64(-1-i))
		}
	case value.KindFloat:
		f, _ := v.AsFloat()
		return e.scalar(f, path)
	case value.KindString:
		s, _ := v.AsString()
		return e.scalar(s, path)
	case value.KindBytes:
		b, _ := v.AsBytes()
		e.head(majorBytes, uint64(len(b)))
		e.buf = append(e.buf, b...)
	case value.KindArray:
		if depth >= MaxDepth {
			return errors.DepthExceeded(errors.PhaseSerialize, path, MaxDepth)
		}
		items := v.Items()
		e.head(majorArray, uint64(len(items)))
		for i, it := range items {
			if err := e.encode(it, appendPath(path, indexSegment(i)), depth+1); err != nil {
				return err
			}
		}
	case value.KindMap:
		if depth >= MaxDepth {
			return errors.DepthExceeded(errors.PhaseSerialize, path, MaxDepth)
		}
		return e.encodeMap(v.Pairs(), path, depth)
	default:
		return errors.Unsupported(errors.PhaseSerialize, path, v.Kind().String())
	}
	return nil
}

type encodedPair struct {
	key []byte
	val []byte
}

func (e *encoder) encodeMap(pairs []value.Pair, path []string, depth int) error {
	encoded := make([]encodedPair, len(pairs))
	for i, p := range pairs {
		seg := keySegment(p.Key)
		k := encoder{}
		if err := k.encode(p.Key, appendPath(path, "key("+seg+")"), depth+1); err != nil {
			return err
		}
		val := encoder{}
		if err := val.encode(p.Value, appendPath(path, seg), depth+1); err != nil {
			return err
		}
		encoded[i] = encodedPair{key: k.buf, val: val.buf}
	}

	sort.Slice(encoded, func(i, j int) bool {
		return bytes.Compare(encoded[i].key, encoded[j].key) < 0
	})
	for i := 1; i < len(encoded); i++ {
		if bytes.Equal(encoded[i-1].key, encoded[i].key) {
			return errors.New(errors.PhaseSerialize, errors.KindInvalidData).
				Path(path...).
				Detail("duplicate map key").
				Build()
		}
	}

	e.head(majorMap, uint64(len(encoded)))
	for _, p := range encoded {
		e.buf = append(e.buf, p.key...)
		e.buf = append(e.buf, p.val...)
	}
	return nil
}

// decoder walks a well-formed data item. Container heads are parsed here so
// map keys of any type survive; scalars go through decMode.
type decoder struct {
	data []byte
	off  int
}

func (d *decoder) malformed(path []string) error {
	return errors.InvalidData(errors.PhaseDeserialize, path, "truncated data item at byte "+strconv.Itoa(d.off))
}

// head reads an initial byte and its argument. indefinite is set for
// additional information 31.
func (d *decoder) head(path []string) (major byte, arg uint64, indefinite bool, err error) {
	if d.off >= len(d.data) {
		return 0, 0, false, d.malformed(path)
	}
	ib := d.data[d.off]
	major, ai := ib>>5, ib&0x1f
	d.off++

	var size int
	switch {
	case ai < 24:
		return major, uint64(ai), false, nil
	case ai == 24:
		size = 1
	case ai == 25:
		size = 2
	case ai == 26:
		size = 4
	case ai == 27:
		size = 8
	case ai == 31:
		return major, 0, true, nil
	default:
		return 0, 0, false, errors.InvalidData(errors.PhaseDeserialize, path, "reserved additional information")
	}
	if len(d.data)-d.off < size {
		return 0, 0, false, d.malformed(path)
	}
	b := d.data[d.off : d.off+size]
	d.off += size
	switch size {
	case 1:
		arg = uint64(b[0])
	case 2:
		arg = uint64(binary.BigEndian.Uint16(b))
	case 4:
		arg = uint64(binary.BigEndian.Uint32(b))
	default:
		arg = binary.BigEndian.Uint64(b)
	}
	return major, arg, false, nil
}

// first decodes one scalar item at the current offset into v.
func (d *decoder) first(v any, path []string) error {
	rest, err := decMode.UnmarshalFirst(d.data[d.off:], v)
	if err != nil {
		return errors.New(errors.PhaseDeserialize, errors.KindInvalidData).
			Path(path...).
			Cause(err).
			Build()
	}
	d.off = len(d.data) - len(rest)
	return nil
}

func (d *decoder) atBreak() bool {
	return d.off < len(d.data) && d.data[d.off] == breakCode
}

func (d *decoder) decode(path []string, depth int) (value.Value, error) {
	if d.off >= len(d.data) {
		return value.Value{}, d.malformed(path)
	}
	ib := d.data[d.off]

	switch ib >> 5 {
	case majorBytes:
		var b []byte
		if err := d.first(&b, path); err != nil {
			return value.Value{}, err
		}
		return value.Bytes(b), nil

	case majorText:
		var s string
		if err := d.first(&s, path); err != nil {
			return value.Value{}, err
		}
		return value.String(s), nil

	case majorTag:
		_, tag, _, _ := d.head(path)
		return value.Value{}, errors.New(errors.PhaseDeserialize, errors.KindUnsupported).
			Path(path...).
			Type("tag").
			Value(tag).
			Detail("tag %d is not supported", tag).
			Build()

	case majorSimple:
		return d.decodeSimple(ib, path)
	}

	start := d.off
	major, arg, indefinite, err := d.head(path)
	if err != nil {
		return value.Value{}, err
	}

	switch major {
	case majorUint:
		if arg > math.MaxInt64 {
			return value.Value{}, errors.Overflow(errors.PhaseDeserialize, path, arg, "int64")
		}
		return value.Int(int64(arg)), nil

	case majorNegint:
		if arg > math.MaxInt64 {
			return value.Value{}, errors.Overflow(errors.PhaseDeserialize, path,
				"-1-"+strconv.FormatUint(arg, 10), "int64")
		}
		return value.Int(-1 - int64(arg)), nil

	case majorArray:
		if depth >= MaxDepth {
			d.off = start
			return value.Value{}, errors.DepthExceeded(errors.PhaseDeserialize, path, MaxDepth)
		}
		var items []value.Value
		if !indefinite {
			items = make([]value.Value, 0, min(arg, 1024))
		}
		for i := 0; indefinite || uint64(i) < arg; i++ {
			if indefinite && d.atBreak() {
				d.off++
				break
			}
			it, err := d.decode(appendPath(path, indexSegment(i)), depth+1)
			if err != nil {
				return value.Value{}, err
			}
			items = append(items, it)
		}
		return value.Array(items...), nil

	case majorMap:
		if depth >= MaxDepth {
			d.off = start
			return value.Value{}, errors.DepthExceeded(errors.PhaseDeserialize, path, MaxDepth)
		}
		return d.decodeMap(arg, indefinite, path, depth)
	}

	return value.Value{}, errors.InvalidData(errors.PhaseDeserialize, path, "unexpected major type")
}

func (d *decoder) decodeMap(n uint64, indefinite bool, path []string, depth int) (value.Value, error) {
	var pairs []value.Pair
	if !indefinite {
		pairs = make([]value.Pair, 0, min(n, 1024))
	}
	seen := make(map[string]struct{})
	for i := uint64(0); indefinite || i < n; i++ {
		if indefinite && d.atBreak() {
			d.off++
			break
		}
		k, err := d.decode(appendPath(path, "key#"+strconv.FormatUint(i, 10)), depth+1)
		if err != nil {
			return value.Value{}, err
		}
		seg := keySegment(k)
		// Canonical bytes catch equal keys written with different
		// argument widths.
		canon, err := Marshal(k)
		if err != nil {
			return value.Value{}, errors.New(errors.PhaseDeserialize, errors.KindInvalidData).
				Path(appendPath(path, "key("+seg+")")...).
				Cause(err).
				Build()
		}
		if _, dup := seen[string(canon)]; dup {
			return value.Value{}, errors.New(errors.PhaseDeserialize, errors.KindInvalidData).
				Path(path...).
				Detail("duplicate map key %s", seg).
				Build()
		}
		seen[string(canon)] = struct{}{}

		v, err := d.decode(appendPath(path, seg), depth+1)
		if err != nil {
			return value.Value{}, err
		}
		pairs = append(pairs, value.KV(k, v))
	}
	return value.Map(pairs...), nil
}

func (d *decoder) decodeSimple(ib byte, path []string) (value.Value, error) {
	switch ib {
	case simpleFalse:
		d.off++
		return value.Bool(false), nil
	case simpleTrue:
		d.off++
		return value.Bool(true), nil
	case simpleNull:
		d.off++
		return value.Null(), nil
	case simpleUndefined:
		return value.Value{}, errors.Unsupported(errors.PhaseDeserialize, path, "undefined")
	case 0xf9, 0xfa, 0xfb:
		var f float64
		if err := d.first(&f, path); err != nil {
			return value.Value{}, err
		}
		return value.Float(f), nil
	}
	return value.Value{}, errors.Unsupported(errors.PhaseDeserialize, path, "simple("+strconv.Itoa(int(ib&0x1f))+")")
}

func appendPath(path []string, seg string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, seg)
}

func indexSegment(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

// keySegment names a map entry in an error path: string keys as is, other
// keys in diagnostic form.
func keySegment(k value.Value) string {
	if s, ok := k.AsString(); ok {
		return s
	}
	return k.String()
}
