package tlv

import (
	"errors"
	"fmt"
)

var ErrMissingField = errors.New("tlv: missing field")

// Record reads typed values out of a decoded field set.
// The first failure sticks; later reads return zero values and Err reports it.
type Record struct {
	fields []Field
	err    error
}

func NewRecord(fields []Field) *Record {
	return &Record{fields: fields}
}

func (r *Record) Err() error {
	return r.err
}

func (r *Record) lookup(id uint16) (Field, bool) {
	if r.err != nil {
		return Field{}, false
	}
	f, ok := GetField(r.fields, id)
	if !ok {
		r.err = fmt.Errorf("%w: id=%d", ErrMissingField, id)
		return Field{}, false
	}
	return f, true
}

func read[T any](r *Record, id uint16, get func(Field) (T, error)) T {
	var zero T
	f, ok := r.lookup(id)
	if !ok {
		return zero
	}
	v, err := get(f)
	if err != nil {
		r.err = err
		return zero
	}
	return v
}

func (r *Record) U8(id uint16) uint8       { return read(r, id, Field.AsU8) }
func (r *Record) U16(id uint16) uint16     { return read(r, id, Field.AsU16) }
func (r *Record) U32(id uint16) uint32     { return read(r, id, Field.AsU32) }
func (r *Record) U64(id uint16) uint64     { return read(r, id, Field.AsU64) }
func (r *Record) I32(id uint16) int32      { return read(r, id, Field.AsI32) }
func (r *Record) F64(id uint16) float64    { return read(r, id, Field.AsF64) }
func (r *Record) Bool(id uint16) bool      { return read(r, id, Field.AsBool) }
func (r *Record) String(id uint16) string  { return read(r, id, Field.AsString) }
func (r *Record) Bytes(id uint16) []byte   { return read(r, id, Field.AsBytes) }
func (r *Record) List(id uint16) []Field   { return read(r, id, Field.AsList) }
func (r *Record) Struct(id uint16) []Field { return read(r, id, Field.AsStruct) }

// Fail records err unless an earlier failure is already held.
func (r *Record) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
