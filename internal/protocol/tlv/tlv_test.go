package tlv

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestEncodeDecodeFieldsRoundTripPreservesOrder(t *testing.T) {
	in := []Field{
		String(1, "alice"),
		Bytes(9999, []byte{0xAA, 0xBB}),
	}
	b := EncodeFields(in)
	out, err := DecodeFields(b)
	if err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(out))
	}
	if out[1].ID != 9999 || out[1].Type != TypeBytes || !bytes.Equal(out[1].Value, []byte{0xAA, 0xBB}) {
		t.Fatalf("second field not preserved: %+v", out[1])
	}
}

func TestDecodeFieldsMalformedHeaderIsDeterministic(t *testing.T) {
	_, err := DecodeFields([]byte{1, 2, 3})
	if !errors.Is(err, ErrShortFieldHeader) {
		t.Fatalf("expected ErrShortFieldHeader, got %v", err)
	}
}

func TestDecodeFieldsMalformedLengthIsDeterministic(t *testing.T) {
	// id=1, type=string, len=5, value only 2 bytes
	payload := []byte{0, 1, TypeString, 0, 0, 0, 5, 'a', 'b'}
	_, err := DecodeFields(payload)
	if !errors.Is(err, ErrShortFieldValue) {
		t.Fatalf("expected ErrShortFieldValue, got %v", err)
	}
}

func TestScalarBoundaries(t *testing.T) {
	if v, err := I32(1, math.MinInt32).AsI32(); err != nil || v != math.MinInt32 {
		t.Fatalf("i32 min: v=%d err=%v", v, err)
	}
	if v, err := I32(1, math.MaxInt32).AsI32(); err != nil || v != math.MaxInt32 {
		t.Fatalf("i32 max: v=%d err=%v", v, err)
	}
	if v, err := U64(1, math.MaxUint64).AsU64(); err != nil || v != math.MaxUint64 {
		t.Fatalf("u64 max: v=%d err=%v", v, err)
	}
	if v, err := F64(1, -0.125).AsF64(); err != nil || v != -0.125 {
		t.Fatalf("f64: v=%v err=%v", v, err)
	}
}

func TestAccessorTypeMismatch(t *testing.T) {
	_, err := U16(1, 7).AsU8()
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestAccessorRejectsBadBool(t *testing.T) {
	f := Field{ID: 1, Type: TypeBool, Value: []byte{2}}
	if _, err := f.AsBool(); !errors.Is(err, ErrInvalidBool) {
		t.Fatalf("expected ErrInvalidBool, got %v", err)
	}
}

func TestAccessorRejectsWrongWidth(t *testing.T) {
	f := Field{ID: 1, Type: TypeU32, Value: []byte{0, 1}}
	if _, err := f.AsU32(); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
}

func TestAccessorRejectsInvalidUTF8(t *testing.T) {
	if _, err := String(1, "al\xffice").AsString(); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
	if v, err := String(1, "Алиса").AsString(); err != nil || v != "Алиса" {
		t.Fatalf("valid string rejected: %q %v", v, err)
	}
}

func TestCheckStringsWalksNestedValues(t *testing.T) {
	ok := []Field{String(1, "a"), List(2, []Field{Struct(ElementID, []Field{String(1, "b")})})}
	if err := CheckStrings(ok); err != nil {
		t.Fatalf("check strings: %v", err)
	}
	bad := []Field{String(1, "a"), List(2, []Field{Struct(ElementID, []Field{String(1, "\xc3")})})}
	if err := CheckStrings(bad); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestListAndStructNesting(t *testing.T) {
	entry := Struct(ElementID, []Field{
		U64(1, 42),
		List(2, []Field{Bool(7, true), Bool(7, false)}),
	})
	top := List(50, []Field{entry})

	decoded, err := DecodeFields(EncodeFields([]Field{top}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	elems, err := decoded[0].AsList()
	if err != nil {
		t.Fatalf("as list: %v", err)
	}
	if len(elems) != 1 {
		t.Fatalf("expected 1 element, got %d", len(elems))
	}
	members, err := elems[0].AsStruct()
	if err != nil {
		t.Fatalf("as struct: %v", err)
	}
	r := NewRecord(members)
	id := r.U64(1)
	days := r.List(2)
	if r.Err() != nil {
		t.Fatalf("record: %v", r.Err())
	}
	if id != 42 || len(days) != 2 {
		t.Fatalf("unexpected nested values id=%d days=%d", id, len(days))
	}
	if days[0].ID != ElementID {
		t.Fatalf("list element id rewritten incorrectly: %d", days[0].ID)
	}
}

func TestEmptyListRoundTrip(t *testing.T) {
	elems, err := List(3, nil).AsList()
	if err != nil {
		t.Fatalf("as list: %v", err)
	}
	if len(elems) != 0 {
		t.Fatalf("expected empty list, got %d", len(elems))
	}
}

func TestRecordStickyError(t *testing.T) {
	r := NewRecord([]Field{String(1, "x")})
	_ = r.U16(2)
	_ = r.String(1)
	if !errors.Is(r.Err(), ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", r.Err())
	}
}
