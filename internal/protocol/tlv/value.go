package tlv

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

func U8(id uint16, v uint8) Field {
	return Field{ID: id, Type: TypeU8, Value: []byte{v}}
}

func U16(id uint16, v uint16) Field {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, v)
	return Field{ID: id, Type: TypeU16, Value: buf}
}

func U32(id uint16, v uint32) Field {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return Field{ID: id, Type: TypeU32, Value: buf}
}

func U64(id uint16, v uint64) Field {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return Field{ID: id, Type: TypeU64, Value: buf}
}

// I32 stores v as its two's-complement u32 bit pattern.
func I32(id uint16, v int32) Field {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(v))
	return Field{ID: id, Type: TypeI32, Value: buf}
}

// F64 stores the IEEE-754 bits of v.
func F64(id uint16, v float64) Field {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(v))
	return Field{ID: id, Type: TypeF64, Value: buf}
}

func Bool(id uint16, v bool) Field {
	b := byte(0)
	if v {
		b = 1
	}
	return Field{ID: id, Type: TypeBool, Value: []byte{b}}
}

func String(id uint16, v string) Field {
	return Field{ID: id, Type: TypeString, Value: []byte(v)}
}

func Bytes(id uint16, v []byte) Field {
	buf := make([]byte, len(v))
	copy(buf, v)
	return Field{ID: id, Type: TypeBytes, Value: buf}
}

// List packs elems as one field. Element ids are rewritten to ElementID.
func List(id uint16, elems []Field) Field {
	packed := make([]Field, len(elems))
	for i, e := range elems {
		e.ID = ElementID
		packed[i] = e
	}
	return Field{ID: id, Type: TypeList, Value: EncodeFields(packed)}
}

// Struct packs members as one field, keeping their ids.
func Struct(id uint16, members []Field) Field {
	return Field{ID: id, Type: TypeStruct, Value: EncodeFields(members)}
}

func (f Field) AsU8() (uint8, error) {
	if err := f.fixed(TypeU8, 1); err != nil {
		return 0, err
	}
	return f.Value[0], nil
}

func (f Field) AsU16() (uint16, error) {
	if err := f.fixed(TypeU16, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(f.Value), nil
}

func (f Field) AsU32() (uint32, error) {
	if err := f.fixed(TypeU32, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(f.Value), nil
}

func (f Field) AsU64() (uint64, error) {
	if err := f.fixed(TypeU64, 8); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(f.Value), nil
}

func (f Field) AsI32() (int32, error) {
	if err := f.fixed(TypeI32, 4); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(f.Value)), nil
}

func (f Field) AsF64() (float64, error) {
	if err := f.fixed(TypeF64, 8); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(f.Value)), nil
}

func (f Field) AsBool() (bool, error) {
	if err := f.fixed(TypeBool, 1); err != nil {
		return false, err
	}
	switch f.Value[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: field %d byte=%#x", ErrInvalidBool, f.ID, f.Value[0])
	}
}

func (f Field) AsString() (string, error) {
	if err := MustType(f, TypeString); err != nil {
		return "", err
	}
	if !utf8.Valid(f.Value) {
		return "", fmt.Errorf("%w: field %d", ErrInvalidUTF8, f.ID)
	}
	return string(f.Value), nil
}

// CheckStrings walks fields, including nested lists and structs, and rejects
// any string value that is not valid UTF-8.
func CheckStrings(fields []Field) error {
	for _, f := range fields {
		switch f.Type {
		case TypeString:
			if _, err := f.AsString(); err != nil {
				return err
			}
		case TypeList, TypeStruct:
			nested, err := DecodeFields(f.Value)
			if err != nil {
				return err
			}
			if err := CheckStrings(nested); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f Field) AsBytes() ([]byte, error) {
	if err := MustType(f, TypeBytes); err != nil {
		return nil, err
	}
	buf := make([]byte, len(f.Value))
	copy(buf, f.Value)
	return buf, nil
}

// AsList decodes the elements of a list field.
func (f Field) AsList() ([]Field, error) {
	if err := MustType(f, TypeList); err != nil {
		return nil, err
	}
	elems, err := DecodeFields(f.Value)
	if err != nil {
		return nil, err
	}
	for _, e := range elems {
		if e.ID != ElementID {
			return nil, fmt.Errorf("%w: list %d element id=%d", ErrInvalidLength, f.ID, e.ID)
		}
	}
	return elems, nil
}

// AsStruct decodes the members of a struct field.
func (f Field) AsStruct() ([]Field, error) {
	if err := MustType(f, TypeStruct); err != nil {
		return nil, err
	}
	return DecodeFields(f.Value)
}

func (f Field) fixed(t uint8, size int) error {
	if err := MustType(f, t); err != nil {
		return err
	}
	if len(f.Value) != size {
		return fmt.Errorf("%w: field %d %s len=%d", ErrInvalidLength, f.ID, TypeName(t), len(f.Value))
	}
	return nil
}
