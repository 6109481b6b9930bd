// Package types implements the Type tagged variant, plus the
// numeric-width/range helpers (IsNumeric, IsInteger, IsFloat, IntRange,
// FitsUint64) used by literal narrowing and operator typing. It has no
// byte-size or alignment computation.
package types

import "fmt"

// Kind tags a Type's variant.
type Kind int

const (
	KindInt8 Kind = iota
	KindInt16
	KindInt32
	KindInt64
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindFloat
	KindDouble
	KindBool
	KindChar
	KindVoid
	KindSArray
	KindComp
)

// Type is the tagged variant. SArray carries Elem and Size; Comp carries
// Name (possibly `module::name` qualified).
type Type struct {
	Kind Kind
	Elem *Type // KindSArray
	Size int   // KindSArray
	Name string // KindComp
}

// Convenience constructors / singletons for the primitive kinds.
var (
	Int8   = &Type{Kind: KindInt8}
	Int16  = &Type{Kind: KindInt16}
	Int32  = &Type{Kind: KindInt32}
	Int64  = &Type{Kind: KindInt64}
	UInt8  = &Type{Kind: KindUInt8}
	UInt16 = &Type{Kind: KindUInt16}
	UInt32 = &Type{Kind: KindUInt32}
	UInt64 = &Type{Kind: KindUInt64}
	Float  = &Type{Kind: KindFloat}
	Double = &Type{Kind: KindDouble}
	Bool   = &Type{Kind: KindBool}
	Char   = &Type{Kind: KindChar}
	Void   = &Type{Kind: KindVoid}
)

// NewSArray builds a fixed-size array type.
func NewSArray(elem *Type, size int) *Type {
	return &Type{Kind: KindSArray, Elem: elem, Size: size}
}

// NewComp builds a user-defined composite (struct) type reference.
func NewComp(name string) *Type {
	return &Type{Kind: KindComp, Name: name}
}

// aliases maps the source-level alias spellings to their canonical type.
var aliases = map[string]*Type{
	"int":     Int32,
	"uint":    UInt32,
	"int8":    Int8,
	"int16":   Int16,
	"int32":   Int32,
	"int64":   Int64,
	"uint8":   UInt8,
	"uint16":  UInt16,
	"uint32":  UInt32,
	"uint64":  UInt64,
	"float":   Float,
	"double":  Double,
	"bool":    Bool,
	"char":    Char,
	"void":    Void,
}

// LookupPrimitive returns the primitive Type for name, if any.
func LookupPrimitive(name string) (*Type, bool) {
	t, ok := aliases[name]
	return t, ok
}

// IsPrimitiveName reports whether name names a primitive/alias type.
func IsPrimitiveName(name string) bool {
	_, ok := aliases[name]
	return ok
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUInt8:
		return "uint8"
	case KindUInt16:
		return "uint16"
	case KindUInt32:
		return "uint32"
	case KindUInt64:
		return "uint64"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindVoid:
		return "void"
	case KindSArray:
		return fmt.Sprintf("[%s; %d]", t.Elem, t.Size)
	case KindComp:
		return t.Name
	default:
		return "<invalid>"
	}
}

// Equal reports structural equality between two types.
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindSArray:
		return t.Size == other.Size && t.Elem.Equal(other.Elem)
	case KindComp:
		return t.Name == other.Name
	default:
		return true
	}
}

// IsNumeric reports whether t is any integer or floating primitive.
func (t *Type) IsNumeric() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUInt8, KindUInt16, KindUInt32, KindUInt64,
		KindFloat, KindDouble:
		return true
	default:
		return false
	}
}

// IsInteger reports whether t is any width-typed integer primitive.
func (t *Type) IsInteger() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether t is Float or Double.
func (t *Type) IsFloat() bool {
	return t != nil && (t.Kind == KindFloat || t.Kind == KindDouble)
}

// IntRange returns the inclusive [min, max] representable range for an
// integer Type's width. Returns ok=false for non-integer types.
func (t *Type) IntRange() (min, max int64, ok bool) {
	if t == nil {
		return 0, 0, false
	}
	switch t.Kind {
	case KindInt8:
		return -128, 127, true
	case KindInt16:
		return -32768, 32767, true
	case KindInt32:
		return -2147483648, 2147483647, true
	case KindInt64:
		return -9223372036854775808, 9223372036854775807, true
	case KindUInt8:
		return 0, 255, true
	case KindUInt16:
		return 0, 65535, true
	case KindUInt32:
		return 0, 4294967295, true
	case KindUInt64:
		return 0, 0, false // max doesn't fit int64; checked specially by callers
	default:
		return 0, 0, false
	}
}

// FitsUint64 reports whether an unsigned 64-bit literal value fits inside
// t's width. Used for the UInt64 case IntRange can't represent.
func (t *Type) FitsUint64(v uint64) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindUInt64:
		return true
	case KindInt64:
		return v <= 9223372036854775807
	default:
		min, max, ok := t.IntRange()
		if !ok {
			return false
		}
		if min < 0 {
			return v <= uint64(max)
		}
		return v <= uint64(max)
	}
}
