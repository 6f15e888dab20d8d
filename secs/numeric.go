package secs

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/corvid-systems/go-semihsm/internal/xerrors"
	"golang.org/x/exp/constraints"
)

// Numeric is the set of element types NumericItem supports: every
// SECS-II fixed-width integer and floating-point item
// (Int8Item..UInt64Item, FloatItem, DoubleItem in the original) is one
// instantiation of the same generic type here, parameterized by
// element width via the per-constructor function table below — the
// ten near-identical C++ classes collapse into one generalized type.
type Numeric interface {
	constraints.Integer | constraints.Float
}

// NumericItem is a fixed-width numeric vector item. Construct one via
// NewInt8Item, NewInt16Item, ..., NewFloat32Item, NewFloat64Item.
type NumericItem[T Numeric] struct {
	code      FormatCode
	elemSize  int
	values    []T
	toUint    func(T) uint64
	fromUint  func(uint64) T
	parseOne  func(string) (T, bool)
	formatOne func(T) string
}

// Values returns the item's elements.
func (n *NumericItem[T]) Values() []T { return n.values }

func (n *NumericItem[T]) FormatCode() FormatCode { return n.code }
func (n *NumericItem[T]) Len() int               { return len(n.values) * n.elemSize }

func (n *NumericItem[T]) serializeContent(buf *bytes.Buffer) error {
	for _, v := range n.values {
		u := n.toUint(v)
		for i := n.elemSize - 1; i >= 0; i-- {
			buf.WriteByte(byte(u >> (uint(i) * 8)))
		}
	}
	return nil
}

func (n *NumericItem[T]) deserializeContent(data []byte, length int) ([]byte, error) {
	if length < 0 || length > len(data) || length%n.elemSize != 0 {
		return data, xerrors.NewParseError("numeric item length is not a multiple of the element size")
	}
	n.values = make([]T, 0, length/n.elemSize)
	for off := 0; off < length; off += n.elemSize {
		var u uint64
		for i := 0; i < n.elemSize; i++ {
			u = (u << 8) | uint64(data[off+i])
		}
		n.values = append(n.values, n.fromUint(u))
	}
	return data[length:], nil
}

func (n *NumericItem[T]) parseContent(content string) error {
	fields := trimSplit(content)
	values := make([]T, 0, len(fields))
	for _, f := range fields {
		v, ok := n.parseOne(f)
		if !ok {
			return xerrors.NewParseError("cannot parse numeric value: " + f)
		}
		values = append(values, v)
	}
	n.values = values
	return nil
}

func (n *NumericItem[T]) deparseContent(int) string {
	if len(n.values) == 0 {
		return ""
	}
	var b strings.Builder
	for _, v := range n.values {
		b.WriteByte(' ')
		b.WriteString(n.formatOne(v))
	}
	return b.String()
}

func newSignedItem[T constraints.Signed](code FormatCode, elemSize, bitSize int, values []T) *NumericItem[T] {
	return &NumericItem[T]{
		code: code, elemSize: elemSize, values: values,
		toUint:   func(v T) uint64 { return uint64(v) },
		fromUint: func(u uint64) T { return T(int64(u)) },
		parseOne: func(s string) (T, bool) {
			v, err := strconv.ParseInt(s, 10, bitSize)
			return T(v), err == nil
		},
		formatOne: func(v T) string { return strconv.FormatInt(int64(v), 10) },
	}
}

func newUnsignedItem[T constraints.Unsigned](code FormatCode, elemSize, bitSize int, values []T) *NumericItem[T] {
	return &NumericItem[T]{
		code: code, elemSize: elemSize, values: values,
		toUint:   func(v T) uint64 { return uint64(v) },
		fromUint: func(u uint64) T { return T(u) },
		parseOne: func(s string) (T, bool) {
			v, err := strconv.ParseUint(s, 10, bitSize)
			return T(v), err == nil
		},
		formatOne: func(v T) string { return strconv.FormatUint(uint64(v), 10) },
	}
}

// NewInt8Item builds a one-byte-per-element signed integer item.
func NewInt8Item(values ...int8) *NumericItem[int8] { return newSignedItem(Int8FormatCode, 1, 8, values) }

// NewInt16Item builds a two-byte-per-element signed integer item.
func NewInt16Item(values ...int16) *NumericItem[int16] {
	return newSignedItem(Int16FormatCode, 2, 16, values)
}

// NewInt32Item builds a four-byte-per-element signed integer item.
func NewInt32Item(values ...int32) *NumericItem[int32] {
	return newSignedItem(Int32FormatCode, 4, 32, values)
}

// NewInt64Item builds an eight-byte-per-element signed integer item.
func NewInt64Item(values ...int64) *NumericItem[int64] {
	return newSignedItem(Int64FormatCode, 8, 64, values)
}

// NewUInt8Item builds a one-byte-per-element unsigned integer item.
func NewUInt8Item(values ...uint8) *NumericItem[uint8] {
	return newUnsignedItem(UInt8FormatCode, 1, 8, values)
}

// NewUInt16Item builds a two-byte-per-element unsigned integer item.
func NewUInt16Item(values ...uint16) *NumericItem[uint16] {
	return newUnsignedItem(UInt16FormatCode, 2, 16, values)
}

// NewUInt32Item builds a four-byte-per-element unsigned integer item.
func NewUInt32Item(values ...uint32) *NumericItem[uint32] {
	return newUnsignedItem(UInt32FormatCode, 4, 32, values)
}

// NewUInt64Item builds an eight-byte-per-element unsigned integer item.
func NewUInt64Item(values ...uint64) *NumericItem[uint64] {
	return newUnsignedItem(UInt64FormatCode, 8, 64, values)
}

// NewFloat32Item builds a four-byte-per-element IEEE-754 item,
// mirroring FloatItem.hpp.
func NewFloat32Item(values ...float32) *NumericItem[float32] {
	return &NumericItem[float32]{
		code: FloatFormatCode, elemSize: 4, values: values,
		toUint:   func(v float32) uint64 { return uint64(math.Float32bits(v)) },
		fromUint: func(u uint64) float32 { return math.Float32frombits(uint32(u)) },
		parseOne: func(s string) (float32, bool) {
			v, err := strconv.ParseFloat(s, 32)
			return float32(v), err == nil
		},
		formatOne: func(v float32) string { return strconv.FormatFloat(float64(v), 'f', 6, 32) },
	}
}

// NewFloat64Item builds an eight-byte-per-element IEEE-754 item,
// mirroring DoubleItem.hpp.
func NewFloat64Item(values ...float64) *NumericItem[float64] {
	return &NumericItem[float64]{
		code: DoubleFormatCode, elemSize: 8, values: values,
		toUint:   func(v float64) uint64 { return math.Float64bits(v) },
		fromUint: func(u uint64) float64 { return math.Float64frombits(u) },
		parseOne: func(s string) (float64, bool) {
			v, err := strconv.ParseFloat(s, 64)
			return v, err == nil
		},
		formatOne: func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) },
	}
}
