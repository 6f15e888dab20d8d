package secs

import (
	"bytes"
	"strings"

	"github.com/corvid-systems/go-semihsm/internal/xerrors"
)

// BooleanItem is a vector of booleans, grounded on
// original_source/E5/include/SECSItems/BooleanItem.hpp: one byte per
// value on the wire (0x00/0x01), "true"/"false" text (case-insensitive
// on parse).
type BooleanItem struct {
	values []bool
}

// NewBooleanItem builds a BooleanItem holding values.
func NewBooleanItem(values ...bool) *BooleanItem { return &BooleanItem{values: values} }

// Values returns the item's elements.
func (b *BooleanItem) Values() []bool { return b.values }

func (b *BooleanItem) FormatCode() FormatCode { return BooleanFormatCode }
func (b *BooleanItem) Len() int               { return len(b.values) }

func (b *BooleanItem) serializeContent(buf *bytes.Buffer) error {
	for _, v := range b.values {
		if v {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	}
	return nil
}

func (b *BooleanItem) deserializeContent(data []byte, length int) ([]byte, error) {
	if length < 0 || length > len(data) {
		return data, xerrors.NewParseError("boolean item length out of range")
	}
	b.values = make([]bool, length)
	for i := 0; i < length; i++ {
		b.values[i] = data[i] != 0
	}
	return data[length:], nil
}

func (b *BooleanItem) parseContent(content string) error {
	fields := trimSplit(content)
	values := make([]bool, 0, len(fields))
	for _, f := range fields {
		switch strings.ToLower(f) {
		case "true":
			values = append(values, true)
		case "false":
			values = append(values, false)
		default:
			return xerrors.NewParseError("cannot parse boolean value: " + f)
		}
	}
	b.values = values
	return nil
}

func (b *BooleanItem) deparseContent(int) string {
	var sb strings.Builder
	for _, v := range b.values {
		sb.WriteByte(' ')
		if v {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	}
	return sb.String()
}
