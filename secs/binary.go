package secs

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/corvid-systems/go-semihsm/internal/xerrors"
)

// BinaryItem is a raw byte blob, grounded on
// original_source/E5/include/SECSItems/BinaryItem.hpp: the wire form
// is the bytes unchanged, the text form is whitespace-separated
// decimal octets.
type BinaryItem struct {
	value []byte
}

// NewBinaryItem builds a BinaryItem holding value.
func NewBinaryItem(value []byte) *BinaryItem { return &BinaryItem{value: value} }

// Value returns the item's bytes.
func (b *BinaryItem) Value() []byte { return b.value }

func (b *BinaryItem) FormatCode() FormatCode { return BinaryFormatCode }
func (b *BinaryItem) Len() int               { return len(b.value) }

func (b *BinaryItem) serializeContent(buf *bytes.Buffer) error {
	buf.Write(b.value)
	return nil
}

func (b *BinaryItem) deserializeContent(data []byte, length int) ([]byte, error) {
	if length < 0 || length > len(data) {
		return data, xerrors.NewParseError("binary item length out of range")
	}
	b.value = append([]byte(nil), data[:length]...)
	return data[length:], nil
}

func (b *BinaryItem) parseContent(content string) error {
	fields := trimSplit(content)
	value := make([]byte, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 10, 8)
		if err != nil {
			return xerrors.NewParseError("cannot parse binary octet: " + f)
		}
		value = append(value, byte(v))
	}
	b.value = value
	return nil
}

func (b *BinaryItem) deparseContent(int) string {
	var sb strings.Builder
	for _, v := range b.value {
		sb.WriteByte(' ')
		sb.WriteString(strconv.Itoa(int(v)))
	}
	return sb.String()
}
