package secs

import (
	"bytes"
	"strings"

	"github.com/corvid-systems/go-semihsm/internal/xerrors"
)

// maxWireLength is the largest payload a 3-byte big-endian length
// prefix can frame. original_source/E5's SECSItem<Derived>::TrySerialize
// leaves ByteLength at 0 and silently proceeds when a payload reaches
// this size, producing corrupt wire data; here that case is an
// explicit SerializeError instead.
const maxWireLength = 1 << 24

// Serialize frames item as SECS-II wire bytes: a header byte (format
// code in the high 6 bits, length-byte count in the low 2), a
// big-endian length prefix of that many bytes, then the item's own
// content encoding. Grounded on SECS/SECSItem.hpp's TrySerialize.
func Serialize(item Item) ([]byte, error) {
	length := item.Len()
	if length < 0 || length >= maxWireLength {
		return nil, xerrors.NewSerializeError("payload length exceeds the 3-byte length prefix")
	}

	lengthBytesCount := 1
	switch {
	case length > 0xFFFF:
		lengthBytesCount = 3
	case length > 0xFF:
		lengthBytesCount = 2
	}

	var buf bytes.Buffer
	buf.WriteByte(byte(item.FormatCode()) | byte(lengthBytesCount))
	for i := lengthBytesCount - 1; i >= 0; i-- {
		buf.WriteByte(byte(length >> (uint(i) * 8)))
	}
	if err := item.serializeContent(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize reads one framed item from the front of data, returning
// the item and whatever bytes follow it. Grounded on
// SECS/SECSParser.hpp's TryDeserialize.
func Deserialize(data []byte) (Item, []byte, error) {
	if len(data) == 0 {
		return nil, data, xerrors.NewParseError("empty buffer")
	}

	header := data[0]
	lengthBytesCount := int(header & lengthBytesCountFilter)
	if lengthBytesCount == 0 {
		return nil, data, xerrors.NewParseError("header declares zero length bytes")
	}
	code := FormatCode(header & formatCodeFilter)

	if len(data) < 1+lengthBytesCount {
		return nil, data, xerrors.NewParseError("truncated length prefix")
	}
	length := 0
	for i := 0; i < lengthBytesCount; i++ {
		length = (length << 8) | int(data[1+i])
	}
	rest := data[1+lengthBytesCount:]

	item, err := newItemForCode(code)
	if err != nil {
		return nil, data, err
	}
	rest, err = item.deserializeContent(rest, length)
	if err != nil {
		return nil, data, err
	}
	return item, rest, nil
}

// ParseText parses a "<TypeName values…>" textual item, recursing into
// nested lists. Grounded on SECS/SECSParser.hpp's TryParseContent.
func ParseText(raw string) (Item, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) < 2 || trimmed[0] != rangeStartMark || trimmed[len(trimmed)-1] != rangeEndMark {
		return nil, xerrors.NewParseError("text item must be wrapped in '<' and '>'")
	}
	inner := strings.TrimSpace(trimmed[1 : len(trimmed)-1])

	token, rest, ok := leadingAliasToken(inner)
	if !ok {
		return nil, xerrors.NewParseError("text item is missing a type name")
	}

	code, err := ParseFormatCodeName(token)
	if err != nil {
		return nil, err
	}
	item, err := newItemForCode(code)
	if err != nil {
		return nil, err
	}
	if err := item.parseContent(strings.TrimSpace(rest)); err != nil {
		return nil, err
	}
	return item, nil
}

// DeparseText renders item as its "<TypeName values…>" textual form,
// indenting nested list elements by level.
func DeparseText(item Item, level int) string {
	name, err := CanonicalName(item.FormatCode())
	if err != nil {
		name = "?"
	}
	var sb strings.Builder
	sb.WriteByte(rangeStartMark)
	sb.WriteString(name)
	sb.WriteString(item.deparseContent(level))
	sb.WriteByte(rangeEndMark)
	return sb.String()
}

// newItemForCode constructs an empty concrete Item for code, mirroring
// SECSFactory::createItem.
func newItemForCode(code FormatCode) (Item, error) {
	switch code {
	case ListFormatCode:
		return NewListItem(), nil
	case ASCIIFormatCode:
		return NewASCIIItem(""), nil
	case BooleanFormatCode:
		return NewBooleanItem(), nil
	case BinaryFormatCode:
		return NewBinaryItem(nil), nil
	case Int8FormatCode:
		return NewInt8Item(), nil
	case Int16FormatCode:
		return NewInt16Item(), nil
	case Int32FormatCode:
		return NewInt32Item(), nil
	case Int64FormatCode:
		return NewInt64Item(), nil
	case UInt8FormatCode:
		return NewUInt8Item(), nil
	case UInt16FormatCode:
		return NewUInt16Item(), nil
	case UInt32FormatCode:
		return NewUInt32Item(), nil
	case UInt64FormatCode:
		return NewUInt64Item(), nil
	case FloatFormatCode:
		return NewFloat32Item(), nil
	case DoubleFormatCode:
		return NewFloat64Item(), nil
	default:
		return nil, xerrors.NewParseError("unrecognized format code on the wire")
	}
}
