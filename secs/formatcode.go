// Package secs implements a tag-length-value (TLV) codec for the
// SECS-II industrial equipment-communication protocol: item framing
// (format-code byte with a 1-3 byte length-byte count, per-type
// payload) plus a textual form (`<TypeName values…>`) with the same
// alias tables the wire format's type names use.
//
// Grounded on original_source/E5/include/{DataType/FormatCode.hpp,
// SECS/SECSBase.hpp, SECS/SECSItem.hpp, SECS/SECSParser.hpp,
// SECS/SECSFactory.hpp} and SECSItems/*.hpp — translated from the
// original's CRTP (SECSItem<Derived>) base-class framing into a single
// set of free functions operating on the Item interface, since Go has
// no equivalent of curiously-recurring-template-pattern dispatch.
package secs

import (
	"strings"

	"github.com/corvid-systems/go-semihsm/internal/xerrors"
)

// FormatCode is the SECS-II item type tag: the high 6 bits of the wire
// format's leading byte (the low 2 bits hold the length-byte count).
type FormatCode int

const (
	ListFormatCode    FormatCode = 0x00 << 2
	BinaryFormatCode  FormatCode = 0x08 << 2
	BooleanFormatCode FormatCode = 0x09 << 2
	ASCIIFormatCode   FormatCode = 0x10 << 2
	Int64FormatCode   FormatCode = 0x18 << 2
	Int8FormatCode    FormatCode = 0x19 << 2
	Int16FormatCode   FormatCode = 0x1A << 2
	Int32FormatCode   FormatCode = 0x1C << 2
	DoubleFormatCode  FormatCode = 0x20 << 2
	FloatFormatCode   FormatCode = 0x24 << 2
	UInt64FormatCode  FormatCode = 0x28 << 2
	UInt8FormatCode   FormatCode = 0x29 << 2
	UInt16FormatCode  FormatCode = 0x2A << 2
	UInt32FormatCode  FormatCode = 0x2C << 2
)

// formatCodeFilter masks out the low 2 length-byte-count bits of a wire
// header byte, leaving the format code.
const formatCodeFilter = 0xFC

// lengthBytesCountFilter masks in just the length-byte-count bits.
const lengthBytesCountFilter = 0x03

// canonicalNames is the first (canonical) alias per code, used when
// deparsing to text. aliases is every recognized name for ParseText,
// including the canonical one. Grounded on
// CodeNameExtension::getallFormatMaps, preserving its first-alias-wins
// canonicalization rule.
var canonicalNames = map[FormatCode]string{
	ListFormatCode:    "L",
	BinaryFormatCode:  "B",
	BooleanFormatCode: "BOOLEAN",
	ASCIIFormatCode:   "A",
	Int8FormatCode:    "I1",
	Int16FormatCode:   "I2",
	Int32FormatCode:   "I4",
	Int64FormatCode:   "I8",
	UInt8FormatCode:   "U1",
	UInt16FormatCode:  "U2",
	UInt32FormatCode:  "U4",
	UInt64FormatCode:  "U8",
	DoubleFormatCode:  "F8",
	FloatFormatCode:   "F4",
}

var aliases = map[string]FormatCode{
	"L": ListFormatCode, "List": ListFormatCode, "list": ListFormatCode, "LIST": ListFormatCode,
	"B": BinaryFormatCode, "Byte": BinaryFormatCode, "Binary": BinaryFormatCode, "byte": BinaryFormatCode, "binary": BinaryFormatCode,
	"BOOLEAN": BooleanFormatCode, "Bool": BooleanFormatCode, "Boolean": BooleanFormatCode, "bool": BooleanFormatCode, "boolean": BooleanFormatCode,
	"A": ASCIIFormatCode, "ASCII": ASCIIFormatCode, "ascii": ASCIIFormatCode, "string": ASCIIFormatCode,
	"I1": Int8FormatCode, "Int8": Int8FormatCode, "i1": Int8FormatCode, "int8": Int8FormatCode,
	"I2": Int16FormatCode, "i2": Int16FormatCode, "Int16": Int16FormatCode, "int16": Int16FormatCode,
	"I4": Int32FormatCode, "i4": Int32FormatCode, "Int32": Int32FormatCode, "int32": Int32FormatCode,
	"I8": Int64FormatCode, "Int64": Int64FormatCode, "i8": Int64FormatCode, "int64": Int64FormatCode,
	"U1": UInt8FormatCode, "u1": UInt8FormatCode, "UInt8": UInt8FormatCode, "Uint8": UInt8FormatCode, "uint8": UInt8FormatCode,
	"U2": UInt16FormatCode, "u2": UInt16FormatCode, "UInt16": UInt16FormatCode, "Uint16": UInt16FormatCode, "uint16": UInt16FormatCode,
	"U4": UInt32FormatCode, "u4": UInt32FormatCode, "UInt32": UInt32FormatCode, "Uint32": UInt32FormatCode, "uint32": UInt32FormatCode,
	"U8": UInt64FormatCode, "u8": UInt64FormatCode, "UInt64": UInt64FormatCode, "Uint64": UInt64FormatCode, "uint64": UInt64FormatCode,
	"F8": DoubleFormatCode, "D": DoubleFormatCode, "Double": DoubleFormatCode, "double": DoubleFormatCode,
	"F4": FloatFormatCode, "F": FloatFormatCode, "Float": FloatFormatCode, "float": FloatFormatCode,
}

// CanonicalName returns code's canonical textual alias (e.g. "I4" for
// Int32FormatCode), used when deparsing.
func CanonicalName(code FormatCode) (string, error) {
	name, ok := canonicalNames[code]
	if !ok {
		return "", xerrors.NewParseError("unknown format code")
	}
	return name, nil
}

// ParseFormatCodeName resolves any recognized alias (canonical or not)
// to its FormatCode.
func ParseFormatCodeName(name string) (FormatCode, error) {
	if name == "" {
		return 0, xerrors.NewParseError("empty format code name")
	}
	code, ok := aliases[name]
	if !ok {
		return 0, xerrors.NewParseError("unrecognized format code name: " + name)
	}
	return code, nil
}

// leadingAliasToken scans a leading run of alias characters
// (alphanumeric, '|', '*', '?') from context, mirroring
// CodeNameExtension::ParseReg, and returns the token plus whatever
// follows it.
func leadingAliasToken(context string) (token, rest string, ok bool) {
	i := 0
	for i < len(context) {
		c := context[i]
		isAliasChar := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '|' || c == '*' || c == '?'
		if !isAliasChar {
			break
		}
		i++
	}
	if i == 0 {
		return "", context, false
	}
	return context[:i], context[i:], true
}

// trimSplit splits on ASCII whitespace and drops empty fields,
// mirroring StringUtils::SplitAndRemoveEmpty.
func trimSplit(s string) []string {
	return strings.Fields(s)
}
