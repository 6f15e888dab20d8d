package secs

import (
	"bytes"
	"strings"
)

// Item is a single SECS-II value: a list, a string, a byte blob, a
// boolean vector, or a numeric vector of one fixed width. Grounded on
// SECS/SECSBase.hpp's SECSItemBase; the framing logic SECSItem<Derived>
// layered on top of it lives at package level (Serialize/Deserialize/
// ParseText/DeparseText) instead of being mixed into the interface,
// since Go has no CRTP to hang it from.
type Item interface {
	// FormatCode reports this item's wire/text type tag.
	FormatCode() FormatCode
	// Len reports the TLV length field: a byte count for every leaf
	// type, an element count for ListItem.
	Len() int

	serializeContent(buf *bytes.Buffer) error
	deserializeContent(data []byte, length int) (rest []byte, err error)
	parseContent(content string) error
	deparseContent(level int) string
}

const (
	rangeStartMark = '<'
	rangeEndMark   = '>'
)

func indent(level int) string {
	if level <= 0 {
		return ""
	}
	return strings.Repeat("  ", level)
}
