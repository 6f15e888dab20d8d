package secs

import (
	"bytes"
	"strings"

	"github.com/corvid-systems/go-semihsm/internal/xerrors"
)

// ASCIIItem is a single text string, grounded on
// original_source/E5/include/SECSItems/ASCIIItem.hpp: the text form
// carries the string as-is (parsing trims leading and trailing
// whitespace) and the wire form is the raw bytes with no terminator.
type ASCIIItem struct {
	value string
}

// NewASCIIItem builds an ASCIIItem holding value.
func NewASCIIItem(value string) *ASCIIItem { return &ASCIIItem{value: value} }

// Value returns the item's string.
func (a *ASCIIItem) Value() string { return a.value }

func (a *ASCIIItem) FormatCode() FormatCode { return ASCIIFormatCode }
func (a *ASCIIItem) Len() int               { return len(a.value) }

func (a *ASCIIItem) serializeContent(buf *bytes.Buffer) error {
	buf.WriteString(a.value)
	return nil
}

func (a *ASCIIItem) deserializeContent(data []byte, length int) ([]byte, error) {
	if length < 0 || length > len(data) {
		return data, xerrors.NewParseError("ascii item length out of range")
	}
	a.value = string(data[:length])
	return data[length:], nil
}

func (a *ASCIIItem) parseContent(content string) error {
	a.value = strings.TrimSpace(content)
	return nil
}

func (a *ASCIIItem) deparseContent(int) string {
	if a.value == "" {
		return ""
	}
	return " " + a.value
}
