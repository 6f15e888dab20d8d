package secs

import (
	"bytes"
	"strings"

	"github.com/corvid-systems/go-semihsm/internal/xerrors"
)

// ListItem is an ordered vector of sub-items, grounded on
// original_source/E5/include/SECSItems/ListItem.hpp. Its Len is an
// element count, not a byte count — the only format code for which
// that distinction matters — and its wire/text framing recurses into
// the shared Serialize/Deserialize/ParseText/DeparseText helpers for
// each element rather than handling bytes directly.
type ListItem struct {
	items []Item
}

// NewListItem builds a ListItem holding items in order.
func NewListItem(items ...Item) *ListItem { return &ListItem{items: items} }

// Items returns the list's elements.
func (l *ListItem) Items() []Item { return l.items }

func (l *ListItem) FormatCode() FormatCode { return ListFormatCode }
func (l *ListItem) Len() int               { return len(l.items) }

func (l *ListItem) serializeContent(buf *bytes.Buffer) error {
	for _, item := range l.items {
		wire, err := Serialize(item)
		if err != nil {
			return err
		}
		buf.Write(wire)
	}
	return nil
}

func (l *ListItem) deserializeContent(data []byte, length int) ([]byte, error) {
	items := make([]Item, 0, length)
	rest := data
	for i := 0; i < length; i++ {
		item, remaining, err := Deserialize(rest)
		if err != nil {
			return data, err
		}
		items = append(items, item)
		rest = remaining
	}
	l.items = items
	return rest, nil
}

// parseContent performs a balanced-bracket scan over content, handing
// each top-level "<...>" chunk to ParseText in turn, mirroring
// ListItem::ParseContent.
func (l *ListItem) parseContent(content string) error {
	var items []Item
	depth := 0
	start := -1
	for i, c := range content {
		switch c {
		case rangeStartMark:
			if depth == 0 {
				start = i
			}
			depth++
		case rangeEndMark:
			if depth == 0 {
				return xerrors.NewParseError("unbalanced '>' in list content")
			}
			depth--
			if depth == 0 {
				item, err := ParseText(content[start : i+1])
				if err != nil {
					return err
				}
				items = append(items, item)
				start = -1
			}
		}
	}
	if depth != 0 {
		return xerrors.NewParseError("unbalanced '<' in list content")
	}
	l.items = items
	return nil
}

func (l *ListItem) deparseContent(level int) string {
	if len(l.items) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, item := range l.items {
		sb.WriteByte('\n')
		sb.WriteString(indent(level + 1))
		sb.WriteString(DeparseText(item, level+1))
	}
	sb.WriteByte('\n')
	sb.WriteString(indent(level))
	return sb.String()
}
