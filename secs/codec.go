package secs

// Codec bundles the four free framing functions behind one value, so
// callers that want to inject a SECS encoder/decoder as a dependency
// (rather than import the package functions directly) have something
// to hold a reference to. The zero value is ready to use; all four
// operations are stateless.
type Codec struct{}

// Serialize frames item as SECS-II wire bytes.
func (Codec) Serialize(item Item) ([]byte, error) { return Serialize(item) }

// Deserialize reads one framed item from the front of data.
func (Codec) Deserialize(data []byte) (Item, []byte, error) { return Deserialize(data) }

// ParseText parses a "<TypeName values…>" textual item.
func (Codec) ParseText(raw string) (Item, error) { return ParseText(raw) }

// DeparseText renders item as its textual form at the given
// indentation level.
func (Codec) DeparseText(item Item, level int) string { return DeparseText(item, level) }
