package wheel

import (
	"strings"
)

// Header is one "Name: value" field of a metadata block.
type Header struct {
	Name  string
	Value string
}

// Message is an RFC-822 style header block as found in METADATA and WHEEL.
// Field order and repeated fields are preserved; lookups are
// case-insensitive.
type Message struct {
	Headers []Header
	Body    string
}

// ParseMessage parses header lines up to the first blank line. Lines that
// start with whitespace continue the previous field. A line that is not a
// header ends the header block and starts the body. Lines have no length
// limit, so the block is never cut short.
func ParseMessage(data []byte) *Message {
	msg := &Message{}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return msg
	}

	var body []string
	inBody := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if inBody {
			body = append(body, line)
			continue
		}

		if line == "" {
			inBody = true
			continue
		}

		if (line[0] == ' ' || line[0] == '\t') && len(msg.Headers) > 0 {
			last := &msg.Headers[len(msg.Headers)-1]
			last.Value += "\n" + line
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" || strings.ContainsAny(name, " \t") {
			inBody = true
			body = append(body, line)
			continue
		}
		msg.Headers = append(msg.Headers, Header{
			Name:  name,
			Value: strings.TrimSpace(value),
		})
	}

	msg.Body = strings.Join(body, "\n")
	return msg
}

// Get returns the first value for name, or "" when absent.
func (m *Message) Get(name string) string {
	v, _ := m.Lookup(name)
	return v
}

// Lookup returns the first value for name and whether it was present.
func (m *Message) Lookup(name string) (string, bool) {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// GetAll returns every value for name in document order.
func (m *Message) GetAll(name string) []string {
	var values []string
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			values = append(values, h.Value)
		}
	}
	return values
}

// Bool interprets the named field as a boolean flag. Only a
// case-insensitive "true" counts as set.
func (m *Message) Bool(name string) bool {
	return strings.EqualFold(strings.TrimSpace(m.Get(name)), "true")
}
