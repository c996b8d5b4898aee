package wire

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
)

// Encoded messages are newline-terminated KEY:VALUE lines followed by a blank
// line. Values are escaped so multi-line content and base64 payloads survive
// the line-oriented framing.
const (
	// SoftLimit is the payload size above which encoding logs a warning.
	SoftLimit = 20 * 1024
	// HardLimit is the maximum UDP payload (65535 minus IP and UDP
	// headers); larger payloads are rejected before transmission.
	HardLimit = 65507
)

var (
	// ErrMalformed reports a payload that cannot be decoded: missing TYPE
	// key or a missing blank-line terminator.
	ErrMalformed = errors.New("malformed message")
	// ErrPayloadTooLarge reports an encoded message above HardLimit.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Encode serializes a message. TYPE is written first, remaining keys in
// lexical order so output is deterministic.
func Encode(m Message) ([]byte, error) {
	if m[KeyType] == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformed, KeyType)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		if k != KeyType {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	writeField(&b, KeyType, m[KeyType])
	for _, k := range keys {
		writeField(&b, k, m[k])
	}
	b.WriteByte('\n')

	data := []byte(b.String())
	if len(data) > HardLimit {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(data))
	}
	if len(data) > SoftLimit {
		log.Printf("wire: %s payload is %d bytes, above the %d soft cap", m[KeyType], len(data), SoftLimit)
	}
	return data, nil
}

// Decode parses an encoded payload back into a field map. Lines without a
// colon are skipped so the format can grow without breaking old peers.
func Decode(data []byte) (Message, error) {
	text := string(data)
	if !strings.HasSuffix(text, "\n\n") {
		return nil, fmt.Errorf("%w: missing terminator", ErrMalformed)
	}
	body := strings.TrimSuffix(text, "\n\n")
	msg := make(Message)
	for _, line := range strings.Split(body, "\n") {
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		msg[key] = unescapeValue(value)
	}
	if msg[KeyType] == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformed, KeyType)
	}
	return msg, nil
}

func writeField(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteByte(':')
	b.WriteString(escapeValue(value))
	b.WriteByte('\n')
}

func escapeValue(v string) string {
	if !strings.ContainsAny(v, "\\\n") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, "\n", `\n`)
}

func unescapeValue(v string) string {
	if !strings.Contains(v, `\`) {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		if v[i] != '\\' || i == len(v)-1 {
			b.WriteByte(v[i])
			continue
		}
		i++
		switch v[i] {
		case 'n':
			b.WriteByte('\n')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(v[i])
		}
	}
	return b.String()
}
