// Package payload maps the provider's drifting webhook payload shapes into a
// canonical inbound message. Z-API has shipped several incompatible schemas
// over time and Meta-cloud style envelopes also show up, so extraction runs
// over ordered rule tables instead of a fixed struct.
package payload

import "strings"

// Message is a normalized actionable inbound user message.
type Message struct {
	SessionID string
	Text      string
}

// extractor pulls one candidate value out of a decoded payload. Empty string
// means the shape did not match.
type extractor func(map[string]any) string

// textExtractors in priority order: first non-empty result wins.
var textExtractors = []extractor{
	func(p map[string]any) string { return nestedString(p, "texto", "mensagem") },
	func(p map[string]any) string { return nestedString(p, "text", "message") },
	func(p map[string]any) string { return stringField(p, "message") },
	func(p map[string]any) string { return nestedString(p, "text", "body") },
}

// senderExtractors in priority order. Both "phone" and "telefone" spellings
// appear in the wild.
var senderExtractors = []extractor{
	func(p map[string]any) string { return stringField(p, "phone") },
	func(p map[string]any) string { return stringField(p, "telefone") },
	func(p map[string]any) string { return stringField(p, "from") },
	func(p map[string]any) string { return stringField(p, "author") },
	func(p map[string]any) string { return nestedString(p, "sender", "id") },
}

// Normalize extracts the sender identity and message text from raw. The
// second return value is false when the payload is not an actionable user
// message: no text, no identity, or an echo of a message this system sent.
func Normalize(raw map[string]any) (Message, bool) {
	if raw == nil {
		return Message{}, false
	}
	raw = unwrapEnvelope(raw)

	text := firstMatch(raw, textExtractors)
	sender := sessionID(firstMatch(raw, senderExtractors))

	if text == "" || sender == "" || isEcho(raw["fromMe"]) {
		return Message{}, false
	}

	return Message{SessionID: sender, Text: text}, true
}

// unwrapEnvelope descends Meta-cloud style payloads
// {"entry":[{"changes":[{"value":{"messages":[{...}]}}]}]} to the first inner
// message, which then matches the flat extractor rules. Anything that does not
// look like that envelope is returned unchanged.
func unwrapEnvelope(p map[string]any) map[string]any {
	entries, ok := p["entry"].([]any)
	if !ok || len(entries) == 0 {
		return p
	}
	entry, ok := entries[0].(map[string]any)
	if !ok {
		return p
	}
	changes, ok := entry["changes"].([]any)
	if !ok || len(changes) == 0 {
		return p
	}
	change, ok := changes[0].(map[string]any)
	if !ok {
		return p
	}
	value, ok := change["value"].(map[string]any)
	if !ok {
		return p
	}
	messages, ok := value["messages"].([]any)
	if !ok || len(messages) == 0 {
		return p
	}
	msg, ok := messages[0].(map[string]any)
	if !ok {
		return p
	}
	return msg
}

func firstMatch(p map[string]any, rules []extractor) string {
	for _, rule := range rules {
		if v := rule(p); v != "" {
			return v
		}
	}
	return ""
}

// sessionID strips the device/resource suffix from a sender identity,
// e.g. "55179999@s.whatsapp.net" -> "55179999".
func sessionID(sender string) string {
	if i := strings.Index(sender, "@"); i >= 0 {
		return sender[:i]
	}
	return sender
}

// isEcho coerces the provider's fromMe flag. Booleans are taken as-is;
// "true", "1", "sim" and "yes" strings count as true. Anything else,
// including absence, is false.
func isEcho(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "sim", "yes":
			return true
		}
	}
	return false
}

func stringField(p map[string]any, key string) string {
	s, _ := p[key].(string)
	return strings.TrimSpace(s)
}

// nestedString walks intermediate objects down to a string leaf. A missing or
// wrong-typed link anywhere on the path reads as absent, never as an error.
func nestedString(p map[string]any, keys ...string) string {
	current := p
	for i, key := range keys {
		if i == len(keys)-1 {
			s, _ := current[key].(string)
			return strings.TrimSpace(s)
		}
		next, ok := current[key].(map[string]any)
		if !ok {
			return ""
		}
		current = next
	}
	return ""
}
