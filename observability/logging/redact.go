package logging

import (
	"log/slog"
	"sort"
	"strings"
)

// RedactedValue replaces the value of any attribute that is not known to be
// safe to log.
const RedactedValue = "[REDACTED]"

// loggedKeys are the marketplace attribute keys written in clear text. Ids,
// addresses and amounts are public ledger data; free-form fields such as
// credit metadata and key material are masked.
var loggedKeys = map[string]struct{}{
	"service":     {},
	"env":         {},
	"network":     {},
	"command":     {},
	"type":        {},
	"error":       {},
	"path":        {},
	"events":      {},
	"marketplace": {},
	"credit":      {},
	"listing":     {},
	"bid":         {},
	"owner":       {},
	"bidder":      {},
	"payee":       {},
	"account":     {},
	"address":     {},
	"from":        {},
	"to":          {},
	"amount":      {},
	"escrow":      {},
	"quantity":    {},
	"basePrice":   {},
	"active":      {},
	"claimed":     {},
	"createdAt":   {},
}

// MaskField returns a slog.Attr that redacts the supplied value unless the key
// is one of the marketplace's public attributes. Empty values pass through.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" {
		return slog.String(key, value)
	}
	if _, ok := loggedKeys[strings.TrimSpace(key)]; ok {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

// EventAttrs flattens event attributes into masked slog arguments in key
// order.
func EventAttrs(attrs map[string]string) []any {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, MaskField(k, attrs[k]))
	}
	return out
}
