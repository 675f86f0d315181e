// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil

import "strings"

// Redacted replaces the value of sensitive attributes.
const Redacted = "[REDACTED]"

var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"password_hash": {},
	"token":         {},
	"secret":        {},
	"secret_key":    {},
	"authorization": {},
	"cookie":        {},
	"set_cookie":    {},
}

// IsSensitiveKey reports whether key names a value that must never be
// logged. Matching ignores case and treats '-' as '_'.
func IsSensitiveKey(key string) bool {
	key = strings.ReplaceAll(strings.ToLower(key), "-", "_")
	_, ok := sensitiveKeys[key]
	return ok
}

// RedactContext returns a copy of ctx with sensitive values replaced.
func RedactContext(ctx map[string]any) map[string]any {
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		if IsSensitiveKey(k) {
			out[k] = Redacted
			continue
		}
		out[k] = v
	}
	return out
}
