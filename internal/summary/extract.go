package summary

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Lookup resolves a dotted path in doc one segment at a time. The boolean is
// false when the document is not valid JSON, any segment is missing, or the
// value at the end of the path is null.
func Lookup(doc []byte, path string) (gjson.Result, bool) {
	if len(doc) == 0 || path == "" || !gjson.ValidBytes(doc) {
		return gjson.Result{}, false
	}

	result := gjson.ParseBytes(doc)
	for _, segment := range strings.Split(path, ".") {
		if segment == "" || !(result.IsObject() || result.IsArray()) {
			return gjson.Result{}, false
		}
		result = result.Get(escapeSegment(segment))
		if !result.Exists() || result.Type == gjson.Null {
			return gjson.Result{}, false
		}
	}

	return result, true
}

// Extract returns the number at path, or def if the path cannot be resolved to
// a number. It never fails: any input, including nil and malformed JSON,
// yields either a value from the document or def.
func Extract(doc []byte, path string, def float64) (value float64) {
	defer func() {
		if recover() != nil {
			value = def
		}
	}()

	result, ok := Lookup(doc, path)
	if !ok {
		return def
	}

	switch result.Type {
	case gjson.Number:
		return result.Num
	case gjson.True:
		return 1
	case gjson.False:
		return 0
	case gjson.String:
		if v, err := strconv.ParseFloat(strings.TrimSpace(result.Str), 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v
		}
	}

	return def
}

// escapeSegment makes a single path segment literal for gjson, so names such as
// "p(95)" or "a*b" are not read as wildcards or modifiers.
func escapeSegment(segment string) string {
	var sb strings.Builder
	for _, r := range segment {
		if !(r == '_' || r == '-' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
