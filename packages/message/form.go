package message

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseForm decodes an application/x-www-form-urlencoded string (or a raw
// query string) into a parameter tree. Keys use bracket notation for nesting;
// a repeated plain key overwrites the earlier value.
func ParseForm(raw string) *Params {
	params := NewParams()
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		key = unescapeForm(key)
		if key == "" {
			continue
		}
		params.Insert(key, unescapeForm(value))
	}
	return params
}

func unescapeForm(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// EncodeForm serializes a parameter tree as a form body, writing nested
// entries in bracket notation ("a%5Bb%5D=1"). Nil leaves are skipped.
func EncodeForm(params *Params) string {
	var b strings.Builder
	encodeForm(&b, params, "")
	return b.String()
}

func encodeForm(b *strings.Builder, n *Params, prefix string) {
	if n == nil {
		return
	}
	if n.Kind() == KindLeaf {
		value, ok := formatFormValue(n.Value())
		if !ok || prefix == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(prefix))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
		return
	}
	for _, key := range n.Keys() {
		name := key
		if prefix != "" {
			name = prefix + "[" + key + "]"
		}
		encodeForm(b, n.Get(key), name)
	}
}

func formatFormValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case bool:
		if val {
			return "1", true
		}
		return "0", true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return fmt.Sprint(val), true
	}
}
