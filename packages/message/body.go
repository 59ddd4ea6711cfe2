package message

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	MediaTypeForm      = "application/x-www-form-urlencoded"
	MediaTypeJSON      = "application/json"
	MediaTypeMultipart = "multipart/form-data"
	MediaTypeText      = "text/plain"
)

// DecodedBody is the best-effort result of decoding a request body.
type DecodedBody struct {
	Params *Params
	Files  *Files
	// Headers replaces entries of the request header set.
	Headers Header
	// Body is the body the request carries from now on.
	Body []byte
	// Rewritten reports that Headers and Body differ from the input.
	Rewritten bool
}

type bodyDecoder func(raw []byte) *Params

// bodyDecoders maps a normalized media type to its decoder. Multipart bodies
// are handled separately because they need the boundary parameter.
var bodyDecoders = map[string]bodyDecoder{
	MediaTypeForm: decodeFormBody,
	MediaTypeJSON: decodeJSONBody,
}

// DecodeBody decodes raw according to contentType. Malformed or unsupported
// content yields empty trees, never an error.
func DecodeBody(contentType string, raw []byte) DecodedBody {
	result := DecodedBody{
		Params:  NewParams(),
		Files:   NewFiles(),
		Headers: Header{},
		Body:    raw,
	}

	mediaType, params := ParseMediaType(contentType)
	if boundary := params["boundary"]; mediaType == MediaTypeMultipart && boundary != "" {
		result.Params, result.Files = ParseMultipart(boundary, raw)
		result.Headers.Set("Content-Type", MediaTypeForm)
		result.Body = []byte(EncodeForm(result.Params))
		result.Rewritten = true
		return result
	}

	if decode := lookupBodyDecoder(mediaType); decode != nil {
		result.Params = decode(raw)
	}
	return result
}

// lookupBodyDecoder finds the decoder for mediaType, retrying once with a
// structured syntax suffix ("application/vnd.api+json" -> "application/json").
func lookupBodyDecoder(mediaType string) bodyDecoder {
	if decode, ok := bodyDecoders[mediaType]; ok {
		return decode
	}
	if i := strings.LastIndex(mediaType, "+"); i >= 0 && i < len(mediaType)-1 {
		return bodyDecoders["application/"+mediaType[i+1:]]
	}
	return nil
}

// ParseMediaType splits a Content-Type value into its lower-cased media type
// and its parameters. Parameter names are lower-cased, values keep their case
// and lose surrounding quotes.
func ParseMediaType(contentType string) (string, map[string]string) {
	tokens := strings.Split(contentType, ";")
	mediaType := strings.ToLower(strings.TrimSpace(tokens[0]))
	params := make(map[string]string)
	for _, token := range tokens[1:] {
		key, value, found := strings.Cut(strings.TrimSpace(token), "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if !found || key == "" {
			continue
		}
		params[key] = unquote(strings.TrimSpace(value))
	}
	return mediaType, params
}

func decodeFormBody(raw []byte) *Params {
	return ParseForm(string(raw))
}

// decodeJSONBody accepts only a top-level object or array.
func decodeJSONBody(raw []byte) *Params {
	if !gjson.ValidBytes(raw) {
		return NewParams()
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() && !doc.IsArray() {
		return NewParams()
	}
	return jsonNode(doc)
}

func jsonNode(r gjson.Result) *Params {
	switch {
	case r.IsObject():
		node := NewMap[any]()
		r.ForEach(func(key, value gjson.Result) bool {
			node.Set(key.String(), jsonNode(value))
			return true
		})
		return node
	case r.IsArray():
		node := NewList[any]()
		r.ForEach(func(_, value gjson.Result) bool {
			node.Append(jsonNode(value))
			return true
		})
		return node
	}
	return NewLeaf(jsonScalar(r))
}

func jsonScalar(r gjson.Result) any {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		if i, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
			return i
		}
		return r.Float()
	default:
		return r.String()
	}
}
