package rule

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/hitfake/packages/message"
)

// Lookup returns the value a rule field selects in r. For query fields the
// first value wins. ok is false when the request has no value for the field.
func Lookup(r *message.ServerRequest, field string) (value string, ok bool, err error) {
	switch field {
	case "method":
		return r.Method(), true, nil
	case "protocolVersion":
		return r.ProtocolVersion(), true, nil
	case "uri":
		return r.URL().String(), true, nil
	case "body":
		return string(r.Body()), true, nil
	}

	switch {
	case strings.HasPrefix(field, "uri.") && field != "uri.":
		part := strings.ToLower(strings.TrimPrefix(field, "uri."))
		if _, err := URI(Equal, nil, part); err != nil {
			return "", false, err
		}
		return uriPart(r.URL(), part), true, nil
	case strings.HasPrefix(field, QueryPrefix):
		values := rawQueryValues(r.URL().RawQuery, strings.TrimPrefix(field, QueryPrefix))
		if len(values) == 0 {
			return "", false, nil
		}
		return values[0], true, nil
	case strings.HasPrefix(field, HeaderPrefix) && field != HeaderPrefix:
		name := strings.TrimPrefix(field, HeaderPrefix)
		if !r.HasHeader(name) {
			return "", false, nil
		}
		return r.HeaderLine(name), true, nil
	case strings.HasPrefix(field, JSONPrefix) && field != JSONPrefix:
		result := gjson.GetBytes(r.Body(), strings.TrimPrefix(field, JSONPrefix))
		if !result.Exists() {
			return "", false, nil
		}
		if result.Type == gjson.String {
			return result.String(), true, nil
		}
		return result.Raw, true, nil
	}

	return "", false, fmt.Errorf("%w %q: must be one of %s", ErrUnknownField, field, strings.Join(allowedFields, ", "))
}
