package rule

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/abdul-hamid-achik/hitfake/packages/message"
)

// Condition decides whether a request matches.
type Condition interface {
	Check(r *message.ServerRequest) bool
}

// ConditionFunc adapts a function to Condition.
type ConditionFunc func(r *message.ServerRequest) bool

func (f ConditionFunc) Check(r *message.ServerRequest) bool {
	return f(r)
}

// Static always returns v.
func Static(v bool) Condition {
	return ConditionFunc(func(*message.ServerRequest) bool { return v })
}

// And matches when every condition matches. It matches when empty.
func And(conditions ...Condition) Condition {
	return ConditionFunc(func(r *message.ServerRequest) bool {
		for _, c := range conditions {
			if !c.Check(r) {
				return false
			}
		}
		return true
	})
}

// Or matches when any condition matches. It matches when empty.
func Or(conditions ...Condition) Condition {
	return ConditionFunc(func(r *message.ServerRequest) bool {
		if len(conditions) == 0 {
			return true
		}
		for _, c := range conditions {
			if c.Check(r) {
				return true
			}
		}
		return false
	})
}

func Not(c Condition) Condition {
	return ConditionFunc(func(r *message.ServerRequest) bool {
		return !c.Check(r)
	})
}

// Method compares the request method.
func Method(cmp Comparer, pattern *string) Condition {
	return ConditionFunc(func(r *message.ServerRequest) bool {
		method := r.Method()
		return cmp.Compare(pattern, &method)
	})
}

// ProtocolVersion compares the protocol version, e.g. "1.1".
func ProtocolVersion(cmp Comparer, pattern *string) Condition {
	return ConditionFunc(func(r *message.ServerRequest) bool {
		version := r.ProtocolVersion()
		return cmp.Compare(pattern, &version)
	})
}

// URI parts accepted by URI.
const (
	URIWhole     = ""
	URIScheme    = "scheme"
	URIUserInfo  = "userinfo"
	URIAuthority = "authority"
	URIHost      = "host"
	URIPort      = "port"
	URIPath      = "path"
	URIQuery     = "query"
	URIFragment  = "fragment"
)

// URI compares the whole request URI or one of its parts. The part name is
// case-insensitive.
func URI(cmp Comparer, pattern *string, part string) (Condition, error) {
	part = strings.ToLower(strings.TrimSpace(part))
	switch part {
	case URIWhole, URIScheme, URIUserInfo, URIAuthority, URIHost, URIPort, URIPath, URIQuery, URIFragment:
	default:
		return nil, fmt.Errorf("%w: uri has no %q part", ErrUnknownField, part)
	}
	return ConditionFunc(func(r *message.ServerRequest) bool {
		value := uriPart(r.URL(), part)
		return cmp.Compare(pattern, &value)
	}), nil
}

func uriPart(u *url.URL, part string) string {
	switch part {
	case URIScheme:
		return u.Scheme
	case URIUserInfo:
		if u.User == nil {
			return ""
		}
		return u.User.String()
	case URIAuthority:
		return authority(u)
	case URIHost:
		return strings.ToLower(u.Hostname())
	case URIPort:
		return port(u)
	case URIPath:
		return u.Path
	case URIQuery:
		return u.RawQuery
	case URIFragment:
		return u.Fragment
	}
	return u.String()
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// port falls back to the scheme's default port.
func port(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	return defaultPorts[strings.ToLower(u.Scheme)]
}

// authority returns [userinfo@]host[:port], leaving out a default port.
func authority(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if p := u.Port(); p != "" && p != defaultPorts[strings.ToLower(u.Scheme)] {
		host += ":" + p
	}
	if u.User != nil {
		host = u.User.String() + "@" + host
	}
	return host
}

// Query compares the values of the raw query parameter name. Names and values
// are url-decoded; nested names are matched literally ("lang[]"). The
// condition matches when any value matches, otherwise the comparer is asked
// about a missing value.
func Query(cmp Comparer, pattern *string, name string) Condition {
	return ConditionFunc(func(r *message.ServerRequest) bool {
		for _, value := range rawQueryValues(r.URL().RawQuery, name) {
			if cmp.Compare(pattern, &value) {
				return true
			}
		}
		return cmp.Compare(pattern, nil)
	})
}

func rawQueryValues(query, name string) []string {
	var values []string
	for _, line := range strings.Split(query, "&") {
		pieces := strings.Split(line+"=", "=")
		if urlDecode(pieces[0]) == name {
			values = append(values, urlDecode(pieces[1]))
		}
	}
	return values
}

func urlDecode(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// Header compares the comma-joined header line. An absent header is a
// missing value.
func Header(cmp Comparer, pattern *string, name string) Condition {
	return ConditionFunc(func(r *message.ServerRequest) bool {
		if !r.HasHeader(name) {
			return cmp.Compare(pattern, nil)
		}
		line := r.HeaderLine(name)
		return cmp.Compare(pattern, &line)
	})
}

// Body compares the request body as a string.
func Body(cmp Comparer, pattern *string) Condition {
	return ConditionFunc(func(r *message.ServerRequest) bool {
		body := string(r.Body())
		return cmp.Compare(pattern, &body)
	})
}

// JSONPath compares the value found at a gjson path in the body. Strings are
// compared unquoted, other values by their JSON text. A path that does not
// exist is a missing value.
func JSONPath(cmp Comparer, pattern *string, path string) Condition {
	return ConditionFunc(func(r *message.ServerRequest) bool {
		result := gjson.GetBytes(r.Body(), path)
		if !result.Exists() {
			return cmp.Compare(pattern, nil)
		}
		value := result.String()
		if result.Type != gjson.String {
			value = result.Raw
		}
		return cmp.Compare(pattern, &value)
	})
}

// Schema matches requests whose body is a JSON document valid against the
// given JSON schema.
func Schema(schema []byte) (Condition, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to load JSON schema: %w", err)
	}
	return ConditionFunc(func(r *message.ServerRequest) bool {
		body := r.Body()
		if !gjson.ValidBytes(body) {
			return false
		}
		result, err := compiled.Validate(gojsonschema.NewBytesLoader(body))
		if err != nil {
			return false
		}
		return result.Valid()
	}), nil
}
