package message

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Environment keys synthesized for every request.
const (
	EnvRequestURI     = "REQUEST_URI"
	EnvQueryString    = "QUERY_STRING"
	EnvRequestMethod  = "REQUEST_METHOD"
	EnvServerName     = "SERVER_NAME"
	EnvServerProtocol = "SERVER_PROTOCOL"
	EnvHTTPS          = "HTTPS"
	EnvAuthType       = "AUTH_TYPE"
	EnvAuthUser       = "AUTH_USER"
	EnvAuthPassword   = "AUTH_PW"
	EnvContentType    = "HTTP_CONTENT_TYPE"
)

// Environment is the server-side metadata attached to a request.
type Environment map[string]any

// String returns the value stored under key formatted as a string.
func (e Environment) String(key string) string {
	v, ok := e[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (e Environment) Has(key string) bool {
	_, ok := e[key]
	return ok
}

func (e Environment) Clone() Environment {
	out := make(Environment, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Synthesis is the output of Synthesize.
type Synthesis struct {
	Environment Environment
	Cookies     map[string]string
	Headers     Header
}

var basicAuthPattern = regexp.MustCompile(`(?i)^\s?basic\s(.*)`)

// Synthesize builds the environment map, cookie map and canonical header set
// for a request. metadata seeds the environment with the lowest precedence.
func Synthesize(u *url.URL, method, protocolVersion string, headers Header, metadata map[string]any) Synthesis {
	env := make(Environment, len(metadata)+len(headers)+8)
	for k, v := range metadata {
		env[k] = v
	}
	env[EnvRequestURI] = u.String()
	env[EnvQueryString] = u.RawQuery
	env[EnvRequestMethod] = method
	env[EnvServerName] = u.Hostname()
	env[EnvServerProtocol] = protocolVersion
	if strings.EqualFold(u.Scheme, "https") {
		env[EnvHTTPS] = "1"
	}

	result := Synthesis{
		Environment: env,
		Cookies:     make(map[string]string),
		Headers:     Header{"Host": {u.Hostname()}},
	}

	credentials := userInfoCredentials(u)
	authType := ""
	if credentials != "" {
		authType = "Basic"
	}

	// Names are visited in sorted order so that two raw names sharing a
	// canonical form always resolve the same way.
	for _, rawName := range headers.Names() {
		values := headers[rawName]
		name := CanonicalHeaderName(rawName)
		result.Headers[name] = append([]string(nil), values...)

		switch name {
		case "Cookie":
			for _, value := range values {
				parseCookie(result.Cookies, value)
			}
		case "Authorization":
			line := strings.Join(values, ",")
			if m := basicAuthPattern.FindStringSubmatch(line); m != nil {
				credentials = decodeBasicToken(m[1])
				authType = "Basic"
			}
			env[environmentKey(name)] = line
		default:
			env[environmentKey(name)] = strings.Join(values, ",")
		}
	}

	if credentials != "" {
		user, password, hasPassword := strings.Cut(credentials, ":")
		env[EnvAuthType] = authType
		env[EnvAuthUser] = user
		if hasPassword {
			env[EnvAuthPassword] = password
		}
	}

	return result
}

// parseCookie treats value as a single name=value pair. It does not split a
// "a=1; b=2" line into several cookies: that line yields a="1; b".
// The Cookie header itself stays in the header set like any other supplied
// header; only its HTTP_COOKIE environment entry is omitted.
func parseCookie(cookies map[string]string, value string) {
	pieces := strings.Split(value+"=", "=")
	name := strings.TrimSpace(pieces[0])
	data := strings.TrimSpace(pieces[1])
	if data == "" {
		return
	}
	cookies[name] = data
}

func decodeBasicToken(token string) string {
	token = strings.TrimSpace(token)
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(token)
		if err != nil {
			return ""
		}
	}
	return string(decoded)
}

func userInfoCredentials(u *url.URL) string {
	if u.User == nil {
		return ""
	}
	credentials := u.User.Username()
	if password, ok := u.User.Password(); ok {
		credentials += ":" + password
	}
	return credentials
}
