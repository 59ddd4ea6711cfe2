package builtin

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownFunction is returned by Call for unregistered names.
var ErrUnknownFunction = errors.New("unknown function")

// Func computes a value from the call arguments.
type Func func(args []string) (string, error)

type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

var defaultRegistry = NewRegistry()

// Default returns the registry shared by response templates.
func Default() *Registry {
	return defaultRegistry
}

func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["now"] = funcNow
	r.funcs["date"] = funcDate
	r.funcs["timestamp"] = funcTimestamp
	r.funcs["timestampMs"] = funcTimestampMs
	r.funcs["uuid"] = funcUUID
	r.funcs["random"] = funcRandom
	r.funcs["randomString"] = funcRandomString
	r.funcs["randomEmail"] = funcRandomEmail
	r.funcs["base64"] = funcBase64
	r.funcs["base64Decode"] = funcBase64Decode
	r.funcs["md5"] = funcMD5
	r.funcs["sha256"] = funcSHA256
	r.funcs["urlEncode"] = funcURLEncode
	r.funcs["urlDecode"] = funcURLDecode
}

// Register adds or replaces a function.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Names returns the registered function names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var funcCallPattern = regexp.MustCompile(`^(\w+)(?:\((.*)\))?$`)

// Call evaluates an expression such as `random(1, 6)` or `uuid`.
func (r *Registry) Call(expr string) (string, error) {
	matches := funcCallPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if matches == nil {
		return "", fmt.Errorf("invalid function call %q", expr)
	}

	r.mu.RLock()
	fn, ok := r.funcs[matches[1]]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownFunction, matches[1])
	}

	var args []string
	if matches[2] != "" {
		args = parseArgs(matches[2])
	}
	v, err := fn(args)
	if err != nil {
		return "", fmt.Errorf("%s(): %w", matches[1], err)
	}
	return v, nil
}

// parseArgs splits on commas outside single or double quotes and strips the
// quotes.
func parseArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case !inQuote && (ch == '"' || ch == '\''):
			inQuote = true
			quoteChar = ch
		case inQuote && ch == quoteChar:
			inQuote = false
			quoteChar = 0
		case !inQuote && ch == ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	if current.Len() > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}
	return args
}

func intArg(args []string, i, def int) (int, error) {
	if len(args) <= i || args[i] == "" {
		return def, nil
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("argument %d: %q is not an integer", i+1, args[i])
	}
	return v, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func funcNow(_ []string) (string, error) {
	return time.Now().UTC().Format(time.RFC3339), nil
}

func funcDate(args []string) (string, error) {
	layout := "2006-01-02"
	if len(args) >= 1 {
		layout = args[0]
	}
	return time.Now().UTC().Format(layout), nil
}

func funcTimestamp(_ []string) (string, error) {
	return strconv.FormatInt(time.Now().Unix(), 10), nil
}

func funcTimestampMs(_ []string) (string, error) {
	return strconv.FormatInt(time.Now().UnixMilli(), 10), nil
}

func funcUUID(_ []string) (string, error) {
	return uuid.NewString(), nil
}

func funcRandom(args []string) (string, error) {
	lo, err := intArg(args, 0, 0)
	if err != nil {
		return "", err
	}
	hi, err := intArg(args, 1, 100)
	if err != nil {
		return "", err
	}
	if hi < lo {
		return "", fmt.Errorf("max %d is below min %d", hi, lo)
	}
	return strconv.Itoa(rand.Intn(hi-lo+1) + lo), nil
}

func funcRandomString(args []string) (string, error) {
	length, err := intArg(args, 0, 16)
	if err != nil {
		return "", err
	}
	if length < 0 {
		return "", fmt.Errorf("negative length %d", length)
	}
	return randomString(length, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"), nil
}

func funcRandomEmail(_ []string) (string, error) {
	user := randomString(8, "abcdefghijklmnopqrstuvwxyz")
	domain := randomString(6, "abcdefghijklmnopqrstuvwxyz")
	return user + "@" + domain + ".com", nil
}

func funcBase64(args []string) (string, error) {
	return base64.StdEncoding.EncodeToString([]byte(firstArg(args))), nil
}

func funcBase64Decode(args []string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(firstArg(args))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func funcMD5(args []string) (string, error) {
	hash := md5.Sum([]byte(firstArg(args)))
	return hex.EncodeToString(hash[:]), nil
}

func funcSHA256(args []string) (string, error) {
	hash := sha256.Sum256([]byte(firstArg(args)))
	return hex.EncodeToString(hash[:]), nil
}

func funcURLEncode(args []string) (string, error) {
	return url.QueryEscape(firstArg(args)), nil
}

func funcURLDecode(args []string) (string, error) {
	return url.QueryUnescape(firstArg(args))
}

func randomString(length int, charset string) string {
	result := make([]byte, length)
	for i := range result {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
