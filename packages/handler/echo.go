package handler

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/abdul-hamid-achik/hitfake/packages/fake"
	"github.com/abdul-hamid-achik/hitfake/packages/message"
)

// EchoFile describes an uploaded file in an echo response.
type EchoFile struct {
	Field  string `json:"field"`
	Name   string `json:"name"`
	Mime   string `json:"mime"`
	Size   int    `json:"size"`
	MD5    string `json:"md5"`
	SHA1   string `json:"sha1"`
	SHA256 string `json:"sha256"`
	Error  int    `json:"error"`
}

// EchoBody is the JSON document returned by Echo.
type EchoBody struct {
	Protocol string              `json:"protocol"`
	Method   string              `json:"method"`
	URI      string              `json:"uri"`
	Headers  map[string]string   `json:"headers"`
	Query    *message.Params     `json:"query"`
	Body     *message.Params     `json:"body"`
	Server   message.Environment `json:"server"`
	Cookies  map[string]string   `json:"cookies"`
	Files    []EchoFile          `json:"files"`
}

// Echo answers with a JSON description of the request it received.
//
// Query parameters steer the response: "return" sets the status (100-599),
// "redirect" sets a Location header and a 3xx status (301 unless "return"
// already is 3xx), and each "cookie" value adds a "Set-Cookie: <value>=ok"
// header.
func Echo() fake.Handler {
	return fake.HandlerFunc(func(r *message.ServerRequest) (*http.Response, error) {
		headers := r.Headers()
		data := EchoBody{
			Protocol: r.ProtocolVersion(),
			Method:   r.Method(),
			URI:      r.URL().String(),
			Headers:  make(map[string]string, len(headers)),
			Query:    r.QueryParams(),
			Body:     r.ParsedBody(),
			Server:   r.Environment(),
			Cookies:  r.Cookies(),
			Files:    echoFiles(r.UploadedFiles()),
		}
		for _, name := range headers.Names() {
			data.Headers[name] = headers.Line(name)
		}

		query := r.QueryParams()
		status := http.StatusOK
		if v, ok := query.Lookup("return"); ok {
			if code, err := strconv.Atoi(asString(v)); err == nil && code >= 100 && code <= 599 {
				status = code
			}
		}
		location := ""
		if v, ok := query.Lookup("redirect"); ok && asString(v) != "" {
			location = asString(v)
			if status < 300 || status > 399 {
				status = http.StatusMovedPermanently
			}
		}

		resp, err := fake.JSON(status, data)
		if err != nil {
			return nil, err
		}
		if location != "" {
			resp.Header.Set("Location", location)
		}
		if cookies := query.Get("cookie"); cookies != nil {
			if cookies.IsContainer() {
				for _, key := range cookies.Keys() {
					resp.Header.Add("Set-Cookie", asString(cookies.Get(key).Value())+"=ok")
				}
			} else {
				resp.Header.Add("Set-Cookie", asString(cookies.Value())+"=ok")
			}
		}
		return resp, nil
	})
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func echoFiles(files *message.Files) []EchoFile {
	result := make([]EchoFile, 0)
	for _, ff := range message.FlattenFiles(files) {
		result = append(result, describeFile(ff.Field, ff.File))
	}
	return result
}

func describeFile(field string, f *message.UploadedFile) EchoFile {
	content := f.Bytes()
	md5sum := md5.Sum(content)
	sha1sum := sha1.Sum(content)
	sha256sum := sha256.Sum256(content)
	return EchoFile{
		Field:  field,
		Name:   f.ClientFilename(),
		Mime:   f.ClientMediaType(),
		Size:   f.Size(),
		MD5:    hex.EncodeToString(md5sum[:]),
		SHA1:   hex.EncodeToString(sha1sum[:]),
		SHA256: hex.EncodeToString(sha256sum[:]),
		Error:  int(f.ErrorCode()),
	}
}
