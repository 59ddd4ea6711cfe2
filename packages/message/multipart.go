package message

import (
	"bytes"
	"strings"
)

// partHeader is one header line of a multipart part: the bare value and the
// "; key=value" parameters that follow it.
type partHeader struct {
	value  string
	params map[string]string
}

// ParseMultipart splits a multipart/form-data body on boundary and returns the
// scalar fields and uploaded files it contains. Parts without a header block,
// a body block or a content-disposition name are skipped.
func ParseMultipart(boundary string, raw []byte) (*Params, *Files) {
	params := NewParams()
	files := NewFiles()

	delimiter := "\r\n--" + boundary
	content := append([]byte("\r\n"), raw...)
	if end := bytes.Index(content, []byte(delimiter+"--")); end >= 0 {
		content = content[:end]
	}

	parts := bytes.Split(content, []byte(delimiter+"\r\n"))
	for _, part := range parts[1:] {
		field, value, file, ok := parsePart(part)
		if !ok {
			continue
		}
		if file != nil {
			files.Insert(field, file)
		} else {
			params.Insert(field, value)
		}
	}
	return params, files
}

func parsePart(part []byte) (field, value string, file *UploadedFile, ok bool) {
	head, body, found := bytes.Cut(part, []byte("\r\n\r\n"))
	headBlock := strings.TrimSpace(string(head))
	if !found || headBlock == "" {
		return "", "", nil, false
	}
	headers := parsePartHeaders(headBlock)

	disposition, exists := headers["content-disposition"]
	if !exists {
		return "", "", nil, false
	}
	field, exists = disposition.params["name"]
	if !exists {
		return "", "", nil, false
	}

	content := strings.TrimSpace(string(body))
	filename, isFile := disposition.params["filename"]
	if !isFile {
		return field, content, nil, true
	}

	mediaType := DefaultMediaType
	if ct, exists := headers["content-type"]; exists {
		mediaType = ct.value
	}
	code := UploadOK
	if content == "" && filename == "" {
		code = UploadErrNoFile
	}
	return field, "", NewUploadedFile(filename, []byte(content), mediaType, code), true
}

func parsePartHeaders(block string) map[string]partHeader {
	headers := make(map[string]partHeader)
	for _, line := range strings.Split(block, "\r\n") {
		name, rest, found := strings.Cut(line, ":")
		name = strings.ToLower(strings.TrimSpace(name))
		if !found || name == "" {
			continue
		}

		tokens := strings.Split(rest, ";")
		header := partHeader{
			value:  strings.TrimSpace(tokens[0]),
			params: make(map[string]string),
		}
		for _, token := range tokens[1:] {
			key, val, _ := strings.Cut(strings.TrimSpace(token), "=")
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			header.params[key] = unquote(strings.TrimSpace(val))
		}
		headers[name] = header
	}
	return headers
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
