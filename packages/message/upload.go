package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// UploadError is the status code attached to an uploaded file.
type UploadError int

const (
	// UploadOK means the part carried a file.
	UploadOK UploadError = 0
	// UploadErrNoFile means both the filename and the content were empty.
	UploadErrNoFile UploadError = 4
)

func (e UploadError) String() string {
	switch e {
	case UploadOK:
		return "ok"
	case UploadErrNoFile:
		return "no file"
	default:
		return fmt.Sprintf("upload error %d", int(e))
	}
}

// DefaultMediaType is used for uploads that do not declare a content type.
const DefaultMediaType = "application/octet-stream"

var (
	ErrAlreadyMoved = errors.New("uploaded file has already been moved")
	ErrNotWritable  = errors.New("upload target path is not writable")
)

// UploadedFile is a file extracted from a multipart/form-data body.
type UploadedFile struct {
	filename  string
	mediaType string
	content   []byte
	code      UploadError

	mu    sync.Mutex
	moved bool
}

// NewUploadedFile creates an in-memory upload. An empty media type falls back
// to DefaultMediaType.
func NewUploadedFile(filename string, content []byte, mediaType string, code UploadError) *UploadedFile {
	if mediaType == "" {
		mediaType = DefaultMediaType
	}
	return &UploadedFile{
		filename:  filename,
		mediaType: mediaType,
		content:   append([]byte(nil), content...),
		code:      code,
	}
}

func (f *UploadedFile) ClientFilename() string {
	return f.filename
}

func (f *UploadedFile) ClientMediaType() string {
	return f.mediaType
}

// ErrorCode reports UploadOK or UploadErrNoFile.
func (f *UploadedFile) ErrorCode() UploadError {
	return f.code
}

func (f *UploadedFile) Size() int {
	return len(f.content)
}

// Bytes returns a copy of the file content.
func (f *UploadedFile) Bytes() []byte {
	return append([]byte(nil), f.content...)
}

// Moved reports whether MoveTo already succeeded.
func (f *UploadedFile) Moved() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.moved
}

// Reader returns a reader over the content. It fails once the file was moved.
func (f *UploadedFile) Reader() (io.Reader, error) {
	if f.Moved() {
		return nil, fmt.Errorf("uploaded file %s: %w", f.filename, ErrAlreadyMoved)
	}
	return bytes.NewReader(f.content), nil
}

// MoveTo writes the content to targetPath. It can succeed only once.
func (f *UploadedFile) MoveTo(targetPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.moved {
		return fmt.Errorf("uploaded file %s: %w", f.filename, ErrAlreadyMoved)
	}

	target, err := os.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotWritable, targetPath, err)
	}
	if _, err := target.Write(f.content); err != nil {
		_ = target.Close()
		return fmt.Errorf("failed to write upload to %s: %w", targetPath, err)
	}
	if err := target.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", targetPath, err)
	}

	f.moved = true
	return nil
}

// copy returns an independent file carrying the same content and moved state.
func (f *UploadedFile) copy() *UploadedFile {
	if f == nil {
		return nil
	}
	return &UploadedFile{
		filename:  f.filename,
		mediaType: f.mediaType,
		content:   f.content,
		code:      f.code,
		moved:     f.Moved(),
	}
}

// cloneFiles copies files together with every file in it.
func cloneFiles(files *Files) *Files {
	return files.cloneWith((*UploadedFile).copy)
}

// MarshalJSON describes the file without its content.
func (f *UploadedFile) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Filename  string `json:"filename"`
		MediaType string `json:"mediaType"`
		Size      int    `json:"size"`
		Error     string `json:"error"`
	}{
		Filename:  f.filename,
		MediaType: f.mediaType,
		Size:      len(f.content),
		Error:     f.code.String(),
	})
}

// FileField pairs an uploaded file with its field name in bracket notation.
type FileField struct {
	Field string
	File  *UploadedFile
}

// FlattenFiles lists the files of a tree in insertion order. List entries are
// named "field[]" and map entries "field[key]".
func FlattenFiles(files *Files) []FileField {
	return flattenFiles(files, "")
}

func flattenFiles(files *Files, field string) []FileField {
	var result []FileField
	for _, key := range files.Keys() {
		child := files.Get(key)
		name := key
		if field != "" {
			sub := key
			if files.Kind() == KindList {
				sub = ""
			}
			name = field + "[" + sub + "]"
		}
		if child.Kind() == KindLeaf {
			if f := child.Value(); f != nil {
				result = append(result, FileField{Field: name, File: f})
			}
			continue
		}
		result = append(result, flattenFiles(child, name)...)
	}
	return result
}
