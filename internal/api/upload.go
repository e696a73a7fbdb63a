package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// MaxResumeSize is the largest resume file the backend accepts.
const MaxResumeSize = 5 << 20

// ResumeExtensions lists the accepted resume file extensions.
var ResumeExtensions = []string{".pdf", ".doc", ".docx"}

// Upload is a file to send in a multipart request.
type Upload struct {
	Name string
	Data []byte
}

// CheckResume rejects names and sizes the backend would refuse.
func CheckResume(name string, size int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	allowed := false
	for _, e := range ResumeExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%s: please upload a PDF, DOC, or DOCX file", name)
	}
	if size > MaxResumeSize {
		return fmt.Errorf("%s: file size must be less than 5MB", name)
	}
	if size == 0 {
		return fmt.Errorf("%s: file is empty", name)
	}
	return nil
}

// ReadResume loads a resume from disk after checking its name and size.
func ReadResume(path string) (Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Upload{}, fmt.Errorf("failed to read resume: %w", err)
	}
	if info.IsDir() {
		return Upload{}, fmt.Errorf("%s is a directory", path)
	}
	if err := CheckResume(info.Name(), info.Size()); err != nil {
		return Upload{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Upload{}, fmt.Errorf("failed to read resume: %w", err)
	}
	return Upload{Name: info.Name(), Data: data}, nil
}

// form builds a multipart body.
type form struct {
	buf    bytes.Buffer
	writer *multipart.Writer
}

func newForm() *form {
	f := &form{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

func (f *form) field(name, value string) error {
	return f.writer.WriteField(name, value)
}

func (f *form) file(field string, u Upload) error {
	w, err := f.writer.CreateFormFile(field, u.Name)
	if err != nil {
		return err
	}
	_, err = w.Write(u.Data)
	return err
}

// close finishes the body and returns it with its content type.
func (f *form) close() (*bytes.Buffer, string, error) {
	if err := f.writer.Close(); err != nil {
		return nil, "", err
	}
	return &f.buf, f.writer.FormDataContentType(), nil
}

// checkUploads runs CheckResume over every upload, reporting all failures
// under field as a KindValidation error.
func checkUploads(method, path, field string, uploads []Upload) *Error {
	var msgs []string
	for _, u := range uploads {
		if err := CheckResume(u.Name, int64(len(u.Data))); err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return &Error{
		Kind:    KindValidation,
		Method:  method,
		Path:    path,
		Message: msgs[0],
		Fields:  map[string][]string{field: msgs},
	}
}
