package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

const (
	jsonContentType   = "application/json"
	binaryContentType = "application/octet-stream"
)

type requestConfig struct {
	requiresAuth bool
	headers      map[string]string
}

// RequestOption adjusts a single call.
type RequestOption func(*requestConfig)

// NoAuth sends the request without a bearer token even if one is stored.
// Used for login, registration and OTP flows.
func NoAuth() RequestOption {
	return RequiresAuth(false)
}

// RequiresAuth sets whether the stored bearer token is attached. Defaults to
// true.
func RequiresAuth(required bool) RequestOption {
	return func(rc *requestConfig) {
		rc.requiresAuth = required
	}
}

// WithHeader sets an extra request header.
func WithHeader(key, value string) RequestOption {
	return func(rc *requestConfig) {
		rc.headers[key] = value
	}
}

func newRequestConfig(options []RequestOption) *requestConfig {
	rc := &requestConfig{
		requiresAuth: true,
		headers:      make(map[string]string),
	}
	for _, opt := range options {
		opt(rc)
	}
	return rc
}

// File is one file part of a Multipart payload.
type File struct {
	Field       string
	Name        string
	ContentType string
	Content     io.Reader
}

// Multipart is a multipart/form-data body. The gateway sends it with its own
// boundary-bearing content type instead of the JSON default.
type Multipart struct {
	Fields map[string]string
	Files  []File
}

// Binary is a raw body with an explicit content type.
type Binary struct {
	ContentType string
	Content     io.Reader
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (m *Multipart) encode() (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for key, value := range m.Fields {
		if err := w.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", key, err)
		}
	}
	for _, f := range m.Files {
		if f.Field == "" || f.Content == nil {
			return nil, "", fmt.Errorf("file part requires a field name and content")
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.Name)))
		contentType := f.ContentType
		if contentType == "" {
			contentType = binaryContentType
		}
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("copy part %s: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

// encodeBody returns the request body and its content type. A nil body still
// advertises JSON, matching the backend's default headers.
func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, jsonContentType, nil
	case *Multipart:
		return b.encode()
	case Multipart:
		return b.encode()
	case *Binary:
		return encodeBinary(b)
	case Binary:
		return encodeBinary(&b)
	case json.RawMessage:
		return bytes.NewReader(b), jsonContentType, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("encode json body: %w", err)
		}
		return bytes.NewReader(data), jsonContentType, nil
	}
}

func encodeBinary(b *Binary) (io.Reader, string, error) {
	if b.Content == nil {
		return nil, "", fmt.Errorf("binary payload has no content")
	}
	contentType := b.ContentType
	if contentType == "" {
		contentType = binaryContentType
	}
	return b.Content, contentType, nil
}
