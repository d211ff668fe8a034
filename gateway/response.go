package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
)

const maxBodyBytes = 10 << 20

// ErrNoData is returned by Decode when the response carried no data.
var ErrNoData = errors.New("response has no data")

// Response is the normalized shape every successful gateway call returns.
// Validation (422) and conflict (409) responses also arrive as a Response with
// Success false; callers branch on StatusCode.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Errors  json.RawMessage `json:"errors,omitempty"`

	StatusCode int             `json:"-"`
	Header     http.Header     `json:"-"`
	Body       json.RawMessage `json:"-"` // full JSON body as received
	Text       string          `json:"-"` // body when the server did not send JSON
}

// Decode unmarshals Data into v.
func (r *Response) Decode(v any) error {
	if r == nil || len(bytes.TrimSpace(r.Data)) == 0 || string(bytes.TrimSpace(r.Data)) == "null" {
		return ErrNoData
	}
	return json.Unmarshal(r.Data, v)
}

// DecodeBody unmarshals the full JSON body into v.
func (r *Response) DecodeBody(v any) error {
	if r == nil || len(r.Body) == 0 {
		return ErrNoData
	}
	return json.Unmarshal(r.Body, v)
}

// Validation reports whether the server answered 422.
func (r *Response) Validation() bool {
	return r != nil && r.StatusCode == http.StatusUnprocessableEntity
}

// Conflict reports whether the server answered 409.
func (r *Response) Conflict() bool {
	return r != nil && r.StatusCode == http.StatusConflict
}

// Redirect reports whether the server answered with a 3xx.
func (r *Response) Redirect() bool {
	return r != nil && r.StatusCode >= 300 && r.StatusCode < 400
}

// Location returns the redirect target, if any.
func (r *Response) Location() string {
	if r == nil || r.Header == nil {
		return ""
	}
	return r.Header.Get("Location")
}

type parsedBody struct {
	json json.RawMessage
	text string
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message *string         `json:"message"`
	Error   *string         `json:"error"`
	Errors  json.RawMessage `json:"errors"`
}

// readBody never fails on content: malformed JSON becomes an empty body.
func readBody(resp *http.Response) (parsedBody, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return parsedBody{}, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return parsedBody{}, nil
	}
	if isJSONContent(resp.Header.Get("Content-Type")) {
		if json.Valid(trimmed) {
			return parsedBody{json: json.RawMessage(trimmed)}, nil
		}
		return parsedBody{}, nil
	}
	return parsedBody{text: string(trimmed)}, nil
}

func isJSONContent(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func (b parsedBody) envelope() (envelope, bool) {
	if len(b.json) == 0 || b.json[0] != '{' {
		return envelope{}, false
	}
	var env envelope
	if err := json.Unmarshal(b.json, &env); err != nil {
		return envelope{}, false
	}
	return env, true
}

// message extracts a server supplied human readable message.
func (b parsedBody) message() string {
	if env, ok := b.envelope(); ok {
		if env.Message != nil && strings.TrimSpace(*env.Message) != "" {
			return strings.TrimSpace(*env.Message)
		}
		if env.Error != nil && strings.TrimSpace(*env.Error) != "" {
			return strings.TrimSpace(*env.Error)
		}
		return ""
	}
	if b.text != "" && len(b.text) <= 200 && !strings.HasPrefix(b.text, "<") {
		return b.text
	}
	return ""
}

// normalize wraps any body into a Response. A body that already uses the
// {success, data, message} envelope is unpacked; anything else becomes Data
// with Success taken from the status class.
func normalize(resp *http.Response, body parsedBody, success bool) *Response {
	out := &Response{
		Success:    success,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body.json,
		Text:       body.text,
	}
	env, ok := body.envelope()
	switch {
	case ok && (env.Success != nil || env.Data != nil):
		if env.Success != nil {
			out.Success = *env.Success
		}
		out.Data = env.Data
		out.Errors = env.Errors
		out.Message = body.message()
	case ok:
		out.Data = body.json
		out.Errors = env.Errors
		out.Message = body.message()
	case len(body.json) > 0:
		out.Data = body.json
	default:
		out.Message = body.text
	}
	return out
}
