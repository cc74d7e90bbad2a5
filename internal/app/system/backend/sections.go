package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strconv"

	"github.com/dalemusser/seoadmin/internal/app/system/timeouts"
	"github.com/dalemusser/seoadmin/internal/domain/models"
)

// SectionPath returns /components/<slug>/page/{pageID}[/{sectionID}].
// A sectionID of 0 yields the create path.
func SectionPath(kind models.SectionKind, pageID, sectionID int64) string {
	p := "/components/" + string(kind) + "/page/" + strconv.FormatInt(pageID, 10)
	if sectionID > 0 {
		p += "/" + strconv.FormatInt(sectionID, 10)
	}
	return p
}

// FileUpload is a file chosen in the browser for a multipart section save.
type FileUpload struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

// SectionRequest describes one section save. Exactly one of JSON or Fields is
// used: JSON for plain sections, Fields (plus an optional File) for multipart.
type SectionRequest struct {
	Method string
	Path   string
	JSON   any
	Fields map[string]string
	File   *FileUpload
}

// Multipart reports whether the request is sent as multipart form data.
func (r SectionRequest) Multipart() bool { return r.Fields != nil || r.File != nil }

// FetchSection returns the decoded response body for a section GET, with
// numbers kept as json.Number. A 404 is reported as a nil payload.
func (c *Client) FetchSection(ctx context.Context, creds Credentials, kind models.SectionKind, pageID int64) (any, error) {
	body, err := c.call(ctx, creds, http.MethodGet, SectionPath(kind, pageID, 0), nil, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return decodeGeneric(body)
}

// SendSection performs a section create or update and returns the decoded
// response body.
func (c *Client) SendSection(ctx context.Context, creds Credentials, sr SectionRequest) (any, error) {
	if !sr.Multipart() {
		body, err := c.call(ctx, creds, sr.Method, sr.Path, nil, sr.JSON)
		if err != nil {
			return nil, err
		}
		return decodeGeneric(body)
	}

	op := "multipart " + sr.Method + " " + sr.Path
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Upload(), c.logger, op)
	defer cancel()

	buf, contentType, err := encodeMultipart(sr)
	if err != nil {
		return nil, err
	}
	// Multipart PUT bodies are not parsed by the backend; updates go as POST
	// with a method override field.
	method := sr.Method
	if method == http.MethodPut {
		method = http.MethodPost
	}
	req, err := c.newRequest(ctx, method, sr.Path, buf, creds)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	body, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}
	return decodeGeneric(body)
}

func encodeMultipart(sr SectionRequest) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(sr.Fields))
	for k := range sr.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, sr.Fields[k]); err != nil {
			return nil, "", fmt.Errorf("backend: write field %s: %w", k, err)
		}
	}
	if sr.Method == http.MethodPut {
		if err := w.WriteField("_method", http.MethodPut); err != nil {
			return nil, "", fmt.Errorf("backend: write method override: %w", err)
		}
	}
	if f := sr.File; f != nil && f.Content != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Filename))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("backend: create file part: %w", err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("backend: copy file part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("backend: close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// decodeGeneric decodes a body into maps, slices and json.Number values.
// An empty body decodes to nil.
func decodeGeneric(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("backend: decode section: %w", err)
	}
	return v, nil
}
