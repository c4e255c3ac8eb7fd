package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
)

// Request describes one API call. A request with Parts or Files is sent as multipart/form-data,
// otherwise Body (if set) is sent as JSON.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Parts  []Part
	Files  []File
	Header http.Header
}

// Part is a JSON-encoded multipart section, e.g. the entity payload next to an image upload.
type Part struct {
	Name string
	JSON any
}

// File is an opaque binary attachment.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Body        io.Reader
}

func Get(path string, query url.Values) *Request {
	return &Request{Method: http.MethodGet, Path: path, Query: query}
}

func Post(path string, body any) *Request {
	return &Request{Method: http.MethodPost, Path: path, Body: body}
}

func Put(path string, body any) *Request {
	return &Request{Method: http.MethodPut, Path: path, Body: body}
}

func Delete(path string) *Request {
	return &Request{Method: http.MethodDelete, Path: path}
}

// EntityPath joins a collection path and an identity key, escaping the key.
func EntityPath(collection, id string) string {
	return collection + "/" + url.PathEscape(id)
}

func encodeMultipart(parts []Part, files []File) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	for _, p := range parts {
		b, err := json.Marshal(p.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("[api encodeMultipart] encoding part %q: %w", p.Name, err)
		}
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q`, p.Name))
		header.Set("Content-Type", "application/json")
		w, err := mw.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("[api encodeMultipart] %w", err)
		}
		if _, err := w.Write(b); err != nil {
			return nil, "", fmt.Errorf("[api encodeMultipart] %w", err)
		}
	}

	for _, f := range files {
		if f.Body == nil {
			continue
		}
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Filename))
		header.Set("Content-Type", contentType)
		w, err := mw.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("[api encodeMultipart] %w", err)
		}
		if _, err := io.Copy(w, f.Body); err != nil {
			return nil, "", fmt.Errorf("[api encodeMultipart] reading %q: %w", f.Filename, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("[api encodeMultipart] %w", err)
	}
	return buf, mw.FormDataContentType(), nil
}
