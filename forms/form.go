// Package forms is the generic create/edit form used for every entity.
package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/internal/errors"
	"github.com/rs/zerolog/log"
)

const validationMessage = "Please correct the highlighted fields"

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Schema describes how an entity is submitted.
type Schema[T any] struct {
	// Path is the collection endpoint, e.g. "/room". Updates go to Path/{key}.
	Path string
	Key  func(*T) string
	// MultipartField names the JSON part of a multipart submission. Empty means a JSON body.
	MultipartField string
	FileFields     []string
}

// OnSaved is told about the stored entity after a successful submit; typically it refreshes
// the list the form was opened from.
type OnSaved[T any] func(ctx context.Context, saved T)

// Form holds a draft entity until it is successfully submitted. A failed submit leaves the form
// open with the draft untouched.
type Form[T any] struct {
	schema  Schema[T]
	client  *api.Client
	onSaved OnSaved[T]

	lock   sync.Mutex
	mode   Mode
	key    string
	draft  T
	files  []attachment
	errs   *api.ErrorDetail
	saved  *T
	closed bool
}

// New opens a create form when existing is nil, otherwise an edit form pre-filled from a copy
// of existing.
func New[T any](client *api.Client, schema Schema[T], existing *T, onSaved OnSaved[T]) *Form[T] {
	f := &Form[T]{schema: schema, client: client, onSaved: onSaved}
	if existing != nil {
		f.mode = ModeEdit
		f.draft = clone(*existing)
		if schema.Key != nil {
			f.key = schema.Key(existing)
		}
	}
	return f
}

func (f *Form[T]) Mode() Mode {
	return f.mode
}

// Key is the identity key the update is sent to; empty in create mode.
func (f *Form[T]) Key() string {
	return f.key
}

// Draft returns a copy of the current field values.
func (f *Form[T]) Draft() T {
	f.lock.Lock()
	defer f.lock.Unlock()
	return clone(f.draft)
}

// Edit applies fn to the draft.
func (f *Form[T]) Edit(fn func(*T)) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.closed {
		return errors.ErrFormClosed
	}
	fn(&f.draft)
	return nil
}

// attachment keeps the file contents so a rejected submit can be retried with the same file.
type attachment struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

// Attach reads body and adds it as a file part. Attaching to the same field again replaces the
// previous file.
func (f *Form[T]) Attach(field, filename, contentType string, body io.Reader) error {
	if !slices.Contains(f.schema.FileFields, field) {
		return fmt.Errorf("[Form Attach] %w: %q is not a file field", errors.ErrUnsupportedRequest, field)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("[Form Attach] reading %q: %w", filename, err)
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.closed {
		return errors.ErrFormClosed
	}
	f.files = slices.DeleteFunc(f.files, func(a attachment) bool { return a.field == field })
	f.files = append(f.files, attachment{field: field, filename: filename, contentType: contentType, data: data})
	return nil
}

// Reject records a field error found before submission, e.g. input that did not parse.
func (f *Form[T]) Reject(field, message string) *api.ErrorDetail {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.errs = &api.ErrorDetail{Message: validationMessage, Fields: map[string]string{field: message}, Kind: errors.ErrValidation}
	return f.errs
}

// Errors returns the outcome of the last failed submit, or nil.
func (f *Form[T]) Errors() *api.ErrorDetail {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.errs
}

func (f *Form[T]) Closed() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.closed
}

// Saved returns the entity the server stored, once the form has closed.
func (f *Form[T]) Saved() (T, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.saved == nil {
		var zero T
		return zero, false
	}
	return *f.saved, true
}

// Submit validates the draft and sends it: PUT Path/{key} when editing, POST Path otherwise.
func (f *Form[T]) Submit(ctx context.Context) error {
	f.lock.Lock()
	if f.closed {
		f.lock.Unlock()
		return errors.ErrFormClosed
	}

	if fields := FieldErrors(f.draft); len(fields) > 0 {
		f.errs = &api.ErrorDetail{Message: validationMessage, Fields: fields, Kind: errors.ErrValidation}
		f.lock.Unlock()
		return f.errs
	}

	req := f.request()
	f.lock.Unlock()

	saved, err := api.Call[T](ctx, f.client, req).Unwrap()

	f.lock.Lock()
	if err != nil {
		var detail *api.ErrorDetail
		if !errors.As(err, &detail) {
			detail = &api.ErrorDetail{Message: err.Error(), Kind: errors.ErrTransport}
		}
		f.errs = detail
		f.lock.Unlock()
		log.Debug().Str("path", req.Path).Str("error", detail.Message).Msg("form submit rejected")
		return detail
	}
	f.errs = nil
	f.saved = &saved
	f.closed = true
	f.files = nil
	f.lock.Unlock()

	if f.onSaved != nil {
		f.onSaved(ctx, saved)
	}
	return nil
}

// Cancel closes the form without submitting.
func (f *Form[T]) Cancel() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.closed = true
}

// request must be called with the lock held.
func (f *Form[T]) request() *api.Request {
	method, path := "POST", f.schema.Path
	if f.key != "" {
		method, path = "PUT", api.EntityPath(f.schema.Path, f.key)
	}

	req := &api.Request{Method: method, Path: path}
	if f.schema.MultipartField == "" {
		req.Body = f.draft
		return req
	}
	req.Parts = []api.Part{{Name: f.schema.MultipartField, JSON: f.draft}}
	for _, a := range f.files {
		req.Files = append(req.Files, api.File{
			Field:       a.field,
			Filename:    a.filename,
			ContentType: a.contentType,
			Body:        bytes.NewReader(a.data),
		})
	}
	return req
}

// clone deep copies through JSON so edits never reach the caller's snapshot.
func clone[T any](v T) T {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
