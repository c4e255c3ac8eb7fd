// Package resource binds the list controller, the entity form and deletion for one entity
// type, so each entity package only declares its schema.
package resource

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/forms"
	"github.com/jrsteele09/go-roombook/internal/errors"
	"github.com/jrsteele09/go-roombook/listing"
	"github.com/rs/zerolog/log"
)

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// Definition is the schema of one entity type.
type Definition[T any, F listing.Filter] struct {
	Name       string
	Path       string
	SearchPath string
	NewFilter  func() F
	Key        func(*T) string
	// Label names an entity in prompts; the key is used when nil.
	Label          func(*T) string
	Multipart      string
	FileFields     []string
	ZeroBasedPages bool
}

func (d Definition[T, F]) Schema() forms.Schema[T] {
	return forms.Schema[T]{
		Path:           d.Path,
		Key:            d.Key,
		MultipartField: d.Multipart,
		FileFields:     d.FileFields,
	}
}

type Service[T any, F listing.Filter] struct {
	def      Definition[T, F]
	client   *api.Client
	pageSize int
}

func NewService[T any, F listing.Filter](client *api.Client, def Definition[T, F], pageSize int) *Service[T, F] {
	return &Service[T, F]{def: def, client: client, pageSize: pageSize}
}

func (s *Service[T, F]) Definition() Definition[T, F] {
	return s.def
}

func (s *Service[T, F]) Client() *api.Client {
	return s.client
}

// List returns a fresh controller over the search endpoint. Nothing is fetched until Search.
func (s *Service[T, F]) List(notifier listing.Notifier) *listing.Controller[T, F] {
	return listing.New(s.client, listing.Config[T, F]{
		Path:           s.def.SearchPath,
		Size:           s.pageSize,
		ZeroBasedPages: s.def.ZeroBasedPages,
		Defaults:       s.def.NewFilter,
		Notifier:       notifier,
	})
}

func (s *Service[T, F]) NewForm(existing *T, onSaved forms.OnSaved[T]) *forms.Form[T] {
	return forms.New(s.client, s.def.Schema(), existing, onSaved)
}

// FormFor opens a form whose successful submit re-runs the list's search.
func (s *Service[T, F]) FormFor(list *listing.Controller[T, F], existing *T) *forms.Form[T] {
	return s.NewForm(existing, func(ctx context.Context, _ T) {
		if err := list.Search(ctx); err != nil {
			log.Debug().Err(err).Str("resource", s.def.Name).Msg("list refresh after save")
		}
	})
}

func (s *Service[T, F]) Get(ctx context.Context, id string) (T, error) {
	return api.Call[T](ctx, s.client, api.Get(api.EntityPath(s.def.Path, id), nil)).Unwrap()
}

// All fetches the unpaged collection.
func (s *Service[T, F]) All(ctx context.Context) ([]T, error) {
	items, err := api.Call[[]T](ctx, s.client, api.Get(s.def.Path, nil)).Unwrap()
	if items == nil && err == nil {
		items = []T{}
	}
	return items, err
}

// Delete asks for confirmation first; a refusal makes no call.
func (s *Service[T, F]) Delete(ctx context.Context, id string, confirm Confirmer) error {
	return s.delete(ctx, id, id, confirm)
}

// DeleteEntity deletes by the entity's key, naming it by Label in the prompt.
func (s *Service[T, F]) DeleteEntity(ctx context.Context, entity *T, confirm Confirmer) error {
	id := s.def.Key(entity)
	label := id
	if s.def.Label != nil {
		label = s.def.Label(entity)
	}
	return s.delete(ctx, id, label, confirm)
}

func (s *Service[T, F]) delete(ctx context.Context, id, label string, confirm Confirmer) error {
	if confirm == nil || !confirm.Confirm(fmt.Sprintf("Delete %s %q?", s.def.Name, label)) {
		return fmt.Errorf("[%s Delete] %w", s.def.Name, errors.ErrNotConfirmed)
	}
	if _, err := s.client.Do(ctx, api.Delete(api.EntityPath(s.def.Path, id))); err != nil {
		return err
	}
	log.Info().Str("resource", s.def.Name).Str("id", id).Msg("deleted")
	return nil
}

// NameFilter is the free-text filter shared by the simple catalog entities.
type NameFilter struct {
	Name string
}

func (f NameFilter) Values() url.Values {
	v := url.Values{}
	if name := strings.TrimSpace(f.Name); name != "" {
		v.Set("name", name)
	}
	return v
}
