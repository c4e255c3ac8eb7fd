package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jrsteele09/go-roombook/forms"
	"github.com/jrsteele09/go-roombook/internal/errors"
	"github.com/jrsteele09/go-roombook/listing"
	"github.com/spf13/cobra"
)

// search applies filter and then moves to page, which must be within the results.
func search[T any, F listing.Filter](ctx context.Context, list *listing.Controller[T, F], filter F, page int) error {
	if err := list.Apply(ctx, filter); err != nil {
		return err
	}
	if page != 1 {
		return list.GoTo(ctx, page)
	}
	return nil
}

func pageFooter[T any, F listing.Filter](list *listing.Controller[T, F]) string {
	if list.TotalPages() == 0 {
		return "no results"
	}
	return fmt.Sprintf("page %d of %d (%d total)", list.Page(), list.TotalPages(), list.TotalElements())
}

// submit sends the form and reports the outcome.
func submit[T any](a *app, ctx context.Context, form *forms.Form[T], what string) (T, error) {
	if err := form.Submit(ctx); err != nil {
		var zero T
		return zero, a.submitError(err)
	}
	saved, _ := form.Saved()
	verb := "Created"
	if form.Mode() == forms.ModeEdit {
		verb = "Updated"
	}
	fmt.Fprintf(a.errOut, "%s%s %s%s\n", Green, verb, what, ResetColor)
	return saved, nil
}

// deleteOutcome turns a refused confirmation into a plain message.
func (a *app) deleteOutcome(err error, what string) error {
	if errors.Is(err, errors.ErrNotConfirmed) {
		fmt.Fprintln(a.errOut, "Cancelled")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.errOut, "%sDeleted %s%s\n", Green, what, ResetColor)
	return nil
}

// intFlag parses a numeric text flag into the draft, reporting bad input as a field error.
func intFlag[T any](cmd *cobra.Command, form *forms.Form[T], flag, field string, set func(*T, int)) error {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	raw, _ := cmd.Flags().GetString(flag)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return form.Reject(field, "must be a whole number")
	}
	return form.Edit(func(v *T) { set(v, n) })
}

func stringFlag[T any](cmd *cobra.Command, form *forms.Form[T], flag string, set func(*T, string)) error {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	value, _ := cmd.Flags().GetString(flag)
	return form.Edit(func(v *T) { set(v, value) })
}

// attachFile opens path and attaches it to the form. The caller closes the returned file after
// submitting.
func attachFile[T any](form *forms.Form[T], field, path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := form.Attach(field, filepath.Base(path), contentType, f); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func optionalBool(cmd *cobra.Command, flag string) *bool {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(flag)
	return &v
}
