package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/internal/config"
	"github.com/jrsteele09/go-roombook/internal/errors"
	"github.com/jrsteele09/go-roombook/listing"
	"github.com/jrsteele09/go-roombook/sessions"
	"github.com/jrsteele09/go-roombook/sessions/filestore"
	"github.com/jrsteele09/go-roombook/shell"
)

// app holds everything a command needs. It is built once per invocation from the config.
type app struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	format string
	yes    bool

	cfg     config.Config
	manager *sessions.Manager
	client  *api.Client
	shell   *shell.Shell
}

func (a *app) init(cfg config.Config) error {
	baseURL, err := url.Parse(cfg.GetBaseURL())
	if err != nil {
		return fmt.Errorf("[app init] base url: %w", err)
	}
	dir := cfg.GetSessionDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("[app init] session dir: %w", err)
	}

	jar, err := filestore.OpenJar(dir, baseURL)
	if err != nil {
		return err
	}
	store, err := sessions.NewStore(baseURL, cfg, filestore.NewAccessFile(dir), jar)
	if err != nil {
		return err
	}
	anonymous, err := api.New(cfg.GetBaseURL(), api.WithTimeout(cfg.GetRequestTimeout()), api.WithCookieJar(jar))
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.manager = sessions.NewManager(store, anonymous, sessions.NavigatorFunc(a.redirectToLogin), cfg.GetLoginURL())
	a.client = a.manager.AuthorizedClient()
	a.shell = shell.New(a.manager)
	return nil
}

// redirectToLogin is the terminal's full navigation to the login entry point.
func (a *app) redirectToLogin(loginURL string) {
	fmt.Fprintf(a.errOut, "%sSession ended.%s Sign in again (%s): roombook login\n", Yellow, ResetColor, loginURL)
}

// mount guards a command the same way a page guards its first fetch.
func (a *app) mount(ctx context.Context, route string) error {
	_, err := a.shell.Mount(ctx, route)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errors.ErrSessionExpired):
		return fmt.Errorf("not signed in")
	case errors.Is(err, errors.ErrForbidden):
		return fmt.Errorf("%s requires the admin role", route)
	default:
		return err
	}
}

func (a *app) pageSize() int {
	return a.cfg.GetPageSize()
}

// notifier prints list and calendar notifications to stderr.
func (a *app) notifier() listing.Notifier {
	return listing.NotifierFunc(func(n listing.Notification) {
		if n.Level == listing.LevelError {
			fmt.Fprintf(a.errOut, "%s%s%s\n", Red, n.Message, ResetColor)
			return
		}
		fmt.Fprintln(a.errOut, n.Message)
	})
}

// submitError formats a rejected form the way the form shows it: the message, then one line
// per field.
func (a *app) submitError(err error) error {
	var detail *api.ErrorDetail
	if !errors.As(err, &detail) || len(detail.Fields) == 0 {
		return err
	}
	fmt.Fprintln(a.errOut, detail.Message)
	for _, field := range sortedKeys(detail.Fields) {
		fmt.Fprintf(a.errOut, "  %s: %s\n", field, detail.Fields[field])
	}
	return fmt.Errorf("validation failed")
}
