package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/go-roombook/resource"
)

// stdinConfirmer asks on the terminal. With --yes every prompt is approved.
type stdinConfirmer struct {
	in  *bufio.Reader
	out io.Writer
	yes bool
}

var _ resource.Confirmer = (*stdinConfirmer)(nil)

func (a *app) confirmer() *stdinConfirmer {
	return &stdinConfirmer{in: a.in, out: a.errOut, yes: a.yes}
}

func (c *stdinConfirmer) Confirm(prompt string) bool {
	if c.yes {
		return true
	}
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	answer, err := c.in.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func readLine(in *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
