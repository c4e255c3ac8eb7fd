package main

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/go-roombook/shell"
	"github.com/jrsteele09/go-roombook/users"
	"github.com/spf13/cobra"
)

func loginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if username == "" {
				if username, err = readLine(a.in, a.errOut, "Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = readLine(a.in, a.errOut, "Password: "); err != nil {
					return err
				}
			}
			if err := a.manager.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%sSigned in as %s%s\n", Green, username, ResetColor)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget both tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.manager.SignOut(cmd.Context())
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mount(cmd.Context(), shell.RouteRooms); err != nil {
				return err
			}
			profile, err := users.MyInfo(cmd.Context(), a.client)
			if err != nil {
				return err
			}
			return render(a.out, a.format, profile, table{
				header: []string{"USERNAME", "NAME", "EMAIL", "ROLE"},
				rows:   [][]string{{profile.Username, profile.FullName, profile.Email, string(profile.Role)}},
			})
		},
	}
}

func navCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "nav",
		Short: "List the pages available to the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.manager.IsSessionValid(cmd.Context()) {
				return fmt.Errorf("not signed in")
			}
			claims, _ := a.manager.Claims()
			pages := a.shell.Navigation(claims)

			t := table{header: []string{"ROUTE", "TITLE", "ROLES"}}
			for _, p := range pages {
				t.rows = append(t.rows, []string{p.Route, p.Title, strings.Join(p.Roles, ",")})
			}
			return render(a.out, a.format, pages, t)
		},
	}
}
