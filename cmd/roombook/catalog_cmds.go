package main

import (
	"strconv"
	"strings"

	"github.com/jrsteele09/go-roombook/equipment"
	"github.com/jrsteele09/go-roombook/forms"
	"github.com/jrsteele09/go-roombook/groups"
	"github.com/jrsteele09/go-roombook/listing"
	"github.com/jrsteele09/go-roombook/positions"
	"github.com/jrsteele09/go-roombook/resource"
	"github.com/jrsteele09/go-roombook/shell"
	"github.com/jrsteele09/go-roombook/users"
	"github.com/spf13/cobra"
)

// catalog describes an admin managed resource as list, create, update and delete commands.
type catalog[T any, F listing.Filter] struct {
	use     string
	short   string
	route   string
	service func(a *app) *resource.Service[T, F]
	header  []string
	row     func(T) []string

	// listFlags registers the search flags and returns the filter builder.
	listFlags func(cmd *cobra.Command) func() F
	saveFlags func(cmd *cobra.Command)
	fill      func(cmd *cobra.Command, form *forms.Form[T]) error
}

func (c catalog[T, F]) command(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: c.use, Short: c.short}
	cmd.AddCommand(c.listCmd(a), c.saveCmd(a, false), c.saveCmd(a, true), c.deleteCmd(a))
	return cmd
}

func (c catalog[T, F]) listCmd(a *app) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search " + c.use,
	}
	filter := c.listFlags(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := a.mount(cmd.Context(), c.route); err != nil {
			return err
		}
		list := c.service(a).List(a.notifier())
		if err := search(cmd.Context(), list, filter(), page); err != nil {
			return err
		}
		items := list.Items()
		t := table{header: c.header, footer: pageFooter(list)}
		for _, item := range items {
			t.rows = append(t.rows, c.row(item))
		}
		return render(a.out, a.format, items, t)
	}
	return cmd
}

func (c catalog[T, F]) saveCmd(a *app, update bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.mount(ctx, c.route); err != nil {
				return err
			}
			svc := c.service(a)
			var existing *T
			if update {
				item, err := svc.Get(ctx, args[0])
				if err != nil {
					return err
				}
				existing = &item
			}
			form := svc.NewForm(existing, nil)
			if err := c.fill(cmd, form); err != nil {
				return a.submitError(err)
			}
			draft := form.Draft()
			saved, err := submit(a, ctx, form, svc.Definition().Name+" "+svc.Definition().Label(&draft))
			if err != nil {
				return err
			}
			return render(a.out, a.format, saved, table{header: c.header, rows: [][]string{c.row(saved)}})
		},
	}
	if update {
		cmd.Use = "update <id>"
		cmd.Short = "Update an entry; omitted flags keep their stored values"
		cmd.Args = cobra.ExactArgs(1)
	}
	c.saveFlags(cmd)
	return cmd
}

func (c catalog[T, F]) deleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.mount(ctx, c.route); err != nil {
				return err
			}
			svc := c.service(a)
			item, err := svc.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return a.deleteOutcome(svc.DeleteEntity(ctx, &item, a.confirmer()), svc.Definition().Name+" "+svc.Definition().Label(&item))
		},
	}
}

func nameFilterFlags(cmd *cobra.Command) func() resource.NameFilter {
	var filter resource.NameFilter
	cmd.Flags().StringVar(&filter.Name, "name", "", "Name contains")
	return func() resource.NameFilter { return filter }
}

func namedFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Name")
	cmd.Flags().String("description", "", "Description")
}

func usersCmd(a *app) *cobra.Command {
	return catalog[users.User, users.Filter]{
		use:   "users",
		short: "Manage user accounts",
		route: shell.RouteAdminUsers,
		service: func(a *app) *resource.Service[users.User, users.Filter] {
			return users.NewService(a.client, a.pageSize())
		},
		header: []string{"ID", "USERNAME", "NAME", "EMAIL", "ROLE", "GROUP", "POSITION", "ACTIVE"},
		row: func(u users.User) []string {
			return []string{u.ID, u.Username, u.FullName, u.Email, string(u.Role), u.Group, u.Position, yesNo(u.Active)}
		},
		listFlags: func(cmd *cobra.Command) func() users.Filter {
			var filter users.Filter
			cmd.Flags().StringVar(&filter.Name, "name", "", "Username or full name contains")
			cmd.Flags().StringSliceVar(&filter.Groups, "group", nil, "Groups (repeatable)")
			cmd.Flags().StringSliceVar(&filter.Positions, "position", nil, "Positions (repeatable)")
			cmd.Flags().Bool("active", false, "Only active (true) or inactive (false) users")
			return func() users.Filter {
				filter.Active = optionalBool(cmd, "active")
				return filter
			}
		},
		saveFlags: func(cmd *cobra.Command) {
			cmd.Flags().String("username", "", "Login name")
			cmd.Flags().String("password", "", "Password")
			cmd.Flags().String("full-name", "", "Full name")
			cmd.Flags().String("email", "", "Email address")
			cmd.Flags().String("phone", "", "Phone number")
			cmd.Flags().String("role", "", "Role: ADMIN or USER")
			cmd.Flags().String("group", "", "Group name")
			cmd.Flags().String("position", "", "Position name")
			cmd.Flags().Bool("active", true, "Whether the user can sign in")
		},
		fill: fillUser,
	}.command(a)
}

func fillUser(cmd *cobra.Command, form *forms.Form[users.User]) error {
	for flag, set := range map[string]func(*users.User, string){
		"username":  func(u *users.User, v string) { u.Username = v },
		"full-name": func(u *users.User, v string) { u.FullName = v },
		"email":     func(u *users.User, v string) { u.Email = v },
		"phone":     func(u *users.User, v string) { u.Phone = v },
		"role":      func(u *users.User, v string) { u.Role = users.RoleType(strings.ToUpper(v)) },
		"group":     func(u *users.User, v string) { u.Group = v },
		"position":  func(u *users.User, v string) { u.Position = v },
	} {
		if err := stringFlag(cmd, form, flag, set); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("password") {
		password, _ := cmd.Flags().GetString("password")
		if err := form.Edit(func(u *users.User) { u.Password = password }); err != nil {
			return err
		}
	}
	if form.Mode() == forms.ModeCreate || cmd.Flags().Changed("active") {
		active, _ := cmd.Flags().GetBool("active")
		return form.Edit(func(u *users.User) { u.Active = active })
	}
	return nil
}

func equipmentCmd(a *app) *cobra.Command {
	return catalog[equipment.Equipment, resource.NameFilter]{
		use:   "equipment",
		short: "Manage the equipment catalog",
		route: shell.RouteAdminEquipment,
		service: func(a *app) *resource.Service[equipment.Equipment, resource.NameFilter] {
			return equipment.NewService(a.client, a.pageSize())
		},
		header: []string{"ID", "NAME", "QUANTITY", "DESCRIPTION"},
		row: func(e equipment.Equipment) []string {
			return []string{e.ID, e.Name, strconv.Itoa(e.Quantity), e.Description}
		},
		listFlags: nameFilterFlags,
		saveFlags: func(cmd *cobra.Command) {
			namedFlags(cmd)
			cmd.Flags().String("quantity", "", "Number of items held")
		},
		fill: func(cmd *cobra.Command, form *forms.Form[equipment.Equipment]) error {
			if err := stringFlag(cmd, form, "name", func(e *equipment.Equipment, v string) { e.Name = v }); err != nil {
				return err
			}
			if err := stringFlag(cmd, form, "description", func(e *equipment.Equipment, v string) { e.Description = v }); err != nil {
				return err
			}
			return intFlag(cmd, form, "quantity", "quantity", func(e *equipment.Equipment, n int) { e.Quantity = n })
		},
	}.command(a)
}

func groupsCmd(a *app) *cobra.Command {
	return catalog[groups.Group, resource.NameFilter]{
		use:   "groups",
		short: "Manage user groups",
		route: shell.RouteAdminGroups,
		service: func(a *app) *resource.Service[groups.Group, resource.NameFilter] {
			return groups.NewService(a.client, a.pageSize())
		},
		header:    []string{"ID", "NAME", "DESCRIPTION"},
		row:       func(g groups.Group) []string { return []string{g.ID, g.Name, g.Description} },
		listFlags: nameFilterFlags,
		saveFlags: namedFlags,
		fill: func(cmd *cobra.Command, form *forms.Form[groups.Group]) error {
			if err := stringFlag(cmd, form, "name", func(g *groups.Group, v string) { g.Name = v }); err != nil {
				return err
			}
			return stringFlag(cmd, form, "description", func(g *groups.Group, v string) { g.Description = v })
		},
	}.command(a)
}

func positionsCmd(a *app) *cobra.Command {
	return catalog[positions.Position, resource.NameFilter]{
		use:   "positions",
		short: "Manage job positions",
		route: shell.RouteAdminPositions,
		service: func(a *app) *resource.Service[positions.Position, resource.NameFilter] {
			return positions.NewService(a.client, a.pageSize())
		},
		header:    []string{"ID", "NAME", "DESCRIPTION"},
		row:       func(p positions.Position) []string { return []string{p.ID, p.Name, p.Description} },
		listFlags: nameFilterFlags,
		saveFlags: namedFlags,
		fill: func(cmd *cobra.Command, form *forms.Form[positions.Position]) error {
			if err := stringFlag(cmd, form, "name", func(p *positions.Position, v string) { p.Name = v }); err != nil {
				return err
			}
			return stringFlag(cmd, form, "description", func(p *positions.Position, v string) { p.Description = v })
		},
	}.command(a)
}
