package main

import (
	"strconv"
	"strings"

	"github.com/jrsteele09/go-roombook/forms"
	"github.com/jrsteele09/go-roombook/rooms"
	"github.com/jrsteele09/go-roombook/shell"
	"github.com/spf13/cobra"
)

func roomsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Search and manage rooms",
	}
	cmd.AddCommand(roomsListCmd(a), roomSaveCmd(a, false), roomSaveCmd(a, true), roomsDeleteCmd(a))
	return cmd
}

func roomsListCmd(a *app) *cobra.Command {
	var (
		filter rooms.Filter
		page   int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mount(cmd.Context(), shell.RouteRooms); err != nil {
				return err
			}
			filter.Available = optionalBool(cmd, "available")

			list := rooms.NewService(a.client, a.pageSize()).List(a.notifier())
			if err := search(cmd.Context(), list, filter, page); err != nil {
				return err
			}

			items := list.Items()
			t := table{header: []string{"ID", "NAME", "LOCATION", "CAPACITY", "AVAILABLE", "EQUIPMENT"}, footer: pageFooter(list)}
			for _, r := range items {
				t.rows = append(t.rows, []string{r.ID, r.Name, r.Location, strconv.Itoa(r.Capacity), yesNo(r.Available), strings.Join(r.Equipments, ", ")})
			}
			return render(a.out, a.format, items, t)
		},
	}
	cmd.Flags().StringVar(&filter.RoomName, "name", "", "Room name contains")
	cmd.Flags().StringSliceVar(&filter.Locations, "location", nil, "Locations (repeatable)")
	cmd.Flags().IntSliceVar(&filter.Capacities, "capacity", nil, "Capacities (repeatable)")
	cmd.Flags().StringSliceVar(&filter.Equipments, "equipment", nil, "Required equipment (repeatable)")
	cmd.Flags().Bool("available", false, "Only available (true) or unavailable (false) rooms")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	return cmd
}

func roomSaveCmd(a *app, update bool) *cobra.Command {
	var image string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a room",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.mount(ctx, shell.RouteAdminRooms); err != nil {
				return err
			}
			svc := rooms.NewService(a.client, a.pageSize())

			var existing *rooms.Room
			if update {
				room, err := svc.Get(ctx, args[0])
				if err != nil {
					return err
				}
				existing = &room
			}
			form := svc.NewForm(existing, nil)

			for flag, set := range map[string]func(*rooms.Room, string){
				"name":        func(r *rooms.Room, v string) { r.Name = v },
				"location":    func(r *rooms.Room, v string) { r.Location = v },
				"description": func(r *rooms.Room, v string) { r.Description = v },
			} {
				if err := stringFlag(cmd, form, flag, set); err != nil {
					return err
				}
			}
			if err := intFlag(cmd, form, "capacity", "capacity", func(r *rooms.Room, n int) { r.Capacity = n }); err != nil {
				return a.submitError(err)
			}
			if form.Mode() == forms.ModeCreate || cmd.Flags().Changed("available") {
				available, _ := cmd.Flags().GetBool("available")
				_ = form.Edit(func(r *rooms.Room) { r.Available = available })
			}
			if cmd.Flags().Changed("equipment") {
				equipment, _ := cmd.Flags().GetStringSlice("equipment")
				_ = form.Edit(func(r *rooms.Room) { r.Equipments = equipment })
			}
			if image != "" {
				f, err := attachFile(form, rooms.ImageField, image)
				if err != nil {
					return err
				}
				defer f.Close()
			}

			saved, err := submit(a, ctx, form, "room "+form.Draft().Name)
			if err != nil {
				return err
			}
			return render(a.out, a.format, saved, table{
				header: []string{"ID", "NAME", "IMAGE"},
				rows:   [][]string{{saved.ID, saved.Name, saved.ImageURL}},
			})
		},
	}
	if update {
		cmd.Use = "update <id>"
		cmd.Short = "Update a room; omitted flags keep their stored values"
		cmd.Args = cobra.ExactArgs(1)
	}
	cmd.Flags().String("name", "", "Room name")
	cmd.Flags().String("location", "", "Location")
	cmd.Flags().String("capacity", "", "Number of seats")
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().Bool("available", true, "Whether the room can be booked")
	cmd.Flags().StringSlice("equipment", nil, "Equipment in the room (repeatable)")
	cmd.Flags().StringVar(&image, "image", "", "Path of an image to upload")
	return cmd
}

func roomsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.mount(ctx, shell.RouteAdminRooms); err != nil {
				return err
			}
			svc := rooms.NewService(a.client, a.pageSize())
			room, err := svc.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return a.deleteOutcome(svc.DeleteEntity(ctx, &room, a.confirmer()), "room "+room.Name)
		},
	}
}
