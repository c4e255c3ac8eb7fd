// Command roombook is a terminal front end for the meeting-room booking API.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-roombook/internal/config"
	"github.com/jrsteele09/go-roombook/internal/logging"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	_ = godotenv.Load() // optional

	if err := rootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: bufio.NewReader(in), out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:           "roombook",
		Short:         "Book meeting rooms from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			logging.SetupWriter(errOut, cfg.GetLogLevel(), cfg.GetEnv())
			return a.init(cfg)
		},
	}

	cmd.PersistentFlags().StringVarP(&a.format, "output", "o", formatTable, "Output format (table, json, yaml)")
	cmd.PersistentFlags().BoolVarP(&a.yes, "yes", "y", false, "Do not ask for confirmation")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			displayAppname(out, config.New().GetAppName())
			fmt.Fprintf(out, "roombook version %s\n", Version)
		},
	})

	cmd.AddCommand(
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		navCmd(a),
		roomsCmd(a),
		bookingsCmd(a),
		calendarCmd(a),
		usersCmd(a),
		equipmentCmd(a),
		groupsCmd(a),
		positionsCmd(a),
		statsCmd(a),
	)
	return cmd
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, myFigure.String())
}
