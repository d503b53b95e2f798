package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/terra-clan/practice-tracker/internal/focus"
	"github.com/terra-clan/practice-tracker/internal/models"
	"github.com/terra-clan/practice-tracker/internal/session"
	"github.com/terra-clan/practice-tracker/pkg/client"
)

type rootOptions struct {
	server  string
	timeout time.Duration
	json    bool
}

func (o *rootOptions) client() *client.Client {
	return client.NewClient(o.server, client.WithTimeout(o.timeout))
}

// print writes v as JSON when --json is set, otherwise calls text
func (o *rootOptions) print(w io.Writer, v interface{}, text func(io.Writer)) error {
	if !o.json {
		text(w)
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// NewRootCmd builds the trackerctl command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	defaultServer := os.Getenv("TRACKER_URL")
	if defaultServer == "" {
		defaultServer = "http://127.0.0.1:8080"
	}

	root := &cobra.Command{
		Use:           "trackerctl",
		Short:         "Control a running practice tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", defaultServer, "tracker base URL (env TRACKER_URL)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON instead of text")

	root.AddCommand(
		newStatusCmd(opts),
		newMapsCmd(opts),
		newAddCmd(opts),
		newIncCmd(opts),
		newResetCmd(opts),
		newRmCmd(opts),
		newFocusCmd(opts),
		newTabCmd(opts),
		newGoalCmd(opts),
		newNextCmd(opts),
		newExportCmd(opts),
		newAutoDetectCmd(opts),
	)

	return root
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active category, focus and session totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := opts.client().State(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), state, func(w io.Writer) {
				printStatus(w, state)
			})
		},
	}
}

func newMapsCmd(opts *rootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "maps",
		Short: "List maps of a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := opts.client().ListMaps(cmd.Context(), models.Category(category))
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), list, func(w io.Writer) {
				printMaps(w, list.Maps)
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "category to list (default: active)")
	return cmd
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		category string
		target   int
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a custom map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := opts.client().CreateMap(cmd.Context(), models.CreateMapRequest{
				Name:     args[0],
				Category: models.Category(category),
				Target:   target,
			})
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), rec, func(w io.Writer) {
				fmt.Fprintf(w, "added %s (%s)\n", rec.Name, rec.ID)
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", string(models.CategoryCustom), "category of the new map")
	cmd.Flags().IntVarP(&target, "target", "t", models.DefaultTarget, "completion target")
	return cmd
}

func newIncCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inc <map-id>",
		Short: "Count one completion of a map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := opts.client().Increment(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), rec, func(w io.Writer) {
				fmt.Fprintf(w, "%s %d/%d\n", rec.Name, rec.CurrentCount, rec.TargetCount)
			})
		},
	}
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <map-id>",
		Short: "Reset a map count to zero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := opts.client().Reset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), rec, func(w io.Writer) {
				fmt.Fprintf(w, "%s reset\n", rec.Name)
			})
		},
	}
}

func newRmCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <map-id>",
		Short: "Delete a map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().DeleteMap(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newFocusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "focus <map-id>",
		Short: "Focus a map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := opts.client().Focus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), state, func(w io.Writer) {
				printStatus(w, state)
			})
		},
	}
}

func newTabCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tab <category>",
		Short: "Switch the active category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := opts.client().SwitchCategory(cmd.Context(), models.Category(args[0]))
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), state, func(w io.Writer) {
				printStatus(w, state)
			})
		},
	}
}

func newGoalCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "goal",
		Short: "Send a goal signal for the focused map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := opts.client().Goal(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), resp, func(w io.Writer) {
				if resp.Map == nil {
					fmt.Fprintln(w, "no active focus")
					return
				}
				fmt.Fprintf(w, "%s %d/%d\n", resp.Map.Name, resp.Map.CurrentCount, resp.Map.TargetCount)
			})
		},
	}
}

func newNextCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Move focus to the next incomplete map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := opts.client().Advance(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), resp, func(w io.Writer) {
				switch {
				case resp.Outcome == focus.AllComplete.String():
					fmt.Fprintln(w, "all maps complete")
				case resp.State.FocusedName != "":
					fmt.Fprintf(w, "focused: %s\n", resp.State.FocusedName)
				default:
					fmt.Fprintln(w, "no maps in this category")
				}
			})
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the tracker snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := opts.client().Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}
}

func newAutoDetectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "auto-detect",
		Short: "Toggle goal auto-detection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := opts.client().ToggleAutoDetect(cmd.Context())
			if err != nil {
				return err
			}
			resp := models.AutoDetectResponse{AutoDetectEnabled: enabled}
			return opts.print(cmd.OutOrStdout(), resp, func(w io.Writer) {
				fmt.Fprintf(w, "auto-detect: %s\n", onOff(enabled))
			})
		},
	}
}

func printStatus(w io.Writer, state *models.StateView) {
	focused := state.FocusedName
	if focused == "" {
		focused = "-"
	}

	fmt.Fprintf(w, "category:    %s\n", state.ActiveCategory)
	fmt.Fprintf(w, "focus:       %s\n", focused)
	fmt.Fprintf(w, "progress:    %d/%d\n", state.Totals.Completed, state.Totals.Goal)
	fmt.Fprintf(w, "session:     %s\n", session.FormatClock(state.ElapsedSeconds))
	fmt.Fprintf(w, "tab time:    %s\n", session.FormatLap(state.Timers[state.ActiveCategory]))
	fmt.Fprintf(w, "auto-detect: %s\n", onOff(state.AutoDetect))
	fmt.Fprintf(w, "relay:       %s\n", onOff(state.Connected))
}

func printMaps(w io.Writer, maps []models.MapView) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tCOUNT\tDONE")
	for _, m := range maps {
		marker := ""
		if m.Focused {
			marker = "*"
		}
		done := ""
		if m.Completed {
			done = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", marker, m.ID, m.Name,
			strconv.Itoa(m.CurrentCount)+"/"+strconv.Itoa(m.TargetCount), done)
	}
	tw.Flush()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
