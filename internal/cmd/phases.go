package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/hookbus/internal/event"
	"github.com/Iron-Ham/hookbus/internal/events"
	"github.com/Iron-Ham/hookbus/internal/features"
	"github.com/Iron-Ham/hookbus/internal/logging"
)

var phasesCmd = &cobra.Command{
	Use:   "phases [event-type]",
	Short: "List the phase contract of each event",
	Long: `List every event the hosts broadcast: the bus it travels on, the phases
it is broadcast in (in order), whether it can be cancelled, and how many
listeners the default features register for it.

Pass an event type (e.g. player.join) to show only that event, including
each listener in delivery order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPhases,
}

func init() {
	rootCmd.AddCommand(phasesCmd)
}

func runPhases(cmd *cobra.Command, args []string) error {
	buses := event.NewBuses()
	if err := features.InstallAll(buses, features.Defaults(logging.NopLogger())...); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		c, ok := events.ContractFor(events.EventType(args[0]))
		if !ok {
			return fmt.Errorf("unknown event type %q", args[0])
		}
		bus, err := buses.Get(c.Bus)
		if err != nil {
			return err
		}
		return writeListeners(cmd, bus, c)
	}

	rows := make([][]string, 0, len(events.Contracts()))
	for _, c := range events.Contracts() {
		bus, err := buses.Get(c.Bus)
		if err != nil {
			return err
		}
		listeners := 0
		for _, p := range c.Phases {
			listeners += bus.Count(c.Kind, p)
		}
		rows = append(rows, []string{
			string(c.Type),
			c.Bus,
			phaseNames(c.Phases),
			cancelColumn(c),
			strconv.Itoa(listeners),
			c.Description,
		})
	}
	return writeTable(out, []string{"EVENT", "BUS", "PHASES", "CANCEL", "LISTENERS", "NOTES"}, rows, nil)
}

func writeListeners(cmd *cobra.Command, bus *event.Bus, c events.Contract) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s) on %s bus\n", c.Type, c.Kind, c.Bus)
	fmt.Fprintf(out, "%s\n\n", c.Description)

	var rows [][]string
	for _, p := range c.Phases {
		for _, l := range bus.ListenersFor(c.Kind, p) {
			rows = append(rows, []string{p.Name(), strconv.FormatUint(l.ID, 10), l.Label, string(l.Scope)})
		}
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No listeners registered.")
		return nil
	}
	return writeTable(out, []string{"PHASE", "ID", "LABEL", "SCOPE"}, rows, nil)
}

func phaseNames(phases []event.Phase) string {
	names := make([]string, len(phases))
	for i, p := range phases {
		names[i] = p.Name()
	}
	return strings.Join(names, " > ")
}

func cancelColumn(c events.Contract) string {
	switch {
	case c.Result != "":
		return "yes (" + c.Result + ")"
	case c.Cancellable:
		return "yes"
	default:
		return "no"
	}
}
