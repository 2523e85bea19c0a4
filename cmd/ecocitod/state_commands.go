package main

import (
	"ecocito-bridge/lib/dedup"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	stateCmd.AddCommand(stateListCmd)
	stateCmd.AddCommand(stateImportCmd)
	rootCmd.AddCommand(stateCmd)
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspects the record of published collections.",
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "Prints every known record fingerprint.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		known, err := store.Fingerprints(cmd.Context())
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"#", "Time", "Tank", "Chip", "Weight"})
		for i, fp := range known {
			row := table.Row{i + 1}
			// the time itself never contains an underscore
			for _, field := range strings.SplitN(fp, "_", 4) {
				row = append(row, field)
			}
			t.AppendRow(row)
		}
		t.AppendFooter(table.Row{"", "", "", "Total", len(known)})
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

var stateImportCmd = &cobra.Command{
	Use:   "import <state.json>",
	Short: "Copies the fingerprints of a JSON state file into the sqlite or libsql state.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		sqlStore, ok := store.(*dedup.SQLiteStore)
		if !ok {
			return fmt.Errorf("state import needs STATE_BACKEND=sqlite or libsql")
		}
		imported, err := sqlStore.Import(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("imported %d fingerprints\n", imported)
		return nil
	},
}
