package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/ttacon/chalk"

	"multibox/entity"
	"multibox/offset"
)

func offsetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offsets",
		Short: "Inspect the offset table",
	}
	cmd.AddCommand(offsetsCheckCmd())
	cmd.AddCommand(offsetsListCmd())
	return cmd
}

func offsetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the merged and validated offset table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, table, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			for _, name := range table.Names() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-22s %s\n", name, table.Source(name))
			}
			return nil
		},
	}
}

func offsetsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Resolve every path against the first running client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, table, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			res, err := newResolver(cfg, table)
			if err != nil {
				return err
			}
			mem, err := attachFirst(cfg)
			if err != nil {
				return err
			}
			defer mem.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "[OK] attached pid %d, %s base 0x%X\n", mem.PID(), mem.Module(), mem.ModuleBase())
			if fails := checkPaths(cmd.OutOrStdout(), mem, res); fails > 0 {
				return fmt.Errorf("%d of %d paths failed", fails, len(table.Names()))
			}
			return nil
		},
	}
}

// checkPaths resolve cada caminho da tabela com as âncoras do snapshot e
// imprime uma linha por caminho. Retorna quantos falharam.
func checkPaths(out io.Writer, mem entity.Memory, res *offset.Resolver) int {
	snap := entity.NewSnapshot(mem, res, slog.New(slog.NewTextHandler(io.Discard, nil)))
	snap.Refresh()
	fmt.Fprintf(out, "[SCAN] snapshot %s, char id %d\n", snap.State(), snap.ID())

	fails := 0
	for _, name := range res.Table().Names() {
		v, ok := res.Resolve(mem, name, snap.Cache())
		if !ok {
			fails++
			fmt.Fprintln(out, chalk.Red.Color(fmt.Sprintf("[FAIL] %s", name)))
			continue
		}
		fmt.Fprintln(out, chalk.Green.Color(fmt.Sprintf("[OK] %-22s %s", name, v)))
	}
	return fails
}
