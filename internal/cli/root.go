// Package cli holds the granja command tree.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/granjapro/granja/internal/console"
)

// Version is set at build time with -ldflags "-X github.com/granjapro/granja/internal/cli.Version=...".
var Version = "dev"

type app struct {
	cfgPath string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	lines   *bufio.Reader
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(os.Stdin, os.Stdout, os.Stderr)
}

func NewRootCommandWithIO(in io.Reader, out, errOut io.Writer) *cobra.Command {
	return newRootCommand(in, out, errOut)
}

func newRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{stdin: in, stdout: out, stderr: errOut}

	cmd := &cobra.Command{
		Use:           "granja",
		Short:         "GranjaPro poultry farm management console",
		Long:          "granja manages laying-hen lots, daily egg production, alerts and the audit trail of corrections.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConsole()
		},
	}
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVar(&a.cfgPath, "config", "", "path to granja.yaml (default: ./granja.yaml or ~/.granja/granja.yaml)")

	cmd.AddCommand(
		newBootstrapCmd(a),
		newMigrateCmd(a),
		newStoreCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

func (a *app) runConsole() error {
	rt, err := a.open()
	if err != nil {
		return err
	}
	defer rt.Close()

	c := console.New(rt.services, a.stdin, a.stdout,
		console.WithLogger(rt.log),
		console.WithExportDir(rt.cfg.Report.Dir),
	)
	return c.Run()
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the granja version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "granja %s\n", Version)
		},
	}
}
