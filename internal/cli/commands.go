package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/granjapro/granja/internal/config"
	"github.com/granjapro/granja/internal/engine"
	"github.com/granjapro/granja/internal/logging"
	"github.com/granjapro/granja/internal/storage"
)

func newBootstrapCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the first administrator",
		Long:  "bootstrap creates an Admin identity. It only works while no identity exists yet.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := a.readSecret("Password: ")
			if err != nil {
				return err
			}
			confirm, err := a.readSecret("Repeat password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return errors.New("passwords do not match")
			}

			rt, err := a.open()
			if err != nil {
				return err
			}
			defer rt.Close()

			admin, err := rt.services.Auth.BootstrapAdmin(name, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Administrator %s created. Run granja to log in.\n", admin.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "admin", "name of the administrator")
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy every document from one store backend to another",
		Long: strings.TrimSpace(`
migrate copies all collections between backends using the store settings of
the configuration file. Use it to move JSON files into SQLite, or to seed a
remote daemon from a local copy.`),
		Example: "  granja migrate --from json --to sqlite",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == to {
				return fmt.Errorf("--from and --to must differ (both %q)", from)
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			logger, closeLog, err := logging.New(cfg.Log, false)
			if err != nil {
				return err
			}
			defer closeLog()

			srcCfg, dstCfg := cfg.Store, cfg.Store
			srcCfg.Backend, dstCfg.Backend = from, to

			src, srcCloser, err := storage.Open(srcCfg, logger)
			if err != nil {
				return fmt.Errorf("open source: %w", err)
			}
			defer srcCloser.Close()

			dst, dstCloser, err := storage.Open(dstCfg, logger)
			if err != nil {
				return fmt.Errorf("open destination: %w", err)
			}
			defer dstCloser.Close()

			n, err := engine.Migrate(src, dst)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Migrated %d documents from %s to %s.\n", n, from, to)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", config.BackendJSON, "source backend (json, sqlite, remote)")
	cmd.Flags().StringVar(&to, "to", config.BackendSQLite, "destination backend (json, sqlite, remote)")
	return cmd
}

// newStoreCmd exposes read-only access to the raw documents behind the repositories.
func newStoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect raw documents in the configured store",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "collections",
		Short: "List collection names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open()
			if err != nil {
				return err
			}
			defer rt.Close()

			names, err := rt.store.Collections()
			if err != nil {
				return err
			}
			sort.Strings(names)
			for _, n := range names {
				fmt.Fprintln(a.stdout, n)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list <collection>",
		Short: "Print every document of a collection, one JSON line each",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open()
			if err != nil {
				return err
			}
			defer rt.Close()

			docs, err := rt.store.List(args[0])
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(docs))
			for id := range docs {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				var buf bytes.Buffer
				if err := json.Compact(&buf, docs[id]); err != nil {
					return fmt.Errorf("document %s/%s: %w", args[0], id, err)
				}
				fmt.Fprintf(a.stdout, "%s\t%s\n", id, buf.String())
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <collection> <id>",
		Short: "Pretty-print one document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open()
			if err != nil {
				return err
			}
			defer rt.Close()

			doc, err := rt.store.Get(args[0], args[1])
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := json.Indent(&buf, doc, "", "  "); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, buf.String())
			return nil
		},
	})

	return cmd
}
