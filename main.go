package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/oaiiae/event-contacts/cli/api"
	"github.com/oaiiae/event-contacts/cli/contacts"
	"github.com/oaiiae/event-contacts/cli/logger"
	"github.com/oaiiae/event-contacts/cli/storage"
	"github.com/oaiiae/event-contacts/datastores"
	"github.com/oaiiae/event-contacts/forms"
)

const title = "Event Contacts"

// Set at build time with -ldflags "-X main.version=...".
var (
	version  = "dev"
	revision = ""
	created  = ""
)

// Options for the CLI. Flags are also read from SERVICE_* env vars,
// e.g. `--storage-path` or `SERVICE_STORAGE_PATH`.
type Options struct {
	api.ServerOptions
	api.RouterOptions
	api.ScanOptions
	logger.Options
	storage.BackendOptions
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		var (
			srv    *http.Server
			store  *datastores.ContactsKV
			closer io.Closer
		)
		log := logger.New(&options.Options)

		hooks.OnStart(func() {
			set := metrics.NewSet()
			var err error
			store, closer, err = storage.NewContacts(&options.BackendOptions, log,
				datastores.ContactsKVOptions{Metrics: set})
			if err != nil {
				log.Error("could not open storage", "err", err)
				os.Exit(1)
			}
			store.Load(context.Background())

			form := new(forms.Pending)
			capture, err := api.NewCapture(&options.ScanOptions, form, log)
			if err != nil {
				log.Error("invalid scan options", "err", err)
				os.Exit(1)
			}

			srv = api.NewServer(&options.ServerOptions,
				api.NewRouter(&options.RouterOptions, title, version, revision, created,
					&api.Services{Contacts: store, Form: form, Capture: capture, Metrics: set},
					log,
				),
				log,
			)
			log.Info("listening", "addr", srv.Addr)
			err = srv.ListenAndServe()
			if err != http.ErrServerClosed {
				log.Error("failed to listen and serve", "err", err)
			} else {
				log.Info("server closed")
			}
		})
		hooks.OnStop(func() {
			if srv != nil {
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()
				err := srv.Shutdown(ctx)
				if err != nil {
					log.Warn("could not shutdown the server", "err", err)
				}
			}
			if store != nil {
				store.Wait()
			}
			if closer != nil {
				if err := closer.Close(); err != nil {
					log.Warn("could not close storage", "err", err)
				}
			}
		})
	})

	root := cli.Root()
	root.Short = "Keep the contacts met at networking events"
	root.Version = version
	root.AddCommand(listCommand(), importCommand(), openapiCommand())
	cli.Run()
}

// withContacts opens the configured storage, loads the contacts
// and waits for pending writes before closing it.
func withContacts(options *Options, log *slog.Logger, do func(context.Context, *datastores.ContactsKV) error) error {
	store, closer, err := storage.NewContacts(&options.BackendOptions, log, datastores.ContactsKVOptions{})
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := context.Background()
	if status := store.Load(ctx); status == datastores.LoadCorrupt || status == datastores.LoadReadFailed {
		return fmt.Errorf("could not load contacts: %s", status)
	}
	err = do(ctx, store)
	store.Wait()
	return err
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the stored contacts",
		Args:  cobra.NoArgs,
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, options *Options) {
			log := logger.New(&options.Options)
			err := withContacts(options, log, func(ctx context.Context, store *datastores.ContactsKV) error {
				return contacts.List(ctx, cmd.OutOrStdout(), store)
			})
			exitOnError(log, err)
		}),
	}
}

func importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Add the contacts listed in a YAML file, - reads stdin",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, options *Options) {
			log := logger.New(&options.Options)
			err := withContacts(options, log, func(ctx context.Context, store *datastores.ContactsKV) error {
				r := cmd.InOrStdin()
				if args[0] != "-" {
					f, err := os.Open(args[0])
					if err != nil {
						return err
					}
					defer f.Close()
					r = f
				}
				n, err := contacts.Import(ctx, r, store)
				fmt.Fprintf(cmd.OutOrStdout(), "%d contacts imported\n", n)
				return err
			})
			exitOnError(log, err)
		}),
	}
}

func openapiCommand() *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI document",
		Args:  cobra.NoArgs,
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, options *Options) {
			log := logger.New(&options.Options)
			spec := api.NewOpenAPI(&options.RouterOptions, title, version)
			exitOnError(log, api.WriteOpenAPI(cmd.OutOrStdout(), spec, asYAML))
		}),
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print YAML instead of JSON")
	return cmd
}

func exitOnError(log *slog.Logger, err error) {
	if err != nil {
		log.Error("command failed", "err", err)
		os.Exit(1)
	}
}
