package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joelanford/ngsi-client-go/api"
	"github.com/joelanford/ngsi-client-go/cmd/ngsictl/internal/output"
	"github.com/joelanford/ngsi-client-go/internal/util"
	"github.com/joelanford/ngsi-client-go/registry"
)

// seedEntity is one entry of a sandbox seed file:
//
//	sensor:
//	  - id: kitchen
//	    data: {temperature: 21.5, online: true}
type seedEntity struct {
	ID   string         `yaml:"id"`
	Data map[string]any `yaml:"data"`
}

func newSandboxCmd(o *rootOptions) *cobra.Command {
	var (
		listenAddr string
		seedFile   string
	)

	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Serve an in-memory context broker",
		Long: `Serve the context entities API from memory, for local development and
testing. When an auth token is configured, requests must present it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := util.NewLogger(cmd.ErrOrStderr(), "sandbox", o.verbosity)

			reg := registry.New()
			reg.Log = l.WithName("registry")
			reg.AuthToken = o.v.GetString("auth_token")
			if seedFile != "" {
				if err := seedRegistry(reg, seedFile); err != nil {
					return err
				}
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return err
			}
			output.Info(cmd.OutOrStdout(), "serving %d entities on http://%s/", reg.Len(), ln.Addr())
			return serve(cmd.Context(), ln, handlers.CombinedLoggingHandler(cmd.ErrOrStderr(), reg.Handler()))
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen-addr", "localhost:1026", "listen address")
	cmd.Flags().StringVar(&seedFile, "seed", "", "YAML file of entities to load, keyed by type")
	return cmd
}

func seedRegistry(reg *registry.Registry, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var seed map[string][]seedEntity
	if err := yaml.NewDecoder(f).Decode(&seed); err != nil {
		return fmt.Errorf("decode seed file %q: %w", path, err)
	}
	for entityType, entities := range seed {
		for _, e := range entities {
			if err := reg.Upsert(entityType, &api.Entity{ID: e.ID, Data: e.Data}); err != nil {
				return fmt.Errorf("seed %s entity %q: %w", entityType, e.ID, err)
			}
		}
	}
	return nil
}

// serve runs h on ln until ctx is done.
func serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
