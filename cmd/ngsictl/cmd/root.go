package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joelanford/ngsi-client-go/client"
	"github.com/joelanford/ngsi-client-go/cmd/ngsictl/internal/output"
	"github.com/joelanford/ngsi-client-go/internal/util"
)

// rootOptions is the state shared by every subcommand.
type rootOptions struct {
	v         *viper.Viper
	cfgFile   string
	insecure  bool
	output    string
	verbosity int
}

// flag name -> config key
var boundFlags = map[string]string{
	"url":        "url",
	"auth-token": "auth_token",
	"type":       "type",
	"user-agent": "user_agent",
}

func NewRootCmd() *cobra.Command {
	o := &rootOptions{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "ngsictl",
		Short: "Context broker entity CLI",
		Long: `ngsictl saves, reads and deletes entities on an NGSI v1 context broker.

Connection settings come from flags, NGSI_* environment variables or a YAML
config file, in that order of precedence.`,
		Version:           client.LibraryVersion,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return o.initConfig() },
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&o.cfgFile, "config", "", "config file (default: $HOME/.ngsictl/config.yaml)")
	flags.String("url", "", "broker base URL, e.g. https://broker.example.com/v1/")
	flags.String("auth-token", "", "token sent as X-Auth-Token")
	flags.String("type", "", `entity type (default "default")`)
	flags.String("user-agent", "", "User-Agent header")
	flags.BoolVar(&o.insecure, "insecure", false, "skip TLS certificate verification")
	flags.StringVarP(&o.output, "output", "o", output.FormatJSON, "output format: json, yaml")
	flags.CountVarP(&o.verbosity, "verbose", "v", "log verbosity, repeat for more")

	for name, key := range boundFlags {
		_ = o.v.BindPFlag(key, flags.Lookup(name))
	}
	o.v.SetEnvPrefix("NGSI")
	o.v.AutomaticEnv()
	_ = o.v.BindEnv("strictssl")

	rootCmd.AddCommand(
		newSaveCmd(o),
		newGetCmd(o),
		newDeleteCmd(o),
		newFetchCmd(o),
		newVersionCmd(o),
		newSandboxCmd(o),
	)
	return rootCmd
}

func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (o *rootOptions) initConfig() error {
	if !output.ValidFormat(o.output) {
		return fmt.Errorf("unsupported output format %q: use json or yaml", o.output)
	}

	if o.cfgFile != "" {
		o.v.SetConfigFile(o.cfgFile)
		if err := o.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %q: %w", o.cfgFile, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(home, ".ngsictl", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	o.v.SetConfigFile(path)
	if err := o.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}
	return nil
}

func (o *rootOptions) config() (client.Config, error) {
	settings := o.v.AllSettings()
	if o.insecure {
		settings["strictssl"] = false
	}
	cfg := client.ConfigFromSettings(settings)
	if cfg.URL == "" {
		return cfg, fmt.Errorf("%w: set --url, NGSI_URL or url in the config file", client.ErrMissingURL)
	}
	return cfg, nil
}

func (o *rootOptions) client(cmd *cobra.Command) (*client.Client, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	l := util.NewLogger(cmd.ErrOrStderr(), "ngsictl", o.verbosity)
	return client.New(cfg, client.WithLogger(l.Logger))
}

func (o *rootOptions) printer(cmd *cobra.Command) output.Printer {
	return output.Printer{Out: cmd.OutOrStdout(), Format: o.output}
}

// describe adds a hint to authentication failures.
func describe(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("%w (check --auth-token or NGSI_AUTH_TOKEN)", err)
	}
	return err
}
