package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joelanford/ngsi-client-go/cmd/ngsictl/internal/output"
	"github.com/joelanford/ngsi-client-go/codec"
)

func newSaveCmd(o *rootOptions) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "save [id]",
		Short: "Create or update an entity",
		Long: `Save the fields of a JSON object as an entity. Fields holding arrays are
not supported by the broker mapping and are dropped. A random id is generated
when none is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseData(data, cmd.InOrStdin())
			if err != nil {
				return err
			}
			warnUnsupported(cmd.ErrOrStderr(), fields)

			id := uuid.NewString()
			if len(args) == 1 {
				id = args[0]
			}

			c, err := o.client(cmd)
			if err != nil {
				return err
			}
			if err := c.Save(cmd.Context(), id, fields); err != nil {
				return fmt.Errorf("save entity %q: %w", id, describe(err))
			}
			output.Success(cmd.OutOrStdout(), "saved entity %s", id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "{}", "entity fields as a JSON object, or - to read them from stdin")
	return cmd
}

func newGetCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client(cmd)
			if err != nil {
				return err
			}
			e, err := c.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get entity %q: %w", args[0], describe(err))
			}
			return o.printer(cmd).Print(e)
		},
	}
}

func newDeleteCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an entity",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client(cmd)
			if err != nil {
				return err
			}
			if err := c.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete entity %q: %w", args[0], describe(err))
			}
			output.Success(cmd.OutOrStdout(), "deleted entity %s", args[0])
			return nil
		},
	}
}

func newFetchCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "fetch",
		Aliases: []string{"list"},
		Short:   "Print every entity of the configured type",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client(cmd)
			if err != nil {
				return err
			}
			entities, err := c.Fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch entities: %w", describe(err))
			}
			return o.printer(cmd).Print(entities)
		},
	}
}

// parseData decodes the --data value. Numbers keep their exact text.
func parseData(data string, stdin io.Reader) (map[string]any, error) {
	var r io.Reader = strings.NewReader(data)
	if data == "-" {
		r = stdin
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("parse entity data: expected a JSON object: %w", err)
	}
	return fields, nil
}

func warnUnsupported(w io.Writer, fields map[string]any) {
	names := make([]string, 0, len(fields))
	for name, v := range fields {
		if _, ok := codec.KindOf(v); !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		output.Warn(w, "field %q has an unsupported type and will not be saved", name)
	}
}
