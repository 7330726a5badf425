package main

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/spf13/cobra"

	"struct-mapper/mapper"
	"struct-mapper/options"
	"struct-mapper/store"
	"struct-mapper/warehouse"
)

type rootOptions struct {
	rulesFile string
	verbose   bool
	strict    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "struct-mapper",
		Short:        "Inspect and check the mappings between the store and warehouse models",
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.rulesFile, "rules", "", "YAML rule file to load before mapping")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
	flags.BoolVar(&opts.strict, "strict", false, "require every writable target member to be mapped")

	cmd.AddCommand(
		newPlanCmd(opts),
		newCheckCmd(opts),
		newTypesCmd(),
	)

	return cmd
}

// knownTypes lists the models rule files and arguments may name.
func knownTypes() mapper.TypeRegistry {
	return mapper.Types(
		store.Product{},
		store.Customer{},
		store.Order{},
		store.OrderItem{},
		warehouse.Address{},
		warehouse.Customer{},
		warehouse.Product{},
		warehouse.Order{},
		warehouse.OrderItem{},
	)
}

func (o *rootOptions) newContext(cmd *cobra.Command) (*mapper.Context, error) {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	opts := []options.Option{options.WithLogger(logger)}
	if o.strict {
		opts = append(opts, options.WithStrict())
	}

	c := mapper.New(opts...)

	if o.rulesFile != "" {
		if err := c.LoadRules(o.rulesFile, knownTypes()); err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}

		logger.Debug("rules loaded", slog.String("path", o.rulesFile), slog.Int("rules", len(c.Rules())))
	}

	return c, nil
}

func lookupType(types mapper.TypeRegistry, name string) (reflect.Type, error) {
	t, ok := types.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", mapper.ErrUnknownType, name)
	}

	return t, nil
}
