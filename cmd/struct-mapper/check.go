package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"struct-mapper/mapper"
)

// defaultPairs maps every store model into the warehouse model of the same name.
var defaultPairs = []string{
	"store.Product=warehouse.Product",
	"store.Customer=warehouse.Customer",
	"store.Order=warehouse.Order",
	"store.OrderItem=warehouse.OrderItem",
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	var (
		pairs    []string
		ruleSets []string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compile the mappers of type pairs and report the pairs that cannot be mapped",
		Long: `Compile the mappers of type pairs and report the pairs that cannot be mapped.

Without --pair every store model is checked against the warehouse model of
the same name. Without --rule-set every built-in rule set is checked.`,
		Example: `struct-mapper check --strict
struct-mapper check --pair store.Order=warehouse.Order --rule-set CreateNew`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(pairs) == 0 {
				pairs = defaultPairs
			}

			keys, err := checkKeys(knownTypes(), pairs, ruleSets)
			if err != nil {
				return err
			}

			c, err := root.newContext(cmd)
			if err != nil {
				return err
			}

			if err := c.Precompile(keys...); err != nil {
				return err
			}

			for _, key := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "ok\t%s\n", key)
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&pairs, "pair", nil, "SOURCE=TARGET pair to check, e.g. store.Order=warehouse.Order")
	cmd.Flags().StringSliceVar(&ruleSets, "rule-set", nil, "rule sets to check: CreateNew, Merge or Overwrite")

	return cmd
}

func checkKeys(types mapper.TypeRegistry, pairs, ruleSetNames []string) ([]mapper.Pair, error) {
	ruleSets := mapper.RuleSets()

	if len(ruleSetNames) > 0 {
		ruleSets = ruleSets[:0]

		for _, name := range ruleSetNames {
			rs, err := mapper.RuleSetNamed(name)
			if err != nil {
				return nil, err
			}

			ruleSets = append(ruleSets, rs)
		}
	}

	keys := make([]mapper.Pair, 0, len(pairs)*len(ruleSets))

	for _, pair := range pairs {
		sourceName, targetName, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid pair %q: expected SOURCE=TARGET", pair)
		}

		source, err := lookupType(types, strings.TrimSpace(sourceName))
		if err != nil {
			return nil, err
		}

		target, err := lookupType(types, strings.TrimSpace(targetName))
		if err != nil {
			return nil, err
		}

		for _, rs := range ruleSets {
			keys = append(keys, mapper.Pair{Source: source, Target: target, RuleSet: rs.Name})
		}
	}

	return keys, nil
}
