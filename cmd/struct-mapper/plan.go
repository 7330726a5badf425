package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"struct-mapper/mapper"
)

func newPlanCmd(root *rootOptions) *cobra.Command {
	var (
		ruleSet string
		asYAML  bool
	)

	cmd := &cobra.Command{
		Use:   "plan SOURCE TARGET",
		Short: "Print how a source type is mapped into a target type",
		Example: `struct-mapper plan store.Order warehouse.Order
struct-mapper plan store.Customer warehouse.Customer --rule-set Merge --yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			types := knownTypes()

			source, err := lookupType(types, args[0])
			if err != nil {
				return err
			}

			target, err := lookupType(types, args[1])
			if err != nil {
				return err
			}

			rs, err := mapper.RuleSetNamed(ruleSet)
			if err != nil {
				return err
			}

			c, err := root.newContext(cmd)
			if err != nil {
				return err
			}

			if asYAML {
				data, err := c.ExportRules(source, target, rs)
				if err != nil {
					return err
				}

				_, err = cmd.OutOrStdout().Write(data)

				return err
			}

			text, err := c.Plan(source, target, rs)
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), text)

			return err
		},
	}

	cmd.Flags().StringVar(&ruleSet, "rule-set", mapper.CreateNew.Name, "rule set to plan with: CreateNew, Merge or Overwrite")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the plan as a rule file pinning the current matches")

	return cmd
}
