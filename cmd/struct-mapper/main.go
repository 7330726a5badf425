// Command struct-mapper inspects the mappings between the store and warehouse
// models.
//
// It prints mapping plans, exports them as rule files that pin the current
// member matches, and checks that type pairs can be mapped:
//
//	struct-mapper plan store.Order warehouse.Order --rule-set Merge
//	struct-mapper plan store.Customer warehouse.Customer --yaml > rules.yaml
//	struct-mapper check --rules rules.yaml --strict
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
