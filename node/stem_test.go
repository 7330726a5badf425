package node_test

import (
	"fmt"

	"struct-mapper/node"
)

func ExampleStem() {
	procedures := node.NewStem("map", nil)
	fmt.Println(procedures.Next(), procedures.Next(), procedures.Next())

	procedures = node.NewStem("map", map[string]struct{}{"map2": {}})
	fmt.Println(procedures.Next(), procedures.Next(), procedures.Next())

	// Output:
	// map1 map2 map3
	// map1 map3 map4
}
