package node_test

import (
	"fmt"
	"reflect"

	"struct-mapper/node"
)

type (
	order    struct{ Items []item }
	item     struct{ Order *order }
	orderDTO struct{ Items []itemDTO }
	itemDTO  struct{ Order *orderDTO }
)

func ExampleDealer() {
	var (
		orders = node.StructPair{Src: reflect.TypeFor[order](), Dst: reflect.TypeFor[orderDTO]()}
		items  = node.StructPair{Src: reflect.TypeFor[item](), Dst: reflect.TypeFor[itemDTO]()}
	)

	var d node.Dealer

	d.Needs(orders.Src, orders.Dst)

	for {
		src, dst, ok := d.NextNeeds()
		if !ok {
			break
		}

		fmt.Println("build", src.Name(), "->", dst.Name())

		// each procedure asks for the pairs its members need
		d.Needs(items.Src, items.Dst)
		d.Needs(orders.Src, orders.Dst)
	}

	fmt.Println(d.IsDone(orders.Src, orders.Dst), d.IsDone(items.Src, items.Dst))

	d.Done(reflect.TypeFor[int](), reflect.TypeFor[string]())
	d.Needs(reflect.TypeFor[int](), reflect.TypeFor[string]())
	_, _, ok := d.NextNeeds()
	fmt.Println(ok)

	// Output:
	// build order -> orderDTO
	// build item -> itemDTO
	// true true
	// false
}
