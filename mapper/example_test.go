package mapper_test

import (
	"errors"
	"fmt"
	"reflect"

	"struct-mapper/mapper"
	"struct-mapper/store"
)

type customerCard struct {
	ID    int64
	Email string
	Name  string
}

type orderSummary struct {
	ID     string
	Status string
	Items  []itemSummary
}

type itemSummary struct {
	Name     string
	Quantity int
}

func ExampleMap() {
	c := mapper.New()

	order := store.Order{
		ID:     42,
		Status: store.StatusPaid,
		Items: []store.OrderItem{
			{Name: "pen", Quantity: 3},
			{Name: "ink", Quantity: 1},
		},
	}

	summary, err := mapper.Map[orderSummary](c, order)
	if err != nil {
		panic(err)
	}

	fmt.Printf("%+v\n", summary)
	// Output: {ID:42 Status:PAID Items:[{Name:pen Quantity:3} {Name:ink Quantity:1}]}
}

func ExampleMapOnTo() {
	c := mapper.New()

	card := customerCard{Email: "kept@example.com"}

	err := mapper.MapOnTo(c, store.Customer{ID: 7, Email: "new@example.com"}, &card)
	if err != nil {
		panic(err)
	}

	fmt.Println(card.ID, card.Email)
	// Output: 7 kept@example.com
}

func ExampleMapMember() {
	c := mapper.New()

	err := c.Add(
		mapper.MapMember(mapper.Between[store.Customer, customerCard](), "Name", "FullName"),
		mapper.Ignore(mapper.To[customerCard](), "Email"),
	)
	if err != nil {
		panic(err)
	}

	card, err := mapper.Map[customerCard](c, store.Customer{ID: 1, Email: "ann@example.com", FullName: "Ann Lee"})
	if err != nil {
		panic(err)
	}

	fmt.Printf("%+v\n", card)
	// Output: {ID:1 Email: Name:Ann Lee}
}

func ExampleContext_Add_conflict() {
	c := mapper.New()
	scope := mapper.Between[store.Customer, customerCard]()

	err := c.Add(
		mapper.Ignore(scope, "Name"),
		mapper.MapMember(scope, "Name", "FullName"),
	)

	fmt.Println(errors.Is(err, mapper.ErrConfigurationConflict))
	// Output: true
}

func ExampleContext_Plan() {
	c := mapper.New()

	err := c.Add(mapper.MapMember(mapper.Between[store.Customer, customerCard](), "Name", "FullName"))
	if err != nil {
		panic(err)
	}

	plan, err := c.Plan(reflect.TypeFor[store.Customer](), reflect.TypeFor[customerCard](), mapper.CreateNew)
	if err != nil {
		panic(err)
	}

	fmt.Print(plan)
	// Output:
	// Map store.Customer -> mapper_test.customerCard
	// Rule Set: CreateNew
	//   ID <- convention ID
	//   Email <- convention Email
	//   Name <- member FullName
}

func Example_dictionary() {
	c := mapper.New()

	card, err := mapper.Map[customerCard](c, map[string]any{
		"id":    int64(3),
		"EMAIL": "bo@example.com",
		"name":  "Bo",
	})
	if err != nil {
		panic(err)
	}

	fmt.Printf("%+v\n", card)
	// Output: {ID:3 Email:bo@example.com Name:Bo}
}
