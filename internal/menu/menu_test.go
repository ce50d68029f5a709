package menu

import (
	"context"
	"testing"
)

func TestStatic_PreservesOrder(t *testing.T) {
	t.Parallel()

	src := []Item{
		{Name: "classic burger", Price: 150},
		{Name: "masala chai", Price: 40},
		{Name: "coke", Price: 50},
	}
	cat := NewStatic(src)

	items, err := cat.Items(context.Background())
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != len(src) {
		t.Fatalf("len = %d, want %d", len(items), len(src))
	}
	for i := range src {
		if items[i] != src[i] {
			t.Errorf("items[%d] = %+v, want %+v", i, items[i], src[i])
		}
	}
}

func TestStatic_CopiesInput(t *testing.T) {
	t.Parallel()

	src := []Item{{Name: "coke", Price: 50}}
	cat := NewStatic(src)
	src[0].Price = 999

	items, _ := cat.Items(context.Background())
	if items[0].Price != 50 {
		t.Errorf("price = %d, want 50 (mutation of the source slice leaked in)", items[0].Price)
	}
}

func TestStatic_EmptyMenu(t *testing.T) {
	t.Parallel()

	items, err := NewStatic(nil).Items(context.Background())
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len = %d, want 0", len(items))
	}
}
