package orders

import (
	"context"
	"errors"
	"testing"
)

func TestMemory_Save(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	order := &Order{
		CustomerName:  "Raj",
		CustomerPhone: "9876543210",
		Lines: []Line{
			{Name: "classic burger", Quantity: 2, Price: 150},
			{Name: "coke", Quantity: 1, Price: 50},
		},
		Total: 350,
	}

	if err := m.Save(context.Background(), order); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if order.ID != 1 {
		t.Errorf("ID = %d, want 1", order.ID)
	}
	if order.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	all := m.All()
	if len(all) != 1 {
		t.Fatalf("All() has %d orders, want 1", len(all))
	}
	if all[0].CustomerName != "Raj" || all[0].Total != 350 {
		t.Errorf("saved order = %+v", all[0])
	}
}

func TestMemory_SequentialIDs(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		o := &Order{CustomerName: "x", Lines: []Line{{Name: "coke", Quantity: 1, Price: 50}}, Total: 50}
		if err := m.Save(ctx, o); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
		if o.ID != int64(i) {
			t.Errorf("ID = %d, want %d", o.ID, i)
		}
	}
}

func TestMemory_RejectsEmptyOrder(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	err := m.Save(context.Background(), &Order{CustomerName: "Raj"})
	if !errors.Is(err, ErrEmptyOrder) {
		t.Errorf("Save() error = %v, want ErrEmptyOrder", err)
	}
	if len(m.All()) != 0 {
		t.Error("empty order must not be stored")
	}
}
