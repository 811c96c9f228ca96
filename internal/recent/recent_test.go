package recent

import (
	"context"
	"fmt"
	"reflect"
	"testing"
)

func TestAdd(t *testing.T) {
	full := make([]string, 0, MaxRecentSearches)
	for i := 0; i < MaxRecentSearches; i++ {
		full = append(full, fmt.Sprintf("term-%d", i))
	}

	tests := []struct {
		name string
		list []string
		term string
		want []string
	}{
		{"empty list", nil, "bad bunny", []string{"bad bunny"}},
		{"prepends new term", []string{"rosalia"}, "bad bunny", []string{"bad bunny", "rosalia"}},
		{"moves duplicate to front", []string{"a", "b", "c"}, "c", []string{"c", "a", "b"}},
		{"duplicate is case insensitive", []string{"Rosalia", "Karol G"}, "rosalia", []string{"rosalia", "Karol G"}},
		{"trims term", []string{"a"}, "  b  ", []string{"b", "a"}},
		{"blank term ignored", []string{"a"}, "   ", []string{"a"}},
		{
			name: "caps at ten",
			list: full,
			term: "new",
			want: append([]string{"new"}, full[:MaxRecentSearches-1]...),
		},
		{
			name: "duplicate in full list does not grow",
			list: full,
			term: "term-9",
			want: append([]string{"term-9"}, full[:MaxRecentSearches-1]...),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Add(tc.list, tc.term)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Add(%v, %q) = %v, want %v", tc.list, tc.term, got, tc.want)
			}
		})
	}
}

func TestAddDoesNotMutateInput(t *testing.T) {
	list := []string{"a", "b", "c"}
	_ = Add(list, "c")
	if !reflect.DeepEqual(list, []string{"a", "b", "c"}) {
		t.Fatalf("input mutated: %v", list)
	}
}

func TestAddNeverExceedsCap(t *testing.T) {
	var list []string
	for i := 0; i < 50; i++ {
		list = Add(list, fmt.Sprintf("q%d", i%13))
		if len(list) > MaxRecentSearches {
			t.Fatalf("list grew to %d entries", len(list))
		}
		if list[0] != fmt.Sprintf("q%d", i%13) {
			t.Fatalf("newest term not at front: %v", list)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Add(ctx, "user-1", "rosalia"); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	got, err := store.Add(ctx, "user-1", "karol g")
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if want := []string{"karol g", "rosalia"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	other, err := store.List(ctx, "user-2")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected owners to be isolated, got %v", other)
	}

	// the returned slice is a copy
	got[0] = "mutated"
	list, _ := store.List(ctx, "user-1")
	if list[0] != "karol g" {
		t.Fatalf("store exposed internal slice: %v", list)
	}

	if err := store.Clear(ctx, "user-1"); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	list, _ = store.List(ctx, "user-1")
	if len(list) != 0 {
		t.Fatalf("expected empty list after clear, got %v", list)
	}
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewMemoryStore().Add(ctx, "user-1", "x"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
