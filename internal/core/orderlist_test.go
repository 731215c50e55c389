package core

import (
	"reflect"
	"testing"
)

func TestMoveIndex(t *testing.T) {
	cases := []struct {
		name    string
		in      []string
		from    int
		to      int
		want    []string
		wantErr bool
	}{
		{name: "to front", in: []string{"a", "b", "c"}, from: 2, to: 0, want: []string{"c", "a", "b"}},
		{name: "to back", in: []string{"a", "b", "c"}, from: 0, to: 2, want: []string{"b", "c", "a"}},
		{name: "middle", in: []string{"a", "b", "c", "d"}, from: 1, to: 2, want: []string{"a", "c", "b", "d"}},
		{name: "same index", in: []string{"a", "b"}, from: 1, to: 1, want: []string{"a", "b"}},
		{name: "from out of range", in: []string{"a"}, from: 1, to: 0, wantErr: true},
		{name: "to out of range", in: []string{"a"}, from: 0, to: 1, wantErr: true},
		{name: "negative from", in: []string{"a"}, from: -1, to: 0, wantErr: true},
		{name: "empty", in: nil, from: 0, to: 0, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := moveIndex(tc.in, tc.from, tc.to)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestMoveIndexDoesNotMutateInput(t *testing.T) {
	in := []string{"a", "b", "c"}
	if _, err := moveIndex(in, 2, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(in, []string{"a", "b", "c"}) {
		t.Fatalf("input mutated: %v", in)
	}
}

func TestInsertAtClampsIndex(t *testing.T) {
	cases := []struct {
		name  string
		index int
		want  []string
	}{
		{name: "front", index: 0, want: []string{"x", "a", "b"}},
		{name: "middle", index: 1, want: []string{"a", "x", "b"}},
		{name: "end", index: 2, want: []string{"a", "b", "x"}},
		{name: "past end clamps", index: 99, want: []string{"a", "b", "x"}},
		{name: "negative clamps", index: -3, want: []string{"x", "a", "b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := insertAt([]string{"a", "b"}, "x", tc.index)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestRemoveID(t *testing.T) {
	got, found := removeID([]string{"a", "b", "c"}, "b")
	if !found {
		t.Fatal("expected b to be found")
	}
	if !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("got %v", got)
	}

	same, found := removeID([]string{"a"}, "missing")
	if found {
		t.Fatal("did not expect missing to be found")
	}
	if !reflect.DeepEqual(same, []string{"a"}) {
		t.Fatalf("got %v", same)
	}
}

func TestSwapAt(t *testing.T) {
	items := []string{"a", "b", "c"}
	if err := swapAt(items, 0, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(items, []string{"c", "b", "a"}) {
		t.Fatalf("got %v", items)
	}
	if err := swapAt(items, 0, 3); err == nil {
		t.Fatal("expected out of range error")
	}
	if err := swapAt(items, -1, 0); err == nil {
		t.Fatal("expected out of range error")
	}
}
