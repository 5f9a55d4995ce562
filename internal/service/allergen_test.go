package service

import (
	"reflect"
	"testing"
)

func TestCheckAllergens(t *testing.T) {
	tests := []struct {
		name     string
		declared []string
		items    []ItemAllergens
		want     ConflictReport
	}{
		{
			name:     "case and whitespace variance",
			declared: []string{"peanuts"},
			items:    []ItemAllergens{{Name: "Satay", Allergens: []string{"  Peanuts "}}},
			want:     ConflictReport{{Index: 0, Item: "Satay", Allergens: []string{"Peanuts"}}},
		},
		{
			name:     "disjoint",
			declared: []string{"shellfish"},
			items:    []ItemAllergens{{Name: "Latte", Allergens: []string{"dairy"}}},
			want:     nil,
		},
		{
			name:     "per item report",
			declared: []string{"gluten", " Dairy"},
			items: []ItemAllergens{
				{Name: "Toast", Allergens: []string{"gluten"}},
				{Name: "Apple", Allergens: nil},
				{Name: "Pizza", Allergens: []string{"GLUTEN", "dairy", "gluten"}},
			},
			want: ConflictReport{
				{Index: 0, Item: "Toast", Allergens: []string{"gluten"}},
				{Index: 2, Item: "Pizza", Allergens: []string{"GLUTEN", "dairy"}},
			},
		},
		{
			name:     "nothing declared",
			declared: []string{" ", ""},
			items:    []ItemAllergens{{Name: "Anything", Allergens: []string{"peanuts"}}},
			want:     nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckAllergens(tt.declared, tt.items)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUnionAllergens(t *testing.T) {
	got := unionAllergens([]string{"Peanuts", "soy"}, []string{"peanuts ", "Sesame", ""})
	want := []string{"Peanuts", "soy", "Sesame"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
