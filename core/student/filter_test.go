package student

import (
	"reflect"
	"testing"
	"time"
)

func stud(id, first, last, roll, adm, level, section string) Student {
	return Student{
		ID:          id,
		FirstName:   first,
		LastName:    last,
		RollNo:      roll,
		AdmissionNo: adm,
		ClassLevel:  level,
		Section:     section,
		DateOfBirth: time.Date(2015, time.May, 1, 0, 0, 0, 0, time.UTC),
	}
}

func ids(studs []Student) []string {
	out := make([]string, 0, len(studs))
	for _, s := range studs {
		out = append(out, s.ID)
	}
	return out
}

func TestFilterAndSort(t *testing.T) {
	anna := stud("1", "Anna", "Mwangi", "1", "ADM001", "5", "A")
	hannah := stud("2", "Hannah", "Otieno", "2", "ADM002", "5", "B")
	brian := stud("3", "Brian", "Kamau", "10", "ADM010", "6", "A")
	chris := stud("4", "Chris", "Omondi", "3", "ADM003", "5", "A")
	roster := []Student{anna, hannah, brian, chris}

	tests := []struct {
		name string
		qf   QueryFilter
		want []string
	}{
		{name: "no filters keeps insertion order", want: []string{"1", "2", "3", "4"}},
		{name: "search matches substring of full name", qf: QueryFilter{Search: "ann"}, want: []string{"1", "2"}},
		{name: "search matches roll number", qf: QueryFilter{Search: "10"}, want: []string{"3"}},
		{name: "search matches admission number", qf: QueryFilter{Search: "adm003"}, want: []string{"4"}},
		{name: "search no match", qf: QueryFilter{Search: "zzz"}, want: []string{}},
		{name: "class level", qf: QueryFilter{ClassLevel: "5"}, want: []string{"1", "2", "4"}},
		{name: "section", qf: QueryFilter{Section: "A"}, want: []string{"1", "3", "4"}},
		{name: "class level and section", qf: QueryFilter{ClassLevel: "5", Section: "A"}, want: []string{"1", "4"}},
		{name: "search and class level", qf: QueryFilter{Search: "ann", ClassLevel: "5"}, want: []string{"1", "2"}},
		{name: "sort name-asc", qf: QueryFilter{SortKey: SortNameAsc}, want: []string{"1", "3", "4", "2"}},
		{name: "sort name-desc", qf: QueryFilter{SortKey: SortNameDesc}, want: []string{"2", "4", "3", "1"}},
		{name: "sort roll-asc is numeric-aware", qf: QueryFilter{SortKey: SortRollAsc}, want: []string{"1", "2", "4", "3"}},
		{name: "sort roll-desc", qf: QueryFilter{SortKey: SortRollDesc}, want: []string{"3", "4", "2", "1"}},
		{name: "sort created-newest", qf: QueryFilter{SortKey: SortCreatedNewest}, want: []string{"4", "3", "2", "1"}},
		{name: "sort created-oldest", qf: QueryFilter{SortKey: SortCreatedOldest}, want: []string{"1", "2", "3", "4"}},
		{name: "unknown sort key keeps insertion order", qf: QueryFilter{SortKey: "lol"}, want: []string{"1", "2", "3", "4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterAndSort(roster, tt.qf)
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("FilterAndSort() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestFilterAndSortIsPure(t *testing.T) {
	roster := []Student{
		stud("1", "Zoe", "Njeri", "2", "ADM002", "5", "A"),
		stud("2", "Ali", "Hassan", "10", "ADM010", "5", "A"),
		stud("3", "Ben", "Odhiambo", "1", "ADM001", "5", "A"),
	}
	orig := make([]Student, len(roster))
	copy(orig, roster)

	qf := QueryFilter{SortKey: SortRollAsc}

	first := FilterAndSort(roster, qf)
	second := FilterAndSort(roster, qf)

	if !reflect.DeepEqual(roster, orig) {
		t.Error("FilterAndSort() mutated its input")
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("FilterAndSort() is not deterministic")
	}
	// applying the same sort to an already sorted snapshot is a no-op
	if again := FilterAndSort(first, qf); !reflect.DeepEqual(again, first) {
		t.Error("FilterAndSort() is not idempotent")
	}
}

func TestNaturalLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"2", "10", true},
		{"10", "2", false},
		{"1", "2", true},
		{"2", "2", false},
		{"A2", "a10", true},
		{"B1", "a2", false},
		{"007", "8", true},
		{"R10a", "R10b", true},
		{"", "1", true},
	}
	for _, tt := range tests {
		if got := naturalLess(tt.a, tt.b); got != tt.want {
			t.Errorf("naturalLess(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
