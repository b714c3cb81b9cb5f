package student

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var nameCollator = collate.New(language.English, collate.IgnoreCase, collate.Loose)

// FilterAndSort narrows and orders a roster snapshot. It is a pure function of
// (studs, qf): the input slice is never mutated and identical arguments yield
// identical output. Filters apply in order (search, class level, section,
// AND-combined), then the single requested sort; an empty sort key keeps
// insertion order.
func FilterAndSort(studs []Student, qf QueryFilter) []Student {
	out := make([]Student, 0, len(studs))

	search := strings.ToLower(qf.Search)
	for _, stud := range studs {
		if search != "" && !matchesSearch(stud, search) {
			continue
		}
		if qf.ClassLevel != "" && stud.ClassLevel != qf.ClassLevel {
			continue
		}
		if qf.Section != "" && stud.Section != qf.Section {
			continue
		}
		out = append(out, stud)
	}

	applySort(out, qf.SortKey)
	return out
}

func matchesSearch(stud Student, search string) bool {
	return strings.Contains(strings.ToLower(stud.FullName()), search) ||
		strings.Contains(strings.ToLower(stud.RollNo), search) ||
		strings.Contains(strings.ToLower(stud.AdmissionNo), search)
}

func applySort(studs []Student, key string) {
	switch key {
	case SortNameAsc:
		sort.SliceStable(studs, func(i, j int) bool { return compareNames(studs[i], studs[j]) < 0 })
	case SortNameDesc:
		sort.SliceStable(studs, func(i, j int) bool { return compareNames(studs[i], studs[j]) > 0 })
	case SortRollAsc:
		sort.SliceStable(studs, func(i, j int) bool { return naturalLess(studs[i].RollNo, studs[j].RollNo) })
	case SortRollDesc:
		sort.SliceStable(studs, func(i, j int) bool { return naturalLess(studs[j].RollNo, studs[i].RollNo) })
	case SortCreatedNewest:
		sort.SliceStable(studs, func(i, j int) bool { return studs[i].CreationSeq() > studs[j].CreationSeq() })
	case SortCreatedOldest:
		sort.SliceStable(studs, func(i, j int) bool { return studs[i].CreationSeq() < studs[j].CreationSeq() })
	}
}

func compareNames(a, b Student) int {
	return nameCollator.CompareString(a.FullName(), b.FullName())
}

// naturalLess compares strings treating digit runs as numbers, so "2" sorts
// before "10".
func naturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		if isDigit(a[0]) && isDigit(b[0]) {
			aNum, aRest := splitDigitRun(a)
			bNum, bRest := splitDigitRun(b)
			if aNum != bNum {
				return numLess(aNum, bNum)
			}
			a, b = aRest, bRest
			continue
		}
		ar, br := lowerByte(a[0]), lowerByte(b[0])
		if ar != br {
			return ar < br
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func lowerByte(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func splitDigitRun(s string) (string, string) {
	var i int
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return strings.TrimLeft(s[:i], "0"), s[i:]
}

// numLess compares two digit strings already stripped of leading zeros.
func numLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
