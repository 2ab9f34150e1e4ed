package query

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		term string
		want Classification
	}{
		{"2025", Classification{Kind: ClassYear, Year: 2025, Term: "2025"}},
		{"2024-12", Classification{Kind: ClassYearMonth, Year: 2024, Month: 12, Term: "2024-12"}},
		{"2024/07", Classification{Kind: ClassYearMonth, Year: 2024, Month: 7, Term: "2024/07"}},
		{"2024-13", Classification{Kind: ClassText, Term: "2024-13"}},
		{"2024-12-25", Classification{Kind: ClassDate, Year: 2024, Month: 12, Day: 25, Term: "2024-12-25"}},
		{"25/12/2024", Classification{Kind: ClassDate, Year: 2024, Month: 12, Day: 25, Term: "25/12/2024"}},
		{"2024/12/25", Classification{Kind: ClassDate, Year: 2024, Month: 12, Day: 25, Term: "2024/12/25"}},
		{"31/02/2024", Classification{Kind: ClassText, Term: "31/02/2024"}},
		{"2024-12-25 10:30", Classification{Kind: ClassDateTime, Year: 2024, Month: 12, Day: 25, Hour: 10, Minute: 30, Term: "2024-12-25 10:30"}},
		{"2024-12-25T10:30:15", Classification{Kind: ClassDateTime, Year: 2024, Month: 12, Day: 25, Hour: 10, Minute: 30, Second: 15, Term: "2024-12-25T10:30:15"}},
		{"2024-12-25 99:30", Classification{Kind: ClassText, Term: "2024-12-25 99:30"}},
		{"123456", Classification{Kind: ClassNumeric, Number: 123456, Term: "123456"}},
		{"7", Classification{Kind: ClassNumeric, Number: 7, Term: "7"}},
		{"vaca", Classification{Kind: ClassText, Term: "vaca"}},
		{"", Classification{Kind: ClassText, Term: ""}},
	}

	for _, tc := range cases {
		got := Classify(tc.term)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Classify(%q) mismatch (-want +got):\n%s", tc.term, diff)
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	for _, term := range []string{"2025", "25/12/2024", "vaca", "2024-12-25 10:30"} {
		first := Classify(term)
		for i := 0; i < 10; i++ {
			if got := Classify(term); got != first {
				t.Fatalf("Classify(%q) not deterministic: %+v vs %+v", term, first, got)
			}
		}
	}
}

func TestClassifyFourDigitsIsYearNotNumeric(t *testing.T) {
	got := Classify("2025")
	if got.Kind != ClassYear {
		t.Fatalf("expected Year for 4-digit term, got %+v", got)
	}
}
