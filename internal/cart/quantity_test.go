package cart

import (
	"testing"

	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
)

func TestParseQuantity(t *testing.T) {
	valid := map[string]int{"1": 1, " 12 ": 12, "+3": 3}
	for input, want := range valid {
		got, err := ParseQuantity(input)
		if err != nil {
			t.Fatalf("ParseQuantity(%q) unexpected error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseQuantity(%q) = %d, want %d", input, got, want)
		}
	}

	for _, input := range []string{"", "  ", "abc", "2.5", "1.0", "0", "-4", "1e3", "99999999999999999999"} {
		if _, err := ParseQuantity(input); !pkgerrors.HasCode(err, pkgerrors.CodeInvalidQuantity) {
			t.Fatalf("ParseQuantity(%q) expected invalid quantity, got %v", input, err)
		}
	}
}
