package catalog

import (
	"reflect"
	"testing"
)

func TestSearchTokens(t *testing.T) {
	got := SearchTokens("CHÂTEAU EXAMPLE 2015 BORDEAUX FRANCE MERLOT")
	want := []string{"château", "example", "bordeaux", "france", "merlot"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestSearchTokensDropShortAndDedup(t *testing.T) {
	got := SearchTokens("La La CRU cru du 12 vin")
	// "la"/"du"/digits are too short or non-letters; "cru" dedups case-insensitively.
	want := []string{"cru", "vin"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestSearchTokensCap(t *testing.T) {
	got := SearchTokens("one two three four five sixx seven eight")
	if len(got) != maxSearchTokens {
		t.Fatalf("expected %d tokens got %v", maxSearchTokens, got)
	}
}

func TestSearchTokensEmpty(t *testing.T) {
	if got := SearchTokens("12 34 -- !!"); len(got) != 0 {
		t.Fatalf("expected no tokens got %v", got)
	}
}
