package store

import "testing"

func TestToTSQuerySingleTerm(t *testing.T) {
	if got := toTSQuery("search"); got != "search" {
		t.Errorf("toTSQuery = %q, want %q", got, "search")
	}
}

func TestToTSQueryANDsBareTerms(t *testing.T) {
	if got, want := toTSQuery("quick search"), "quick & search"; got != want {
		t.Errorf("toTSQuery = %q, want %q", got, want)
	}
}

func TestToTSQueryExpandsSynonymGroup(t *testing.T) {
	got := toTSQuery("(ai OR artificial intelligence) search")
	want := "(ai | artificial & intelligence) & search"
	if got != want {
		t.Errorf("toTSQuery = %q, want %q", got, want)
	}
}

func TestToTSQueryHonorsTopLevelOR(t *testing.T) {
	got := toTSQuery("cats OR dogs")
	want := "cats | dogs"
	if got != want {
		t.Errorf("toTSQuery = %q, want %q", got, want)
	}
}

func TestToTSQueryStripsOperatorCharacters(t *testing.T) {
	got := toTSQuery("foo(bar)")
	want := "foo & bar"
	if got != want {
		t.Errorf("toTSQuery = %q, want %q", got, want)
	}
}

func TestToTSQueryEmptyInput(t *testing.T) {
	if got := toTSQuery(""); got != "" {
		t.Errorf("toTSQuery = %q, want empty", got)
	}
}
