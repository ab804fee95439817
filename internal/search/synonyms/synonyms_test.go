package synonyms

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func writeDict(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "synonyms.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write dict: %v", err)
	}
	return path
}

func TestExpandGroupsSynonyms(t *testing.T) {
	path := writeDict(t, `{"car": ["automobile", "vehicle"]}`)
	e := New(path, zerolog.Nop())

	got := e.Expand("car")
	want := "(automobile OR car OR vehicle)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExpandBareTokenWhenNoSynonyms(t *testing.T) {
	path := writeDict(t, `{}`)
	e := New(path, zerolog.Nop())

	if got := e.Expand("bicycle"); got != "bicycle" {
		t.Errorf("got %q, want bicycle", got)
	}
}

func TestExpandJoinsMultipleTerms(t *testing.T) {
	path := writeDict(t, `{"car": ["auto"]}`)
	e := New(path, zerolog.Nop())

	got := e.Expand("red car")
	want := "red (auto OR car)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExpandDegradesToIdentityOnMissingFile(t *testing.T) {
	e := New("/nonexistent/path/synonyms.json", zerolog.Nop())
	if got := e.Expand("car truck"); got != "car truck" {
		t.Errorf("got %q, want car truck", got)
	}
}

func TestExpandDegradesToIdentityOnMalformedFile(t *testing.T) {
	path := writeDict(t, `not valid json`)
	e := New(path, zerolog.Nop())
	if got := e.Expand("car"); got != "car" {
		t.Errorf("got %q, want car", got)
	}
}

func TestExpandEmptyQuery(t *testing.T) {
	path := writeDict(t, `{}`)
	e := New(path, zerolog.Nop())
	if got := e.Expand(""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
