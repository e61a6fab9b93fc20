package cmd

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/eslsoft/wordindex/internal/entity"
)

func Test_parseComma(t *testing.T) {
	cases := map[string]rune{"": ',', "csv": ',', "TAB": '\t', "\\t": '\t', "semicolon": ';'}
	for in, want := range cases {
		got, err := parseComma(in)
		if err != nil {
			t.Fatalf("parseComma(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("parseComma(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := parseComma("pipe"); err == nil {
		t.Fatal("expected error for unsupported delimiter")
	}
}

func Test_statesFromConfig(t *testing.T) {
	const key = "test.states"
	t.Cleanup(func() { viper.Set(key, nil) })

	viper.Set(key, []string{"published", " ", "New"})
	got, err := statesFromConfig(key)
	if err != nil {
		t.Fatal(err)
	}
	if want := []entity.State{entity.StatePublished, entity.StateNew}; !reflect.DeepEqual(got, want) {
		t.Fatalf("states = %v, want %v", got, want)
	}

	viper.Set(key, []string{"archived"})
	if _, err := statesFromConfig(key); err == nil {
		t.Fatal("expected error for unknown state")
	}
}

func Test_defaultExportFilename(t *testing.T) {
	if name := defaultExportFilename('\t', true); !strings.HasSuffix(name, ".tsv.gz") {
		t.Fatalf("unexpected name %q", name)
	}
	if name := defaultExportFilename(',', false); !strings.HasPrefix(name, "wordindex-export-") || !strings.HasSuffix(name, ".csv") {
		t.Fatalf("unexpected name %q", name)
	}
}

func TestRootCommands(t *testing.T) {
	want := []string{"export", "import", "migrate", "reindex", "serve"}
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		found := false
		for _, g := range got {
			if g == name {
				found = true
			}
		}
		if !found {
			t.Fatalf("command %q not registered; have %v", name, got)
		}
	}
}
