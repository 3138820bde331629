package copperhead

import (
	"strings"
	"testing"

	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/typesystem"
	"golang.org/x/tools/txtar"
)

func TestScenarios(t *testing.T) {
	ar, err := txtar.ParseFile("testdata/scenarios.txtar")
	if err != nil {
		t.Fatal(err)
	}
	files := make(map[string]string, len(ar.Files))
	var names []string
	for _, f := range ar.Files {
		files[f.Name] = strings.TrimSpace(string(f.Data))
		if name, ok := strings.CutSuffix(f.Name, ".ch"); ok {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		t.Fatal("no scenarios")
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			opts := Options{Quiet: true}
			if spec, ok := files[name+".entry"]; ok {
				entry, args, _ := strings.Cut(spec, ":")
				types, err := typesystem.ParseTypeList(args)
				if err != nil {
					t.Fatalf("entry %q: %v", spec, err)
				}
				opts.Entries = map[string][]typesystem.Type{strings.TrimSpace(entry): types}
			}

			res, err := Compile(files[name+".ch"]+"\n", opts)
			if code, ok := files[name+".error"]; ok {
				if !diagnostics.HasCode(err, diagnostics.ErrorCode(code)) {
					t.Fatalf("expected %s, got %v", code, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got, want := res.Type.String(), files[name+".type"]; got != want {
				t.Errorf("got %s, want %s", got, want)
			}
		})
	}
}
