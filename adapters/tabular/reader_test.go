package tabular

import (
	"os"
	"path/filepath"
	"testing"

	"concord/domain/anchors"
	"concord/internal/errors"
)

func TestLoadCSV(t *testing.T) {
	loaded, err := Load(filepath.Join("testdata", "grid.csv"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Table.Len() != 9 {
		t.Errorf("loaded %d rows, expected 9", loaded.Table.Len())
	}
	if loaded.Checksum == "" {
		t.Error("expected a non-empty input checksum")
	}

	first := loaded.Table.Rows[0]
	if first.Group != anchors.GroupMW || first.Variant != "PW" || first.Value != 77.9 {
		t.Errorf("first row parsed as %+v", first)
	}

	for _, g := range anchors.RequiredGroups() {
		if n := len(loaded.Table.GroupValues(g)); n != 3 {
			t.Errorf("group %s has %d rows, expected 3", g, n)
		}
	}
}

func TestLoadChecksumTracksFileContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.csv")
	content := "group,value\nMW,75.1\nMW,76.2\nLMC,72.1\nLMC,72.9\nN4258,71.8\nN4258,72.6\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Same contents elsewhere hash identically; changed contents do not.
	other := filepath.Join(dir, "copy.csv")
	if err := os.WriteFile(other, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := Load(other)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if a.Checksum != b.Checksum {
		t.Error("identical contents produced different checksums")
	}

	if err := os.WriteFile(other, []byte(content+"MW,74.4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(other)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if a.Checksum == c.Checksum {
		t.Error("changed contents produced the same checksum")
	}
}

func TestLoadHeaderAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.csv")
	content := "anchor,relation,h0\nMW,PW,75.1\nMW,PL,76.2\nLMC,PW,72.1\nLMC,PL,72.9\nN4258,PW,71.8\nN4258,PL,72.6\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Table.Rows[1].Variant != "PL" {
		t.Errorf("relation column not mapped to variant: %+v", loaded.Table.Rows[1])
	}
}

func TestLoadRejections(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name string
		path string
		code string
	}{
		{
			"unsupported extension",
			write("grid.txt", "group,value\n"),
			errors.CodeInvalidInput,
		},
		{
			"missing file",
			filepath.Join(dir, "absent.csv"),
			errors.CodeIOError,
		},
		{
			"header without value column",
			write("noval.csv", "group,variant\nMW,PW\nMW,PL\n"),
			errors.CodeDataIntegrity,
		},
		{
			"unknown group label",
			write("badgroup.csv", "group,value\nM31,75.0\nMW,76.0\n"),
			errors.CodeDataIntegrity,
		},
		{
			"non-numeric value",
			write("badval.csv", "group,value\nMW,abc\nMW,76.0\n"),
			errors.CodeDataIntegrity,
		},
		{
			"missing required group",
			write("missing.csv", "group,value\nMW,75.0\nMW,76.0\nLMC,72.0\nLMC,73.0\n"),
			errors.CodeDataIntegrity,
		},
		{
			"no data rows",
			write("empty.csv", "group,value\n"),
			errors.CodeDataIntegrity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.GetCode(err) != tt.code {
				t.Errorf("code = %s, expected %s (err: %v)", errors.GetCode(err), tt.code, err)
			}
		})
	}
}
