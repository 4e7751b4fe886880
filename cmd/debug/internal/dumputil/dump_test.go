package dumputil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in, outDir, suffix, want string
	}{
		{filepath.Join("a", "page.html"), "", "-view.txt", filepath.Join("a", "page-view.txt")},
		{filepath.Join("a", "page.html"), "out", "-model.xml", filepath.Join("out", "page-model.xml")},
		{"noext", "", ".txt", "noext.txt"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.in, tt.outDir, tt.suffix); got != tt.want {
			t.Errorf("OutputPath(%q, %q, %q) = %q, want %q", tt.in, tt.outDir, tt.suffix, got, tt.want)
		}
	}
}

func TestWriteOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "page.html")

	out, err := WriteOutput(in, "", "-view.txt", []byte("one"), false)
	if err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	if _, err := WriteOutput(in, "", "-view.txt", []byte("two"), false); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("WriteOutput() without overwrite error = %v", err)
	}
	if _, err := WriteOutput(in, "", "-view.txt", []byte("two"), true); err != nil {
		t.Fatalf("WriteOutput() with overwrite error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil || string(data) != "two" {
		t.Errorf("file content = %q, %v", data, err)
	}
}
