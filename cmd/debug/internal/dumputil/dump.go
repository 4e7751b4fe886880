// Package dumputil provides shared output helpers for debug tools. Dumps are
// written next to the input file or into requested directory as
// <stem><suffix>.
package dumputil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputPath returns <stem><suffix> in either the input file's directory or outDir.
func OutputPath(inPath, outDir, suffix string) string {
	base := filepath.Base(inPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	dir := filepath.Dir(inPath)
	if outDir != "" {
		dir = outDir
	}
	return filepath.Join(dir, stem+suffix)
}

// WriteOutput writes data to OutputPath refusing to replace existing file
// unless overwrite is set.
func WriteOutput(inPath, outDir, suffix string, data []byte, overwrite bool) (string, error) {
	outPath := OutputPath(inPath, outDir, suffix)

	if _, err := os.Stat(outPath); err == nil {
		if !overwrite {
			return "", fmt.Errorf("output file already exists: %s (use -overwrite)", outPath)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", err
	}
	return outPath, nil
}
