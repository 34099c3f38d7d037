// Package themefs builds the on-disk theme-info/theme-data/manpages
// tree: recursive directory construction, info-file writing, and the
// manpage writer with its gzip sibling.
package themefs

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/pgzip"

	"github.com/clitheme/clitheme/internal/strutil"
)

// RecursiveMkdir builds the directory chain for name (whitespace-split)
// except the last segment, under base. It fails if any intermediate
// segment collides with an existing regular file.
func RecursiveMkdir(base, name string) (string, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("recursive mkdir: base %q: %w", base, err)
	}
	parts := strutil.SplitWhitespace(name)
	if len(parts) == 0 {
		return base, nil
	}
	dir := base
	for _, p := range parts[:len(parts)-1] {
		dir = filepath.Join(dir, p)
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return "", fmt.Errorf("recursive mkdir: %q exists and is not a directory", dir)
			}
			continue
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("recursive mkdir: stat %q: %w", dir, err)
		}
		if err := os.Mkdir(dir, 0o755); err != nil {
			return "", fmt.Errorf("recursive mkdir: %w", err)
		}
	}
	return dir, nil
}

// AddEntry ensures the subdirectory chain for name exists under base,
// then writes content+"\n" to base/<name-parts.../>. A collision with
// an existing directory at the final path is an error; overwriting an
// existing file entry is a warning, not an error.
func AddEntry(base, name, content string) error {
	parts := strutil.SplitWhitespace(name)
	if len(parts) == 0 {
		return fmt.Errorf("add entry: empty name")
	}
	dir, err := RecursiveMkdir(base, name)
	if err != nil {
		return err
	}
	target := filepath.Join(dir, parts[len(parts)-1])

	if info, err := os.Stat(target); err == nil {
		if info.IsDir() {
			return fmt.Errorf("add entry: %q is a directory", target)
		}
		slog.Warn("overwriting existing entry", "path", target)
	}

	if err := os.WriteFile(target, []byte(content+"\n"), 0o644); err != nil {
		return fmt.Errorf("add entry: write %q: %w", target, err)
	}
	return nil
}

// WriteInfofile writes one info file at base/name, warning instead of
// failing on overwrite, matching spec §4.6.
func WriteInfofile(base, name, content string) error {
	target := filepath.Join(base, name)
	if _, err := os.Stat(target); err == nil {
		slog.Warn("overwriting existing info file", "path", target)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("write infofile: mkdir: %w", err)
	}
	if err := os.WriteFile(target, []byte(content+"\n"), 0o644); err != nil {
		return fmt.Errorf("write infofile: %w", err)
	}
	return nil
}

// WriteManpageFile writes both the plain file at path and a gzip
// sibling at path+".gz". The gzip sibling uses pgzip at default
// compression, producing standard (non-multistream-required) gzip
// framing readable by any gzip decoder.
func WriteManpageFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write manpage: mkdir: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write manpage: %w", err)
	}

	var buf bytes.Buffer
	gw, err := pgzip.NewWriterLevel(&buf, pgzip.DefaultCompression)
	if err != nil {
		return fmt.Errorf("write manpage: gzip writer: %w", err)
	}
	if _, err := gw.Write(content); err != nil {
		gw.Close()
		return fmt.Errorf("write manpage: gzip write: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("write manpage: gzip close: %w", err)
	}

	if err := os.WriteFile(path+".gz", buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write manpage: write gzip sibling: %w", err)
	}
	return nil
}
