// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-seedshard.
//
// go-seedshard is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package secretfile reads and writes the plain text files that carry
// mnemonics and shards between seedshard runs.
//
// A file is UTF-8 text. Lines starting with '#' are header comments,
// blank lines are ignored and every other line is one mnemonic or one
// shard. Files are created with mode 0600 and directories with 0700.
package secretfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	// FilePerms is the mode of every file written.
	FilePerms = 0600

	// DirPerms is the mode of directories created for shard sets.
	DirPerms = 0700

	commentPrefix = "#"
)

// Kind labels the content of a file in its header.
type Kind string

const (
	KindMnemonic Kind = "mnemonic"
	KindShard    Kind = "shard"
)

var (
	// ErrEmpty is returned when a file holds no secret lines.
	ErrEmpty = errors.New("secretfile: no secret lines found")

	// ErrExists is returned when a write would replace an existing file.
	ErrExists = errors.New("secretfile: file already exists")
)

// File is a parsed secret file.
type File struct {
	// Comments holds the header lines with the leading '#' and one
	// following space removed.
	Comments []string

	// Lines holds the secret lines with surrounding whitespace trimmed.
	Lines []string
}

// Parse reads a secret file from r.
func Parse(r io.Reader) (*File, error) {
	f := &File{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, commentPrefix):
			f.Comments = append(f.Comments, strings.TrimPrefix(strings.TrimPrefix(line, commentPrefix), " "))
		default:
			f.Lines = append(f.Lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("secretfile: failed to read: %w", err)
	}
	return f, nil
}

// Read parses the file at path on fs. It fails with ErrEmpty when the file
// has no secret lines.
func Read(fs afero.Fs, path string) (*File, error) {
	fh, err := fs.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("secretfile: failed to open %s: %w", path, err)
	}
	defer fh.Close()

	f, err := Parse(fh)
	if err != nil {
		return nil, err
	}
	if len(f.Lines) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmpty, path)
	}
	return f, nil
}

// ReadLines returns the secret lines of every file in paths, in order.
func ReadLines(fs afero.Fs, paths ...string) ([]string, error) {
	var lines []string
	for _, p := range paths {
		f, err := Read(fs, p)
		if err != nil {
			return nil, err
		}
		lines = append(lines, f.Lines...)
	}
	return lines, nil
}

// Bytes renders f in file form.
func (f *File) Bytes() []byte {
	var b strings.Builder
	for _, c := range f.Comments {
		b.WriteString(commentPrefix)
		if c != "" {
			b.WriteString(" ")
			b.WriteString(c)
		}
		b.WriteString("\n")
	}
	if len(f.Comments) > 0 && len(f.Lines) > 0 {
		b.WriteString("\n")
	}
	for _, l := range f.Lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// Write stores f at path with FilePerms. An existing file is replaced only
// when overwrite is set.
func Write(fs afero.Fs, path string, f *File, overwrite bool) error {
	path = filepath.Clean(path)
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
		if ok, _ := afero.Exists(fs, path); ok {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}

	fh, err := fs.OpenFile(path, flags, FilePerms)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
		return fmt.Errorf("secretfile: failed to create %s: %w", path, err)
	}
	if _, err := fh.Write(f.Bytes()); err != nil {
		_ = fh.Close()
		return fmt.Errorf("secretfile: failed to write %s: %w", path, err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("secretfile: failed to close %s: %w", path, err)
	}
	// OpenFile does not change the mode of a file that already existed.
	if err := fs.Chmod(path, FilePerms); err != nil {
		return fmt.Errorf("secretfile: failed to set permissions on %s: %w", path, err)
	}
	return nil
}

// Header builds the standard comment block of a secret file.
func Header(kind Kind, created time.Time, extra ...string) []string {
	comments := []string{
		fmt.Sprintf("seedshard %s", kind),
		fmt.Sprintf("created: %s", created.UTC().Format(time.RFC3339)),
	}
	return append(comments, extra...)
}
