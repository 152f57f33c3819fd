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

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/jeremyhahn/go-seedshard/internal/secretfile"
	"github.com/jeremyhahn/go-seedshard/pkg/crypto/secure"
	"golang.org/x/term"
)

// stdinLines returns the secret lines piped on stdin. An interactive
// terminal is refused rather than waited on.
func (a *app) stdinLines(what string) ([]string, error) {
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return nil, fmt.Errorf("%w: no %s given; pass --file, arguments or pipe it on stdin", ErrInput, what)
	}
	f, err := secretfile.Parse(a.stdin)
	if err != nil {
		return nil, err
	}
	if len(f.Lines) == 0 {
		return nil, fmt.Errorf("%w: no %s given", ErrInput, what)
	}
	return f.Lines, nil
}

// readMnemonic takes the mnemonic from file, then args (joined by spaces),
// then stdin.
func (a *app) readMnemonic(args []string, file string) (string, error) {
	var lines []string
	switch {
	case file != "":
		f, err := secretfile.Read(a.fs, file)
		if err != nil {
			return "", err
		}
		lines = f.Lines
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		var err error
		if lines, err = a.stdinLines("mnemonic"); err != nil {
			return "", err
		}
	}
	if len(lines) != 1 {
		return "", fmt.Errorf("%w: expected one mnemonic, found %d lines", ErrInput, len(lines))
	}
	return lines[0], nil
}

// readShards collects shards from files and args, one per line or
// argument, falling back to stdin when neither is given.
func (a *app) readShards(args []string, files []string) ([]string, error) {
	var shards []string
	if len(files) > 0 {
		lines, err := secretfile.ReadLines(a.fs, files...)
		if err != nil {
			return nil, err
		}
		shards = append(shards, lines...)
	}
	shards = append(shards, args...)
	if len(shards) > 0 {
		return shards, nil
	}
	return a.stdinLines("shards")
}

// passphrase returns the passphrase selected by the flags: the value of
// the environment variable named by envName, an interactive prompt, or
// the empty passphrase.
func (a *app) passphrase(prompt bool, envName string, confirm bool) (string, error) {
	if envName != "" {
		p, ok := lookupEnv(a.getenv, envName)
		if !ok {
			return "", fmt.Errorf("%w: environment variable %s is not set", ErrInput, envName)
		}
		return p, nil
	}
	if !prompt {
		return "", nil
	}

	first, err := a.readPassword("Passphrase: ")
	if err != nil {
		return "", err
	}
	defer secure.Erase(first)
	if confirm {
		second, err := a.readPassword("Confirm passphrase: ")
		if err != nil {
			return "", err
		}
		defer secure.Erase(second)
		if string(first) != string(second) {
			return "", fmt.Errorf("%w: passphrases do not match", ErrInput)
		}
	}
	return string(first), nil
}

func lookupEnv(getenv func(string) string, name string) (string, bool) {
	if v := getenv(name); v != "" {
		return v, true
	}
	return "", false
}

// terminalPasswordReader prompts on w and reads without echo from stdin,
// or from the controlling terminal when stdin is piped.
func terminalPasswordReader(w io.Writer) func(prompt string) ([]byte, error) {
	return func(prompt string) ([]byte, error) {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			ttyPath := "/dev/tty"
			if runtime.GOOS == "windows" {
				ttyPath = "CON"
			}
			tty, err := os.Open(ttyPath)
			if err != nil {
				return nil, fmt.Errorf("cannot read passphrase: no terminal available: %w", err)
			}
			defer tty.Close()
			fd = int(tty.Fd())
			if !term.IsTerminal(fd) {
				return nil, fmt.Errorf("cannot read passphrase: %s is not a terminal", ttyPath)
			}
		}

		fmt.Fprint(w, prompt)
		passphrase, err := term.ReadPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return nil, fmt.Errorf("failed to read passphrase: %w", err)
		}
		return passphrase, nil
	}
}

// warnSecret tells the user that secret material follows on stdout.
func (a *app) warnSecret(what string) {
	fmt.Fprintln(a.stderr, color.YellowString("!")+" The "+what+" below is secret. Write it down offline and clear your terminal.")
}

// reportWritten notes files that now hold secret material.
func (a *app) reportWritten(paths ...string) {
	for _, p := range paths {
		fmt.Fprintln(a.stderr, color.GreenString("✓")+" wrote "+color.CyanString(p))
	}
}
