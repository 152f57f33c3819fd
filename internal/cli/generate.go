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
	"strings"

	"github.com/jeremyhahn/go-seedshard/internal/secretfile"
	"github.com/jeremyhahn/go-seedshard/pkg/metrics"
	"github.com/jeremyhahn/go-seedshard/pkg/mnemonic"
	"github.com/spf13/cobra"
)

func (a *app) generateCommand() *cobra.Command {
	var (
		words int
		lang  string
		out   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new BIP-39 mnemonic",
		Long: `Generate a new BIP-39 mnemonic from the configured entropy source.

Supported word counts: 12, 15, 18, 21 and 24 (128 to 256 bits of entropy).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return observe(metrics.OpGenerate, func() error {
				if !cmd.Flags().Changed("words") {
					words = a.cfg.Mnemonic.WordCount
				}
				l, err := language(lang, a.cfg.Mnemonic.Language)
				if err != nil {
					return err
				}
				l = concrete(l)

				gen, err := a.generator()
				if err != nil {
					return err
				}
				defer gen.Close()

				m, err := a.codec(gen).Generate(l, words)
				if err != nil {
					return err
				}
				metrics.RecordMnemonic(l.String())
				a.logger.Info("mnemonic generated", "words", words, "language", l.String())

				if out != "" {
					if err := secretfile.WriteMnemonic(a.fs, out, m, l.String(), force); err != nil {
						return err
					}
					a.reportWritten(out)
					return a.printer.PrintFiles([]string{out})
				}
				a.warnSecret("mnemonic")
				return a.printer.PrintMnemonic(&MnemonicResult{
					Mnemonic:  m,
					WordCount: words,
					Language:  l.String(),
				})
			})
		},
	}
	cmd.Flags().IntVarP(&words, "words", "w", mnemonic.DefaultWordCount,
		fmt.Sprintf("number of words (%s)", joinInts(mnemonic.WordCounts)))
	cmd.Flags().StringVarP(&lang, "language", "l", "", "wordlist language (default from config)")
	cmd.Flags().StringVar(&out, "out", "", "write the mnemonic to this file (mode 0600) instead of stdout")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing --out file")
	return cmd
}

func joinInts(ns []int) string {
	s := make([]string, len(ns))
	for i, n := range ns {
		s[i] = fmt.Sprint(n)
	}
	return strings.Join(s, ", ")
}
