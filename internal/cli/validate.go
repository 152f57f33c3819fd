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

	"github.com/jeremyhahn/go-seedshard/pkg/metrics"
	"github.com/jeremyhahn/go-seedshard/pkg/mnemonic"
	"github.com/spf13/cobra"
)

func (a *app) validateCommand() *cobra.Command {
	var (
		file string
		lang string
	)
	cmd := &cobra.Command{
		Use:   "validate [word...]",
		Short: "Validate a BIP-39 mnemonic",
		Long: `Validate a BIP-39 mnemonic: word count, wordlist membership and checksum.

The mnemonic is read from --file, from the arguments or from stdin. The
exit status is 1 when the mnemonic is invalid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return observe(metrics.OpValidate, func() error {
				l, err := mnemonic.ParseLanguage(lang)
				if err != nil {
					return err
				}
				m, err := a.readMnemonic(args, file)
				if err != nil {
					return err
				}

				codec := a.codec(nil)
				result := &ValidationResult{
					Valid:     codec.Validate(m, l),
					WordCount: len(strings.Fields(m)),
				}
				switch {
				case result.Valid && l == mnemonic.LanguageAuto:
					detected, err := codec.Detect(m)
					if err != nil {
						return err
					}
					result.Language = detected.String()
				case result.Valid:
					result.Language = l.String()
				default:
					result.Reason = invalidReason(codec, m, l)
				}

				a.logger.Debug("mnemonic validated", "valid", result.Valid, "words", result.WordCount)
				if err := a.printer.PrintValidation(result); err != nil {
					return err
				}
				if !result.Valid {
					return &exitError{code: 1}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the mnemonic from this file")
	cmd.Flags().StringVarP(&lang, "language", "l", string(mnemonic.LanguageAuto), "wordlist language, or auto to detect")
	return cmd
}

// invalidReason names the defect without echoing any word.
func invalidReason(codec *mnemonic.Codec, m string, lang mnemonic.Language) string {
	detected, err := codec.Detect(m)
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("valid %s mnemonic, not %s", detected, lang)
}
