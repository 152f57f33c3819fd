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
	"github.com/jeremyhahn/go-seedshard/pkg/metrics"
	"github.com/jeremyhahn/go-seedshard/pkg/seed"
	"github.com/spf13/cobra"
)

// passphraseFlags are shared by every command that takes a passphrase.
type passphraseFlags struct {
	prompt bool
	env    string
}

func (p *passphraseFlags) register(cmd *cobra.Command, what string) {
	cmd.Flags().BoolVarP(&p.prompt, "passphrase", "p", false, "prompt for the "+what+" passphrase")
	cmd.Flags().StringVar(&p.env, "passphrase-env", "", "read the "+what+" passphrase from this environment variable")
	cmd.MarkFlagsMutuallyExclusive("passphrase", "passphrase-env")
}

func (a *app) seedCommand() *cobra.Command {
	var (
		file       string
		iterations int
		pass       passphraseFlags
	)
	cmd := &cobra.Command{
		Use:   "seed [word...]",
		Short: "Derive the 64-byte master seed of a mnemonic",
		Long: `Derive the BIP-39 master seed of a mnemonic with PBKDF2-HMAC-SHA512.

The mnemonic is read from --file, from the arguments or from stdin. An
optional passphrase is taken from a prompt (--passphrase) or from an
environment variable (--passphrase-env).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return observe(metrics.OpSeed, func() error {
				if !cmd.Flags().Changed("iterations") {
					iterations = a.cfg.Seed.Iterations
				}
				m, err := a.readMnemonic(args, file)
				if err != nil {
					return err
				}
				passphrase, err := a.passphrase(pass.prompt, pass.env, false)
				if err != nil {
					return err
				}

				hexSeed, err := a.deriver().ToHex(m, &seed.Params{
					Passphrase: passphrase,
					Iterations: iterations,
				})
				if err != nil {
					return err
				}
				a.logger.Debug("seed derived", "iterations", iterations, "passphrase", passphrase != "")
				a.warnSecret("seed")
				return a.printer.PrintSeed(hexSeed)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the mnemonic from this file")
	cmd.Flags().IntVar(&iterations, "iterations", seed.DefaultIterations, "PBKDF2 iterations")
	pass.register(cmd, "BIP-39")
	return cmd
}
