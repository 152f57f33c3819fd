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
	"strings"

	"github.com/jeremyhahn/go-seedshard/internal/secretfile"
	"github.com/jeremyhahn/go-seedshard/pkg/metrics"
	"github.com/jeremyhahn/go-seedshard/pkg/shard"
	"github.com/spf13/cobra"
)

func (a *app) shardCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shard",
		Short: "Split mnemonics into SLIP-39 shards and combine them",
		Long: `Split a mnemonic into a SLIP-39 shard set with a two-level threshold and
recover it from any qualifying subset.

Group configurations:
  3-of-5                     one group, any 3 of 5 shards
  2:(2-of-3,3-of-5,1-of-1)   any 2 of the 3 groups, each meeting its own threshold`,
	}
	cmd.AddCommand(
		a.shardCreateCommand(),
		a.shardCombineCommand(),
		a.shardValidateCommand(),
		a.shardInfoCommand(),
	)
	return cmd
}

func (a *app) shardCreateCommand() *cobra.Command {
	var (
		groups string
		file   string
		outDir string
		force  bool
		pass   passphraseFlags
	)
	cmd := &cobra.Command{
		Use:   "create [word...]",
		Short: "Split a mnemonic into a shard set",
		Long: `Split a mnemonic into a SLIP-39 shard set.

The mnemonic is read from --file, from the arguments or from stdin. With
--out-dir every shard is written to its own file (mode 0600) named
shard-gGG-mMM.txt; otherwise the set is printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return observe(metrics.OpShardCreate, func() error {
				if groups == "" {
					groups = a.cfg.Shard.Groups
				}
				cfg, err := shard.ParseGroupConfig(groups)
				if err != nil {
					return err
				}
				m, err := a.readMnemonic(args, file)
				if err != nil {
					return err
				}
				passphrase, err := a.passphrase(pass.prompt, pass.env, true)
				if err != nil {
					return err
				}

				set, err := a.engine(passphrase, "").CreateGroups(m, cfg)
				if err != nil {
					return err
				}
				metrics.RecordShards(metrics.OpShardCreate, cfg.ShareCount())
				a.logger.Info("shard set created", "config", cfg.String(), "shards", cfg.ShareCount())

				if outDir != "" {
					paths, err := secretfile.WriteShardSet(a.fs, outDir, set, cfg, force)
					if err != nil {
						return err
					}
					a.reportWritten(paths...)
					return a.printer.PrintFiles(paths)
				}
				a.warnSecret("shard set")
				return a.printer.PrintShards(set, cfg)
			})
		},
	}
	cmd.Flags().StringVarP(&groups, "groups", "g", "", `group configuration, e.g. "3-of-5" or "2:(2-of-3,3-of-5)" (default from config)`)
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the mnemonic from this file")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "write one file per shard into this directory")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing shard files")
	pass.register(cmd, "SLIP-39")
	return cmd
}

func (a *app) shardCombineCommand() *cobra.Command {
	var (
		files []string
		lang  string
		out   string
		force bool
		pass  passphraseFlags
	)
	cmd := &cobra.Command{
		Use:   "combine [shard...]",
		Short: "Recover a mnemonic from shards",
		Long: `Recover a mnemonic from a qualifying subset of a shard set.

Shards are read from --file (repeatable, one shard per line), from the
arguments (one quoted shard each) or from stdin. Duplicates and surplus
shards are ignored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return observe(metrics.OpShardCombine, func() error {
				l, err := language(lang, a.cfg.Shard.Language)
				if err != nil {
					return err
				}
				shards, err := a.readShards(args, files)
				if err != nil {
					return err
				}
				passphrase, err := a.passphrase(pass.prompt, pass.env, false)
				if err != nil {
					return err
				}

				m, err := a.engine(passphrase, l).Reconstruct(shards)
				if err != nil {
					return err
				}
				metrics.RecordShards(metrics.OpShardCombine, len(shards))
				l = concrete(l)
				a.logger.Info("mnemonic recovered", "shards", len(shards), "language", l.String())

				if out != "" {
					if err := secretfile.WriteMnemonic(a.fs, out, m, l.String(), force); err != nil {
						return err
					}
					a.reportWritten(out)
					return a.printer.PrintFiles([]string{out})
				}
				a.warnSecret("recovered mnemonic")
				return a.printer.PrintMnemonic(&MnemonicResult{
					Mnemonic:  m,
					WordCount: len(strings.Fields(m)),
					Language:  l.String(),
				})
			})
		},
	}
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "read shards from this file (repeatable)")
	cmd.Flags().StringVarP(&lang, "language", "l", "", "wordlist language of the recovered mnemonic (default from config)")
	cmd.Flags().StringVar(&out, "out", "", "write the recovered mnemonic to this file (mode 0600) instead of stdout")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing --out file")
	pass.register(cmd, "SLIP-39")
	return cmd
}

func (a *app) shardValidateCommand() *cobra.Command {
	var files []string
	cmd := &cobra.Command{
		Use:   "validate [shard...]",
		Short: "Check shard checksums and headers",
		Long: `Check that each shard is structurally valid: word count, wordlist
membership, padding, RS1024 checksum and header consistency. The exit
status is 1 when any shard is invalid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return observe(metrics.OpShardValidate, func() error {
				shards, err := a.readShards(args, files)
				if err != nil {
					return err
				}
				engine := a.engine("", "")
				results := make([]ShardValidation, len(shards))
				allValid := true
				for i, s := range shards {
					results[i] = ShardValidation{
						Index:     i + 1,
						Valid:     engine.Validate(s),
						WordCount: len(strings.Fields(s)),
					}
					allValid = allValid && results[i].Valid
				}
				if err := a.printer.PrintShardValidation(results); err != nil {
					return err
				}
				if !allValid {
					return &exitError{code: 1}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "read shards from this file (repeatable)")
	return cmd
}

func (a *app) shardInfoCommand() *cobra.Command {
	var files []string
	cmd := &cobra.Command{
		Use:   "info [shard...]",
		Short: "Show the header fields of shards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return observe(metrics.OpShardInfo, func() error {
				shards, err := a.readShards(args, files)
				if err != nil {
					return err
				}
				engine := a.engine("", "")
				infos := make([]*shard.Info, len(shards))
				for i, s := range shards {
					if infos[i], err = engine.Info(s); err != nil {
						return err
					}
				}
				return a.printer.PrintShardInfo(infos)
			})
		},
	}
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "read shards from this file (repeatable)")
	return cmd
}
