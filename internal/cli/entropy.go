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
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/jeremyhahn/go-seedshard/pkg/crypto/secure"
	"github.com/jeremyhahn/go-seedshard/pkg/metrics"
	"github.com/spf13/cobra"
)

func (a *app) entropyCommand() *cobra.Command {
	var (
		bytes    int
		bits     int
		encoding string
	)
	cmd := &cobra.Command{
		Use:   "entropy",
		Short: "Draw raw entropy from the configured source",
		Long: `Draw raw entropy from the configured source and print it hex or
base64 encoded. --bits takes precedence over --bytes; the unused high
bits of the first byte are cleared.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return observe(metrics.OpEntropy, func() error {
				var encode func([]byte) string
				switch encoding {
				case "hex":
					encode = hex.EncodeToString
				case "base64":
					encode = base64.StdEncoding.EncodeToString
				default:
					return fmt.Errorf("%w: unknown encoding %q (must be hex or base64)", ErrInput, encoding)
				}

				gen, err := a.generator()
				if err != nil {
					return err
				}
				defer gen.Close()

				var b []byte
				if cmd.Flags().Changed("bits") {
					b, err = gen.GenerateBits(bits)
				} else {
					b, err = gen.GenerateBytesContext(cmd.Context(), bytes)
					bits = bytes * 8
				}
				defer secure.Erase(b)
				if err != nil {
					return err
				}
				metrics.RecordEntropy(a.entropyLabel(), len(b))
				a.logger.Debug("entropy drawn", "bits", bits, "source", a.entropyLabel())
				return a.printer.PrintEntropy(encode(b), encoding, bits)
			})
		},
	}
	cmd.Flags().IntVarP(&bytes, "bytes", "n", 32, "number of bytes")
	cmd.Flags().IntVar(&bits, "bits", 0, "number of bits (overrides --bytes)")
	cmd.Flags().StringVarP(&encoding, "encoding", "e", "hex", "output encoding (hex, base64)")
	return cmd
}
