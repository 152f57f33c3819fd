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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jeremyhahn/go-seedshard/pkg/shard"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText  OutputFormat = "text"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatTable OutputFormat = "table"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(strings.ToLower(format)),
		writer: writer,
	}
}

func (p *Printer) withWriter(w io.Writer) *Printer {
	return &Printer{format: p.format, writer: w}
}

// MnemonicResult is a generated or recovered mnemonic.
type MnemonicResult struct {
	Mnemonic  string `json:"mnemonic"`
	WordCount int    `json:"word_count"`
	Language  string `json:"language"`
}

// ValidationResult is the outcome of validating one mnemonic.
type ValidationResult struct {
	Valid     bool   `json:"valid"`
	WordCount int    `json:"word_count"`
	Language  string `json:"language,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// ShardValidation is the outcome of validating one shard.
type ShardValidation struct {
	Index     int  `json:"index"`
	Valid     bool `json:"valid"`
	WordCount int  `json:"word_count"`
}

// PrintMnemonic prints a mnemonic. The table format numbers the words.
func (p *Printer) PrintMnemonic(r *MnemonicResult) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(r)
	case OutputFormatTable:
		for i, w := range strings.Fields(r.Mnemonic) {
			fmt.Fprintf(p.writer, "%2d. %s\n", i+1, w)
		}
		return nil
	case OutputFormatText:
		fmt.Fprintln(p.writer, r.Mnemonic)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintValidation prints a mnemonic validation result
func (p *Printer) PrintValidation(r *ValidationResult) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(r)
	case OutputFormatTable, OutputFormatText:
		if r.Valid {
			fmt.Fprintf(p.writer, "Valid %d-word %s mnemonic\n", r.WordCount, r.Language)
		} else {
			fmt.Fprintf(p.writer, "Invalid mnemonic: %s\n", r.Reason)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintEntropy prints encoded entropy
func (p *Printer) PrintEntropy(encoded, encoding string, bits int) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"entropy":  encoded,
			"encoding": encoding,
			"bits":     bits,
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintln(p.writer, encoded)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSeed prints a hex encoded master seed
func (p *Printer) PrintSeed(hexSeed string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"seed": hexSeed,
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintln(p.writer, hexSeed)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

type shardGroupJSON struct {
	Index     int      `json:"index"`
	Threshold int      `json:"threshold"`
	Total     int      `json:"total"`
	Shards    []string `json:"shards"`
}

// PrintShards prints a shard set grouped as cfg describes it.
func (p *Printer) PrintShards(groups [][]string, cfg *shard.GroupConfig) error {
	switch p.format {
	case OutputFormatJSON:
		out := make([]shardGroupJSON, len(groups))
		for i, members := range groups {
			out[i] = shardGroupJSON{
				Index:     i + 1,
				Threshold: cfg.Groups[i].Threshold,
				Total:     cfg.Groups[i].Total,
				Shards:    members,
			}
		}
		return p.printJSON(map[string]interface{}{
			"config":          cfg.String(),
			"group_threshold": cfg.GroupThreshold,
			"groups":          out,
		})
	case OutputFormatTable:
		fmt.Fprintf(p.writer, "%-6s %-7s %s\n", "GROUP", "MEMBER", "SHARD")
		fmt.Fprintln(p.writer, strings.Repeat("-", 72))
		for gi, members := range groups {
			for mi, s := range members {
				fmt.Fprintf(p.writer, "%-6d %-7d %s\n", gi+1, mi+1, s)
			}
		}
		return nil
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Shard set %s: any %d of %d groups are required\n", cfg, cfg.GroupThreshold, len(cfg.Groups))
		for gi, members := range groups {
			g := cfg.Groups[gi]
			fmt.Fprintf(p.writer, "\nGroup %d (%d of %d shards required):\n", gi+1, g.Threshold, g.Total)
			for _, s := range members {
				fmt.Fprintln(p.writer, s)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintShardValidation prints per-shard validation results
func (p *Printer) PrintShardValidation(results []ShardValidation) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"shards": results,
		})
	case OutputFormatTable:
		fmt.Fprintf(p.writer, "%-6s %-6s %s\n", "SHARD", "WORDS", "VALID")
		fmt.Fprintln(p.writer, strings.Repeat("-", 20))
		for _, r := range results {
			fmt.Fprintf(p.writer, "%-6d %-6d %t\n", r.Index, r.WordCount, r.Valid)
		}
		return nil
	case OutputFormatText:
		for _, r := range results {
			status := "valid"
			if !r.Valid {
				status = "invalid"
			}
			fmt.Fprintf(p.writer, "Shard %d: %s (%d words)\n", r.Index, status, r.WordCount)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintShardInfo prints decoded shard headers
func (p *Printer) PrintShardInfo(infos []*shard.Info) error {
	switch p.format {
	case OutputFormatJSON:
		if len(infos) == 1 {
			return p.printJSON(infos[0])
		}
		return p.printJSON(map[string]interface{}{
			"shards": infos,
		})
	case OutputFormatTable:
		fmt.Fprintf(p.writer, "%-6s %-6s %-6s %-8s %-8s %s\n", "ID", "WORDS", "VALID", "GROUP", "MEMBER", "ITER_EXP")
		fmt.Fprintln(p.writer, strings.Repeat("-", 48))
		for _, i := range infos {
			fmt.Fprintf(p.writer, "%-6d %-6d %-6t %-8s %-8d %d\n",
				i.Identifier, i.WordCount, i.Valid,
				fmt.Sprintf("%d/%d", i.GroupIndex, i.GroupCount),
				i.MemberIndex, i.IterationExponent)
		}
		return nil
	case OutputFormatText:
		for n, i := range infos {
			if n > 0 {
				fmt.Fprintln(p.writer)
			}
			fmt.Fprintf(p.writer, "Shard Information:\n")
			fmt.Fprintf(p.writer, "  Type:               %s\n", i.Type)
			fmt.Fprintf(p.writer, "  Words:              %d\n", i.WordCount)
			fmt.Fprintf(p.writer, "  Valid:              %t\n", i.Valid)
			// An undecodable shard has no header to show.
			if i.GroupCount == 0 {
				continue
			}
			fmt.Fprintf(p.writer, "  Identifier:         %d\n", i.Identifier)
			fmt.Fprintf(p.writer, "  Extendable:         %t\n", i.Extendable)
			fmt.Fprintf(p.writer, "  Iteration exponent: %d\n", i.IterationExponent)
			fmt.Fprintf(p.writer, "  Group:              %d of %d (%d required)\n", i.GroupIndex, i.GroupCount, i.GroupThreshold)
			fmt.Fprintf(p.writer, "  Member:             %d (%d required)\n", i.MemberIndex, i.MemberThreshold)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintFiles lists files written by a command
func (p *Printer) PrintFiles(paths []string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"files": paths,
		})
	case OutputFormatTable, OutputFormatText:
		for _, path := range paths {
			fmt.Fprintln(p.writer, path)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
			"type":   errorType(err),
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// printJSON prints data as indented JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
