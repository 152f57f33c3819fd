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

package secretfile

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeremyhahn/go-seedshard/pkg/shard"
	"github.com/spf13/afero"
)

// Now is the clock used for created headers.
var Now = time.Now

// MnemonicFile wraps m with a mnemonic header.
func MnemonicFile(m, language string) *File {
	return &File{
		Comments: Header(KindMnemonic, Now(),
			fmt.Sprintf("words: %d", len(strings.Fields(m))),
			fmt.Sprintf("language: %s", language),
			"Keep this file offline. Anyone holding it controls the secret.",
		),
		Lines: []string{m},
	}
}

// WriteMnemonic writes m to path with a mnemonic header.
func WriteMnemonic(fs afero.Fs, path, m, language string, overwrite bool) error {
	return Write(fs, path, MnemonicFile(m, language), overwrite)
}

// ShardFileName is the name of the file holding member member of group
// group, both 1-based.
func ShardFileName(group, member int) string {
	return fmt.Sprintf("shard-g%02d-m%02d.txt", group, member)
}

// ShardFile wraps one shard with a header naming its place in cfg.
// group and member are 0-based indices into cfg and the split output.
func ShardFile(s string, cfg *shard.GroupConfig, group, member int) *File {
	g := cfg.Groups[group]
	return &File{
		Comments: Header(KindShard, Now(),
			fmt.Sprintf("set: %s", cfg),
			fmt.Sprintf("group: %d of %d (%d required)", group+1, len(cfg.Groups), cfg.GroupThreshold),
			fmt.Sprintf("member: %d of %d (%d required)", member+1, g.Total, g.Threshold),
			fmt.Sprintf("words: %d", len(strings.Fields(s))),
		),
		Lines: []string{s},
	}
}

// WriteShardSet writes every shard in groups to its own file under dir
// and returns the paths in group then member order. groups must be the
// output of splitting with cfg.
func WriteShardSet(fs afero.Fs, dir string, groups [][]string, cfg *shard.GroupConfig, overwrite bool) ([]string, error) {
	if len(groups) != len(cfg.Groups) {
		return nil, fmt.Errorf("secretfile: %d shard groups do not match configuration %s", len(groups), cfg)
	}
	if err := fs.MkdirAll(dir, DirPerms); err != nil {
		return nil, fmt.Errorf("secretfile: failed to create %s: %w", dir, err)
	}

	paths := make([]string, 0, cfg.ShareCount())
	for gi, members := range groups {
		if len(members) != cfg.Groups[gi].Total {
			return nil, fmt.Errorf("secretfile: group %d has %d shards, expected %d", gi+1, len(members), cfg.Groups[gi].Total)
		}
		for mi, s := range members {
			path := filepath.Join(dir, ShardFileName(gi+1, mi+1))
			if err := Write(fs, path, ShardFile(s, cfg, gi, mi), overwrite); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}
