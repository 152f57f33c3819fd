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

package shard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MaxGroupCount is the largest number of groups a share set can hold.
	MaxGroupCount = 16

	// MaxShareCount is the largest number of members in one group.
	MaxShareCount = 16
)

// Group is a member threshold T out of N shares.
type Group struct {
	Threshold int `json:"threshold" yaml:"threshold"`
	Total     int `json:"total" yaml:"total"`
}

func (g Group) String() string {
	return fmt.Sprintf("%d-of-%d", g.Threshold, g.Total)
}

// GroupConfig is a two level threshold: GroupThreshold of the listed
// groups must each meet their own member threshold.
type GroupConfig struct {
	GroupThreshold int     `json:"group_threshold" yaml:"group_threshold"`
	Groups         []Group `json:"groups" yaml:"groups"`
}

// DefaultGroupConfig is a single 3-of-5 group.
func DefaultGroupConfig() *GroupConfig {
	return &GroupConfig{GroupThreshold: 1, Groups: []Group{{Threshold: 3, Total: 5}}}
}

var (
	simplePattern   = regexp.MustCompile(`(?i)^\s*(\d+)\s*-\s*of\s*-\s*(\d+)\s*$`)
	compoundPattern = regexp.MustCompile(`^\s*(\d+)\s*:\s*\(\s*(.*?)\s*\)\s*$`)
)

// ParseGroupConfig parses "T-of-N" or "G:(T1-of-N1,T2-of-N2,...)".
func ParseGroupConfig(spec string) (*GroupConfig, error) {
	if m := simplePattern.FindStringSubmatch(spec); m != nil {
		g, err := parseGroup(m[1], m[2])
		if err != nil {
			return nil, err
		}
		cfg := &GroupConfig{GroupThreshold: 1, Groups: []Group{g}}
		if err := cfg.checkBounds(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	m := compoundPattern.FindStringSubmatch(spec)
	if m == nil {
		return nil, fmt.Errorf("%w: %q does not match T-of-N or G:(T1-of-N1,...)", ErrInvalidGroupConfig, spec)
	}
	gt, err := parseNumber(m[1])
	if err != nil {
		return nil, err
	}

	cfg := &GroupConfig{GroupThreshold: gt}
	for i, part := range strings.Split(m[2], ",") {
		pm := simplePattern.FindStringSubmatch(part)
		if pm == nil {
			return nil, fmt.Errorf("%w: group %d %q does not match T-of-N", ErrInvalidGroupConfig, i+1, strings.TrimSpace(part))
		}
		g, err := parseGroup(pm[1], pm[2])
		if err != nil {
			return nil, err
		}
		cfg.Groups = append(cfg.Groups, g)
	}
	if err := cfg.checkBounds(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustParseGroupConfig is ParseGroupConfig for constants; it panics on error.
func MustParseGroupConfig(spec string) *GroupConfig {
	cfg, err := ParseGroupConfig(spec)
	if err != nil {
		panic(err)
	}
	return cfg
}

func parseGroup(t, n string) (Group, error) {
	threshold, err := parseNumber(t)
	if err != nil {
		return Group{}, err
	}
	total, err := parseNumber(n)
	if err != nil {
		return Group{}, err
	}
	return Group{Threshold: threshold, Total: total}, nil
}

func parseNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a valid number", ErrInvalidGroupConfig, s)
	}
	return n, nil
}

// checkBounds enforces the grammar level constraints: every group has
// 1 <= T <= N and 1 <= G <= len(groups).
func (c *GroupConfig) checkBounds() error {
	if len(c.Groups) == 0 {
		return fmt.Errorf("%w: at least one group is required", ErrInvalidGroupConfig)
	}
	for i, g := range c.Groups {
		if g.Threshold < 1 || g.Total < 1 {
			return fmt.Errorf("%w: group %d (%s): threshold and total must be at least 1", ErrInvalidGroupConfig, i+1, g)
		}
		if g.Threshold > g.Total {
			return fmt.Errorf("%w: group %d (%s): threshold exceeds total", ErrInvalidGroupConfig, i+1, g)
		}
	}
	if c.GroupThreshold < 1 {
		return fmt.Errorf("%w: group threshold %d must be at least 1", ErrInvalidGroupConfig, c.GroupThreshold)
	}
	if c.GroupThreshold > len(c.Groups) {
		return fmt.Errorf("%w: group threshold %d exceeds group count %d", ErrInvalidGroupConfig, c.GroupThreshold, len(c.Groups))
	}
	return nil
}

// Validate checks that the configuration can be split: the grammar bounds,
// at most MaxGroupCount groups of at most MaxShareCount members, and no
// 1-of-N group with N > 1.
func (c *GroupConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: configuration is nil", ErrInvalidGroupConfig)
	}
	if err := c.checkBounds(); err != nil {
		return err
	}
	if len(c.Groups) > MaxGroupCount {
		return fmt.Errorf("%w: %d groups exceeds the maximum of %d", ErrInvalidGroupConfig, len(c.Groups), MaxGroupCount)
	}
	for i, g := range c.Groups {
		if g.Total > MaxShareCount {
			return fmt.Errorf("%w: group %d (%s): total exceeds the maximum of %d", ErrInvalidGroupConfig, i+1, g, MaxShareCount)
		}
		if g.Threshold == 1 && g.Total > 1 {
			return fmt.Errorf("%w: group %d (%s): a threshold of 1 requires a total of 1; use 1-of-1", ErrInvalidGroupConfig, i+1, g)
		}
	}
	return nil
}

// ShareCount is the total number of shards a split produces.
func (c *GroupConfig) ShareCount() int {
	n := 0
	for _, g := range c.Groups {
		n += g.Total
	}
	return n
}

// String renders the configuration in the form ParseGroupConfig accepts.
func (c *GroupConfig) String() string {
	if c.GroupThreshold == 1 && len(c.Groups) == 1 {
		return c.Groups[0].String()
	}
	parts := make([]string, len(c.Groups))
	for i, g := range c.Groups {
		parts[i] = g.String()
	}
	return fmt.Sprintf("%d:(%s)", c.GroupThreshold, strings.Join(parts, ","))
}
