// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package stripes

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/options"
)

// ConfigError is returned for a stripe config file that can't be opened or has an invalid command.
type ConfigError struct {
	Path string

	// Line number, starting at 1. It is 0 if the file could not be opened.
	Line int
	Msg  string
}

// Error implements error.
func (e *ConfigError) Error() string {
	if e.Line == 0 {
		return "Error opening stripe config file: " + e.Path
	}
	return fmt.Sprintf("Error in stripe config file at line %d: %s", e.Line, e.Msg)
}

// DebugStripeConfig is a parsed stripe config file.
//
// The file is a list of sections. Each section starts with a regular expression followed by ":", and
// applies to the parts whose debug identifier fully matches it. The contents of a section are commands
// executed in order, which enable or disable stripe config options:
//
//	# Comment.
//	McePart 3:
//	DisableAll
//	Splits.WidthHeight=True
//	BlockConfig(8,8)=True
//	PlanTypes.Lonely=True
//
// Commands are only validated for the sections that apply to a part.
type DebugStripeConfig struct {
	path     string
	sections []configSection
}

type configSection struct {
	regex    *regexp.Regexp
	commands []configLine
}

type configLine struct {
	number int
	text   string
}

// DebugStripeConfigPath returns the stripe config file to use for the compilation: the one in the
// options or, if not set, the one named by options.EnvDebugStripeConfig. Empty if none.
func DebugStripeConfigPath(opts *options.CompilationOptions) string {
	if opts != nil && opts.DebugStripeConfigFile != "" {
		return opts.DebugStripeConfigFile
	}
	return os.Getenv(options.EnvDebugStripeConfig)
}

// LoadDebugStripeConfig reads and parses the stripe config file. It returns nil (and no error) if
// path is empty.
func LoadDebugStripeConfig(path string) (*DebugStripeConfig, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		klog.V(1).Infof("failed to open stripe config file: %v", err)
		return nil, &ConfigError{Path: path}
	}
	defer func() { _ = f.Close() }()
	return ParseDebugStripeConfig(path, f)
}

// ParseDebugStripeConfig parses the contents of a stripe config file. The path is only used in errors.
func ParseDebugStripeConfig(path string, r io.Reader) (*DebugStripeConfig, error) {
	config := &DebugStripeConfig{path: path}
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		if strings.HasSuffix(line, ":") {
			re, err := regexp.Compile("^(?:" + strings.TrimSuffix(line, ":") + ")$")
			if err != nil {
				return nil, &ConfigError{Path: path, Line: lineNumber,
					Msg: fmt.Sprintf("Invalid section regex '%s': %v", strings.TrimSuffix(line, ":"), err)}
			}
			config.sections = append(config.sections, configSection{regex: re})
			continue
		}
		if len(config.sections) == 0 {
			// Commands before the first section apply to nothing.
			continue
		}
		section := &config.sections[len(config.sections)-1]
		section.commands = append(section.commands, configLine{number: lineNumber, text: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read stripe config file %q", path)
	}
	return config, nil
}

// Path of the stripe config file.
func (d *DebugStripeConfig) Path() string { return d.path }

var blockConfigRegex = regexp.MustCompile(`^BlockConfig\((\d+),(\d+)\)$`)

// Apply executes, in file order, the commands of the sections matching identifier.
func (d *DebugStripeConfig) Apply(config *StripeConfig, identifier string) error {
	if d == nil {
		return nil
	}
	for _, section := range d.sections {
		if !section.regex.MatchString(identifier) {
			continue
		}
		klog.V(2).Infof("stripe config file %q: section %q applies to %q", d.path, section.regex, identifier)
		for _, command := range section.commands {
			if msg := applyCommand(config, command.text); msg != "" {
				return &ConfigError{Path: d.path, Line: command.number, Msg: msg}
			}
		}
	}
	return nil
}

// applyCommand returns an error message, or "" if the command was applied.
func applyCommand(config *StripeConfig, line string) string {
	switch line {
	case "DisableAll":
		config.DisableAll()
		return ""
	case "DisableAllSplits":
		config.DisableAllSplits()
		return ""
	case "DisableAllBlockConfigs":
		config.BlockConfigs = nil
		return ""
	}
	parts := strings.Split(line, "=")
	if len(parts) != 2 {
		return "Unexpected command syntax: " + line
	}
	name, valueStr := parts[0], parts[1]

	var boolTarget *bool
	switch name {
	case "Splits.MceAndPleOutputHeight":
		boolTarget = &config.Splits.MceAndPleOutputHeight
	case "Splits.MceOutputHeightOnly":
		boolTarget = &config.Splits.MceOutputHeightOnly
	case "Splits.WidthOnly":
		boolTarget = &config.Splits.WidthOnly
	case "Splits.WidthHeight":
		boolTarget = &config.Splits.WidthHeight
	case "Splits.WidthHeightOutputDepth":
		boolTarget = &config.Splits.WidthHeightOutputDepth
	case "Splits.WidthHeightOutputDepthInputDepth":
		boolTarget = &config.Splits.WidthHeightOutputDepthInputDepth
	case "Splits.OutputDepthInputDepth":
		boolTarget = &config.Splits.OutputDepthInputDepth
	case "Splits.MceOutputDepthOnly":
		boolTarget = &config.Splits.MceOutputDepthOnly
	case "Splits.MceAndPleOutputDepth":
		boolTarget = &config.Splits.MceAndPleOutputDepth
	case "Splits.InputDepthOnly":
		boolTarget = &config.Splits.InputDepthOnly
	case "Splits.None":
		boolTarget = &config.Splits.None
	case "PlanTypes.Beginning":
		boolTarget = &config.PlanTypes.Beginning
	case "PlanTypes.Middle":
		boolTarget = &config.PlanTypes.Middle
	case "PlanTypes.End":
		boolTarget = &config.PlanTypes.End
	case "PlanTypes.Lonely":
		boolTarget = &config.PlanTypes.Lonely
	}
	if boolTarget != nil {
		value, msg := parseBool(valueStr)
		if msg == "" {
			*boolTarget = value
		}
		return msg
	}

	var uintTarget *uint32
	switch name {
	case "BlockWidthMultiplier.Min":
		uintTarget = &config.BlockWidthMultiplier.Min
	case "BlockWidthMultiplier.Max":
		uintTarget = &config.BlockWidthMultiplier.Max
	case "BlockHeightMultiplier.Min":
		uintTarget = &config.BlockHeightMultiplier.Min
	case "BlockHeightMultiplier.Max":
		uintTarget = &config.BlockHeightMultiplier.Max
	case "IfmDepthMultiplier.Min":
		uintTarget = &config.IfmDepthMultiplier.Min
	case "IfmDepthMultiplier.Max":
		uintTarget = &config.IfmDepthMultiplier.Max
	case "OfmDepthMultiplier.Min":
		uintTarget = &config.OfmDepthMultiplier.Min
	case "OfmDepthMultiplier.Max":
		uintTarget = &config.OfmDepthMultiplier.Max
	}
	if uintTarget != nil {
		value, err := strconv.ParseUint(valueStr, 10, 32)
		if err != nil {
			return "Invalid value '" + valueStr + "'. Must be an unsigned number."
		}
		*uintTarget = uint32(value)
		return ""
	}

	if match := blockConfigRegex.FindStringSubmatch(name); match != nil {
		width, errW := strconv.ParseUint(match[1], 10, 32)
		height, errH := strconv.ParseUint(match[2], 10, 32)
		if errW != nil || errH != nil {
			return "Unknown name in assignment: " + name
		}
		value, msg := parseBool(valueStr)
		if msg != "" {
			return msg
		}
		b := hwcaps.BlockConfig{Width: uint32(width), Height: uint32(height)}
		if value {
			config.AddBlockConfig(b)
		} else {
			config.RemoveBlockConfig(b)
		}
		return ""
	}
	return "Unknown name in assignment: " + name
}

func parseBool(valueStr string) (value bool, msg string) {
	switch valueStr {
	case "True":
		return true, ""
	case "False":
		return false, ""
	}
	return false, "Invalid value '" + valueStr + "'. Must be True or False."
}

// GetDefaultStripeConfig returns the stripe config of the part with the given debug identifier.
//
// It starts with everything enabled and, for compatibility with the legacy strategies, if any strategy is
// disabled in the options, only the splits closest to the strategies left enabled are kept. Block configs
// disabled in the options are removed. Finally, the sections of the debug stripe config (if not nil)
// matching the identifier are applied.
func GetDefaultStripeConfig(opts *options.CompilationOptions, identifier string, debug *DebugStripeConfig) (StripeConfig, error) {
	result := NewStripeConfig()
	if opts != nil {
		if !opts.AllStrategiesEnabled() {
			result.DisableAllSplits()
			if opts.Strategy0 {
				result.Splits.MceAndPleOutputHeight = true
			}
			if opts.Strategy1 {
				result.Splits.MceAndPleOutputDepth = true
				result.Splits.OutputDepthInputDepth = true
			}
			if opts.Strategy3 {
				result.Splits.None = true
			}
			if opts.Strategy4 {
				// Strategy 4 split width and output depth, which has no direct equivalent.
				result.Splits.WidthOnly = true
			}
			if opts.Strategy6 {
				result.Splits.WidthHeight = true
				result.Splits.WidthHeightOutputDepth = true
			}
			if opts.Strategy7 {
				result.Splits.WidthHeightOutputDepthInputDepth = true
			}
		}
		for _, disabled := range []struct {
			enabled bool
			config  hwcaps.BlockConfig
		}{
			{opts.BlockConfig8x8, hwcaps.BlockConfig{Width: 8, Height: 8}},
			{opts.BlockConfig8x16, hwcaps.BlockConfig{Width: 8, Height: 16}},
			{opts.BlockConfig16x8, hwcaps.BlockConfig{Width: 16, Height: 8}},
			{opts.BlockConfig16x16, hwcaps.BlockConfig{Width: 16, Height: 16}},
			{opts.BlockConfig32x8, hwcaps.BlockConfig{Width: 32, Height: 8}},
			{opts.BlockConfig8x32, hwcaps.BlockConfig{Width: 8, Height: 32}},
		} {
			if !disabled.enabled {
				result.RemoveBlockConfig(disabled.config)
			}
		}
	}
	if err := debug.Apply(&result, identifier); err != nil {
		return StripeConfig{}, err
	}
	return result, nil
}
