// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package options

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/gomlx/npucascade/pkg/support/fsutil"
)

// settingsRegistry maps each setting name to a pointer to the field it sets.
func settingsRegistry(compilation *CompilationOptions, estimation *EstimationOptions) map[string]any {
	r := map[string]any{}
	if compilation != nil {
		r["strategy0"] = &compilation.Strategy0
		r["strategy1"] = &compilation.Strategy1
		r["strategy3"] = &compilation.Strategy3
		r["strategy4"] = &compilation.Strategy4
		r["strategy6"] = &compilation.Strategy6
		r["strategy7"] = &compilation.Strategy7
		r["block_config_16x16"] = &compilation.BlockConfig16x16
		r["block_config_16x8"] = &compilation.BlockConfig16x8
		r["block_config_8x16"] = &compilation.BlockConfig8x16
		r["block_config_8x8"] = &compilation.BlockConfig8x8
		r["block_config_8x32"] = &compilation.BlockConfig8x32
		r["block_config_32x8"] = &compilation.BlockConfig32x8
		r["max_parallelism"] = &compilation.MaxParallelism
		r["dump_debug_files"] = &compilation.DebugInfo.DumpDebugFiles
		r["debug_dir"] = &compilation.DebugInfo.DebugDir
		r["debug_level"] = &compilation.DebugInfo.DebugLevel
		r["debug_stripe_config_file"] = &compilation.DebugStripeConfigFile
	}
	if estimation != nil {
		r["activation_compression_saving"] = &estimation.ActivationCompressionSaving
		r["use_weight_compression_override"] = &estimation.UseWeightCompressionOverride
		r["weight_compression_saving"] = &estimation.WeightCompressionSaving
		r["current"] = &estimation.Current
	}
	return r
}

// ParseSettings updates the options from settings, typically the contents of a flag set by the user.
// The settings are a list separated by ";": e.g.: "strategy3=false;block_config_8x8=false;max_parallelism=4".
//
// An entry like "file:<path>" reads the settings from the file, with new lines working as ";" and
// lines starting with "#" being comments.
//
// Either options pointer can be nil, in which case its settings are unknown.
// It returns the names of the settings that were set.
func ParseSettings(compilation *CompilationOptions, estimation *EstimationOptions, settings string) (paramsSet []string, err error) {
	registry := settingsRegistry(compilation, estimation)
	for _, setting := range strings.Split(settings, ";") {
		paramsSet, err = parseSetting(registry, setting, paramsSet)
		if err != nil {
			return
		}
	}
	return
}

func parseSetting(registry map[string]any, setting string, paramsSet []string) (newParamsSet []string, err error) {
	newParamsSet = paramsSet
	setting = strings.TrimSpace(setting)
	if setting == "" {
		return
	}
	if strings.HasPrefix(setting, "file:") {
		filePath := strings.TrimPrefix(setting, "file:")
		filePath, err = fsutil.ReplaceTildeInDir(filePath)
		if err != nil {
			return
		}
		var contents []byte
		contents, err = os.ReadFile(filePath)
		if err != nil {
			err = errors.Wrapf(err, "failed to read settings from file %q", filePath)
			return
		}
		for _, line := range strings.Split(string(contents), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			for _, setting := range strings.Split(line, ";") {
				newParamsSet, err = parseSetting(registry, setting, newParamsSet)
				if err != nil {
					return
				}
			}
		}
		return
	}

	parts := strings.Split(setting, "=")
	if len(parts) != 2 {
		err = errors.Errorf("can't parse setting %q: each setting requires the format \"<name>=<value>\"", setting)
		return
	}
	name, valueStr := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	ptr, found := registry[name]
	if !found {
		err = errors.Errorf("unknown setting %q, known settings are: %s", name,
			strings.Join(sortedNames(registry), ", "))
		return
	}
	switch v := ptr.(type) {
	case *bool:
		err = json.Unmarshal([]byte(valueStr), v)
	case *int:
		err = json.Unmarshal([]byte(strings.ReplaceAll(valueStr, "_", "")), v)
	case *float64:
		err = json.Unmarshal([]byte(valueStr), v)
	case *string:
		*v = valueStr
	case *DebugLevel:
		var level DebugLevel
		level, err = DebugLevelString(valueStr)
		if err == nil {
			*v = level
		}
	default:
		err = fmt.Errorf("don't know how to parse type %T for setting %q", ptr, name)
	}
	if err != nil {
		err = errors.Wrapf(err, "failed to parse value %q for setting %q", valueStr, name)
		return
	}
	newParamsSet = append(newParamsSet, name)
	return
}

func sortedNames(registry map[string]any) []string {
	names := maps.Keys(registry)
	slices.Sort(names)
	return names
}

// SprintSettings pretty-prints the current value of all settings, one per line.
func SprintSettings(compilation *CompilationOptions, estimation *EstimationOptions) string {
	registry := settingsRegistry(compilation, estimation)
	var parts []string
	for _, name := range sortedNames(registry) {
		var value any
		switch v := registry[name].(type) {
		case *bool:
			value = *v
		case *int:
			value = *v
		case *float64:
			value = *v
		case *string:
			value = *v
		case *DebugLevel:
			value = *v
		}
		parts = append(parts, fmt.Sprintf("\t%q: %v", name, value))
	}
	return strings.Join(parts, "\n")
}

// CreateSettingsFlag creates a string flag with the given flagName (if empty it will be named "set"),
// whose usage lists the available settings.
//
// The flag should be created before the call to `flag.Parse()`, and its value given to ParseSettings.
func CreateSettingsFlag(flagName string) *string {
	if flagName == "" {
		flagName = "set"
	}
	compilation, estimation := DefaultCompilationOptions(), DefaultEstimationOptions()
	usage := `Set compilation options. It should be a list of elements "name=value" separated by ";". ` +
		`It can also be given an entry like "file:settings.txt", in which case the file is read with new lines ` +
		`working as ";" and lines starting with "#" being comments. Available settings and default values:` +
		"\n" + SprintSettings(&compilation, &estimation)
	var settings string
	flag.StringVar(&settings, flagName, "", usage)
	return &settings
}
