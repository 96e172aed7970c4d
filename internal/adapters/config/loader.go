// Package config provides the configuration loader for skybox.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.trai.ch/skybox/internal/core/domain"
	"go.trai.ch/skybox/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the only configuration schema version understood.
const SupportedVersion = "1"

var validKeyRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
	FS     FileSystem
}

// NewLoader creates a new Loader reading from the OS filesystem.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS()}
}

// Load reads the configuration at path. An empty path discovers skybox.yaml
// from the working directory upwards.
func (l *Loader) Load(path string) (*domain.Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, zerr.Wrap(err, "failed to get working directory")
		}
		if path, err = l.Discover(cwd); err != nil {
			return nil, err
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve config path"), "path", path)
	}
	return l.loadSkyfile(abs)
}

// Discover walks up from cwd and returns the first skybox.yaml found.
func (l *Loader) Discover(cwd string) (string, error) {
	currentDir := filepath.Clean(cwd)
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := l.FS.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "no configuration file"), "cwd", cwd)
}

func (l *Loader) loadSkyfile(configPath string) (*domain.Config, error) {
	data, err := l.FS.ReadFile(configPath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read config file"), "path", configPath)
	}

	var skyfile Skyfile
	if err := yaml.Unmarshal(data, &skyfile); err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrInvalidConfig, err), "failed to parse config file"), "path", configPath)
	}

	switch skyfile.Version {
	case SupportedVersion:
	case "":
		if l.Logger != nil {
			l.Logger.Warn("'version' missing in " + domain.ConfigFileName + ", assuming " + SupportedVersion)
		}
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "unsupported version"), "version", skyfile.Version)
	}

	opts, err := buildOptions(skyfile.Cache)
	if err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	defs, err := buildDefinitions(&skyfile.Environments, filepath.Dir(configPath))
	if err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	table, err := domain.NewDefinitionTable(defs...)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "invalid environment"), "path", configPath)
	}

	return &domain.Config{
		Path:    configPath,
		Table:   table,
		Options: opts,
		Capabilities: domain.Capabilities{
			MaxTextureSize: skyfile.Capabilities.MaxTextureSize,
			MaxAnisotropy:  skyfile.Capabilities.MaxAnisotropy,
		}.Normalize(),
	}, nil
}

func buildOptions(dto CacheDTO) (domain.Options, error) {
	opts := domain.DefaultOptions()

	if dto.Capacity != nil {
		if *dto.Capacity < 1 {
			return opts, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "capacity must be at least 1"), "capacity", *dto.Capacity)
		}
		opts.Capacity = *dto.Capacity
	}
	if dto.EnableCache != nil {
		opts.EnableCache = *dto.EnableCache
	}
	if dto.EnablePrefetch != nil {
		opts.EnablePrefetch = *dto.EnablePrefetch
	}
	if dto.FetchConcurrency != nil {
		if *dto.FetchConcurrency < 1 {
			err := zerr.Wrap(domain.ErrInvalidConfig, "fetchConcurrency must be at least 1")
			return opts, zerr.With(err, "fetchConcurrency", *dto.FetchConcurrency)
		}
		opts.FetchConcurrency = *dto.FetchConcurrency
	}

	var err error
	if opts.PrefetchDelay, err = parseDuration("prefetchDelay", dto.PrefetchDelay, opts.PrefetchDelay); err != nil {
		return opts, err
	}
	if opts.FetchTimeout, err = parseDuration("fetchTimeout", dto.FetchTimeout, opts.FetchTimeout); err != nil {
		return opts, err
	}
	if opts.FetchTimeout == 0 {
		return opts, zerr.Wrap(domain.ErrInvalidConfig, "fetchTimeout must be positive")
	}

	return opts, nil
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "invalid duration"), field, value)
	}
	return d, nil
}

func buildDefinitions(node *yaml.Node, configDir string) ([]domain.ResourceDefinition, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, zerr.Wrap(domain.ErrInvalidConfig, "environments must be a mapping")
	}

	defs := make([]domain.ResourceDefinition, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if err := validateKey(key); err != nil {
			return nil, err
		}

		var dto EnvironmentDTO
		if err := node.Content[i+1].Decode(&dto); err != nil {
			return nil, zerr.With(errors.Join(domain.ErrInvalidConfig, err), "environment", key)
		}

		locations := make([]string, len(dto.Faces))
		for j, face := range dto.Faces {
			locations[j] = resolveLocation(configDir, dto.Base, face)
		}
		if len(locations) == 0 {
			locations = nil
		}

		defs = append(defs, domain.ResourceDefinition{
			Key:         key,
			DisplayName: dto.Name,
			Locations:   locations,
			Priority:    dto.Priority,
		})
	}
	return defs, nil
}

// validateKey checks that an environment key is non-empty and URL safe.
func validateKey(key string) error {
	if !validKeyRegex.MatchString(key) {
		return zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "invalid environment key"), "environment", key)
	}
	return nil
}

// resolveLocation joins face onto base and anchors relative file paths at the
// configuration directory. URLs are left untouched.
func resolveLocation(configDir, base, face string) string {
	if face == "" {
		return ""
	}

	loc := face
	if base != "" && !isURL(face) && !filepath.IsAbs(face) {
		if isURL(base) {
			loc = strings.TrimSuffix(base, "/") + "/" + face
		} else {
			loc = filepath.Join(base, face)
		}
	}

	if isURL(loc) || filepath.IsAbs(loc) {
		return loc
	}
	return filepath.Join(configDir, loc)
}

func isURL(s string) bool {
	return strings.Contains(s, "://")
}
