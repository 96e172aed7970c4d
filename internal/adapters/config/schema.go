package config

import "gopkg.in/yaml.v3"

// Skyfile represents the structure of the skybox.yaml configuration file.
type Skyfile struct {
	Version      string          `yaml:"version"`
	Cache        CacheDTO        `yaml:"cache"`
	Capabilities CapabilitiesDTO `yaml:"capabilities"`
	// Environments is kept as a node so declaration order survives decoding.
	Environments yaml.Node `yaml:"environments"`
}

// CacheDTO represents the cache section. Absent fields keep their defaults.
type CacheDTO struct {
	Capacity         *int   `yaml:"capacity"`
	EnableCache      *bool  `yaml:"enableCache"`
	EnablePrefetch   *bool  `yaml:"enablePrefetch"`
	PrefetchDelay    string `yaml:"prefetchDelay"`
	FetchConcurrency *int   `yaml:"fetchConcurrency"`
	FetchTimeout     string `yaml:"fetchTimeout"`
}

// CapabilitiesDTO represents the static description of the consuming context.
type CapabilitiesDTO struct {
	MaxTextureSize int `yaml:"maxTextureSize"`
	MaxAnisotropy  int `yaml:"maxAnisotropy"`
}

// EnvironmentDTO represents one cubemap environment.
type EnvironmentDTO struct {
	Name     string   `yaml:"name"`
	Priority int      `yaml:"priority"`
	Base     string   `yaml:"base"`
	Faces    []string `yaml:"faces"`
}
