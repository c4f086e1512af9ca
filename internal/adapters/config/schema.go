package config

// Lathefile represents the structure of the lathe.yaml configuration file.
// Pointer fields distinguish unset keys from zero values.
type Lathefile struct {
	PreferSandbox      *bool      `yaml:"preferSandbox"`
	TimeoutMs          *int64     `yaml:"timeoutMs"`
	MaxCacheEntries    *int       `yaml:"maxCacheEntries"`
	NegativeCacheTTLMs *int64     `yaml:"negativeCacheTtlMs"`
	FallbackEnabled    *bool      `yaml:"fallbackEnabled"`
	Fallback           []string   `yaml:"fallback"`
	Kernel             KernelDTO  `yaml:"kernel"`
	Sandbox            SandboxDTO `yaml:"sandbox"`
	LogLevel           string     `yaml:"logLevel"`
}

// KernelDTO represents the native kernel section.
type KernelDTO struct {
	Version      string   `yaml:"version"`
	Command      []string `yaml:"command"`
	ParamFlag    *string  `yaml:"paramFlag"`
	MaxProcesses *int     `yaml:"maxProcesses"`
}

// SandboxDTO represents the sandbox section.
type SandboxDTO struct {
	URL string `yaml:"url"`
}
