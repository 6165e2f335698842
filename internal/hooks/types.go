package hooks

// Config is the top-level configuration loaded from .railbook.hooks.yml.
type Config struct {
	Version int         `yaml:"version"`
	Hooks   HooksConfig `yaml:"hooks"`
}

// HooksConfig lists the hooks per booking event.
type HooksConfig struct {
	PostSubmit []*HookConfig `yaml:"post_submit"`
	PostDelete []*HookConfig `yaml:"post_delete"`
}

// HookConfig defines a single hook's configuration.
type HookConfig struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout"` // seconds, default 30
	// PipeOutput shows the hook's output to the user.
	PipeOutput bool `yaml:"pipe_output"`
}

// DefaultTimeout is the default timeout for hook execution in seconds.
const DefaultTimeout = 30
