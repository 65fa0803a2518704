// Package config loads loxvm's externally-tunable runtime state: the
// trace-mode flag and the VM's stack bound. Neither affects compiled
// output, only diagnostics and resource limits.
package config

import (
	"github.com/caarlos0/env/v6"
)

// Config is populated from environment variables, grounded on
// mna-nenuphar's use of caarlos0/env for the same purpose.
type Config struct {
	// Trace enables the VM's per-instruction trace log (stack contents plus
	// the disassembled instruction about to run), matching spec.md §4.4.
	Trace bool `env:"LOXVM_TRACE" envDefault:"false"`

	// StackMax bounds the VM's value stack. Exceeding it is reported as a
	// runtime error, never a panic, per spec.md §8.
	StackMax int `env:"LOXVM_STACK_MAX" envDefault:"16384"`
}

// Load reads Config from the process environment, applying the defaults
// above for anything unset.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}
