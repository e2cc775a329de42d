package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// cliConfig mirrors the test subcommand's flag surface. A --config file is
// merged under explicit flags (flags win), loaded with yaml.v3.
type cliConfig struct {
	Iterations int `yaml:"iterations"`
	Timeout int `yaml:"timeout"`
	MaxSteps string `yaml:"maxSteps"`
	FailOnMaxSteps bool `yaml:"failOnMaxSteps"`
	Strategy string `yaml:"strategy"`
	StrategyValue int `yaml:"strategyValue"`
	Seed int64 `yaml:"seed"`
	LivenessTemperatureThreshold int `yaml:"livenessTemperatureThreshold"`
	DeadlockTimeoutMS int `yaml:"deadlockTimeoutMs"`
	Verbosity string `yaml:"verbosity"`
	Coverage string `yaml:"coverage"`
	Graph bool `yaml:"graph"`
	Break bool `yaml:"break"`
}

func loadConfigFile(path string, into *cliConfig) error {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, into)
}

// exitCodeFor maps a returned error to an exit code: 0 success / no bug,
// 1 tool error, 2 bug found, 3 internal error.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if _, ok := err.(*bugFoundError); ok {
		return 2
	}
	if _, ok := err.(*notImplementedError); ok {
		return 1
	}
	return 3
}

type bugFoundError struct{ msg string }

func (e *bugFoundError) Error() string { return e.msg }

type notImplementedError struct{ msg string }

func (e *notImplementedError) Error() string { return e.msg }
