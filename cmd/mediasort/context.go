package main

import (
	"strings"
	"sync"

	"mediasort/internal/config"
)

type commandContext struct {
	configFlag *string

	configOnce     sync.Once
	config         *config.Config
	configErr      error
	overrides      config.Overrides
	skipEnsureDirs bool
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// setOverrides must run before the first ensureConfig call; the run command
// uses it to apply --source and --dest.
func (c *commandContext) setOverrides(overrides config.Overrides) {
	c.overrides = overrides
}

// skipDirectoryCreation must run before the first ensureConfig call. Dry
// runs use it so the destination tree is never created on their behalf.
func (c *commandContext) skipDirectoryCreation() {
	c.skipEnsureDirs = true
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.LoadWithOverrides(path, c.overrides)
		if err != nil {
			c.configErr = err
			return
		}
		if !c.skipEnsureDirs {
			if err := cfg.EnsureDirectories(); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}
