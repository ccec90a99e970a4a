package main

import (
	"fmt"

	"github.com/getkayan/medgas/health"
)

// ---- Health Commands ----

func (c *CLI) healthCommand() error {
	report := c.app.Health.Run(c.ctx)
	if err := c.prettyPrint(report); err != nil {
		return err
	}
	if !report.Healthy() {
		return fmt.Errorf("%s", health.StatusUnhealthy)
	}
	return nil
}
