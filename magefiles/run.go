//go:build mage

package main

import (
	"fmt"
	"strconv"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the headless demo with the sample configuration.
func (Run) Demo(frames int) error {
	mg.Deps(Build.Demo)
	fmt.Println("Run demo...")
	if _, err := executeCmd("bin/rtgeom", withArgs("-config", "config.toml", "-frames", strconv.Itoa(frames)), withStream()); err != nil {
		return err
	}
	return nil
}
