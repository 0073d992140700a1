/*
 * Copyright (C) 2025 rpmtrace contributors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package main

import (
	"context"
	"log"
	"os"

	"github.com/nic-ct/rpmtrace/internal/config"
	"github.com/nic-ct/rpmtrace/internal/tracedriver"
)

// cmdBuild runs rpmbuild under the tracer and, when the stage is "all"
// and rpmbuild ran a package build that exited 0, immediately runs the
// preprocessing stage as well.
type cmdBuild struct {
	globalFlags

	Args struct {
		RpmbuildArgs []string `description:"arguments to pass to rpmbuild"`
	} `positional-args:"yes" required:"yes"`
}

func (c *cmdBuild) Execute(_ []string) error {
	cfg, err := resolveConfig(c.globalFlags)
	if err != nil {
		log.Fatalf("rpmtrace: %s", err)
	}

	d := tracedriver.New(cfg)
	ctx := context.Background()

	rc, err := d.RunBuild(ctx, c.Args.RpmbuildArgs)
	if err != nil {
		log.Fatalf("rpmtrace: running rpmbuild: %s", err)
	}

	if cfg.Stage == config.StageAll && rc == 0 && tracedriver.IsPackageBuild(c.Args.RpmbuildArgs) {
		if err := d.RunPreprocessing(ctx); err != nil {
			log.Fatalf("rpmtrace: %s", err)
		}
	}

	d.Timer.WriteSummary(os.Stdout)

	if rc != 0 {
		os.Exit(rc)
	}
	return nil
}
