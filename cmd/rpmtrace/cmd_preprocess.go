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

	"github.com/nic-ct/rpmtrace/internal/tracedriver"
)

// cmdPreprocess resumes only the preprocessing stage against an existing
// staging root, for re-running the analyzer hand-off without re-running
// rpmbuild.
type cmdPreprocess struct {
	globalFlags
}

func (c *cmdPreprocess) Execute(_ []string) error {
	cfg, err := resolveConfig(c.globalFlags)
	if err != nil {
		log.Fatalf("rpmtrace: %s", err)
	}

	d := tracedriver.New(cfg)
	if err := d.RunPreprocessing(context.Background()); err != nil {
		log.Fatalf("rpmtrace: %s", err)
	}

	d.Timer.WriteSummary(os.Stdout)
	return nil
}
