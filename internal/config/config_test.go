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

package config_test

import (
	"os"
	"testing"

	. "gopkg.in/check.v1"

	"github.com/nic-ct/rpmtrace/internal/config"
)

func Test(t *testing.T) { TestingT(t) }

type configSuite struct{}

var _ = Suite(&configSuite{})

var envVars = []string{
	"RPMTRACE_PARALLEL", "RPM_BUILD_NCPUS", "RPMTRACE_STAGING_ROOT",
	"RPMTRACE_STAGE", "RPMTRACE_SRPM_NAME", "RPMTRACE_TRACER_PATH",
	"RPMTRACE_RPMBUILD_PATH", "RPMTRACE_STRING_LIMIT",
}

func (s *configSuite) SetUpTest(c *C) {
	for _, k := range envVars {
		os.Unsetenv(k)
	}
}

func (s *configSuite) TestDefaults(c *C) {
	cfg, err := config.FromEnviron()
	c.Assert(err, IsNil)
	c.Check(cfg.StagingRoot, Equals, "/tmp/rpmtrace")
	c.Check(cfg.Parallel, Equals, int64(1))
	c.Check(cfg.Stage, Equals, config.StageAll)
	c.Check(cfg.TracerPath, Equals, "/usr/bin/strace")
	c.Check(cfg.BuildToolPath, Equals, "/usr/bin/rpmbuild")
}

func (s *configSuite) TestParallelFallsBackToRPMBuildNCPUs(c *C) {
	os.Unsetenv("RPMTRACE_PARALLEL")
	os.Setenv("RPM_BUILD_NCPUS", "4")
	defer os.Unsetenv("RPM_BUILD_NCPUS")

	cfg, err := config.FromEnviron()
	c.Assert(err, IsNil)
	c.Check(cfg.Parallel, Equals, int64(4))
}

func (s *configSuite) TestExplicitParallelWins(c *C) {
	os.Setenv("RPMTRACE_PARALLEL", "8")
	os.Setenv("RPM_BUILD_NCPUS", "4")
	defer os.Unsetenv("RPMTRACE_PARALLEL")
	defer os.Unsetenv("RPM_BUILD_NCPUS")

	cfg, err := config.FromEnviron()
	c.Assert(err, IsNil)
	c.Check(cfg.Parallel, Equals, int64(8))
}

func (s *configSuite) TestInvalidStage(c *C) {
	os.Setenv("RPMTRACE_STAGE", "bogus")
	defer os.Unsetenv("RPMTRACE_STAGE")

	_, err := config.FromEnviron()
	c.Check(err, ErrorMatches, ".*not one of rpmbuild, preprocessing, all.*")
}
