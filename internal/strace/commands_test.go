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

package strace_test

import (
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/nic-ct/rpmtrace/internal/commands"
	"github.com/nic-ct/rpmtrace/internal/strace"
	. "gopkg.in/check.v1"
)

type commandsSuite struct{}

var _ = Suite(&commandsSuite{})

func (s *commandsSuite) TestTraceCommandAsRoot(c *C) {
	restore := commands.MockUserCurrent(func() (*user.User, error) {
		return &user.User{Uid: "0"}, nil
	})
	defer restore()

	cmd, err := strace.TraceCommand("/usr/bin/strace", "/tmp/trace/trace-rpmbuild", 4096, "rpmbuild", "-ba", "foo.spec")
	c.Assert(err, IsNil)
	c.Check(cmd.Path, Equals, "/usr/bin/strace")
	joined := strings.Join(cmd.Args, " ")
	c.Check(joined, Matches, `.*-xx.*`)
	c.Check(joined, Matches, `.*--absolute-timestamps=format:unix,precision:ns.*`)
	c.Check(joined, Matches, `.*-ff.*`)
	c.Check(joined, Matches, `.*--decode-fds=all.*`)
	c.Check(joined, Matches, `.*--string-limit=4096.*`)
	c.Check(joined, Matches, `.*trace=fork,vfork,clone,\?clone2,\?clone3,execve,\?execveat,chdir,fchdir,\?open,\?openat,\?openat2.*`)
	c.Check(joined, Matches, `.*-z.*`)
	c.Check(joined, Matches, `.*--seccomp-bpf.*`)
	c.Check(joined, Matches, `.*-o /tmp/trace/trace-rpmbuild.*`)
	c.Check(joined, Matches, `.*rpmbuild -ba foo.spec$`)
	c.Check(cmd.Args[0], Equals, "/usr/bin/strace", Commentf("no sudo prefix expected when running as root"))
}

func (s *commandsSuite) TestTraceCommandAsUser(c *C) {
	restore := commands.MockUserCurrent(func() (*user.User, error) {
		return &user.User{Uid: "1000"}, nil
	})
	defer restore()

	tmpDir := c.MkDir()
	sudoPath := filepath.Join(tmpDir, "sudo")
	c.Assert(ioutil.WriteFile(sudoPath, []byte{}, 0755), IsNil)
	oldPath := os.Getenv("PATH")
	os.Setenv("PATH", tmpDir)
	defer os.Setenv("PATH", oldPath)

	cmd, err := strace.TraceCommand("/usr/bin/strace", "/tmp/trace/trace-rpmbuild", 4096, "rpmbuild", "-ba", "foo.spec")
	c.Assert(err, IsNil)
	c.Check(cmd.Args[0], Equals, sudoPath)
	c.Check(cmd.Args[1], Equals, "-E", Commentf("sudo -E should come right after the sudo path"))
}
