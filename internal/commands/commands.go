/*
 * Copyright (C) 2019 Canonical Ltd
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

// Package commands provides the small amount of process-launching glue
// shared by the tracer and the rpmbuild driver: deciding whether a
// command needs a sudo prefix to install a syscall tracer.
package commands

import (
	"fmt"
	"os/exec"
	"os/user"
	"sync"
)

var (
	userCurrentFn = user.Current

	userOnce   sync.Once
	cachedUser *user.User
	cachedErr  error
)

// currentUser caches user.Current() for the life of the process (or until
// ResetInitialized/MockUserCurrent clears it): AddSudoIfNeeded is called
// once per invocation wrapped, sometimes several times in one run of the
// driver, and there is no reason to hit the OS more than once for it.
func currentUser() (*user.User, error) {
	userOnce.Do(func() {
		cachedUser, cachedErr = userCurrentFn()
	})
	return cachedUser, cachedErr
}

// AddSudoIfNeeded will prefix the given exec.Cmd with sudo if the current user
// is not root.
func AddSudoIfNeeded(cmd *exec.Cmd, sudoArgs ...string) error {
	current, err := currentUser()
	if err != nil {
		return err
	}
	if current.Uid != "0" {
		sudoPath, err := exec.LookPath("sudo")
		if err != nil {
			return fmt.Errorf("cannot use strace without running as root or without sudo: %s", err)
		}

		// prepend the command with sudo and any sudo args
		cmd.Path = sudoPath
		cmd.Args = append(
			append([]string{sudoPath}, sudoArgs...),
			cmd.Args...,
		)
	}
	return nil
}

// MockUserCurrent replaces the user-lookup function used by AddSudoIfNeeded,
// for tests.
func MockUserCurrent(f func() (*user.User, error)) (restore func()) {
	old := userCurrentFn
	userCurrentFn = f
	ResetInitialized()
	return func() {
		userCurrentFn = old
		ResetInitialized()
	}
}

// ResetInitialized clears the cached current-user lookup, for tests.
func ResetInitialized() {
	userOnce = sync.Once{}
	cachedUser, cachedErr = nil, nil
}
