// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cleanup implements the scoped resource-release mechanism that
// every engine iteration and legacy-envelope conversion uses to unlink
// its temporary files on every exit path, successful or not.
package cleanup

import (
	"errors"
	"fmt"
	"os"
)

// Stack accumulates paths to remove and removes them all on Close,
// tolerating paths that are already gone and continuing past removal
// errors so every registered path still gets an unlink attempt.
type Stack struct {
	paths []string
}

// NewStack returns an empty Stack.
func NewStack() *Stack { return &Stack{} }

// Add registers path for removal when the Stack is closed.
func (s *Stack) Add(path string) {
	s.paths = append(s.paths, path)
}

// Close removes every registered path in reverse registration order
// (last acquired, first released), returning a joined error for any
// paths that failed to remove for a reason other than already being
// absent.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.paths) - 1; i >= 0; i-- {
		path := s.paths[i]
		if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("cleanup: removing %s: %w", path, err))
		}
	}
	s.paths = nil
	return errors.Join(errs...)
}
