// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRootCommand_HasExpectedBasics(t *testing.T) {
	cmd := NewRootCommand()

	require.Equal(t, "hopline", cmd.Use)
	require.NotEmpty(t, cmd.Short)

	versionCmd, _, err := cmd.Find([]string{"version"})
	require.NoError(t, err, "expected to find 'version' subcommand")
	require.Equal(t, "version", versionCmd.Use)

	require.NotNil(t, cmd.Flags().Lookup("config"), "expected a --config flag")
}

func TestVersionCommand_PrintsVersion(t *testing.T) {
	cmd := NewRootCommand()

	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	require.Contains(t, buf.String(), "hopline version")
}
