package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeSystemd(t *testing.T) *[]string {
	t.Helper()

	oldPath, oldRun := unitPath, systemctl
	unitPath = filepath.Join(t.TempDir(), "system", "batterybomber.service")
	var calls []string
	systemctl = func(args ...string) error {
		calls = append(calls, strings.Join(args, " "))
		return nil
	}
	t.Cleanup(func() { unitPath, systemctl = oldPath, oldRun })

	return &calls
}

func TestUnit(t *testing.T) {
	unit := Unit("/usr/local/bin/batterybomber", "/etc/bb.json")
	assert.Contains(t, unit, "ExecStart=/usr/local/bin/batterybomber daemon --config /etc/bb.json\n")
	assert.NotContains(t, unit, "/path/to")
}

func TestInstallUninstall(t *testing.T) {
	calls := fakeSystemd(t)

	require.NoError(t, Install("/etc/bb.json"))
	b, err := os.ReadFile(unitPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "daemon --config /etc/bb.json")
	assert.Equal(t, []string{"daemon-reload", "enable --now batterybomber.service"}, *calls)

	require.NoError(t, Uninstall())
	_, err = os.Stat(unitPath)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, []string{"disable --now batterybomber.service", "daemon-reload"}, (*calls)[2:])

	// Nothing left to remove.
	require.NoError(t, Uninstall())
}

func TestUninstallStopFails(t *testing.T) {
	fakeSystemd(t)
	systemctl = func(...string) error { return errors.New("not root") }

	err := Uninstall()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Are you root?")
}
