package deployment

import (
	"errors"
	"path/filepath"
	"testing"

	"deployadmin/pkg/framework"
	"deployadmin/pkg/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upgradeFixture() (*fixture, *Session) {
	f := newFixture()
	f.fw.Add(test.Bundle("A", "1.0"), framework.StateActive)
	f.fw.Add(test.Bundle("B", "1.0"), framework.StateActive)
	target := test.Package("shop", "1.0.0", test.Bundle("A", "1.0"), test.Bundle("B", "1.0"))
	source := test.Package("shop", "2.0.0", test.Bundle("A", "2.0"), test.Bundle("C", "1.0"))
	return f, f.session(source, target, InstallChain(true)...)
}

func TestInstallChain_Commits(t *testing.T) {
	f, s := upgradeFixture()

	require.NoError(t, s.Call())

	test.AssertEvents(t, f.fw,
		"stop A", "stop B",
		"update A@2.0", "install C@1.0",
		"uninstall B",
		"start A", "start C",
	)
	assert.Equal(t, StateCommitted, s.State())
	assert.Nil(t, f.fw.Bundle("B"))
	assert.Equal(t, framework.StateActive, f.fw.Bundle("C").State())
	test.AssertFileNotExists(t, f.fs, filepath.Join("/snapshots", s.ID()))
}

func TestInstallChain_RollsBackInReverse(t *testing.T) {
	f, s := upgradeFixture()
	test.CreateTestFile(t, f.fs, "/data/B/state.db", "b")
	f.fw.SetError("install", "C", errors.New("corrupt archive"))

	err := s.Call()

	require.Error(t, err)
	code, _ := ErrorCode(err)
	assert.Equal(t, CodeOtherError, code)
	test.AssertEvents(t, f.fw,
		"stop A", "stop B",
		"update A@2.0",
		"update A@1.0",
		"start B", "start A",
	)
	assert.Equal(t, StateRolledBack, s.State())
	assert.Equal(t, "1.0", f.fw.Bundle("A").Version())
	test.AssertFileExists(t, f.fs, "/data/B/state.db", "b")
	test.AssertFileNotExists(t, f.fs, filepath.Join("/snapshots", s.ID()))
}

func TestInstallChain_DroppedBundleIsReinstalledOnRollback(t *testing.T) {
	f := newFixture()
	f.fw.Add(test.Bundle("A", "1.0"), framework.StateActive)
	f.fw.Add(test.Bundle("B", "1.0"), framework.StateActive)
	test.CreateTestFile(t, f.fs, "/data/B/state.db", "b")
	target := test.Package("shop", "1.0.0", test.Bundle("A", "1.0"), test.Bundle("B", "1.0"))
	source := test.Package("shop", "2.0.0", test.Bundle("A", "2.0"))
	failing := newFakeCommand("verify", &recorder{})
	failing.err = errors.New("verification failed")
	s := f.session(source, target, append(InstallChain(true), failing)...)

	require.Error(t, s.Call())

	test.AssertEvents(t, f.fw,
		"stop A", "stop B",
		"update A@2.0",
		"uninstall B",
		"start A",
		"stop A",
		"install B@1.0",
		"update A@1.0",
		"start B", "start A",
	)
	require.NotNil(t, f.fw.Bundle("B"))
	assert.Equal(t, framework.StateActive, f.fw.Bundle("B").State())
	test.AssertFileExists(t, f.fs, "/data/B/state.db", "b")
}

func TestUninstallChain_RemovesAllBundles(t *testing.T) {
	f := newFixture()
	f.fw.Add(test.Bundle("A", "1.0"), framework.StateActive)
	f.fw.Add(test.Bundle("B", "1.0"), framework.StateInstalled)
	target := test.Package("shop", "1.0.0", test.Bundle("A", "1.0"), test.Bundle("B", "1.0"))
	s := f.session(test.Package("shop", "0.0.0"), target, UninstallChain()...)

	require.NoError(t, s.Call())

	test.AssertEvents(t, f.fw, "stop A", "uninstall A", "uninstall B")
	assert.Empty(t, f.fw.Bundles())
}

func TestUninstallChain_RollbackRestoresBundles(t *testing.T) {
	f := newFixture()
	f.fw.Add(test.Bundle("A", "1.0"), framework.StateActive)
	f.fw.Add(test.Customizer("cust", "1.0"), framework.StateInstalled)
	f.fw.SetError("start", "cust", errors.New("activator threw"))
	target := test.Package("shop", "1.0.0", test.Customizer("cust", "1.0"), test.Bundle("A", "1.0"))
	s := f.session(test.Package("shop", "0.0.0"), target, UninstallChain()...)

	require.Error(t, s.Call())

	test.AssertEvents(t, f.fw, "stop A", "start A")
	assert.Equal(t, framework.StateActive, f.fw.Bundle("A").State())
}
