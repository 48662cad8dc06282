package deployment

import (
	"testing"

	"deployadmin/pkg/framework"
	"deployadmin/pkg/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollbackAction_String(t *testing.T) {
	f := newFixture()
	b := f.fw.Add(test.Bundle("A", "2.0"), framework.StateActive)

	tests := []struct {
		action   RollbackAction
		expected string
	}{
		{StartBundle(b), "start bundle A"},
		{StopBundle(b), "stop bundle A"},
		{UninstallBundle(b), "uninstall bundle A"},
		{RevertBundle(b, test.Bundle("A", "1.0")), "revert bundle A to 1.0"},
		{ReinstallBundle(test.Bundle("A", "1.0")), "reinstall bundle A 1.0"},
		{RestoreSnapshot("/snap/A", "/data/A"), "restore /data/A from /snap/A"},
		{DiscardSnapshot("/snap"), "discard snapshot /snap"},
		{RollbackAction{Kind: 42}, "unknown action 42"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.action.String())
		})
	}
}

func TestPerform_ResolvesReinstalledBundle(t *testing.T) {
	f := newFixture()
	stale := f.fw.Add(test.Bundle("A", "1.0"), framework.StateInstalled)
	s := f.session(test.Package("shop", "1.0.0"), test.Package("shop", "1.0.0"))

	require.NoError(t, stale.Uninstall())
	require.NoError(t, s.perform(ReinstallBundle(test.Bundle("A", "1.0"))))
	require.NoError(t, s.perform(StartBundle(stale)))

	assert.Equal(t, framework.StateActive, f.fw.Bundle("A").State())
	assert.Equal(t, framework.StateUninstalled, stale.State())
}

func TestPerform_ReinstallUpdatesExistingBundle(t *testing.T) {
	f := newFixture()
	f.fw.Add(test.Bundle("A", "2.0"), framework.StateInstalled)
	s := f.session(test.Package("shop", "1.0.0"), test.Package("shop", "1.0.0"))

	require.NoError(t, s.perform(ReinstallBundle(test.Bundle("A", "1.0"))))

	test.AssertEvents(t, f.fw, "update A@1.0")
}

func TestPerform_UnknownAction(t *testing.T) {
	f := newFixture()
	s := f.session(test.Package("shop", "1.0.0"), test.Package("shop", "1.0.0"))

	assert.Error(t, s.perform(RollbackAction{Kind: 42}))
}
