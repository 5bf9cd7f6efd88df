package provision

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fontrelease/internal/command"
	"fontrelease/internal/config"
)

func newTestProvisioner(mock *command.MockExecutor, inherited string) *Provisioner {
	p := New(mock, config.DefaultConfig(), nil)
	p.getenv = func(string) string { return inherited }
	return p
}

func TestProvision_RunsCommandsThenVerifies(t *testing.T) {
	mock := &command.MockExecutor{}
	p := newTestProvisioner(mock, "")

	err := p.Provision(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{
		"sudo apt-get update",
		"sudo apt-get install -y fontforge python3-fontforge",
		"python3 -c import fontforge",
	}, mock.Commands())

	verify := mock.Specs()[2]
	assert.Equal(t, []string{"PYTHONPATH=/usr/lib/python3/dist-packages"}, verify.Env)
}

func TestProvision_StopsAtFirstFailure(t *testing.T) {
	mock := &command.MockExecutor{FailOn: "apt-get update", FailCode: 100}
	p := newTestProvisioner(mock, "")

	err := p.Provision(context.Background())

	require.Error(t, err)
	code, ok := command.ExitCode(err)
	assert.True(t, ok)
	assert.Equal(t, 100, code)
	assert.Len(t, mock.Specs(), 1)
}

func TestProvision_ModuleNotImportable(t *testing.T) {
	mock := &command.MockExecutor{FailOn: "import fontforge"}
	p := newTestProvisioner(mock, "")

	err := p.Provision(context.Background())

	assert.ErrorIs(t, err, ErrNoModule)
}

func TestProvision_SkipsBlankCommands(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provision.Commands = []string{"  ", "brew install fontforge"}
	mock := &command.MockExecutor{}
	p := New(mock, cfg, nil)
	p.getenv = func(string) string { return "" }

	require.NoError(t, p.Provision(context.Background()))
	assert.Equal(t, "brew install fontforge", mock.Commands()[0])
}

func TestModuleEnv(t *testing.T) {
	sep := string(filepath.ListSeparator)

	assert.Nil(t, ModuleEnv(nil, "/inherited"))
	assert.Equal(t, []string{"PYTHONPATH=/a"}, ModuleEnv([]string{"/a", " "}, ""))
	assert.Equal(t,
		[]string{"PYTHONPATH=" + strings.Join([]string{"/a", "/b", "/inherited"}, sep)},
		ModuleEnv([]string{"/a", "/b"}, "/inherited"))
}
