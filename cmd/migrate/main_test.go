package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	upErr      error
	steps      []int
	version    uint
	dirty      bool
	versionErr error
	forced     int
	closed     bool
}

func (f *fakeMigrator) Up() error { return f.upErr }
func (f *fakeMigrator) Steps(n int) error {
	f.steps = append(f.steps, n)
	return nil
}
func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, f.versionErr }
func (f *fakeMigrator) Force(v int) error {
	f.forced = v
	return nil
}
func (f *fakeMigrator) Close() (error, error) {
	f.closed = true
	return nil, nil
}

func execute(t *testing.T, fake *fakeMigrator, args ...string) (string, error) {
	t.Helper()
	var gotURL string
	cmd := newRootCommand(func(url string) (migrator, error) {
		gotURL = url
		return fake, nil
	})
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append(args, "--database-url", "postgres://test"))
	err := cmd.Execute()
	if err == nil {
		assert.Equal(t, "postgres://test", gotURL)
	}
	return out.String(), err
}

func TestUp(t *testing.T) {
	fake := &fakeMigrator{}
	out, err := execute(t, fake, "up")

	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")
	assert.True(t, fake.closed)
}

func TestUp_NoChange(t *testing.T) {
	out, err := execute(t, &fakeMigrator{upErr: migrate.ErrNoChange}, "up")

	require.NoError(t, err)
	assert.Contains(t, out, "no change")
}

func TestUp_Error(t *testing.T) {
	_, err := execute(t, &fakeMigrator{upErr: errors.New("boom")}, "up")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate up")
}

func TestDown(t *testing.T) {
	fake := &fakeMigrator{}
	out, err := execute(t, fake, "down", "--steps", "2")

	require.NoError(t, err)
	assert.Equal(t, []int{-2}, fake.steps)
	assert.Contains(t, out, "rolled back 2 migration(s)")
}

func TestDown_InvalidSteps(t *testing.T) {
	fake := &fakeMigrator{}
	_, err := execute(t, fake, "down", "--steps", "0")

	assert.Error(t, err)
	assert.Empty(t, fake.steps)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, &fakeMigrator{version: 3}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version 3 (dirty: false)")

	out, err = execute(t, &fakeMigrator{versionErr: migrate.ErrNilVersion}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "no migrations applied")
}

func TestForce(t *testing.T) {
	fake := &fakeMigrator{}
	_, err := execute(t, fake, "force", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.forced)

	_, err = execute(t, &fakeMigrator{}, "force", "abc")
	assert.Error(t, err)
}

func TestMissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cmd := newRootCommand(func(string) (migrator, error) {
		t.Fatal("factory should not be called")
		return nil, nil
	})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"up"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database url is required")
}
