// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authcore/internal/config"
	"github.com/holomush/authcore/pkg/errutil"
)

type fakeMigrator struct {
	url     string
	calls   []string
	version uint
	dirty   bool
	pending []uint
	upErr   error
	closed  bool
}

func (f *fakeMigrator) Up() error {
	f.calls = append(f.calls, "up")
	return f.upErr
}

func (f *fakeMigrator) Down() error {
	f.calls = append(f.calls, "down")
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, nil }
func (f *fakeMigrator) Pending() ([]uint, error)     { return f.pending, nil }

func (f *fakeMigrator) Close() error {
	f.closed = true
	return nil
}

// useFakeMigrator installs fake and an environment built from env for the
// duration of the test.
func useFakeMigrator(t *testing.T, fake *fakeMigrator, env map[string]string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	prevNew, prevLookup := newMigrator, lookupEnv
	newMigrator = func(url string) (migrator, error) {
		fake.url = url
		return fake, nil
	}
	lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	t.Cleanup(func() { newMigrator, lookupEnv = prevNew, prevLookup })
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestMigrateUp(t *testing.T) {
	fake := &fakeMigrator{}
	useFakeMigrator(t, fake, map[string]string{config.EnvName("database-url"): "postgres://env/db"})

	out, err := runRoot(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations applied")
	assert.Equal(t, []string{"up"}, fake.calls)
	assert.Equal(t, "postgres://env/db", fake.url)
	assert.True(t, fake.closed)
}

func TestMigrateUp_FlagOverridesEnvironment(t *testing.T) {
	fake := &fakeMigrator{}
	useFakeMigrator(t, fake, map[string]string{"DATABASE_URL": "postgres://env/db"})

	_, err := runRoot(t, "migrate", "up", "--database-url", "postgres://flag/db")
	require.NoError(t, err)
	assert.Equal(t, "postgres://flag/db", fake.url)
}

func TestMigrateUp_Failure(t *testing.T) {
	fake := &fakeMigrator{upErr: errors.New("locked")}
	useFakeMigrator(t, fake, map[string]string{"DATABASE_URL": "postgres://env/db"})

	_, err := runRoot(t, "migrate", "up")
	require.Error(t, err)
	assert.True(t, fake.closed, "migrator is closed after a failure")
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	useFakeMigrator(t, &fakeMigrator{}, nil)

	_, err := runRoot(t, "migrate", "up")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestMigrateDown_RequiresConfirmation(t *testing.T) {
	fake := &fakeMigrator{}
	useFakeMigrator(t, fake, map[string]string{"DATABASE_URL": "postgres://env/db"})

	_, err := runRoot(t, "migrate", "down")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIRMATION_REQUIRED")
	assert.Empty(t, fake.calls)

	out, err := runRoot(t, "migrate", "down", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations rolled back")
	assert.Equal(t, []string{"down"}, fake.calls)
}

func TestMigrateVersion(t *testing.T) {
	fake := &fakeMigrator{version: 1, pending: []uint{2}}
	useFakeMigrator(t, fake, map[string]string{"DATABASE_URL": "postgres://env/db"})

	out, err := runRoot(t, "migrate", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version: 1")
	assert.Contains(t, out, "dirty: false")
	assert.Contains(t, out, "pending: [2]")
}
