package env

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOsEnv_Get(t *testing.T) {
	env := New()

	t.Setenv("LAZYSCROLL_TEST_VAR", "test_value")
	require.Equal(t, "test_value", env.Get("LAZYSCROLL_TEST_VAR"))
	require.Equal(t, "", env.Get("LAZYSCROLL_NON_EXISTENT_VAR"))
}

func TestOsEnv_Env(t *testing.T) {
	t.Setenv("LAZYSCROLL_TEST_VAR", "1")
	envVars := New().Env()

	require.NotEmpty(t, envVars)
	for _, envVar := range envVars {
		require.Contains(t, envVar, "=")
	}
}

func TestNewFromMap(t *testing.T) {
	t.Parallel()

	env := NewFromMap(map[string]string{"HOME": "/home/lazy", "EMPTY": ""})
	require.Equal(t, "/home/lazy", env.Get("HOME"))
	require.Equal(t, "", env.Get("MISSING"))

	vars := env.Env()
	require.Len(t, vars, 2)
	for _, v := range vars {
		require.True(t, strings.HasPrefix(v, "HOME=") || strings.HasPrefix(v, "EMPTY="))
	}

	require.Nil(t, NewFromMap(nil).Env())
	require.Equal(t, "", NewFromMap(nil).Get("HOME"))
}

func TestBool(t *testing.T) {
	t.Parallel()

	env := NewFromMap(map[string]string{
		"ON":    "1",
		"TRUE":  "true",
		"OFF":   "0",
		"WRONG": "maybe",
	})
	require.True(t, Bool(env, "ON"))
	require.True(t, Bool(env, "TRUE"))
	require.False(t, Bool(env, "OFF"))
	require.False(t, Bool(env, "WRONG"))
	require.False(t, Bool(env, "UNSET"))
}
