//go:build integration

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

func TestScript(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
		Setup: func(env *testscript.Env) error {
			env.Setenv("AVALANCHE_GENERAL_PLAIN", "true")
			env.Setenv("AVALANCHE_LOGGING_LEVEL", "error")
			env.Setenv("AVALANCHE_STORE_DIR", filepath.Join(env.WorkDir, ".state"))
			homeDir := filepath.Join(env.WorkDir, ".home")
			if err := os.MkdirAll(homeDir, 0o755); err != nil {
				return err
			}
			env.Setenv("HOME", homeDir)
			env.Setenv("XDG_CONFIG_HOME", filepath.Join(homeDir, ".config"))
			gitConfigPath := filepath.Join(homeDir, ".gitconfig")
			gitConfigContent := `[init]
	defaultBranch = main
[advice]
	defaultBranchName = false
[user]
	name = Test
	email = test@example.com
[commit]
	gpgsign = false
`
			return os.WriteFile(gitConfigPath, []byte(gitConfigContent), 0o644)
		},
	})
}

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"avalanche": func() int {
			main()
			return 0
		},
	}))
}
