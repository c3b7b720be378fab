package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/daryltucker/variant-runner/internal/assets"
	"github.com/daryltucker/variant-runner/internal/output"
)

var functionsTarget string

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "Manage jq functions for querying result artifacts",
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the artifact jq functions (default ~/.config/vecq/functions/)",
	Long: `Copies the embedded jq helpers (failed, succeeded, by_prompt, by_task,
token_totals, slowest) next to other vecq functions so saved artifacts can be
queried directly, e.g.:

  jq 'include "variants"; token_totals' output/experiment_haiku.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		targetDir := functionsTarget
		if targetDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get user home directory: %w", err)
			}
			targetDir = filepath.Join(home, ".config", "vecq", "functions")
		}
		n, err := installFunctions(targetDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed %d function file(s) to %s\n", n, targetDir)
		return nil
	},
}

func installFunctions(targetDir string) (int, error) {
	output.Logger.Info("Installing jq functions", "target", targetDir)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create target directory %s: %w", targetDir, err)
	}

	entries, err := fs.ReadDir(assets.Functions, "functions")
	if err != nil {
		return 0, fmt.Errorf("failed to read embedded functions: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := fs.ReadFile(assets.Functions, "functions/"+entry.Name())
		if err != nil {
			output.Logger.Error("Failed to read embedded file", "file", entry.Name(), "error", err)
			continue
		}
		targetPath := filepath.Join(targetDir, entry.Name())
		if err := os.WriteFile(targetPath, content, 0o644); err != nil {
			output.Logger.Error("Failed to write to target", "path", targetPath, "error", err)
			continue
		}
		output.Logger.Debug("Installed function", "name", entry.Name())
		count++
	}
	return count, nil
}

func init() {
	functionsCmd.AddCommand(installCmd)
	rootCmd.AddCommand(functionsCmd)
	installCmd.Flags().StringVar(&functionsTarget, "target", "", "Install into this directory instead")
}
