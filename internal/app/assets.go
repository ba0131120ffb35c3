package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var assetsSkipExisting bool

var assetsCmd = &cobra.Command{
	Use:   "assets [profile]",
	Short: "Fetch configuration assets without installing anything",
	Long: `Downloads the profile's configuration assets (prompts, command
templates, settings) into the user config tree, without touching the
tool-chain itself.

Useful for refreshing configuration after the tool-chain is already
bootstrapped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAssets,
}

func init() {
	assetsCmd.Flags().BoolVar(&assetsSkipExisting, "skip-existing", false, "leave already-present files untouched")
	RootCmd.AddCommand(assetsCmd)
}

func runAssets(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile(args)
	if err != nil {
		return err
	}
	if len(profile.Assets) == 0 {
		fmt.Println("Profile declares no assets.")
		return nil
	}

	if err := fetchProfileAssets(context.Background(), profile, assetsSkipExisting); err != nil {
		return err
	}
	fmt.Printf("✓ %d assets up to date in %s\n", len(profile.Assets), profile.AssetDir)
	return nil
}
