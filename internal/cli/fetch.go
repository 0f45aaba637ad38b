package cli

import (
	"fmt"
	"strings"

	"github.com/ralt/repofetch/internal/fetcher"
	"github.com/ralt/repofetch/internal/mirror"
	"github.com/ralt/repofetch/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultServer = "https://geo.mirror.pkgbuild.com/$repo/os/$arch"

// NewFetchCmd creates the fetch command
func NewFetchCmd() *cobra.Command {
	var config models.MirrorConfig

	cmd := &cobra.Command{
		Use:   "fetch <name>...",
		Short: "Download the dependency closure of packages or groups",
		Long: `Resolves each name against the configured catalogs (as a package name,
a provided capability or a group) and downloads the closure of runtime
dependencies under the local mirror root, skipping artifacts that
already exist on disk.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateConfig(&config); err != nil {
				return err
			}

			logrus.Debugf("Configuration: %+v", config)

			m, err := mirror.New(cmd.Context(), &config, fetcher.NewHTTPFetcher(nil))
			if err != nil {
				return err
			}

			closure, err := m.Fetch(cmd.Context(), args)
			if err != nil {
				return err
			}

			logrus.Infof("Mirror up to date (%d packages)", len(closure))
			return nil
		},
	}

	addMirrorFlags(cmd, &config)
	cmd.Flags().IntVarP(&config.Parallel, "parallel", "j", 1, "Maximum concurrent downloads")
	cmd.Flags().BoolVar(&config.OptDepends, "optdepends", false, "Include optional dependencies in the closure")

	return cmd
}

// NewResolveCmd creates the resolve command
func NewResolveCmd() *cobra.Command {
	var config models.MirrorConfig

	cmd := &cobra.Command{
		Use:   "resolve <name>...",
		Short: "Print the dependency closure without downloading artifacts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateConfig(&config); err != nil {
				return err
			}

			m, err := mirror.New(cmd.Context(), &config, fetcher.NewHTTPFetcher(nil))
			if err != nil {
				return err
			}

			closure, err := m.Resolve(args)
			if err != nil {
				return err
			}

			for _, pkg := range closure {
				fmt.Fprintln(cmd.OutOrStdout(), pkg.Name)
			}
			return nil
		},
	}

	addMirrorFlags(cmd, &config)
	cmd.Flags().BoolVar(&config.OptDepends, "optdepends", false, "Include optional dependencies in the closure")

	return cmd
}

func addMirrorFlags(cmd *cobra.Command, config *models.MirrorConfig) {
	cmd.Flags().StringVarP(&config.Server, "server", "s", defaultServer, "Mirror URL template with $repo and $arch placeholders")
	cmd.Flags().StringSliceVar(&config.Repos, "repo", []string{"core", "extra"}, "Repositories to load, in resolution order")
	cmd.Flags().StringSliceVar(&config.Arches, "arch", []string{"x86_64"}, "Architectures to load")
	cmd.Flags().StringVarP(&config.OutputDir, "output-dir", "o", "./mirror", "Local mirror root")
}

func validateConfig(config *models.MirrorConfig) error {
	if len(config.Repos) == 0 {
		return &models.MirrorError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("at least one repository is required"),
		}
	}

	if len(config.Arches) == 0 {
		return &models.MirrorError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("at least one architecture is required"),
		}
	}

	if !strings.Contains(config.Server, "$repo") || !strings.Contains(config.Server, "$arch") {
		return &models.MirrorError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("server template must contain $repo and $arch placeholders"),
		}
	}

	if config.OutputDir == "" {
		return &models.MirrorError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("output-dir is required"),
		}
	}

	return nil
}
