package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/ngrpv/untar/pkg/archive"
	"github.com/ngrpv/untar/pkg/config"
	"github.com/ngrpv/untar/pkg/filter"
	"github.com/ngrpv/untar/pkg/progress"
	"github.com/spf13/cobra"
)

func runRoot(cmd *cobra.Command, args []string) error {
	if !listNames && !showInfo && !extractAll {
		return errors.New("action must be specified")
	}

	ctx := cmd.Context()

	cfg, err := config.LoadConfig(cfgFile, envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	m, err := filter.NewMatcher(cfg.Extract.Includes, cfg.Extract.Excludes)
	if err != nil {
		return err
	}

	src, err := createSource(ctx, cfg, args[0])
	if err != nil {
		return err
	}

	if cfg.Decrypt.Enabled {
		ds, err := createDecryptSource(cfg, src)
		if err != nil {
			return err
		}
		if verifyMAC {
			if err := ds.Verify(ctx); err != nil {
				return err
			}
		}
		src = ds
	} else if verifyMAC {
		return errors.New("--verify requires --decrypt")
	}

	a := archive.New(src)

	// Info wins over list; extraction runs in addition to either.
	if showInfo {
		if err := printInfo(ctx, a, m, cmd.OutOrStdout()); err != nil {
			return err
		}
	} else if listNames {
		if err := printNames(ctx, a, m, cmd.OutOrStdout()); err != nil {
			return err
		}
	}

	if extractAll {
		return runExtract(ctx, a, m, cfg)
	}
	return nil
}

// applyFlags overlays command line values on cfg.
func applyFlags(cfg *config.Config) {
	if provider != "" {
		cfg.Source.Provider = provider
	}
	if endpoint != "" {
		cfg.Source.Endpoint = endpoint
	}
	if region != "" {
		cfg.Source.Region = region
	}
	if accessKey != "" {
		cfg.Source.AccessKey = accessKey
	}
	if secretKey != "" {
		cfg.Source.SecretKey = secretKey
	}

	if outputDir != "" {
		cfg.Extract.Dir = outputDir
	}
	if len(includes) > 0 {
		cfg.Extract.Includes = includes
	}
	if len(excludes) > 0 {
		cfg.Extract.Excludes = excludes
	}
	if noProgress {
		cfg.Display.Progress = false
	}

	if decrypt {
		cfg.Decrypt.Enabled = true
	}
	if password != "" {
		cfg.Decrypt.Password = password
	}
	if keyFile != "" {
		cfg.Decrypt.KeyFile = keyFile
	}
}

func runExtract(ctx context.Context, a *archive.Archive, m *filter.Matcher, cfg *config.Config) error {
	var reporter progress.Reporter = progress.NewSilent()
	if cfg.Display.Progress {
		reporter = progress.NewBar()
	}
	defer reporter.Close()

	return a.Extract(ctx, cfg.Extract.Dir,
		archive.WithReporter(reporter),
		archive.WithFilter(m.Match),
	)
}
