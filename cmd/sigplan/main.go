// Command sigplan analyzes reactive components: the dependency sets of
// each view binding, the static graph, and a dry-run mount.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omnicraft/sig/ast"
	"github.com/omnicraft/sig/config"
	"github.com/omnicraft/sig/extract"
	"github.com/omnicraft/sig/logger"
)

type app struct {
	configPath string

	// logOut replaces the configured log output when set
	logOut io.Writer

	cfg    *config.Config
	log    *slog.Logger
	closer func() error
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return (&app{}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sigplan",
		Short: "Analyze reactive components",
		Long: `sigplan reads a component in the kind-tagged YAML or JSON form and
reports what each view binding depends on.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closer != nil {
				return a.closer()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (yaml or json)")

	root.AddCommand(
		planCmd(a),
		checkCmd(a),
		runCmd(a),
	)

	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	log, closer, err := logger.NewWithWriter(cfg.Log, a.logOut)
	if err != nil {
		return err
	}

	a.cfg, a.log, a.closer = cfg, log, closer
	return nil
}

func (a *app) extractor() *extract.Extractor {
	return extract.New(extract.WithLogger(a.log))
}

func readComponent(path string) (*ast.Component, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return ast.DecodeYAML(data)
	case ".json":
		return ast.DecodeJSON(data)
	default:
		return nil, fmt.Errorf("unsupported component format: %s", ext)
	}
}
