package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trackmap/trackmap-engine/pkg/client"
	"github.com/trackmap/trackmap-engine/pkg/config"
	"github.com/trackmap/trackmap-engine/pkg/valuetype"
)

// Output formats accepted by --output.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// cliConfig is read from the environment; flags override it.
type cliConfig struct {
	URL     string `env:"TRACKMAP_URL" env-default:"http://localhost:3480" env-description:"Engine base URL"`
	Product string `env:"TRACKMAP_PRODUCT" env-description:"Product ID"`
	Output  string `env:"TRACKMAP_OUTPUT" env-default:"table" env-description:"Output format: table, json or yaml"`

	// Classifier must match the engine's so the type shown while editing
	// agrees with what the server would pick.
	Classifier config.ClassifierConfig
}

// apiFactory builds the engine client once flags are parsed.
type apiFactory func(baseURL string, productID uuid.UUID, logger *zap.Logger) (valuesAPI, error)

type app struct {
	cfg       cliConfig
	productID uuid.UUID
	verbose   bool
	yes       bool

	classifier valuetype.Classifier

	log      *log.Logger
	prompter Prompter
	newAPI   apiFactory
}

func newApp() *app {
	return &app{
		log:      log.NewWithOptions(os.Stderr, log.Options{Prefix: "trackmap"}),
		prompter: huhPrompter{},
		newAPI: func(baseURL string, productID uuid.UUID, logger *zap.Logger) (valuesAPI, error) {
			return client.New(baseURL, productID, client.WithLogger(logger))
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	var flags cliConfig

	root := &cobra.Command{
		Use:   "trackmap",
		Short: "Manage TrackMap suggested values",
		Long: `trackmap lists, creates, edits and deletes the suggested values of one product.

Saving an edit that collides with an existing value offers to merge the two.
Deleting a value first shows which events reference it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.URL, "url", "", "engine base URL (env TRACKMAP_URL)")
	pf.StringVar(&flags.Product, "product", "", "product ID (env TRACKMAP_PRODUCT)")
	pf.StringVarP(&flags.Output, "output", "o", "", "output format: table, json or yaml (env TRACKMAP_OUTPUT)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&a.yes, "yes", "y", false, "answer yes to every confirmation")

	root.AddCommand(newValuesCmd(a))
	return root
}

// configure merges environment and flags and validates the result.
func (a *app) configure(cmd *cobra.Command, flags cliConfig) error {
	if err := cleanenv.ReadEnv(&a.cfg); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	if cmd.Flags().Changed("url") {
		a.cfg.URL = flags.URL
	}
	if cmd.Flags().Changed("product") {
		a.cfg.Product = flags.Product
	}
	if cmd.Flags().Changed("output") {
		a.cfg.Output = flags.Output
	}

	a.log.SetOutput(cmd.ErrOrStderr())
	if a.verbose {
		a.log.SetLevel(log.DebugLevel)
	}

	a.cfg.Output = strings.ToLower(strings.TrimSpace(a.cfg.Output))
	switch a.cfg.Output {
	case outputTable, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown output format %q (expected table, json or yaml)", a.cfg.Output)
	}

	if strings.TrimSpace(a.cfg.Product) == "" {
		return fmt.Errorf("product is required (--product or TRACKMAP_PRODUCT)")
	}
	productID, err := uuid.Parse(strings.TrimSpace(a.cfg.Product))
	if err != nil {
		return fmt.Errorf("invalid product ID %q: %w", a.cfg.Product, err)
	}
	a.productID = productID

	classifier, err := a.cfg.Classifier.Build()
	if err != nil {
		return fmt.Errorf("invalid classifier configuration: %w", err)
	}
	a.classifier = classifier

	a.log.Debug("Configured", "url", a.cfg.URL, "product", a.productID, "output", a.cfg.Output)
	return nil
}

// api builds the engine client. Verbose runs also get the client's request logs.
func (a *app) api() (valuesAPI, error) {
	logger := zap.NewNop()
	if a.verbose {
		dev, err := zap.NewDevelopment()
		if err == nil {
			logger = dev
		}
	}
	return a.newAPI(a.cfg.URL, a.productID, logger)
}

// confirm asks the user, or answers yes when --yes was given.
func (a *app) confirm(w io.Writer, title string) (bool, error) {
	if a.yes {
		fmt.Fprintf(w, "%s yes\n", title)
		return true, nil
	}
	return a.prompter.Confirm(title)
}
