package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/ig-installer/internal/config"
	"github.com/oshokin/ig-installer/internal/service/installer"
	"github.com/oshokin/ig-installer/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// serverURL is the FHIR base URL.
	serverURL string
	// packagePath is the NPM package to install.
	packagePath string
	// pollInterval between task status requests.
	pollInterval time.Duration
	// timeout bounds each HTTP call.
	timeout time.Duration
	// logFile receives warnings and errors.
	logFile string
	// logLevel of the console output.
	logLevel string

	// rootCmd represents the base command for installing an Implementation Guide.
	rootCmd = &cobra.Command{
		Use:   "ig-installer --server-url URL --pkg PATH",
		Short: "Install a FHIR Implementation Guide package on a FHIR server.",
		Long: `Uploads an NPM package to the $install operation of a FHIR server and reports the result.

When the server accepts the package for asynchronous processing, the installation
task is polled until it completes or fails and its progress is displayed.
Settings can also come from the configuration file, a .env file or IG_INSTALLER_* variables.
Interrupting the command stops monitoring but does not cancel the task on the server.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &installer.Options{
				ConfigPath:   configPath,
				ServerURL:    serverURL,
				PackagePath:  packagePath,
				PollInterval: pollInterval,
				Timeout:      timeout,
				LogFile:      logFile,
				LogLevel:     logLevel,
				Out:          cmd.OutOrStdout(),
			}

			return installer.Run(ctx, options)
		},
	}

	// configCmd writes the effective settings to a file.
	configCmd = &cobra.Command{
		Use:   "config [output-file]",
		Short: "Write the effective settings to a configuration file.",
		Long: `Merges the configuration file, .env, IG_INSTALLER_* variables and flags,
validates the result and saves it as YAML (ig-installer-settings.yaml by default).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := installer.Settings(&installer.Options{
				ConfigPath:   configPath,
				ServerURL:    serverURL,
				PollInterval: pollInterval,
				Timeout:      timeout,
				LogFile:      logFile,
				LogLevel:     logLevel,
			})
			if err != nil {
				return err
			}

			output := config.DefaultConfigFilename
			if len(args) > 0 {
				output = args[0]
			}

			if err = config.Save(output, cfg); err != nil {
				return err
			}

			cmd.Printf("Settings saved to %s\n", output)

			return nil
		},
	}
)

// Execute runs the ig-installer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(configCmd)

	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}

// normalizeFlagName accepts camelCase spellings such as --serverUrl.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	switch strings.ToLower(name) {
	case "serverurl":
		name = "server-url"
	case "pollinterval":
		name = "poll-interval"
	case "logfile":
		name = "log-file"
	case "loglevel":
		name = "log-level"
	}

	return pflag.NormalizedName(name)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)

	// Flags shared by the root command and the config subcommand.
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "path to configuration file")
	flags.StringVarP(&serverURL, "server-url", "s", "", "FHIR server base URL, e.g. http://localhost:8080/fhir")
	flags.DurationVar(&pollInterval, "poll-interval", 0, "delay between task status requests (default 2s)")
	flags.DurationVar(&timeout, "timeout", 0, "timeout of each HTTP request, 0 disables it")
	flags.StringVar(&logFile, "log-file", "", "file receiving warnings and errors (default "+config.DefaultLogFilename+")")
	flags.StringVar(&logLevel, "log-level", "", "console log level: debug, info, warn or error")

	rootCmd.Flags().StringVarP(&packagePath, "pkg", "p", "", "path to the NPM package (.tgz) to install")
	_ = rootCmd.MarkFlagRequired("pkg")
}
