package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ironsheep/annotation-review/internal/annotations"
	"github.com/ironsheep/annotation-review/internal/config"
	"github.com/ironsheep/annotation-review/internal/imaging"
	"github.com/ironsheep/annotation-review/internal/notify"
	"github.com/ironsheep/annotation-review/internal/server"
	"github.com/ironsheep/annotation-review/internal/viewer"
	"github.com/ironsheep/annotation-review/internal/web"
)

// app carries what the sub-commands share once flags are parsed.
type app struct {
	v          *viper.Viper
	configFile string
	settings   *config.Settings
	session    *viewer.Session
}

func newRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:   "annotation-review",
		Short: "Review and correct circular skin-lesion annotations over an image folder",
		Long: `annotation-review shows each image of an annotation file with its circular
annotations outlined, lets the reviewer select one and change its class, and
saves the file after every change.

Without a sub-command it runs the MCP server on stdin/stdout.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.initialize() },
		RunE:              func(cmd *cobra.Command, args []string) error { return a.runMCP() },
	}

	if err := setupFlags(rootCmd, a); err != nil {
		log.WithError(err).Fatal("Failed to set up flags")
	}

	rootCmd.AddCommand(
		mcpCommand(a),
		serveCommand(a),
		versionCommand(),
	)
	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, a *app) error {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (default annotation-review.yaml in . or the user config dir)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("annotations", "", "Annotation JSON file to open at start-up")
	flags.String("images", "", "Images folder to open at start-up")

	return bindFlags(a.v, flags, map[string]string{
		"log_level":        "log-level",
		"annotations_file": "annotations",
		"images_folder":    "images",
	})
}

// bindFlags binds each viper key to the flag of the given name.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, bindings map[string]string) error {
	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

func mcpCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the review session as MCP tools over stdin/stdout",
		RunE:  func(cmd *cobra.Command, args []string) error { return a.runMCP() },
	}
}

func serveCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the review session over HTTP with a browser page",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return web.New(a.session, Version, a.settings.Server).ListenAndServe(ctx)
		},
	}
	if err := setupServeFlags(cmd, a); err != nil {
		log.WithError(err).Fatal("Failed to set up serve flags")
	}
	return cmd
}

func setupServeFlags(cmd *cobra.Command, a *app) error {
	cmd.Flags().String("listen", "127.0.0.1:8080", "Address to listen on")
	cmd.Flags().Bool("debug", false, "Enable gin debug mode")
	return bindFlags(a.v, cmd.Flags(), map[string]string{
		"server.listen": "listen",
		"server.debug":  "debug",
	})
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// no config or session needed
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "annotation-review %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		},
	}
}

// initialize loads settings, configures logging and builds the session,
// opening the start-up folder and file when configured.
func (a *app) initialize() error {
	settings, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	if err := config.ConfigureLogging(settings.LogLevel); err != nil {
		return err
	}
	a.settings = settings

	opts, err := viewer.OptionsFromSettings(settings)
	if err != nil {
		return err
	}
	status := notify.NewStatusLine(nil, settings.Status.Timeout, settings.Status.KeepStaleTimer)
	a.session = viewer.NewSession(opts, annotations.NewStore(), imaging.NewImageCache(), notify.New(status))

	log.WithFields(log.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
	}).Debug("annotation-review starting")

	// folder first, so opening the file shows the first image
	if settings.ImagesFolder != "" {
		if err := a.session.Dispatch(viewer.FolderPicked{Path: settings.ImagesFolder}); err != nil {
			log.WithError(err).Warn("Could not open start-up images folder")
		}
	}
	if settings.AnnotationsFile != "" {
		if err := a.session.Dispatch(viewer.FilePicked{Path: settings.AnnotationsFile}); err != nil {
			log.WithError(err).Warn("Could not open start-up annotation file")
		}
	}
	return nil
}

func (a *app) runMCP() error {
	srv := server.New(a.session, Version)
	if err := srv.Run(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
