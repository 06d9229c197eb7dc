/*
	Copyright (c) 2020 Docker Inc.

	Permission is hereby granted, free of charge, to any person
	obtaining a copy of this software and associated documentation
	files (the "Software"), to deal in the Software without
	restriction, including without limitation the rights to use, copy,
	modify, merge, publish, distribute, sublicense, and/or sell copies
	of the Software, and to permit persons to whom the Software is
	furnished to do so, subject to the following conditions:

	The above copyright notice and this permission notice shall be
	included in all copies or substantial portions of the Software.

	THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
	EXPRESS OR IMPLIED,
	INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
	FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
	IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
	HOLDERS BE LIABLE FOR ANY CLAIM,
	DAMAGES OR OTHER LIABILITY,
	WHETHER IN AN ACTION OF CONTRACT,
	TORT OR OTHERWISE,
	ARISING FROM, OUT OF OR IN CONNECTION WITH
	THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

// Command wheelsticks is the thin CLI entrypoint: it wires cobra flags
// onto a reconcile.Options value and hands off to the reconciler.
// Argument-parsing correctness (help text, completion) is cobra's job,
// not this package's; this file is limited to flag-to-struct wiring.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	cliconfig "github.com/docker/wheelsticks/cli/config"
	"github.com/docker/wheelsticks/internal/engine"
	"github.com/docker/wheelsticks/internal/host"
	"github.com/docker/wheelsticks/internal/manifest"
	"github.com/docker/wheelsticks/internal/reconcile"
	"github.com/docker/wheelsticks/internal/version"
	"github.com/docker/wheelsticks/pkg/api"
)

// rootFlags are the daemon-selection flags shared by every subcommand.
type rootFlags struct {
	configDir string
	context   string
	debug     bool
	host      string
	logLevel  string
	tls       bool
	tlsCACert string
	tlsCert   string
	tlsKey    string
	tlsVerify bool
}

func (f *rootFlags) addTo(flags *pflag.FlagSet) {
	flags.StringVar(&f.configDir, "config", "", `Location of the client config files (default "~/.wheelsticks")`)
	flags.StringVar(&f.context, "context", "", "Name of the container-engine context to use")
	flags.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flags.StringVar(&f.host, "host", "", "Daemon URL override")
	flags.StringVar(&f.logLevel, "log-level", "", "Set the logging level (debug|info|warn|error|fatal)")
	flags.BoolVar(&f.tls, "tls", false, "Use TLS")
	flags.StringVar(&f.tlsCACert, "tlscacert", "", "Trust certs signed only by this CA")
	flags.StringVar(&f.tlsCert, "tlscert", "", "Path to TLS certificate file")
	flags.StringVar(&f.tlsKey, "tlskey", "", "Path to TLS key file")
	flags.BoolVar(&f.tlsVerify, "tlsverify", false, "Use TLS and verify the remote")
}

func (f *rootFlags) daemonArgs() engine.DaemonArgs {
	return engine.DaemonArgs{
		Config:    f.configDir,
		Context:   f.context,
		Debug:     f.debug,
		Host:      f.host,
		LogLevel:  engine.LogLevel(f.logLevel),
		TLS:       f.tls,
		TLSCACert: f.tlsCACert,
		TLSCert:   f.tlsCert,
		TLSKey:    f.tlsKey,
		TLSVerify: f.tlsVerify,
	}
}

// reconcileFlags are the Compose and apply flag sets specific to the
// reconcile subcommand.
type reconcileFlags struct {
	files            []string
	envFiles         []string
	projectName      string
	projectDirectory string
	ansi             string
	compatibility    bool
	parallel         int
	profiles         []string
	progress         string

	manifestPath string
	build        bool
	dryRun       bool

	noBuild          bool
	noStart          bool
	pull             string
	quietPull        bool
	removeOrphans    bool
	renewAnonVolumes bool
	timeout          int
	wait             bool
	waitTimeout      int
}

func (f *reconcileFlags) addTo(flags *pflag.FlagSet) {
	flags.StringSliceVarP(&f.files, "file", "f", nil, "Compose configuration file(s)")
	flags.StringSliceVar(&f.envFiles, "env-file", nil, "Specify alternate env file(s)")
	flags.StringVarP(&f.projectName, "project-name", "p", "", "Project name")
	flags.StringVar(&f.projectDirectory, "project-directory", "", "Specify an alternate working directory")
	flags.StringVar(&f.ansi, "ansi", "", "Control when to print ANSI control characters (never|always|auto)")
	flags.BoolVar(&f.compatibility, "compatibility", false, "Run in backward compatibility mode")
	flags.IntVar(&f.parallel, "parallel", 0, "Control max parallelism (0 means no limit passed through)")
	flags.StringSliceVar(&f.profiles, "profile", nil, "Specify a profile to enable")
	flags.StringVar(&f.progress, "progress", "", "Set type of progress output (auto|tty|plain|quiet)")

	flags.StringVar(&f.manifestPath, "manifest", "docker-compose.yaml", "Path to the manifest to reconcile")
	flags.BoolVar(&f.build, "build", false, "Build images before reconciling")
	flags.BoolVar(&f.dryRun, "dry-run", false, "Log the plan without applying any change")

	flags.BoolVar(&f.noBuild, "no-build", false, "Don't build an image, even if it's missing")
	flags.BoolVar(&f.noStart, "no-start", false, "Don't start the services after creating them")
	flags.StringVar(&f.pull, "pull", "", "Pull image before running (always|missing|never)")
	flags.BoolVar(&f.quietPull, "quiet-pull", false, "Pull without printing progress information")
	flags.BoolVar(&f.removeOrphans, "remove-orphans", false, "Remove containers for services not defined in the manifest")
	flags.BoolVar(&f.renewAnonVolumes, "renew-anon-volumes", false, "Recreate anonymous volumes instead of retrieving data from previous containers")
	flags.IntVar(&f.timeout, "timeout", 0, "Use this timeout in seconds for container shutdown when attached or when containers are already running")
	flags.BoolVar(&f.wait, "wait", false, "Wait for services to be running|healthy")
	flags.IntVar(&f.waitTimeout, "wait-timeout", 0, "Maximum duration in seconds to wait for the project to be running|healthy")
}

func (f *reconcileFlags) composeArgs(projectName string) engine.ComposeArgs {
	a := engine.ComposeArgs{
		ANSI:             f.ansi,
		Compatibility:    f.compatibility,
		EnvFiles:         f.envFiles,
		Files:            f.files,
		Profiles:         f.profiles,
		Progress:         f.progress,
		ProjectDirectory: f.projectDirectory,
		ProjectName:      projectName,
	}
	if f.parallel > 0 {
		a.Parallel = &f.parallel
	}
	return a
}

func (f *reconcileFlags) upArgs() engine.UpArgs {
	a := engine.UpArgs{
		NoBuild:          f.noBuild,
		NoStart:          f.noStart,
		Pull:             engine.PullPolicy(f.pull),
		QuietPull:        f.quietPull,
		RemoveOrphans:    f.removeOrphans,
		RenewAnonVolumes: f.renewAnonVolumes,
		Wait:             f.wait,
	}
	if f.timeout > 0 {
		a.Timeout = &f.timeout
	}
	if f.waitTimeout > 0 {
		a.WaitTimeout = &f.waitTimeout
	}
	return a
}

func main() {
	root, rf := newRootCommand()
	root.AddCommand(newReconcileCommand(rf))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func newRootCommand() (*cobra.Command, *rootFlags) {
	rf := &rootFlags{}
	root := &cobra.Command{
		Use:           "wheelsticks",
		Short:         "Continuous delivery for Compose-based applications",
		Version:       toolVersion(),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			applyLogLevel(rf)
		},
	}
	rf.addTo(root.PersistentFlags())
	return root, rf
}

// toolVersion prefers the normalized three-component version, falling back
// to the raw build stamp for non-semver development builds.
func toolVersion() string {
	if api.EngineVersion != "" {
		return api.EngineVersion
	}
	return version.Version
}

func applyLogLevel(rf *rootFlags) {
	if rf.debug {
		logrus.SetLevel(logrus.DebugLevel)
		return
	}
	if rf.logLevel == "" {
		return
	}
	level, err := logrus.ParseLevel(rf.logLevel)
	if err != nil {
		logrus.Warnf("Unrecognized log level %q; keeping the default.", rf.logLevel)
		return
	}
	logrus.SetLevel(level)
}

func newReconcileCommand(rf *rootFlags) *cobra.Command {
	recf := &reconcileFlags{}
	cmd := &cobra.Command{
		Use:   "reconcile [SERVICE...]",
		Short: "Converge the running containers to the manifest's declared services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cliconfig.Load(cliconfig.Dir(rf.configDir))
			if err != nil {
				return err
			}
			applyConfigDefaults(rf, recf, cfg)

			opts := reconcile.Options{
				ManifestPath: recf.manifestPath,
				ProjectName:  recf.projectName,
				HostOverride: rf.host,
				SSHOptions:   cfg.SSHOptions,
				Daemon:       rf.daemonArgs(),
				Compose:      recf.composeArgs(recf.projectName),
				Up:           recf.upArgs(),
				Build:        recf.build,
				DryRun:       recf.dryRun,
				ServiceNames: args,
			}
			return reconcile.Run(cmd.Context(), opts, manifest.OSLookup(os.LookupEnv), host.OSEnvLookup())
		},
	}
	recf.addTo(cmd.Flags())
	return cmd
}

// applyConfigDefaults fills in flags left at their default value (empty, or
// "docker-compose.yaml" for the manifest path) from the on-disk
// configuration file; a flag set to anything else always wins.
func applyConfigDefaults(rf *rootFlags, recf *reconcileFlags, cfg *cliconfig.File) {
	if rf.host == "" {
		rf.host = cfg.Host
	}
	if rf.logLevel == "" {
		rf.logLevel = cfg.LogLevel
	}
	if recf.manifestPath == "docker-compose.yaml" && cfg.ManifestPath != "" {
		recf.manifestPath = cfg.ManifestPath
	}
	applyLogLevel(rf)
}
