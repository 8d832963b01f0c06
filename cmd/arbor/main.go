// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wingedpig/arbor/internal/app"
	"github.com/wingedpig/arbor/internal/config"
	"github.com/wingedpig/arbor/internal/lifecycle"
	"github.com/wingedpig/arbor/internal/registry"
	"github.com/wingedpig/arbor/internal/ui"
)

var (
	version = "0.9"
)

func main() {
	// Check for subcommands before flag parsing
	if len(os.Args) > 1 && os.Args[1] == "init" {
		if err := runInit(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	var (
		configPath  string
		host        string
		port        int
		backend     string
		serve       bool
		dryRun      bool
		autoYes     bool
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Path to config file (default: auto-detect)")
	flag.StringVar(&configPath, "c", "", "Path to config file (short)")
	flag.StringVar(&host, "host", "", "HTTP server host (overrides config)")
	flag.IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	flag.StringVar(&backend, "backend", "", "Session backend: tmux, zellij or terminal (overrides config)")
	flag.BoolVar(&serve, "serve", false, "Run the status server and dashboard")
	flag.BoolVar(&dryRun, "dry-run", false, "Print launch commands without running anything")
	flag.BoolVar(&autoYes, "yes", false, "Answer yes to confirmation prompts")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.BoolVar(&showVersion, "v", false, "Show version (short)")
	flag.Usage = usage
	flag.Parse()

	if showVersion {
		fmt.Printf("arbor %s\n", version)
		os.Exit(0)
	}

	if configPath == "" {
		found, err := findOrBootstrapConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintln(os.Stderr, "Run 'arbor init' to create a config file.")
			os.Exit(1)
		}
		configPath = found
	}

	log.Printf("Using config: %s", configPath)

	var confirm lifecycle.Confirmer
	if autoYes {
		confirm = lifecycle.AutoConfirm
	} else {
		confirm = lifecycle.ConfirmFunc(promptConfirm)
	}

	application, err := app.New(app.Options{
		ConfigPath: configPath,
		Host:       host,
		Port:       port,
		Backend:    backend,
		DryRun:     dryRun,
		Confirm:    confirm,
		Version:    version,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer application.Shutdown(context.Background())

	ctx := context.Background()

	if serve {
		if err := application.StartWatcher(); err != nil {
			log.Printf("%v", err)
		}
		if err := application.Serve(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if args := flag.Args(); len(args) > 0 {
		if !runCommand(ctx, application, args[0], strings.Join(args[1:], " ")) {
			os.Exit(1)
		}
		return
	}

	if err := application.StartWatcher(); err != nil {
		log.Printf("%v", err)
	}
	runMenu(ctx, application, configPath)
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: arbor [options] [command [selection]]

Commands:
  init                 Create an arbor.hjson config file interactively
  start [selection]    Start apps (default: all)
  stop [selection]     Stop apps (default: all)
  restart [selection]  Restart apps (default: all)
  status               Show derived status of every app
  sessions             List session backend windows
  attach               Attach to the multiplexer session
  dashboard            Write the static HTML dashboard

A selection is an app name, a 1-based index, a range like 2-4, a
comma-separated list, or "all". Without a command, arbor opens an
interactive menu.

Options:
`)
	flag.PrintDefaults()
}

// findOrBootstrapConfig locates the config in the working directory,
// falling back to a one-time copy of the example template.
func findOrBootstrapConfig() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	loader := config.NewLoader()
	path, copied, err := loader.Bootstrap(cwd)
	if err != nil {
		return "", err
	}
	if copied {
		fmt.Printf("Created %s from %s\n", filepath.Base(path), config.TemplateName)
	}
	return path, nil
}

// runCommand executes one non-interactive command. Returns false if any
// per-app operation failed.
func runCommand(ctx context.Context, application *app.App, command, selection string) bool {
	manager := application.Manager()
	styles := application.Styles()

	if selection == "" {
		selection = registry.AllToken
	}

	switch command {
	case "start":
		return printResults(styles, manager.StartList(ctx, resolveSelection(application, selection)))
	case "stop":
		return printResults(styles, manager.StopList(ctx, resolveSelection(application, selection)))
	case "restart":
		return printResults(styles, manager.RestartList(ctx, resolveSelection(application, selection)))
	case "status":
		printStatus(styles, manager.ListStatus(ctx))
		return true
	case "sessions":
		return printSessions(ctx, application)
	case "attach":
		return attachSession(application)
	case "dashboard":
		path, err := application.WriteDashboard(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, styles.Error.Render("Error: "+err.Error()))
			return false
		}
		fmt.Printf("Wrote %s\n", path)
		return true
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		return false
	}
}

// resolveSelection expands a possibly multi-token selection (indices,
// names, ranges, comma lists) against the registry. Unmatched tokens warn
// without aborting the batch.
func resolveSelection(application *app.App, selection string) []config.AppConfig {
	apps, warnings := application.Manager().Registry().ResolveMany(selection)
	for _, warning := range warnings {
		fmt.Fprintln(os.Stderr, application.Styles().Warn.Render(warning))
	}
	return apps
}

func printResults(styles ui.Styles, results []lifecycle.OpResult) bool {
	ok := true
	for _, res := range results {
		switch {
		case errors.Is(res.Err, lifecycle.ErrNotStoppable):
			// Informational: the app has no port, so there is nothing to
			// act on. Not an error exit.
			fmt.Printf("%-20s %s\n", res.App, styles.Muted.Render(res.Err.Error()))
		case res.Err != nil:
			fmt.Println(styles.Error.Render(fmt.Sprintf("%-20s %v", res.App, res.Err)))
			ok = false
		case res.Command != "":
			fmt.Printf("%-20s %s\n", res.App, styles.Muted.Render(res.Command))
		case res.Info != "":
			fmt.Printf("%-20s %s\n", res.App, styles.Muted.Render(res.Info))
		default:
			fmt.Printf("%-20s %s\n", res.App, styles.Running.Render("ok"))
		}
	}
	return ok
}

func printStatus(styles ui.Styles, statuses []lifecycle.AppStatus) {
	fmt.Println(styles.Header.Render(fmt.Sprintf("%-4s %-20s %-12s %-6s %s", "#", "NAME", "TYPE", "PORT", "STATE")))
	for i, st := range statuses {
		portStr := "-"
		if st.Port > 0 {
			portStr = strconv.Itoa(st.Port)
		}
		state := styles.State(st.State.String())
		if !st.Verified && st.State != lifecycle.StateUnknown {
			state += styles.Muted.Render(" (unverified)")
		}
		fmt.Printf("%-4d %-20s %-12s %-6s %s\n", i+1, st.Name, st.Type, portStr, state)
	}
}

func printSessions(ctx context.Context, application *app.App) bool {
	styles := application.Styles()
	windows, err := application.Manager().Sessions(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.Error.Render("Error: "+err.Error()))
		return false
	}
	if len(windows) == 0 {
		fmt.Println(styles.Muted.Render("no session windows"))
		return true
	}
	for _, w := range windows {
		state := styles.Stopped.Render("dead")
		if w.Alive {
			state = styles.Running.Render("alive")
		}
		fmt.Printf("%-30s %s\n", w.Name, state)
	}
	return true
}

func attachSession(application *app.App) bool {
	styles := application.Styles()
	argv := application.Backend().AttachCommand()
	if len(argv) == 0 {
		fmt.Fprintln(os.Stderr, styles.Error.Render("Error: backend "+application.Backend().Name()+" has no attach command"))
		return false
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintln(os.Stderr, styles.Error.Render("Error: "+err.Error()))
		return false
	}
	return true
}

func promptConfirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(input), "y")
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}

// runInit handles the "arbor init" command
func runInit() error {
	initFlags := flag.NewFlagSet("init", flag.ExitOnError)
	showHelp := initFlags.Bool("help", false, "Show help for init command")
	initFlags.BoolVar(showHelp, "h", false, "Show help for init command")
	initFlags.Parse(os.Args[2:])

	if *showHelp {
		fmt.Println(`Usage: arbor init [options]

Create a new arbor.hjson configuration file in the current directory.

This command walks you through registering your local web applications
with interactive prompts. The generated file is fully commented.

Options:
  -h, -help    Show this help message

The command will ask about:
  - Project name (defaults to current directory name)
  - Applications to register (name, type, path, port)

After running init:
  1. Review and edit arbor.hjson as needed
  2. Run: arbor start all`)
		return nil
	}

	configFile := "arbor.hjson"

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use a different directory", configFile)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("Arbor Configuration Setup")
	fmt.Println("=========================")
	fmt.Println()
	fmt.Println("This will create an arbor.hjson configuration file in the current directory.")
	fmt.Println("Press Enter to accept defaults shown in [brackets].")
	fmt.Println()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	defaultName := filepath.Base(cwd)

	projectName := prompt(reader, "Project name", defaultName)

	fmt.Println()
	fmt.Println("Applications are local web apps that arbor starts in terminal sessions.")
	var apps []config.AppConfig
	for {
		addApp := prompt(reader, "Add an application? (y/n)", "n")
		if !strings.EqualFold(addApp, "y") {
			break
		}
		apps = append(apps, promptApp(reader, config.AppConfig{}))
		fmt.Println()
	}

	content := config.GenerateTemplate(projectName, apps)

	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Println()
	fmt.Printf("Created %s\n", configFile)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit arbor.hjson as needed")
	fmt.Println("  2. Run: arbor start all")
	fmt.Println()

	return nil
}

// promptApp asks for one app descriptor, using the passed descriptor's
// fields as defaults (for editing).
func promptApp(reader *bufio.Reader, defaults config.AppConfig) config.AppConfig {
	app := config.AppConfig{}
	app.Name = prompt(reader, "  App name", defaults.Name)
	app.Type = prompt(reader, "  Type (streamlit/django/dash/flask/custom)", orDefault(defaults.Type, "streamlit"))
	app.AppPath = prompt(reader, "  App directory", orDefault(defaults.AppPath, "."))
	if config.ParseAppType(app.Type) == config.TypeCustom {
		app.CustomCommand = prompt(reader, "  Command to run", defaults.CustomCommand)
	} else {
		app.IndexPath = prompt(reader, "  Entry script (or empty to auto-detect)", defaults.IndexPath)
	}

	defaultPort := ""
	if defaults.Port > 0 {
		defaultPort = strconv.Itoa(defaults.Port)
	}
	portStr := prompt(reader, "  Port (or empty for unmanaged)", defaultPort)
	if portStr != "" {
		if n, err := strconv.Atoi(portStr); err == nil {
			app.Port = n
		}
	}
	app.BasePath = prompt(reader, "  URL base path (or empty)", defaults.BasePath)
	return app
}

func orDefault(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}
