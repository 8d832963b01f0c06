// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/wingedpig/arbor/internal/app"
	"github.com/wingedpig/arbor/internal/config"
	"github.com/wingedpig/arbor/internal/registry"
)

const menuHelp = `Commands:
  start <selection>     Start apps (name, index, range, list, or "all")
  stop <selection>      Stop apps
  restart <selection>   Restart apps
  status                Show app status
  sessions              List session backend windows
  attach                Attach to the multiplexer session
  add                   Register a new app
  edit <name|index>     Edit an app descriptor
  delete <name|index>   Remove an app from the registry
  refresh               Reload the config file
  dashboard             Write the static HTML dashboard
  help                  Show this help
  quit                  Exit`

// runMenu drives the interactive prompt loop.
func runMenu(ctx context.Context, application *app.App, configPath string) {
	manager := application.Manager()
	styles := application.Styles()
	store := registry.NewStore(configPath)
	reader := bufio.NewReader(os.Stdin)

	fmt.Println(styles.Title.Render("arbor " + version))
	fmt.Printf("Session backend: %s. Type \"help\" for commands.\n\n", application.Backend().Name())
	printStatus(styles, manager.ListStatus(ctx))

	for {
		fmt.Print(styles.Prompt.Render("arbor> "))
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		command := strings.ToLower(fields[0])
		selection := strings.Join(fields[1:], " ")

		switch command {
		case "quit", "q", "exit":
			return
		case "help", "h", "?":
			fmt.Println(menuHelp)
		case "status", "st", "ls":
			printStatus(styles, manager.ListStatus(ctx))
		case "start", "stop", "restart", "sessions", "attach", "dashboard":
			runCommand(ctx, application, command, selection)
		case "refresh":
			application.Reload()
			printStatus(styles, manager.ListStatus(ctx))
		case "add":
			if err := store.AddApp(ctx, promptApp(reader, config.AppConfig{})); err != nil {
				fmt.Println(styles.Error.Render("Error: " + err.Error()))
				continue
			}
			application.Reload()
		case "edit":
			menuEdit(ctx, application, store, reader, selection)
		case "delete", "rm":
			menuDelete(ctx, application, store, selection)
		default:
			fmt.Printf("Unknown command: %s (try \"help\")\n", command)
		}
	}
}

func menuEdit(ctx context.Context, application *app.App, store *registry.Store, reader *bufio.Reader, selection string) {
	styles := application.Styles()
	if selection == "" {
		fmt.Println("Usage: edit <name|index>")
		return
	}

	apps, err := application.Manager().Registry().Resolve(selection)
	if err != nil || len(apps) != 1 {
		fmt.Println(styles.Error.Render("edit needs exactly one app"))
		return
	}

	updated := promptApp(reader, apps[0])
	if err := store.UpdateApp(ctx, apps[0].Name, updated); err != nil {
		fmt.Println(styles.Error.Render("Error: " + err.Error()))
		return
	}
	application.Reload()
}

func menuDelete(ctx context.Context, application *app.App, store *registry.Store, selection string) {
	styles := application.Styles()
	if selection == "" {
		fmt.Println("Usage: delete <name|index>")
		return
	}

	apps, err := application.Manager().Registry().Resolve(selection)
	if err != nil || len(apps) != 1 {
		fmt.Println(styles.Error.Render("delete needs exactly one app"))
		return
	}

	if !promptConfirm("Remove " + apps[0].Name + " from the registry?") {
		return
	}
	if err := store.RemoveApp(ctx, apps[0].Name); err != nil {
		fmt.Println(styles.Error.Render("Error: " + err.Error()))
		return
	}
	application.Reload()
}
