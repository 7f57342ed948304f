package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mkline-dev/valet/internal/agent"
	"github.com/mkline-dev/valet/internal/config"
	"github.com/mkline-dev/valet/internal/errors"
	"github.com/mkline-dev/valet/internal/mcp"
	"github.com/mkline-dev/valet/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:    "valet",
		Usage:   "Personal assistant orchestration service",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data",
				Usage:   "Data directory (agents, memory, knowledge)",
				EnvVars: []string{"VALET_DATA"},
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			mcpCmd(),
			agentsCmd(),
			chatCmd(),
			reloadCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// setup resolves the data directory, loads config, and builds the manager.
func setup(c *cli.Context) (*agent.Manager, *config.Config, agent.Paths, error) {
	dataDir := c.String("data")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, agent.Paths{}, fmt.Errorf("could not determine home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".valet")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, agent.Paths{}, err
	}

	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, nil, agent.Paths{}, fmt.Errorf("failed to load config: %w", err)
	}

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		fmt.Fprintf(os.Stderr, "warning: unknown disabled tools: %s\n", strings.Join(unknown, ", "))
	}

	paths := agent.Paths{Root: dataDir}
	manager := agent.NewManager(agent.ManagerConfig{Paths: paths, App: cfg})
	return manager, cfg, paths, nil
}

// serveCmd creates the serve command.
func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8000, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			manager, cfg, paths, err := setup(c)
			if err != nil {
				return err
			}
			srv := web.NewServer(manager, cfg, paths, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			manager, cfg, _, err := setup(c)
			if err != nil {
				return err
			}
			return mcp.Run(manager, cfg, Version)
		},
	}
}

// agentsCmd creates the agents command with its subcommands.
func agentsCmd() *cli.Command {
	return &cli.Command{
		Name:  "agents",
		Usage: "Manage agent profiles",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all agents, newest first",
				Action: func(c *cli.Context) error {
					manager, _, _, err := setup(c)
					if err != nil {
						return err
					}
					profiles, err := manager.Profiles().List()
					if err != nil {
						return outputError(err)
					}
					return outputJSON(profiles)
				},
			},
			{
				Name:      "create",
				Usage:     "Create a new agent",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tone", Value: "friendly", Usage: "Persona tone"},
					&cli.StringFlag{Name: "interests", Usage: "Comma-separated interest list"},
					&cli.StringFlag{Name: "description", Usage: "Human-readable description"},
					&cli.StringFlag{Name: "voice-id", Usage: "Pre-cloned voice reference"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return outputError(errors.NewInvalidRequest("usage: valet agents create <name>"))
					}
					manager, _, _, err := setup(c)
					if err != nil {
						return err
					}
					created, err := manager.Profiles().Create(agent.Profile{
						Name:        c.Args().First(),
						Tone:        c.String("tone"),
						Interests:   splitList(c.String("interests")),
						Description: c.String("description"),
						VoiceID:     c.String("voice-id"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(created)
				},
			},
			{
				Name:      "show",
				Usage:     "Show one agent profile",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return outputError(errors.NewInvalidRequest("usage: valet agents show <name>"))
					}
					manager, _, _, err := setup(c)
					if err != nil {
						return err
					}
					p, err := manager.Profiles().Get(c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(p)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete an agent profile",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return outputError(errors.NewInvalidRequest("usage: valet agents delete <name>"))
					}
					manager, _, _, err := setup(c)
					if err != nil {
						return err
					}
					name := c.Args().First()
					if err := manager.Profiles().Delete(name); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]string{"deleted": name})
				},
			},
		},
	}
}

// chatCmd creates the chat command for a one-shot exchange.
func chatCmd() *cli.Command {
	return &cli.Command{
		Name:      "chat",
		Usage:     "Send one message to an agent and print the reply",
		ArgsUsage: "<name> <message>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "conversation-id", Usage: "Continue an existing conversation"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("usage: valet chat <name> <message>"))
			}
			manager, _, _, err := setup(c)
			if err != nil {
				return err
			}
			name := c.Args().First()
			message := strings.Join(c.Args().Slice()[1:], " ")

			sess, err := manager.Session(context.Background(), name)
			if err != nil {
				return outputError(err)
			}
			reply := sess.ProcessMessage(context.Background(), message, c.String("conversation-id"))
			return outputJSON(reply)
		},
	}
}

// reloadCmd creates the reload command.
func reloadCmd() *cli.Command {
	return &cli.Command{
		Name:      "reload",
		Usage:     "Load an agent's knowledge corpus and print its stats",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("usage: valet reload <name>"))
			}
			manager, _, _, err := setup(c)
			if err != nil {
				return err
			}
			sess, err := manager.Session(context.Background(), c.Args().First())
			if err != nil {
				return outputError(err)
			}
			if err := sess.ReloadKnowledge(context.Background()); err != nil {
				return outputError(err)
			}
			return outputJSON(sess.Stats())
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if aErr, ok := err.(*errors.AssistantError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", aErr.Code, aErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// splitList splits a comma-separated string into trimmed non-empty items.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			items = append(items, t)
		}
	}
	return items
}
