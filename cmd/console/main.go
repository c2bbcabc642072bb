// Package main is the interactive terminal client for the agent console.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/halcyon-ai/agent-console/internal/client"
	"github.com/halcyon-ai/agent-console/internal/model"
	"github.com/halcyon-ai/agent-console/internal/stream"
	"github.com/halcyon-ai/agent-console/pkg/logger"
)

var (
	flagServer  string
	flagToken   string
	flagSession string
	flagAuto    bool
)

func newClient() *client.Client {
	log, _ := logger.New("warn")
	return client.New(flagServer, flagToken, flagSession, client.WithLogger(log))
}

func main() {
	root := &cobra.Command{
		Use:           "console",
		Short:         "Terminal client for the agent console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", envOr("CONSOLE_SERVER", "http://localhost:8080"), "API server base URL")
	root.PersistentFlags().StringVar(&flagToken, "token", os.Getenv("CONSOLE_TOKEN"), "bearer token")
	root.PersistentFlags().StringVar(&flagSession, "session", envOr("CONSOLE_SESSION", "default"), "session ID")
	root.PersistentFlags().BoolVar(&flagAuto, "auto-approve", false, "execute privileged operations without asking")

	root.AddCommand(
		chatCmd(),
		historyCmd(),
		operationsCmd(),
		mcpCmd(),
		memoryCmd(),
		skillsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			in := bufio.NewReader(os.Stdin)
			out := os.Stdout
			renderer := &terminalRenderer{out: out}

			var history []model.ChatMessage

			fmt.Fprintln(out, "Connected to", flagServer, "(session", flagSession+"). /help for commands, ctrl-D to quit.")
			for {
				fmt.Fprint(out, "\n> ")
				line, err := in.ReadString('\n')
				if err != nil {
					fmt.Fprintln(out)
					return nil
				}
				message := strings.TrimSpace(line)
				if message == "" {
					continue
				}

				result, err := c.SendChat(cmd.Context(), &model.ChatRequest{
					Message:     message,
					History:     history,
					AutoApprove: flagAuto,
				}, renderer)
				if err != nil {
					fmt.Fprintln(out, "error:", err)
					continue
				}

				if result.Command != nil {
					fmt.Fprintln(out, result.Command.Content)
					if result.Command.Clear {
						history = nil
					}
					continue
				}

				turn := result.Turn
				history = append(history,
					model.ChatMessage{Role: "user", Content: message},
					model.ChatMessage{Role: "assistant", Content: turn.Text()},
				)

				if err := resolvePauses(cmd.Context(), c, in, out, renderer, turn, &history); err != nil {
					fmt.Fprintln(out, "error:", err)
				}
			}
		},
	}
}

// resolvePauses walks a paused turn through the approval and answer
// sub-protocols until the conversation is unblocked.
func resolvePauses(ctx context.Context, c *client.Client, in *bufio.Reader, out *os.File, renderer *terminalRenderer, turn *stream.Turn, history *[]model.ChatMessage) error {
	switch turn.State {
	case stream.TurnAwaitingApproval:
		approve, reason := promptApproval(in, out)
		if !approve {
			if err := c.RejectOperation(ctx, turn.PendingLogID, reason); err != nil {
				return err
			}
			fmt.Fprintln(out, "Operation rejected.")
			return nil
		}

		resp, err := c.ApproveOperation(ctx, turn.PendingLogID)
		if err != nil {
			return err
		}
		if resp.Result != nil {
			summary := resp.Result.Output
			if summary == "" {
				summary = resp.Result.Message
			}
			if !resp.Success {
				summary = resp.Result.Error
			}
			fmt.Fprintf(out, "Result:\n%s\n", indent(summary, "  "))
		}
		return nil

	case stream.TurnAwaitingAnswer:
		selections := promptAnswers(in, out, turn.Questions)
		result, err := c.SendAnswers(ctx, turn.Questions, selections, *history, renderer)
		if err != nil {
			return err
		}
		if result.Turn != nil {
			answers := stream.CollectAnswers(turn.Questions, selections)
			*history = append(*history,
				model.ChatMessage{Role: "user", Content: stream.SynthesizeMessage(turn.Questions, answers)},
				model.ChatMessage{Role: "assistant", Content: result.Turn.Text()},
			)
			return resolvePauses(ctx, c, in, out, renderer, result.Turn, history)
		}
		return nil
	}

	return nil
}

func historyCmd() *cobra.Command {
	var limit int
	var search string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or search persisted messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()

			var messages []model.Message
			var err error
			if search != "" {
				messages, err = c.SearchHistory(cmd.Context(), search, limit)
			} else {
				messages, err = c.History(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			for _, msg := range messages {
				fmt.Printf("[%s] %-9s %s\n", msg.CreatedAt.Format(time.RFC3339), msg.Role, msg.Content)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum messages")
	cmd.Flags().StringVar(&search, "search", "", "search across sessions instead of listing")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Clear this session's history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient().ClearHistory(cmd.Context())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show aggregate history stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := newClient().HistoryStats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("messages: %d\nsessions: %d\n", stats.TotalMessages, stats.TotalSessions)
			return nil
		},
	})
	return cmd
}

func operationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operations",
		Short: "Inspect and decide on logged operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := newClient().Operations(cmd.Context(), 50)
			if err != nil {
				return err
			}
			for _, op := range ops {
				fmt.Printf("#%d %-10s %-12s %s\n", op.ID, op.Status, op.ToolName, op.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "pending",
		Short: "List operations awaiting a decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := newClient().PendingOperations(cmd.Context())
			if err != nil {
				return err
			}
			for _, op := range ops {
				fmt.Printf("#%d %s\n%s\n\n", op.ID, op.ToolName, indent(op.Preview, "  "))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a pending operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid operation ID: %s", args[0])
			}
			resp, err := newClient().ApproveOperation(cmd.Context(), id)
			if err != nil {
				return err
			}
			if resp.Result != nil && resp.Result.Output != "" {
				fmt.Println(resp.Result.Output)
			}
			return nil
		},
	})

	var reason string
	reject := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a pending operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid operation ID: %s", args[0])
			}
			return newClient().RejectOperation(cmd.Context(), id, reason)
		},
	}
	reject.Flags().StringVar(&reason, "reason", "", "why the operation is rejected")
	cmd.AddCommand(reject)

	return cmd
}

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Manage MCP server configs",
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := newClient().MCPServers(cmd.Context())
			if err != nil {
				return err
			}
			for _, srv := range servers {
				state := "disabled"
				if srv.Enabled {
					state = "enabled"
				}
				fmt.Printf("#%d %-20s %-6s %s\n", srv.ID, srv.Name, srv.ServerType, state)
			}
			return nil
		},
	}

	var serverType, command, url string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Register an MCP server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newClient().CreateMCPServer(cmd.Context(), &model.MCPServerRequest{
				Name:       args[0],
				ServerType: model.MCPServerType(serverType),
				Command:    command,
				URL:        url,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created #%d %s\n", srv.ID, srv.Name)
			return nil
		},
	}
	add.Flags().StringVar(&serverType, "type", "stdio", "server type (stdio or http)")
	add.Flags().StringVar(&command, "command", "", "command for stdio servers")
	add.Flags().StringVar(&url, "url", "", "endpoint for http servers")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Remove an MCP server config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid server ID: %s", args[0])
			}
			return newClient().DeleteMCPServer(cmd.Context(), id)
		},
	})

	return cmd
}

func memoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Manage memory notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := newClient().MemoryEntries(cmd.Context(), "", 50)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("#%d [%s] %s: %s\n", e.ID, e.MemoryType, e.Title, e.Content)
			}
			return nil
		},
	}

	var title, memoryType string
	add := &cobra.Command{
		Use:   "add <content>",
		Short: "Save a memory note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := newClient().CreateMemory(cmd.Context(), &model.MemoryRequest{
				Title:      title,
				Content:    args[0],
				MemoryType: memoryType,
			})
			if err != nil {
				return err
			}
			fmt.Printf("saved #%d\n", entry.ID)
			return nil
		},
	}
	add.Flags().StringVar(&title, "title", "", "note title")
	add.Flags().StringVar(&memoryType, "type", "fact", "note type")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a memory note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid memory ID: %s", args[0])
			}
			return newClient().DeleteMemory(cmd.Context(), id)
		},
	})

	return cmd
}

func skillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Manage skills",
		RunE: func(cmd *cobra.Command, args []string) error {
			skills, err := newClient().Skills(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range skills {
				state := "disabled"
				if s.Enabled {
					state = "enabled"
				}
				fmt.Printf("#%d %-20s %s (%s)\n", s.ID, s.Name, s.Description, state)
			}
			return nil
		},
	}

	var description string
	add := &cobra.Command{
		Use:   "add <name> <code>",
		Short: "Register a skill",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			skill, err := newClient().CreateSkill(cmd.Context(), &model.SkillRequest{
				Name:        args[0],
				Code:        args[1],
				Description: description,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created #%d %s\n", skill.ID, skill.Name)
			return nil
		},
	}
	add.Flags().StringVar(&description, "description", "", "what the skill does")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a skill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid skill ID: %s", args[0])
			}
			return newClient().DeleteSkill(cmd.Context(), id)
		},
	})

	return cmd
}
