package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"oss-clearance-be/internal/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	baseURL      string
	contractPath string
	scriptPath   string
	timeout      time.Duration

	bot  = color.New(color.FgCyan)
	user = color.New(color.FgGreen, color.Bold)
	warn = color.New(color.FgYellow)

	rootCmd = &cobra.Command{
		Use:   "simulation",
		Short: "Drive a clearance session against a running server",
	}

	runCmd = &cobra.Command{
		Use:   "run [report.html]",
		Short: "Upload a license report and walk the workflow",
		Args:  cobra.ExactArgs(1),
		RunE:  runSession,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:3000", "server base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "per request timeout")
	runCmd.Flags().StringVar(&contractPath, "contract", "", "contract to attach after the analysis")
	runCmd.Flags().StringVar(&scriptPath, "script", "", "file with one reply per line; interactive when empty")
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSession(cmd *cobra.Command, args []string) error {
	c := newClient(strings.TrimRight(baseURL, "/"), timeout)

	start := time.Now()
	res, err := c.Analyze(args[0])
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	sessionID := res.SessionId.String()
	warn.Printf("Session %s (%d components, %s)\n", sessionID, len(res.Components), time.Since(start).Round(time.Millisecond))
	bot.Println(res.Message)

	if contractPath != "" {
		cres, err := c.AnalyzeContract(sessionID, contractPath)
		if err != nil {
			return fmt.Errorf("contract: %w", err)
		}
		bot.Println(cres.Message)
	}

	replies, err := openReplies(scriptPath)
	if err != nil {
		return err
	}

	for {
		text, ok := replies()
		if !ok {
			return nil
		}
		user.Printf("> %s\n", text)

		start := time.Now()
		reply, err := c.Chat(sessionID, text)
		if err != nil {
			warn.Printf("Error: %v\n", err)
			continue
		}
		printReply(reply, time.Since(start))
		if reply.Status == "completed" {
			return nil
		}
	}
}

func printReply(reply *dto.ChatResponse, elapsed time.Duration) {
	bot.Println(reply.Message)
	status := reply.Status
	if reply.CurrentComponentIdx != nil && *reply.CurrentComponentIdx >= 0 {
		status = fmt.Sprintf("%s #%d", status, *reply.CurrentComponentIdx)
	}
	warn.Printf("[%s, %s]\n", status, elapsed.Round(time.Millisecond))
	if reply.Download != nil && reply.Download.Available {
		warn.Printf("README ready: %s/%s\n", strings.TrimRight(baseURL, "/"), reply.Download.Url)
	}
	if reply.Summary != nil {
		warn.Printf("Summary: %d total, %d passed, %d discarded\n", reply.Summary.Total, reply.Summary.Passed, reply.Summary.Discarded)
	}
}

// openReplies yields scripted replies, or stdin lines when no script is set.
func openReplies(path string) (func() (string, bool), error) {
	src := os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		src = f
	}
	scanner := bufio.NewScanner(src)
	return func() (string, bool) {
		for {
			if path == "" {
				user.Print("you: ")
			}
			if !scanner.Scan() {
				return "", false
			}
			if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
				return line, true
			}
		}
	}, nil
}
