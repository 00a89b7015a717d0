// Command chatseg segments chat messages the way the game server does, for
// checking client rendering and moderation rules offline.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"tienlenchat/internal/chat"
	"tienlenchat/internal/config"
	"tienlenchat/internal/render"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type output struct {
	Segments       []chat.Segment `json:"segments"`
	Mentions       []string       `json:"mentions"`
	MentionsViewer bool           `json:"mentions_viewer"`
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("chatseg", flag.ContinueOnError)
	fs.SetOutput(stderr)
	viewer := fs.String("viewer", "", "Display name whose mentions are highlighted")
	format := fs.String("format", "json", "Output format: json, html or text")
	configPath := fs.String("config", "", "Chat config JSON (default: built-in defaults)")
	envPath := fs.String("env", "", "Dotenv file with tienlen_chat_* overrides")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "chatseg: %v\n", err)
			return 1
		}
		if cfg, err = config.ParseChatConfig(data); err != nil {
			fmt.Fprintf(stderr, "chatseg: %v\n", err)
			return 1
		}
	}
	if *envPath != "" {
		env, err := config.LoadEnvFile(*envPath)
		if err != nil {
			fmt.Fprintf(stderr, "chatseg: %v\n", err)
			return 1
		}
		var errs []error
		cfg, errs = cfg.WithEnv(env)
		for _, err := range errs {
			fmt.Fprintf(stderr, "chatseg: ignoring override: %v\n", err)
		}
	}

	// Message: remaining args or stdin
	var message string
	if fs.NArg() > 0 {
		message = strings.Join(fs.Args(), " ")
	} else {
		data, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "chatseg: error reading stdin: %v\n", err)
			return 1
		}
		message = strings.TrimSuffix(string(data), "\n")
	}

	if n := utf8.RuneCountInString(message); n > cfg.MaxMessageLength {
		fmt.Fprintf(stderr, "chatseg: message too long: %d runes, limit %d\n", n, cfg.MaxMessageLength)
		return 1
	}

	segments := chat.Parse(message)
	switch *format {
	case "json":
		out := output{Segments: segments, Mentions: []string{}}
		for _, seg := range segments {
			if seg.Kind != chat.KindMention {
				continue
			}
			out.Mentions = append(out.Mentions, seg.Name())
			out.MentionsViewer = out.MentionsViewer || seg.MentionsViewer(*viewer)
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(stderr, "chatseg: %v\n", err)
			return 1
		}
	case "html":
		fmt.Fprintln(stdout, render.HTML(segments, *viewer))
	case "text":
		fmt.Fprintln(stdout, render.Plain(segments, *viewer))
	default:
		fmt.Fprintf(stderr, "chatseg: unknown format %q\n", *format)
		return 2
	}
	return 0
}
