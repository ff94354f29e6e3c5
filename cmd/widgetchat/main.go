// Command widgetchat is a terminal rendition of the embeddable widget: it
// bootstraps a session against a backend and runs a read-print chat loop,
// voicing replies when a speech engine is available.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/snipdev/snip-widget/client"
	"github.com/snipdev/snip-widget/speech"
	"github.com/snipdev/snip-widget/widget"
)

func main() {
	_ = godotenv.Load()

	apiBase := flag.String("api", envOr("SNIP_API_URL", "http://localhost:8080"), "Backend API base URL")
	clientID := flag.String("client-id", os.Getenv("SNIP_CLIENT_ID"), "Embed client id")
	origin := flag.String("origin", envOr("SNIP_ORIGIN", "http://localhost"), "Origin sent with the config fetch")
	speak := flag.Bool("speak", false, "Voice assistant replies")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	if *clientID == "" {
		fmt.Println("Error: -client-id (or SNIP_CLIENT_ID) is required")
		flag.Usage()
		os.Exit(1)
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	wc := client.NewWidgetClient(*apiBase, *origin)

	opts := widget.Options{
		ClientID:     *clientID,
		Config:       wc,
		Transport:    wc,
		AudioEnabled: *speak,
		Logger:       log,
	}
	if *speak {
		opts.Player = speech.DefaultPlayer()
		opts.Synth = speech.DefaultSynthesizer()
	}

	session, err := widget.Bootstrap(context.Background(), opts)
	if err != nil {
		// A widget that cannot load its config renders nothing; the
		// terminal equivalent is a log line and a quiet exit.
		log.Error().Err(err).Msg("widget did not start")
		os.Exit(1)
	}
	defer session.Shutdown()

	cfg := session.Config()
	fmt.Printf("%s\n", cfg.BotName)
	fmt.Printf("Assistant: %s\n", cfg.WelcomeMessage)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("\nYou: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.ToLower(input) == "exit" || strings.ToLower(input) == "quit" {
			fmt.Println("Goodbye!")
			return
		}

		if err := session.SendMessage(context.Background(), input); err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		msgs := session.Messages()
		fmt.Printf("Assistant: %s\n", msgs[len(msgs)-1].Content)
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
