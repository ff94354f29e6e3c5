// Command snip-devserver runs the in-memory stand-in backend so the widget
// and dashboard clients have something to talk to during development.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"github.com/snipdev/snip-widget/api"
	"github.com/snipdev/snip-widget/devserver"
)

// Config represents options given in the environment
type Config struct {
	ListenAddr string //addr format used for net.Dial; default :8080
	APIKey     string //dashboard API key for the seeded tenant; required
	Email      string //seeded tenant email
	Company    string //seeded tenant company name
	Premium    bool   //seed the tenant on the premium tier
	TTS        bool   //attach generated audio to chat replies
	ScriptURL  string //widget script URL echoed in embed snippets
}

func main() {
	_ = godotenv.Load()

	config := &Config{}
	if err := envconfig.Process("SNIP", config); err != nil {
		fmt.Fprintln(os.Stderr, "Error reading configuration from environment:", err)
		os.Exit(1)
	}

	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}
	if config.APIKey == "" {
		fmt.Fprintln(os.Stderr, "SNIP_APIKEY must be configured")
		os.Exit(1)
	}
	if config.Email == "" {
		config.Email = "dev@example.com"
	}
	if config.Company == "" {
		config.Company = "Acme"
	}
	if config.ScriptURL == "" {
		config.ScriptURL = "http://localhost" + config.ListenAddr + "/widget.js"
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	tier := api.TierBasic
	if config.Premium {
		tier = api.TierPremium
	}

	store := devserver.NewStore()
	tenant := store.AddTenant(config.Email, config.Company, config.APIKey, tier, config.TTS)

	log.Info().Str("client_id", tenant.Client.ID).Msg("seeded tenant")
	log.Info().Str("addr", config.ListenAddr).Msg("listening")

	server := devserver.New(store, config.ScriptURL, log)
	chain := handlers.CompressHandler(server.Router())

	if err := http.ListenAndServe(config.ListenAddr, chain); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
