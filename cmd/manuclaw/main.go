package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rahul/manuclaw/internal/agent"
	"github.com/rahul/manuclaw/internal/gateway"
	"github.com/rahul/manuclaw/internal/governance"
	"github.com/rahul/manuclaw/internal/observability"
	"github.com/rahul/manuclaw/internal/store"
	"github.com/rahul/manuclaw/internal/tools"
	"github.com/rahul/manuclaw/pkg/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

func main() {
	observability.PrintBanner()
	observability.InitializeTerminal()

	// Route all log output through the terminal mutex so it never
	// interrupts the dashboard's cursor save/restore sequence.
	log.SetOutput(observability.NewTermWriter())

	cfg := config.LoadConfig("config.json")

	wsCfg, ok := cfg.GetWebSocketConfig()
	if !ok {
		log.Fatal("WebSocket gateway is not enabled in config")
	}

	// Initialize LLM (using default enabled provider)
	pName, pCfg := cfg.GetDefaultProvider()
	if pName == "" {
		log.Fatal("No enabled provider found in config")
	}

	var llm llms.Model
	var err error
	switch pName {
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(pCfg.APIKey),
			openai.WithModel(pCfg.Model),
		}
		if pCfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(pCfg.BaseURL))
		}
		llm, err = openai.New(opts...)
	default:
		log.Fatalf("Provider %s not yet implemented in main", pName)
	}
	if err != nil {
		log.Fatal(err)
	}

	gov := governance.NewDefaultPolicyEngine()
	// Default safety rules: never mail distribution or role addresses.
	_ = gov.DenyRecipient(`(?i)^(all|everyone|staff)@`)
	_ = gov.DenyRecipient(`(?i)noreply@`)

	// Initialize tools. Registration is explicit and ordered; a
	// duplicate name is a configuration error caught right here.
	registry := tools.NewRegistry()

	mustRegister := func(t tools.Tool) {
		if err := registry.Register(t); err != nil {
			log.Fatal(err)
		}
	}

	mustRegister(tools.NewLinkDetectTool())
	mustRegister(tools.NewTranscriptFetchTool(cfg.App.TranscriptLanguage))
	mustRegister(tools.NewSummarizerTool(llm))
	mustRegister(tools.NewArticleExtractTool())
	mustRegister(tools.NewEmailSendTool(tools.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, gov))

	searchTool, err := tools.NewSearchTool()
	if err != nil {
		log.Printf("Warning: Failed to initialize search tool: %v", err)
	} else {
		mustRegister(searchTool)
	}

	memory, err := store.NewMemoryStore(cfg.Memory.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer memory.Close()

	logger := observability.NewLogger()
	prompts := agent.NewPromptManager(cfg.App.PromptsDir)
	planner := agent.NewPlanner(llm, registry, prompts)
	pipeline := agent.NewPipeline(planner, registry, memory, logger)

	gw := gateway.NewWebSocketGateway(wsCfg.ListenAddr, pipeline, logger, cfg.App.DefaultUserID, cfg.App.DefaultChatID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start Live Resource Dashboard (1-second updates)
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.PrintLiveStatus()
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.Heartbeat()
			}
		}
	}()

	// Start Gateway in a goroutine so we can wait for context in the main loop
	go func() {
		log.Printf("Gateway listening on ws://%s/ws", wsCfg.ListenAddr)
		if err := gw.Start(); err != nil {
			log.Printf("\033[91m[ FAIL ] GATEWAY CRITICAL ERROR: %v\033[0m", err)
			stop() // stop caller if gateway dies
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	if err := gw.Stop(); err != nil {
		log.Printf("gateway shutdown: %v", err)
	}

	// Reset terminal aesthetics
	observability.CleanupTerminal()

	// Give a short time for final logs/syncs
	time.Sleep(500 * time.Millisecond)
	log.Println("\033[95m[ EXIT ] CORE DE-INITIALIZED. GOODBYE.\033[0m")
}
