package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/rahul/sutra/internal/agent"
	"github.com/rahul/sutra/internal/gateway"
	"github.com/rahul/sutra/internal/governance"
	"github.com/rahul/sutra/internal/observability"
	"github.com/rahul/sutra/internal/plan"
	"github.com/rahul/sutra/internal/store"
	"github.com/rahul/sutra/internal/tools"
	"github.com/rahul/sutra/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	planFile := flag.String("plan", "", "run a plan from a JSON file instead of asking the model")
	flag.Parse()

	observability.PrintBanner()
	observability.InitializeTerminal()

	// Route all log output through the terminal mutex so it never
	// interrupts the dashboard's cursor save/restore sequence.
	log.SetOutput(observability.NewTermWriter())

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		observability.CleanupTerminal()
		log.Fatal(err)
	}

	objective := strings.Join(flag.Args(), " ")
	if objective == "" && *planFile == "" {
		observability.CleanupTerminal()
		log.Fatal("usage: sutra [-config file] [-plan file.json] <objective>")
	}

	logger := observability.NewLogger()

	// Initialize Tools
	registry := tools.NewRegistry()

	searchTool, err := tools.NewSearchTool()
	if err != nil {
		log.Printf("Warning: Failed to initialize search tool: %v", err)
	} else {
		searchTool.Diag = logger
		registry.Register(searchTool)
	}

	scraper := tools.NewScraperTool()
	scraper.Diag = logger
	browser := tools.NewBrowserTool()
	browser.Diag = logger

	registry.Register(tools.NewFilesystemTool(cfg.App.Workspace))
	registry.Register(scraper)
	registry.Register(tools.NewShellTool())
	registry.Register(browser)

	// Default safety rules: Block dangerous destructive commands
	gov := governance.NewDefaultPolicyEngine()
	_ = gov.DenyArguments(`rm\s+-rf`)
	_ = gov.DenyArguments(`mkfs`)
	_ = gov.DenyArguments(`shutdown`)
	_ = gov.DenyArguments(`reboot`)

	history, err := store.NewHistoryStore(cfg.Memory.Path)
	if err != nil {
		observability.CleanupTerminal()
		log.Fatal(err)
	}
	defer history.Close()

	planID := fmt.Sprintf("plan-%d", time.Now().Unix())

	// Cancellation is cooperative: Ctrl-C cancels the context, the runner
	// stops at the next check boundary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Live dashboard and heartbeat, same cadence as the log scroll region.
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
				logger.LogHeartbeat()
			}
		}
	}()

	p, err := buildPlan(ctx, cfg, registry, logger, planID, objective, *planFile)
	if err != nil {
		observability.CleanupTerminal()
		log.Fatalf("planning failed: %v", err)
	}

	runID, err := history.BeginRun(planID, objective)
	if err != nil {
		log.Printf("Warning: failed to record run: %v", err)
	}

	sinks := plan.MultiSink{
		observability.NewLogSink(logger, planID),
		&store.RunRecorder{Store: history, RunID: runID},
	}
	var notifier gateway.Notifier
	if notifier = buildNotifier(cfg); notifier != nil {
		defer notifier.Stop()
		sinks = append(sinks, &gateway.NotifySink{Notifier: notifier})
	}

	runner := plan.NewRunner(plan.ResolverFunc(func(name string) (plan.Tool, bool) {
		return registry.Resolve(name)
	}), sinks)
	runner.Policy = gov
	if cfg.Runner.MaxAttempts > 0 {
		runner.MaxAttempts = cfg.Runner.MaxAttempts
	}

	outcome := runner.Run(ctx, p)

	logger.LogPlan(planID, string(outcome.Status), outcomeDetail(outcome))
	if err := history.FinishRun(runID, string(outcome.Status), outcome.Err); err != nil {
		log.Printf("Warning: failed to record outcome: %v", err)
	}
	if notifier != nil {
		_ = notifier.Send(fmt.Sprintf("plan %s: %s", planID, outcome.Status))
	}

	observability.CleanupTerminal()

	fmt.Printf("plan %s finished: %s (%d events)\n", planID, outcome.Status, len(outcome.Events))
	if outcome.Err != nil {
		fmt.Printf("cause: %v\n", outcome.Err)
		os.Exit(1)
	}
}

// buildPlan loads a plan from a file, or asks the configured model for one.
func buildPlan(ctx context.Context, cfg *config.Config, registry *tools.Registry,
	logger *observability.Logger, planID, objective, planFile string) (*plan.Plan, error) {

	if planFile != "" {
		data, err := os.ReadFile(planFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read plan file: %w", err)
		}
		return agent.DecodePlan(planID, string(data))
	}

	pName, pCfg := cfg.GetDefaultProvider()
	if pName == "" {
		return nil, fmt.Errorf("no enabled provider found in config")
	}

	var model llms.Model
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
		model, err = openai.New(opts...)
	default:
		return nil, fmt.Errorf("provider %s not yet implemented", pName)
	}
	if err != nil {
		return nil, err
	}

	prompts := agent.NewPromptManager(cfg.Prompts.Directory)
	planner := agent.NewPlanner(model, prompts, registry, logger)
	return planner.BuildPlan(ctx, planID, objective)
}

func buildNotifier(cfg *config.Config) gateway.Notifier {
	if tg, ok := cfg.GetNotifier("telegram"); ok {
		n, err := gateway.NewTelegramNotifier(tg.Token, tg.ChatID)
		if err != nil {
			log.Printf("Warning: Failed to initialize telegram notifier: %v", err)
		} else {
			return n
		}
	}
	if dc, ok := cfg.GetNotifier("discord"); ok {
		n, err := gateway.NewDiscordNotifier(dc.Token, dc.ChannelID)
		if err != nil {
			log.Printf("Warning: Failed to initialize discord notifier: %v", err)
		} else {
			return n
		}
	}
	return nil
}

func outcomeDetail(o plan.Outcome) string {
	if o.Err != nil {
		return o.Err.Error()
	}
	return ""
}
