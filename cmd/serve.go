package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pharmassist/pharmassist/internal/agent"
	"github.com/pharmassist/pharmassist/internal/auth"
	"github.com/pharmassist/pharmassist/internal/config"
	"github.com/pharmassist/pharmassist/internal/llm"
	"github.com/pharmassist/pharmassist/internal/meddata"
	"github.com/pharmassist/pharmassist/internal/safety"
	"github.com/pharmassist/pharmassist/internal/store"
	"github.com/pharmassist/pharmassist/internal/tools"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP chat server",
	Long: `Run the pharmacy assistant HTTP server.

Endpoints:
  POST /chat/completions      streamed chat with tool calling
  GET  /chat/tools            registered tool schemas
  POST /chat/function-call    execute one tool manually
  POST /auth/login            authenticate, returns a session token
  GET  /auth/users/{id}/stats per-user usage counters
  GET  /auth/demo-users       seeded demo credentials
  GET  /healthz`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}

// runtime bundles the long-lived collaborators behind the HTTP handlers.
type runtime struct {
	cfg      *config.Config
	log      *slog.Logger
	store    *store.Store
	catalog  *meddata.SQLiteSource
	registry *tools.Registry
	executor *tools.Executor
	provider llm.Provider
	guard    *safety.Guard
	auth     *auth.Service
	prompts  *agent.PromptBuilder
}

func buildRuntime(cfg *config.Config, log *slog.Logger) (*runtime, error) {
	st, err := store.Open(store.Config{Path: cfg.Data.UserDB, SeedDemo: cfg.Data.SeedDemo})
	if err != nil {
		return nil, fmt.Errorf("open user store: %w", err)
	}

	catalog, err := meddata.OpenSQLiteSource(cfg.Data.CatalogDB, cfg.Data.MedicationsPath)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	medications, err := meddata.LoadMedications(cfg.Data.MedicationsPath)
	if err != nil {
		st.Close()
		catalog.Close()
		return nil, fmt.Errorf("load medications: %w", err)
	}

	pharmacies, err := meddata.LoadPharmacies(cfg.Data.PharmaciesPath)
	if err != nil {
		st.Close()
		catalog.Close()
		return nil, fmt.Errorf("load pharmacies: %w", err)
	}

	registry := tools.NewRegistry()
	handlers := []tools.Handler{
		tools.NewMedicationResolver(catalog),
		tools.NewMedicationInfo(catalog),
		tools.NewIngredientSearch(catalog),
		tools.NewStockChecker(cfg.Inventory.BaseURL, nil),
		tools.NewPharmacyLocator(pharmacies),
		tools.NewPrescriptionLister(st, catalog),
		tools.NewHandlingAdvisor(catalog),
	}
	for _, h := range handlers {
		if err := registry.Register(h); err != nil {
			st.Close()
			catalog.Close()
			return nil, err
		}
	}

	return &runtime{
		cfg:      cfg,
		log:      log,
		store:    st,
		catalog:  catalog,
		registry: registry,
		executor: tools.NewExecutor(registry, cfg.Tools.Timeout, log),
		provider: llm.NewOpenAIProvider(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.Backend.Model),
		guard:    safety.NewGuard(),
		auth:     auth.NewService(cfg.Auth.Secret, cfg.Auth.Expiry),
		prompts:  agent.NewPromptBuilder(medications),
	}, nil
}

func (rt *runtime) Close() {
	rt.catalog.Close()
	rt.store.Close()
}

func runServe(cmd *cobra.Command, args []string) error {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	rt, err := buildRuntime(cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: rt.routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info("pharmassist serve listening", "addr", cfg.Server.Addr, "model", cfg.Backend.Model)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
