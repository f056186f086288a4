package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/neboloop/outfitswitch/internal/handler"
	"github.com/neboloop/outfitswitch/internal/handler/outfit"
	"github.com/neboloop/outfitswitch/internal/handler/profile"
	"github.com/neboloop/outfitswitch/internal/handler/settings"
	"github.com/neboloop/outfitswitch/internal/mcp"
	"github.com/neboloop/outfitswitch/internal/middleware"
	"github.com/neboloop/outfitswitch/internal/svc"
	"github.com/neboloop/outfitswitch/internal/websocket"
)

// ServerOptions holds optional settings for Run.
type ServerOptions struct {
	Quiet bool // Suppress startup messages
}

// Run serves the API, the host bridge and the MCP endpoint until ctx is
// cancelled. svcCtx must already be started.
func Run(ctx context.Context, svcCtx *svc.ServiceContext, opts ...ServerOptions) error {
	var o ServerOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	port := svcCtx.Config.Server.Port
	if err := checkPortAvailable(port); err != nil {
		return fmt.Errorf("port %d is already in use", port)
	}

	// ReadTimeout/WriteTimeout are omitted: they would cut hijacked
	// WebSocket connections. Keepalive is handled by ping/pong.
	httpServer := &http.Server{
		Addr:        svcCtx.Config.Addr(),
		Handler:     NewRouter(svcCtx),
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if !o.Quiet {
		fmt.Printf("Outfit Switcher ready at http://localhost:%d\n", port)
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	if !o.Quiet {
		fmt.Println("\nShutting down server gracefully...")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// NewRouter builds the HTTP routes.
func NewRouter(svcCtx *svc.ServiceContext) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(svcCtx.Logger.Named("http")))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.CORS)

	r.Get("/health", handler.HealthCheckHandler(svcCtx))
	r.Get("/ws", websocket.Handler(svcCtx.Hub))

	r.Route("/api/v1", func(r chi.Router) {
		registerOutfitRoutes(r, svcCtx)
		registerSettingsRoutes(r, svcCtx)
		registerProfileRoutes(r, svcCtx)
	})

	mcpHandler := mcp.NewHandler(svcCtx)
	r.Handle("/mcp", mcpHandler)
	r.Handle("/mcp/*", mcpHandler)

	svcCtx.Logger.Debug("routes registered", zap.Int("port", svcCtx.Config.Server.Port))
	return r
}

func registerOutfitRoutes(r chi.Router, svcCtx *svc.ServiceContext) {
	r.Post("/events/{topic}", outfit.PostEventHandler(svcCtx))
	r.Post("/trigger", outfit.RunTriggerHandler(svcCtx))
	r.Post("/variants/{index}/run", outfit.RunVariantHandler(svcCtx))
	r.Post("/base/run", outfit.RunBaseHandler(svcCtx))
	r.Post("/match", outfit.MatchHandler(svcCtx))
	r.Get("/automation", outfit.AutomationHandler(svcCtx))
	r.Post("/automation/reset", outfit.ResetAutomationHandler(svcCtx))
	r.Get("/slash", outfit.SlashHandler(svcCtx))
	r.Get("/notices", outfit.NoticesHandler(svcCtx))
	r.Get("/history", outfit.HistoryHandler(svcCtx))
}

func registerSettingsRoutes(r chi.Router, svcCtx *svc.ServiceContext) {
	r.Get("/settings", settings.GetSettingsHandler(svcCtx))
	r.Put("/settings/enabled", settings.SetEnabledHandler(svcCtx))
	r.Post("/settings/flush", settings.FlushHandler(svcCtx))
}

func registerProfileRoutes(r chi.Router, svcCtx *svc.ServiceContext) {
	r.Get("/profiles", profile.ListProfilesHandler(svcCtx))
	r.Post("/profiles", profile.CreateProfileHandler(svcCtx))
	r.Post("/profiles/{name}/activate", profile.ActivateProfileHandler(svcCtx))
	r.Post("/profiles/duplicate", profile.DuplicateProfileHandler(svcCtx))
	r.Post("/profiles/rename", profile.RenameProfileHandler(svcCtx))
	r.Delete("/profiles/active", profile.DeleteProfileHandler(svcCtx))
	r.Get("/profiles/export", profile.ExportProfileHandler(svcCtx))
	r.Post("/profiles/import", profile.ImportProfileHandler(svcCtx))

	r.Get("/profile", profile.GetActiveProfileHandler(svcCtx))
	r.Put("/profile/base-folder", profile.SetBaseFolderHandler(svcCtx))
	r.Post("/profile/picked-folder", profile.PickedFolderHandler(svcCtx))
	r.Put("/profile/triggers", profile.SetTriggersHandler(svcCtx))
	r.Put("/profile/variants", profile.SetVariantsHandler(svcCtx))
}

func checkPortAvailable(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}
