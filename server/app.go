package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"formfill/config"
	"formfill/internal/api"
	"formfill/internal/forms"
	"formfill/internal/health"
	"formfill/internal/logs"
	"formfill/internal/middleware"
	"formfill/internal/redtail"
)

type App struct {
	cfg        *config.Config
	stores     *Stores
	Forms      *forms.Service
	Router     *mux.Router
	Handler    http.Handler // Router под цепочкой middleware
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// RedtailConfig переводит секцию redtail конфига в настройки клиента CRM.
func RedtailConfig(cfg *config.Config) redtail.Config {
	return redtail.Config{
		BaseURL:  cfg.Redtail.APIURL,
		APIKey:   cfg.Redtail.APIKey,
		Username: cfg.Redtail.Username,
		Password: cfg.Redtail.Password,
		Timeout:  cfg.Redtail.Timeout,
	}
}

func (a *App) Initialize(cfg *config.Config) error {
	a.cfg = cfg

	/* 1) Логи */
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	/* 2) Хранилище */
	stores, err := OpenStores(context.Background(), a.cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", a.cfg.Database.Driver, err)
	}
	a.stores = stores

	/* 3) CRM + сервис */
	if a.cfg.Redtail.APIURL == "" {
		logs.Logger.Warn("redtail.api_url is empty: client lookups will fail")
	}
	crm := redtail.NewClient(RedtailConfig(a.cfg))
	a.Forms = forms.New(stores.Templates, stores.Bundles, crm)

	/* 4) Router + middleware */
	a.Router = a.routes()
	a.Handler = a.handler(a.Router)

	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		logs.Logger.Debugf("route: %-6v %s", methods, path)
		return nil
	})
	return nil
}

func (a *App) routes() *mux.Router {
	r := mux.NewRouter()
	health.RegisterRoutesWithPing(r, a.stores.Ping) // /healthz, /readyz
	api.Attach(r, api.Dependencies{Forms: a.Forms})
	return r
}

// handler оборачивает весь роутер, а не маршруты: mux.Use не срабатывает
// на 404/405, а лимит тела и лог запросов нужны для любого запроса.
func (a *App) handler(next http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Recoverer,
		middleware.LoggerMW,
		middleware.BodyLimit(a.cfg.Server.MaxBodyBytes),
	}
	for i := len(chain) - 1; i >= 0; i-- {
		next = chain[i](next)
	}
	return next
}

func (a *App) Run() error {
	if a.Handler == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logs.Logger.Infof("shutdown signal: %s", s)
		a.cancel()
	}()

	// загрузки PDF бывают большими: таймауты чтения/записи из конфига
	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
			a.cancel()
		}
	}()

	<-a.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	if err := a.stores.Close(ctx); err != nil {
		logs.Logger.Errorf("store close: %v", err)
	}

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	default:
		return nil
	}
}
