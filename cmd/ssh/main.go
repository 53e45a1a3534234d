package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	ossignal "os/signal"
	"strconv"
	"syscall"
	"time"

	"twstock-advisor/internal/bootstrap"
	"twstock-advisor/internal/cache"
	"twstock-advisor/internal/config"
	"twstock-advisor/internal/db"
	"twstock-advisor/internal/repository"
	"twstock-advisor/internal/tui"
	"twstock-advisor/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	gossh "golang.org/x/crypto/ssh"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey string

const userCtxKey ctxKey = "ssh-user"

// userLookup is the subset of the SSH user repository the server needs.
type userLookup interface {
	FindByFingerprint(ctx context.Context, fingerprint string) (*repository.SSHUser, error)
	UpdateLastLogin(ctx context.Context, userID int64) error
}

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	runMigrationsFunc      = repository.RunMigrations
	newAnalysisServiceFunc = bootstrap.NewAnalysisService
	newUserLookupFunc      = func(pool repository.PgxPool, tracer trace.Tracer) userLookup {
		return repository.NewSSHUserRepository(pool, tracer)
	}
	newSSHServerFunc    = wish.NewServer
	startSSHServerFunc  = func(srv *ssh.Server) error { return srv.ListenAndServe() }
	shutdownSSHServerFn = func(srv *ssh.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify   = ossignal.Notify
	waitForSignalFunc   = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := initPostgresFunc(ctx, cfg.DatabaseURL); err != nil {
		log.Printf("Warning: %v, continuing without SSH user accounts", err)
	}
	defer db.Close()
	if err := initRedisFunc(ctx, cfg.RedisURL); err != nil {
		log.Printf("Warning: %v, using in-process series cache", err)
	}

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	deps := bootstrap.Deps{Tracer: tracer, Redis: cache.Client}
	var users userLookup
	if db.Pool != nil {
		deps.Pool = db.Pool
		if err := runMigrationsFunc(ctx, deps.Pool); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		users = newUserLookupFunc(deps.Pool, tracer)
	}
	if users == nil && !cfg.SSHOpenAccess {
		log.Fatal("no database for SSH accounts; set SSH_OPEN_ACCESS=true to allow any key")
	}

	analysisService, err := newAnalysisServiceFunc(cfg, deps)
	if err != nil {
		log.Fatalf("failed to build analysis service: %v", err)
	}

	auth := &keyAuthorizer{users: users, openAccess: cfg.SSHOpenAccess}
	sessions := &sessionFactory{analyzer: analysisService, watchlist: cfg.Watchlist, months: cfg.DefaultMonths}

	addr := net.JoinHostPort(cfg.SSHHost, strconv.Itoa(cfg.SSHPort))
	srv, err := newSSHServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(auth.Authorize),
		wish.WithMiddleware(
			bm.Middleware(sessions.Handler),
			activeterm.Middleware(),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatalf("failed to create ssh server: %v", err)
	}

	go func() {
		log.Printf("ssh dashboard listening on %s", addr)
		if err := startSSHServerFunc(srv); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Printf("ssh server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down ssh server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownSSHServerFn(srv, shutdownCtx); err != nil {
		log.Printf("ssh server forced to shutdown: %v", err)
	}
}

// keyAuthorizer admits registered keys by SHA256 fingerprint. Without a user
// store every key is admitted as a guest when open access is on.
type keyAuthorizer struct {
	users      userLookup
	openAccess bool
}

func (a *keyAuthorizer) Authorize(ctx ssh.Context, key ssh.PublicKey) bool {
	user, ok := a.lookup(ctx, gossh.FingerprintSHA256(key))
	if ok {
		ctx.SetValue(userCtxKey, user)
	}
	return ok
}

func (a *keyAuthorizer) lookup(ctx context.Context, fingerprint string) (*repository.SSHUser, bool) {
	if a.users == nil {
		if !a.openAccess {
			return nil, false
		}
		return &repository.SSHUser{Username: "guest", Fingerprint: fingerprint}, true
	}

	user, err := a.users.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		log.Printf("ssh auth: lookup %s: %v", fingerprint, err)
		return nil, false
	}
	if user == nil {
		if a.openAccess {
			return &repository.SSHUser{Username: "guest", Fingerprint: fingerprint}, true
		}
		log.Printf("ssh auth: rejected unknown key %s", fingerprint)
		return nil, false
	}
	if err := a.users.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Printf("ssh auth: update last login for %s: %v", user.Username, err)
	}
	return user, true
}

type sessionFactory struct {
	analyzer  tui.Analyzer
	watchlist []string
	months    int
}

func (f *sessionFactory) Handler(s ssh.Session) (tea.Model, []tea.ProgramOption) {
	user, _ := s.Context().Value(userCtxKey).(*repository.SSHUser)
	model := tui.NewAppModel(f.services(user))
	if pty, _, ok := s.Pty(); ok {
		model.SetSize(pty.Window.Width, pty.Window.Height)
	}
	return model, append(bm.MakeOptions(s), tea.WithAltScreen())
}

// services prefers the user's own watchlist over the configured default.
func (f *sessionFactory) services(user *repository.SSHUser) tui.Services {
	svc := tui.Services{
		Analyzer:  f.analyzer,
		Watchlist: f.watchlist,
		Months:    f.months,
	}
	if user == nil {
		return svc
	}
	svc.UserID = user.ID
	svc.Username = user.Username
	if user.DisplayName != "" {
		svc.Username = fmt.Sprintf("%s (%s)", user.DisplayName, user.Username)
	}
	if len(user.Watchlist) > 0 {
		svc.Watchlist = user.Watchlist
	}
	return svc
}
