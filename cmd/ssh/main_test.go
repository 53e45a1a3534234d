package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"twstock-advisor/internal/bootstrap"
	"twstock-advisor/internal/config"
	"twstock-advisor/internal/repository"
	"twstock-advisor/internal/service"

	"github.com/charmbracelet/ssh"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type stubUsers struct {
	user      *repository.SSHUser
	err       error
	lastLogin []int64
}

func (s *stubUsers) FindByFingerprint(_ context.Context, fingerprint string) (*repository.SSHUser, error) {
	if s.user != nil && s.user.Fingerprint != fingerprint {
		return nil, nil
	}
	return s.user, s.err
}

func (s *stubUsers) UpdateLastLogin(_ context.Context, userID int64) error {
	s.lastLogin = append(s.lastLogin, userID)
	return nil
}

func TestKeyAuthorizerRegisteredUser(t *testing.T) {
	users := &stubUsers{user: &repository.SSHUser{ID: 7, Username: "amy", Fingerprint: "SHA256:abc"}}
	auth := &keyAuthorizer{users: users}

	user, ok := auth.lookup(context.Background(), "SHA256:abc")
	if !ok || user.ID != 7 {
		t.Fatalf("expected registered user, got %+v %v", user, ok)
	}
	if len(users.lastLogin) != 1 || users.lastLogin[0] != 7 {
		t.Fatalf("expected last login update, got %v", users.lastLogin)
	}

	if _, ok := auth.lookup(context.Background(), "SHA256:other"); ok {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestKeyAuthorizerOpenAccess(t *testing.T) {
	auth := &keyAuthorizer{openAccess: true}
	user, ok := auth.lookup(context.Background(), "SHA256:any")
	if !ok || user.Username != "guest" {
		t.Fatalf("expected guest access, got %+v %v", user, ok)
	}

	withStore := &keyAuthorizer{users: &stubUsers{}, openAccess: true}
	if user, ok := withStore.lookup(context.Background(), "SHA256:any"); !ok || user.Username != "guest" {
		t.Fatalf("expected guest for unknown key with open access, got %+v %v", user, ok)
	}

	closed := &keyAuthorizer{}
	if _, ok := closed.lookup(context.Background(), "SHA256:any"); ok {
		t.Fatal("expected rejection without store or open access")
	}
}

func TestKeyAuthorizerLookupError(t *testing.T) {
	auth := &keyAuthorizer{users: &stubUsers{err: errors.New("db down")}, openAccess: true}
	if _, ok := auth.lookup(context.Background(), "SHA256:abc"); ok {
		t.Fatal("expected lookup failure to reject the key")
	}
}

func TestSessionServicesPreferUserWatchlist(t *testing.T) {
	f := &sessionFactory{watchlist: []string{"2330"}, months: 6}

	guest := f.services(nil)
	if len(guest.Watchlist) != 1 || guest.Months != 6 || guest.Username != "" {
		t.Fatalf("unexpected guest services %+v", guest)
	}

	svc := f.services(&repository.SSHUser{ID: 3, Username: "amy", DisplayName: "Amy", Watchlist: []string{"2317", "2454"}})
	if svc.UserID != 3 || svc.Username != "Amy (amy)" {
		t.Fatalf("unexpected identity %+v", svc)
	}
	if len(svc.Watchlist) != 2 || svc.Watchlist[0] != "2317" {
		t.Fatalf("expected user watchlist, got %v", svc.Watchlist)
	}
}

func TestMainStartsSSHServer(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "host_ed25519")

	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewAnalysis := newAnalysisServiceFunc
	origStart := startSSHServerFunc
	origShutdown := shutdownSSHServerFn
	origNotify := setupSignalNotify
	origWait := waitForSignalFunc
	defer func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newAnalysisServiceFunc = origNewAnalysis
		startSSHServerFunc = origStart
		shutdownSSHServerFn = origShutdown
		setupSignalNotify = origNotify
		waitForSignalFunc = origWait
	}()

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			Providers:      []string{"twse"},
			Timezone:       "Asia/Taipei",
			DefaultMonths:  3,
			SSHHost:        "127.0.0.1",
			SSHPort:        2222,
			SSHHostKeyPath: keyPath,
			SSHOpenAccess:  true,
		}
	}
	initPostgresFunc = func(context.Context, string) error { return nil }
	initRedisFunc = func(context.Context, string) error { return nil }
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newAnalysisServiceFunc = func(cfg *config.Config, deps bootstrap.Deps) (*service.AnalysisService, error) {
		return bootstrap.NewAnalysisService(cfg, deps)
	}

	started := make(chan struct{})
	var gotAddr string
	startSSHServerFunc = func(srv *ssh.Server) error {
		gotAddr = srv.Addr
		close(started)
		return ssh.ErrServerClosed
	}
	shutdownCalled := false
	shutdownSSHServerFn = func(*ssh.Server, context.Context) error {
		shutdownCalled = true
		return nil
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) { <-started }

	main()

	if gotAddr != "127.0.0.1:2222" {
		t.Fatalf("unexpected listen address %q", gotAddr)
	}
	if !shutdownCalled {
		t.Fatal("expected graceful shutdown")
	}
}
