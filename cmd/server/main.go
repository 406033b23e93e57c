package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sosodev/duration"

	"github.com/redditgrowth/reddit-manager/pkg/accounts"
	accountsapi "github.com/redditgrowth/reddit-manager/pkg/accounts/api"
	"github.com/redditgrowth/reddit-manager/pkg/auth"
	"github.com/redditgrowth/reddit-manager/pkg/client"
	"github.com/redditgrowth/reddit-manager/pkg/iam"
	iamapi "github.com/redditgrowth/reddit-manager/pkg/iam/api"
	"github.com/redditgrowth/reddit-manager/pkg/notification"
	"github.com/redditgrowth/reddit-manager/pkg/ratelimit"
	"github.com/redditgrowth/reddit-manager/pkg/reddit"
	redditapi "github.com/redditgrowth/reddit-manager/pkg/reddit/api"
	"github.com/redditgrowth/reddit-manager/pkg/secrets"
)

type DbConfig struct {
	Host     string `env:"PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"PG_PORT" env-default:"5432"`
	Database string `env:"PG_DATABASE" env-default:"reddit_manager"`
	User     string `env:"PG_USER" env-default:"reddit_manager"`
	Password string `env:"PG_PASSWORD" env-default:"pwd"`
}

func (d DbConfig) toDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Database)
}

type JwtConfig struct {
	Secret         string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer         string `env:"JWT_ISSUER" env-default:"reddit-manager"`
	Audience       string `env:"JWT_AUDIENCE" env-default:"reddit-manager"`
	CookieHttpOnly bool   `env:"COOKIE_HTTP_ONLY" env-default:"true"`
	CookieSecure   bool   `env:"COOKIE_SECURE" env-default:"true"`
	// ISO-8601 durations
	AccessTokenExpiry  string `env:"ACCESS_TOKEN_EXPIRY" env-default:"PT15M"`
	RefreshTokenExpiry string `env:"REFRESH_TOKEN_EXPIRY" env-default:"PT24H"`
}

type RedditConfig struct {
	ClientID     string `env:"REDDIT_CLIENT_ID"`
	ClientSecret string `env:"REDDIT_CLIENT_SECRET"`
	RedirectURI  string `env:"REDDIT_REDIRECT_URI"`
	UserAgent    string `env:"REDDIT_USER_AGENT"`
	// Per-request timeout in seconds for outbound Reddit calls.
	TimeoutSeconds int `env:"REDDIT_TIMEOUT_SECONDS" env-default:"10"`
}

type EmailConfig struct {
	Enabled  bool   `env:"EMAIL_ENABLED" env-default:"false"`
	Host     string `env:"EMAIL_HOST" env-default:"localhost"`
	Port     uint16 `env:"EMAIL_PORT" env-default:"1025"`
	Username string `env:"EMAIL_USERNAME"`
	Password string `env:"EMAIL_PASSWORD"`
	From     string `env:"EMAIL_FROM" env-default:"noreply@example.com"`
	TLS      bool   `env:"EMAIL_TLS" env-default:"false"`
}

type SecretsConfig struct {
	EncryptionSecret string `env:"ENCRYPTION_SECRET" env-default:"very-secure-encryption-secret"`
	EncryptionSalt   string `env:"ENCRYPTION_SALT" env-default:"reddit-manager"`
}

type ServerConfig struct {
	Host         string `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port         uint16 `env:"HTTP_PORT" env-default:"4000"`
	ReadTimeout  string `env:"HTTP_READ_TIMEOUT" env-default:"PT10S"`
	WriteTimeout string `env:"HTTP_WRITE_TIMEOUT" env-default:"PT30S"`
}

type Config struct {
	ServerConfig  ServerConfig
	DbConfig      DbConfig
	JwtConfig     JwtConfig
	RedditConfig  RedditConfig
	EmailConfig   EmailConfig
	SecretsConfig SecretsConfig
}

// loadEnvFile loads environment variables from a .env file in the working
// directory if one exists. Variables already set win.
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("Failed to get current working directory", "err", err)
		return
	}

	envFile := filepath.Join(cwd, ".env")
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		return
	}

	if err := godotenv.Load(envFile); err != nil {
		slog.Error("Failed to load .env file", "err", err, "path", envFile)
		return
	}
	slog.Info("Configuration loaded from .env file", "path", envFile)
}

// parseISODuration converts an ISO-8601 duration string, falling back to
// the given default when the value is missing or malformed.
func parseISODuration(value string, fallback time.Duration) time.Duration {
	d, err := duration.Parse(value)
	if err != nil {
		slog.Warn("Failed to parse duration, using default", "value", value, "default", fallback)
		return fallback
	}
	return d.ToTimeDuration()
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	}))
	slog.SetDefault(logger)

	loadEnvFile()

	config := Config{}
	cleanenv.ReadEnv(&config)

	pool, err := pgxpool.New(context.Background(), config.DbConfig.toDatabaseURL())
	if err != nil {
		slog.Error("Failed creating dbpool", "db", config.DbConfig.Database,
			"host", config.DbConfig.Host, "port", config.DbConfig.Port, "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	cipher, err := secrets.NewCipher(config.SecretsConfig.EncryptionSecret, config.SecretsConfig.EncryptionSalt)
	if err != nil {
		slog.Error("Failed to initialize secrets cipher", "err", err)
		os.Exit(1)
	}

	var notifier notification.Notifier
	if config.EmailConfig.Enabled {
		emailNotifier, err := notification.NewEmailNotifier(notification.SMTPConfig{
			Host:     config.EmailConfig.Host,
			Port:     int(config.EmailConfig.Port),
			Username: config.EmailConfig.Username,
			Password: config.EmailConfig.Password,
			From:     config.EmailConfig.From,
			TLS:      config.EmailConfig.TLS,
		})
		if err != nil {
			slog.Error("Failed to initialize email notifier", "err", err)
		} else {
			notifier = emailNotifier
		}
	}

	redditClient := reddit.NewClient(reddit.Config{
		ClientID:     config.RedditConfig.ClientID,
		ClientSecret: config.RedditConfig.ClientSecret,
		RedirectURI:  config.RedditConfig.RedirectURI,
		UserAgent:    config.RedditConfig.UserAgent,
	}, reddit.WithTimeout(time.Duration(config.RedditConfig.TimeoutSeconds)*time.Second))

	usersOpts := []iam.Option{}
	accountsOpts := []accounts.Option{accounts.WithRedditClient(redditClient)}
	if notifier != nil {
		usersOpts = append(usersOpts, iam.WithNotifier(notifier))
		accountsOpts = append(accountsOpts, accounts.WithNotifier(notifier))
	}

	usersService := iam.NewUsersService(iam.NewPostgresUsersRepository(pool), usersOpts...)
	accountsService := accounts.NewAccountsService(accounts.NewPostgresAccountsRepository(pool), cipher, accountsOpts...)

	jwtService := auth.NewJwt(config.JwtConfig.Secret,
		auth.WithIssuer(config.JwtConfig.Issuer),
		auth.WithAudience(config.JwtConfig.Audience),
		auth.WithAccessTokenExpiry(parseISODuration(config.JwtConfig.AccessTokenExpiry, auth.DefaultAccessTokenExpiry)),
		auth.WithRefreshTokenExpiry(parseISODuration(config.JwtConfig.RefreshTokenExpiry, auth.DefaultRefreshTokenExpiry)),
	)
	cookieSetter := auth.NewCookieSetter(config.JwtConfig.CookieHttpOnly, config.JwtConfig.CookieSecure)
	tokenAuth := jwtauth.New("HS256", []byte(config.JwtConfig.Secret), nil)

	iamHandle := iamapi.NewHandle(usersService, jwtService, cookieSetter)
	accountsHandle := accountsapi.NewHandle(accountsService)
	redditHandle := redditapi.NewHandle(redditClient, accountsService,
		redditapi.WithSecureCookies(config.JwtConfig.CookieSecure))

	requestLogger := httplog.NewLogger("reddit-manager", httplog.Options{
		LogLevel: slog.LevelInfo,
		Concise:  true,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(requestLogger))
	r.Use(middleware.Recoverer)
	r.Use(client.Verifier(tokenAuth))
	r.Use(client.AuthContextMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, http.StatusText(http.StatusOK))
	})

	// brute-force protection on the credential endpoints
	loginLimiter := ratelimit.NewLimiter(10, 0.167, time.Hour)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(authRouter chi.Router) {
			authRouter.Use(ratelimit.Middleware(loginLimiter))
			iamHandle.Routes(authRouter)
		})
		api.Route("/accounts", accountsHandle.Routes)
		api.Route("/reddit", redditHandle.Routes)
		api.Route("/admin", func(admin chi.Router) {
			admin.Use(client.RequireRole(client.RoleAdmin))
			accountsHandle.AdminRoutes(admin)
		})
	})

	// Page paths are served by the frontend; the gate only decides
	// pass-through or redirect for them.
	r.Group(func(pages chi.Router) {
		pages.Use(client.RouteGate(client.DefaultRouteConfig()))
		pages.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			render.PlainText(w, r, http.StatusText(http.StatusOK))
		})
	})

	addr := fmt.Sprintf("%s:%d", config.ServerConfig.Host, config.ServerConfig.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  parseISODuration(config.ServerConfig.ReadTimeout, 10*time.Second),
		WriteTimeout: parseISODuration(config.ServerConfig.WriteTimeout, 30*time.Second),
	}

	go func() {
		slog.Info("Starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Failed to shut down server gracefully", "err", err)
	}
}
