package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vaccert/vaccination-server/internal/api"
	"github.com/vaccert/vaccination-server/internal/api/handlers"
	"github.com/vaccert/vaccination-server/internal/cache"
	"github.com/vaccert/vaccination-server/internal/config"
	"github.com/vaccert/vaccination-server/internal/database"
	"github.com/vaccert/vaccination-server/internal/database/queries"
	"github.com/vaccert/vaccination-server/internal/logging"
	"github.com/vaccert/vaccination-server/internal/services"
	"github.com/vaccert/vaccination-server/internal/slug"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Parse command line flags
	var migrate bool
	var showVersion bool
	var hashPassword bool
	flag.BoolVar(&migrate, "migrate", false, "Run database migrations only")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&hashPassword, "hash-password", false, "Read a password from stdin and print its hash for ADMIN_PASSWORD_HASH")
	flag.Parse()

	// Handle special commands
	if showVersion {
		fmt.Printf("Vaccination Record Server %s\n", version)
		return
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	if hashPassword {
		if err := printPasswordHash(cfg.Auth.HashAlgo); err != nil {
			log.Fatal("Failed to hash password: ", err)
		}
		return
	}

	logger, err := logging.New(cfg.IsProduction())
	if err != nil {
		log.Fatal(err)
	}

	if code := exitCode(logger, run(cfg, migrate, logger)); code != 0 {
		os.Exit(code)
	}
}

// exitCode logs a fatal run error and flushes the logger before the process
// exits
func exitCode(logger *zap.Logger, err error) int {
	code := 0
	if err != nil {
		logger.Error("server stopped", zap.Error(err))
		code = 1
	}
	_ = logger.Sync()
	return code
}

func run(cfg *config.Config, migrateOnly bool, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := database.Connect(connectCtx, cfg.DatabaseURL, logger)
	cancel()
	if err != nil {
		return err
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(ctx, database.Migrations()); err != nil {
		return err
	}
	if migrateOnly {
		logger.Info("database migrations completed")
		return nil
	}

	// Initialize queries
	adminQueries := queries.NewAdminQueries(db.DB)
	patientQueries := queries.NewPatientQueries(db.DB)

	// Initialize services
	hasher, err := services.NewPasswordHasher(cfg.Auth.HashAlgo)
	if err != nil {
		return err
	}
	authService, err := services.NewAuthService(adminQueries, hasher, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger)
	if err != nil {
		return err
	}
	if err := authService.EnsureDefaultAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.PasswordHash); err != nil {
		return err
	}

	var recordCache services.RecordCache
	if cfg.Redis.URL != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		recordCache = cache.NewRecordCache(rdb, cfg.Redis.CacheTTL)
		logger.Info("record cache enabled", zap.Duration("ttl", cfg.Redis.CacheTTL))
	}

	recordService := services.NewRecordService(
		patientQueries,
		slug.NewGenerator(patientQueries),
		recordCache,
		services.NewQRRenderer(cfg.PublicBaseURL),
		logger,
		cfg.MaxPageSize,
	)

	// Setup router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Handlers{
		Auth:     handlers.NewAuthHandler(authService, logger),
		Patients: handlers.NewPatientHandler(recordService, logger),
		Health:   handlers.NewHealthHandler(db, logger),
		Verifier: authService,
	}, cfg.Server.CORSAllowedOrigins, logger)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("vaccination record server starting",
			zap.String("addr", cfg.Addr()),
			zap.String("env", cfg.Env),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// printPasswordHash reads one password, from the terminal without echo when
// attached to one, and prints its hash
func printPasswordHash(algo string) error {
	hasher, err := services.NewPasswordHasher(algo)
	if err != nil {
		return err
	}

	var password string
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Password: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return err
		}
		password = string(raw)
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		password = line
	}

	password = strings.TrimRight(password, "\r\n")
	if password == "" {
		return errors.New("empty password")
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
