package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tiliavir/shift-tracker/internal/catalog"
	"github.com/Tiliavir/shift-tracker/internal/config"
	"github.com/Tiliavir/shift-tracker/internal/export"
	"github.com/Tiliavir/shift-tracker/internal/logger"
	"github.com/Tiliavir/shift-tracker/internal/model"
	"github.com/Tiliavir/shift-tracker/internal/msgraph"
	"github.com/Tiliavir/shift-tracker/internal/reconcile"
	"github.com/Tiliavir/shift-tracker/internal/requests"
	"github.com/Tiliavir/shift-tracker/internal/shiftlog"
	"github.com/Tiliavir/shift-tracker/internal/storage"
	"github.com/Tiliavir/shift-tracker/internal/timecalc"
	"github.com/Tiliavir/shift-tracker/internal/tracker"
)

var rootCmd = &cobra.Command{
	Use:   "shifts",
	Short: "Shift log and edit-request tracker",
	Long: `shifts records employee clock-ins and clock-outs, queues retroactive
edit requests for review and merges approved ones into the shift log.
Data is stored as JSON documents in ~/.shifts/ (or a SQLite database).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// app holds what setup builds for the running command.
var app struct {
	cfg     config.Config
	dataDir string
	log     *zap.Logger
	repo    *storage.Repository
	rdb     redis.UniversalClient
	svc     *tracker.Service
}

// Execute is the entry point called from main.
func Execute() {
	err := rootCmd.Execute()
	if cerr := teardown(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		if app.svc == nil && !isSetupError(err) {
			err = usageError{err}
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.AddCommand(clockInCmd)
	rootCmd.AddCommand(clockOutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(shiftCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(employeesCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(outlookCmd)
}

// setupError marks failures while opening config, logs or storage.
type setupError struct{ err error }

func (e setupError) Error() string { return e.err.Error() }
func (e setupError) Unwrap() error { return e.err }

func isSetupError(err error) bool {
	var se setupError
	return errors.As(err, &se)
}

// usageError marks errors caused by the invocation rather than by the data
// or the system: bad flags, arguments or values.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// userErrors are refusals of the domain: the request was understood but
// the data does not allow it.
var userErrors = []error{
	shiftlog.ErrAlreadyClockedIn,
	shiftlog.ErrNotClockedIn,
	shiftlog.ErrRecordNotFound,
	shiftlog.ErrOverlap,
	shiftlog.ErrAmbiguousRef,
	timecalc.ErrInvalidInterval,
	timecalc.ErrMalformedStamp,
	reconcile.ErrNotApproved,
	reconcile.ErrMalformedInterval,
	catalog.ErrDuplicateName,
	catalog.ErrNotFound,
	catalog.ErrEmptyName,
	requests.ErrInvalidRange,
	requests.ErrInvalidStatus,
	requests.ErrRequestNotFound,
	tracker.ErrUnknownEmployee,
	tracker.ErrEmployeeExists,
	tracker.ErrInvalidPIN,
	msgraph.ErrNotConfigured,
	export.ErrUnknownFormat,
}

// exitCode maps err to the process exit status: 1 for precondition and
// usage errors, 2 for storage and system errors.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ue usageError
	if errors.As(err, &ue) {
		return 1
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return 1
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return 1
		}
	}
	return 2
}

func setup(cmd *cobra.Command, _ []string) error {
	// Cobra checks these only after the pre-run hooks.
	if err := cmd.ValidateRequiredFlags(); err != nil {
		return usageError{err}
	}
	if err := cmd.ValidateFlagGroups(); err != nil {
		return usageError{err}
	}

	// A missing .env is the normal case.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return setupError{fmt.Errorf("loading config: %w", err)}
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return setupError{err}
	}
	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return setupError{err}
	}

	backend, err := openBackend(cfg, dataDir)
	if err != nil {
		return setupError{err}
	}
	repo := storage.NewRepository(backend, log)

	locker, rdb, err := openLocker(cmd.Context(), cfg.Lock)
	if err != nil {
		_ = repo.Close()
		return setupError{err}
	}

	app.cfg = cfg
	app.dataDir = dataDir
	app.log = log
	app.repo = repo
	app.rdb = rdb
	app.svc = tracker.New(repo, locker, log)
	log.Debug("storage opened", zap.String("driver", cfg.Storage.Driver),
		zap.String("lock", cfg.Lock.Driver), zap.String("data_dir", dataDir))
	return nil
}

func teardown() error {
	var errs []error
	if app.rdb != nil {
		errs = append(errs, app.rdb.Close())
	}
	if app.repo != nil {
		errs = append(errs, app.repo.Close())
	}
	if app.log != nil {
		_ = app.log.Sync()
	}
	return errors.Join(errs...)
}

func openBackend(cfg config.Config, dataDir string) (storage.Backend, error) {
	switch cfg.Storage.Driver {
	case config.StorageSQLite:
		path := cfg.Storage.SQLitePath
		if path == "" {
			path = filepath.Join(dataDir, "shifts.db")
		}
		return storage.NewSQLiteBackend(path)
	default:
		return storage.NewFileBackend(dataDir), nil
	}
}

func openLocker(ctx context.Context, cfg config.LockConfig) (storage.Locker, redis.UniversalClient, error) {
	if cfg.Driver != config.LockRedis {
		return storage.NewLocalLocker(), nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	return storage.NewRedisLocker(rdb, ttl), rdb, nil
}

// resolveEmployee picks the employee from --pin or from the first argument.
func resolveEmployee(ctx context.Context, args []string, pin string) (model.Employee, error) {
	if pin != "" {
		return app.svc.Authenticate(ctx, pin)
	}
	if len(args) == 0 {
		return model.Employee{}, usagef("an employee ID or name (or --pin) is required")
	}
	return app.svc.Employee(ctx, args[0])
}
