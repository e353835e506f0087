package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/granjapro/granja/internal/config"
	"github.com/granjapro/granja/internal/console"
	"github.com/granjapro/granja/internal/logging"
	"github.com/granjapro/granja/internal/repository"
	"github.com/granjapro/granja/internal/service"
	"github.com/granjapro/granja/internal/session"
	"github.com/granjapro/granja/internal/storage"
	"github.com/granjapro/granja/internal/vault"
	"github.com/granjapro/granja/pkg/docstore"
)

// runtime is everything a command needs once configuration is loaded.
type runtime struct {
	cfg      config.Config
	log      *zap.Logger
	store    docstore.Store
	services console.Services
	closers  []func() error
}

func (a *app) loadConfig() (config.Config, error) {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// open loads configuration, starts file logging, opens the store and wires
// repositories and services over it.
func (a *app) open() (*runtime, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(cfg.Log, false)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: logger, closers: []func() error{closeLog}}

	store, closer, err := storage.Open(cfg.Store, logger.Named("storage"))
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.store = store
	rt.closers = append(rt.closers, closer.Close)
	rt.services = wire(store, cfg, logger)
	return rt, nil
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

func wire(store docstore.Store, cfg config.Config, logger *zap.Logger) console.Services {
	users := repository.NewUserRepository(store)
	audit := repository.NewAuditRepository(store)
	lots := repository.NewLotRepository(store)
	production := repository.NewProductionRepository(store)
	alerts := repository.NewAlertRepository(store)

	withLog := service.WithLogger(logger)
	thresholds := service.Thresholds{
		LayingRate:    cfg.Analytics.LayingRateThreshold,
		FeedPerBirdKg: cfg.Analytics.FeedPerBirdKg,
		EggWeightKg:   cfg.Analytics.EggWeightKg,
	}

	return console.Services{
		Auth:       service.NewAuthService(users, audit, vault.NewDigester(cfg.Security.Pepper), session.NewHolder(), withLog),
		Lots:       service.NewLotService(lots, audit, withLog),
		Production: service.NewProductionService(production, lots, audit, withLog),
		Analytics:  service.NewAnalyticsService(lots, production, alerts, thresholds, withLog),
		Audit:      service.NewAuditService(audit),
	}
}

// readSecret reads a password without echo from a terminal, or a plain line otherwise.
func (a *app) readSecret(prompt string) (string, error) {
	fmt.Fprint(a.stdout, prompt)
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.stdout)
		return string(b), err
	}
	if a.lines == nil {
		a.lines = bufio.NewReader(a.stdin)
	}
	line, err := a.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
