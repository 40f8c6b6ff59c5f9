package bootstrap

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/yuqie6/SkillBridge/internal/eventbus"
	"github.com/yuqie6/SkillBridge/internal/pkg/config"
	"github.com/yuqie6/SkillBridge/internal/repository"
	"github.com/yuqie6/SkillBridge/internal/service"
)

// Core holds the dependencies shared by every binary.
type Core struct {
	Cfg       *config.Config
	Viper     *viper.Viper
	DB        *repository.Database
	Store     *repository.Store
	Hub       *eventbus.Hub
	LogCloser io.Closer

	Services struct {
		Profiles      *service.ProfileService
		Connections   *service.ConnectionService
		Suggestions   *service.SuggestionService
		Streaks       *service.StreakService
		Badges        *service.BadgeService
		Leaderboard   *service.LeaderboardService
		Ledger        *service.LedgerService
		Activities    *service.ActivityService
		Notifications *service.NotificationService
	}
}

// NewCore loads config, installs the logger and opens the store.
func NewCore(ctx context.Context, cfgPath string) (*Core, error) {
	v, err := config.LoadViper(cfgPath)
	if err != nil {
		return nil, err
	}
	cfg := config.Current()
	logCloser, err := config.SetupLogger(config.LoggerOptions{
		Level:     cfg.App.LogLevel,
		Path:      cfg.App.LogPath,
		Component: filepath.Base(os.Args[0]),
	})
	if err != nil {
		return nil, err
	}

	db, err := repository.NewDatabase(cfg.Storage)
	if err != nil {
		if logCloser != nil {
			_ = logCloser.Close()
		}
		return nil, err
	}

	c, err := Assemble(ctx, cfg, db)
	if err != nil {
		_ = db.Close()
		if logCloser != nil {
			_ = logCloser.Close()
		}
		return nil, err
	}
	c.Viper = v
	c.LogCloser = logCloser
	return c, nil
}

// Assemble wires the services over an already opened database and seeds the
// badge catalog.
func Assemble(ctx context.Context, cfg *config.Config, db *repository.Database) (*Core, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	c := &Core{
		Cfg:   cfg,
		DB:    db,
		Store: repository.NewStore(db.DB),
		Hub:   eventbus.NewHub(),
	}

	var index *service.CandidateIndex
	if cfg.Index.Enabled {
		index = service.NewCandidateIndex(cfg.Index.ShortlistSize)
	}
	policy := service.DefaultMatchPolicy{}

	s := &c.Services
	s.Notifications = service.NewNotificationService(c.Store, c.Hub)
	s.Streaks = service.NewStreakService(c.Store, service.StreakPolicyFromConfig(cfg.Streak), c.Hub)
	s.Badges = service.NewBadgeService(c.Store, nil, c.Hub)
	s.Profiles = service.NewProfileService(c.Store, s.Badges)
	s.Connections = service.NewConnectionService(c.Store, policy, s.Notifications, s.Streaks, s.Badges)
	s.Suggestions = service.NewSuggestionService(c.Store, policy, s.Connections, index, cfg.Matching)
	s.Leaderboard = service.NewLeaderboardService(c.Store)
	s.Ledger = service.NewLedgerService(c.Store)
	s.Activities = service.NewActivityService(c.Store, s.Notifications, s.Badges, c.Hub)

	if err := s.Badges.EnsureCatalog(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Close releases the store and the log file.
func (c *Core) Close() error {
	if c == nil {
		return nil
	}
	var dbErr error
	if c.DB != nil {
		dbErr = c.DB.Close()
	}
	if c.LogCloser != nil {
		_ = c.LogCloser.Close()
	}
	return dbErr
}
