package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/smsledger/internal/bank"
	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/config"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
	"github.com/Veraticus/smsledger/internal/storage"
	"github.com/Veraticus/smsledger/internal/suggest"
	"github.com/spf13/viper"
)

// initStorage opens the database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := openStorage()
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// openStorage opens the configured database without migrating it.
func openStorage() (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}

	store, err := storage.NewSQLiteStorage(config.ExpandPath(dbPath))
	if err != nil {
		return nil, common.NewUserError("could not open the ledger database", err)
	}
	return store, nil
}

func loadPolicy() (config.Policy, error) {
	return config.LoadPolicy(viper.GetViper())
}

// loadRegistry builds the bank registry, layering registry.path over the
// built-in table when it is set.
func loadRegistry() (*bank.Registry, error) {
	registry, err := bank.LoadRegistry(viper.GetString("registry.path"))
	if err != nil {
		return nil, fmt.Errorf("failed to load bank registry: %w", err)
	}
	return registry, nil
}

// newSuggestionEngine builds an engine learning from store and warms it up.
func newSuggestionEngine(ctx context.Context, store service.Storage) (*suggest.Engine, error) {
	policy, err := loadPolicy()
	if err != nil {
		return nil, err
	}

	engine := suggest.NewEngine(store, store, policy)
	if err := engine.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize suggestion engine: %w", err)
	}
	return engine, nil
}

// parseSince turns the --since/--days flags into a lower time bound. The zero
// time means no bound.
func parseSince(since string, days int, now time.Time) (time.Time, error) {
	if since != "" && days > 0 {
		return time.Time{}, common.NewUserError("use either --since or --days, not both", common.ErrInvalidConfig)
	}
	if days < 0 {
		return time.Time{}, common.NewUserError("--days must not be negative", common.ErrInvalidConfig)
	}
	if days > 0 {
		return now.AddDate(0, 0, -days), nil
	}
	if since == "" {
		return time.Time{}, nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, since, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, common.NewUserError(
		fmt.Sprintf("invalid --since %q, use RFC3339 or YYYY-MM-DD", since), common.ErrInvalidConfig)
}

// parseKeywords splits a comma separated keyword list, dropping blanks.
func parseKeywords(raw string) []string {
	var keywords []string
	for _, kw := range strings.Split(raw, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// resolveCategory finds a category by numeric id or by name.
func resolveCategory(ctx context.Context, store service.Storage, ref string) (*model.Category, error) {
	if id, err := strconv.Atoi(ref); err == nil {
		return store.GetCategoryByID(ctx, id)
	}
	return store.GetCategoryByName(ctx, ref)
}
