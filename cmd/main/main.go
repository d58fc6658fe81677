package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"laptops/facetsync/internal/config"
	"laptops/facetsync/internal/container"
	"laptops/facetsync/internal/domain"
	"laptops/facetsync/internal/orchestrator"
	"laptops/facetsync/internal/service"

	log "github.com/sirupsen/logrus"
)

// Usage: main [query] [action...]
//
//	main "brand=Dell&page=2" toggle:ram=16GB term:xps price:600-3000 back
func main() {
	log.Info("Starting facet sync...")

	// Load configuration using viper
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("Unknown log level %q, keeping %s", cfg.Log.Level, log.GetLevel())
	}
	log.Info("Configuration loaded successfully")

	rawQuery, actions, err := parseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize container with all dependencies
	app, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer app.Close()

	sessions, err := app.Run(ctx, []string{rawQuery}, actions)
	if err != nil {
		log.Errorf("Session exited with error: %v", err)
		return
	}

	for _, svc := range sessions {
		report(svc, app.Cache.Len())
	}

	log.Info("Application finished successfully")
}

func parseArgs(args []string) (string, []service.Action, error) {
	var rawQuery string
	if len(args) > 0 && !isAction(args[0]) {
		rawQuery = strings.TrimPrefix(args[0], "?")
		args = args[1:]
	}

	actions := make([]service.Action, 0, len(args))
	for _, raw := range args {
		a, err := service.ParseAction(raw)
		if err != nil {
			return "", nil, err
		}
		actions = append(actions, a)
	}
	return rawQuery, actions, nil
}

func isAction(arg string) bool {
	_, err := service.ParseAction(arg)
	return err == nil
}

func report(svc *service.Service, cachedQueries int) {
	rm := svc.ReadModel()
	state := svc.State()

	log.WithFields(log.Fields{
		"session": svc.ID(),
		"scope":   svc.Scope(),
		"url":     "?" + svc.URL(),
		"key":     svc.DerivedKey(),
		"term":    svc.Term(),
		"cached":  cachedQueries,
	}).Info("🔎 Current selection")

	if state.IsEmpty() {
		log.Info("No filters selected, showing the whole catalog")
	}
	if rm.FiltersError != nil {
		log.Errorf("❌ Filter options failed: %v", rm.FiltersError)
	}
	if rm.ResultsError != nil {
		log.Errorf("❌ Results failed: %v", rm.ResultsError)
	}

	log.Infof("✅ %d laptops, page %d of %d (%d per page)", rm.Total, rm.Page, rm.PageCount, rm.Limit)
	for i, l := range rm.Laptops {
		log.Infof("  %3d. %s  %.2f  %s", svc.Offset()+i+1, l.DisplayName(), l.Price, l.Summary)
	}
	if svc.HasPrev() {
		log.Info("  <- previous page: page:" + strconv.Itoa(rm.Page-1))
	}
	if svc.HasNext(rm.Total) {
		log.Info("  -> next page: page:" + strconv.Itoa(rm.Page+1))
	}

	reportOptions(rm, state)
}

func reportOptions(rm orchestrator.ReadModel, state domain.SelectionState) {
	log.Infof("Price range: %v - %v", rm.PriceRange.Min, rm.PriceRange.Max)
	for _, category := range domain.FilterCategories {
		opts := rm.Options(category)
		if len(opts) == 0 {
			continue
		}
		values := make([]string, 0, len(opts))
		for _, o := range opts {
			switch {
			case state.Has(category, o.Value):
				values = append(values, "["+o.Value+"]")
			case o.Disabled:
				values = append(values, "("+o.Value+")")
			default:
				values = append(values, o.Value)
			}
		}
		log.Debugf("  %s (%d available): %s", category, rm.EnabledCount(category), strings.Join(values, ", "))
	}
}
