package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"laptops/facetsync/internal/domain"
	"laptops/facetsync/internal/orchestrator"

	log "github.com/sirupsen/logrus"
)

type ActionKind string

const (
	ActionToggle  ActionKind = "toggle"
	ActionTerm    ActionKind = "term"
	ActionPrice   ActionKind = "price"
	ActionPage    ActionKind = "page"
	ActionLimit   ActionKind = "limit"
	ActionReset   ActionKind = "reset"
	ActionBack    ActionKind = "back"
	ActionForward ActionKind = "forward"
	ActionRetry   ActionKind = "retry"
)

// Action is one scripted user interaction, written as kind[:argument]:
//
//	toggle:brand=Dell  term:rog  price:600-5000  price:-3000
//	page:2  limit:24  reset  back  forward  retry
type Action struct {
	Kind     ActionKind
	Category domain.FilterCategory
	Value    string
	Min      *float64
	Max      *float64
	Number   int
}

func ParseAction(raw string) (Action, error) {
	kind, arg, _ := strings.Cut(strings.TrimSpace(raw), ":")
	a := Action{Kind: ActionKind(strings.ToLower(kind))}

	switch a.Kind {
	case ActionToggle:
		name, value, ok := strings.Cut(arg, "=")
		if !ok || value == "" {
			return Action{}, fmt.Errorf("toggle needs category=value, got %q", arg)
		}
		category, ok := domain.ParseFilterCategory(name)
		if !ok {
			return Action{}, fmt.Errorf("unknown filter category %q", name)
		}
		a.Category = category
		a.Value = value

	case ActionTerm:
		a.Value = arg

	case ActionPrice:
		lo, hi, ok := strings.Cut(arg, "-")
		if !ok {
			return Action{}, fmt.Errorf("price needs min-max, got %q", arg)
		}
		var err error
		if a.Min, err = parseBound(lo); err != nil {
			return Action{}, fmt.Errorf("invalid min price: %w", err)
		}
		if a.Max, err = parseBound(hi); err != nil {
			return Action{}, fmt.Errorf("invalid max price: %w", err)
		}

	case ActionPage, ActionLimit:
		n, err := strconv.Atoi(arg)
		if err != nil {
			return Action{}, fmt.Errorf("invalid %s %q: %w", a.Kind, arg, err)
		}
		a.Number = n

	case ActionReset, ActionBack, ActionForward, ActionRetry:

	default:
		return Action{}, fmt.Errorf("unknown action %q", raw)
	}

	return a, nil
}

func parseBound(s string) (*float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Apply runs one action against the session.
func (s *Service) Apply(ctx context.Context, a Action) orchestrator.ReadModel {
	switch a.Kind {
	case ActionToggle:
		return s.ToggleFilter(ctx, a.Category, a.Value)
	case ActionTerm:
		return s.SetSearchTerm(ctx, a.Value)
	case ActionPrice:
		prices := s.codec.PriceDefaults()
		lo, hi := prices.Min, prices.Max
		if a.Min != nil {
			lo = *a.Min
		}
		if a.Max != nil {
			hi = *a.Max
		}
		return s.SetPriceRange(ctx, lo, hi)
	case ActionPage:
		return s.SetPage(ctx, a.Number)
	case ActionLimit:
		return s.SetLimit(ctx, a.Number)
	case ActionReset:
		return s.ResetFilters(ctx)
	case ActionBack:
		rm, ok := s.Back(ctx)
		if !ok {
			log.Info("Already at the first history entry")
		}
		return rm
	case ActionForward:
		rm, ok := s.Forward(ctx)
		if !ok {
			log.Info("Already at the last history entry")
		}
		return rm
	case ActionRetry:
		return s.Retry(ctx)
	}
	return s.ReadModel()
}
