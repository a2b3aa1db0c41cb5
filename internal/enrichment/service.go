package enrichment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/suidash/backend/internal/tier"
	"github.com/suidash/backend/pkg/types"
)

// Service is the enrichment facade consumed by the route layer. It composes
// one coordinator per data kind with the tier calculator and handles address
// normalization at the boundary.
type Service struct {
	balances   *Coordinator[string]
	members    *Coordinator[bool]
	activity   *Coordinator[types.ActivityCounters]
	thresholds tier.Thresholds
	// membership lookups need a configured table handle; without one the
	// isMember field is simply omitted from responses.
	membershipEnabled bool
	logger            *zap.Logger
}

// ServiceConfig holds service construction parameters.
type ServiceConfig struct {
	Balances          *Coordinator[string]
	Members           *Coordinator[bool]
	Activity          *Coordinator[types.ActivityCounters]
	Thresholds        tier.Thresholds
	MembershipEnabled bool
	Logger            *zap.Logger
}

// NewService creates the enrichment service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Balances == nil || cfg.Activity == nil {
		return nil, fmt.Errorf("balance and activity coordinators are required")
	}
	if cfg.MembershipEnabled && cfg.Members == nil {
		return nil, fmt.Errorf("membership enabled but no membership coordinator")
	}

	thresholds := cfg.Thresholds
	if len(thresholds) == 0 {
		thresholds = tier.DefaultThresholds()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		balances:          cfg.Balances,
		members:           cfg.Members,
		activity:          cfg.Activity,
		thresholds:        thresholds,
		membershipEnabled: cfg.MembershipEnabled,
		logger:            logger,
	}, nil
}

// GetAddressesEnriched enriches every address with tier data, membership
// (when configured), and optionally balance. Input order is preserved;
// duplicates collapse to their first occurrence.
func (s *Service) GetAddressesEnriched(ctx context.Context, addresses []string, includeBalance bool) ([]types.Enriched, error) {
	normalized := normalize(addresses)
	if len(normalized) == 0 {
		return []types.Enriched{}, nil
	}

	var (
		balances    map[string]string
		balancesDeg map[string]bool
		members     map[string]bool
		membersDeg  map[string]bool
	)

	if includeBalance {
		balances, balancesDeg = s.balances.Resolve(ctx, normalized)
	}
	if s.membershipEnabled {
		members, membersDeg = s.members.Resolve(ctx, normalized)
	}
	activity, activityDeg := s.activity.Resolve(ctx, normalized)

	enriched := make([]types.Enriched, 0, len(normalized))
	for _, addr := range normalized {
		e := types.Enriched{Address: addr}

		if includeBalance {
			e.Balance = balances[addr]
			e.Degraded = e.Degraded || balancesDeg[addr]
		}
		if s.membershipEnabled {
			isMember := members[addr]
			e.IsMember = &isMember
			e.Degraded = e.Degraded || membersDeg[addr]
		}

		info := tier.Info(activity[addr], s.thresholds)
		e.Tier = &info
		e.Degraded = e.Degraded || activityDeg[addr]

		enriched = append(enriched, e)
	}

	return enriched, nil
}

// GetBalance returns one address's balance as a decimal string.
func (s *Service) GetBalance(ctx context.Context, address string) (string, error) {
	addr := types.NormalizeAddress(address)
	if addr == "" {
		return "", fmt.Errorf("empty address")
	}

	values, _ := s.balances.Resolve(ctx, []string{addr})
	return values[addr], nil
}

// GetTierInfoBatch returns tier info per address.
func (s *Service) GetTierInfoBatch(ctx context.Context, addresses []string) (map[string]types.TierInfo, error) {
	normalized := normalize(addresses)
	if len(normalized) == 0 {
		return map[string]types.TierInfo{}, nil
	}

	activity, _ := s.activity.Resolve(ctx, normalized)

	infos := make(map[string]types.TierInfo, len(normalized))
	for _, addr := range normalized {
		infos[addr] = tier.Info(activity[addr], s.thresholds)
	}

	return infos, nil
}

// Invalidate busts cache entries manually. Empty address means every address
// of that kind; empty kind means every kind for that address; both empty
// drops everything.
func (s *Service) Invalidate(address string, kind types.DataKind) error {
	if kind != "" && !kind.Valid() {
		return fmt.Errorf("unknown data kind %q", kind)
	}

	addr := types.NormalizeAddress(address)
	for _, target := range s.coordinatorsFor(kind) {
		if addr == "" {
			target.InvalidateAll()
		} else {
			target.Invalidate(addr)
		}
	}

	s.logger.Info("cache-invalidated",
		zap.String("address", addr),
		zap.String("kind", string(kind)))

	return nil
}

// WaitBackground blocks until every in-flight background revalidation has
// finished. Called on shutdown so detached tasks are not killed mid-write.
func (s *Service) WaitBackground() {
	s.balances.WaitBackground()
	if s.members != nil {
		s.members.WaitBackground()
	}
	s.activity.WaitBackground()
}

// invalidator erases the generic type parameter so the three coordinators
// can be iterated together.
type invalidator interface {
	Invalidate(address string)
	InvalidateAll()
}

func (s *Service) coordinatorsFor(kind types.DataKind) []invalidator {
	all := map[types.DataKind]invalidator{
		types.KindBalance:  s.balances,
		types.KindActivity: s.activity,
	}
	if s.members != nil {
		all[types.KindMembership] = s.members
	}

	if kind == "" {
		targets := make([]invalidator, 0, len(all))
		for _, c := range all {
			targets = append(targets, c)
		}
		return targets
	}
	if c, ok := all[kind]; ok {
		return []invalidator{c}
	}
	return nil
}

func normalize(addresses []string) []string {
	out := make([]string, 0, len(addresses))
	seen := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		n := types.NormalizeAddress(a)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
