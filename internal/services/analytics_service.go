package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/yukikurage/company-task-api/internal/access"
	"github.com/yukikurage/company-task-api/internal/cache"
	"github.com/yukikurage/company-task-api/internal/repository"
)

// AnalyticsService serves cached rollups over the task set.
type AnalyticsService struct {
	taskRepo repository.TaskRepository
	cache    cache.Cache
	policy   cache.Policy
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(taskRepo repository.TaskRepository, c cache.Cache, policy cache.Policy) *AnalyticsService {
	return &AnalyticsService{
		taskRepo: taskRepo,
		cache:    c,
		policy:   policy,
	}
}

// ComputeAnalytics returns the rollup over every task of a company.
func (s *AnalyticsService) ComputeAnalytics(ctx context.Context, companyCode string) (AnalyticsReport, error) {
	key := cache.Key{CompanyCode: companyCode, View: cache.ViewAnalytics}
	return cache.GetOrCompute(ctx, s.cache, key, s.policy.TTL(cache.ViewAnalytics), func(ctx context.Context) (AnalyticsReport, error) {
		tasks, err := s.taskRepo.ListSummaries(ctx, access.Scope{CompanyCode: companyCode, Visibility: access.VisibleCompany})
		if err != nil {
			return AnalyticsReport{}, fmt.Errorf("failed to load tasks for analytics: %w", err)
		}
		return Aggregate(tasks), nil
	})
}

// CompanyAnalytics is ComputeAnalytics for the principal's company.
func (s *AnalyticsService) CompanyAnalytics(ctx context.Context, p access.Principal) (AnalyticsReport, error) {
	if _, err := access.ResolveScope(p); err != nil {
		return AnalyticsReport{}, err
	}
	return s.ComputeAnalytics(ctx, p.CompanyCode)
}

// Stats summarizes the tasks visible to the principal.
func (s *AnalyticsService) Stats(ctx context.Context, p access.Principal) (TaskStats, error) {
	scope, err := access.ResolveScope(p)
	if err != nil {
		return TaskStats{}, err
	}

	key := cache.Key{CompanyCode: p.CompanyCode, View: cache.ViewStats, Variant: variantFor(scope)}
	return cache.GetOrCompute(ctx, s.cache, key, s.policy.TTL(cache.ViewStats), func(ctx context.Context) (TaskStats, error) {
		tasks, err := s.taskRepo.ListSummaries(ctx, scope)
		if err != nil {
			return TaskStats{}, fmt.Errorf("failed to load tasks for stats: %w", err)
		}
		return Summarize(tasks), nil
	})
}

// variantFor distinguishes cache entries of scopes that see different tasks
// within the same company.
func variantFor(scope access.Scope) string {
	if scope.Visibility == access.VisibleCompany {
		return "all"
	}
	return "u" + strconv.FormatUint(scope.UserID, 10)
}
