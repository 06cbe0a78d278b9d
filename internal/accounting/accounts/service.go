package accounts

import (
	"context"
	"strconv"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, businessID int64) ([]Account, error) {
	return s.repo.List(ctx, businessID)
}

func (s *Service) ListByType(ctx context.Context, businessID int64, t AccountType) ([]Account, error) {
	return s.repo.ListByType(ctx, businessID, t)
}

// Resolve accepts either a numeric account id or a chart code and returns
// the matching account scoped to the business.
func (s *Service) Resolve(ctx context.Context, businessID int64, ref string) (Account, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.repo.GetByID(ctx, businessID, id)
	}
	return s.repo.GetByCode(ctx, businessID, ref)
}

func (s *Service) Create(ctx context.Context, a Account) (Account, error) {
	if a.NormalSide == "" {
		a.NormalSide = NormalSideFor(a.Type)
	}
	return s.repo.Create(ctx, a)
}
