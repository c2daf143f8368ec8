package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kutuphane/library-service/internal/errs"
	"github.com/kutuphane/library-service/internal/model"
	"github.com/kutuphane/library-service/internal/repository"
)

type UserService struct {
	log  *zap.Logger
	repo repository.Users
}

func NewUserService(repo repository.Users, log *zap.Logger) *UserService {
	return &UserService{
		log:  log,
		repo: repo,
	}
}

func (s *UserService) AddMember(ctx context.Context, req model.MemberRequest) (model.User, error) {
	user, err := model.NewMember(req.FullName, req.Email, req.Phone, req.MemberNumber)
	if err != nil {
		return model.User{}, err
	}
	return s.add(ctx, user)
}

func (s *UserService) AddStaff(ctx context.Context, req model.StaffRequest) (model.User, error) {
	user, err := model.NewStaff(req.FullName, req.Email, req.Phone, req.StaffNumber, req.Department)
	if err != nil {
		return model.User{}, err
	}
	return s.add(ctx, user)
}

func (s *UserService) add(ctx context.Context, user model.User) (model.User, error) {
	if _, err := s.repo.GetByEmail(ctx, user.Email); err == nil {
		return model.User{}, errs.Conflictf("user with email %s already exists", user.Email)
	} else if !errors.Is(err, errs.ErrNotFound) {
		return model.User{}, err
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return model.User{}, err
	}
	s.log.Info("user added",
		zap.Int64("id", created.ID), zap.String("variant", string(created.Variant)))
	return created, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (model.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) ListMembers(ctx context.Context) ([]model.User, error) {
	return s.repo.ListByVariant(ctx, model.VariantMember)
}

func (s *UserService) ListStaff(ctx context.Context) ([]model.User, error) {
	return s.repo.ListByVariant(ctx, model.VariantStaff)
}

// UpdateMember overwrites the common fields and the member number from the
// request. A stored record of the other variant is reported as not found.
func (s *UserService) UpdateMember(ctx context.Context, id int64, req model.MemberRequest) (model.User, error) {
	stored, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if stored.Variant != model.VariantMember {
		return model.User{}, errs.NotFoundf("record ID %d is not a %s", id, model.VariantMember)
	}

	stored.FullName = req.FullName
	stored.Email = req.Email
	stored.Phone = req.Phone
	stored.MemberNumber = req.MemberNumber
	return s.repo.Update(ctx, stored)
}

func (s *UserService) UpdateStaff(ctx context.Context, id int64, req model.StaffRequest) (model.User, error) {
	stored, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if stored.Variant != model.VariantStaff {
		return model.User{}, errs.NotFoundf("record ID %d is not a %s", id, model.VariantStaff)
	}

	stored.FullName = req.FullName
	stored.Email = req.Email
	stored.Phone = req.Phone
	stored.StaffNumber = req.StaffNumber
	stored.Department = req.Department
	return s.repo.Update(ctx, stored)
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.Int64("id", id))
	return nil
}
