package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/logging"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/companies"
	"github.com/dmitrijs2005/bookkeeper/internal/server/validate"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

// CompanyInput is the writable part of a company.
type CompanyInput struct {
	Name             string `json:"name"`
	RegistrationCode string `json:"registrationCode"`
	VATNumber        string `json:"vatNumber"`
	Address          string `json:"address"`
	Email            string `json:"email"`
}

func (in CompanyInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.RegistrationCode, validation.Required, validation.Length(1, 50)),
		validation.Field(&in.VATNumber, validation.Length(0, 20)),
		validation.Field(&in.Address, validation.Length(0, 500)),
		validation.Field(&in.Email, is.Email),
	)
}

func (in CompanyInput) normalized() CompanyInput {
	in.Name = strings.TrimSpace(in.Name)
	in.RegistrationCode = strings.TrimSpace(in.RegistrationCode)
	in.VATNumber = strings.TrimSpace(in.VATNumber)
	in.Address = strings.TrimSpace(in.Address)
	in.Email = common.NormalizeEmail(in.Email)
	return in
}

// CompanyService is owner-scoped CRUD. A company of another user is reported
// exactly like a missing one, as ErrCompanyNotFound.
type CompanyService struct {
	repo companies.Repository
	log  logging.Logger
}

func NewCompanyService(repo companies.Repository, log logging.Logger) *CompanyService {
	return &CompanyService{repo: repo, log: log.With("module", "companies")}
}

func (s *CompanyService) List(ctx context.Context, userID string) ([]*models.Company, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *CompanyService) Get(ctx context.Context, userID, id string) (*models.Company, error) {
	if !validID(id) {
		return nil, common.ErrCompanyNotFound
	}
	c, err := s.repo.Get(ctx, userID, id)
	return c, notFound(err)
}

func (s *CompanyService) Create(ctx context.Context, userID string, in CompanyInput) (*models.Company, error) {
	in = in.normalized()
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	c, err := s.repo.Create(ctx, &models.Company{
		UserID:           userID,
		Name:             in.Name,
		RegistrationCode: in.RegistrationCode,
		VATNumber:        in.VATNumber,
		Address:          in.Address,
		Email:            in.Email,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "company created", "user_id", userID, "company_id", c.ID)
	return c, nil
}

func (s *CompanyService) Update(ctx context.Context, userID, id string, in CompanyInput) (*models.Company, error) {
	if !validID(id) {
		return nil, common.ErrCompanyNotFound
	}
	in = in.normalized()
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	c, err := s.repo.Update(ctx, &models.Company{
		ID:               id,
		UserID:           userID,
		Name:             in.Name,
		RegistrationCode: in.RegistrationCode,
		VATNumber:        in.VATNumber,
		Address:          in.Address,
		Email:            in.Email,
	})
	return c, notFound(err)
}

func (s *CompanyService) Delete(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return common.ErrCompanyNotFound
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return notFound(err)
	}
	s.log.Info(ctx, "company deleted", "user_id", userID, "company_id", id)
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func notFound(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrCompanyNotFound
	}
	return err
}
