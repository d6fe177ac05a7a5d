package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/yukikurage/company-task-api/internal/access"
	"github.com/yukikurage/company-task-api/internal/constants"
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
	"github.com/yukikurage/company-task-api/internal/models"
	"github.com/yukikurage/company-task-api/internal/repository"
	"github.com/yukikurage/company-task-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken         = apierrors.New(apierrors.ErrDuplicate, "username already exists")
	ErrEmailTaken            = apierrors.New(apierrors.ErrDuplicate, "email already exists")
	ErrInvalidCredentials    = apierrors.New(apierrors.ErrUnauthorized, "invalid username or password")
	ErrNotAdmin              = apierrors.New(apierrors.ErrForbidden, "admin access required")
	ErrUserNotFound          = apierrors.New(apierrors.ErrNotFound, "user not found")
	ErrCompanyNotFound       = apierrors.New(apierrors.ErrNotFound, "company not found")
	ErrRegistrationCompleted = apierrors.New(apierrors.ErrValidation, "registration is already complete")
	ErrCompanyNameRequired   = apierrors.New(apierrors.ErrValidation, "company name is required")
	ErrCompanyCodeRequired   = apierrors.New(apierrors.ErrValidation, "company code is required")
	ErrCompanyCodeExhausted  = apierrors.New(apierrors.ErrCodeGenerationExhausted, "could not generate a unique company code")
)

// CodeGenerator returns a random company code of the given length.
type CodeGenerator func(length int) (string, error)

// IdentityOptions tunes company code generation.
type IdentityOptions struct {
	CodeLength      int
	MaxCodeAttempts int
	GenerateCode    CodeGenerator
}

// IdentityService holds users and companies and resolves principals.
type IdentityService struct {
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	opts        IdentityOptions
}

// NewIdentityService creates a new IdentityService. Zero options fall back to defaults.
func NewIdentityService(userRepo repository.UserRepository, companyRepo repository.CompanyRepository, opts IdentityOptions) *IdentityService {
	if opts.CodeLength <= 0 {
		opts.CodeLength = constants.DefaultCompanyCodeLength
	}
	if opts.MaxCodeAttempts <= 0 {
		opts.MaxCodeAttempts = constants.DefaultCompanyCodeMaxAttempts
	}
	if opts.GenerateCode == nil {
		opts.GenerateCode = utils.GenerateCompanyCode
	}
	return &IdentityService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		opts:        opts,
	}
}

// RegisterInput represents the information needed to create an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     models.UserRole
}

// Register creates a user whose registration is not yet complete.
func (s *IdentityService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if n := len(username); n < constants.MinUsernameLength || n > constants.MaxUsernameLength {
		return nil, apierrors.New(apierrors.ErrValidation,
			fmt.Sprintf("username must be between %d and %d characters", constants.MinUsernameLength, constants.MaxUsernameLength))
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apierrors.New(apierrors.ErrValidation, "email is invalid")
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, apierrors.New(apierrors.ErrValidation,
			fmt.Sprintf("password must be at least %d characters", constants.MinPasswordLength))
	}
	if _, ok := access.ParseRole(input.Role); !ok {
		return nil, apierrors.New(apierrors.ErrValidation, "role must be admin or employee")
	}

	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         input.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierrors.New(apierrors.ErrDuplicate, "username or email already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Uint64("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

// CompleteRegistrationInput carries the company to create (admins) or join (employees).
type CompleteRegistrationInput struct {
	CompanyName string
	CompanyCode string
}

// CompleteRegistration attaches the user to a company. Admins create a new company
// with a generated code; employees join an existing one by code. The company code
// of a user never changes afterwards.
func (s *IdentityService) CompleteRegistration(ctx context.Context, userID uint64, input CompleteRegistrationInput) (*models.User, *models.Company, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if user.RegistrationComplete || user.CompanyCode != nil {
		return nil, nil, ErrRegistrationCompleted
	}

	role, ok := access.ParseRole(user.Role)
	if !ok {
		return nil, nil, access.ErrUnknownRole
	}

	var company *models.Company
	switch role {
	case access.RoleAdmin:
		name := strings.TrimSpace(input.CompanyName)
		if name == "" {
			return nil, nil, ErrCompanyNameRequired
		}
		company, err = s.CreateCompany(ctx, name, user.ID)
		if err != nil {
			return nil, nil, err
		}
	case access.RoleEmployee:
		code := strings.ToUpper(strings.TrimSpace(input.CompanyCode))
		if code == "" {
			return nil, nil, ErrCompanyCodeRequired
		}
		company, err = s.companyRepo.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, ErrCompanyNotFound
			}
			return nil, nil, fmt.Errorf("failed to find company: %w", err)
		}
	}

	code := company.Code
	user.CompanyCode = &code
	user.RegistrationComplete = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to complete registration: %w", err)
	}

	log.Info().Uint64("user_id", user.ID).Str("company_code", code).Msg("registration completed")
	return user, company, nil
}

// CreateCompany creates a company owned by adminID under a fresh random code.
// A taken code is retried with a new one, up to the configured number of attempts.
func (s *IdentityService) CreateCompany(ctx context.Context, name string, adminID uint64) (*models.Company, error) {
	for attempt := 1; attempt <= s.opts.MaxCodeAttempts; attempt++ {
		code, err := s.opts.GenerateCode(s.opts.CodeLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate company code: %w", err)
		}

		taken, err := s.companyRepo.ExistsByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to check company code: %w", err)
		}
		if taken {
			log.Debug().Int("attempt", attempt).Msg("company code collision")
			continue
		}

		company := &models.Company{
			Code:    code,
			Name:    name,
			AdminID: adminID,
		}
		if err := s.companyRepo.Create(ctx, company); err != nil {
			// Lost a race for the same code.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return nil, fmt.Errorf("failed to create company: %w", err)
		}
		return company, nil
	}

	log.Error().Int("attempts", s.opts.MaxCodeAttempts).Msg("company code generation exhausted")
	return nil, ErrCompanyCodeExhausted
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the authenticated user.
// Users that have not completed registration may log in so they can finish it.
func (s *IdentityService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// LoginAdmin is Login restricted to admins.
func (s *IdentityService) LoginAdmin(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.Login(ctx, input)
	if err != nil {
		return nil, err
	}
	if user.Role != models.UserRoleAdmin {
		return nil, ErrNotAdmin
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *IdentityService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// ResolvePrincipal loads the current state of an authenticated user.
// A user that no longer exists is reported as unauthorized.
func (s *IdentityService) ResolvePrincipal(ctx context.Context, userID uint64) (access.Principal, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apierrors.ErrNotFound) {
			return access.Principal{}, apierrors.New(apierrors.ErrUnauthorized, "user no longer exists")
		}
		return access.Principal{}, err
	}
	return access.NewPrincipal(user), nil
}

// ListCompanyMembers returns the users registered in the principal's company.
func (s *IdentityService) ListCompanyMembers(ctx context.Context, p access.Principal) ([]models.User, error) {
	if !p.HasCompany() {
		return nil, access.ErrRegistrationIncomplete
	}
	users, err := s.userRepo.ListByCompany(ctx, p.CompanyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list company members: %w", err)
	}
	return users, nil
}

// GetCompany returns the principal's company.
func (s *IdentityService) GetCompany(ctx context.Context, p access.Principal) (*models.Company, error) {
	if !p.HasCompany() {
		return nil, access.ErrRegistrationIncomplete
	}
	company, err := s.companyRepo.FindByCode(ctx, p.CompanyCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to find company: %w", err)
	}
	return company, nil
}
