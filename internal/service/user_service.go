package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/models"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuditMeta carries request provenance for audit entries.
type AuditMeta struct {
	IP        string
	UserAgent string
}

// UserService lets administrators manage accounts: promote moderators and
// suspend players.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize, 100)
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// SetRole changes the role of an account. Admins cannot change their own role.
func (s *UserService) SetRole(ctx context.Context, id string, req dto.UpdateUserRoleRequest, actorID string, meta AuditMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role payload")
	}
	if id == actorID {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot change your own role")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == req.Role {
		return user, nil
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"role": user.Role})
	user.Role = req.Role
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	newPayload, _ := json.Marshal(map[string]interface{}{"role": user.Role})

	s.audit(ctx, models.AuditActionUserRoleChange, user.ID, actorID, meta, oldPayload, newPayload)
	s.logger.Info("user role changed", zap.String("user_id", user.ID), zap.String("role", string(user.Role)), zap.String("actor_id", actorID))
	return user, nil
}

// SetActive activates or suspends an account. Suspension revokes every
// refresh token so the user is signed out once the access token expires.
func (s *UserService) SetActive(ctx context.Context, id string, req dto.UpdateUserStatusRequest, actorID string, meta AuditMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	active := *req.Active
	if id == actorID && !active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot deactivate your own account")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Active == active {
		return user, nil
	}

	user.Active = active
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	action := models.AuditActionUserActivate
	if !active {
		action = models.AuditActionUserDeactivate
		if err := s.repo.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
			s.logger.Warn("failed to revoke refresh tokens", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	oldPayload, _ := json.Marshal(map[string]interface{}{"active": !active})
	newPayload, _ := json.Marshal(map[string]interface{}{"active": active})
	s.audit(ctx, action, user.ID, actorID, meta, oldPayload, newPayload)
	return user, nil
}

func (s *UserService) audit(ctx context.Context, action, userID, actorID string, meta AuditMeta, oldValues, newValues []byte) {
	recordAudit(ctx, s.repo, s.logger, "user-service", &models.AuditLog{
		UserID:     stringPtr(actorID),
		Action:     action,
		Resource:   "users",
		ResourceID: stringPtr(userID),
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
}
