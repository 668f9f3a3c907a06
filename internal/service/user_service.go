package service

import (
	"context"
	"time"

	"musicsocial/internal/auth"
	"musicsocial/internal/logger"
	"musicsocial/internal/model"
	"musicsocial/internal/repository"
	"musicsocial/pkg/apperror"
	"musicsocial/pkg/pagination"

	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type RegisterUserRequest struct {
	Username string `json:"username" binding:"required" validate:"required,min=3,max=255"`
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required,min=6" validate:"required,min=6,max=72"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Roles     []string  `json:"roles"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// UserService registers accounts and exchanges credentials for tokens.
type UserService interface {
	// Register creates the account and grants the default common_user role in one transaction.
	Register(ctx context.Context, req RegisterUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	GetByID(ctx context.Context, id uint) (*UserResponse, error)
	List(ctx context.Context, params pagination.Params) ([]UserResponse, int64, error)
	Delete(ctx context.Context, id uint) error
}

type userService struct {
	base
	tx        repository.TransactionManager
	users     repository.UserRepository
	roles     repository.RoleRepository
	userRoles repository.UserRoleRepository
	tokens    *auth.TokenManager
}

type UserServiceDeps struct {
	Tx        repository.TransactionManager
	Users     repository.UserRepository
	Roles     repository.RoleRepository
	UserRoles repository.UserRoleRepository
	Tokens    *auth.TokenManager
}

// NewUserService returns a new instance of UserService
func NewUserService(deps UserServiceDeps, opts Options) UserService {
	return &userService{
		base:      newBase(opts, "user-service"),
		tx:        deps.Tx,
		users:     deps.Users,
		roles:     deps.Roles,
		userRoles: deps.UserRoles,
		tokens:    deps.Tokens,
	}
}

func (s *userService) Register(ctx context.Context, req RegisterUserRequest) (*UserResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	// Hash outside the transaction; bcrypt is slow on purpose.
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Server(err)
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	user := &model.User{Username: req.Username, Email: req.Email, Password: string(hashed)}
	roles := []string{}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.users.Create(txCtx, user); err != nil {
			if isDuplicate(err) {
				return err
			}
			return s.dbError("user.register", err, "email", req.Email)
		}

		role, err := s.roles.FindByName(txCtx, model.RoleCommonUser)
		if err != nil {
			if isNotFound(err) {
				s.log.Warn("default role not found, user registered without roles",
					logger.Fields("role", model.RoleCommonUser, logger.FieldUserID, user.ID))
				return nil
			}
			return s.dbError("user.register", err, "role", model.RoleCommonUser)
		}
		if _, err := s.userRoles.Link(txCtx, user.ID, role.ID); err != nil {
			return s.dbError("user.register", err, logger.FieldUserID, user.ID, "role_id", role.ID)
		}
		roles = append(roles, role.Name)
		return nil
	})
	if isDuplicate(err) {
		return nil, s.duplicateUser(ctx, req)
	}
	if err != nil {
		return nil, s.dbError("user.register", err, "email", req.Email)
	}

	s.log.Info("user registered", logger.Fields(logger.FieldUserID, user.ID))
	return toUserResponse(user, roles), nil
}

// duplicateUser names the unique key a rejected registration collided with. It runs after the
// failed transaction has rolled back.
func (s *userService) duplicateUser(ctx context.Context, req RegisterUserRequest) error {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return apperror.AlreadyExists("email", req.Email).WithDetail("field", "email")
	}
	return apperror.AlreadyExists("username", req.Username).WithDetail("field", "username")
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, s.dbError("user.login", err, "email", req.Email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	names, err := s.roleNames(ctx, user.ID)
	if err != nil {
		return nil, s.dbError("user.login", err, logger.FieldUserID, user.ID)
	}

	token, exp, err := s.tokens.Issue(user.ID, names)
	if err != nil {
		s.log.Error("token signing failed", logger.Fields(logger.FieldError, err.Error()))
		return nil, apperror.Server(err)
	}
	return &TokenResponse{Token: token, ExpiresAt: exp, Roles: names}, nil
}

func (s *userService) GetByID(ctx context.Context, id uint) (*UserResponse, error) {
	if err := validID("id", id); err != nil {
		return nil, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, s.dbError("user.get", err, logger.FieldUserID, id)
	}
	names, err := s.roleNames(ctx, id)
	if err != nil {
		return nil, s.dbError("user.get", err, logger.FieldUserID, id)
	}
	return toUserResponse(user, names), nil
}

func (s *userService) List(ctx context.Context, params pagination.Params) ([]UserResponse, int64, error) {
	params = pagination.New(params.Page, params.Limit)
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	users, total, err := s.users.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, s.dbError("user.list", err)
	}
	res := make([]UserResponse, 0, len(users))
	for i := range users {
		names, err := s.roleNames(ctx, users[i].ID)
		if err != nil {
			return nil, 0, s.dbError("user.list", err, logger.FieldUserID, users[i].ID)
		}
		res = append(res, *toUserResponse(&users[i], names))
	}
	return res, total, nil
}

// Delete removes the account and its role grants.
func (s *userService) Delete(ctx context.Context, id uint) error {
	if err := validID("id", id); err != nil {
		return err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	deleted, err := s.users.Delete(ctx, id)
	if err != nil {
		return s.dbError("user.delete", err, logger.FieldUserID, id)
	}
	if !deleted {
		return apperror.NotFound("user", id)
	}
	s.log.Info("user deleted", logger.Fields(logger.FieldUserID, id))
	s.record(ctx, model.ActionDeleteUser, "user", id)
	return nil
}

func (s *userService) roleNames(ctx context.Context, userID uint) ([]string, error) {
	roles, err := s.userRoles.RolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names, nil
}

func toUserResponse(user *model.User, roles []string) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Roles:     roles,
		CreatedAt: user.CreatedAt,
	}
}
