package service

import (
	"context"
	"errors"
	"time"

	"Title_Vote/internal/model"
	"Title_Vote/internal/pkg"
	"Title_Vote/internal/repository/mysql"

	"github.com/go-kratos/kratos/v2/log"
)

// UserService resolves external identities to local users and answers the
// permission questions other services ask about them.
type UserService struct {
	users *mysql.UserRepository
	bans  *mysql.BanRepository
	now   func() time.Time
	log   *log.Helper
}

func NewUserService(users *mysql.UserRepository, bans *mysql.BanRepository, clock Clock, logger log.Logger) *UserService {
	return &UserService{
		users: users,
		bans:  bans,
		now:   clock,
		log:   log.NewHelper(log.With(logger, "module", "service/user")),
	}
}

// Resolve returns the user for id, creating it on first sight and syncing
// email and name when the identity provider reports new values.
func (s *UserService) Resolve(ctx context.Context, id *pkg.Identity) (*model.User, error) {
	if id == nil || id.Subject == "" {
		return nil, ErrUnauthenticated
	}
	u, err := s.users.FindBySubject(ctx, id.Subject)
	if errors.Is(err, mysql.ErrNotFound) {
		fresh := &model.User{Subject: id.Subject, Email: id.Email, Name: id.Name}
		if err = s.users.CreateIfAbsent(ctx, fresh); err != nil {
			return nil, err
		}
		// re-read: a concurrent request may have won the insert
		u, err = s.users.FindBySubject(ctx, id.Subject)
	}
	if err != nil {
		return nil, err
	}
	if u.Email != id.Email || u.Name != id.Name {
		if err = s.users.UpdateProfile(ctx, u.ID, id.Email, id.Name); err != nil {
			return nil, err
		}
		u.Email, u.Name = id.Email, id.Name
	}
	return u, nil
}

// Lookup is the read-only variant: unknown or missing identities give nil, nil.
func (s *UserService) Lookup(ctx context.Context, id *pkg.Identity) (*model.User, error) {
	if id == nil || id.Subject == "" {
		return nil, nil
	}
	u, err := s.users.FindBySubject(ctx, id.Subject)
	if errors.Is(err, mysql.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

// RequireActive resolves the caller and rejects users under an enforced ban.
func (s *UserService) RequireActive(ctx context.Context, id *pkg.Identity) (*model.User, error) {
	u, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	ban, err := s.bans.ActiveBan(ctx, u.ID)
	if err != nil && !errors.Is(err, mysql.ErrNotFound) {
		return nil, err
	}
	if ban.Enforced(s.now()) {
		return nil, ErrUserBanned
	}
	return u, nil
}

// RequireAdmin resolves the caller and rejects non-admins.
func (s *UserService) RequireAdmin(ctx context.Context, id *pkg.Identity) (*model.User, error) {
	u, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin {
		return nil, ErrAdminOnly
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, userID uint64) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, mysql.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}
