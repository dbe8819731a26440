// Package service holds the application services that sit between the
// HTTP layer and the repositories: role resolution for the authorization
// gate and publishing of domain events.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/summer-camp-booking/internal/model"
	"github.com/iliyamo/summer-camp-booking/internal/repository"
)

// RoleProvider resolves the current role of an identity.  Implementations
// must return RoleStudent for unknown users and only return an error when
// the lookup itself failed.
type RoleProvider interface {
	Role(ctx context.Context, email string) (model.Role, error)
}

// RoleCache is implemented by providers that keep resolved roles around and
// need to be told when a user's role changes.
type RoleCache interface {
	Forget(ctx context.Context, email string) error
}

// UserFinder is the slice of the user repository role lookups need.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (model.Document, error)
}

// StoreRoleProvider looks the role up in the users collection on every call.
type StoreRoleProvider struct {
	Users UserFinder
}

func NewStoreRoleProvider(users UserFinder) *StoreRoleProvider {
	return &StoreRoleProvider{Users: users}
}

func (p *StoreRoleProvider) Role(ctx context.Context, email string) (model.Role, error) {
	doc, err := p.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.RoleStudent, nil
		}
		return "", err
	}
	return model.ParseRole(doc[model.FieldRole]), nil
}

// CachedRoleProvider memoizes another provider's answers in Redis for at
// most TTL.  Redis errors are never fatal: a failed read falls through to
// Next and a failed write is ignored.  Forget evicts one identity right
// away; if eviction itself fails the entry still expires after TTL.
type CachedRoleProvider struct {
	Next   RoleProvider
	RDB    *redis.Client
	TTL    time.Duration
	Prefix string
}

// NewCachedRoleProvider wraps next.  A nil client or non-positive ttl
// returns next unchanged.
func NewCachedRoleProvider(next RoleProvider, rdb *redis.Client, ttl time.Duration) RoleProvider {
	if rdb == nil || ttl <= 0 {
		return next
	}
	return &CachedRoleProvider{Next: next, RDB: rdb, TTL: ttl, Prefix: "role"}
}

func (p *CachedRoleProvider) key(email string) string {
	return p.Prefix + ":" + email
}

func (p *CachedRoleProvider) Role(ctx context.Context, email string) (model.Role, error) {
	if v, err := p.RDB.Get(ctx, p.key(email)).Result(); err == nil && model.ValidRole(v) {
		return model.Role(v), nil
	}
	role, err := p.Next.Role(ctx, email)
	if err != nil {
		return "", err
	}
	_ = p.RDB.Set(ctx, p.key(email), string(role), p.TTL).Err()
	return role, nil
}

func (p *CachedRoleProvider) Forget(ctx context.Context, email string) error {
	return p.RDB.Del(ctx, p.key(email)).Err()
}
