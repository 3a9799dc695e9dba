package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/patrickmn/go-cache"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/repository"
)

const (
	displayNameTTL     = time.Minute
	displayNameCleanup = 5 * time.Minute
)

// DisplayNames resolves identifiers shown in activity logs to human names.
// Results are cached briefly since a single update often repeats lookups.
type DisplayNames struct {
	users     repository.UserRepository
	teams     repository.TeamRepository
	workflows repository.WorkflowRepository
	cache     *cache.Cache
}

// NewDisplayNames creates the resolver.
func NewDisplayNames(users repository.UserRepository, teams repository.TeamRepository, workflows repository.WorkflowRepository) *DisplayNames {
	return &DisplayNames{
		users:     users,
		teams:     teams,
		workflows: workflows,
		cache:     cache.New(displayNameTTL, displayNameCleanup),
	}
}

// UserName formats a user id. Unknown users fall back to the id.
func (d *DisplayNames) UserName(ctx context.Context, rc domain.RequestContext, value any) (string, error) {
	id := fmt.Sprint(value)
	return d.lookup("user:"+rc.TenantID+":"+id, id, func() (string, error) {
		user, err := d.users.GetByID(ctx, rc.TenantID, id)
		if err != nil {
			return "", err
		}
		return user.Name, nil
	})
}

// TeamName formats a team id.
func (d *DisplayNames) TeamName(ctx context.Context, rc domain.RequestContext, value any) (string, error) {
	id := fmt.Sprint(value)
	return d.lookup("team:"+rc.TenantID+":"+id, id, func() (string, error) {
		team, err := d.teams.GetByID(ctx, rc.TenantID, id)
		if err != nil {
			return "", err
		}
		return team.Name, nil
	})
}

// StateName formats a workflow state id.
func (d *DisplayNames) StateName(ctx context.Context, _ domain.RequestContext, value any) (string, error) {
	id := fmt.Sprint(value)
	return d.lookup("state:"+id, id, func() (string, error) {
		state, err := d.workflows.GetState(ctx, id)
		if err != nil {
			return "", err
		}
		return state.Name, nil
	})
}

func (d *DisplayNames) lookup(key, fallback string, load func() (string, error)) (string, error) {
	if name, ok := d.cache.Get(key); ok {
		return name.(string), nil
	}
	name, err := load()
	if errors.Is(err, pgx.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	d.cache.Set(key, name, cache.DefaultExpiration)
	return name, nil
}
