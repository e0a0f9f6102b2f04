package accounts

import "context"

// Directory answers admin queries over all accounts
type Directory struct {
	users   Users
	metrics *Metrics
	logger  Logger
}

// NewDirectory returns a Directory over users
func NewDirectory(users Users, logger Logger, metrics *Metrics) *Directory {
	return &Directory{
		users:   users,
		metrics: metrics,
		logger:  normalizeLogger(logger),
	}
}

// List returns every account. Requires the admin role.
func (d *Directory) List(ctx context.Context, caller Identity) (out []IdentitySnapshot, err error) {
	defer func() { d.metrics.Observe("directory_list", err) }()

	if err := RequireRole(caller, RoleAdmin); err != nil {
		return nil, err
	}

	records, err := d.users.List(ctx)
	if err != nil {
		d.logger.Error("Directory list users", "error", err)
		return nil, serviceUnavailable(err, "failed to list users")
	}

	return NewIdentitySnapshots(records), nil
}

// Stats returns account counters. Requires the admin role.
func (d *Directory) Stats(ctx context.Context, caller Identity) (stats UserStats, err error) {
	defer func() { d.metrics.Observe("directory_stats", err) }()

	if err := RequireRole(caller, RoleAdmin); err != nil {
		return UserStats{}, err
	}

	stats, err = d.users.Stats(ctx)
	if err != nil {
		d.logger.Error("Directory user stats", "error", err)
		return UserStats{}, serviceUnavailable(err, "failed to compute user stats")
	}

	return stats, nil
}
