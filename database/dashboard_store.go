package database

import (
	"context"

	"github.com/mbolis/formdesk/model"
)

const recentResponses = 5

func (s *Store) Dashboard(ctx context.Context) (d model.Dashboard, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM user WHERE role = 'user'),
			(SELECT COUNT(*) FROM form),
			(SELECT COUNT(*) FROM response),
			(SELECT COUNT(*) FROM form WHERE is_active = 1)`,
	).Scan(
		&d.Stats.TotalUsers,
		&d.Stats.TotalForms,
		&d.Stats.TotalResponses,
		&d.Stats.ActiveForms,
	)
	if err != nil {
		return model.Dashboard{}, storeErr("db.dashboard.stats", err)
	}

	d.RecentResponses, err = s.ListResponses(ctx, ResponseFilter{Limit: recentResponses})
	if err != nil {
		return model.Dashboard{}, err
	}
	return d, nil
}
