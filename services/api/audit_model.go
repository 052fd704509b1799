package api

import (
	"context"
	"time"

	"gorm.io/datatypes"
)

type auditModel struct {
	ID      int64 `gorm:"primaryKey"`
	Actor   string
	OrgID   string
	Action  string
	Obj     string
	Details datatypes.JSONMap
	At      time.Time
}

func (auditModel) TableName() string { return "audit" }

// audit records a staff mutation. Failures are logged, never surfaced: the
// mutation itself already succeeded.
func (a *API) audit(ctx context.Context, id staffIdentity, action, obj string, details map[string]any) {
	entry := auditModel{
		Actor:   id.UserID,
		OrgID:   id.OrgID,
		Action:  action,
		Obj:     obj,
		Details: toJSONMap(details),
		At:      time.Now().UTC(),
	}
	if err := a.store.ORM.WithContext(ctx).Create(&entry).Error; err != nil {
		a.log.Warn().Err(err).Str("action", action).Msg("audit write failed")
	}
}
