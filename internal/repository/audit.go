package repository

import (
	"context"
	"reflect"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"time-planner/internal/model"
)

type actorKey struct{}

// WithActor attaches the account performing the writes made with ctx.
func WithActor(ctx context.Context, accountID uuid.UUID) context.Context {
	return context.WithValue(ctx, actorKey{}, accountID)
}

// ActorFrom returns the actor stored by WithActor.
func ActorFrom(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	id, ok := ctx.Value(actorKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// RegisterAuditHooks installs callbacks that stamp model.Auditable rows with
// the actor from the statement context. Writes without an actor are left alone.
func RegisterAuditHooks(db *gorm.DB) error {
	if err := db.Callback().Create().Before("gorm:create").Register("audit:create", stampCreate); err != nil {
		return err
	}
	return db.Callback().Update().Before("gorm:update").Register("audit:update", stampUpdate)
}

func stampCreate(db *gorm.DB) {
	actor, ok := ActorFrom(db.Statement.Context)
	if !ok || db.Statement.Schema == nil {
		return
	}
	now := db.NowFunc()

	stamp := func(v reflect.Value) {
		if !v.CanAddr() {
			return
		}
		a, ok := v.Addr().Interface().(model.Auditable)
		if !ok {
			return
		}
		s := a.AuditStamps()
		if s.CreatedBy == uuid.Nil {
			s.CreatedBy = actor
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
	}

	rv := db.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			stamp(reflect.Indirect(rv.Index(i)))
		}
	case reflect.Struct:
		stamp(rv)
	}
}

func stampUpdate(db *gorm.DB) {
	actor, ok := ActorFrom(db.Statement.Context)
	if !ok || db.Statement.Schema == nil {
		return
	}
	if db.Statement.Schema.LookUpField("updated_by") == nil {
		return
	}
	by := actor
	db.Statement.SetColumn("updated_by", &by)

	if values, ok := db.Statement.Dest.(map[string]interface{}); ok {
		if _, deleting := values["deleted_at"]; deleting && db.Statement.Schema.LookUpField("deleted_by") != nil {
			db.Statement.SetColumn("deleted_by", &by)
		}
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}
