package migrations

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

type InterviewTemplate struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey"`
	OrgID          string            `gorm:"type:text;not null;index"`
	JobTitle       string            `gorm:"type:text;not null"`
	CompanyName    string            `gorm:"type:text;not null"`
	JobDescription string            `gorm:"type:text"`
	Competencies   datatypes.JSON    `gorm:"type:jsonb"`
	MustAsk        datatypes.JSON    `gorm:"type:jsonb"`
	Config         datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt      time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

type Candidate struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrgID     string    `gorm:"type:text;not null;index"`
	Name      string    `gorm:"type:text;not null"`
	Email     string    `gorm:"type:text;not null;index"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

type InterviewSession struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Token          string            `gorm:"type:text;uniqueIndex;not null"`
	TemplateID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	CandidateID    *uuid.UUID        `gorm:"type:uuid;index"`
	Status         string            `gorm:"type:text;not null;default:'invited';index"`
	InvitedAt      time.Time         `gorm:"type:timestamptz;not null;default:now()"`
	ExpiresAt      time.Time         `gorm:"type:timestamptz;not null"`
	StartedAt      *time.Time        `gorm:"type:timestamptz"`
	CompletedAt    *time.Time        `gorm:"type:timestamptz"`
	Turns          datatypes.JSON    `gorm:"type:jsonb;not null;default:'[]'"`
	Metrics        datatypes.JSONMap `gorm:"type:jsonb"`
	FullTranscript string            `gorm:"type:text"`

	Template  InterviewTemplate `gorm:"foreignKey:TemplateID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Candidate *Candidate        `gorm:"foreignKey:CandidateID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

type Audit struct {
	ID      int64             `gorm:"type:bigserial;primaryKey"`
	Actor   string            `gorm:"type:text;not null"`
	OrgID   string            `gorm:"type:text;not null;index"`
	Action  string            `gorm:"type:text;not null"`
	Obj     string            `gorm:"type:text"`
	Details datatypes.JSONMap `gorm:"type:jsonb"`
	At      time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

func (Audit) TableName() string { return "audit" }

func upInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).AutoMigrate(
		&InterviewTemplate{},
		&Candidate{},
		&InterviewSession{},
		&Audit{},
	); err != nil {
		return err
	}

	m := gormDB.WithContext(ctx).Migrator()
	if err := m.CreateConstraint(&InterviewSession{}, "Template"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&InterviewSession{}, "Candidate"); err != nil {
		return err
	}

	return nil
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	return gormDB.WithContext(ctx).Migrator().DropTable(
		&Audit{},
		&InterviewSession{},
		&Candidate{},
		&InterviewTemplate{},
	)
}
