package httpapi

import (
	"context"
	"database/sql"
	"sync/atomic"

	"hirepath-engine/internal/config"
	"hirepath-engine/internal/domain"
	"hirepath-engine/internal/events"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	// Atomic stores
	CfgVal       *atomic.Value // stores config.Config
	ParseStatus  *atomic.Value // stores worker.ParseStatus
	IntakeStatus *atomic.Value // stores httpapi.IntakeStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// Pipeline entrypoints (injected for testability)
	RunParseOnce     func(ctx context.Context) (parsed, failed int, err error)
	ScoreApplication func(ctx context.Context, appID int64) (domain.Application, error)
	RunIntakeOnce    func(ctx context.Context) (added int, err error)
	ImportJob        func(ctx context.Context, url string) (domain.Job, error)
}
