package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/sealtalk/internal/client/config"
	"github.com/dmitrijs2005/sealtalk/internal/client/keystore"
	"github.com/dmitrijs2005/sealtalk/internal/client/services"
	"github.com/dmitrijs2005/sealtalk/internal/client/storage"
	"github.com/dmitrijs2005/sealtalk/internal/common"
	"github.com/dmitrijs2005/sealtalk/internal/cryptox"
	"github.com/dmitrijs2005/sealtalk/internal/filex"
	"github.com/dmitrijs2005/sealtalk/internal/logging"
	"github.com/dmitrijs2005/sealtalk/internal/server/attachments"
	"github.com/dmitrijs2005/sealtalk/internal/server/repositories/messages"
	"github.com/dmitrijs2005/sealtalk/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/sealtalk/internal/server/repositories/repomanager"
)

var openPostgres = repomanager.OpenPostgres

// Bootstrap opens the local key database and the collaborators named by cfg
// and assembles an App. The returned func releases them.
//
// With an empty ProfileDSN the profile and message stores are in-memory,
// which is enough to try the client against itself.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	var logger logging.Logger = logging.NewJSONLogger(os.Stderr, cfg.LogLevel)
	if session, err := common.MakeRandHexString(8); err == nil {
		logger = logger.With("session", session)
	}

	dataDir, err := filex.EnsureDataDir(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}

	localDB, err := storage.OpenLocal(ctx, cfg.ResolveLocalDBPath(dataDir))
	if err != nil {
		return nil, nil, fmt.Errorf("open local database: %w", err)
	}
	closers := []func() error{localDB.Close}
	cleanup := func() {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		if err := errors.Join(errs...); err != nil {
			logger.Warn(context.Background(), "cleanup failed", "error", err)
		}
	}

	var (
		profileRepo profiles.Repository
		messageRepo messages.Repository
	)
	if cfg.ProfileDSN != "" {
		rm := repomanager.NewPostgresRepositoryManager()
		db, err := openPostgres(ctx, cfg.ProfileDSN, rm)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, db.Close)
		profileRepo = rm.Profiles(db)
		messageRepo = rm.Messages(db)
	} else {
		logger.Warn(ctx, "no profile store configured, using in-memory collaborators")
		profileRepo = profiles.NewMemoryRepository()
		messageRepo = messages.NewMemoryRepository()
	}

	agreement, err := cryptox.NewECDHProvider(cfg.Curve)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	keys := keystore.NewSQLiteStore(localDB)
	deriver := services.NewSecretDeriver(keys, agreement)

	presigner := attachments.NewS3Presigner(attachments.S3Config{
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
		Expiry:       cfg.PresignExpiry,
	})

	app := NewApp(cfg, Deps{
		Logger:      logger,
		Profiles:    profileRepo,
		Provisioner: services.NewKeyProvisioner(logger, keys, profileRepo, agreement),
		Conversations: services.NewConversationManager(logger, profileRepo, messageRepo, deriver, services.ConversationConfig{
			DecryptConcurrency: cfg.DecryptConcurrency,
			HistoryLimit:       cfg.HistoryLimit,
		}),
		Attachments: services.NewAttachmentStore(presigner),
	})

	logger.Info(ctx, "client ready", "data_dir", dataDir, "curve", cfg.Curve)
	return app, cleanup, nil
}
