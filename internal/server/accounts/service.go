// Package accounts owns the connection between a local user and the
// partner account: the cached remote user id and the sealed token secret.
// Service satisfies both nonce.PrincipalResolver and nonce.SecretStore.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/framegate/internal/common"
	"github.com/dmitrijs2005/framegate/internal/cryptox"
	"github.com/dmitrijs2005/framegate/internal/dbx"
	"github.com/dmitrijs2005/framegate/internal/logging"
	"github.com/dmitrijs2005/framegate/internal/server/config"
	"github.com/dmitrijs2005/framegate/internal/server/connection"
	"github.com/dmitrijs2005/framegate/internal/server/models"
	"github.com/dmitrijs2005/framegate/internal/server/repositories/repomanager"
)

// RemoteLookup asks the partner which account a local user is linked to.
type RemoteLookup interface {
	ConnectedUser(ctx context.Context, userID int64) (*connection.RemoteUser, error)
}

// Service resolves and stores partner connections of local users.
type Service struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	remote      RemoteLookup
	masterKey   []byte
	logger      logging.Logger
}

// NewService constructs a Service. The sealing key is derived from the
// configured master key and salt.
func NewService(db *sql.DB, m repomanager.RepositoryManager, remote RemoteLookup, cfg *config.Config, l logging.Logger) *Service {
	return &Service{
		db:          db,
		repomanager: m,
		remote:      remote,
		masterKey:   cryptox.DeriveMasterKey([]byte(cfg.MasterKey), []byte(cfg.MasterKeySalt)),
		logger:      l.With("module", "accounts"),
	}
}

// RemoteID returns the remote user id linked to userID. The cached link is
// used when present; otherwise the partner is asked and the answer cached.
// A failure to cache is logged and does not fail the lookup.
func (s *Service) RemoteID(ctx context.Context, userID int64) (int64, error) {
	repo := s.repomanager.Links(s.db)

	link, err := repo.Get(ctx, userID)
	if err == nil && link.RemoteUserID != 0 {
		return link.RemoteUserID, nil
	}
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return 0, fmt.Errorf("error reading user link: %w", err)
	}

	user, err := s.remote.ConnectedUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := repo.Upsert(ctx, userID, user.ID); err != nil {
		s.logger.Warn(ctx, "caching user link failed", "user_id", userID, "error", err)
	}

	return user.ID, nil
}

// Secret returns the unsealed token secret of userID. The caller owns the
// returned slice and should wipe it after use.
func (s *Service) Secret(ctx context.Context, userID int64) ([]byte, error) {
	token, err := s.repomanager.Tokens(s.db).Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	secret, err := cryptox.Open(token.SealedSecret, token.Nonce, s.masterKey)
	if err != nil {
		s.logger.Error(ctx, "unsealing token secret failed", "user_id", userID)
		return nil, common.ErrorSealedSecret
	}
	return secret, nil
}

// Connect records that userID is linked to remoteUserID with the given
// token secret. Both rows are written in one transaction.
func (s *Service) Connect(ctx context.Context, userID int64, remoteUserID int64, secret []byte) error {
	if remoteUserID == 0 || len(secret) == 0 {
		return common.ErrNotConnected
	}

	sealed, nonce, err := cryptox.Seal(secret, s.masterKey)
	if err != nil {
		return common.ErrorInternal
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		token := &models.AccessToken{UserID: userID, SealedSecret: sealed, Nonce: nonce}
		if err := s.repomanager.Tokens(tx).Upsert(ctx, token); err != nil {
			return fmt.Errorf("error storing token: %w", err)
		}
		if err := s.repomanager.Links(tx).Upsert(ctx, userID, remoteUserID); err != nil {
			return fmt.Errorf("error storing user link: %w", err)
		}
		return nil
	})
}

// Disconnect drops the token secret of userID. Nonces for the user stop
// verifying immediately; the cached link is kept.
func (s *Service) Disconnect(ctx context.Context, userID int64) error {
	if err := s.repomanager.Tokens(s.db).Delete(ctx, userID); err != nil {
		return fmt.Errorf("error deleting token: %w", err)
	}
	return nil
}
