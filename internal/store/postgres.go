package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PostgresStore struct {
	db *bun.DB
}

// NewPostgresStore opens the database and creates the tables if needed.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &PostgresStore{db: db}
	if err := s.CreateTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (p *PostgresStore) CreateTables(ctx context.Context) error {
	if _, err := p.db.NewCreateTable().Model((*LinkageRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create signed_linkage: %w", err)
	}
	if _, err := p.db.NewCreateTable().Model((*RegistrationRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create wallet_registration: %w", err)
	}

	_, err := p.db.NewCreateIndex().
		Model((*RegistrationRecord)(nil)).
		Index("index_wallet_registration_user_type").
		Unique().
		IfNotExists().
		Column("user_id", "wallet_type").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create wallet_registration index: %w", err)
	}
	return nil
}

func (p *PostgresStore) SaveLinkage(ctx context.Context, rec *LinkageRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	rec.SubstratePubkey = strings.ToLower(rec.SubstratePubkey)

	_, err := p.db.NewInsert().
		Model(rec).
		On("CONFLICT (substrate_pubkey) DO UPDATE").
		Set("user_id = EXCLUDED.user_id").
		Set("user_tag = EXCLUDED.user_tag").
		Set("substrate_address = EXCLUDED.substrate_address").
		Set("evm_address = EXCLUDED.evm_address").
		Set("scheme = EXCLUDED.scheme").
		Set("roles = EXCLUDED.roles").
		Set("avatar_url = EXCLUDED.avatar_url").
		Set("created_at = EXCLUDED.created_at").
		Exec(ctx)
	if err != nil {
		log.Error().Err(err).Str("substrate_pubkey", rec.SubstratePubkey).Msg("insert linkage failed")
		return fmt.Errorf("insert linkage: %w", err)
	}
	return nil
}

func (p *PostgresStore) FindLinkage(ctx context.Context, substratePubkey string) (*LinkageRecord, error) {
	var rec LinkageRecord
	err := p.db.NewSelect().
		Model(&rec).
		Where("substrate_pubkey = ?", strings.ToLower(substratePubkey)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select linkage: %w", err)
	}
	return &rec, nil
}

func (p *PostgresStore) SaveRegistration(ctx context.Context, rec *RegistrationRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)

	_, err := p.db.NewInsert().
		Model(rec).
		On("CONFLICT (user_id, wallet_type) DO UPDATE").
		Set("user_tag = EXCLUDED.user_tag").
		Set("address = EXCLUDED.address").
		Set("roles = EXCLUDED.roles").
		Set("avatar_url = EXCLUDED.avatar_url").
		Set("created_at = EXCLUDED.created_at").
		Exec(ctx)
	if err != nil {
		log.Error().Err(err).Str("user_id", rec.UserID).Msg("insert registration failed")
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}
