package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/exchnew/cartel-v1-demo/internal/model"
)

// Store provides Postgres persistence for audit records.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutQuote inserts one quote record.
func (s *Store) PutQuote(ctx context.Context, quote model.Quote) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quotes (
			from_currency, to_currency, rate_type, base_rate, markup_percentage,
			partner_rate, fee_percentage, rate, partner_commission, source, quoted_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		quote.FromCurrency,
		quote.ToCurrency,
		string(quote.FeeTier),
		quote.BaseRate,
		quote.MarkupPercent,
		quote.PartnerRate,
		quote.FeePercent,
		quote.Rate,
		quote.PartnerCommission,
		quote.Source,
		quote.Timestamp,
	)
	return err
}

// PutDepositCheck inserts one deposit check record.
func (s *Store) PutDepositCheck(ctx context.Context, result model.DepositCheckResult) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO deposit_checks (
			currency, detected, tx_hash, amount, confirmations,
			required_confirmations, confirmed, expected_amount, amount_match,
			error_tag, checked_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		result.Currency,
		result.Detected,
		result.TxHash,
		result.Amount,
		result.Confirmations,
		result.RequiredConfirmations,
		result.Confirmed,
		result.ExpectedAmount,
		result.AmountMatch,
		result.Error,
		result.Timestamp,
	)
	return err
}
