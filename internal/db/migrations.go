package db

import (
	"fmt"

	"gorm.io/gorm"
)

// Billing owns only the charges table. Contracts, plans, branches and
// odometer readings belong to the surrounding CRUD modules and are
// referenced, never created here.
var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'charge_status') THEN
			CREATE TYPE charge_status AS ENUM ('PENDING', 'OVERDUE', 'PAID', 'CANCELLED');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS charges (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id),
		reference_month DATE NOT NULL,
		due_date DATE NOT NULL,
		amount NUMERIC(12,2) NOT NULL CHECK (amount >= 0),
		status charge_status NOT NULL DEFAULT 'PENDING',
		paid_at DATE,
		payment_method VARCHAR(32),
		days_late INTEGER NOT NULL DEFAULT 0,
		penalty_amount NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (penalty_amount >= 0),
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	// The generator's idempotency rests entirely on this index.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_charges_contract_ref_month ON charges (contract_id, reference_month);`,
	`CREATE INDEX IF NOT EXISTS idx_charges_contract_id ON charges (contract_id);`,
	`CREATE INDEX IF NOT EXISTS idx_charges_status ON charges (status);`,
	`CREATE INDEX IF NOT EXISTS idx_charges_due_date ON charges (due_date) WHERE status IN ('PENDING', 'OVERDUE');`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
