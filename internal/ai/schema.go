package ai

// checkoutsSchemaDescription describes the ClickHouse schema used for NL→SQL prompting.
//
// Keep it in sync with the actual ClickHouse table definition in init.sql.
const checkoutsSchemaDescription = `
Database: recycler
Table: checkouts

Columns:
  - owner       String    -- Wallet address that ran the checkout
  - mint        String    -- Mint address of the recycled token
  - success     UInt8     -- 1 if the swap transaction landed, 0 otherwise
  - signature   String    -- Transaction signature (empty when submission failed)
  - error       String    -- Failure reason (empty on success)
  - started_at  DateTime  -- Checkout start time (UTC)
  - finished_at DateTime  -- Checkout end time (UTC)

Notes:
  - One row per recycled token attempt; a checkout spans all rows sharing owner + started_at.
  - Success rate is avg(success) or countIf(success = 1) / count().
  - Time filters should use started_at, e.g. started_at >= now() - INTERVAL 24 HOUR.
`
