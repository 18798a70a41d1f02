package ai

// swapsSchemaDescription is the prompt-side description of the history
// table. Keep in sync with the insert in internal/history/clickhouse.go.
const swapsSchemaDescription = `
Database: swapdesk
Table: swaps

Columns:
  - signature    String    -- Solana transaction signature (unique id)
  - timestamp    DateTime  -- Confirmation time of the swap (UTC)
  - pair         String    -- Trading direction, e.g. "SOL-USDC"
  - token_in     String    -- Symbol of the token sold
  - token_out    String    -- Symbol of the token bought
  - amount_in    Float64   -- Amount of token_in, human units
  - amount_out   Float64   -- Amount of token_out, human units
  - price_impact Float64   -- Quoted price impact percentage at execution
  - route        String    -- Venues the aggregator routed through, ">"-joined

Notes:
  - For volume use SUM(amount_in) or SUM(amount_out) depending on the unit.
  - The effective rate of one swap is amount_out / amount_in.
  - Time filters should use timestamp, e.g. timestamp >= now() - INTERVAL 24 HOUR.
`
