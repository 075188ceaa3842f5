// internal/domain/webhookevent/ddl.go
package webhookevent

// EventsTableDDL defines the SQL for the webhook_events table.
// The primary key is the provider event id: a redelivered event hits
// unique_violation, which the store treats as success. Rows are never
// deleted; the table doubles as the audit trail.
const EventsTableDDL = `
CREATE TABLE IF NOT EXISTS webhook_events (
  id                TEXT PRIMARY KEY,
  type              TEXT        NOT NULL,
  payment_intent_id TEXT        NOT NULL DEFAULT '',
  payload           JSONB       NOT NULL DEFAULT '{}'::jsonb,
  provider_created  TIMESTAMPTZ NOT NULL,
  processed         BOOLEAN     NOT NULL DEFAULT FALSE,
  processing_error  TEXT,
  created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  processed_at      TIMESTAMPTZ,

  CONSTRAINT ck_webhook_events_id_nonempty   CHECK (id <> ''),
  CONSTRAINT ck_webhook_events_type_nonempty CHECK (type <> ''),

  -- a processed row always carries its timestamp; failed rows keep the
  -- attempt timestamp too
  CONSTRAINT ck_webhook_events_processed_at
    CHECK (NOT processed OR processed_at IS NOT NULL)
);

-- status derivation reads all events of one intent in provider order
CREATE INDEX IF NOT EXISTS idx_webhook_events_intent
  ON webhook_events(payment_intent_id, provider_created, id);

-- health aggregates scan a trailing created_at window
CREATE INDEX IF NOT EXISTS idx_webhook_events_created_at
  ON webhook_events(created_at);
`
