package store

const schema = `
CREATE TABLE IF NOT EXISTS products (
    id       TEXT PRIMARY KEY,
    name     TEXT NOT NULL,
    brand    TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand);

CREATE TABLE IF NOT EXISTS mentions (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    product_id    TEXT NOT NULL REFERENCES products(id),
    source        TEXT NOT NULL,
    kind          TEXT NOT NULL,
    external_id   TEXT NOT NULL,
    weight        REAL NOT NULL DEFAULT 1.0,
    text          TEXT NOT NULL,
    url           TEXT NOT NULL DEFAULT '',
    severity_hint TEXT NOT NULL DEFAULT '',
    repair_score  INTEGER NOT NULL DEFAULT 0,
    posted_at     DATETIME NOT NULL,
    collected_at  DATETIME NOT NULL,
    UNIQUE(source, external_id)
);

CREATE INDEX IF NOT EXISTS idx_mentions_product ON mentions(product_id);
CREATE INDEX IF NOT EXISTS idx_mentions_source ON mentions(source);
CREATE INDEX IF NOT EXISTS idx_mentions_posted_at ON mentions(posted_at);

CREATE TABLE IF NOT EXISTS score_history (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    product_id  TEXT NOT NULL REFERENCES products(id),
    score       INTEGER NOT NULL,
    grade       TEXT NOT NULL,
    confidence  TEXT NOT NULL,
    data_points INTEGER NOT NULL,
    checked_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_product ON score_history(product_id);
CREATE INDEX IF NOT EXISTS idx_history_checked ON score_history(checked_at);
`
