package store

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id           TEXT PRIMARY KEY,
    title        TEXT NOT NULL,
    filename     TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL DEFAULT '',
    pages        INTEGER NOT NULL DEFAULT 0,
    node_count   INTEGER NOT NULL DEFAULT 0,
    processing   TEXT NOT NULL DEFAULT '{}',
    created_at   TEXT NOT NULL
);

-- A content hash belongs to at most one document; outlines saved without
-- source bytes carry an empty hash.
DROP INDEX IF EXISTS idx_documents_hash;
CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_content_hash
    ON documents(content_hash) WHERE content_hash != '';

-- Nodes are stored flat; the tree is reconstructed from level and order on load.
CREATE TABLE IF NOT EXISTS nodes (
    doc_id       TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    seq          INTEGER NOT NULL,
    node_id      TEXT NOT NULL,
    tier         TEXT NOT NULL,
    identifier   TEXT,
    keyword      TEXT NOT NULL DEFAULT '',
    title        TEXT,
    content      TEXT NOT NULL DEFAULT '',
    level        INTEGER NOT NULL,
    page_start   INTEGER NOT NULL,
    page_end     INTEGER NOT NULL,
    parent_path  TEXT,
    has_children INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (doc_id, seq)
);

CREATE TABLE IF NOT EXISTS warnings (
    doc_id  TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    seq     INTEGER NOT NULL,
    node_id TEXT NOT NULL DEFAULT '',
    rule    TEXT NOT NULL,
    detail  TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (doc_id, seq)
);
`
