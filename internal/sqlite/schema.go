package sqlite

// createEntities holds one knowledge-graph document per identifier. The
// bucket column is "org/project" or empty when the snapshot did not record
// where the document came from.
const createEntities = `CREATE TABLE entities (
    id TEXT PRIMARY KEY,
    bucket TEXT NOT NULL DEFAULT '',
    payload TEXT NOT NULL
);
CREATE INDEX entities_bucket ON entities (bucket);`
