package evalcache

// schema is the evaluation cache's one table, grounded on the "stable
// byte string" session-fingerprint model spec.md §4.7 describes: every
// forced attribute of every cached derivation-like attrset is a row keyed
// by (parent fingerprint, attribute name), so two sessions that evaluate
// the same expression under the same configuration can share rows without
// colliding with unrelated sessions.
const schema = `
CREATE TABLE IF NOT EXISTS Attributes (
	parent  TEXT    NOT NULL,
	name    TEXT    NOT NULL,
	type    INTEGER NOT NULL,
	value   TEXT    NOT NULL,
	context TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (parent, name)
);
`

// attrType enumerates the Attributes.type column, narrow enough to
// reconstruct a *value.Value on read without storing Go type information.
type attrType int

const (
	typeUnset attrType = iota // placeholder row: "forced and found absent"
	typeString
	typeBool
	typeInt
	typeFloat
	typeNull
	typeList    // value is a JSON array of strings (list of strings only)
	typeAttrs   // value is the sorted attribute names joined by "," (shallow only)
	typeFailed  // forcing this attribute raised an evaluator error
)
