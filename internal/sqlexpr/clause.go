package sqlexpr

// ClauseKind names one fragment of a statement.
type ClauseKind int

const (
	ClauseSelectPrefix ClauseKind = iota
	ClauseColumnList
	ClauseFrom
	ClauseJoin
	ClauseWhere
	ClauseOrderBy
	ClauseSelectSuffix
	ClauseInto
	ClauseValues
	ClauseKeys
	ClauseTable
)

var clauseNames = [...]string{
	ClauseSelectPrefix: "SELECT_PREFIX",
	ClauseColumnList:   "SELECT_COLUMN_LIST",
	ClauseFrom:         "FROM",
	ClauseJoin:         "JOIN",
	ClauseWhere:        "WHERE",
	ClauseOrderBy:      "ORDERBY",
	ClauseSelectSuffix: "SELECT_SUFFIX",
	ClauseInto:         "INTO",
	ClauseValues:       "VALUES",
	ClauseKeys:         "KEYS",
	ClauseTable:        "TABLE",
}

func (k ClauseKind) String() string {
	if k < 0 || int(k) >= len(clauseNames) {
		return "UNKNOWN"
	}
	return clauseNames[k]
}

// Expression is one fragment attached to a Query. Evaluate renders the
// requested clause against the shared query state and may register aliases
// or joins as a side effect.
type Expression interface {
	Evaluate(q *Query, kind ClauseKind) (string, error)
	IsEmpty() bool
}

func unsupportedClause(expr string, kind ClauseKind) error {
	return newError(ErrCodeInternal, "", "", "%s cannot render clause %s", expr, kind)
}
