package dbutil

import (
	"regexp"
	"strings"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
)

var limitRegex = regexp.MustCompile(`(?i)LIMIT\s+\?\s*,\s*\?`)

// Finalize turns a gendry-built MySQL style query into one lib/pq accepts:
// "LIMIT ?,?" becomes "LIMIT ? OFFSET ?" and placeholders become $n.
func Finalize(query string, args []interface{}) (string, []interface{}) {
	loc := limitRegex.FindStringIndex(query)
	if loc != nil {
		prefix := query[:loc[0]]
		qCount := strings.Count(prefix, "?")
		if qCount+1 < len(args) {
			args[qCount], args[qCount+1] = args[qCount+1], args[qCount]
			query = limitRegex.ReplaceAllString(query, "LIMIT ? OFFSET ?")
		}
	}
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}

func BuildSelect(table string, where map[string]interface{}, fields []string) (string, []interface{}, error) {
	query, args, err := builder.BuildSelect(table, where, fields)
	if err != nil {
		return "", nil, err
	}
	query, args = Finalize(query, args)
	return query, args, nil
}

func BuildDelete(table string, where map[string]interface{}) (string, []interface{}, error) {
	query, args, err := builder.BuildDelete(table, where)
	if err != nil {
		return "", nil, err
	}
	query, args = Finalize(query, args)
	return query, args, nil
}
