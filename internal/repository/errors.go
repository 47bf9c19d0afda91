// Package repository provides GORM-backed access to the content store.
package repository

import (
	"errors"
	"strings"
)

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	ErrEmptyQuery    = errors.New("search query is empty")
	ErrEmptyKeyword  = errors.New("keyword is empty")
	ErrUnknownKind   = errors.New("unknown content kind")
)

// likeEscaper makes LIKE metacharacters in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsClause matches column against a pattern built by containsPattern.
// Case sensitivity follows the store's LIKE semantics.
func containsClause(column string) string {
	return column + ` LIKE ? ESCAPE '\'`
}

// containsPattern wraps q, taken as is, for a substring LIKE match.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
