// Package store holds the persistence contracts the auth core depends on
// and their GORM/Postgres implementations. Services talk to the interfaces
// only; everything GORM-specific stays behind them.
package store

import "errors"

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)
