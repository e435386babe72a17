// Package storage provides the metadata store for the comic library.
package storage

import "database/sql"

// Book is one row of the Books table. Column names are part of the
// observable contract with the web client and are kept as-is.
type Book struct {
	ID       string         // ID_book
	Name     string         // NOM
	Path     string         // PATH
	CoverURL sql.NullString // URLCover
}
