package storage

import "airbnb-cleaner/models"

// TableWriter is the interface any export sink must satisfy.
type TableWriter interface {
	WriteTable(t *models.Table) error
	Close() error
}
