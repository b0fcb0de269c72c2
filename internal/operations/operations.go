// Package operations orchestrates the backup lifecycle: it estimates the
// source tree, drives the compressor, hashes the result and catalogs it.
package operations

import (
	"errors"

	"github.com/kebairia/cofre/internal/catalog"
	"github.com/kebairia/cofre/internal/config"
	"github.com/kebairia/cofre/internal/exclusion"
	"github.com/kebairia/cofre/internal/fsutil"
	"github.com/kebairia/cofre/internal/logger"
	"github.com/kebairia/cofre/internal/restore"
	"github.com/kebairia/cofre/internal/retention"
)

var (
	// ErrSourceNotFound indicates the backup source path does not exist.
	ErrSourceNotFound = errors.New("source directory not found")
	// ErrNotADirectory indicates the backup source is not a directory.
	ErrNotADirectory = errors.New("source is not a directory")
)

// Operator wires the catalog, the exclusion filter and the managers built
// on top of them from one configuration.
type Operator struct {
	cfg     config.Config
	catalog *catalog.Catalog
	filter  *exclusion.Filter
	log     logger.Logger
}

// NewOperator validates the configuration, prepares the archive directory
// and opens the catalog.
func NewOperator(cfg config.Config) (*Operator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := fsutil.EnsureDir(cfg.Paths.ArchiveDir); err != nil {
		return nil, err
	}

	return &Operator{
		cfg:     cfg,
		catalog: catalog.New(cfg.CatalogPath()),
		filter:  exclusion.NewFilter(cfg.Exclusion.AllPatterns()),
		log:     logger.Global(),
	}, nil
}

// Catalog exposes the operator's catalog.
func (o *Operator) Catalog() *catalog.Catalog {
	return o.catalog
}

// Filter exposes the operator's exclusion filter.
func (o *Operator) Filter() *exclusion.Filter {
	return o.filter
}

// Retention builds a retention manager over the operator's catalog and
// archive directory.
func (o *Operator) Retention() *retention.Manager {
	return retention.NewManager(o.catalog, o.cfg.Paths.ArchiveDir)
}

// Restore builds a restore manager over the operator's catalog and
// archive directory.
func (o *Operator) Restore() *restore.Manager {
	return restore.NewManager(o.catalog, o.cfg.Paths.ArchiveDir)
}
