package engine

import (
	"bytes"
	"fmt"

	"go.uber.org/zap"

	"recon/pkg/parser"
)

// Pipeline runs ingestion and reconciliation over raw file contents.
type Pipeline struct {
	roster     *RosterIngestor
	directory  *DirectoryIngestor
	reconciler *Reconciler
	logger     *zap.Logger
}

// NewPipeline wires the ingestors and the reconciler to one logger.
func NewPipeline(policy ConflictPolicy, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		roster:     NewRosterIngestor(logger),
		directory:  NewDirectoryIngestor(logger),
		reconciler: NewReconciler(policy, logger),
		logger:     logger,
	}
}

// Run parses the roster (workbook or delimited text), the directory export,
// and reconciles them.
func (p *Pipeline) Run(rosterData, directoryData []byte) (*Result, error) {
	parsed, err := parser.ReadTable(rosterData)
	if err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	for _, w := range parsed.Warnings {
		p.logger.Warn("roster row", zap.Int("row", w.Row), zap.String("warning", w.Message))
	}

	records, err := p.roster.Ingest(parsed.Table)
	if err != nil {
		return nil, err
	}

	accounts, err := p.directory.Ingest(bytes.NewReader(directoryData))
	if err != nil {
		return nil, err
	}

	return p.reconciler.Reconcile(records, accounts), nil
}
