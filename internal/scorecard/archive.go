package scorecard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/scorecard/internal/catalog"
	"github.com/verte-zerg/scorecard/internal/model"
	"github.com/verte-zerg/scorecard/pkg/logger"
)

// ExportVersion is written into every export document.
const ExportVersion = "1.0"

// Export snapshots the completed history.
func (c *Controller) Export() model.ExportDocument {
	return model.ExportDocument{
		Sessions:   c.Sessions(),
		ExportDate: c.now(),
		Version:    ExportVersion,
	}
}

// WriteExport encodes the export document as indented JSON.
func (c *Controller) WriteExport(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c.Export()); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

type importDocument struct {
	Sessions   json.RawMessage `json:"sessions"`
	ExportDate *time.Time      `json:"exportDate"`
	Version    string          `json:"version"`
}

// Import appends the sessions of an export document to the history and returns how many were added.
// Entries already present are appended again. A document without a sessions array is rejected.
func (c *Controller) Import(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read import: %w", err)
	}
	var doc importDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, c.reject(invalid("document", CodeInvalidDocument, ErrInvalidDocument, "not a scorecard export: %v", err))
	}
	raw := bytes.TrimSpace(doc.Sessions)
	if len(raw) == 0 || raw[0] != '[' {
		return 0, c.reject(invalid("sessions", CodeInvalidDocument, ErrInvalidDocument, "document has no sessions array"))
	}
	var sessions []model.Session
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return 0, c.reject(invalid("sessions", CodeInvalidDocument, ErrInvalidDocument, "malformed session: %v", err))
	}
	for i := range sessions {
		sessions[i].RoundType = withTargetFace(sessions[i].RoundType)
		if err := catalog.ValidateRoundType(sessions[i].RoundType); err != nil {
			return 0, c.reject(invalid("sessions", CodeInvalidDocument, ErrInvalidDocument, "session %q: %v", sessions[i].ID, err))
		}
	}
	if err := c.syncHistory(ctx); err != nil {
		c.storageFailed(ctx, "load", err)
		return 0, err
	}

	c.sessions = append(c.sessions, sessions...)
	c.lastErr = nil
	c.log.Info(ctx, "history imported",
		logger.Int("imported", len(sessions)),
		logger.Int("total", len(c.sessions)),
		logger.String("version", doc.Version))
	if err := c.saveHistory(ctx); err != nil {
		return len(sessions), err
	}
	return len(sessions), nil
}

// withTargetFace fills in the rings of a round whose export left them out,
// first by face size and then by the catalog round with the same id.
func withTargetFace(rt model.RoundType) model.RoundType {
	if len(rt.TargetFace.Rings) > 0 {
		return rt
	}
	if face, ok := catalog.TargetFace(rt.TargetFace.Size); ok {
		rt.TargetFace = face
		return rt
	}
	if known, ok := catalog.Round(rt.ID); ok {
		rt.TargetFace = known.TargetFace
	}
	return rt
}

// ClearAll wipes stored data and in-memory state. It refuses to run unless confirmed.
func (c *Controller) ClearAll(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return c.reject(invalid("", CodeNotConfirmed, ErrNotConfirmed, "clearing all data needs confirmation"))
	}
	c.sessions = nil
	c.current = nil
	c.configured = nil
	c.buffer = nil
	c.lastErr = nil
	c.log.Warn(ctx, "all data cleared")
	if err := c.storage.Clear(ctx); err != nil {
		c.historyLoaded = false
		c.storageFailed(ctx, "clear", err)
		return err
	}
	c.historyLoaded = true
	return nil
}
