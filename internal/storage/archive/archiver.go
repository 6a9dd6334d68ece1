package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/newthinker/sentinel/internal/core"
	"go.uber.org/zap"
)

// Archiver exports closed signals as JSON documents, one per asset per day.
type Archiver struct {
	storage Storage
	logger  *zap.Logger
}

// NewArchiver wraps a storage backend.
func NewArchiver(storage Storage, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{storage: storage, logger: logger}
}

// Path is signals/YYYY/MM/DD/<symbol>.json for the UTC day the signal closed,
// or the day it was created when it never closed.
func Path(sig core.Signal) string {
	day := sig.CreatedAt
	if sig.ClosedAt != nil {
		day = *sig.ClosedAt
	}
	day = day.UTC()
	return fmt.Sprintf("signals/%04d/%02d/%02d/%s.json",
		day.Year(), int(day.Month()), day.Day(), strings.ToUpper(sig.Symbol))
}

// Archive merges signals into their daily documents, replacing entries that
// share an ID. It returns the number of signals written.
func (a *Archiver) Archive(ctx context.Context, signals []core.Signal) (int, error) {
	groups := make(map[string][]core.Signal)
	for _, sig := range signals {
		p := Path(sig)
		groups[p] = append(groups[p], sig)
	}

	paths := make([]string, 0, len(groups))
	for p := range groups {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	written := 0
	for _, p := range paths {
		existing, err := a.Load(ctx, p)
		if err != nil {
			return written, err
		}
		merged := merge(existing, groups[p])

		data, err := json.MarshalIndent(merged, "", "  ")
		if err != nil {
			return written, fmt.Errorf("encode %s: %w", p, err)
		}
		if err := a.storage.Write(ctx, p, data); err != nil {
			return written, fmt.Errorf("write %s: %w", p, err)
		}
		written += len(groups[p])
		a.logger.Debug("archived signals", zap.String("path", p), zap.Int("count", len(groups[p])))
	}
	return written, nil
}

// Load reads one daily document. A missing document is empty.
func (a *Archiver) Load(ctx context.Context, path string) ([]core.Signal, error) {
	data, err := a.storage.Read(ctx, path)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var out []core.Signal
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

// LoadDay reads every archived signal for a UTC day.
func (a *Archiver) LoadDay(ctx context.Context, day time.Time) ([]core.Signal, error) {
	day = day.UTC()
	prefix := fmt.Sprintf("signals/%04d/%02d/%02d", day.Year(), int(day.Month()), day.Day())
	paths, err := a.storage.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var out []core.Signal
	for _, p := range paths {
		sigs, err := a.Load(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, sigs...)
	}
	return out, nil
}

func merge(existing, incoming []core.Signal) []core.Signal {
	byID := make(map[int64]core.Signal, len(existing)+len(incoming))
	for _, s := range existing {
		byID[s.ID] = s
	}
	for _, s := range incoming {
		byID[s.ID] = s
	}
	out := make([]core.Signal, 0, len(byID))
	for _, s := range byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
