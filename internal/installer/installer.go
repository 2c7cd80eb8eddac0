// Package installer drives the installation of a wheel: it classifies every
// archive member, hands each one to a Handler that performs the actual
// write, verifies content against RECORD, and finally writes a regenerated
// RECORD describing the installed state.
//
// The installer never rolls back. When Install fails part-way, files the
// Handler already wrote stay in place; callers that need rollback use the
// journal kept by FileHandler.
//
// Installing the same wheel twice concurrently into one environment is not
// safe; callers serialize per environment (see journal.AcquireLock).
package installer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/logging"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/record"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/scheme"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheel"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheelerr"
)

// ErrUnsupportedWheelVersion indicates a WHEEL file declaring a major
// format version this installer does not understand.
var ErrUnsupportedWheelVersion = errors.New("unsupported wheel version")

// Handler performs the filesystem write for one decision. It returns any
// entries that replace the archive's RECORD rows, for example when the
// content was transformed on the way to disk. A Handler that detects a
// digest mismatch returns an error wrapping wheelerr.ErrIntegrityViolation.
type Handler interface {
	Handle(d scheme.Decision, r io.Reader) ([]record.Entry, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(d scheme.Decision, r io.Reader) ([]record.Entry, error)

// Handle calls f(d, r).
func (f HandlerFunc) Handle(d scheme.Decision, r io.Reader) ([]record.Entry, error) {
	return f(d, r)
}

// Result describes a completed installation.
type Result struct {
	// Decisions holds one decision per archive member, in listing order.
	Decisions []scheme.Decision
	// Record is the manifest written as the final RECORD.
	Record *record.Set
}

// Option configures an Installer.
type Option func(*Installer)

// WithHashCheck controls whether member content is checked against RECORD
// before it reaches the handler. Enabled by default.
func WithHashCheck(enabled bool) Option {
	return func(i *Installer) { i.checkHashes = enabled }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(i *Installer) { i.logger = logging.OrNoop(l) }
}

// Installer installs wheels through a Handler.
type Installer struct {
	checkHashes bool
	logger      logging.Logger
}

// New creates an Installer.
func New(opts ...Option) *Installer {
	i := &Installer{
		checkHashes: true,
		logger:      logging.Noop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install writes every member of w through h, in archive listing order,
// followed by exactly one synthetic RECORD write. The first failure stops
// the installation; no synthetic RECORD is written in that case.
func (i *Installer) Install(w *wheel.Wheel, h Handler) (*Result, error) {
	if err := checkWheelVersion(w); err != nil {
		return nil, err
	}

	purelib, err := w.RootIsPurelib()
	if err != nil {
		return nil, fmt.Errorf("read purity flag: %w", err)
	}
	manifest, err := w.Manifest()
	if err != nil {
		return nil, err
	}

	resolver := scheme.NewResolver(w.DataName(), scheme.Root(purelib), manifest)
	decisions, err := resolver.DecideAll(w.Files())
	if err != nil {
		return nil, err
	}

	i.logger.Info("installing wheel",
		"name", w.Name(),
		"version", w.Version(),
		"files", len(decisions),
		"root", scheme.Root(purelib).String())

	installed := manifest.Clone()
	for _, d := range decisions {
		entries, err := i.apply(w, h, d)
		if err != nil {
			i.logger.Error("install failed", "path", d.Source, "error", err)
			return nil, err
		}
		for _, e := range entries {
			installed.Add(e)
		}
	}

	recordPath := w.DistInfoName() + "/RECORD"
	installed.Add(record.NewEntry(recordPath))
	final := scheme.Decision{
		Source: recordPath,
		Path:   recordPath,
		Scheme: scheme.PureLib,
	}
	if _, err := h.Handle(final, strings.NewReader(installed.Content())); err != nil {
		return nil, fmt.Errorf("write %s: %w", recordPath, err)
	}

	i.logger.Debug("wrote RECORD", "path", recordPath, "entries", installed.Len())

	return &Result{Decisions: decisions, Record: installed}, nil
}

func (i *Installer) apply(w *wheel.Wheel, h Handler, d scheme.Decision) ([]record.Entry, error) {
	data, err := w.Read(d.Source)
	if err != nil {
		return nil, err
	}

	if i.checkHashes && d.Entry != nil && !d.Entry.Check(data) {
		return nil, &wheelerr.IntegrityError{Path: d.Source}
	}

	i.logger.Debug("writing file", "path", d.Source, "scheme", d.Scheme.String(), "destination", d.Path)

	entries, err := h.Handle(d, bytes.NewReader(data))
	if err != nil {
		var integrity *wheelerr.IntegrityError
		if errors.Is(err, wheelerr.ErrIntegrityViolation) && !errors.As(err, &integrity) {
			return nil, &wheelerr.IntegrityError{Path: d.Source}
		}
		return nil, fmt.Errorf("write %s: %w", d.Source, err)
	}
	return entries, nil
}

func checkWheelVersion(w *wheel.Wheel) error {
	if !w.Has(w.DistInfoName() + "/WHEEL") {
		return nil
	}
	major, minor, err := w.WheelVersion()
	if err != nil {
		return err
	}
	if major > 1 {
		return fmt.Errorf("%w: %d.%d", ErrUnsupportedWheelVersion, major, minor)
	}
	return nil
}
