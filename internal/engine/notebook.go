package engine

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/notelog/internal/document"
	"github.com/roach88/notelog/internal/ir"
	"github.com/roach88/notelog/internal/machine"
	"github.com/roach88/notelog/internal/metrics"
)

// LoadReport describes how Open turned bytes into a notebook.
type LoadReport struct {
	// Recovered is true when the bytes did not decode and the notebook was
	// replaced by the empty default. Err holds the decode error.
	Recovered bool
	Err       error

	// Replay summarizes the rebuild of a successfully decoded log.
	Replay ReplayReport
}

// Notebook is one open document: live annotations, the active tool,
// metadata and the append-only transition log.
//
// Thread-safety: every method takes the notebook mutex, so a Notebook is
// safe for concurrent use. Transitions reach the log in the order the
// manager accepted them.
type Notebook struct {
	mu      sync.Mutex
	manager *Manager
	tool    *machine.Tool
	meta    ir.Metadata
	log     []ir.Transition

	clock   machine.Clock
	logger  *slog.Logger
	metrics *metrics.Collector
}

// New creates an empty notebook with the idle tool.
func New(opts ...Option) *Notebook {
	return newNotebook(newSettings(opts), ir.EmptyNotebook())
}

// NewWithTool creates an empty notebook with tool active.
func NewWithTool(tool ir.Tool, opts ...Option) *Notebook {
	f := ir.EmptyNotebook()
	f.InitialTool = tool
	return newNotebook(newSettings(opts), f)
}

func newNotebook(s settings, f ir.NotebookFile) *Notebook {
	return &Notebook{
		manager: newManager(s),
		tool:    machine.NewTool(f.InitialTool, machine.WithLogger(s.logger)),
		meta:    f.Metadata,
		log:     slices.Clone(f.Transitions),
		clock:   s.clock,
		logger:  s.logger,
		metrics: s.metrics,
	}
}

// Open decodes data and rebuilds its annotations.
//
// Decoding is all-or-nothing: when data does not decode, Open returns the
// empty default notebook with report.Recovered set, and nothing from data
// is applied. A decoded log is replayed; records the machines reject are
// skipped and listed in report.Replay.
func Open(ctx context.Context, data []byte, opts ...Option) (*Notebook, LoadReport) {
	s := newSettings(opts)
	f, err := document.Load(data)
	if err != nil {
		s.logger.Warn("notebook did not decode, opening empty default", "error", err)
		s.metrics.LoadRecovered()
		return newNotebook(s, ir.EmptyNotebook()), LoadReport{Recovered: true, Err: err}
	}

	nb := newNotebook(s, f)
	report := LoadReport{Replay: nb.manager.Replay(ctx, nb.log)}
	return nb, report
}

// OpenFile reads path and opens it. A missing file yields a new empty
// notebook; other read errors are returned.
func OpenFile(ctx context.Context, path string, opts ...Option) (*Notebook, LoadReport, error) {
	data, err := document.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(opts...), LoadReport{}, nil
	}
	if err != nil {
		return nil, LoadReport{}, err
	}
	nb, report := Open(ctx, data, opts...)
	return nb, report, nil
}

// CreateAnnotation creates an annotation and returns its identity.
func (n *Notebook) CreateAnnotation(ctx context.Context, payload ir.CreatePayload) (uuid.UUID, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id, tr, err := n.manager.CreateAnnotation(ctx, payload)
	if err != nil {
		return uuid.Nil, err
	}
	n.log = append(n.log, tr)
	return id, nil
}

// Dispatch applies ev to the annotation it addresses.
func (n *Notebook) Dispatch(ctx context.Context, ev ir.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	trs, err := n.manager.Dispatch(ctx, ev)
	n.log = append(n.log, trs...)
	return err
}

// Select makes id the only selected annotation.
func (n *Notebook) Select(ctx context.Context, id uuid.UUID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	trs, err := n.manager.Select(ctx, id)
	n.log = append(n.log, trs...)
	return err
}

// Delete deletes id. The annotation is gone afterwards even if its machine
// rejected the event.
func (n *Notebook) Delete(ctx context.Context, id uuid.UUID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	trs, err := n.manager.Delete(ctx, id)
	n.log = append(n.log, trs...)
	return err
}

// EraseAt runs the eraser at p.
func (n *Notebook) EraseAt(ctx context.Context, p ir.Point, radius float64) (EraseResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	res, err := n.manager.EraseAt(ctx, p, radius)
	n.log = append(n.log, res.Transitions...)
	return res, err
}

// EraseAlong runs the eraser along the segment a-b.
func (n *Notebook) EraseAlong(ctx context.Context, a, b ir.Point, radius float64) (EraseResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	res, err := n.manager.EraseAlong(ctx, a, b, radius)
	n.log = append(n.log, res.Transitions...)
	return res, err
}

// SelectTool activates tool and returns the previous one.
func (n *Notebook) SelectTool(tool ir.Tool) (ir.Tool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tool.Select(tool)
}

// Tool returns the active tool.
func (n *Notebook) Tool() ir.Tool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tool.Current()
}

// CurrentState returns the state of id, idle if the notebook has no such annotation.
func (n *Notebook) CurrentState(id uuid.UUID) ir.State {
	return n.manager.CurrentState(id)
}

// Annotation returns the render data of id.
func (n *Notebook) Annotation(id uuid.UUID) (RenderData, bool) {
	return n.manager.Annotation(id)
}

// Annotations returns every live annotation in creation order.
func (n *Notebook) Annotations() []RenderData {
	return n.manager.Annotations()
}

// Selected returns the identities currently selected (zero or one).
func (n *Notebook) Selected() []uuid.UUID {
	return n.manager.Selected()
}

// Transitions returns a copy of the log.
func (n *Notebook) Transitions() []ir.Transition {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.log)
}

// Metadata returns the notebook metadata.
func (n *Notebook) Metadata() ir.Metadata {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.meta
}

// SetTitle sets the title, NFC normalized.
func (n *Notebook) SetTitle(title string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.meta.Title = ir.NormalizeText(title)
}

// Snapshot returns the document as it would be saved now, without stamping
// timestamps.
func (n *Notebook) Snapshot() ir.NotebookFile {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snapshotLocked(n.meta)
}

func (n *Notebook) snapshotLocked(meta ir.Metadata) ir.NotebookFile {
	return ir.NotebookFile{
		Metadata:    meta,
		Transitions: slices.Clone(n.log),
		InitialTool: n.tool.Current(),
	}
}

// Save encodes the notebook.
//
// createdAt is stamped on the first save, updatedAt on every save. The
// stamps are kept only when encoding succeeds.
func (n *Notebook) Save() ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	data, meta, err := n.encodeLocked()
	if err != nil {
		return nil, err
	}
	n.meta = meta
	return data, nil
}

// SaveFile encodes the notebook and atomically replaces path. On any
// failure the file on disk is left as it was.
func (n *Notebook) SaveFile(path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	data, meta, err := n.encodeLocked()
	if err != nil {
		return err
	}
	if err := document.WriteFileAtomic(path, data); err != nil {
		return err
	}
	n.meta = meta
	n.logger.Info("notebook saved", "path", path, "transitions", len(n.log), "bytes", len(data))
	return nil
}

func (n *Notebook) encodeLocked() ([]byte, ir.Metadata, error) {
	meta := n.meta
	now := epochSeconds(n.clock)
	if meta.CreatedAt == 0 {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now
	data, err := document.Encode(n.snapshotLocked(meta))
	if err != nil {
		return nil, ir.Metadata{}, err
	}
	return data, meta, nil
}

func epochSeconds(c machine.Clock) uint64 {
	s := c.Now().Unix()
	if s < 0 {
		return 0
	}
	return uint64(s)
}
