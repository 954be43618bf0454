package gridiron

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyResult means the producer returned no artifact (or an empty one).
	ErrEmptyResult = errors.New("gridiron: producer returned no artifact")
	// ErrEmptyArtifact is returned by ArtifactCache.Store for zero-length data.
	ErrEmptyArtifact = errors.New("gridiron: empty artifact")
)

// Stage names the step of a cell pipeline that failed.
type Stage string

const (
	StageFingerprint Stage = "fingerprint"
	StageLookup      Stage = "lookup"
	StageGenerate    Stage = "generate"
	StageStore       Stage = "store"
)

// CellError is the terminal error of a failed cell.
type CellError struct {
	Cell  CellRef
	Stage Stage
	Err   error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("gridiron: cell [row=%q col=%q] %s: %s",
		e.Cell.RowLabel, e.Cell.ColLabel, e.Stage, Summarize(e.Err))
}

func (e *CellError) Unwrap() error { return e.Err }

// BackendErrorKind classifies producer failures.
type BackendErrorKind string

const (
	// KindRejected: the backend refused the request (invalid workflow, bad params).
	KindRejected BackendErrorKind = "rejected"
	// KindInternal: the backend accepted the request but failed running it.
	KindInternal BackendErrorKind = "internal"
	// KindMalformed: the backend answered with something unusable (e.g. no images).
	KindMalformed BackendErrorKind = "malformed"
)

// NodeError is structured detail a backend attaches to a failure, usually
// one entry per failing node of the workflow graph.
type NodeError struct {
	Node    string `json:"node,omitempty"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (n NodeError) String() string {
	var b strings.Builder
	if n.Node != "" {
		b.WriteString("node ")
		b.WriteString(n.Node)
		if n.Type != "" {
			b.WriteString(" (" + n.Type + ")")
		}
		b.WriteString(": ")
	}
	b.WriteString(n.Message)
	if n.Details != "" {
		b.WriteString(" [" + n.Details + "]")
	}
	return b.String()
}

// BackendError is what a Producer returns when the backend reports a
// failure it can describe. Producers may return any error; this one lets
// diagnostics carry per-node detail without parsing message text.
type BackendError struct {
	Kind    BackendErrorKind
	Message string
	Nodes   []NodeError
	Err     error // transport or root cause, optional
}

func (e *BackendError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = "backend failure"
	}
	return fmt.Sprintf("backend %s: %s", e.Kind, msg)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Summarize renders err as a one-line human readable diagnostic, expanding
// BackendError node details.
func Summarize(err error) string {
	if err == nil {
		return ""
	}
	var be *BackendError
	if !errors.As(err, &be) || len(be.Nodes) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(be.Nodes))
	for _, n := range be.Nodes {
		parts = append(parts, n.String())
	}
	return be.Error() + ": " + strings.Join(parts, "; ")
}
