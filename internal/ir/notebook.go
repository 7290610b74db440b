package ir

import (
	"github.com/roach88/notelog/internal/codec"
)

// Metadata describes a notebook.
type Metadata struct {
	Title string

	// CreatedAt is set once, the first time a save finds it zero (epoch seconds).
	CreatedAt uint64

	// UpdatedAt is set on every save (epoch seconds).
	UpdatedAt uint64
}

// NotebookFile is the entire persisted document.
//
// Annotation geometry and content are not stored separately: they are
// rebuilt by replaying Transitions through fresh machines.
type NotebookFile struct {
	Metadata    Metadata
	Transitions []Transition
	InitialTool Tool
}

// EmptyNotebook returns the safe default document used when a file cannot be
// decoded: no title, no history, idle tool.
func EmptyNotebook() NotebookFile {
	return NotebookFile{InitialTool: ToolIdle}
}

// EncodeFile returns the canonical encoding of f.
//
// Layout, in order: title, createdAt, updatedAt, transition count,
// transitions, initialTool. There is no magic prefix or version field.
// Any error aborts the whole encoding; no partial buffer is returned.
func EncodeFile(f NotebookFile) ([]byte, error) {
	e := codec.NewEncoder()
	e.String("title", f.Metadata.Title)
	e.Uint64(f.Metadata.CreatedAt)
	e.Uint64(f.Metadata.UpdatedAt)
	codec.WriteArray(e, f.Transitions, writeTransition)
	writeEnum(e, "initialTool", f.InitialTool)
	out, err := e.Bytes()
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeFile decodes a notebook file.
//
// Bytes after initialTool are ignored: newer writers append fields there and
// older readers must still open the document.
func DecodeFile(b []byte) (NotebookFile, error) {
	d := codec.NewDecoder(b)
	var f NotebookFile
	var err error
	if f.Metadata.Title, err = d.String("metadata.title"); err != nil {
		return NotebookFile{}, err
	}
	if f.Metadata.CreatedAt, err = d.Uint64("metadata.createdAt"); err != nil {
		return NotebookFile{}, err
	}
	if f.Metadata.UpdatedAt, err = d.Uint64("metadata.updatedAt"); err != nil {
		return NotebookFile{}, err
	}
	if f.Transitions, err = codec.ReadArray(d, "transitions", readTransition); err != nil {
		return NotebookFile{}, err
	}
	if f.InitialTool, err = readEnum(d, "initialTool", ParseTool); err != nil {
		return NotebookFile{}, err
	}
	return f, nil
}
