package cache

import (
	"fmt"
	"runtime"
)

// ReadErrorKind enumerates the ways a checked Reader primitive can fail.
type ReadErrorKind int

const (
	// Eof means fewer bytes remained than the primitive required.
	Eof ReadErrorKind = iota
	// NotNulTerminated means String/PaddedString ran out of input before
	// finding a terminator byte.
	NotNulTerminated
	// NotExhausted means an opcode-0 terminator was reached but the buffer
	// still had unread bytes.
	NotExhausted
	// OpcodeNotImplemented means a downstream decoder read an opcode byte
	// it does not know how to handle.
	OpcodeNotImplemented
	// DuplicateOpcode means a downstream decoder read an opcode it had
	// already decoded once in the same record.
	DuplicateOpcode
)

func (k ReadErrorKind) String() string {
	switch k {
	case Eof:
		return "unexpected end of buffer"
	case NotNulTerminated:
		return "buffer did not contain a terminator byte"
	case NotExhausted:
		return "reached terminating opcode but the buffer was not exhausted"
	case OpcodeNotImplemented:
		return "opcode not implemented"
	case DuplicateOpcode:
		return "duplicate opcode"
	default:
		return "unknown read error"
	}
}

// errorFrame is one link in a ReadError's context chain: a free-form label,
// a numeric id (e.g. the archive id being decoded), or a decode trail.
type errorFrame struct {
	label string
	id    *uint32
	trail *DecodeTrail
}

// DecodeTrail captures what a decoder had managed to read by the time it
// failed: the opcodes read so far, the bytes that were never consumed, and
// a rendering of the partially-decoded structure. It is attached once, at
// the outermost decode boundary, never threaded through every layer.
type DecodeTrail struct {
	OpcodesRead    []uint8
	RemainingBytes []byte
	ParsedPrefix   string
}

// ReadError is raised by a checked Reader primitive or domain codec. It
// always carries the call site that raised it, and may carry additional
// context frames prepended as the error bubbles up.
type ReadError struct {
	Kind     ReadErrorKind
	Opcode   uint8
	Location string
	frames   []errorFrame
}

func newReadError(kind ReadErrorKind) *ReadError {
	return &ReadError{Kind: kind, Location: callerLocation(3)}
}

func callerLocation(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown location"
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// ErrEof constructs a ReadError of kind Eof at the caller's location.
func ErrEof() *ReadError { return newReadError(Eof) }

// ErrNotNulTerminated constructs a ReadError of kind NotNulTerminated.
func ErrNotNulTerminated() *ReadError { return newReadError(NotNulTerminated) }

// ErrNotExhausted constructs a ReadError of kind NotExhausted.
func ErrNotExhausted() *ReadError { return newReadError(NotExhausted) }

// ErrOpcodeNotImplemented constructs a ReadError of kind OpcodeNotImplemented.
func ErrOpcodeNotImplemented(op uint8) *ReadError {
	e := newReadError(OpcodeNotImplemented)
	e.Opcode = op
	return e
}

// ErrDuplicateOpcode constructs a ReadError of kind DuplicateOpcode.
func ErrDuplicateOpcode(op uint8) *ReadError {
	e := newReadError(DuplicateOpcode)
	e.Opcode = op
	return e
}

// WithLabel prepends a free-form context label, e.g. the field being decoded.
func (e *ReadError) WithLabel(label string) *ReadError {
	cp := *e
	cp.frames = append(append([]errorFrame{}, e.frames...), errorFrame{label: label})
	return &cp
}

// WithID prepends a numeric context id, e.g. the archive id being decoded.
func (e *ReadError) WithID(id uint32) *ReadError {
	cp := *e
	cp.frames = append(append([]errorFrame{}, e.frames...), errorFrame{id: &id})
	return &cp
}

// WithDecodeTrail attaches a DecodeTrail frame. Called once, at the
// outermost decode boundary.
func (e *ReadError) WithDecodeTrail(trail DecodeTrail) *ReadError {
	cp := *e
	cp.frames = append(append([]errorFrame{}, e.frames...), errorFrame{trail: &trail})
	return &cp
}

func (e *ReadError) Error() string {
	msg := fmt.Sprintf("%s (%s)", e.Kind, e.Location)
	if e.Kind == OpcodeNotImplemented || e.Kind == DuplicateOpcode {
		msg = fmt.Sprintf("%s: opcode %d (%s)", e.Kind, e.Opcode, e.Location)
	}
	for _, f := range e.frames {
		switch {
		case f.trail != nil:
			msg = fmt.Sprintf("%s\nremaining bytes: %d, opcodes read: %v\nparsed prefix: %s",
				msg, len(f.trail.RemainingBytes), f.trail.OpcodesRead, f.trail.ParsedPrefix)
		case f.id != nil:
			msg = fmt.Sprintf("could not decode id %d: %s", *f.id, msg)
		default:
			msg = fmt.Sprintf("could not decode %s: %s", f.label, msg)
		}
	}
	return msg
}

// DecodeErrorKind enumerates Decoder failure modes.
type DecodeErrorKind int

const (
	// DecodeIOError wraps an underlying decompression stream error.
	DecodeIOError DecodeErrorKind = iota
	// DecodeXteaError means decrypting the gzip body with the supplied key
	// produced a stream that does not start with a valid gzip header.
	DecodeXteaError
	// DecodeOther is a free-form decode failure (e.g. an empty input).
	DecodeOther
)

// DecodeError is raised by Decompress.
type DecodeError struct {
	Kind  DecodeErrorKind
	Msg   string
	Cause error
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case DecodeXteaError:
		return "XTEA decryption failed: decrypted stream is not valid gzip"
	case DecodeOther:
		return e.Msg
	default:
		if e.Cause != nil {
			return fmt.Sprintf("decode error: %v", e.Cause)
		}
		return "decode error"
	}
}

func (e *DecodeError) Unwrap() error { return e.Cause }

func decodeIOError(cause error) *DecodeError {
	return &DecodeError{Kind: DecodeIOError, Cause: cause}
}

func decodeOther(msg string) *DecodeError {
	return &DecodeError{Kind: DecodeOther, Msg: msg}
}

func decodeXteaError() *DecodeError {
	return &DecodeError{Kind: DecodeXteaError}
}

// CacheErrorKind enumerates CacheIndex failure modes.
type CacheErrorKind int

const (
	// ArchiveNotFound means the requested archive id is not in the index's
	// metadata.
	ArchiveNotFound CacheErrorKind = iota
	// FileMissing means a backing store file/database could not be opened.
	FileMissing
	// CrcMismatch means a decoded archive's CRC did not match its
	// catalog entry (reserved for callers that choose to verify it; this
	// core does not compute CRCs itself).
	CrcMismatch
	// WrappedError wraps an underlying Read/Decode error.
	WrappedError
)

// CacheError is raised by CacheIndex operations.
type CacheError struct {
	Kind      CacheErrorKind
	IndexID   uint32
	ArchiveID uint32
	Path      string
	Cause     error
}

func (e *CacheError) Error() string {
	switch e.Kind {
	case ArchiveNotFound:
		return fmt.Sprintf("archive not found: index %d, archive %d", e.IndexID, e.ArchiveID)
	case FileMissing:
		return fmt.Sprintf("cache file missing: %s", e.Path)
	case CrcMismatch:
		return fmt.Sprintf("crc mismatch: index %d, archive %d", e.IndexID, e.ArchiveID)
	default:
		return fmt.Sprintf("index %d, archive %d: %v", e.IndexID, e.ArchiveID, e.Cause)
	}
}

func (e *CacheError) Unwrap() error { return e.Cause }

// ErrArchiveNotFound constructs a CacheError of kind ArchiveNotFound.
func ErrArchiveNotFound(indexID, archiveID uint32) *CacheError {
	return &CacheError{Kind: ArchiveNotFound, IndexID: indexID, ArchiveID: archiveID}
}

// ErrFileMissing constructs a CacheError of kind FileMissing.
func ErrFileMissing(path string) *CacheError {
	return &CacheError{Kind: FileMissing, Path: path}
}

func wrapCacheError(indexID, archiveID uint32, cause error) *CacheError {
	return &CacheError{Kind: WrappedError, IndexID: indexID, ArchiveID: archiveID, Cause: cause}
}
