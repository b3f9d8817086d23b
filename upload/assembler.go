// Package upload reassembles documents delivered as ordered base64 chunks
// keyed by a client-generated session id.
package upload

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrMissingSessionID = errors.New("missing session id")
	ErrMissingFileName  = errors.New("missing file name")
	ErrBadChunkCount    = errors.New("total chunk count must be positive")
	ErrBadChunkIndex    = errors.New("chunk index out of range")
	// ErrChunkOutOfOrder is returned for a duplicate or skipped chunk index.
	// The session buffer is left untouched; the client restarts with chunk 0.
	ErrChunkOutOfOrder = errors.New("chunk received out of order")
	ErrUnknownSession  = errors.New("unknown session, upload must start at chunk 0")
)

type session struct {
	fileName string
	received int
	buf      bytes.Buffer
}

// Assembler accumulates per-session byte spools. Distinct sessions progress
// independently; chunks within one session must arrive in order starting
// at 0, and chunk 0 always restarts the session.
type Assembler struct {
	mu       sync.Mutex
	sessions map[string]*session
	logger   *slog.Logger
}

func New() *Assembler {
	return &Assembler{
		sessions: make(map[string]*session),
		logger:   slog.Default().With("component", "assembler"),
	}
}

// Append adds one chunk to the session's spool. When the final chunk
// (index totalChunks-1) arrives it returns complete=true along with the
// assembled document, and the session entry is released immediately so
// that retries with the same id start clean regardless of what the caller
// does with the bytes.
func (a *Assembler) Append(sessionID, fileName string, chunkIndex, totalChunks int, data []byte) (complete bool, doc []byte, err error) {
	if sessionID == "" {
		return false, nil, ErrMissingSessionID
	}
	if fileName == "" {
		return false, nil, ErrMissingFileName
	}
	if totalChunks < 1 {
		return false, nil, ErrBadChunkCount
	}
	if chunkIndex < 0 || chunkIndex >= totalChunks {
		return false, nil, ErrBadChunkIndex
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sessions[sessionID]
	if chunkIndex == 0 {
		// Restart: any prior partial data for this id is discarded, which
		// makes session id reuse safe for client retries.
		if ok && s.received > 0 {
			a.logger.Info("restarting session", "session", sessionID, "discarded", s.buf.Len())
		}
		s = &session{fileName: fileName}
		a.sessions[sessionID] = s
	} else {
		if !ok {
			return false, nil, ErrUnknownSession
		}
		if chunkIndex != s.received {
			a.logger.Warn("chunk order violation", "session", sessionID, "expected", s.received, "got", chunkIndex)
			return false, nil, ErrChunkOutOfOrder
		}
	}

	s.buf.Write(data)
	s.received++

	if chunkIndex == totalChunks-1 {
		delete(a.sessions, sessionID)
		a.logger.Info("upload assembled", "session", sessionID, "file", s.fileName, "chunks", s.received, "bytes", s.buf.Len())
		return true, s.buf.Bytes(), nil
	}
	return false, nil, nil
}

// Pending reports how many sessions currently hold partial data.
func (a *Assembler) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sessions)
}
