// Package stdio moves newline-delimited JSON messages over a pair of
// line-oriented streams, by default the process standard input/output.
package stdio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/llmtoolhub/toolhub-mcp-go/logger"
	"github.com/llmtoolhub/toolhub-mcp-go/transport"
)

// maxLineBytes bounds a single inbound frame.
const maxLineBytes = 8 * 1024 * 1024

// Transport implements transport.Transport over line-oriented streams.
// One JSON document per line, UTF-8, newline terminated.
type Transport struct {
	in  io.ReadCloser
	out io.Writer

	writeMu sync.Mutex // serializes frames on the send path

	stateMu  sync.Mutex
	started  bool
	stopped  bool
	handler  transport.Handler
	onClose  func()
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a transport over the process standard streams.
func New() *Transport {
	return NewWithStreams(os.Stdin, os.Stdout)
}

// NewWithStreams creates a transport over the given streams.
func NewWithStreams(in io.ReadCloser, out io.Writer) *Transport {
	return &Transport{
		in:   in,
		out:  out,
		done: make(chan struct{}),
	}
}

// SetHandler registers the inbound message handler.
func (t *Transport) SetHandler(handler transport.Handler) {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	t.handler = handler
}

// SetCloseHandler registers the session-end listener.
func (t *Transport) SetCloseHandler(fn func()) {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	t.onClose = fn
}

// Start begins the read loop.
func (t *Transport) Start() error {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()

	if t.started {
		return &transport.StartError{Err: transport.ErrAlreadyStarted}
	}
	if t.stopped {
		return &transport.StartError{Err: transport.ErrClosed}
	}
	if t.in == nil || t.out == nil {
		return &transport.StartError{Err: errors.New("stream unavailable")}
	}
	if t.handler == nil {
		return &transport.StartError{Err: errors.New("no message handler registered")}
	}

	t.started = true
	go t.readLoop()

	logger.Debug("Stdio transport started")
	return nil
}

// Stop shuts the transport down. It is idempotent and always releases
// the input stream handle, unblocking an in-flight read.
func (t *Transport) Stop() error {
	t.stopOnce.Do(func() {
		t.stateMu.Lock()
		t.stopped = true
		t.stateMu.Unlock()

		if err := t.in.Close(); err != nil {
			logger.Debug("Stdio input close", "error", err)
		}
		close(t.done)
		logger.Debug("Stdio transport stopped")
	})
	return nil
}

// Done is closed once the transport has fully stopped.
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

// Send writes one message as a single newline-terminated JSON document.
func (t *Transport) Send(message any) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.stateMu.Lock()
	stopped := t.stopped
	t.stateMu.Unlock()
	if stopped {
		return &transport.WriteError{Err: transport.ErrClosed}
	}

	data, err := json.Marshal(message)
	if err != nil {
		return &transport.WriteError{Err: err}
	}
	data = append(data, '\n')

	if _, err := t.out.Write(data); err != nil {
		return &transport.WriteError{Err: err}
	}
	return nil
}

// readLoop delivers one handler call per fully reassembled line. An
// over-limit line is discarded through its terminating newline and
// reported as a ParseError; only end of stream or a stream fault ends
// the loop. End of stream is a normal termination signal: it triggers a
// clean Stop and notifies the close listener.
func (t *Transport) readLoop() {
	reader := bufio.NewReaderSize(t.in, 64*1024)

	var readErr error
	for readErr == nil {
		var line []byte
		var tooLong bool
		line, tooLong, readErr = readLine(reader)

		if tooLong {
			t.handler(nil, &transport.ParseError{
				Err: errors.Newf("line exceeds %d bytes", maxLineBytes),
			})
			continue
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		if !json.Valid(line) {
			t.handler(nil, &transport.ParseError{
				Line: string(line),
				Err:  errors.New("invalid JSON document"),
			})
			continue
		}

		raw := make(json.RawMessage, len(line))
		copy(raw, line)
		t.handler(raw, nil)
	}

	if readErr != io.EOF && !t.isStopped() {
		logger.Error("Stdio read loop error", "error", readErr)
	} else {
		logger.Debug("Stdio end of stream")
	}

	externalStop := t.isStopped()
	_ = t.Stop()
	if !externalStop {
		t.stateMu.Lock()
		onClose := t.onClose
		t.stateMu.Unlock()
		if onClose != nil {
			onClose()
		}
	}
}

func (t *Transport) isStopped() bool {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return t.stopped
}

// readLine reassembles one newline-terminated line, bounded at
// maxLineBytes. When the bound is exceeded the remainder of the line is
// drained and tooLong is reported instead of the content, leaving the
// reader positioned at the next line.
func readLine(reader *bufio.Reader) (line []byte, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, chunkErr := reader.ReadSlice('\n')
		if !tooLong {
			buf = append(buf, chunk...)
			if len(buf) > maxLineBytes {
				tooLong = true
				buf = nil
			}
		}
		switch chunkErr {
		case nil:
			return buf, tooLong, nil
		case bufio.ErrBufferFull:
			continue
		default:
			return buf, tooLong, chunkErr
		}
	}
}
