package renderer

import (
	"bytes"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// noise lists renderer output that is expected and not worth logging.
var noise = []string{
	"Failed to set thread to high priority",
	"Using PulseAudio driver",
}

// logWriter forwards complete lines of renderer output to the logger.
type logWriter struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	logger *log.Logger
}

func newLogWriter(name string) *logWriter {
	return &logWriter{logger: log.WithPrefix(name)}
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// partial line, keep it for the next write
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.emit(line)
	}
	return len(p), nil
}

// Flush logs any trailing partial line.
func (w *logWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

func (w *logWriter) emit(line string) {
	line = strings.TrimSpace(line)
	if line == "" || isNoise(line) {
		return
	}
	w.logger.Debug(line)
}

func isNoise(line string) bool {
	for _, n := range noise {
		if strings.Contains(line, n) {
			return true
		}
	}
	return false
}
