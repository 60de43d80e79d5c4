// Package export renders a track with a voice to a WAV file and encodes it
// to MP3.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/go-audio/wav"

	"github.com/sfjuke/sfjuke/internal/library"
	"github.com/sfjuke/sfjuke/internal/proc"
	"github.com/sfjuke/sfjuke/utils"
)

// ErrExport wraps every export failure.
var ErrExport = errors.New("export failed")

// DefaultDir is where exports land when no directory is configured.
const DefaultDir = "Output"

// Synth renders a track to an audio file offline.
type Synth interface {
	RenderFile(ctx context.Context, voice, track, out string) error
}

// Encoder compresses a WAV file.
type Encoder interface {
	Encode(ctx context.Context, in, out string) error
}

// OutputPath returns dir/{track base}-{voice base}.ext. The same inputs
// always give the same path.
func OutputPath(dir, track, voice, ext string) string {
	name := utils.SanitizeName(utils.Basename(track)) + "-" + utils.SanitizeName(utils.Basename(voice))
	return filepath.Join(dir, name+ext)
}

// Exporter turns the current track and voice into an MP3 file.
type Exporter struct {
	Dir     string
	Synth   Synth
	Encoder Encoder
	// CopyPath copies the finished file's path to the clipboard.
	CopyPath bool

	copy func(string) error
}

// New returns an Exporter writing to dir.
func New(dir string, synth Synth, enc Encoder) *Exporter {
	if dir == "" {
		dir = DefaultDir
	}
	return &Exporter{Dir: dir, Synth: synth, Encoder: enc, copy: clipboard.WriteAll}
}

// Export renders track with voice and returns the path of the MP3. The
// intermediate WAV is removed whether or not encoding succeeds.
func (e *Exporter) Export(ctx context.Context, track, voice string) (string, error) {
	if !library.IsTrackFile(track) {
		return "", fmt.Errorf("%w: %s is not a MIDI file", ErrExport, filepath.Base(track))
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: unable to create output directory: %w", ErrExport, err)
	}

	out := OutputPath(e.Dir, track, voice, ".mp3")
	intermediate := OutputPath(e.Dir, track, voice, ".wav")
	defer func() {
		if err := os.Remove(intermediate); err != nil && !os.IsNotExist(err) {
			log.Warn("Unable to remove intermediate file", "path", intermediate, "error", err)
		}
	}()

	log.Debug("Exporting", "track", track, "voice", voice, "out", out)
	if err := e.Synth.RenderFile(ctx, voice, track, intermediate); err != nil {
		return "", fmt.Errorf("%w: render: %w", ErrExport, err)
	}
	if err := ValidateWAV(intermediate); err != nil {
		return "", fmt.Errorf("%w: %w", ErrExport, err)
	}
	if err := e.Encoder.Encode(ctx, intermediate, out); err != nil {
		removePartial(out)
		return "", fmt.Errorf("%w: encode: %w", ErrExport, err)
	}
	if st, err := os.Stat(out); err != nil || st.Size() == 0 {
		removePartial(out)
		return "", fmt.Errorf("%w: encoder produced no output", ErrExport)
	}

	if e.CopyPath && e.copy != nil {
		abs, err := filepath.Abs(out)
		if err != nil {
			abs = out
		}
		if err := e.copy(abs); err != nil {
			log.Warn("Unable to copy path to clipboard", "error", err)
		}
	}
	log.Info("Exported", "path", out)
	return out, nil
}

// removePartial deletes whatever a failed encoder left at path.
func removePartial(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("Unable to remove partial output", "path", path, "error", err)
	}
}

// ValidateWAV checks that path exists, is non-empty and decodes as a WAV
// file carrying audio data.
func ValidateWAV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("rendered file missing: %w", err)
	}
	defer f.Close() //nolint:errcheck

	st, err := f.Stat()
	if err != nil {
		return err
	}
	if st.Size() == 0 {
		return errors.New("rendered file is empty")
	}

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return errors.New("rendered file is not a valid WAV")
	}
	if err := d.FwdToPCM(); err != nil {
		return fmt.Errorf("rendered file has no audio data: %w", err)
	}
	if d.PCMLen() == 0 {
		return errors.New("rendered file has no audio")
	}
	return nil
}

// Fluidsynth renders offline with fluidsynth's fast file renderer.
type Fluidsynth struct {
	Binary string
	Gain   float64
	Runner proc.Runner
}

// Args returns the command line used to render track into out.
func (f *Fluidsynth) Args(voice, track, out string) []string {
	args := []string{"-ni", "-F", out, "-T", "wav"}
	if f.Gain > 0 {
		args = append(args, "-g", strconv.FormatFloat(f.Gain, 'f', -1, 64))
	}
	return append(args, voice, track)
}

// RenderFile implements Synth.
func (f *Fluidsynth) RenderFile(ctx context.Context, voice, track, out string) error {
	_, err := runner(f.Runner).Run(ctx, binary(f.Binary, "fluidsynth"), f.Args(voice, track, out)...)
	return err
}

// Lame encodes MP3 files with the lame encoder.
type Lame struct {
	Binary string
	// Bitrate in kbit/s. Zero keeps lame's default.
	Bitrate int
	Runner  proc.Runner
}

// Args returns the command line used to encode in into out.
func (l *Lame) Args(in, out string) []string {
	args := []string{"--quiet"}
	if l.Bitrate > 0 {
		args = append(args, "-b", strconv.Itoa(l.Bitrate))
	}
	return append(args, in, out)
}

// Encode implements Encoder.
func (l *Lame) Encode(ctx context.Context, in, out string) error {
	_, err := runner(l.Runner).Run(ctx, binary(l.Binary, "lame"), l.Args(in, out)...)
	return err
}

func runner(r proc.Runner) proc.Runner {
	if r == nil {
		return proc.NewExec(0)
	}
	return r
}

func binary(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
