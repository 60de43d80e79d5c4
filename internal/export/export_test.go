package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeWAV writes a short mono 16-bit tone to path.
func writeWAV(t *testing.T, path string, samples int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	enc := wav.NewEncoder(f, 44100, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 44100},
		Data:           make([]int, samples),
		SourceBitDepth: 16,
	}
	for i := range buf.Data {
		buf.Data[i] = (i % 100) * 100
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

type fakeSynth struct {
	t       *testing.T
	samples int
	garbage bool
	err     error
	calls   int
}

func (f *fakeSynth) RenderFile(_ context.Context, _, _, out string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.garbage {
		return os.WriteFile(out, []byte("definitely not a wav file"), 0o644)
	}
	writeWAV(f.t, out, f.samples)
	return nil
}

type fakeEncoder struct {
	err error
	// partial, when set, is written to out before err is returned.
	partial []byte
	inputs  []string
}

func (f *fakeEncoder) Encode(_ context.Context, in, out string) error {
	f.inputs = append(f.inputs, in)
	if f.partial != nil {
		if err := os.WriteFile(out, f.partial, 0o644); err != nil {
			return err
		}
		return f.err
	}
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(out, []byte("ID3 fake mp3"), 0o644)
}

func fixture(t *testing.T) (dir, track, voice string) {
	t.Helper()
	dir = t.TempDir()
	track = filepath.Join(dir, "lib", "Bach", "prelude.mid")
	voice = filepath.Join(dir, "fonts", "FluidR3.sf2")
	require.NoError(t, os.MkdirAll(filepath.Dir(track), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(voice), 0o755))
	require.NoError(t, os.WriteFile(track, []byte("MThd"), 0o644))
	require.NoError(t, os.WriteFile(voice, []byte("RIFF"), 0o644))
	return dir, track, voice
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name  string
		track string
		voice string
		want  string
	}{
		{"simple", "/m/a/song.mid", "/f/Piano.sf2", filepath.Join("out", "song-Piano.mp3")},
		{"upper case extension", "/m/SONG.MIDI", "/f/x.SF2", filepath.Join("out", "SONG-x.mp3")},
		{"dots in name", "/m/op.10.no.3.mid", "/f/v1.2.sf2", filepath.Join("out", "op.10.no.3-v1.2.mp3")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OutputPath("out", tt.track, tt.voice, ".mp3")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, OutputPath("out", tt.track, tt.voice, ".mp3"))
		})
	}
}

func TestExport(t *testing.T) {
	dir, track, voice := fixture(t)
	out := filepath.Join(dir, "Output")

	synth := &fakeSynth{t: t, samples: 4410}
	enc := &fakeEncoder{}
	e := New(out, synth, enc)

	path, err := e.Export(context.Background(), track, voice)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "prelude-FluidR3.mp3"), path)
	assert.FileExists(t, path)

	require.Len(t, enc.inputs, 1)
	assert.Equal(t, filepath.Join(out, "prelude-FluidR3.wav"), enc.inputs[0])
	assert.NoFileExists(t, enc.inputs[0])

	again, err := e.Export(context.Background(), track, voice)
	require.NoError(t, err)
	assert.Equal(t, path, again)
}

func TestExportFailures(t *testing.T) {
	tests := []struct {
		name      string
		synth     *fakeSynth
		enc       *fakeEncoder
		badTrack  bool
		wantEnc   bool
		wantCalls int
	}{
		{name: "not a midi file", synth: &fakeSynth{}, enc: &fakeEncoder{}, badTrack: true},
		{name: "render fails", synth: &fakeSynth{err: errors.New("no audio")}, enc: &fakeEncoder{}, wantCalls: 1},
		{name: "empty render", synth: &fakeSynth{samples: 0}, enc: &fakeEncoder{}, wantCalls: 1},
		{name: "garbage render", synth: &fakeSynth{garbage: true}, enc: &fakeEncoder{}, wantCalls: 1},
		{name: "encoder fails", synth: &fakeSynth{samples: 4410}, enc: &fakeEncoder{err: errors.New("lame crashed")}, wantEnc: true, wantCalls: 1},
		{name: "encoder fails mid-write", synth: &fakeSynth{samples: 4410}, enc: &fakeEncoder{partial: []byte("ID3"), err: errors.New("lame crashed")}, wantEnc: true, wantCalls: 1},
		{name: "encoder writes nothing", synth: &fakeSynth{samples: 4410}, enc: &fakeEncoder{partial: []byte{}}, wantEnc: true, wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, track, voice := fixture(t)
			if tt.badTrack {
				track = filepath.Join(dir, "notes.txt")
			}
			out := filepath.Join(dir, "Output")
			tt.synth.t = t

			e := New(out, tt.synth, tt.enc)
			path, err := e.Export(context.Background(), track, voice)
			assert.Empty(t, path)
			assert.ErrorIs(t, err, ErrExport)
			assert.Equal(t, tt.wantCalls, tt.synth.calls)
			assert.Equal(t, tt.wantEnc, len(tt.enc.inputs) == 1)

			entries, _ := os.ReadDir(out)
			for _, ent := range entries {
				assert.NotEqual(t, ".wav", filepath.Ext(ent.Name()), "intermediate left behind")
			}
			assert.NoFileExists(t, OutputPath(out, track, voice, ".mp3"), "partial output left behind")
		})
	}
}

func TestExportCopiesPath(t *testing.T) {
	dir, track, voice := fixture(t)
	e := New(filepath.Join(dir, "Output"), &fakeSynth{t: t, samples: 100}, &fakeEncoder{})
	e.CopyPath = true
	var copied string
	e.copy = func(s string) error {
		copied = s
		return nil
	}

	path, err := e.Export(context.Background(), track, voice)
	require.NoError(t, err)
	abs, _ := filepath.Abs(path)
	assert.Equal(t, abs, copied)
}

func TestValidateWAV(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.wav")
	writeWAV(t, good, 1000)
	assert.NoError(t, ValidateWAV(good))

	empty := filepath.Join(dir, "empty.wav")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	assert.Error(t, ValidateWAV(empty))

	assert.Error(t, ValidateWAV(filepath.Join(dir, "missing.wav")))
}

func TestArgs(t *testing.T) {
	f := &Fluidsynth{Gain: 0.8}
	assert.Equal(t,
		[]string{"-ni", "-F", "o.wav", "-T", "wav", "-g", "0.8", "v.sf2", "t.mid"},
		f.Args("v.sf2", "t.mid", "o.wav"))

	l := &Lame{}
	assert.Equal(t, []string{"--quiet", "in.wav", "out.mp3"}, l.Args("in.wav", "out.mp3"))
	l.Bitrate = 192
	assert.Equal(t, []string{"--quiet", "-b", "192", "in.wav", "out.mp3"}, l.Args("in.wav", "out.mp3"))
}

type recordingRunner struct {
	name string
	args []string
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.name, r.args = name, args
	return nil, nil
}

func TestDefaultBinaries(t *testing.T) {
	r := &recordingRunner{}
	require.NoError(t, (&Fluidsynth{Runner: r}).RenderFile(context.Background(), "v", "t", "o"))
	assert.Equal(t, "fluidsynth", r.name)

	require.NoError(t, (&Lame{Binary: "/opt/lame", Runner: r}).Encode(context.Background(), "i", "o"))
	assert.Equal(t, "/opt/lame", r.name)
}
