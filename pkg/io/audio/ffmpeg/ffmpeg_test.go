package ffmpeg

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireFFmpeg(t *testing.T) *FFmpeg {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not on PATH")
	}
	f, err := New("")
	require.NoError(t, err)
	return f
}

// silentWAV builds a 16-bit PCM clip of the given shape.
func silentWAV(rate, channels, seconds int) []byte {
	const bits = 16
	dataLen := rate * channels * bits / 8 * seconds

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(rate))
	binary.Write(&buf, binary.LittleEndian, uint32(rate*channels*bits/8))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*bits/8))
	binary.Write(&buf, binary.LittleEndian, uint16(bits))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(make([]byte, dataLen))
	return buf.Bytes()
}

type wavHeader struct {
	Channels   uint16
	SampleRate uint32
	ByteRate   uint32
	BlockAlign uint16
	Bits       uint16
	DataLen    uint32
}

// readWAVHeader walks the RIFF chunks, skipping any the muxer adds (LIST).
func readWAVHeader(t *testing.T, data []byte) wavHeader {
	t.Helper()
	require.Greater(t, len(data), 12)
	require.Equal(t, "RIFF", string(data[0:4]))
	require.Equal(t, "WAVE", string(data[8:12]))

	var h wavHeader
	var sawFmt bool
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		body := data[off+8:]
		switch id {
		case "fmt ":
			require.GreaterOrEqual(t, len(body), 16)
			h.Channels = binary.LittleEndian.Uint16(body[2:4])
			h.SampleRate = binary.LittleEndian.Uint32(body[4:8])
			h.ByteRate = binary.LittleEndian.Uint32(body[8:12])
			h.BlockAlign = binary.LittleEndian.Uint16(body[12:14])
			h.Bits = binary.LittleEndian.Uint16(body[14:16])
			sawFmt = true
		case "data":
			h.DataLen = size
			require.True(t, sawFmt, "data chunk before fmt")
			return h
		}
		off += 8 + int(size) + int(size%2)
	}
	t.Fatal("no data chunk")
	return h
}

func TestSpecArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"-ac", "1", "-ar", "16000", "-acodec", "pcm_s16le", "-f", "wav"},
		SpeechPCM.args())
	assert.Empty(t, Spec{}.args())
}

func TestNewWithExplicitPath(t *testing.T) {
	f, err := New("/opt/ffmpeg/ffmpeg")
	require.NoError(t, err)
	assert.Equal(t, "/opt/ffmpeg/ffmpeg", f.Path())
}

func TestConvertToSpeechPCM(t *testing.T) {
	f := requireFFmpeg(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")
	require.NoError(t, os.WriteFile(in, silentWAV(44100, 2, 1), 0o600))

	require.NoError(t, f.Convert(context.Background(), in, out, SpeechPCM))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	h := readWAVHeader(t, data)
	assert.Equal(t, uint16(1), h.Channels, "channels")
	assert.Equal(t, uint32(16000), h.SampleRate, "sample rate")
	assert.Equal(t, uint16(16), h.Bits, "bits per sample")
	assert.Equal(t, uint32(32000), h.DataLen, "one second of speech PCM")
}

func TestConvertKeepsSpeechPCMInputUnchanged(t *testing.T) {
	f := requireFFmpeg(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")
	src := silentWAV(16000, 1, 2)
	require.NoError(t, os.WriteFile(in, src, 0o600))

	require.NoError(t, f.Convert(context.Background(), in, out, SpeechPCM))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, readWAVHeader(t, src), readWAVHeader(t, data))
}

func TestConvertReportsDiagnostics(t *testing.T) {
	f := requireFFmpeg(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "garbage.webm")
	require.NoError(t, os.WriteFile(in, []byte("not audio at all"), 0o600))

	err := f.Convert(context.Background(), in, filepath.Join(dir, "out.wav"), SpeechPCM)
	require.Error(t, err)

	var ffErr *Error
	require.ErrorAs(t, err, &ffErr)
	assert.NotEmpty(t, ffErr.Stderr)
}

func TestProbeToleratesMissingOutput(t *testing.T) {
	f := requireFFmpeg(t)
	in := filepath.Join(t.TempDir(), "in.wav")
	require.NoError(t, os.WriteFile(in, silentWAV(44100, 2, 1), 0o600))

	info, err := f.Probe(context.Background(), in)
	require.NoError(t, err)
	assert.Contains(t, info, "Audio")
}
