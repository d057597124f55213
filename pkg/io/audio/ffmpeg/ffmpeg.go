// Package ffmpeg drives the ffmpeg executable for the audio conversions the
// service needs: normalising uploads for speech recognition, probing inputs
// and encoding synthesized speech to MP3.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// Spec describes the target encoding of a conversion.
type Spec struct {
	Channels   int
	SampleRate int
	Codec      string
	Format     string
}

// SpeechPCM is what speech recognizers expect: mono, 16 kHz, 16-bit PCM in a WAV container.
var SpeechPCM = Spec{Channels: 1, SampleRate: 16000, Codec: "pcm_s16le", Format: "wav"}

func (s Spec) args() []string {
	var args []string
	if s.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(s.Channels))
	}
	if s.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(s.SampleRate))
	}
	if s.Codec != "" {
		args = append(args, "-acodec", s.Codec)
	}
	if s.Format != "" {
		args = append(args, "-f", s.Format)
	}
	return args
}

type Transcoder interface {
	Convert(ctx context.Context, in, out string, spec Spec) error
	Probe(ctx context.Context, path string) (string, error)
}

var ErrNotFound = errors.New("ffmpeg executable not found")

// Error carries ffmpeg's own diagnostic output.
type Error struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

type FFmpeg struct {
	path string
}

// New resolves the executable. An empty path means look it up on PATH.
func New(path string) (*FFmpeg, error) {
	if path == "" {
		found, err := exec.LookPath("ffmpeg")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		path = found
	}
	return &FFmpeg{path: path}, nil
}

func (f *FFmpeg) Path() string { return f.path }

func (f *FFmpeg) Convert(ctx context.Context, in, out string, spec Spec) error {
	args := []string{"-hide_banner", "-loglevel", "error", "-y", "-i", in}
	args = append(args, spec.args()...)
	args = append(args, out)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.path, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return &Error{Args: args, Stderr: stderr.String(), Err: err}
	}
	return nil
}

// Probe runs ffmpeg with only an input so it prints the stream layout.
// ffmpeg exits non-zero when no output is given; that exit code is expected
// and ignored as long as something was printed.
func (f *FFmpeg) Probe(ctx context.Context, path string) (string, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.path, "-hide_banner", "-i", path)
	cmd.Stderr = &stderr
	err := cmd.Run()

	info := strings.TrimSpace(stderr.String())
	if info == "" && err != nil {
		return "", &Error{Args: cmd.Args[1:], Err: err}
	}
	return info, nil
}

// EncodeMP3 pipes audio of the given input format through ffmpeg and writes MP3 to w.
func (f *FFmpeg) EncodeMP3(ctx context.Context, r io.Reader, inputFormat string, w io.Writer) error {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if inputFormat != "" {
		args = append(args, "-f", inputFormat)
	}
	args = append(args, "-i", "pipe:0", "-f", "mp3", "pipe:1")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.path, args...)
	cmd.Stdin = r
	cmd.Stdout = w
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &Error{Args: args, Stderr: stderr.String(), Err: err}
	}
	return nil
}
