package talk

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cumulus-classroom/cumulus/internal/constants/prompts"
	"github.com/cumulus-classroom/cumulus/internal/domains/talk/talktest"
	"github.com/cumulus-classroom/cumulus/pkg/Logger"
	"github.com/cumulus-classroom/cumulus/pkg/io/stt"
)

type recordingObserver struct {
	mu       sync.Mutex
	stages   []string
	failed   []string
	outcomes []string
}

func (o *recordingObserver) ObserveStage(stage string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages = append(o.stages, stage)
	if err != nil {
		o.failed = append(o.failed, stage)
	}
}

func (o *recordingObserver) ObserveOutcome(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

type fixture struct {
	dir        string
	transcoder *talktest.Transcoder
	recognizer *talktest.Recognizer
	synth      *talktest.Synthesizer
	replier    *talktest.Replier
	context    talktest.StaticContext
	observer   *recordingObserver
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		dir:        t.TempDir(),
		transcoder: &talktest.Transcoder{},
		recognizer: &talktest.Recognizer{Script: []stt.Event{
			{Kind: stt.Recognized, Text: "What is photosynthesis?"},
			{Kind: stt.Canceled, Reason: stt.ReasonEndOfStream},
		}},
		synth:    &talktest.Synthesizer{},
		replier:  &talktest.Replier{Answer: "Photosynthesis converts light into chemical energy."},
		observer: &recordingObserver{},
	}
}

func (f *fixture) pipeline(t *testing.T) *Pipeline {
	preset, err := prompts.ClassroomPreset("en")
	require.NoError(t, err)
	return NewPipeline(Config{
		Language:           "en-US",
		Voice:              "id-ID-ArdiNeural",
		Preset:             preset,
		TempDir:            f.dir,
		Probe:              true,
		ConversionTimeout:  time.Second,
		RecognitionTimeout: time.Second,
		SynthesisTimeout:   time.Second,
	}, Dependencies{
		Transcoder:  f.transcoder,
		Recognizer:  f.recognizer,
		Synthesizer: f.synth,
		Assistant:   f.replier,
		Context:     f.context,
		Observer:    f.observer,
		Logger:      Logger.NewNop(),
	})
}

func assertNoLeftovers(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Empty(t, names, "temp files left behind")
}

func TestRunAnswersWithAudio(t *testing.T) {
	f := newFixture(t)
	f.context = talktest.StaticContext{OCR: "6CO2 + 6H2O -> C6H12O6 + 6O2", Transcript: "Plants need sunlight.\n"}

	reply, err := f.pipeline(t).Run(context.Background(), talktest.Upload())
	require.NoError(t, err)

	assert.Equal(t, "audio/mpeg", reply.ContentType)
	assert.Equal(t, "attachment; filename=response.mp3", reply.Disposition)
	assert.Equal(t, []byte("ID3\x04\x00fake-mp3-frames"), reply.Audio)
	assert.Equal(t, "What is photosynthesis?", reply.Transcript)
	assert.Equal(t, f.replier.Answer, reply.Text)

	require.Len(t, f.replier.Prompts, 1)
	prompt := f.replier.Prompts[0]
	assert.Contains(t, prompt, `(OCR): "6CO2 + 6H2O -> C6H12O6 + 6O2"`)
	assert.Contains(t, prompt, `(STT): "Plants need sunlight."`)
	assert.Contains(t, prompt, `The student asks: "What is photosynthesis?"`)

	assert.Equal(t, []string{f.replier.Answer}, f.synth.Texts)
	assert.Equal(t, []string{"id-ID-ArdiNeural"}, f.synth.Voices)

	assert.Equal(t, []string{StageNormalize, StageTranscribe, StageCompose, StageComplete, StageSynthesize, StageStream}, f.observer.stages)
	assert.Equal(t, []string{"success"}, f.observer.outcomes)
	assertNoLeftovers(t, f.dir)
}

func TestRunWithoutSpeech(t *testing.T) {
	f := newFixture(t)
	f.recognizer.Script = []stt.Event{{Kind: stt.SessionStopped}}

	_, err := f.pipeline(t).Run(context.Background(), talktest.Upload())
	assert.ErrorIs(t, err, ErrNoSpeechDetected)
	assert.Empty(t, f.replier.Prompts, "no completion without a question")
	assert.Empty(t, f.synth.Texts)
	assert.Equal(t, []string{"no_speech"}, f.observer.outcomes)
	assertNoLeftovers(t, f.dir)
}

func TestRunWithoutAudio(t *testing.T) {
	f := newFixture(t)
	_, err := f.pipeline(t).Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoAudio)
	assert.Empty(t, f.transcoder.Inputs)
}

func TestRunConversionFailure(t *testing.T) {
	f := newFixture(t)
	f.transcoder.Stderr = "moov atom not found"

	_, err := f.pipeline(t).Run(context.Background(), talktest.Upload())
	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Contains(t, err.Error(), "moov atom not found")
	assert.Nil(t, f.recognizer.LastSession(), "recognition never started")
	assertNoLeftovers(t, f.dir)
}

func TestRunCompletionFailureCleansUp(t *testing.T) {
	f := newFixture(t)
	f.replier.Err = errors.New("401 Unauthorized")

	_, err := f.pipeline(t).Run(context.Background(), talktest.Upload())
	var compErr *CompletionError
	require.ErrorAs(t, err, &compErr)
	assert.Contains(t, compErr.Detail, "401 Unauthorized")
	assert.Empty(t, f.synth.Texts)
	assert.Equal(t, []string{StageComplete}, f.observer.failed)
	assert.Equal(t, []string{"failure"}, f.observer.outcomes)
	assertNoLeftovers(t, f.dir)
}

func TestRunSynthesisFailure(t *testing.T) {
	f := newFixture(t)
	f.synth.Err = errors.New("voice not found")

	_, err := f.pipeline(t).Run(context.Background(), talktest.Upload())
	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, "TTS failed: voice not found", err.Error())
	assertNoLeftovers(t, f.dir)
}

func TestRunEmptySynthesisIsFailure(t *testing.T) {
	f := newFixture(t)
	f.synth.Audio = []byte{}

	_, err := f.pipeline(t).Run(context.Background(), talktest.Upload())
	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assertNoLeftovers(t, f.dir)
}

func TestRunRecognitionCanceled(t *testing.T) {
	f := newFixture(t)
	f.recognizer.Script = []stt.Event{{Kind: stt.Canceled, Reason: stt.ReasonError, ErrorCode: "4", ErrorDetails: "connection failure"}}

	_, err := f.pipeline(t).Run(context.Background(), talktest.Upload())
	var recErr *RecognitionError
	require.ErrorAs(t, err, &recErr)
	assert.Empty(t, f.replier.Prompts)
	assertNoLeftovers(t, f.dir)
}

func TestRunContextUnavailableStillAnswers(t *testing.T) {
	f := newFixture(t)
	f.context = talktest.StaticContext{Err: errors.New("redis: connection refused")}

	reply, err := f.pipeline(t).Run(context.Background(), talktest.Upload())
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Audio)
	assert.NotContains(t, f.replier.Prompts[0], "(OCR)")
}

func TestConcurrentRunsDoNotCollide(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Run(context.Background(), talktest.Upload())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assertNoLeftovers(t, f.dir)
}
