package talk

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/cumulus-classroom/cumulus/internal/constants/prompts"
	"github.com/cumulus-classroom/cumulus/internal/domains/classroom"
	"github.com/cumulus-classroom/cumulus/pkg/Logger"
	"github.com/cumulus-classroom/cumulus/pkg/assistant"
	"github.com/cumulus-classroom/cumulus/pkg/io/audio/ffmpeg"
	"github.com/cumulus-classroom/cumulus/pkg/io/stt"
	"github.com/cumulus-classroom/cumulus/pkg/io/tts"
)

const (
	StageNormalize  = "normalize"
	StageTranscribe = "transcribe"
	StageCompose    = "compose"
	StageComplete   = "complete"
	StageSynthesize = "synthesize"
	StageStream     = "stream"
)

// ContextSource supplies the classroom context for a question.
type ContextSource interface {
	Snapshot(ctx context.Context) (classroom.Snapshot, error)
}

// Replier produces the model's answer to a composed prompt.
type Replier interface {
	Reply(ctx context.Context, prompt string) (string, error)
}

type Observer interface {
	ObserveStage(stage string, d time.Duration, err error)
	ObserveOutcome(outcome string)
}

type Config struct {
	Language           string
	Voice              string
	Preset             prompts.Preset
	TempDir            string
	Probe              bool
	ConversionTimeout  time.Duration
	RecognitionTimeout time.Duration
	SynthesisTimeout   time.Duration
}

type Dependencies struct {
	Transcoder  ffmpeg.Transcoder
	Recognizer  stt.Recognizer
	Synthesizer tts.Synthesizer
	Assistant   Replier
	// Context and Observer are optional.
	Context  ContextSource
	Observer Observer
	Logger   *Logger.Logger
}

// Pipeline answers one spoken question with spoken audio. Stages run strictly
// in order and every temp file is removed before Run returns.
type Pipeline struct {
	cfg        Config
	normalizer *Normalizer
	acquirer   *TranscriptAcquirer
	composer   Composer
	assistant  Replier
	renderer   *SpeechRenderer
	context    ContextSource
	observer   Observer
	logger     *Logger.Logger
}

func NewPipeline(cfg Config, deps Dependencies) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = Logger.NewNop()
	}
	return &Pipeline{
		cfg:        cfg,
		normalizer: NewNormalizer(deps.Transcoder, cfg.Probe, logger),
		acquirer:   NewTranscriptAcquirer(deps.Recognizer, cfg.Language, cfg.RecognitionTimeout, logger),
		composer:   NewComposer(cfg.Preset),
		assistant:  deps.Assistant,
		renderer:   NewSpeechRenderer(deps.Synthesizer, cfg.Voice, cfg.SynthesisTimeout),
		context:    deps.Context,
		observer:   deps.Observer,
		logger:     logger,
	}
}

func (p *Pipeline) Run(ctx context.Context, audio io.Reader) (reply *Reply, err error) {
	if audio == nil {
		return nil, ErrNoAudio
	}

	sc := newScratch(p.cfg.TempDir, p.logger)
	defer sc.purge()
	defer func() { p.outcome(err) }()

	var wavPath string
	err = p.stage(StageNormalize, func() error {
		convCtx, cancel := withBound(ctx, p.cfg.ConversionTimeout)
		defer cancel()
		var nerr error
		wavPath, nerr = p.normalizer.Normalize(convCtx, audio, sc)
		return nerr
	})
	if err != nil {
		return nil, err
	}

	var acq *Acquisition
	err = p.stage(StageTranscribe, func() error {
		var aerr error
		acq, aerr = p.acquirer.Acquire(ctx, wavPath)
		return aerr
	})
	sc.remove(wavPath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(acq.Transcript) == "" {
		return nil, ErrNoSpeechDetected
	}

	var prompt string
	_ = p.stage(StageCompose, func() error {
		prompt = p.composer.Compose(acq.Transcript, p.contextBlocks(ctx))
		return nil
	})

	var text string
	err = p.stage(StageComplete, func() error {
		var cerr error
		text, cerr = p.assistant.Reply(ctx, prompt)
		var completionErr *CompletionError
		if cerr != nil && !errors.As(cerr, &completionErr) {
			cerr = &CompletionError{Message: "completion request failed", Detail: cerr.Error(), Err: cerr}
		}
		return cerr
	})
	if err != nil {
		return nil, err
	}

	mp3Path := sc.path("tts.mp3")
	err = p.stage(StageSynthesize, func() error {
		return p.renderer.Render(ctx, text, mp3Path)
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(StageStream, func() error {
		var rerr error
		reply, rerr = collect(mp3Path, sc)
		return rerr
	})
	if err != nil {
		return nil, err
	}
	reply.Transcript = acq.Transcript
	reply.Text = text
	return reply, nil
}

func (p *Pipeline) contextBlocks(ctx context.Context) ContextBlocks {
	if p.context == nil {
		return ContextBlocks{}
	}
	snap, err := p.context.Snapshot(ctx)
	if err != nil {
		p.logger.Warnf("classroom context unavailable, answering without it: %v", err)
		return ContextBlocks{}
	}
	return ContextBlocks{OCR: strings.TrimSpace(snap.OCRText), Transcript: strings.TrimSpace(snap.Transcript)}
}

func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	p.logger.Debugf("talk stage %s started", name)
	err := fn()
	elapsed := time.Since(start)
	if p.observer != nil {
		p.observer.ObserveStage(name, elapsed, err)
	}
	if err != nil {
		p.logger.Errorf("talk stage %s failed after %s: %v", name, elapsed, err)
		return err
	}
	p.logger.Debugf("talk stage %s finished in %s", name, elapsed)
	return nil
}

func (p *Pipeline) outcome(err error) {
	if p.observer == nil {
		return
	}
	switch {
	case err == nil:
		p.observer.ObserveOutcome("success")
	case errors.Is(err, ErrNoSpeechDetected):
		p.observer.ObserveOutcome("no_speech")
	case errors.Is(err, ErrNoAudio):
		p.observer.ObserveOutcome("no_audio")
	default:
		p.observer.ObserveOutcome("failure")
	}
}

func withBound(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

var _ Replier = (*assistant.Client)(nil)
