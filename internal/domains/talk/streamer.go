package talk

import (
	"fmt"
	"os"
)

const (
	ReplyContentType = "audio/mpeg"
	ReplyDisposition = "attachment; filename=response.mp3"
)

// Reply is the finished answer to one spoken question.
type Reply struct {
	Audio       []byte
	ContentType string
	Disposition string
	Transcript  string
	Text        string
}

// collect reads the synthesized file fully and removes it whether or not the
// read succeeded.
func collect(path string, sc *scratch) (*Reply, error) {
	data, err := os.ReadFile(path)
	sc.remove(path)
	if err != nil {
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}
	if len(data) == 0 {
		return nil, &SynthesisError{Details: "synthesizer produced an empty file"}
	}
	return &Reply{
		Audio:       data,
		ContentType: ReplyContentType,
		Disposition: ReplyDisposition,
	}, nil
}
