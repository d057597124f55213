package classroom

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cumulus-classroom/cumulus/pkg/Logger"
)

type memoryStore struct {
	ocr     string
	speech  string
	readErr error
}

func (m *memoryStore) SaveOCR(_ context.Context, text string) error { m.ocr = text; return nil }
func (m *memoryStore) LatestOCR(_ context.Context) (string, error) {
	return m.ocr, m.readErr
}
func (m *memoryStore) AppendSpeech(_ context.Context, line string) error {
	m.speech += line
	return nil
}
func (m *memoryStore) SpeechLog(_ context.Context) (string, error) { return m.speech, nil }

func TestRecordSpeechOnlyAppendsCompleteSentences(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store, Logger.NewNop())
	ctx := context.Background()

	cases := []struct {
		text     string
		appended bool
	}{
		{"  Hari ini kita belajar fotosintesis.  ", true},
		{"dan kemudian", false},
		{"", false},
		{"   ", false},
		{"Selesai.", true},
	}
	for _, tc := range cases {
		ok, err := svc.RecordSpeech(ctx, tc.text)
		require.NoError(t, err)
		assert.Equal(t, tc.appended, ok, tc.text)
	}
	assert.Equal(t, "Hari ini kita belajar fotosintesis.\nSelesai.\n", store.speech)
}

func TestSnapshotDegradesOnReadFailure(t *testing.T) {
	store := &memoryStore{ocr: "stale", speech: "Guru berbicara.\n", readErr: errors.New("disk gone")}
	svc := NewService(store, Logger.NewNop())

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.OCRText)
	assert.Equal(t, "Guru berbicara.\n", snap.Transcript)
}
