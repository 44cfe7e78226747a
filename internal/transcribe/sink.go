package transcribe

import (
	"os"
	"path/filepath"
	"strings"
)

// transcriptHeader prefixes every exported transcript file.
const transcriptHeader = "Audio transcription:\n\n"

// FileSink writes finished transcripts next to their source audio file.
type FileSink struct{}

// Write stores transcript as "<stem>_transcript.txt" beside sourcePath,
// overwriting any previous export, and returns the written path.
func (FileSink) Write(sourcePath, transcript string) (string, error) {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	outPath := filepath.Join(filepath.Dir(sourcePath), stem+"_transcript.txt")

	if err := os.WriteFile(outPath, []byte(transcriptHeader+transcript), 0o644); err != nil {
		return "", err
	}
	return outPath, nil
}
