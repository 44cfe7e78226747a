package transcribe

import "github.com/D-Fate/AudioToTextConverter/internal/domain"

// whisperModelCatalog lists the whisper.cpp model presets the loader can
// fetch on demand.
var whisperModelCatalog = []domain.WhisperModelOption{
	{
		ID:        "tiny",
		Name:      "Tiny (Multilingual)",
		FileName:  "ggml-tiny.bin",
		URL:       "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-tiny.bin",
		SizeLabel: "~75 MB",
	},
	{
		ID:        "base",
		Name:      "Base (Multilingual)",
		FileName:  "ggml-base.bin",
		URL:       "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.bin",
		SizeLabel: "~142 MB",
	},
	{
		ID:        "small",
		Name:      "Small (Multilingual)",
		FileName:  "ggml-small.bin",
		URL:       "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small.bin",
		SizeLabel: "~466 MB",
	},
	{
		ID:        "medium",
		Name:      "Medium (Multilingual)",
		FileName:  "ggml-medium.bin",
		URL:       "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-medium.bin",
		SizeLabel: "~1.5 GB",
	},
	{
		ID:        "large-v3",
		Name:      "Large v3",
		FileName:  "ggml-large-v3.bin",
		URL:       "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v3.bin",
		SizeLabel: "~2.9 GB",
	},
}

// WhisperModels returns the built-in model presets.
func WhisperModels() []domain.WhisperModelOption {
	models := make([]domain.WhisperModelOption, len(whisperModelCatalog))
	copy(models, whisperModelCatalog)
	return models
}

// findWhisperModel looks up a catalog preset by its id.
func findWhisperModel(id string) (domain.WhisperModelOption, bool) {
	for _, model := range whisperModelCatalog {
		if model.ID == id {
			return model, true
		}
	}
	return domain.WhisperModelOption{}, false
}
