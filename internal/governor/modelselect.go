package governor

import "fmt"

// EmbeddingModel names a selectable embedding/LLM model tier, ordered from
// cheapest to most capable.
type EmbeddingModel string

const (
	ModelTiny   EmbeddingModel = "tiny"
	ModelBase   EmbeddingModel = "base"
	ModelSmall  EmbeddingModel = "small"
	ModelMedium EmbeddingModel = "medium"
	ModelLarge  EmbeddingModel = "large"
)

// modelVRAM is each tier's approximate VRAM footprint in GB.
var modelVRAM = map[EmbeddingModel]float64{
	ModelTiny:   1.0,
	ModelBase:   2.0,
	ModelSmall:  3.0,
	ModelMedium: 5.0,
	ModelLarge:  10.0,
}

// modelDegradeOrder is the order tried when a requested model doesn't fit,
// richest first so the selector only steps down as far as it needs to.
var modelDegradeOrder = []EmbeddingModel{ModelMedium, ModelSmall, ModelBase, ModelTiny}

// diarizationVRAM is the additional VRAM the speaker-diarization pass on
// transcript evidence needs alongside the embedding/transcription model.
const diarizationVRAM = 4.0

// vramBuffer is reserved headroom for everything else running on the host.
const vramBuffer = 1.0

// Settings is the adaptive selector's output: the model and concurrency a
// case's intake pipeline should run with, plus why.
type Settings struct {
	Model             EmbeddingModel
	BatchSize         int
	EnableDiarization bool
	MaxConcurrency    int
	Reason            string
}

// SelectModel picks the embedding/transcription model, batch size, and
// concurrency that fit within vramGB, applying the spec's fixed degrade
// order: reduce concurrency first, then model size, and disable
// diarization only as a last resort. userModel, if not "auto", is honored
// verbatim for the model choice (callers are expected to have already
// validated it fits their deployment).
func SelectModel(vramGB float64, userModel string, wantDiarization bool) Settings {
	model := resolveUserModel(vramGB, userModel)
	modelCost := modelVRAM[model]

	perTask := modelCost
	if wantDiarization {
		perTask += diarizationVRAM
	}
	usable := vramGB - vramBuffer

	settings := Settings{
		Model:             model,
		BatchSize:         batchSize(vramGB, model),
		EnableDiarization: wantDiarization,
		MaxConcurrency:    1,
	}

	switch {
	case perTask*2 <= usable:
		concurrency := int(vramGB / perTask)
		if concurrency > 4 {
			concurrency = 4
		}
		if concurrency < 1 {
			concurrency = 1
		}
		settings.MaxConcurrency = concurrency
		settings.Reason = fmt.Sprintf("sufficient VRAM for %d parallel tasks", concurrency)

	case perTask <= usable:
		settings.Reason = fmt.Sprintf("sequential processing required (%.1fGB VRAM, %.1fGB per task)", vramGB, perTask)

	case wantDiarization:
		if smaller, ok := fitSmallerModel(usable, diarizationVRAM); ok {
			settings.Model = smaller
			settings.BatchSize = batchSize(vramGB, smaller)
			settings.Reason = fmt.Sprintf("reduced model to %q to fit alongside diarization", smaller)
		} else {
			settings.EnableDiarization = false
			settings.Reason = fmt.Sprintf("disabled diarization - insufficient VRAM (%.1fGB) even with the smallest model", vramGB)
		}

	default:
		if modelCost <= usable {
			settings.Reason = fmt.Sprintf("sequential processing without diarization (%.1fGB VRAM)", vramGB)
		} else if smaller, ok := fitSmallerModel(usable, 0); ok {
			settings.Model = smaller
			settings.BatchSize = batchSize(vramGB, smaller)
			settings.Reason = fmt.Sprintf("reduced model to %q to fit in available VRAM", smaller)
		} else {
			settings.Reason = fmt.Sprintf("insufficient VRAM (%.1fGB) even for the smallest model", vramGB)
		}
	}

	return settings
}

func resolveUserModel(vramGB float64, userModel string) EmbeddingModel {
	if userModel != "" && userModel != "auto" {
		return EmbeddingModel(userModel)
	}
	usable := vramGB - vramBuffer
	switch {
	case usable >= 10:
		return ModelLarge
	case usable >= 5:
		return ModelMedium
	case usable >= 3:
		return ModelSmall
	case usable >= 2:
		return ModelBase
	default:
		return ModelTiny
	}
}

func fitSmallerModel(usable, extra float64) (EmbeddingModel, bool) {
	for _, m := range modelDegradeOrder {
		if modelVRAM[m]+extra <= usable {
			return m, true
		}
	}
	return "", false
}

var baseBatchSizes = map[EmbeddingModel]int{
	ModelTiny:   32,
	ModelBase:   24,
	ModelSmall:  16,
	ModelMedium: 12,
	ModelLarge:  8,
}

func batchSize(vramGB float64, model EmbeddingModel) int {
	base, ok := baseBatchSizes[model]
	if !ok {
		base = 16
	}
	switch {
	case vramGB < 4:
		if v := base / 4; v > 4 {
			return v
		}
		return 4
	case vramGB < 6:
		if v := base / 2; v > 8 {
			return v
		}
		return 8
	case vramGB < 10:
		return base
	default:
		if v := base * 2; v < 32 {
			return v
		}
		return 32
	}
}
