package entity

type Step string

const (
	StepStart         Step = "start"
	StepMetadata      Step = "metadata"
	StepProcessing    Step = "processing"
	StepContent       Step = "content"
	StepTranscription Step = "transcription"
	StepAI            Step = "ai"
	StepSaving        Step = "saving"
	StepComplete      Step = "complete"
	StepError         Step = "error"
)

// ErrorKind classifies a fatal pipeline failure for the client.
type ErrorKind string

const (
	ErrorKindExtraction  ErrorKind = "extraction_failed"
	ErrorKindPersistence ErrorKind = "persistence_failed"
)

// ExtractionResult is the success payload of a finished pipeline.
type ExtractionResult struct {
	RecipeID string     `json:"recipeId"`
	Recipe   RecipeJSON `json:"recipe"`
}

// ExtractionFailure is the error payload of a failed pipeline.
type ExtractionFailure struct {
	ErrorKind ErrorKind `json:"errorKind"`
	Message   string    `json:"message"`
}

// ProgressEvent is one message on the progress channel. The last event of a
// run carries either Result or Failure.
type ProgressEvent struct {
	Step                  Step               `json:"step"`
	Progress              int                `json:"progress"`
	Message               string             `json:"message"`
	ElapsedSeconds        int                `json:"elapsedSeconds"`
	EstimatedTotalSeconds int                `json:"estimatedTotalSeconds"`
	Result                *ExtractionResult  `json:"result,omitempty"`
	Failure               *ExtractionFailure `json:"failure,omitempty"`
}

func (e ProgressEvent) Terminal() bool {
	return e.Result != nil || e.Failure != nil
}
