// Package protocol implements the marker-delimited output contract used to get
// structured answers out of a free-form text generator, together with the
// extraction and recovery logic that tolerates generators which ignore it.
package protocol

// Block sentinels. These literals are part of the contract with the model and
// must stay stable across versions.
const (
	AnalysisStart     = "=== ANALYSIS START ==="
	AnalysisEnd       = "=== ANALYSIS END ==="
	ModificationStart = "=== MODIFIED RESUME START ==="
	ModificationEnd   = "=== MODIFIED RESUME END ==="
	EssayStart        = "=== ESSAY START ==="
	EssayEnd          = "=== ESSAY END ==="

	// QuestionPrefix marks an essay response that asks the user for details
	// instead of answering.
	QuestionPrefix = "QUESTION:"
)

// Block is a start/end sentinel pair enclosing one structured answer.
type Block struct {
	Start string
	End   string
}

var (
	AnalysisBlock     = Block{Start: AnalysisStart, End: AnalysisEnd}
	ModificationBlock = Block{Start: ModificationStart, End: ModificationEnd}
	EssayBlock        = Block{Start: EssayStart, End: EssayEnd}
)

// Wrap encloses content in the block sentinels, one per line.
func (b Block) Wrap(content string) string {
	return b.Start + "\n" + content + "\n" + b.End
}

// TaskKind identifies which orchestrator produced a response and therefore
// which block(s) the response is expected to carry.
type TaskKind string

const (
	TaskAnalysis     TaskKind = "analysis"
	TaskModification TaskKind = "modification"
	TaskEssay        TaskKind = "essay"
	TaskExplanation  TaskKind = "explanation"
)

// Valid reports whether k is one of the known task kinds.
func (k TaskKind) Valid() bool {
	switch k {
	case TaskAnalysis, TaskModification, TaskEssay, TaskExplanation:
		return true
	}
	return false
}
