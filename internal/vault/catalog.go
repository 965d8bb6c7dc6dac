package vault

import "github.com/yungbote/vaultvoice-backend/internal/types"

const (
	FileNutritionLog      = "nutrition_log.csv"
	FilePeptideLog        = "peptide_log.csv"
	FileWorkoutLog        = "workout_log.csv"
	FileVisionTrainingLog = "vision_training_log.csv"
	FileNBackLog          = "nback_log.csv"
	FileDigitSpanLog      = "digit_span_log.csv"
	FileBreathLog         = "breath_log.csv"
	FileSleepLog          = "sleep_log.csv"
)

// Catalog lists the structured logs that context building reads per
// partition. Journal entries are free text and are not summarized.
var Catalog = map[types.Partition][]string{
	types.PartitionNutrition:      {FileNutritionLog},
	types.PartitionPeptides:       {FilePeptideLog},
	types.PartitionWorkouts:       {FileWorkoutLog},
	types.PartitionVisionTraining: {FileVisionTrainingLog},
	types.PartitionMemoryTraining: {FileNBackLog, FileDigitSpanLog},
	types.PartitionBreathSessions: {FileBreathLog},
	types.PartitionSleep:          {FileSleepLog},
}
