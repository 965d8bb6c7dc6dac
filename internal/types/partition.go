package types

import "strings"

// Partition is a fixed domain category. Each user owns exactly one remote
// folder per partition, named after the partition.
type Partition string

const (
	PartitionNutrition      Partition = "Nutrition"
	PartitionPeptides       Partition = "Peptides"
	PartitionWorkouts       Partition = "Workouts"
	PartitionJournal        Partition = "Journal"
	PartitionVisionTraining Partition = "Vision Training"
	PartitionMemoryTraining Partition = "Memory Training"
	PartitionBreathSessions Partition = "Breath Sessions"
	PartitionSleep          Partition = "Sleep"
)

var AllPartitions = []Partition{
	PartitionNutrition,
	PartitionPeptides,
	PartitionWorkouts,
	PartitionJournal,
	PartitionVisionTraining,
	PartitionMemoryTraining,
	PartitionBreathSessions,
	PartitionSleep,
}

func (p Partition) Valid() bool {
	for _, known := range AllPartitions {
		if p == known {
			return true
		}
	}
	return false
}

func (p Partition) String() string { return string(p) }

// ParsePartition accepts the folder name or a slug ("vision_training",
// "breath-sessions"), case-insensitively.
func ParsePartition(raw string) (Partition, bool) {
	key := partitionKey(raw)
	if key == "" {
		return "", false
	}
	for _, p := range AllPartitions {
		if partitionKey(string(p)) == key {
			return p, true
		}
	}
	return "", false
}

func partitionKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
