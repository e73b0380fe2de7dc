package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/kinship-backend/internal/domain/learning"
)

var ProgressAggregateContract = Contract{
	Name:             "progress_ledger",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	Notes:            "Enrollment completion set, progress and status move together under a version compare-and-set.",
}

type RecordLessonCompletionInput struct {
	UserID   uuid.UUID
	CourseID uuid.UUID
	LessonID uuid.UUID
	Now      time.Time
}

type RecordLessonCompletionResult struct {
	Enrollment      *learning.Enrollment
	Progress        int
	Status          string
	CompletedAt     *time.Time
	CompletedCount  int
	TotalPublished  int
	NewlyCompleted  bool
	CourseCompleted bool
	Attempts        int
}

// ProgressAggregate owns the enrollment ledger write path.
type ProgressAggregate interface {
	Aggregate
	RecordLessonCompletion(ctx context.Context, in RecordLessonCompletionInput) (RecordLessonCompletionResult, error)
}
