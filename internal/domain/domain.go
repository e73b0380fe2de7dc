package domain

import (
	"github.com/yungbote/kinship-backend/internal/domain/achievements"
	"github.com/yungbote/kinship-backend/internal/domain/activity"
	"github.com/yungbote/kinship-backend/internal/domain/auth"
	"github.com/yungbote/kinship-backend/internal/domain/learning"
)

type Course = learning.Course
type Lesson = learning.Lesson
type Enrollment = learning.Enrollment

type CertificateTemplate = achievements.CertificateTemplate
type Certificate = achievements.Certificate
type Badge = achievements.Badge
type UserBadge = achievements.UserBadge
type TriggerType = achievements.TriggerType

type UserActivity = activity.UserActivity
type ActivityKind = activity.Kind

type UserIdentity = auth.UserIdentity

const (
	CourseStatusDraft     = learning.CourseStatusDraft
	CourseStatusPublished = learning.CourseStatusPublished
	CourseStatusArchived  = learning.CourseStatusArchived

	LessonStatusDraft     = learning.LessonStatusDraft
	LessonStatusPublished = learning.LessonStatusPublished

	EnrollmentStatusActive    = learning.EnrollmentStatusActive
	EnrollmentStatusCompleted = learning.EnrollmentStatusCompleted
	EnrollmentStatusExpired   = learning.EnrollmentStatusExpired

	CertificateStatusActive  = achievements.CertificateStatusActive
	CertificateStatusRevoked = achievements.CertificateStatusRevoked

	TriggerManual           = achievements.TriggerManual
	TriggerCourseCompletion = achievements.TriggerCourseCompletion
	TriggerLessonCompletion = achievements.TriggerLessonCompletion
	TriggerLoginStreak      = achievements.TriggerLoginStreak
	TriggerCommunityPost    = achievements.TriggerCommunityPost
	TriggerCommentCount     = achievements.TriggerCommentCount

	RarityCommon    = achievements.RarityCommon
	RarityUncommon  = achievements.RarityUncommon
	RarityRare      = achievements.RarityRare
	RarityEpic      = achievements.RarityEpic
	RarityLegendary = achievements.RarityLegendary

	ActivityLessonCompleted = activity.KindLessonCompleted
	ActivityCourseCompleted = activity.KindCourseCompleted
	ActivityLogin           = activity.KindLogin
	ActivityCommunityPost   = activity.KindCommunityPost
	ActivityComment         = activity.KindComment
)

// Models lists every persisted model, in migration order.
func Models() []interface{} {
	return []interface{}{
		&UserIdentity{},
		&Course{},
		&Lesson{},
		&Enrollment{},
		&CertificateTemplate{},
		&Certificate{},
		&Badge{},
		&UserBadge{},
		&UserActivity{},
	}
}

// ComputeProgress returns round(100*completed/total) clamped to [0,100].
func ComputeProgress(completed, total int) int {
	return learning.ComputeProgress(completed, total)
}
