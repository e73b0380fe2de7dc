package repos

import (
	"github.com/yungbote/kinship-backend/internal/data/repos/achievements"
	"github.com/yungbote/kinship-backend/internal/data/repos/activity"
	"github.com/yungbote/kinship-backend/internal/data/repos/auth"
	"github.com/yungbote/kinship-backend/internal/data/repos/learning"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type UserIdentityRepo = auth.UserIdentityRepo

type CourseRepo = learning.CourseRepo
type LessonRepo = learning.LessonRepo
type EnrollmentRepo = learning.EnrollmentRepo
type EnrollmentFilter = learning.EnrollmentFilter

type CertificateTemplateRepo = achievements.CertificateTemplateRepo
type CertificateRepo = achievements.CertificateRepo
type BadgeRepo = achievements.BadgeRepo
type UserBadgeRepo = achievements.UserBadgeRepo

type UserActivityRepo = activity.UserActivityRepo
type ActivityCountFilter = activity.CountFilter

func NewUserIdentityRepo(db *gorm.DB, baseLog *logger.Logger) UserIdentityRepo {
	return auth.NewUserIdentityRepo(db, baseLog)
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return learning.NewCourseRepo(db, baseLog)
}
func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return learning.NewLessonRepo(db, baseLog)
}
func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return learning.NewEnrollmentRepo(db, baseLog)
}

func NewCertificateTemplateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateTemplateRepo {
	return achievements.NewCertificateTemplateRepo(db, baseLog)
}
func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return achievements.NewCertificateRepo(db, baseLog)
}
func NewBadgeRepo(db *gorm.DB, baseLog *logger.Logger) BadgeRepo {
	return achievements.NewBadgeRepo(db, baseLog)
}
func NewUserBadgeRepo(db *gorm.DB, baseLog *logger.Logger) UserBadgeRepo {
	return achievements.NewUserBadgeRepo(db, baseLog)
}

func NewUserActivityRepo(db *gorm.DB, baseLog *logger.Logger) UserActivityRepo {
	return activity.NewUserActivityRepo(db, baseLog)
}
