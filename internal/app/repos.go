package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/kinship-backend/internal/data/repos"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

type Repos struct {
	UserIdentity        repos.UserIdentityRepo
	Course              repos.CourseRepo
	Lesson              repos.LessonRepo
	Enrollment          repos.EnrollmentRepo
	CertificateTemplate repos.CertificateTemplateRepo
	Certificate         repos.CertificateRepo
	Badge               repos.BadgeRepo
	UserBadge           repos.UserBadgeRepo
	UserActivity        repos.UserActivityRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		UserIdentity:        repos.NewUserIdentityRepo(db, log),
		Course:              repos.NewCourseRepo(db, log),
		Lesson:              repos.NewLessonRepo(db, log),
		Enrollment:          repos.NewEnrollmentRepo(db, log),
		CertificateTemplate: repos.NewCertificateTemplateRepo(db, log),
		Certificate:         repos.NewCertificateRepo(db, log),
		Badge:               repos.NewBadgeRepo(db, log),
		UserBadge:           repos.NewUserBadgeRepo(db, log),
		UserActivity:        repos.NewUserActivityRepo(db, log),
	}
}
