package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/kinship-backend/internal/data/repos/testutil"
	types "github.com/yungbote/kinship-backend/internal/domain"
	domainagg "github.com/yungbote/kinship-backend/internal/domain/aggregates"
	"github.com/yungbote/kinship-backend/internal/domain/events"
)

func TestEvaluateTriggersCourseSpecificBadge(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	courseX, courseY := uuid.New(), uuid.New()
	badge := testutil.SeedBadge(t, ctx, h.db, types.TriggerCourseCompletion, 1, testutil.PtrUUID(courseX))

	cases := []struct {
		name      string
		completed uuid.UUID
		want      int
	}{
		{name: "other course", completed: courseY, want: 0},
		{name: "matching course", completed: courseX, want: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			userID := uuid.New()
			testutil.SeedActivity(t, ctx, h.db, userID, types.ActivityCourseCompleted, testutil.PtrUUID(tc.completed), nil, tc.completed.String(), time.Now())
			awards, err := h.badges.EvaluateTriggers(ctx, userID, types.TriggerCourseCompletion, TriggerContext{CourseID: tc.completed})
			if err != nil {
				t.Fatalf("EvaluateTriggers: %v", err)
			}
			if len(awards) != tc.want {
				t.Fatalf("awards: want=%d got=%d", tc.want, len(awards))
			}
			if n := heldBadgeCount(t, h, userID, badge.ID); n != tc.want {
				t.Fatalf("user badges: want=%d got=%d", tc.want, n)
			}
		})
	}
}

func TestEvaluateTriggersRequirementThreshold(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	badge := testutil.SeedBadge(t, ctx, h.db, types.TriggerLessonCompletion, 3, nil)

	for i := 1; i <= 3; i++ {
		lessonID := uuid.New()
		testutil.SeedActivity(t, ctx, h.db, userID, types.ActivityLessonCompleted, testutil.PtrUUID(lessonID), nil, lessonID.String(), time.Now())
		awards, err := h.badges.EvaluateTriggers(ctx, userID, types.TriggerLessonCompletion, TriggerContext{LessonID: lessonID})
		if err != nil {
			t.Fatalf("EvaluateTriggers #%d: %v", i, err)
		}
		want := 0
		if i == 3 {
			want = 1
		}
		if len(awards) != want {
			t.Fatalf("after %d lessons: want=%d awards got=%d", i, want, len(awards))
		}
		if want == 1 {
			ub := awards[0].UserBadge
			if ub.BadgeID != badge.ID || ub.PointsAwarded != badge.Points {
				t.Fatalf("award mismatch: %+v", ub)
			}
			if ub.SourceEntityID == nil || *ub.SourceEntityID != lessonID {
				t.Fatalf("source entity: want=%s got=%v", lessonID, ub.SourceEntityID)
			}
		}
	}

	// Already held: a fourth lesson awards nothing more.
	extra := uuid.New()
	testutil.SeedActivity(t, ctx, h.db, userID, types.ActivityLessonCompleted, testutil.PtrUUID(extra), nil, extra.String(), time.Now())
	awards, err := h.badges.EvaluateTriggers(ctx, userID, types.TriggerLessonCompletion, TriggerContext{LessonID: extra})
	if err != nil || len(awards) != 0 {
		t.Fatalf("held badge: want no awards got (%d,%v)", len(awards), err)
	}
	if n := h.events.count(events.KindBadgeAwarded); n != 1 {
		t.Fatalf("badge events: want=1 got=%d", n)
	}
}

func TestEvaluateTriggersManualAndValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	testutil.SeedBadge(t, ctx, h.db, types.TriggerManual, 1, nil)

	awards, err := h.badges.EvaluateTriggers(ctx, uuid.New(), types.TriggerManual, TriggerContext{})
	if err != nil || awards != nil {
		t.Fatalf("manual: want (nil,nil) got (%v,%v)", awards, err)
	}
	if _, err := h.badges.EvaluateTriggers(ctx, uuid.New(), "weekly_streak", TriggerContext{}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("unknown trigger: want validation got=%v", err)
	}
	if _, err := h.badges.EvaluateTriggers(ctx, uuid.Nil, types.TriggerLoginStreak, TriggerContext{}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("nil user: want validation got=%v", err)
	}
}

func TestEvaluateTriggersConcurrentDuplicateAwards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID, courseID := uuid.New(), uuid.New()
	badge := testutil.SeedBadge(t, ctx, h.db, types.TriggerCourseCompletion, 1, nil)
	testutil.SeedActivity(t, ctx, h.db, userID, types.ActivityCourseCompleted, testutil.PtrUUID(courseID), nil, courseID.String(), time.Now())

	const callers = 10
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		total  int
		failed []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			awards, err := h.badges.EvaluateTriggers(ctx, userID, types.TriggerCourseCompletion, TriggerContext{CourseID: courseID})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, err)
			}
			total += len(awards)
		}()
	}
	wg.Wait()

	if len(failed) > 0 {
		t.Fatalf("callers saw errors: %v", failed)
	}
	if total != 1 {
		t.Fatalf("awards reported: want=1 got=%d", total)
	}
	if n := heldBadgeCount(t, h, userID, badge.ID); n != 1 {
		t.Fatalf("user badges: want=1 got=%d", n)
	}
}

func TestAwardReportsDuplicateAward(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	badge := testutil.SeedBadge(t, ctx, h.db, types.TriggerCommentCount, 1, nil)
	svc := h.badges.(*badgeService)

	if _, err := svc.award(ctx, userID, badge, types.TriggerCommentCount, TriggerContext{}); err != nil {
		t.Fatalf("first award: %v", err)
	}
	_, err := svc.award(ctx, userID, badge, types.TriggerCommentCount, TriggerContext{})
	if !errors.Is(err, domainagg.ErrDuplicateAward) {
		t.Fatalf("second award: want ErrDuplicateAward got=%v", err)
	}
	if n := heldBadgeCount(t, h, userID, badge.ID); n != 1 {
		t.Fatalf("user badges: want=1 got=%d", n)
	}
}

func TestEvaluateTriggersScopedCommunityBadge(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID, groupA, groupB := uuid.New(), uuid.New(), uuid.New()
	testutil.SeedBadge(t, ctx, h.db, types.TriggerCommunityPost, 2, testutil.PtrUUID(groupA))

	post := func(scope uuid.UUID) []Award {
		t.Helper()
		id := uuid.New()
		testutil.SeedActivity(t, ctx, h.db, userID, types.ActivityCommunityPost, testutil.PtrUUID(id), testutil.PtrUUID(scope), id.String(), time.Now())
		awards, err := h.badges.EvaluateTriggers(ctx, userID, types.TriggerCommunityPost, TriggerContext{EntityID: id, ScopeID: scope})
		if err != nil {
			t.Fatalf("EvaluateTriggers: %v", err)
		}
		return awards
	}
	if got := post(groupA); len(got) != 0 {
		t.Fatalf("one post in scope: want no award")
	}
	if got := post(groupB); len(got) != 0 {
		t.Fatalf("post in other scope: want no award")
	}
	if got := post(groupA); len(got) != 1 {
		t.Fatalf("second post in scope: want award got=%d", len(got))
	}
}

func TestCurrentLoginStreak(t *testing.T) {
	march5 := time.Date(2026, 3, 5, 15, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		keys []string
		now  time.Time
		want int
	}{
		{name: "none", keys: nil, now: march5, want: 0},
		{name: "single", keys: []string{"2026-03-05"}, now: march5, want: 1},
		{name: "run of three", keys: []string{"2026-03-05", "2026-03-04", "2026-03-03"}, now: march5, want: 3},
		{name: "gap ends run", keys: []string{"2026-03-05", "2026-03-04", "2026-03-01", "2026-02-28"}, now: march5, want: 2},
		{name: "month boundary", keys: []string{"2026-03-01", "2026-02-28", "2026-02-27"}, now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), want: 3},
		{name: "duplicate day ignored", keys: []string{"2026-03-05", "2026-03-05", "2026-03-04"}, now: march5, want: 2},
		{name: "malformed head", keys: []string{"yesterday"}, now: march5, want: 0},
		{name: "ends yesterday", keys: []string{"2026-03-04", "2026-03-03"}, now: march5, want: 2},
		{name: "stale run", keys: []string{"2026-03-03", "2026-03-02", "2026-03-01"}, now: march5, want: 0},
		{name: "future head", keys: []string{"2026-03-06", "2026-03-05"}, now: march5, want: 0},
		{name: "non-utc clock", keys: []string{"2026-03-05"}, now: time.Date(2026, 3, 5, 20, 0, 0, 0, time.FixedZone("EST", -5*3600)), want: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CurrentLoginStreak(tc.keys, tc.now); got != tc.want {
				t.Fatalf("want=%d got=%d", tc.want, got)
			}
		})
	}
}

func TestListMineAndMarkSeen(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	for i := 0; i < 2; i++ {
		courseID := uuid.New()
		testutil.SeedBadge(t, ctx, h.db, types.TriggerCourseCompletion, 1, testutil.PtrUUID(courseID))
		testutil.SeedActivity(t, ctx, h.db, userID, types.ActivityCourseCompleted, testutil.PtrUUID(courseID), nil, courseID.String(), time.Now())
		if _, err := h.badges.EvaluateTriggers(ctx, userID, types.TriggerCourseCompletion, TriggerContext{CourseID: courseID}); err != nil {
			t.Fatalf("EvaluateTriggers: %v", err)
		}
	}

	mine, err := h.badges.ListMine(ctx, userID)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine.Badges) != 2 || mine.Unseen != 2 || mine.TotalPoints != 20 {
		t.Fatalf("ListMine: want 2 badges, 2 unseen, 20 points got %d/%d/%d", len(mine.Badges), mine.Unseen, mine.TotalPoints)
	}
	if mine.Badges[0].Badge == nil {
		t.Fatalf("badge definition not preloaded")
	}

	n, err := h.badges.MarkSeen(ctx, userID, []uuid.UUID{mine.Badges[0].BadgeID})
	if err != nil || n != 1 {
		t.Fatalf("MarkSeen one: want 1 got (%d,%v)", n, err)
	}
	n, err = h.badges.MarkSeen(ctx, userID, nil)
	if err != nil || n != 1 {
		t.Fatalf("MarkSeen rest: want 1 got (%d,%v)", n, err)
	}
	mine, err = h.badges.ListMine(ctx, userID)
	if err != nil || mine.Unseen != 0 {
		t.Fatalf("after MarkSeen: want 0 unseen got (%v,%v)", mine, err)
	}
}
