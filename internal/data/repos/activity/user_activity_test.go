package activity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/kinship-backend/internal/data/repos/testutil"
	types "github.com/yungbote/kinship-backend/internal/domain"
)

func TestUserActivityRepo_RecordIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewUserActivityRepo(db, testutil.Logger(t))

	userID, lessonID, courseID := uuid.New(), uuid.New(), uuid.New()
	row := func() *types.UserActivity {
		return &types.UserActivity{
			UserID:    userID,
			Kind:      types.ActivityLessonCompleted,
			EntityID:  &lessonID,
			ScopeID:   &courseID,
			DedupeKey: lessonID.String(),
		}
	}

	inserted, err := repo.Record(ctx, tx, row())
	if err != nil || !inserted {
		t.Fatalf("Record first: inserted=%v err=%v", inserted, err)
	}
	inserted, err = repo.Record(ctx, tx, row())
	if err != nil || inserted {
		t.Fatalf("Record replay: want inserted=false err=nil got=%v,%v", inserted, err)
	}

	n, err := repo.Count(ctx, tx, CountFilter{UserID: userID, Kind: types.ActivityLessonCompleted})
	if err != nil || n != 1 {
		t.Fatalf("Count: want=1 got=%d err=%v", n, err)
	}
	n, err = repo.Count(ctx, tx, CountFilter{UserID: userID, Kind: types.ActivityLessonCompleted, ScopeID: uuid.New()})
	if err != nil || n != 0 {
		t.Fatalf("Count other scope: want=0 got=%d err=%v", n, err)
	}
	n, err = repo.Count(ctx, tx, CountFilter{UserID: userID, Kind: types.ActivityLessonCompleted, EntityID: lessonID, ScopeID: courseID})
	if err != nil || n != 1 {
		t.Fatalf("Count entity+scope: want=1 got=%d err=%v", n, err)
	}
}

func TestUserActivityRepo_ListDedupeKeys(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewUserActivityRepo(db, testutil.Logger(t))

	userID := uuid.New()
	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	for _, d := range []int{0, 2, 1} {
		at := base.AddDate(0, 0, d)
		testutil.SeedActivity(t, ctx, tx, userID, types.ActivityLogin, nil, nil, at.Format("2006-01-02"), at)
	}
	testutil.SeedActivity(t, ctx, tx, uuid.New(), types.ActivityLogin, nil, nil, "2024-05-20", base)

	keys, err := repo.ListDedupeKeys(ctx, tx, userID, types.ActivityLogin, 0)
	if err != nil {
		t.Fatalf("ListDedupeKeys: %v", err)
	}
	want := []string{"2024-05-12", "2024-05-11", "2024-05-10"}
	if len(keys) != len(want) {
		t.Fatalf("ListDedupeKeys: want=%v got=%v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("ListDedupeKeys[%d]: want=%s got=%s", i, want[i], keys[i])
		}
	}
}
