package services

import (
	"context"
	"time"

	"github.com/kartiksrathod/Eduu/internal/apperr"
	"github.com/kartiksrathod/Eduu/internal/models"
	"github.com/kartiksrathod/Eduu/internal/repository"
	"github.com/kartiksrathod/Eduu/internal/utils"
)

type RecentActivity struct {
	PapersThisWeek int64 `json:"papers_this_week"`
	NotesThisWeek  int64 `json:"notes_this_week"`
}

type Stats struct {
	TotalUsers     int64          `json:"total_users"`
	TotalPapers    int64          `json:"total_papers"`
	TotalNotes     int64          `json:"total_notes"`
	TotalSyllabus  int64          `json:"total_syllabus"`
	TotalBookmarks int64          `json:"total_bookmarks"`
	UserPapers     int64          `json:"user_papers"`
	UserNotes      int64          `json:"user_notes"`
	UserSyllabus   int64          `json:"user_syllabus"`
	UserBookmarks  int64          `json:"user_bookmarks"`
	RecentActivity RecentActivity `json:"recent_activity"`
}

type StatsService struct {
	users     repository.UserStore
	resources repository.Resources
	bookmarks repository.BookmarkStore
	now       func() time.Time
}

func NewStatsService(users repository.UserStore, resources repository.Resources, bookmarks repository.BookmarkStore) *StatsService {
	return &StatsService{users: users, resources: resources, bookmarks: bookmarks, now: time.Now}
}

// Stats gathers global and per-user counts concurrently.
func (s *StatsService) Stats(ctx context.Context, email string) (*Stats, error) {
	var st Stats
	weekAgo := s.now().UTC().AddDate(0, 0, -7)

	count := func(dst *int64, kind models.Kind, q repository.ResourceQuery) utils.Task {
		return func(ctx context.Context) (err error) {
			*dst, err = s.resources.For(kind).Count(ctx, q)
			return err
		}
	}
	mine := repository.ResourceQuery{UploadedBy: email}
	recent := repository.ResourceQuery{UploadedBy: email, Since: weekAgo}

	err := utils.Parallel(ctx,
		func(ctx context.Context) (err error) {
			st.TotalUsers, err = s.users.Count(ctx, repository.UserQuery{})
			return err
		},
		func(ctx context.Context) (err error) {
			st.TotalBookmarks, err = s.bookmarks.Count(ctx, "")
			return err
		},
		func(ctx context.Context) (err error) {
			st.UserBookmarks, err = s.bookmarks.Count(ctx, email)
			return err
		},
		count(&st.TotalPapers, models.KindPaper, repository.ResourceQuery{}),
		count(&st.TotalNotes, models.KindNote, repository.ResourceQuery{}),
		count(&st.TotalSyllabus, models.KindSyllabus, repository.ResourceQuery{}),
		count(&st.UserPapers, models.KindPaper, mine),
		count(&st.UserNotes, models.KindNote, mine),
		count(&st.UserSyllabus, models.KindSyllabus, mine),
		count(&st.RecentActivity.PapersThisWeek, models.KindPaper, recent),
		count(&st.RecentActivity.NotesThisWeek, models.KindNote, recent),
	)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch statistics", err)
	}
	return &st, nil
}
