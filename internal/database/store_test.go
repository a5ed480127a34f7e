package database_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/termbot/internal/database"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })
	return db
}

func newTestStore(t *testing.T) (database.Store, *fakeClock, *sqlx.DB) {
	t.Helper()
	db := openTestDB(t)
	clock := newFakeClock()
	return database.NewStore(db, nil, database.WithClock(clock.Now)), clock, db
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestGetOrCreateUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, clock, _ := newTestStore(t)

	created, err := store.GetOrCreateUser(ctx, 42, database.Identity{Username: "alice", FirstName: "Alice"})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, int64(42), created.ExternalID)
	assert.False(t, created.IsRegistered)
	assert.Equal(t, 0, created.SearchCount)
	assert.Equal(t, "alice", created.Username.String)
	assert.Equal(t, "Alice", created.FirstName.String)
	assert.True(t, created.RegistrationDate.Valid)
	assert.Equal(t, created.RegistrationDate.Time, created.LastActivity.Time)

	clock.Advance(time.Hour)
	again, err := store.GetOrCreateUser(ctx, 42, database.Identity{Username: "alice_new", FirstName: "Ignored"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "alice_new", again.Username.String)
	assert.Equal(t, "Alice", again.FirstName.String, "profile fields are not touched on contact")
	assert.Equal(t, clock.Now(), again.LastActivity.Time)
	assert.Equal(t, created.RegistrationDate.Time, again.RegistrationDate.Time)

	// An empty username keeps the stored one.
	third, err := store.GetOrCreateUser(ctx, 42, database.Identity{})
	require.NoError(t, err)
	assert.Equal(t, "alice_new", third.Username.String)
}

func TestGetOrCreateUserConcurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	const workers = 16
	ids := make([]int64, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := store.GetOrCreateUser(ctx, 7, database.Identity{Username: "racer"})
			if assert.NoError(t, err) && assert.NotNil(t, u) {
				ids[i] = u.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	users, err := store.ListUsers(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestAddSearchHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, clock, _ := newTestStore(t)

	_, err := store.GetOrCreateUser(ctx, 100, database.Identity{})
	require.NoError(t, err)

	terms := []string{"python", "golang", "sqlite", "entropy", "telegram"}
	for _, term := range terms {
		clock.Advance(time.Second)
		ok, err := store.AddSearchHistory(ctx, 100, database.SearchRecord{
			Term: term, ResultTitle: term, ResultURL: "https://example.org/" + term, Success: true,
		})
		require.NoError(t, err)
		require.True(t, ok)
	}

	user, err := store.GetUserProfile(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, len(terms), user.SearchCount)
	assert.Equal(t, clock.Now(), user.LastActivity.Time)

	history, err := store.GetSearchHistory(ctx, 100, len(terms))
	require.NoError(t, err)
	require.Len(t, history, len(terms))
	for i, entry := range history {
		assert.Equal(t, terms[len(terms)-1-i], entry.SearchTerm, "most recent first")
		assert.True(t, entry.Success)
	}

	limited, err := store.GetSearchHistory(ctx, 100, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGetSearchHistoryHonoursLargeLimits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, clock, _ := newTestStore(t)

	_, err := store.GetOrCreateUser(ctx, 42, database.Identity{})
	require.NoError(t, err)

	const n = 150
	for i := 0; i < n; i++ {
		clock.Advance(time.Second)
		_, err := store.AddSearchHistory(ctx, 42, database.SearchRecord{Term: "term"})
		require.NoError(t, err)
	}

	user, err := store.GetUserProfile(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, n, user.SearchCount)

	history, err := store.GetSearchHistory(ctx, 42, n)
	require.NoError(t, err)
	assert.Len(t, history, n)

	history, err = store.GetSearchHistory(ctx, 42, 0)
	require.NoError(t, err)
	assert.Len(t, history, 10, "non-positive limit falls back to the default")
}

func TestAddSearchHistorySameInstantOrdersByID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	_, err := store.GetOrCreateUser(ctx, 5, database.Identity{})
	require.NoError(t, err)
	for _, term := range []string{"first", "second", "third"} {
		_, err := store.AddSearchHistory(ctx, 5, database.SearchRecord{Term: term})
		require.NoError(t, err)
	}

	history, err := store.GetSearchHistory(ctx, 5, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "third", history[0].SearchTerm)
	assert.False(t, history[0].Success)
	assert.False(t, history[0].ResultTitle.Valid)
}

func TestAddSearchHistoryUnknownUser(t *testing.T) {
	t.Parallel()
	store, _, _ := newTestStore(t)

	ok, err := store.AddSearchHistory(context.Background(), 999, database.SearchRecord{Term: "x"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.AddSearchHistory(context.Background(), 999, database.SearchRecord{Term: "  "})
	assert.Error(t, err)
}

func TestUpdateUserProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, clock, _ := newTestStore(t)

	_, err := store.GetOrCreateUser(ctx, 1, database.Identity{FirstName: "Bob", LastName: "Builder"})
	require.NoError(t, err)

	t.Run("empty patch", func(t *testing.T) {
		before, err := store.GetUserProfile(ctx, 1)
		require.NoError(t, err)

		ok, err := store.UpdateUserProfile(ctx, 1, database.ProfilePatch{})
		require.NoError(t, err)
		assert.False(t, ok)

		after, err := store.GetUserProfile(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("unknown user", func(t *testing.T) {
		ok, err := store.UpdateUserProfile(ctx, 404, database.ProfilePatch{Age: intPtr(30)})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("single field", func(t *testing.T) {
		clock.Advance(time.Minute)
		ok, err := store.UpdateUserProfile(ctx, 1, database.ProfilePatch{Email: strPtr("bob@example.com")})
		require.NoError(t, err)
		assert.True(t, ok)

		user, err := store.GetUserProfile(ctx, 1)
		require.NoError(t, err)
		assert.True(t, user.IsRegistered)
		assert.Equal(t, "bob@example.com", user.Email.String)
		assert.Equal(t, "Bob", user.FirstName.String)
		assert.Equal(t, "Builder", user.LastName.String)
		assert.False(t, user.Age.Valid)
		assert.Equal(t, clock.Now(), user.LastActivity.Time)
	})

	t.Run("all fields", func(t *testing.T) {
		ok, err := store.UpdateUserProfile(ctx, 1, database.ProfilePatch{
			FirstName: strPtr("Robert"),
			LastName:  strPtr("B."),
			Email:     strPtr("robert@example.com"),
			Age:       intPtr(41),
		})
		require.NoError(t, err)
		assert.True(t, ok)

		user, err := store.GetUserProfile(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Robert", user.FirstName.String)
		assert.Equal(t, int64(41), user.Age.Int64)
		assert.True(t, user.IsRegistered)
	})
}

func TestDeleteUserData(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	_, err := store.GetOrCreateUser(ctx, 9, database.Identity{})
	require.NoError(t, err)
	_, err = store.GetOrCreateUser(ctx, 10, database.Identity{})
	require.NoError(t, err)
	for range 5 {
		_, err := store.AddSearchHistory(ctx, 9, database.SearchRecord{Term: "go", Success: true})
		require.NoError(t, err)
	}
	_, err = store.AddSearchHistory(ctx, 10, database.SearchRecord{Term: "keep"})
	require.NoError(t, err)

	ok, err := store.DeleteUserData(ctx, 9)
	require.NoError(t, err)
	assert.True(t, ok)

	user, err := store.GetUserProfile(ctx, 9)
	require.NoError(t, err)
	assert.Nil(t, user)

	history, err := store.GetSearchHistory(ctx, 9, 100)
	require.NoError(t, err)
	assert.Empty(t, history)

	stats, err := store.GetBotStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalUsers)
	assert.Equal(t, 1, stats.TotalSearches, "other users' history survives")

	ok, err = store.DeleteUserData(ctx, 9)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetBotStatsActiveUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, clock, _ := newTestStore(t)
	now := clock.Now()

	for _, id := range []int64{1, 2, 3} {
		_, err := store.GetOrCreateUser(ctx, id, database.Identity{})
		require.NoError(t, err)
	}

	clock.Set(now.AddDate(0, 0, -40))
	_, err := store.AddSearchHistory(ctx, 2, database.SearchRecord{Term: "old"})
	require.NoError(t, err)

	clock.Set(now.Add(-time.Hour))
	_, err = store.AddSearchHistory(ctx, 1, database.SearchRecord{Term: "fresh", Success: true})
	require.NoError(t, err)

	clock.Set(now)
	stats, err := store.GetBotStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 1, stats.ActiveUsers)
	assert.Equal(t, 2, stats.TotalSearches)
	assert.Equal(t, 1, stats.SuccessfulSearches)
}

func TestStatsScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, clock, _ := newTestStore(t)

	_, err := store.GetOrCreateUser(ctx, 42, database.Identity{Username: "u42"})
	require.NoError(t, err)

	_, err = store.AddSearchHistory(ctx, 42, database.SearchRecord{
		Term: "entropy", ResultTitle: "Entropy", ResultURL: "https://en.wikipedia.org/wiki/Entropy", Success: true,
	})
	require.NoError(t, err)
	clock.Advance(26 * time.Hour)
	_, err = store.AddSearchHistory(ctx, 42, database.SearchRecord{Term: "entropy", Success: false})
	require.NoError(t, err)

	stats, err := store.GetBotStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSearches)
	assert.Equal(t, 1, stats.SuccessfulSearches)
	assert.Equal(t, []database.TermCount{{Term: "entropy", Count: 2}}, stats.PopularTerms)

	userStats, err := store.GetUserStats(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, userStats)
	assert.Equal(t, 2, userStats.TotalSearches)
	assert.Equal(t, 1, userStats.SuccessfulSearches)
	assert.Equal(t, "01.06.2024", userStats.FirstSearch)
	assert.Equal(t, "02.06.2024 14:00", userStats.LastSearch)
	assert.Equal(t, []database.TermCount{{Term: "entropy", Count: 2}}, userStats.PopularTerms)
	assert.Equal(t, 2, userStats.User.SearchCount)
}

func TestGetUserStatsEdgeCases(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	missing, err := store.GetUserStats(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = store.GetOrCreateUser(ctx, 1, database.Identity{})
	require.NoError(t, err)
	empty, err := store.GetUserStats(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, empty)
	assert.Zero(t, empty.TotalSearches)
	assert.Empty(t, empty.FirstSearch)
	assert.Empty(t, empty.LastSearch)
	assert.Empty(t, empty.PopularTerms)
}

func TestPopularTermsTieBreak(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	_, err := store.GetOrCreateUser(ctx, 3, database.Identity{})
	require.NoError(t, err)
	for _, term := range []string{"zeta", "alpha", "mu", "alpha", "zeta"} {
		_, err := store.AddSearchHistory(ctx, 3, database.SearchRecord{Term: term})
		require.NoError(t, err)
	}

	stats, err := store.GetBotStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []database.TermCount{
		{Term: "alpha", Count: 2},
		{Term: "zeta", Count: 2},
		{Term: "mu", Count: 1},
	}, stats.PopularTerms)
}

func TestCleanupOldData(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, clock, _ := newTestStore(t)
	now := clock.Now()
	cutoff := now.AddDate(0, 0, -365)

	_, err := store.GetOrCreateUser(ctx, 8, database.Identity{})
	require.NoError(t, err)

	at := map[string]time.Time{
		"way-older":  cutoff.AddDate(0, 0, -1),
		"just-older": cutoff.Add(-time.Microsecond),
		"at-cutoff":  cutoff,
		"newer":      cutoff.Add(time.Hour),
	}
	for term, ts := range at {
		clock.Set(ts)
		_, err := store.AddSearchHistory(ctx, 8, database.SearchRecord{Term: term})
		require.NoError(t, err)
	}

	clock.Set(now)
	deleted, err := store.CleanupOldData(ctx, 365)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	history, err := store.GetSearchHistory(ctx, 8, 10)
	require.NoError(t, err)
	var remaining []string
	for _, h := range history {
		remaining = append(remaining, h.SearchTerm)
	}
	assert.ElementsMatch(t, []string{"at-cutoff", "newer"}, remaining)

	user, err := store.GetUserProfile(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, 4, user.SearchCount, "search_count is not reconciled by the sweep")

	_, err = store.CleanupOldData(ctx, -1)
	assert.Error(t, err)
}

func TestLegacyTimestampsAreReadable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _, db := newTestStore(t)

	user, err := store.GetOrCreateUser(ctx, 11, database.Identity{})
	require.NoError(t, err)

	for _, raw := range []string{"2023-03-04T05:06:07.123456", "2023-03-04 05:06", "garbage"} {
		_, err := db.Exec(`INSERT INTO search_history (user_id, search_term, timestamp, success) VALUES (?, ?, ?, 1)`,
			user.ID, raw, raw)
		require.NoError(t, err)
	}

	history, err := store.GetSearchHistory(ctx, 11, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)

	byTerm := map[string]database.Timestamp{}
	for _, h := range history {
		byTerm[h.SearchTerm] = h.Timestamp
	}
	assert.True(t, byTerm["2023-03-04T05:06:07.123456"].Valid)
	assert.Equal(t, 5, byTerm["2023-03-04 05:06"].Time.Hour())
	assert.False(t, byTerm["garbage"].Valid)
	assert.Equal(t, "garbage", byTerm["garbage"].String())
}

func TestListUsersAndLookups(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, clock, _ := newTestStore(t)

	for _, id := range []int64{1, 2, 3} {
		clock.Advance(time.Minute)
		_, err := store.GetOrCreateUser(ctx, id, database.Identity{})
		require.NoError(t, err)
	}
	clock.Advance(time.Minute)
	ok, err := store.TouchLastActivity(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.TouchLastActivity(ctx, 77)
	require.NoError(t, err)
	assert.False(t, ok)

	users, err := store.ListUsers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, []int64{1, 3, 2}, []int64{users[0].ExternalID, users[1].ExternalID, users[2].ExternalID})

	byID, err := store.GetUserByID(ctx, users[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), byID.ExternalID)

	none, err := store.GetUserByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestGetRecentSearches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, clock, _ := newTestStore(t)
	now := clock.Now()

	_, err := store.GetOrCreateUser(ctx, 1, database.Identity{Username: "one"})
	require.NoError(t, err)

	clock.Set(now.Add(-48 * time.Hour))
	_, err = store.AddSearchHistory(ctx, 1, database.SearchRecord{Term: "stale"})
	require.NoError(t, err)
	clock.Set(now.Add(-time.Hour))
	_, err = store.AddSearchHistory(ctx, 1, database.SearchRecord{Term: "recent"})
	require.NoError(t, err)

	clock.Set(now)
	recent, err := store.GetRecentSearches(ctx, 24, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "recent", recent[0].SearchTerm)
	assert.Equal(t, "one", recent[0].Username.String)
	assert.Equal(t, int64(1), recent[0].ExternalID)
}

func TestNormalizeTimestamps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, clock, db := newTestStore(t)

	_, err := store.GetOrCreateUser(ctx, 12, database.Identity{})
	require.NoError(t, err)
	user, err := store.GetUserProfile(ctx, 12)
	require.NoError(t, err)

	clock.Set(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC))
	_, err = store.AddSearchHistory(ctx, 12, database.SearchRecord{Term: "canonical"})
	require.NoError(t, err)

	legacy := map[string]string{
		"t-separator": "2024-03-04T05:06:07.123456",
		"zoned":       "2024-03-04T12:00:00+05:00",
		"garbage":     "garbage",
	}
	for term, raw := range legacy {
		_, err := db.Exec(`INSERT INTO search_history (user_id, search_term, timestamp, success) VALUES (?, ?, ?, 0)`,
			user.ID, term, raw)
		require.NoError(t, err)
	}
	_, err = db.Exec(`UPDATE users SET registration_date = ? WHERE id = ?`, "2024-03-01", user.ID)
	require.NoError(t, err)

	changed, err := store.NormalizeTimestamps(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), changed)

	stored := map[string]string{}
	rows, err := db.Queryx(`SELECT search_term, timestamp FROM search_history`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var term, ts string
		require.NoError(t, rows.Scan(&term, &ts))
		stored[term] = ts
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, "2024-03-04 05:06:07.123456", stored["t-separator"])
	assert.Equal(t, "2024-03-04 07:00:00.000000", stored["zoned"])
	assert.Equal(t, "garbage", stored["garbage"])

	history, err := store.GetSearchHistory(ctx, 12, 10)
	require.NoError(t, err)
	var order []string
	for _, h := range history {
		order = append(order, h.SearchTerm)
	}
	assert.Equal(t, []string{"garbage", "canonical", "zoned", "t-separator"}, order)

	again, err := store.NormalizeTimestamps(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()
	store, _, _ := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.GetOrCreateUser(ctx, 1, database.Identity{})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.GetBotStats(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMaintenanceAndPing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.RunSQLMaintenance(ctx))
}
