package database

import (
	"database/sql"
	"strconv"
)

// User is a chat participant known to the bot. ExternalID is the platform
// user id and never changes after creation.
type User struct {
	ID               int64          `db:"id"`
	ExternalID       int64          `db:"external_id"`
	Username         sql.NullString `db:"username"`
	FirstName        sql.NullString `db:"first_name"`
	LastName         sql.NullString `db:"last_name"`
	Email            sql.NullString `db:"email"`
	Age              sql.NullInt64  `db:"age"`
	IsRegistered     bool           `db:"is_registered"`
	RegistrationDate Timestamp      `db:"registration_date"`
	LastActivity     Timestamp      `db:"last_activity"`
	SearchCount      int            `db:"search_count"`
}

// DisplayName is the first name, falling back to the username and then the id.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName.Valid && u.FirstName.String != "":
		return u.FirstName.String
	case u.Username.Valid && u.Username.String != "":
		return u.Username.String
	default:
		return "ID " + strconv.FormatInt(u.ExternalID, 10)
	}
}

// SearchHistoryEntry is one recorded search attempt. Entries are immutable.
type SearchHistoryEntry struct {
	ID          int64          `db:"id"`
	UserID      int64          `db:"user_id"`
	SearchTerm  string         `db:"search_term"`
	ResultTitle sql.NullString `db:"result_title"`
	ResultURL   sql.NullString `db:"result_url"`
	Timestamp   Timestamp      `db:"timestamp"`
	Success     bool           `db:"success"`
}

// RecentSearch is a history entry joined with the searching user.
type RecentSearch struct {
	SearchHistoryEntry
	ExternalID int64          `db:"external_id"`
	Username   sql.NullString `db:"username"`
	FirstName  sql.NullString `db:"first_name"`
}

// Identity carries the platform facts supplied on every contact.
type Identity struct {
	Username  string
	FirstName string
	LastName  string
}

// SearchRecord is the input to AddSearchHistory.
type SearchRecord struct {
	Term        string
	ResultTitle string
	ResultURL   string
	Success     bool
}

// TermCount is a search term with the number of times it was searched.
type TermCount struct {
	Term  string `db:"search_term"`
	Count int    `db:"count"`
}

// BotStats aggregates usage across all users.
type BotStats struct {
	TotalUsers         int
	ActiveUsers        int
	TotalSearches      int
	SuccessfulSearches int
	PopularTerms       []TermCount
}

// UserStats summarises a single user's search activity. FirstSearch and
// LastSearch are preformatted; both are empty when the user has no history.
type UserStats struct {
	User               *User
	TotalSearches      int
	SuccessfulSearches int
	FirstSearch        string
	LastSearch         string
	PopularTerms       []TermCount
}
