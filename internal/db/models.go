package db

type Note struct {
	ID             string
	Keyword        string
	Title          string
	Description    string
	Kind           string
	Nickname       string
	UserID         string
	LikedCount     string
	CommentCount   string
	CollectedCount string
	CoverUrl       string
	SourceUrl      string
	FirstSeenAt    int64
	LastSeenAt     int64
}

type SearchLog struct {
	ID              int64
	Keyword         string
	SortMode        string
	Page            int64
	PageSize        int64
	ResultCount     int64
	IsSynthetic     bool
	FailureCategory string
	TopNoteIds      string
	CreatedAt       int64
}

type LikeAlert struct {
	NoteID     string
	LikedCount int64
	CreatedAt  int64
}
