package prompt

type PrimarySystemData struct {
	MaxItems int
}

type RelatedLine struct {
	Title string
	Views uint64
	Age   string
}

type PrimaryUserData struct {
	Title       string
	Description string
	Tags        []string
	Category    string
	Duration    string
	PublishedAt string
	Views       uint64
	Likes       uint64
	Comments    uint64
	Range       string
	Related     []RelatedLine
}

type CommentsSystemData struct {
	MaxThemes int
	MaxQuotes int
}

type CommentLine struct {
	Author string
	Text   string
	Likes  int64
}

type CommentsUserData struct {
	Title    string
	Comments []CommentLine
}

type NicheUserData struct {
	ChannelTitle string
	Title        string
	Description  string
	Tags         []string
	Category     string
	RecentTitles []string
}
