package route

// View identifies a window of the surrounding application.
type View int

const (
	ViewMain View = iota
	ViewList
	ViewHistory
	ViewSearch
	ViewDetails
	ViewNowPlaying
	ViewSeason
	ViewTorrent
	ViewUpdate
	ViewSettings
)

// RefreshFlags selects which parts of a view are redrawn.
type RefreshFlags uint8

const (
	RefreshImage RefreshFlags = 1 << iota
	RefreshInfo
	RefreshList
	RefreshTitle
)

// FieldSynopsis is the details view text field that shows series info.
const FieldSynopsis = "synopsis"

// StatusReporter shows one line of user-facing status text. An empty
// text clears the status.
type StatusReporter interface {
	ReportStatus(text string)
}

// ProgressReporter drives a progress indicator.
type ProgressReporter interface {
	SetProgressDeterminate(max int64)
	SetProgressIndeterminate()
	SetProgressValue(current int64)
	ClearProgress()
}

// Views gives handlers access to the windows they refresh.
type Views interface {
	IsOpen(v View) bool
	CurrentID(v View) int
	RefreshView(v View, flags RefreshFlags)
	RefreshItem(v View, id int)
	EnableInput(v View, enabled bool)
	Close(v View)
	ShowMessage(v View, title, text string)
	SetText(v View, field, text string)
}

// Store persists the downloaded list.
type Store interface {
	AtomicReplaceFile(path string, data []byte) error
	LoadList() error
}

// QueueEntry is one pending list change.
type QueueEntry interface {
	ItemID() int
}

// Queue is the list-change queue. Updating is true while a change is
// being sent.
type Queue interface {
	SetUpdating(updating bool)
	Updating() bool
	Current() (QueueEntry, bool)
}

// Item is one library entry.
type Item interface {
	Title() string
	// NeedsDetails reports missing supplementary data such as genres or
	// score.
	NeedsDetails() bool
	Folder() string
	SetFolder(path string)
	// ApplyEdit hands the server's answer to a queued change back to the
	// item. It may return a follow-up request.
	ApplyEdit(entry QueueEntry, body []byte, statusCode int) *Next
}

// Library resolves items by id.
type Library interface {
	FindItem(id int) (Item, bool)
}

// Account is the configured user account.
type Account interface {
	User() string
	SetUser(name string)
	SetLoggedIn(loggedIn bool)
	// Synchronize builds the request that starts a full synchronization.
	Synchronize() *Next
}

// Parser interprets service payloads.
type Parser interface {
	ParseDetails(body []byte) error
	ParseSearchResult(body []byte, id int) error
	ParseSearchResults(body []byte) error
}

// Images stores fetched cover images.
type Images interface {
	Store(id int, data []byte) error
}

// Feed is the param of feed-check and feed-download requests.
type Feed interface {
	Load() error
	// ExamineData reports whether the feed holds new items.
	ExamineData() bool
	DataPath() string
	// DownloadItem returns the item the current download is for.
	DownloadItem() (FeedItem, bool)
	ResetDownloadIndex()
	// Download builds the request for item index, or for the next
	// pending item when index is negative. It returns nil when there is
	// nothing to download.
	Download(index int) *Next
}

// FeedItem is one entry of a feed.
type FeedItem interface {
	Title() string
	ItemID() int
	Discard()
}

// Aggregator owns the feeds.
type Aggregator interface {
	Notify(feed Feed)
	// Archive records a downloaded title so it is never fetched twice.
	Archive(title string)
}

// Launcher starts external programs.
type Launcher interface {
	LaunchExternal(path string, args []string) error
	OpenURL(url string) error
	DefaultApp(ext string) (string, error)
}

// Prompter asks the user.
type Prompter interface {
	Confirm(title, instruction string) bool
	Prompt(title, info string) (string, bool)
}

// Social handles the three-step authorization of the sharing service.
type Social interface {
	AuthorizeURL(token string) string
	AccessToken(token, secret, pin string) *Next
	StoreCredentials(key, secret, user string)
}

// Updater is the self-update component.
type Updater interface {
	ParseData(body []byte) error
	DownloadAllowed() bool
	Download() *Next
	SetDownloadPath(path string)
	// Checksum returns the hex SHA-256 of the announced package, or an
	// empty string when none was announced.
	Checksum() string
	RunInstaller(path string) error
}

// Requests builds follow-up requests.
type Requests interface {
	Details(id int) *Next
}

// Recorder counts completed requests.
type Recorder interface {
	Succeeded(m string)
	Failed(m string)
}

// TorrentAction is what an automatic feed check does with new items.
type TorrentAction int

const (
	TorrentActionNone TorrentAction = iota
	TorrentActionNotify
	TorrentActionDownload
)

// TorrentApp selects the program that opens downloaded torrents.
type TorrentApp int

const (
	TorrentAppNone TorrentApp = iota
	TorrentAppDefault
	TorrentAppCustom
)

// TorrentSettings controls what happens to downloaded torrents.
type TorrentSettings struct {
	NewAction    TorrentAction
	AppMode      TorrentApp
	AppPath      string
	SetFolder    bool
	UseFolder    bool
	DownloadPath string
	CreateFolder bool
}
