package route

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/adamwoolhether/dispatch/client/download"
)

// Env carries the collaborators the handlers call into. Nil fields are
// replaced by implementations that do nothing.
type Env struct {
	Status         StatusReporter
	UpdateStatus   StatusReporter
	Progress       ProgressReporter
	UpdateProgress ProgressReporter
	Views          Views
	Store          Store
	Library        Library
	Queue          Queue
	Account        Account
	Parser         Parser
	Images         Images
	Aggregator     Aggregator
	Launcher       Launcher
	Prompter       Prompter
	Social         Social
	Updater        Updater
	Requests       Requests

	Torrent TorrentSettings

	// DataDir is the root of persisted data. The list of a user is saved
	// under DataDir/user/<name>/anime.xml.
	DataDir string

	// Debug surfaces diagnostics that are silent otherwise.
	Debug bool

	// Logger receives the diagnostics of the handlers. It defaults to the
	// router's logger, then to slog.Default.
	Logger *slog.Logger
}

// ListPath returns where the list of user is saved.
func (e *Env) ListPath(user string) string {
	return filepath.Join(e.DataDir, "user", user, "anime.xml")
}

func (e Env) withDefaults() *Env {
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	if e.Status == nil {
		e.Status = nopStatus{}
	}
	if e.UpdateStatus == nil {
		e.UpdateStatus = nopStatus{}
	}
	if e.Progress == nil {
		e.Progress = nopProgress{}
	}
	if e.UpdateProgress == nil {
		e.UpdateProgress = nopProgress{}
	}
	if e.Views == nil {
		e.Views = nopViews{}
	}
	if e.Store == nil {
		e.Store = &FileStore{Logger: e.Logger}
	}
	if e.Library == nil {
		e.Library = nopLibrary{}
	}
	if e.Queue == nil {
		e.Queue = &nopQueue{}
	}
	if e.Account == nil {
		e.Account = nopAccount{}
	}
	if e.Parser == nil {
		e.Parser = nopParser{}
	}
	if e.Images == nil {
		e.Images = nopImages{}
	}
	if e.Aggregator == nil {
		e.Aggregator = nopAggregator{}
	}
	if e.Launcher == nil {
		e.Launcher = nopLauncher{}
	}
	if e.Prompter == nil {
		e.Prompter = nopPrompter{}
	}
	if e.Social == nil {
		e.Social = nopSocial{}
	}
	if e.Updater == nil {
		e.Updater = nopUpdater{}
	}
	if e.Requests == nil {
		e.Requests = nopRequests{}
	}
	return &e
}

// FileStore saves the list with download.Replace, keeping the previous
// file as a .bak backup, and reloads it through Load.
type FileStore struct {
	Logger *slog.Logger
	Load   func() error
}

func (s *FileStore) AtomicReplaceFile(path string, data []byte) error {
	return download.Replace(context.Background(), path, data, s.Logger, download.WithBackup())
}

func (s *FileStore) LoadList() error {
	if s.Load == nil {
		return nil
	}
	return s.Load()
}

// LocalAccount keeps the configured user name and the login state in
// memory. It has no synchronization request to chain.
type LocalAccount struct {
	mu       sync.Mutex
	user     string
	loggedIn bool
}

// NewLocalAccount returns a LocalAccount for user.
func NewLocalAccount(user string) *LocalAccount {
	return &LocalAccount{user: user}
}

func (a *LocalAccount) User() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}

func (a *LocalAccount) SetUser(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.user = name
}

func (a *LocalAccount) SetLoggedIn(loggedIn bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loggedIn = loggedIn
}

// LoggedIn reports the result of the last login.
func (a *LocalAccount) LoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loggedIn
}

func (a *LocalAccount) Synchronize() *Next { return nil }

var errUnavailable = errors.New("collaborator unavailable")

type nopStatus struct{}

func (nopStatus) ReportStatus(string) {}

type nopProgress struct{}

func (nopProgress) SetProgressDeterminate(int64) {}
func (nopProgress) SetProgressIndeterminate()    {}
func (nopProgress) SetProgressValue(int64)       {}
func (nopProgress) ClearProgress()               {}

type nopViews struct{}

func (nopViews) IsOpen(View) bool                 { return false }
func (nopViews) CurrentID(View) int               { return 0 }
func (nopViews) RefreshView(View, RefreshFlags)   {}
func (nopViews) RefreshItem(View, int)            {}
func (nopViews) EnableInput(View, bool)           {}
func (nopViews) Close(View)                       {}
func (nopViews) ShowMessage(View, string, string) {}
func (nopViews) SetText(View, string, string)     {}

type nopLibrary struct{}

func (nopLibrary) FindItem(int) (Item, bool) { return nil, false }

type nopQueue struct{ updating bool }

func (q *nopQueue) SetUpdating(updating bool)   { q.updating = updating }
func (q *nopQueue) Updating() bool              { return q.updating }
func (q *nopQueue) Current() (QueueEntry, bool) { return nil, false }

type nopAccount struct{}

func (nopAccount) User() string       { return "" }
func (nopAccount) SetUser(string)     {}
func (nopAccount) SetLoggedIn(bool)   {}
func (nopAccount) Synchronize() *Next { return nil }

type nopParser struct{}

func (nopParser) ParseDetails([]byte) error           { return errUnavailable }
func (nopParser) ParseSearchResult([]byte, int) error { return errUnavailable }
func (nopParser) ParseSearchResults([]byte) error     { return errUnavailable }

type nopImages struct{}

func (nopImages) Store(int, []byte) error { return errUnavailable }

type nopAggregator struct{}

func (nopAggregator) Notify(Feed)    {}
func (nopAggregator) Archive(string) {}

type nopLauncher struct{}

func (nopLauncher) LaunchExternal(string, []string) error { return errUnavailable }
func (nopLauncher) OpenURL(string) error                  { return errUnavailable }
func (nopLauncher) DefaultApp(string) (string, error)     { return "", errUnavailable }

type nopPrompter struct{}

func (nopPrompter) Confirm(string, string) bool          { return false }
func (nopPrompter) Prompt(string, string) (string, bool) { return "", false }

type nopSocial struct{}

func (nopSocial) AuthorizeURL(string) string               { return "" }
func (nopSocial) AccessToken(string, string, string) *Next { return nil }
func (nopSocial) StoreCredentials(string, string, string)  {}

type nopUpdater struct{}

func (nopUpdater) ParseData([]byte) error    { return errUnavailable }
func (nopUpdater) DownloadAllowed() bool     { return false }
func (nopUpdater) Download() *Next           { return nil }
func (nopUpdater) SetDownloadPath(string)    {}
func (nopUpdater) Checksum() string          { return "" }
func (nopUpdater) RunInstaller(string) error { return errUnavailable }

type nopRequests struct{}

func (nopRequests) Details(int) *Next { return nil }
