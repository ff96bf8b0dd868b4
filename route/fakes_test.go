package route

import (
	"errors"
	"io"
	"log/slog"
	"sync"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStatus struct {
	mu    sync.Mutex
	texts []string
}

func (s *fakeStatus) ReportStatus(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
}

func (s *fakeStatus) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func (s *fakeStatus) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.texts) == 0 {
		return ""
	}
	return s.texts[len(s.texts)-1]
}

type fakeProgress struct {
	max           int64
	indeterminate bool
	values        []int64
	cleared       int
}

func (p *fakeProgress) SetProgressDeterminate(max int64) { p.max = max }
func (p *fakeProgress) SetProgressIndeterminate()        { p.indeterminate = true }
func (p *fakeProgress) SetProgressValue(current int64)   { p.values = append(p.values, current) }
func (p *fakeProgress) ClearProgress()                   { p.cleared++ }

type fakeViews struct {
	open      map[View]bool
	current   map[View]int
	refreshed map[View]RefreshFlags
	items     map[View][]int
	input     map[View]bool
	closed    map[View]bool
	messages  []string
	texts     map[string]string
}

func newFakeViews() *fakeViews {
	return &fakeViews{
		open:      make(map[View]bool),
		current:   make(map[View]int),
		refreshed: make(map[View]RefreshFlags),
		items:     make(map[View][]int),
		input:     make(map[View]bool),
		closed:    make(map[View]bool),
		texts:     make(map[string]string),
	}
}

func (v *fakeViews) IsOpen(view View) bool                 { return v.open[view] }
func (v *fakeViews) CurrentID(view View) int               { return v.current[view] }
func (v *fakeViews) RefreshView(view View, f RefreshFlags) { v.refreshed[view] |= f }
func (v *fakeViews) RefreshItem(view View, id int)         { v.items[view] = append(v.items[view], id) }
func (v *fakeViews) EnableInput(view View, enabled bool)   { v.input[view] = enabled }
func (v *fakeViews) Close(view View)                       { v.closed[view] = true }
func (v *fakeViews) ShowMessage(_ View, title, text string) {
	v.messages = append(v.messages, title+": "+text)
}
func (v *fakeViews) SetText(_ View, field, text string) { v.texts[field] = text }

type fakeStore struct {
	writes int
	loads  int
}

func (s *fakeStore) AtomicReplaceFile(string, []byte) error { s.writes++; return nil }
func (s *fakeStore) LoadList() error                        { s.loads++; return nil }

type fakeAccount struct {
	user     string
	loggedIn bool
	sync     *Next
}

func (a *fakeAccount) User() string        { return a.user }
func (a *fakeAccount) SetUser(name string) { a.user = name }
func (a *fakeAccount) SetLoggedIn(in bool) { a.loggedIn = in }
func (a *fakeAccount) Synchronize() *Next  { return a.sync }

type fakeEntry int

func (e fakeEntry) ItemID() int { return int(e) }

type fakeQueue struct {
	updating bool
	entry    QueueEntry
}

func (q *fakeQueue) SetUpdating(u bool) { q.updating = u }
func (q *fakeQueue) Updating() bool     { return q.updating }
func (q *fakeQueue) Current() (QueueEntry, bool) {
	return q.entry, q.entry != nil
}

type fakeItem struct {
	title        string
	needsDetails bool
	folder       string
	edit         *Next
	edited       []int
}

func (i *fakeItem) Title() string         { return i.title }
func (i *fakeItem) NeedsDetails() bool    { return i.needsDetails }
func (i *fakeItem) Folder() string        { return i.folder }
func (i *fakeItem) SetFolder(path string) { i.folder = path }
func (i *fakeItem) ApplyEdit(_ QueueEntry, _ []byte, code int) *Next {
	i.edited = append(i.edited, code)
	return i.edit
}

type fakeLibrary map[int]*fakeItem

func (l fakeLibrary) FindItem(id int) (Item, bool) {
	item, ok := l[id]
	if !ok {
		return nil, false
	}
	return item, true
}

type fakeParser struct {
	err error
}

func (p fakeParser) ParseDetails([]byte) error           { return p.err }
func (p fakeParser) ParseSearchResult([]byte, int) error { return p.err }
func (p fakeParser) ParseSearchResults([]byte) error     { return p.err }

type fakeImages struct {
	stored map[int][]byte
}

func (i *fakeImages) Store(id int, data []byte) error {
	if i.stored == nil {
		i.stored = make(map[int][]byte)
	}
	i.stored[id] = data
	return nil
}

type fakeFeedItem struct {
	title     string
	itemID    int
	discarded bool
}

func (f *fakeFeedItem) Title() string { return f.title }
func (f *fakeFeedItem) ItemID() int   { return f.itemID }
func (f *fakeFeedItem) Discard()      { f.discarded = true }

type fakeFeed struct {
	found    bool
	dataPath string
	item     *fakeFeedItem
	next     *Next
	resets   int
}

func (f *fakeFeed) Load() error         { return nil }
func (f *fakeFeed) ExamineData() bool   { return f.found }
func (f *fakeFeed) DataPath() string    { return f.dataPath }
func (f *fakeFeed) ResetDownloadIndex() { f.resets++ }
func (f *fakeFeed) Download(int) *Next  { return f.next }
func (f *fakeFeed) DownloadItem() (FeedItem, bool) {
	if f.item == nil {
		return nil, false
	}
	return f.item, true
}

type fakeAggregator struct {
	notified int
	archived []string
}

func (a *fakeAggregator) Notify(Feed)          { a.notified++ }
func (a *fakeAggregator) Archive(title string) { a.archived = append(a.archived, title) }

type launch struct {
	path string
	args []string
}

type fakeLauncher struct {
	launched []launch
	opened   []string
	app      string
}

func (l *fakeLauncher) LaunchExternal(path string, args []string) error {
	l.launched = append(l.launched, launch{path: path, args: args})
	return nil
}
func (l *fakeLauncher) OpenURL(u string) error { l.opened = append(l.opened, u); return nil }
func (l *fakeLauncher) DefaultApp(string) (string, error) {
	if l.app == "" {
		return "", errors.New("no default application")
	}
	return l.app, nil
}

type fakePrompter struct {
	confirm bool
	pin     string
}

func (p fakePrompter) Confirm(string, string) bool          { return p.confirm }
func (p fakePrompter) Prompt(string, string) (string, bool) { return p.pin, p.pin != "" }

type fakeSocial struct {
	next  *Next
	creds []string
	pins  []string
}

func (s *fakeSocial) AuthorizeURL(token string) string { return "https://social.example/authorize?oauth_token=" + token }
func (s *fakeSocial) AccessToken(token, secret, pin string) *Next {
	s.pins = append(s.pins, token+":"+secret+":"+pin)
	return s.next
}
func (s *fakeSocial) StoreCredentials(key, secret, user string) {
	s.creds = []string{key, secret, user}
}

type fakeUpdater struct {
	parseErr  error
	allowed   bool
	next      *Next
	path      string
	checksum  string
	installed []string
}

func (u *fakeUpdater) ParseData([]byte) error      { return u.parseErr }
func (u *fakeUpdater) DownloadAllowed() bool       { return u.allowed }
func (u *fakeUpdater) Download() *Next             { return u.next }
func (u *fakeUpdater) SetDownloadPath(p string)    { u.path = p }
func (u *fakeUpdater) Checksum() string            { return u.checksum }
func (u *fakeUpdater) RunInstaller(p string) error { u.installed = append(u.installed, p); return nil }

type fakeRequests struct{ next *Next }

func (r fakeRequests) Details(int) *Next { return r.next }

type fakeChainer struct {
	mu     sync.Mutex
	chains []Next
	err    error
}

func (c *fakeChainer) Chain(next Next) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.chains = append(c.chains, next)
	return nil
}

type fakeRecorder struct {
	succeeded, failed map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{succeeded: make(map[string]int), failed: make(map[string]int)}
}

func (r *fakeRecorder) Succeeded(m string) { r.succeeded[m]++ }
func (r *fakeRecorder) Failed(m string)    { r.failed[m]++ }
