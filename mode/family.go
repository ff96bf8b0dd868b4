package mode

// Family is a pool key-space shared by modes that fetch data for the
// same kind of resource.
type Family int

const (
	FamilyNone Family = iota
	FamilyImage
	FamilySearch
)

func (f Family) String() string {
	switch f {
	case FamilyImage:
		return "image"
	case FamilySearch:
		return "search"
	default:
		return "none"
	}
}

// Class groups modes that share one error-recovery action.
type Class int

const (
	ClassDefault Class = iota
	ClassAccount
	ClassSilent
	ClassFeed
	ClassUpdate
)

func (c Class) String() string {
	switch c {
	case ClassAccount:
		return "account"
	case ClassSilent:
		return "silent"
	case ClassFeed:
		return "feed"
	case ClassUpdate:
		return "update"
	default:
		return "default"
	}
}

// ClassOf returns the error-recovery class of m.
func ClassOf(m Mode) Class {
	switch m {
	case Login, RefreshList:
		return ClassAccount
	case AskToDiscuss, Details, Image, Search, UserImage, FeedIcon:
		return ClassSilent
	case FeedCheck, FeedCheckAuto, FeedDownload, FeedDownloadAll:
		return ClassFeed
	case UpdateCheck, UpdateDownload:
		return ClassUpdate
	default:
		return ClassDefault
	}
}

// Quiet reports whether m reports no progress text while reading.
func Quiet(m Mode) bool {
	return m == Silent || ClassOf(m) == ClassSilent
}

// StatusText returns the status template shown while m is reading data.
// It returns false for quiet modes and for the update class, which
// reports progress to its own view.
func StatusText(m Mode) (string, bool) {
	if Quiet(m) || ClassOf(m) == ClassUpdate {
		return "", false
	}

	switch m {
	case RefreshList:
		return "Downloading anime list...", true
	case Login:
		return "Reading account information...", true
	case ItemAdd, ItemUpdate:
		return "Updating list...", true
	case FeedCheck, FeedCheckAuto:
		return "Checking new torrents...", true
	case FeedDownload, FeedDownloadAll:
		return "Downloading torrent file...", true
	case SocialRequest:
		return "Connecting to Twitter...", true
	case SocialAuth:
		return "Authorizing Twitter...", true
	case SocialPost:
		return "Updating Twitter status...", true
	default:
		return "Downloading data...", true
	}
}
