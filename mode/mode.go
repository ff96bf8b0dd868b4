// Package mode enumerates the purposes an outbound request can serve and
// groups them into the families and classes the dispatcher branches on.
package mode

import "fmt"

// Mode tags the semantic purpose of one request. It is set before the
// request is issued and read-only while the request is in flight.
type Mode int

const (
	Silent Mode = iota
	RefreshList
	Login
	ItemAdd
	ItemUpdate
	ItemDelete
	AskToDiscuss
	Details
	Image
	UserImage
	Search
	FeedCheck
	FeedCheckAuto
	FeedDownload
	FeedDownloadAll
	FeedIcon
	SocialRequest
	SocialAuth
	SocialPost
	UpdateCheck
	UpdateDownload

	numModes
)

var names = [numModes]string{
	Silent:          "silent",
	RefreshList:     "refresh-list",
	Login:           "login",
	ItemAdd:         "item-add",
	ItemUpdate:      "item-update",
	ItemDelete:      "item-delete",
	AskToDiscuss:    "ask-to-discuss",
	Details:         "details",
	Image:           "image",
	UserImage:       "user-image",
	Search:          "search",
	FeedCheck:       "feed-check",
	FeedCheckAuto:   "feed-check-auto",
	FeedDownload:    "feed-download",
	FeedDownloadAll: "feed-download-all",
	FeedIcon:        "feed-icon",
	SocialRequest:   "social-request",
	SocialAuth:      "social-auth",
	SocialPost:      "social-post",
	UpdateCheck:     "update-check",
	UpdateDownload:  "update-download",
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return names[m]
}

// Valid reports whether m is a registered mode.
func (m Mode) Valid() bool {
	return m >= Silent && m < numModes
}

// All returns every registered mode in declaration order.
func All() []Mode {
	all := make([]Mode, 0, numModes)
	for m := Silent; m < numModes; m++ {
		all = append(all, m)
	}
	return all
}
