package mode_test

import (
	"testing"

	"github.com/adamwoolhether/dispatch/mode"
)

func TestStatusText(t *testing.T) {
	testCases := []struct {
		mode  mode.Mode
		exp   string
		expOK bool
	}{
		{mode: mode.RefreshList, exp: "Downloading anime list...", expOK: true},
		{mode: mode.Login, exp: "Reading account information...", expOK: true},
		{mode: mode.ItemUpdate, exp: "Updating list...", expOK: true},
		{mode: mode.ItemDelete, exp: "Downloading data...", expOK: true},
		{mode: mode.FeedCheckAuto, exp: "Checking new torrents...", expOK: true},
		{mode: mode.FeedDownloadAll, exp: "Downloading torrent file...", expOK: true},
		{mode: mode.SocialPost, exp: "Updating Twitter status...", expOK: true},
		{mode: mode.Silent},
		{mode: mode.Image},
		{mode: mode.Search},
		{mode: mode.UpdateDownload},
	}

	for _, tc := range testCases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			got, ok := mode.StatusText(tc.mode)
			if ok != tc.expOK {
				t.Fatalf("exp ok %v, got %v", tc.expOK, ok)
			}
			if got != tc.exp {
				t.Errorf("exp %q, got %q", tc.exp, got)
			}
		})
	}
}

func TestClassOf(t *testing.T) {
	exp := map[mode.Mode]mode.Class{
		mode.Login:           mode.ClassAccount,
		mode.RefreshList:     mode.ClassAccount,
		mode.Details:         mode.ClassSilent,
		mode.FeedIcon:        mode.ClassSilent,
		mode.FeedDownloadAll: mode.ClassFeed,
		mode.UpdateCheck:     mode.ClassUpdate,
		mode.ItemAdd:         mode.ClassDefault,
		mode.SocialPost:      mode.ClassDefault,
	}

	for m, class := range exp {
		if got := mode.ClassOf(m); got != class {
			t.Errorf("%s: exp class %s, got %s", m, class, got)
		}
	}
}

func TestMode_String(t *testing.T) {
	for _, m := range mode.All() {
		if !m.Valid() {
			t.Errorf("exp %d to be valid", m)
		}
		if m.String() == "" {
			t.Errorf("exp name for mode %d", int(m))
		}
	}

	if got := mode.Mode(-1).String(); got != "mode(-1)" {
		t.Errorf("exp mode(-1), got %q", got)
	}
}
