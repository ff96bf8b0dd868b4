package route

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adamwoolhether/dispatch/client/download"
	"github.com/adamwoolhether/dispatch/mode"
)

const (
	statusNewTorrents      = "There are new torrents available!"
	statusNoNewTorrents    = "No new torrents found."
	statusTorrentsFinished = "Successfully downloaded all torrents."
)

var errNotFeed = errors.New("param is not a feed")

func handleFeedCheck(_ context.Context, env *Env, resp Response) Outcome {
	feed, ok := resp.Param.(Feed)
	if !ok {
		return Outcome{Err: errNotFeed}
	}

	var out Outcome
	if err := feed.Load(); err != nil {
		out.Err = err
	}

	found := feed.ExamineData()
	if found {
		out.Status, out.Report = statusNewTorrents, true
	} else {
		out.Status, out.Report = statusNoNewTorrents, true
	}
	env.Views.RefreshView(ViewTorrent, RefreshList)
	env.Views.EnableInput(ViewTorrent, true)

	if resp.Mode != mode.FeedCheckAuto || !found {
		return out
	}

	switch env.Torrent.NewAction {
	case TorrentActionNotify:
		env.Aggregator.Notify(feed)
	case TorrentActionDownload:
		out.Next = feed.Download(-1)
	}

	return out
}

func handleFeedDownload(ctx context.Context, env *Env, resp Response) Outcome {
	feed, ok := resp.Param.(Feed)
	if !ok {
		return Outcome{Err: errNotFeed}
	}

	var out Outcome
	if item, ok := feed.DownloadItem(); ok {
		out.Err = saveTorrent(ctx, env, feed, item, resp)
	}
	feed.ResetDownloadIndex()

	if resp.Mode == mode.FeedDownloadAll {
		if next := feed.Download(-1); next != nil {
			out.Next = next
			return out
		}
	}

	out.Status, out.Report = statusTorrentsFinished, true
	env.Views.EnableInput(ViewTorrent, true)
	return out
}

// saveTorrent persists the payload, records it in the archive and opens
// it with the configured application.
func saveTorrent(ctx context.Context, env *Env, feed Feed, item FeedItem, resp Response) error {
	if !isSuccess(resp.StatusCode) {
		return &ProtocolError{Mode: resp.Mode, StatusCode: resp.StatusCode, Reason: "torrent not downloaded"}
	}

	file := filepath.Join(feed.DataPath(), sanitizeFileName(item.Title())+".torrent")
	if err := download.Replace(ctx, file, resp.Body, env.Logger); err != nil {
		return fmt.Errorf("saving torrent: %w", err)
	}
	env.Aggregator.Archive(item.Title())

	var appPath string
	switch env.Torrent.AppMode {
	case TorrentAppDefault:
		p, err := env.Launcher.DefaultApp(".torrent")
		if err != nil {
			return fmt.Errorf("resolving torrent application: %w", err)
		}
		appPath = p
	case TorrentAppCustom:
		appPath = env.Torrent.AppPath
	}

	var args []string
	if dir := torrentDirectory(env, item, appPath); dir != "" {
		args = append(args, "/directory", dir)
	}
	args = append(args, file)

	var err error
	if appPath != "" {
		err = env.Launcher.LaunchExternal(appPath, args)
	}

	item.Discard()
	env.Views.RefreshView(ViewTorrent, RefreshList)

	return err
}

// torrentDirectory picks the download directory passed to the torrent
// application. Only uTorrent understands the argument.
func torrentDirectory(env *Env, item FeedItem, appPath string) string {
	if !env.Torrent.SetFolder || !containsFold(appPath, "utorrent") {
		return ""
	}

	var dir string
	if env.Torrent.UseFolder && dirExists(env.Torrent.DownloadPath) {
		dir = env.Torrent.DownloadPath
	}

	libItem, ok := env.Library.FindItem(item.ItemID())
	if !ok {
		return dir
	}

	if folder := libItem.Folder(); folder != "" && dirExists(folder) {
		return folder
	}

	if env.Torrent.CreateFolder && dir != "" {
		name := strings.TrimRight(sanitizeFileName(libItem.Title()), ".")
		if name == "" {
			return dir
		}
		dir = filepath.Join(dir, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return env.Torrent.DownloadPath
		}
		libItem.SetFolder(dir)
	}

	return dir
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
