package route

import (
	"context"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const statusNoInformation = "Could not find anime information."

func handleAskToDiscuss(_ context.Context, env *Env, resp Response) Outcome {
	body := string(resp.Body)
	if !strings.Contains(body, "trueEp") {
		return Outcome{}
	}

	link := between(body, "self.parent.document.location='", "';")
	if link == "" {
		return Outcome{}
	}

	var title string
	if item, ok := env.Library.FindItem(ParamID(resp.Param)); ok {
		title = item.Title()
	}

	if env.Prompter.Confirm(title, "Someone has already made a discussion topic for this episode!") {
		if err := env.Launcher.OpenURL(link); err != nil {
			return Outcome{Err: err}
		}
	}

	return Outcome{}
}

// refreshItemViews refreshes the views that currently show id.
func refreshItemViews(env *Env, id int, flags RefreshFlags) {
	if env.Views.CurrentID(ViewDetails) == id {
		env.Views.RefreshView(ViewDetails, flags)
	}
	if env.Views.CurrentID(ViewNowPlaying) == id {
		env.Views.RefreshView(ViewNowPlaying, flags)
	}
	if env.Views.IsOpen(ViewSeason) {
		env.Views.RefreshView(ViewSeason, RefreshList)
	}
}

func handleDetails(_ context.Context, env *Env, resp Response) Outcome {
	if err := env.Parser.ParseDetails(resp.Body); err != nil {
		return Outcome{Err: &ProtocolError{Mode: resp.Mode, StatusCode: resp.StatusCode, Reason: err.Error()}}
	}

	refreshItemViews(env, ParamID(resp.Param), RefreshInfo)
	return Outcome{}
}

func handleImage(_ context.Context, env *Env, resp Response) Outcome {
	id := ParamID(resp.Param)

	mtype := mimetype.Detect(resp.Body)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return Outcome{Err: &ProtocolError{Mode: resp.Mode, StatusCode: resp.StatusCode, Reason: "not an image: " + mtype.String()}}
	}

	if err := env.Images.Store(id, resp.Body); err != nil {
		return Outcome{Err: err}
	}

	if env.Views.CurrentID(ViewDetails) == id {
		env.Views.RefreshView(ViewDetails, RefreshImage)
	}
	if env.Views.IsOpen(ViewList) {
		env.Views.RefreshItem(ViewList, id)
	}
	if env.Views.CurrentID(ViewNowPlaying) == id {
		env.Views.RefreshView(ViewNowPlaying, RefreshImage)
	}
	if env.Views.IsOpen(ViewSeason) {
		env.Views.RefreshView(ViewSeason, RefreshList)
	}

	return Outcome{}
}

func handleSearch(_ context.Context, env *Env, resp Response) Outcome {
	id := ParamID(resp.Param)

	if id == 0 {
		out := status("")
		if env.Views.IsOpen(ViewSearch) {
			if err := env.Parser.ParseSearchResults(resp.Body); err != nil {
				out.Err = &ProtocolError{Mode: resp.Mode, StatusCode: resp.StatusCode, Reason: err.Error()}
			}
		}
		return out
	}

	if err := env.Parser.ParseSearchResult(resp.Body, id); err != nil {
		env.Views.SetText(ViewDetails, FieldSynopsis, statusNoInformation)
		out := Outcome{Err: &ProtocolError{Mode: resp.Mode, StatusCode: resp.StatusCode, Reason: err.Error()}}
		if env.Debug {
			out.Status, out.Report = statusNoInformation, true
		}
		return out
	}

	refreshItemViews(env, id, RefreshInfo)

	if item, ok := env.Library.FindItem(id); ok && item.NeedsDetails() {
		return Outcome{Next: env.Requests.Details(id)}
	}

	return Outcome{}
}
