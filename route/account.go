package route

import (
	"context"
	"strings"
)

const (
	statusListSaved      = "Successfully downloaded the list."
	statusListInvalid    = "MyAnimeList returned an invalid response."
	statusListSaveFailed = "Failed to save the list."
)

// validList reports whether body looks like a complete list payload.
func validList(body string) bool {
	return containsFold(body, "<myanimelist>") && containsFold(body, "<myinfo>")
}

func handleRefreshList(_ context.Context, env *Env, resp Response) Outcome {
	defer env.Views.EnableInput(ViewMain, true)

	if !validList(string(resp.Body)) {
		out := status(statusListInvalid)
		out.Err = &ProtocolError{Mode: resp.Mode, StatusCode: resp.StatusCode, Reason: "missing list markers"}
		return out
	}

	path := env.ListPath(env.Account.User())
	if err := env.Store.AtomicReplaceFile(path, resp.Body); err != nil {
		out := status(statusListSaveFailed)
		out.Err = err
		return out
	}

	var out Outcome
	if err := env.Store.LoadList(); err != nil {
		out.Err = err
	}
	env.Views.RefreshView(ViewList, RefreshList)
	env.Views.RefreshView(ViewHistory, RefreshList)
	env.Views.RefreshView(ViewSearch, RefreshList)

	out.Status, out.Report = statusListSaved, true
	return out
}

func handleLogin(_ context.Context, env *Env, resp Response) Outcome {
	defer env.Views.EnableInput(ViewMain, true)

	username := between(string(resp.Body), "<username>", "</username>")
	loggedIn := username != "" && strings.EqualFold(env.Account.User(), username)
	env.Account.SetLoggedIn(loggedIn)
	env.Views.RefreshView(ViewMain, RefreshTitle)

	if !loggedIn {
		text := "Failed to log in."
		if env.Debug {
			text += " (" + string(resp.Body) + ")"
		} else {
			text += " (Invalid username or password)"
		}
		out := status(text)
		out.Err = &ApplicationError{Mode: resp.Mode, Reason: "username mismatch"}
		return out
	}

	env.Account.SetUser(username)
	out := status("Logged in as " + username + ".")
	out.Next = env.Account.Synchronize()
	return out
}

func handleMutation(_ context.Context, env *Env, resp Response) Outcome {
	env.Queue.SetUpdating(false)
	out := status("")

	item, ok := env.Library.FindItem(ParamID(resp.Param))
	if !ok {
		return out
	}
	entry, ok := env.Queue.Current()
	if !ok {
		return out
	}

	out.Next = item.ApplyEdit(entry, resp.Body, resp.StatusCode)
	return out
}
